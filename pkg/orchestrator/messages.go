package orchestrator

// User-facing fixed strings.
const (
	RefusalMessage        = "Sorry, I can only answer questions related to cybersecurity, such as log analysis, attack techniques, malware, and threat actors."
	NoDataMessage         = "Sorry, after several attempts, I could not find any relevant information."
	GenericFailureMessage = "Sorry, something went wrong while processing your question. Please try again."

	NotApplicable    = "Not applicable for this query."
	NoDataFromSource = "No data was provided from this source."
)

const (
	DefaultMaxRetries = 3
	DefaultStepBudget = 30
)
