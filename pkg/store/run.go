package store

import "time"

// Run tracks one asynchronously submitted question while it is in flight.
type Run struct {
	ID          string     `json:"id"`
	Question    string     `json:"question"`
	MaxRetries  int        `json:"max_retries,omitempty"`
	StepBudget  int        `json:"step_budget,omitempty"`
	Status      string     `json:"status"`
	Outcome     string     `json:"outcome,omitempty"`
	Answer      string     `json:"answer,omitempty"`
	ReportID    string     `json:"report_id,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

const (
	RunPending = "PENDING"
	RunRunning = "RUNNING"
	RunDone    = "DONE"
	RunFailed  = "FAILED"
)

func (r *Run) Finished() bool {
	return r.Status == RunDone || r.Status == RunFailed
}
