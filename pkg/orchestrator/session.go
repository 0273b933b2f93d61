package orchestrator

import (
	"errors"
	"fmt"
)

var (
	ErrFieldAlreadySet = errors.New("session field already set")
	ErrInvalidUpdate   = errors.New("invalid session update")
)

type Relevance int

const (
	RelevanceUnset Relevance = iota
	RelevanceTrue
	RelevanceFalse
)

func (r Relevance) String() string {
	switch r {
	case RelevanceTrue:
		return "relevant"
	case RelevanceFalse:
		return "irrelevant"
	default:
		return "unset"
	}
}

type Branch string

const (
	BranchUnset   Branch = ""
	BranchLog     Branch = "log"
	BranchGeneral Branch = "general"
)

// TraceEntry records one node or loop transition for diagnostics.
type TraceEntry struct {
	Node    string `json:"node"`
	Event   string `json:"event"`
	Attempt int    `json:"attempt,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Session is the per-question state. It is a value: steps never mutate it
// and instead return an Update that Apply merges into a new Session.
type Session struct {
	originalQuestion string
	workingQuestion  string
	relevance        Relevance
	branch           Branch

	graphEvidence     *Evidence
	vectorEvidence    *Evidence
	knowledgeEvidence *Evidence
	bestGraph         *Evidence
	bestVector        *Evidence

	graphRetryCount  int
	vectorRetryCount int
	maxRetries       int

	escalationQuestion *string
	logSummary         string
	escalated          bool
	finalAnswer        *string

	stepCount int
	trace     []TraceEntry
}

// NewSession starts a session for question. maxRetries below 1 is raised
// to 1 so every loop makes at least one attempt.
func NewSession(question string, maxRetries int) Session {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return Session{
		originalQuestion: question,
		workingQuestion:  question,
		graphRetryCount:  1,
		vectorRetryCount: 1,
		maxRetries:       maxRetries,
	}
}

func (s Session) OriginalQuestion() string      { return s.originalQuestion }
func (s Session) WorkingQuestion() string       { return s.workingQuestion }
func (s Session) Relevance() Relevance          { return s.relevance }
func (s Session) Branch() Branch                { return s.branch }
func (s Session) IsLogQuestion() bool           { return s.branch == BranchLog }
func (s Session) GraphEvidence() *Evidence      { return s.graphEvidence }
func (s Session) VectorEvidence() *Evidence     { return s.vectorEvidence }
func (s Session) KnowledgeEvidence() *Evidence  { return s.knowledgeEvidence }
func (s Session) BestGraphEvidence() *Evidence  { return s.bestGraph }
func (s Session) BestVectorEvidence() *Evidence { return s.bestVector }
func (s Session) GraphRetryCount() int          { return s.graphRetryCount }
func (s Session) VectorRetryCount() int         { return s.vectorRetryCount }
func (s Session) MaxRetries() int               { return s.maxRetries }
func (s Session) LogSummary() string            { return s.logSummary }
func (s Session) Escalated() bool               { return s.escalated }
func (s Session) StepCount() int                { return s.stepCount }

func (s Session) EscalationQuestion() (string, bool) {
	if s.escalationQuestion == nil {
		return "", false
	}
	return *s.escalationQuestion, true
}

func (s Session) FinalAnswer() (string, bool) {
	if s.finalAnswer == nil {
		return "", false
	}
	return *s.finalAnswer, true
}

func (s Session) Trace() []TraceEntry {
	return append([]TraceEntry(nil), s.trace...)
}

// Update is a partial change to a Session. Nil fields are left untouched.
type Update struct {
	WorkingQuestion    *string
	Relevant           *bool
	Branch             *Branch
	GraphEvidence      *Evidence
	VectorEvidence     *Evidence
	KnowledgeEvidence  *Evidence
	BestGraph          *Evidence
	BestVector         *Evidence
	GraphRetryCount    *int
	VectorRetryCount   *int
	EscalationQuestion *string
	LogSummary         *string
	Escalated          *bool
	FinalAnswer        *string
	StepCount          *int
	Trace              []TraceEntry
}

// Merge folds later into u; fields set in later win and traces concatenate.
func (u Update) Merge(later Update) Update {
	out := u
	if later.WorkingQuestion != nil {
		out.WorkingQuestion = later.WorkingQuestion
	}
	if later.Relevant != nil {
		out.Relevant = later.Relevant
	}
	if later.Branch != nil {
		out.Branch = later.Branch
	}
	if later.GraphEvidence != nil {
		out.GraphEvidence = later.GraphEvidence
	}
	if later.VectorEvidence != nil {
		out.VectorEvidence = later.VectorEvidence
	}
	if later.KnowledgeEvidence != nil {
		out.KnowledgeEvidence = later.KnowledgeEvidence
	}
	if later.BestGraph != nil {
		out.BestGraph = later.BestGraph
	}
	if later.BestVector != nil {
		out.BestVector = later.BestVector
	}
	if later.GraphRetryCount != nil {
		out.GraphRetryCount = later.GraphRetryCount
	}
	if later.VectorRetryCount != nil {
		out.VectorRetryCount = later.VectorRetryCount
	}
	if later.EscalationQuestion != nil {
		out.EscalationQuestion = later.EscalationQuestion
	}
	if later.LogSummary != nil {
		out.LogSummary = later.LogSummary
	}
	if later.Escalated != nil {
		out.Escalated = later.Escalated
	}
	if later.FinalAnswer != nil {
		out.FinalAnswer = later.FinalAnswer
	}
	if later.StepCount != nil {
		out.StepCount = later.StepCount
	}
	out.Trace = append(append([]TraceEntry(nil), u.Trace...), later.Trace...)
	return out
}

// Apply returns a new Session with u merged in. The receiver is unchanged.
func (s Session) Apply(u Update) (Session, error) {
	next := s
	next.trace = append([]TraceEntry(nil), s.trace...)

	if u.Relevant != nil {
		if s.relevance != RelevanceUnset {
			return s, fmt.Errorf("%w: is_relevant", ErrFieldAlreadySet)
		}
		next.relevance = RelevanceFalse
		if *u.Relevant {
			next.relevance = RelevanceTrue
		}
	}

	if u.Branch != nil {
		if s.branch != BranchUnset {
			return s, fmt.Errorf("%w: is_log_question", ErrFieldAlreadySet)
		}
		if next.relevance != RelevanceTrue {
			return s, fmt.Errorf("%w: branch set on a question that did not pass the gate", ErrInvalidUpdate)
		}
		if *u.Branch != BranchLog && *u.Branch != BranchGeneral {
			return s, fmt.Errorf("%w: unknown branch %q", ErrInvalidUpdate, *u.Branch)
		}
		next.branch = *u.Branch
	}

	if u.WorkingQuestion != nil {
		next.workingQuestion = *u.WorkingQuestion
	}

	if u.GraphRetryCount != nil {
		if err := checkRetryCount(s.graphRetryCount, *u.GraphRetryCount, s.maxRetries); err != nil {
			return s, err
		}
		next.graphRetryCount = *u.GraphRetryCount
	}
	if u.VectorRetryCount != nil {
		if err := checkRetryCount(s.vectorRetryCount, *u.VectorRetryCount, s.maxRetries); err != nil {
			return s, err
		}
		next.vectorRetryCount = *u.VectorRetryCount
	}

	if err := checkSource(u.GraphEvidence, SourceGraph); err != nil {
		return s, err
	}
	if err := checkSource(u.BestGraph, SourceGraph); err != nil {
		return s, err
	}
	if err := checkSource(u.VectorEvidence, SourceVector); err != nil {
		return s, err
	}
	if err := checkSource(u.BestVector, SourceVector); err != nil {
		return s, err
	}
	if err := checkSource(u.KnowledgeEvidence, SourceKnowledge); err != nil {
		return s, err
	}

	if u.GraphEvidence != nil {
		next.graphEvidence = u.GraphEvidence
	}
	if u.VectorEvidence != nil {
		next.vectorEvidence = u.VectorEvidence
	}
	if u.KnowledgeEvidence != nil {
		next.knowledgeEvidence = u.KnowledgeEvidence
	}
	if u.BestGraph != nil {
		if u.BestGraph.Empty() {
			return s, fmt.Errorf("%w: high-water mark must be non-empty", ErrInvalidUpdate)
		}
		next.bestGraph = u.BestGraph
	}
	if u.BestVector != nil {
		if u.BestVector.Empty() {
			return s, fmt.Errorf("%w: high-water mark must be non-empty", ErrInvalidUpdate)
		}
		next.bestVector = u.BestVector
	}

	if u.EscalationQuestion != nil {
		if s.escalationQuestion != nil {
			return s, fmt.Errorf("%w: escalation_question", ErrFieldAlreadySet)
		}
		q := *u.EscalationQuestion
		next.escalationQuestion = &q
	}
	if u.LogSummary != nil {
		next.logSummary = *u.LogSummary
	}
	if u.Escalated != nil {
		next.escalated = *u.Escalated
	}

	if u.FinalAnswer != nil {
		if s.finalAnswer != nil {
			return s, fmt.Errorf("%w: final_answer", ErrFieldAlreadySet)
		}
		a := *u.FinalAnswer
		next.finalAnswer = &a
	}

	if u.StepCount != nil {
		if *u.StepCount < s.stepCount {
			return s, fmt.Errorf("%w: step count cannot decrease", ErrInvalidUpdate)
		}
		next.stepCount = *u.StepCount
	}

	next.trace = append(next.trace, u.Trace...)
	return next, nil
}

func checkRetryCount(current, proposed, maxRetries int) error {
	if proposed < current || proposed < 1 || proposed > maxRetries {
		return fmt.Errorf("%w: retry count %d outside [%d, %d]", ErrInvalidUpdate, proposed, current, maxRetries)
	}
	return nil
}

func checkSource(e *Evidence, want Source) error {
	if e != nil && e.Source != want {
		return fmt.Errorf("%w: %s evidence written to %s slot", ErrInvalidUpdate, e.Source, want)
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
