package entity

import (
	"time"

	"github.com/google/uuid"
)

// InvestigationReport is the audit record of one answered question.
type InvestigationReport struct {
	Id                 uuid.UUID
	Question           string
	WorkingQuestion    string
	Branch             string
	Outcome            string
	EscalationQuestion *string
	LogSummary         string
	FinalAnswer        string
	Evidence           map[string]string
	VectorRetryCount   int
	GraphRetryCount    int
	StepCount          int
	Trace              []ReportTraceEntry
	DurationMs         int64
	CreatedAt          time.Time
}

type ReportTraceEntry struct {
	Node    string `json:"node"`
	Event   string `json:"event"`
	Attempt int    `json:"attempt,omitempty"`
	Detail  string `json:"detail,omitempty"`
}
