package dto

import (
	"time"

	"github.com/google/uuid"
)

type ListReportsRequest struct {
	Outcome string `query:"outcome" validate:"omitempty,oneof=answered refused no_data failed"`
	Branch  string `query:"branch" validate:"omitempty,oneof=log general"`
	Search  string `query:"q" validate:"omitempty,max=200"`
	Limit   int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset  int    `query:"offset" validate:"omitempty,min=0"`
}

type ReportSummaryResponse struct {
	Id        uuid.UUID `json:"id"`
	Question  string    `json:"question"`
	Branch    string    `json:"branch"`
	Outcome   string    `json:"outcome"`
	Steps     int       `json:"steps"`
	CreatedAt time.Time `json:"created_at"`
}

type ListReportsResponse struct {
	Items  []*ReportSummaryResponse `json:"items"`
	Total  int64                    `json:"total"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
}

type TraceEntryResponse struct {
	Node    string `json:"node"`
	Event   string `json:"event"`
	Attempt int    `json:"attempt,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

type ReportResponse struct {
	Id                 uuid.UUID             `json:"id"`
	Question           string                `json:"question"`
	WorkingQuestion    string                `json:"working_question"`
	Branch             string                `json:"branch"`
	Outcome            string                `json:"outcome"`
	EscalationQuestion *string               `json:"escalation_question"`
	LogSummary         string                `json:"log_summary,omitempty"`
	FinalAnswer        string                `json:"final_answer"`
	Evidence           map[string]string     `json:"evidence"`
	VectorRetryCount   int                   `json:"vector_retry_count"`
	GraphRetryCount    int                   `json:"graph_retry_count"`
	Steps              int                   `json:"steps"`
	Trace              []*TraceEntryResponse `json:"trace"`
	DurationMs         int64                 `json:"duration_ms"`
	CreatedAt          time.Time             `json:"created_at"`
}
