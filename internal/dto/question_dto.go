package dto

import "time"

type AskQuestionRequest struct {
	Question   string `json:"question" validate:"required,min=3,max=2000"`
	MaxRetries int    `json:"max_retries" validate:"omitempty,min=1,max=10"`
	StepBudget int    `json:"step_budget" validate:"omitempty,min=5,max=200"`
}

type AskQuestionResponse struct {
	ReportId   string `json:"report_id,omitempty"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Outcome    string `json:"outcome"`
	Branch     string `json:"branch,omitempty"`
	Escalated  bool   `json:"escalated"`
	Steps      int    `json:"steps"`
	DurationMs int64  `json:"duration_ms"`
}

// PublishQuestionMessage is the queue payload for an async question.
type PublishQuestionMessage struct {
	RunId      string `json:"run_id"`
	Question   string `json:"question"`
	MaxRetries int    `json:"max_retries,omitempty"`
	StepBudget int    `json:"step_budget,omitempty"`
}

type SubmitQuestionResponse struct {
	RunId  string `json:"run_id"`
	Status string `json:"status"`
}

type RunResponse struct {
	RunId       string     `json:"run_id"`
	Question    string     `json:"question"`
	Status      string     `json:"status"`
	Outcome     string     `json:"outcome,omitempty"`
	Answer      string     `json:"answer,omitempty"`
	ReportId    string     `json:"report_id,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
