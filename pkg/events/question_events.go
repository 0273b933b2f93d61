package events

import "time"

const TypeQuestionAnswered = "question_answered"

// QuestionAnswered describes one finished question. The answer text itself
// is not carried; consumers fetch the report by id.
type QuestionAnswered struct {
	ReportID   string
	RunID      string
	Question   string
	Branch     string
	Outcome    string
	Escalated  bool
	Steps      int
	DurationMs int64
	OccurredAt time.Time
}

func (e QuestionAnswered) EventType() string {
	return TypeQuestionAnswered
}

func (e QuestionAnswered) Payload() map[string]interface{} {
	return map[string]interface{}{
		"report_id":   e.ReportID,
		"run_id":      e.RunID,
		"question":    e.Question,
		"branch":      e.Branch,
		"outcome":     e.Outcome,
		"escalated":   e.Escalated,
		"steps":       e.Steps,
		"duration_ms": e.DurationMs,
		"occurred_at": e.OccurredAt.Format(time.RFC3339),
	}
}

func (e QuestionAnswered) Timestamp() time.Time {
	return e.OccurredAt
}
