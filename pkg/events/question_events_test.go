package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuestionAnswered(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var evt Event = QuestionAnswered{
		ReportID:   "rep-1",
		Question:   "daryl login failures",
		Branch:     "log",
		Outcome:    "answered",
		Escalated:  true,
		Steps:      14,
		OccurredAt: at,
	}

	assert.Equal(t, "question_answered", evt.EventType())
	assert.Equal(t, at, evt.Timestamp())

	payload := evt.Payload()
	assert.Equal(t, "rep-1", payload["report_id"])
	assert.Equal(t, true, payload["escalated"])
	assert.Equal(t, "2026-03-01T10:00:00Z", payload["occurred_at"])
	assert.NotContains(t, payload, "answer")
}
