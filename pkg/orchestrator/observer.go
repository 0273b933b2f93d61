package orchestrator

import "time"

// Observer receives pipeline milestones, typically for metrics.
type Observer interface {
	LoopFinished(source Source, state LoopState, retryCount int)
	Escalated(escalated bool)
	QuestionAnswered(outcome Outcome, steps int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) LoopFinished(Source, LoopState, int)          {}
func (nopObserver) Escalated(bool)                               {}
func (nopObserver) QuestionAnswered(Outcome, int, time.Duration) {}
