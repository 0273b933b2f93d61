package orchestrator

import (
	"errors"
	"fmt"
)

var ErrIllegalTransition = errors.New("illegal loop transition")

// LoopState is a state of the retrieval-with-reflection loop.
type LoopState string

const (
	StateAttempt   LoopState = "ATTEMPT"
	StateReview    LoopState = "REVIEW"
	StateAccept    LoopState = "ACCEPT"
	StateReflect   LoopState = "REFLECT"
	StateExhausted LoopState = "EXHAUSTED"
)

func (s LoopState) Terminal() bool {
	return s == StateAccept || s == StateExhausted
}

type LoopEvent string

const (
	EventEvidenceReceived LoopEvent = "evidence_received"
	EventSufficient       LoopEvent = "sufficient"
	EventRetryAvailable   LoopEvent = "insufficient_retry_available"
	EventRetriesExhausted LoopEvent = "insufficient_retries_exhausted"
	EventRewritten        LoopEvent = "question_rewritten"
)

type transitionKey struct {
	from  LoopState
	event LoopEvent
}

var transitions = map[transitionKey]LoopState{
	{StateAttempt, EventEvidenceReceived}: StateReview,
	{StateReview, EventSufficient}:        StateAccept,
	{StateReview, EventRetryAvailable}:    StateReflect,
	{StateReview, EventRetriesExhausted}:  StateExhausted,
	{StateReflect, EventRewritten}:        StateAttempt,
}

// Next returns the state reached from s on event, or ErrIllegalTransition.
func Next(s LoopState, event LoopEvent) (LoopState, error) {
	to, ok := transitions[transitionKey{s, event}]
	if !ok {
		return s, fmt.Errorf("%w: %s on %s", ErrIllegalTransition, s, event)
	}
	return to, nil
}

// reviewEvent maps a review verdict and the retry position to an event.
func reviewEvent(sufficient bool, retryCount, maxRetries int) LoopEvent {
	switch {
	case sufficient:
		return EventSufficient
	case retryCount < maxRetries:
		return EventRetryAvailable
	default:
		return EventRetriesExhausted
	}
}
