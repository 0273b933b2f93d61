package orchestrator

import (
	"context"
	"fmt"

	"cskg-agent-be/pkg/retrieval"

	"go.opentelemetry.io/otel/attribute"
)

const noDataReturned = "No data was returned."

// loopStrategy binds the generic loop to one adapter.
type loopStrategy interface {
	source() Source
	node() string
	attempt(ctx context.Context, question string) *Evidence
	reflect(ctx context.Context, originalQuestion string, failed *Evidence) (string, error)
}

// LoopOutcome summarizes one finished retrieval loop.
type LoopOutcome struct {
	Source     Source
	State      LoopState
	RetryCount int
}

// runLoop drives ATTEMPT, REVIEW and REFLECT for one adapter until ACCEPT or
// EXHAUSTED. It returns the session fields owned by that adapter. The only
// error is an abort from the step budget or the caller's context.
//
// Every loop starts from the original question, not the session's working
// question, so a rewrite made for one source never feeds another source's
// first attempt. The working question still records the latest rewrite.
func (p *Pipeline) runLoop(ctx context.Context, sess Session, strat loopStrategy, budget *stepBudget) (Update, LoopOutcome, error) {
	ctx, span := p.tracer.Start(ctx, "loop."+string(strat.source()))
	defer span.End()

	original := sess.OriginalQuestion()
	question := original
	retry := retryCountFor(sess, strat.source())
	maxRetries := sess.MaxRetries()

	var (
		update  Update
		current *Evidence
		best    *Evidence
		state   = StateAttempt
	)

	record := func(from LoopState, event LoopEvent, to LoopState, detail string) {
		update.Trace = append(update.Trace, TraceEntry{
			Node:    strat.node(),
			Event:   fmt.Sprintf("%s -[%s]-> %s", from, event, to),
			Attempt: retry,
			Detail:  detail,
		})
	}

	for !state.Terminal() {
		var (
			event  LoopEvent
			detail string
		)

		switch state {
		case StateAttempt:
			if err := budget.charge(ctx, strat.node()+".attempt"); err != nil {
				return Update{}, LoopOutcome{}, err
			}
			current = p.withAdapterTimeout(ctx, func(actx context.Context) *Evidence {
				return strat.attempt(actx, question)
			})
			if ctx.Err() != nil {
				return Update{}, LoopOutcome{}, fmt.Errorf("%w: %s: %v", ErrAborted, strat.node(), ctx.Err())
			}
			if !current.Empty() {
				best = current
			}
			event = EventEvidenceReceived
			detail = question

		case StateReview:
			if err := budget.charge(ctx, strat.node()+".review"); err != nil {
				return Update{}, LoopOutcome{}, err
			}
			sufficient := p.review(ctx, strat.node(), original, current)
			event = reviewEvent(sufficient, retry, maxRetries)

		case StateReflect:
			if err := budget.charge(ctx, strat.node()+".reflect"); err != nil {
				return Update{}, LoopOutcome{}, err
			}
			rewritten, err := strat.reflect(ctx, original, current)
			if err != nil || rewritten == "" {
				p.logger.Warn(strat.node(), "Reflection failed, keeping current question", map[string]interface{}{
					"question": question,
					"error":    errString(err),
				})
			} else {
				question = rewritten
			}
			retry++
			event = EventRewritten
			detail = question
			update.WorkingQuestion = ptr(question)
		}

		next, err := Next(state, event)
		if err != nil {
			return Update{}, LoopOutcome{}, err
		}
		record(state, event, next, detail)
		state = next
	}

	switch state {
	case StateAccept:
		p.logger.Info(strat.node(), "Evidence accepted", map[string]interface{}{"attempt": retry})
		setEvidence(&update, strat.source(), current)
	case StateExhausted:
		p.logger.Warn(strat.node(), "Retries exhausted", map[string]interface{}{
			"attempt":       retry,
			"fallback_used": best != nil,
		})
		if best != nil {
			setEvidence(&update, strat.source(), best)
		}
	}

	if best != nil {
		setBest(&update, strat.source(), best)
	}
	setRetryCount(&update, strat.source(), retry)

	span.SetAttributes(
		attribute.String("loop.state", string(state)),
		attribute.Int("loop.retry_count", retry),
	)

	return update, LoopOutcome{Source: strat.source(), State: state, RetryCount: retry}, nil
}

// review judges evidence against the original question. Empty evidence and
// judgment failures are insufficient.
func (p *Pipeline) review(ctx context.Context, node, original string, ev *Evidence) bool {
	if ev.Empty() {
		p.logger.Info(node, "Evidence empty, marking insufficient", nil)
		return false
	}
	res, err := p.judge.ReviewSufficiency(ctx, original, ev.Render())
	if err != nil {
		p.logger.Warn(node, "Review failed, marking insufficient", map[string]interface{}{"error": err.Error()})
		return false
	}
	p.logger.Info(node, "Review decision", map[string]interface{}{
		"decision":  res.Decision,
		"reasoning": res.Reasoning,
	})
	return res.Sufficient()
}

// withAdapterTimeout bounds one adapter call. A timed out call yields empty
// evidence like any other adapter failure.
func (p *Pipeline) withAdapterTimeout(ctx context.Context, call func(context.Context) *Evidence) *Evidence {
	actx, cancel := context.WithTimeout(ctx, p.cfg.AdapterTimeout)
	defer cancel()
	return call(actx)
}

func retryCountFor(sess Session, src Source) int {
	if src == SourceGraph {
		return sess.GraphRetryCount()
	}
	return sess.VectorRetryCount()
}

func setEvidence(u *Update, src Source, ev *Evidence) {
	if src == SourceGraph {
		u.GraphEvidence = ev
	} else {
		u.VectorEvidence = ev
	}
}

func setBest(u *Update, src Source, ev *Evidence) {
	if src == SourceGraph {
		u.BestGraph = ev
	} else {
		u.BestVector = ev
	}
}

func setRetryCount(u *Update, src Source, n int) {
	if src == SourceGraph {
		u.GraphRetryCount = ptr(n)
	} else {
		u.VectorRetryCount = ptr(n)
	}
}

type vectorStrategy struct {
	p *Pipeline
}

func (s vectorStrategy) source() Source { return SourceVector }
func (s vectorStrategy) node() string   { return "vector_loop" }

func (s vectorStrategy) attempt(ctx context.Context, question string) *Evidence {
	res, err := s.p.vector.Query(ctx, question)
	if err != nil {
		s.p.logger.Warn(s.node(), "Vector search failed", map[string]interface{}{
			"question": question,
			"error":    err.Error(),
		})
		return NewVectorEvidence(question, retrieval.VectorResult{})
	}
	return NewVectorEvidence(question, res)
}

func (s vectorStrategy) reflect(ctx context.Context, original string, failed *Evidence) (string, error) {
	failedContext := failed.Render()
	if failedContext == "" {
		failedContext = noDataReturned
	}
	return s.p.judge.RewriteForVector(ctx, original, failedContext)
}

type graphStrategy struct {
	p *Pipeline
}

func (s graphStrategy) source() Source { return SourceGraph }
func (s graphStrategy) node() string   { return "graph_loop" }

func (s graphStrategy) attempt(ctx context.Context, question string) *Evidence {
	return NewGraphEvidence(question, s.p.graph.Query(ctx, question))
}

func (s graphStrategy) reflect(ctx context.Context, original string, failed *Evidence) (string, error) {
	failedQuery := failed.GeneratedQuery()
	if failedQuery == "" {
		failedQuery = noDataReturned
	}
	return s.p.judge.RewriteForGraph(ctx, original, s.p.graph.Schema(ctx), failedQuery)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
