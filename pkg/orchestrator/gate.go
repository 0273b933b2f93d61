package orchestrator

import (
	"context"
)

// gate classifies the question once. A failed classification counts as
// out of scope.
func (p *Pipeline) gate(ctx context.Context, question string) Update {
	ctx, span := p.tracer.Start(ctx, "node.guardrails")
	defer span.End()

	relevant := false
	res, err := p.judge.ClassifyRelevance(ctx, question)
	if err != nil {
		p.logger.Error("guardrails", "Relevance classification failed, refusing", map[string]interface{}{
			"question": question,
			"error":    err.Error(),
		})
	} else {
		relevant = res.Relevant()
	}

	if !relevant {
		p.logger.Warn("guardrails", "Irrelevant question detected", map[string]interface{}{"question": question})
		return Update{
			Relevant:    ptr(false),
			FinalAnswer: ptr(RefusalMessage),
			Trace:       []TraceEntry{{Node: "guardrails", Event: "irrelevant"}},
		}
	}

	p.logger.Info("guardrails", "Question is relevant", nil)
	return Update{
		Relevant: ptr(true),
		Trace:    []TraceEntry{{Node: "guardrails", Event: "relevant"}},
	}
}
