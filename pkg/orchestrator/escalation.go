package orchestrator

import (
	"context"
)

// escalate asks once whether the log findings call for general knowledge.
// A failed judgment means no escalation.
func (p *Pipeline) escalate(ctx context.Context, sess Session) Update {
	ctx, span := p.tracer.Start(ctx, "node.escalation")
	defer span.End()

	vectorContext := sess.VectorEvidence().Render()
	if vectorContext == "" {
		vectorContext = NoDataFromSource
	}
	graphContext := sess.GraphEvidence().Render()
	if graphContext == "" {
		graphContext = NoDataFromSource
	}

	res, err := p.judge.AnalyzeLogs(ctx, sess.OriginalQuestion(), vectorContext, graphContext)
	if err != nil {
		p.logger.Warn("escalation", "Log analysis failed, not escalating", map[string]interface{}{"error": err.Error()})
		return Update{
			Escalated: ptr(false),
			Trace:     []TraceEntry{{Node: "escalation", Event: "skipped", Detail: "judgment failed"}},
		}
	}

	u := Update{
		LogSummary: ptr(res.LogSummary),
		Escalated:  ptr(res.Escalate()),
	}
	if res.Escalate() {
		p.logger.Info("escalation", "Log findings need cybersecurity knowledge", map[string]interface{}{
			"generated_question": res.GeneratedQuestion,
		})
		u.EscalationQuestion = ptr(res.GeneratedQuestion)
		u.Trace = []TraceEntry{{Node: "escalation", Event: "escalate", Detail: res.GeneratedQuestion}}
	} else {
		p.logger.Info("escalation", "Log findings are self-contained", nil)
		u.Trace = []TraceEntry{{Node: "escalation", Event: "no_escalation"}}
	}
	return u
}

// consultKnowledge queries the structured-knowledge adapter once. Failures
// and timeouts leave the knowledge slot absent.
func (p *Pipeline) consultKnowledge(ctx context.Context, question string) Update {
	ctx, span := p.tracer.Start(ctx, "node.knowledge")
	defer span.End()

	ev := p.withAdapterTimeout(ctx, func(actx context.Context) *Evidence {
		text, err := p.knowledge.Query(actx, question)
		if err != nil {
			p.logger.Warn("knowledge", "Knowledge query failed", map[string]interface{}{
				"question": question,
				"error":    err.Error(),
			})
			return nil
		}
		return NewKnowledgeEvidence(question, text)
	})

	if ev.Empty() {
		return Update{Trace: []TraceEntry{{Node: "knowledge", Event: "empty", Detail: question}}}
	}

	p.logger.Info("knowledge", "Knowledge query completed", map[string]interface{}{"question": question})
	return Update{
		KnowledgeEvidence: ev,
		Trace:             []TraceEntry{{Node: "knowledge", Event: "answered", Detail: question}},
	}
}
