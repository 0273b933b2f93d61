package orchestrator

import (
	"context"

	"cskg-agent-be/pkg/judgment"
)

// route picks the branch that runs first. A question naming a specific
// log entity always goes to the log branch, and the entity detector also
// decides alone when the routing judgment fails.
func (p *Pipeline) route(ctx context.Context, question string) Update {
	ctx, span := p.tracer.Start(ctx, "node.router")
	defer span.End()

	hasEntity, entity := DetectEntity(question)

	branch := BranchGeneral
	detail := ""

	res, err := p.judge.RouteQuestion(ctx, question)
	switch {
	case err != nil:
		if hasEntity {
			branch = BranchLog
		}
		detail = "fallback"
		p.logger.Warn("router", "Routing judgment failed, using entity detector", map[string]interface{}{
			"error":  err.Error(),
			"entity": entity,
			"branch": string(branch),
		})
	case res.Datasource == judgment.DatasourceLogAnalysis:
		branch = BranchLog
	case hasEntity:
		branch = BranchLog
		detail = "entity: " + entity
		p.logger.Info("router", "Named entity overrides general routing", map[string]interface{}{"entity": entity})
	}

	p.logger.Info("router", "Routing decision", map[string]interface{}{"branch": string(branch)})
	return Update{
		Branch: ptr(branch),
		Trace:  []TraceEntry{{Node: "router", Event: string(branch), Detail: detail}},
	}
}
