package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cskg-agent-be/internal/pkg/logger"
	"cskg-agent-be/pkg/judgment"
	"cskg-agent-be/pkg/mcpclient"
)

var ErrMaxStepsReached = errors.New("knowledge agent reached the maximum number of steps")

const maxObservationLen = 4000

type ToolClient interface {
	ListTools(ctx context.Context) ([]mcpclient.Tool, error)
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

type Planner interface {
	DecideToolAction(ctx context.Context, question, tools, transcript string) (judgment.ToolAction, error)
}

// Agent answers a question by letting the planner call the knowledge
// server's tools until it produces a final answer or runs out of steps.
type Agent struct {
	tools    ToolClient
	planner  Planner
	maxSteps int
	logger   logger.ILogger
}

func NewAgent(tools ToolClient, planner Planner, maxSteps int, log logger.ILogger) *Agent {
	if maxSteps <= 0 {
		maxSteps = 30
	}
	return &Agent{tools: tools, planner: planner, maxSteps: maxSteps, logger: log}
}

func (a *Agent) Query(ctx context.Context, question string) (string, error) {
	available, err := a.tools.ListTools(ctx)
	if err != nil {
		return "", err
	}
	if len(available) == 0 {
		return "", fmt.Errorf("knowledge server exposes no tools")
	}
	known := make(map[string]bool, len(available))
	for _, t := range available {
		known[t.Name] = true
	}
	toolList := describeTools(available)

	var transcript []string
	calls := make(map[string]int)

	for step := 1; step <= a.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		action, err := a.planner.DecideToolAction(ctx, question, toolList, renderTranscript(transcript))
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			transcript = append(transcript, fmt.Sprintf("Step %d: invalid reply (%v). Reply with exactly one JSON object in the required format.", step, err))
			continue
		}

		if action.Action == judgment.ActionFinalAnswer {
			a.logger.Info("knowledge", "Agent produced final answer", map[string]interface{}{"steps": step})
			return strings.TrimSpace(action.Answer), nil
		}

		if !known[action.Tool] {
			transcript = append(transcript, fmt.Sprintf("Step %d: tool %q does not exist. Use only the available tools.", step, action.Tool))
			continue
		}

		args := sanitizeArguments(action.Arguments)
		argsJSON, _ := json.Marshal(args)
		signature := action.Tool + string(argsJSON)
		calls[signature]++
		if calls[signature] > 1 {
			transcript = append(transcript, fmt.Sprintf("Step %d: %s was already called with %s. Change the arguments or the tool.", step, action.Tool, argsJSON))
			continue
		}

		observation, err := a.tools.CallTool(ctx, action.Tool, args)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			a.logger.Warn("knowledge", "Tool call failed", map[string]interface{}{
				"tool":  action.Tool,
				"error": err.Error(),
			})
			observation = "ERROR: " + err.Error()
		} else if strings.TrimSpace(observation) == "" {
			observation = "No results found."
		}

		transcript = append(transcript, fmt.Sprintf("Step %d: called %s with %s\nResult: %s",
			step, action.Tool, argsJSON, truncate(observation, maxObservationLen)))
	}

	a.logger.Warn("knowledge", "Agent stopped without an answer", map[string]interface{}{"max_steps": a.maxSteps})
	return "", ErrMaxStepsReached
}

func describeTools(tools []mcpclient.Tool) string {
	var sb strings.Builder
	for _, t := range tools {
		fmt.Fprintf(&sb, "- %s: %s\n  input schema: %s\n", t.Name, strings.TrimSpace(t.Description), t.InputSchema)
	}
	return strings.TrimSpace(sb.String())
}

func renderTranscript(steps []string) string {
	if len(steps) == 0 {
		return "(none yet)"
	}
	return strings.Join(steps, "\n\n")
}

// sanitizeArguments drops the server-injected ctx argument.
func sanitizeArguments(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if k == "ctx" {
			continue
		}
		out[k] = v
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "\n[truncated]"
}
