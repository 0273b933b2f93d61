package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"cskg-agent-be/pkg/judgment"
)

// ReportHeadings are the numbered sections every report must contain.
var ReportHeadings = []string{
	"1. Original Question",
	"2. Cypher Log Information Context",
	"3. Vector Log Information Context",
	"4. Generated Question for Cybersecurity Knowledge Base",
	"5. Cybersecurity Knowledge Base Context",
	"6. Critical Analysis",
	"7. Contextual Linkage",
	"8. Final Answer",
}

const analysisUnavailable = "Critical analysis is unavailable because the report could not be generated."

// synthesize writes the final answer. With no evidence at all it returns
// the fixed no-data message without a judgment call.
func (p *Pipeline) synthesize(ctx context.Context, sess Session) (Update, Outcome) {
	ctx, span := p.tracer.Start(ctx, "node.synthesizer")
	defer span.End()

	if sess.GraphEvidence().Empty() && sess.VectorEvidence().Empty() && sess.KnowledgeEvidence().Empty() {
		p.logger.Warn("synthesizer", "No evidence from any source", nil)
		return Update{
			FinalAnswer: ptr(NoDataMessage),
			Trace:       []TraceEntry{{Node: "synthesizer", Event: "no_data"}},
		}, OutcomeNoData
	}

	vars := reportVars(sess)
	report, err := p.judge.WriteReport(ctx, vars)
	switch {
	case err != nil:
		p.logger.Error("synthesizer", "Report generation failed, rendering template", map[string]interface{}{"error": err.Error()})
		report = renderReport(sess, vars, "")
	case !hasAllHeadings(report):
		p.logger.Warn("synthesizer", "Report does not follow the template, rendering template", map[string]interface{}{
			"missing": strings.Join(missingHeadings(report), ", "),
		})
		report = renderReport(sess, vars, report)
	}

	return Update{
		FinalAnswer: ptr(report),
		Trace:       []TraceEntry{{Node: "synthesizer", Event: "report"}},
	}, OutcomeAnswered
}

func reportVars(sess Session) judgment.ReportVars {
	logAttempted := sess.IsLogQuestion()
	knowledgeAttempted := sess.Branch() == BranchGeneral || sess.Escalated()

	generated := NotApplicable
	if q, ok := sess.EscalationQuestion(); ok && sess.Escalated() {
		generated = q
	}

	return judgment.ReportVars{
		OriginalQuestion:  sess.OriginalQuestion(),
		GraphContext:      sourceContext(sess.GraphEvidence(), logAttempted),
		VectorContext:     sourceContext(sess.VectorEvidence(), logAttempted),
		GeneratedQuestion: generated,
		KnowledgeContext:  sourceContext(sess.KnowledgeEvidence(), knowledgeAttempted),
	}
}

func sourceContext(ev *Evidence, attempted bool) string {
	switch {
	case !attempted:
		return NotApplicable
	case ev.Empty():
		return NoDataFromSource
	default:
		return ev.Render()
	}
}

func hasAllHeadings(report string) bool {
	return len(missingHeadings(report)) == 0
}

func missingHeadings(report string) []string {
	lower := strings.ToLower(report)
	var missing []string
	for _, h := range ReportHeadings {
		if !strings.Contains(lower, strings.ToLower(h)) {
			missing = append(missing, h)
		}
	}
	return missing
}

// renderReport fills the template without the model. draft, when set, is
// the non-conforming model output and becomes the final answer section.
func renderReport(sess Session, vars judgment.ReportVars, draft string) string {
	sections := []string{
		vars.OriginalQuestion,
		vars.GraphContext,
		vars.VectorContext,
		vars.GeneratedQuestion,
		vars.KnowledgeContext,
		analysisUnavailable,
		linkage(sess),
		finalAnswerText(sess, draft),
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	for i, h := range ReportHeadings {
		fmt.Fprintf(&sb, "**%s:**\n%s\n\n", h, strings.TrimSpace(sections[i]))
	}
	sb.WriteString("---")
	return sb.String()
}

func linkage(sess Session) string {
	var steps []string
	if sess.IsLogQuestion() {
		steps = append(steps, "The question was routed to log analysis.")
		steps = append(steps, fmt.Sprintf("Vector search %s after %d attempt(s).", outcomeWord(sess.VectorEvidence()), sess.VectorRetryCount()))
		steps = append(steps, fmt.Sprintf("Graph query %s after %d attempt(s).", outcomeWord(sess.GraphEvidence()), sess.GraphRetryCount()))
		if q, ok := sess.EscalationQuestion(); ok && sess.Escalated() {
			steps = append(steps, fmt.Sprintf("The log findings prompted a knowledge base inquiry: %q, which %s.", q, outcomeWord(sess.KnowledgeEvidence())))
		} else {
			steps = append(steps, "The knowledge base was not consulted.")
		}
	} else {
		steps = append(steps, "The question was routed directly to the cybersecurity knowledge base, which "+outcomeWord(sess.KnowledgeEvidence())+".")
	}
	return strings.Join(steps, " ")
}

func outcomeWord(ev *Evidence) string {
	if ev.Empty() {
		return "returned no data"
	}
	return "returned data"
}

func finalAnswerText(sess Session, draft string) string {
	if d := strings.TrimSpace(draft); d != "" {
		return d
	}
	if s := strings.TrimSpace(sess.LogSummary()); s != "" {
		if k := sess.KnowledgeEvidence(); !k.Empty() {
			return s + "\n\n" + k.Render()
		}
		return s
	}
	for _, ev := range []*Evidence{sess.KnowledgeEvidence(), sess.VectorEvidence(), sess.GraphEvidence()} {
		if !ev.Empty() {
			return ev.Render()
		}
	}
	return NoDataFromSource
}
