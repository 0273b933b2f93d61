package judgment

import "strings"

const (
	DecisionRelevant   = "relevant"
	DecisionIrrelevant = "irrelevant"

	DatasourceLogAnalysis    = "log_analysis"
	DatasourceCyberKnowledge = "cyber_knowledge"

	DecisionSufficient   = "sufficient"
	DecisionInsufficient = "insufficient"

	DecisionKnowledgeRequired    = "cskg_required"
	DecisionKnowledgeNotRequired = "not_required"

	ActionCallTool    = "call_tool"
	ActionFinalAnswer = "final_answer"
)

// normalizer is implemented by results whose enum fields are lower-cased
// and trimmed before validation.
type normalizer interface {
	normalize()
}

func canon(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type RelevanceResult struct {
	Decision string `json:"decision" validate:"required,oneof=relevant irrelevant"`
}

func (r *RelevanceResult) normalize() { r.Decision = canon(r.Decision) }

func (r RelevanceResult) Relevant() bool { return r.Decision == DecisionRelevant }

type RouteResult struct {
	Datasource string `json:"datasource" validate:"required,oneof=log_analysis cyber_knowledge"`
}

func (r *RouteResult) normalize() { r.Datasource = canon(r.Datasource) }

type ReviewResult struct {
	Decision  string `json:"decision" validate:"required,oneof=sufficient insufficient"`
	Reasoning string `json:"reasoning"`
}

func (r *ReviewResult) normalize() { r.Decision = canon(r.Decision) }

func (r ReviewResult) Sufficient() bool { return r.Decision == DecisionSufficient }

type RephraseResult struct {
	RephrasedQuestion string `json:"rephrased_question" validate:"required"`
}

func (r *RephraseResult) normalize() { r.RephrasedQuestion = strings.TrimSpace(r.RephrasedQuestion) }

type LogAnalysisResult struct {
	Decision          string `json:"decision" validate:"required,oneof=cskg_required not_required"`
	LogSummary        string `json:"log_summary"`
	GeneratedQuestion string `json:"generated_question" validate:"required_if=Decision cskg_required"`
}

func (r *LogAnalysisResult) normalize() {
	r.Decision = canon(r.Decision)
	r.GeneratedQuestion = strings.TrimSpace(r.GeneratedQuestion)
}

func (r LogAnalysisResult) Escalate() bool { return r.Decision == DecisionKnowledgeRequired }

type EntitiesResult struct {
	Names []string `json:"names"`
}

func (r *EntitiesResult) normalize() {
	names := r.Names[:0]
	seen := make(map[string]bool, len(r.Names))
	for _, n := range r.Names {
		n = strings.TrimSpace(n)
		if n == "" || seen[strings.ToLower(n)] {
			continue
		}
		seen[strings.ToLower(n)] = true
		names = append(names, n)
	}
	r.Names = names
}

// ToolAction is one step chosen by the knowledge agent.
type ToolAction struct {
	Action    string         `json:"action" validate:"required,oneof=call_tool final_answer"`
	Tool      string         `json:"tool" validate:"required_if=Action call_tool"`
	Arguments map[string]any `json:"arguments"`
	Answer    string         `json:"answer" validate:"required_if=Action final_answer"`
}

func (r *ToolAction) normalize() {
	r.Action = canon(r.Action)
	r.Tool = strings.TrimSpace(r.Tool)
}

// ReportVars are the placeholders of the synthesis template.
type ReportVars struct {
	OriginalQuestion  string
	GraphContext      string
	VectorContext     string
	GeneratedQuestion string
	KnowledgeContext  string
}

func (v ReportVars) toMap() map[string]string {
	return map[string]string{
		"original_question":  v.OriginalQuestion,
		"graph_context":      v.GraphContext,
		"vector_context":     v.VectorContext,
		"generated_question": v.GeneratedQuestion,
		"knowledge_context":  v.KnowledgeContext,
	}
}
