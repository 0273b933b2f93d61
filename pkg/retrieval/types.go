package retrieval

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GraphResult is the outcome of one cypher generation attempt. Failures are
// reported through GeneratedQuery with no rows.
type GraphResult struct {
	GeneratedQuery string           `json:"generated_query"`
	Rows           []map[string]any `json:"rows"`
}

func (r GraphResult) Empty() bool {
	return len(r.Rows) == 0
}

// Render serializes the rows as one JSON object per line.
func (r GraphResult) Render() string {
	if r.Empty() {
		return ""
	}
	var sb strings.Builder
	for i, row := range r.Rows {
		if i > 0 {
			sb.WriteString("\n")
		}
		b, err := json.Marshal(row)
		if err != nil {
			sb.WriteString(fmt.Sprintf("%v", row))
			continue
		}
		sb.Write(b)
	}
	return sb.String()
}

// VectorResult holds graph neighbourhood facts for the entities in the
// question plus the nearest unstructured snippets.
type VectorResult struct {
	StructuredFacts      string   `json:"structured_facts"`
	UnstructuredSnippets []string `json:"unstructured_snippets"`
}

func (r VectorResult) Empty() bool {
	if strings.TrimSpace(r.StructuredFacts) != "" {
		return false
	}
	for _, s := range r.UnstructuredSnippets {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

func (r VectorResult) Render() string {
	if r.Empty() {
		return ""
	}
	return fmt.Sprintf("Structured data:\n%s\nUnstructured data:\n%s",
		r.StructuredFacts, strings.Join(r.UnstructuredSnippets, "#Resource "))
}
