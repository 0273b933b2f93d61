package orchestrator

import (
	"fmt"
	"strings"

	"cskg-agent-be/pkg/retrieval"
)

type Source string

const (
	SourceGraph     Source = "graph"
	SourceVector    Source = "vector"
	SourceKnowledge Source = "knowledge"
)

// Evidence is the payload of one adapter attempt, paired with the source
// and the question that produced it. Exactly one payload field is set.
type Evidence struct {
	Source   Source
	Question string
	Graph    *retrieval.GraphResult
	Vector   *retrieval.VectorResult
	Text     string
}

func NewGraphEvidence(question string, res retrieval.GraphResult) *Evidence {
	return &Evidence{Source: SourceGraph, Question: question, Graph: &res}
}

func NewVectorEvidence(question string, res retrieval.VectorResult) *Evidence {
	return &Evidence{Source: SourceVector, Question: question, Vector: &res}
}

func NewKnowledgeEvidence(question, text string) *Evidence {
	return &Evidence{Source: SourceKnowledge, Question: question, Text: text}
}

// Empty reports whether e carries no usable data. A nil Evidence is empty.
func (e *Evidence) Empty() bool {
	if e == nil {
		return true
	}
	switch e.Source {
	case SourceGraph:
		return e.Graph == nil || e.Graph.Empty()
	case SourceVector:
		return e.Vector == nil || e.Vector.Empty()
	default:
		return strings.TrimSpace(e.Text) == ""
	}
}

// Render returns the evidence as prompt text. Empty evidence renders as "".
func (e *Evidence) Render() string {
	if e.Empty() {
		return ""
	}
	switch e.Source {
	case SourceGraph:
		return fmt.Sprintf("Query: %s\nResults:\n%s", e.Graph.GeneratedQuery, e.Graph.Render())
	case SourceVector:
		return e.Vector.Render()
	default:
		return strings.TrimSpace(e.Text)
	}
}

// GeneratedQuery is the cypher (or diagnostic) behind graph evidence.
func (e *Evidence) GeneratedQuery() string {
	if e == nil || e.Graph == nil {
		return ""
	}
	return e.Graph.GeneratedQuery
}
