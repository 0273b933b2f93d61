package graph

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrWriteQuery = errors.New("generated query is not read-only")

var (
	fencePattern = regexp.MustCompile("(?s)```(?:cypher|Cypher|CYPHER)?\\s*(.*?)```")
	writePattern = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|REMOVE|DROP|FOREACH)\b|\bLOAD\s+CSV\b|\bapoc\.(create|merge|refactor|periodic|load|export|trigger|do)\b`)
	// string literals are blanked before keyword matching
	literalPattern = regexp.MustCompile(`'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"`)
)

// CleanQuery strips markdown fences and any prose before the first clause.
func CleanQuery(raw string) string {
	q := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(q); m != nil {
		q = strings.TrimSpace(m[1])
	}
	q = strings.TrimPrefix(q, "cypher\n")
	return strings.TrimSuffix(strings.TrimSpace(q), ";")
}

// EnsureReadOnly rejects queries that could modify the graph.
func EnsureReadOnly(query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: empty query", ErrWriteQuery)
	}
	stripped := literalPattern.ReplaceAllString(query, "''")
	if m := writePattern.FindString(stripped); m != "" {
		return fmt.Errorf("%w: contains %s", ErrWriteQuery, strings.ToUpper(m))
	}
	return nil
}
