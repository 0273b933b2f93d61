package graph

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"cskg-agent-be/pkg/graphdb"

	"github.com/patrickmn/go-cache"
)

const schemaCacheKey = "schema"

const (
	nodePropertiesQuery = `CALL db.schema.nodeTypeProperties() YIELD nodeLabels, propertyName
RETURN nodeLabels, collect(DISTINCT propertyName) AS properties`
	relPropertiesQuery = `CALL db.schema.relTypeProperties() YIELD relType, propertyName
RETURN relType, collect(DISTINCT propertyName) AS properties`
	relPatternsQuery = `MATCH (a)-[r]->(b)
WITH labels(a)[0] AS source, type(r) AS rel, labels(b)[0] AS target
RETURN DISTINCT source, rel, target LIMIT 200`
)

// SchemaProvider serves the graph schema text used in cypher generation and
// graph reflection prompts. A schema file wins over introspection.
type SchemaProvider struct {
	runner   graphdb.QueryRunner
	filePath string
	cache    *cache.Cache
}

func NewSchemaProvider(runner graphdb.QueryRunner, filePath string, ttl time.Duration) *SchemaProvider {
	return &SchemaProvider{
		runner:   runner,
		filePath: filePath,
		cache:    cache.New(ttl, 2*ttl),
	}
}

func (p *SchemaProvider) Get(ctx context.Context) (string, error) {
	if cached, found := p.cache.Get(schemaCacheKey); found {
		return cached.(string), nil
	}

	var (
		schema string
		err    error
	)
	if p.filePath != "" {
		schema, err = p.fromFile()
	} else {
		schema, err = p.introspect(ctx)
	}
	if err != nil {
		return "", err
	}

	p.cache.Set(schemaCacheKey, schema, cache.DefaultExpiration)
	return schema, nil
}

func (p *SchemaProvider) fromFile() (string, error) {
	raw, err := os.ReadFile(p.filePath)
	if err != nil {
		return "", fmt.Errorf("read graph schema %s: %w", p.filePath, err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func (p *SchemaProvider) introspect(ctx context.Context) (string, error) {
	nodes, err := p.runner.Run(ctx, nodePropertiesQuery, nil)
	if err != nil {
		return "", fmt.Errorf("introspect node properties: %w", err)
	}
	rels, err := p.runner.Run(ctx, relPropertiesQuery, nil)
	if err != nil {
		return "", fmt.Errorf("introspect relationship properties: %w", err)
	}
	patterns, err := p.runner.Run(ctx, relPatternsQuery, nil)
	if err != nil {
		return "", fmt.Errorf("introspect relationship patterns: %w", err)
	}

	return formatSchema(nodes, rels, patterns), nil
}

func formatSchema(nodes, rels, patterns []map[string]any) string {
	var sb strings.Builder

	sb.WriteString("Node properties:\n")
	for _, line := range propertyLines(nodes, "nodeLabels") {
		sb.WriteString(line)
	}

	sb.WriteString("Relationship properties:\n")
	for _, line := range propertyLines(rels, "relType") {
		sb.WriteString(line)
	}

	sb.WriteString("The relationships:\n")
	lines := make([]string, 0, len(patterns))
	for _, row := range patterns {
		source, _ := row["source"].(string)
		rel, _ := row["rel"].(string)
		target, _ := row["target"].(string)
		if source == "" || rel == "" || target == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("(:%s)-[:%s]->(:%s)\n", source, rel, target))
	}
	sort.Strings(lines)
	for _, line := range lines {
		sb.WriteString(line)
	}

	return strings.TrimSpace(sb.String())
}

func propertyLines(rows []map[string]any, key string) []string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		name := labelName(row[key])
		if name == "" {
			continue
		}
		props := stringList(row["properties"])
		sort.Strings(props)
		lines = append(lines, fmt.Sprintf("%s {%s}\n", name, strings.Join(props, ", ")))
	}
	sort.Strings(lines)
	return lines
}

func labelName(v any) string {
	switch val := v.(type) {
	case string:
		// relTypeProperties reports types as ":`name`"
		return strings.Trim(strings.TrimPrefix(val, ":"), "`")
	case []any:
		return strings.Join(stringList(val), ":")
	case []string:
		return strings.Join(val, ":")
	default:
		return ""
	}
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			return append([]string(nil), ss...)
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
