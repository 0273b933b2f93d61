package judgment

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"cskg-agent-be/pkg/llm"

	"gopkg.in/yaml.v3"
)

// Prompt names in the catalog.
const (
	PromptGuardrails       = "guardrails"
	PromptRouter           = "router"
	PromptReview           = "review"
	PromptVectorReflection = "vector_reflection"
	PromptGraphReflection  = "graph_reflection"
	PromptLogAnalysis      = "log_analysis"
	PromptEntityExtraction = "entity_extraction"
	PromptCypherGeneration = "cypher_generation"
	PromptKnowledgeAgent   = "knowledge_agent"
	PromptSynthesis        = "synthesis"
)

//go:embed prompts.yaml
var defaultPrompts []byte

type PromptSpec struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type compiledPrompt struct {
	system *template.Template
	user   *template.Template
}

// Catalog holds the parsed instruction templates keyed by prompt name.
type Catalog struct {
	prompts map[string]compiledPrompt
}

// LoadCatalog parses the embedded catalog and, when overridePath is set,
// replaces entries with the ones found in that file.
func LoadCatalog(overridePath string) (*Catalog, error) {
	specs := map[string]PromptSpec{}
	if err := yaml.Unmarshal(defaultPrompts, &specs); err != nil {
		return nil, fmt.Errorf("parse embedded prompts: %w", err)
	}

	if overridePath != "" {
		raw, err := os.ReadFile(overridePath)
		if err != nil {
			return nil, fmt.Errorf("read prompts override %s: %w", overridePath, err)
		}
		overrides := map[string]PromptSpec{}
		if err := yaml.Unmarshal(raw, &overrides); err != nil {
			return nil, fmt.Errorf("parse prompts override %s: %w", overridePath, err)
		}
		for name, spec := range overrides {
			specs[name] = spec
		}
	}

	return NewCatalog(specs)
}

func NewCatalog(specs map[string]PromptSpec) (*Catalog, error) {
	c := &Catalog{prompts: make(map[string]compiledPrompt, len(specs))}
	for name, spec := range specs {
		if strings.TrimSpace(spec.User) == "" {
			return nil, fmt.Errorf("prompt %q has no user template", name)
		}
		system, err := template.New(name + ".system").Option("missingkey=error").Parse(spec.System)
		if err != nil {
			return nil, fmt.Errorf("parse prompt %q system: %w", name, err)
		}
		user, err := template.New(name + ".user").Option("missingkey=error").Parse(spec.User)
		if err != nil {
			return nil, fmt.Errorf("parse prompt %q user: %w", name, err)
		}
		c.prompts[name] = compiledPrompt{system: system, user: user}
	}
	return c, nil
}

// Render fills the named prompt with vars and returns the chat messages.
func (c *Catalog) Render(name string, vars map[string]string) ([]llm.Message, error) {
	p, ok := c.prompts[name]
	if !ok {
		return nil, fmt.Errorf("unknown prompt %q", name)
	}

	var system, user strings.Builder
	if err := p.system.Execute(&system, vars); err != nil {
		return nil, fmt.Errorf("render prompt %q: %w", name, err)
	}
	if err := p.user.Execute(&user, vars); err != nil {
		return nil, fmt.Errorf("render prompt %q: %w", name, err)
	}

	messages := make([]llm.Message, 0, 2)
	if s := strings.TrimSpace(system.String()); s != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: s})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: strings.TrimSpace(user.String())})
	return messages, nil
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.prompts[name]
	return ok
}
