package judgment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cskg-agent-be/internal/pkg/logger"
	"cskg-agent-be/pkg/llm"

	"github.com/go-playground/validator/v10"
)

var ErrMalformedOutput = errors.New("judgment output is malformed")

// Service runs typed judgment calls: an instruction template from the
// catalog, a flat map of variables, and a validated result.
type Service struct {
	llm      llm.LLMProvider
	catalog  *Catalog
	validate *validator.Validate
	logger   logger.ILogger
}

func NewService(provider llm.LLMProvider, catalog *Catalog, log logger.ILogger) *Service {
	return &Service{
		llm:      provider,
		catalog:  catalog,
		validate: validator.New(),
		logger:   log,
	}
}

// Invoke renders the named prompt, asks for a JSON object and decodes it
// into out, which must be a pointer to a struct with validate tags.
func (s *Service) Invoke(ctx context.Context, name string, vars map[string]string, out any) error {
	messages, err := s.catalog.Render(name, vars)
	if err != nil {
		return err
	}

	response, err := s.llm.Chat(ctx, messages, llm.WithTemperature(0), llm.WithJSONMode())
	if err != nil {
		return fmt.Errorf("judgment %s: %w", name, err)
	}

	jsonContent := extractJSON(response)
	if jsonContent == "" {
		s.logger.Warn("judgment", "No JSON object in model output", map[string]interface{}{
			"prompt": name,
			"output": truncate(response, 300),
		})
		return fmt.Errorf("%w: %s: no JSON object found", ErrMalformedOutput, name)
	}

	if err := json.Unmarshal([]byte(jsonContent), out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedOutput, name, err)
	}

	if n, ok := out.(normalizer); ok {
		n.normalize()
	}

	if err := s.validate.Struct(out); err != nil {
		s.logger.Warn("judgment", "Model output failed validation", map[string]interface{}{
			"prompt": name,
			"error":  err.Error(),
		})
		return fmt.Errorf("%w: %s: %v", ErrMalformedOutput, name, err)
	}

	return nil
}

// InvokeText renders the named prompt and returns the raw model text.
func (s *Service) InvokeText(ctx context.Context, name string, vars map[string]string) (string, error) {
	messages, err := s.catalog.Render(name, vars)
	if err != nil {
		return "", err
	}

	response, err := s.llm.Chat(ctx, messages, llm.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("judgment %s: %w", name, err)
	}

	response = strings.TrimSpace(response)
	if response == "" {
		return "", fmt.Errorf("%w: %s: empty response", ErrMalformedOutput, name)
	}
	return response, nil
}

func (s *Service) ClassifyRelevance(ctx context.Context, question string) (RelevanceResult, error) {
	var res RelevanceResult
	err := s.Invoke(ctx, PromptGuardrails, map[string]string{"question": question}, &res)
	return res, err
}

func (s *Service) RouteQuestion(ctx context.Context, question string) (RouteResult, error) {
	var res RouteResult
	err := s.Invoke(ctx, PromptRouter, map[string]string{"question": question}, &res)
	return res, err
}

// ReviewSufficiency scores evidence against the question it must answer.
func (s *Service) ReviewSufficiency(ctx context.Context, question, evidence string) (ReviewResult, error) {
	var res ReviewResult
	err := s.Invoke(ctx, PromptReview, map[string]string{
		"question": question,
		"context":  evidence,
	}, &res)
	return res, err
}

func (s *Service) RewriteForVector(ctx context.Context, originalQuestion, failedContext string) (string, error) {
	var res RephraseResult
	err := s.Invoke(ctx, PromptVectorReflection, map[string]string{
		"original_question": originalQuestion,
		"failed_context":    failedContext,
	}, &res)
	return res.RephrasedQuestion, err
}

func (s *Service) RewriteForGraph(ctx context.Context, originalQuestion, schema, failedQuery string) (string, error) {
	var res RephraseResult
	err := s.Invoke(ctx, PromptGraphReflection, map[string]string{
		"original_question": originalQuestion,
		"schema":            schema,
		"failed_query":      failedQuery,
	}, &res)
	return res.RephrasedQuestion, err
}

func (s *Service) AnalyzeLogs(ctx context.Context, originalQuestion, vectorContext, graphContext string) (LogAnalysisResult, error) {
	var res LogAnalysisResult
	err := s.Invoke(ctx, PromptLogAnalysis, map[string]string{
		"original_question": originalQuestion,
		"vector_context":    vectorContext,
		"graph_context":     graphContext,
	}, &res)
	return res, err
}

func (s *Service) ExtractEntities(ctx context.Context, question string) ([]string, error) {
	var res EntitiesResult
	if err := s.Invoke(ctx, PromptEntityExtraction, map[string]string{"question": question}, &res); err != nil {
		return nil, err
	}
	return res.Names, nil
}

func (s *Service) GenerateCypher(ctx context.Context, schema, question string) (string, error) {
	return s.InvokeText(ctx, PromptCypherGeneration, map[string]string{
		"schema":   schema,
		"question": question,
	})
}

func (s *Service) DecideToolAction(ctx context.Context, question, tools, transcript string) (ToolAction, error) {
	var res ToolAction
	err := s.Invoke(ctx, PromptKnowledgeAgent, map[string]string{
		"question":   question,
		"tools":      tools,
		"transcript": transcript,
	}, &res)
	return res, err
}

func (s *Service) WriteReport(ctx context.Context, vars ReportVars) (string, error) {
	return s.InvokeText(ctx, PromptSynthesis, vars.toMap())
}

// extractJSON returns the outermost {...} span of the response.
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
