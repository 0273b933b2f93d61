package orchestrator

import (
	"context"
	"time"

	"cskg-agent-be/internal/pkg/logger"
	"cskg-agent-be/pkg/judgment"
	"cskg-agent-be/pkg/retrieval"

	"github.com/stretchr/testify/mock"
)

type mockJudge struct {
	mock.Mock
}

func (m *mockJudge) ClassifyRelevance(ctx context.Context, question string) (judgment.RelevanceResult, error) {
	args := m.Called(ctx, question)
	return args.Get(0).(judgment.RelevanceResult), args.Error(1)
}

func (m *mockJudge) RouteQuestion(ctx context.Context, question string) (judgment.RouteResult, error) {
	args := m.Called(ctx, question)
	return args.Get(0).(judgment.RouteResult), args.Error(1)
}

func (m *mockJudge) ReviewSufficiency(ctx context.Context, question, evidence string) (judgment.ReviewResult, error) {
	args := m.Called(ctx, question, evidence)
	return args.Get(0).(judgment.ReviewResult), args.Error(1)
}

func (m *mockJudge) RewriteForVector(ctx context.Context, originalQuestion, failedContext string) (string, error) {
	args := m.Called(ctx, originalQuestion, failedContext)
	return args.String(0), args.Error(1)
}

func (m *mockJudge) RewriteForGraph(ctx context.Context, originalQuestion, schema, failedQuery string) (string, error) {
	args := m.Called(ctx, originalQuestion, schema, failedQuery)
	return args.String(0), args.Error(1)
}

func (m *mockJudge) AnalyzeLogs(ctx context.Context, originalQuestion, vectorContext, graphContext string) (judgment.LogAnalysisResult, error) {
	args := m.Called(ctx, originalQuestion, vectorContext, graphContext)
	return args.Get(0).(judgment.LogAnalysisResult), args.Error(1)
}

func (m *mockJudge) WriteReport(ctx context.Context, vars judgment.ReportVars) (string, error) {
	args := m.Called(ctx, vars)
	return args.String(0), args.Error(1)
}

type mockGraph struct {
	mock.Mock
}

func (m *mockGraph) Query(ctx context.Context, question string) retrieval.GraphResult {
	args := m.Called(ctx, question)
	return args.Get(0).(retrieval.GraphResult)
}

func (m *mockGraph) Schema(ctx context.Context) string {
	args := m.Called(ctx)
	return args.String(0)
}

type mockVector struct {
	mock.Mock
}

func (m *mockVector) Query(ctx context.Context, question string) (retrieval.VectorResult, error) {
	args := m.Called(ctx, question)
	return args.Get(0).(retrieval.VectorResult), args.Error(1)
}

type mockKnowledge struct {
	mock.Mock
}

func (m *mockKnowledge) Query(ctx context.Context, question string) (string, error) {
	args := m.Called(ctx, question)
	return args.String(0), args.Error(1)
}

type recordingObserver struct {
	loops     []LoopOutcome
	escalated []bool
	outcomes  []Outcome
}

func (o *recordingObserver) LoopFinished(source Source, state LoopState, retryCount int) {
	o.loops = append(o.loops, LoopOutcome{Source: source, State: state, RetryCount: retryCount})
}

func (o *recordingObserver) Escalated(escalated bool) {
	o.escalated = append(o.escalated, escalated)
}

func (o *recordingObserver) QuestionAnswered(outcome Outcome, _ int, _ time.Duration) {
	o.outcomes = append(o.outcomes, outcome)
}

type fixture struct {
	judge     *mockJudge
	graph     *mockGraph
	vector    *mockVector
	knowledge *mockKnowledge
	observer  *recordingObserver
}

func newFixture() *fixture {
	return &fixture{
		judge:     new(mockJudge),
		graph:     new(mockGraph),
		vector:    new(mockVector),
		knowledge: new(mockKnowledge),
		observer:  &recordingObserver{},
	}
}

func (f *fixture) pipeline(cfg Config) *Pipeline {
	if cfg.AdapterTimeout == 0 {
		cfg.AdapterTimeout = time.Second
	}
	return NewPipeline(f.judge, f.graph, f.vector, f.knowledge, cfg, logger.NewNopLogger(), WithObserver(f.observer))
}

func (f *fixture) relevant() {
	f.judge.On("ClassifyRelevance", mock.Anything, mock.Anything).
		Return(judgment.RelevanceResult{Decision: judgment.DecisionRelevant}, nil)
}

func (f *fixture) routeTo(datasource string) {
	f.judge.On("RouteQuestion", mock.Anything, mock.Anything).
		Return(judgment.RouteResult{Datasource: datasource}, nil)
}

func (f *fixture) assertExpectations(t mock.TestingT) {
	f.judge.AssertExpectations(t)
	f.graph.AssertExpectations(t)
	f.vector.AssertExpectations(t)
	f.knowledge.AssertExpectations(t)
}

var (
	sufficient   = judgment.ReviewResult{Decision: judgment.DecisionSufficient, Reasoning: "mentions the user"}
	insufficient = judgment.ReviewResult{Decision: judgment.DecisionInsufficient, Reasoning: "nothing relevant"}
)

func vectorHit(facts string) retrieval.VectorResult {
	return retrieval.VectorResult{StructuredFacts: facts}
}

func graphHit(query string, rows ...map[string]any) retrieval.GraphResult {
	return retrieval.GraphResult{GeneratedQuery: query, Rows: rows}
}

// fullReport contains every required heading.
const fullReport = `---
**1. Original Question:** q
**2. Cypher Log Information Context:** g
**3. Vector Log Information Context:** v
**4. Generated Question for Cybersecurity Knowledge Base:** Not applicable for this query.
**5. Cybersecurity Knowledge Base Context:** k
**6. Critical Analysis:** a
**7. Contextual Linkage:** l
**8. Final Answer:** done
---`
