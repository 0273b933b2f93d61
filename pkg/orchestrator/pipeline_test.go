package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cskg-agent-be/pkg/judgment"
	"cskg-agent-be/pkg/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPipeline_IrrelevantQuestionIsRefused(t *testing.T) {
	f := newFixture()
	f.judge.On("ClassifyRelevance", mock.Anything, "what's the weather today?").
		Return(judgment.RelevanceResult{Decision: judgment.DecisionIrrelevant}, nil).Once()

	res, err := f.pipeline(Config{}).Run(context.Background(), "what's the weather today?", 3, 30)
	require.NoError(t, err)

	assert.Equal(t, RefusalMessage, res.Answer)
	assert.Equal(t, OutcomeRefused, res.Outcome)
	assert.Equal(t, RelevanceFalse, res.Session.Relevance())
	assert.Equal(t, BranchUnset, res.Session.Branch())

	f.assertExpectations(t)
	f.judge.AssertNotCalled(t, "RouteQuestion", mock.Anything, mock.Anything)
	f.vector.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
	f.graph.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
	f.knowledge.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
}

func TestPipeline_GateFailureIsRefusal(t *testing.T) {
	f := newFixture()
	f.judge.On("ClassifyRelevance", mock.Anything, mock.Anything).
		Return(judgment.RelevanceResult{}, errors.New("malformed output")).Once()

	answer := f.pipeline(Config{}).Answer(context.Background(), "list T1110 sub-techniques", 0, 0)
	assert.Equal(t, RefusalMessage, answer)
	f.vector.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
}

func TestPipeline_GeneralQuestionQueriesKnowledgeOnce(t *testing.T) {
	const question = "show techniques under Initial Access"
	f := newFixture()
	f.relevant()
	f.routeTo(judgment.DatasourceCyberKnowledge)
	f.knowledge.On("Query", mock.Anything, question).
		Return("Initial Access includes T1566 Phishing and T1190 Exploit Public-Facing Application.", nil).Once()
	f.judge.On("WriteReport", mock.Anything, mock.MatchedBy(func(v judgment.ReportVars) bool {
		return v.OriginalQuestion == question &&
			v.GraphContext == NotApplicable &&
			v.VectorContext == NotApplicable &&
			v.GeneratedQuestion == NotApplicable &&
			strings.Contains(v.KnowledgeContext, "T1566")
	})).Return(fullReport, nil).Once()

	res, err := f.pipeline(Config{}).Run(context.Background(), question, 3, 30)
	require.NoError(t, err)

	assert.Equal(t, OutcomeAnswered, res.Outcome)
	assert.Equal(t, fullReport, res.Answer)
	assert.Equal(t, BranchGeneral, res.Session.Branch())
	assert.Nil(t, res.Session.GraphEvidence())
	assert.Nil(t, res.Session.VectorEvidence())

	f.assertExpectations(t)
	f.vector.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
	f.graph.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
}

func TestPipeline_ExhaustedVectorLoopStillProceeds(t *testing.T) {
	const question = "daryl login failures"
	f := newFixture()
	f.relevant()
	f.routeTo(judgment.DatasourceLogAnalysis)

	f.vector.On("Query", mock.Anything, mock.Anything).Return(retrieval.VectorResult{}, nil).Times(3)
	f.judge.On("RewriteForVector", mock.Anything, question, mock.Anything).Return("failed logon events for daryl", nil).Times(2)

	f.graph.On("Query", mock.Anything, question).
		Return(graphHit("MATCH (u:User {name:'daryl'})-[:FAILED_LOGON]->(h) RETURN h.name", map[string]any{"h.name": "WS-042"})).Once()
	f.judge.On("ReviewSufficiency", mock.Anything, question, mock.Anything).Return(sufficient, nil).Once()

	f.judge.On("AnalyzeLogs", mock.Anything, question, NoDataFromSource, mock.Anything).
		Return(judgment.LogAnalysisResult{Decision: judgment.DecisionKnowledgeNotRequired, LogSummary: "daryl failed to log on to WS-042."}, nil).Once()
	f.judge.On("WriteReport", mock.Anything, mock.MatchedBy(func(v judgment.ReportVars) bool {
		return v.VectorContext == NoDataFromSource &&
			strings.Contains(v.GraphContext, "WS-042") &&
			v.KnowledgeContext == NotApplicable
	})).Return(fullReport, nil).Once()

	res, err := f.pipeline(Config{}).Run(context.Background(), question, 3, 30)
	require.NoError(t, err)

	sess := res.Session
	assert.Equal(t, OutcomeAnswered, res.Outcome)
	assert.Equal(t, 3, sess.VectorRetryCount())
	assert.Nil(t, sess.VectorEvidence())
	assert.Equal(t, 1, sess.GraphRetryCount())
	require.NotNil(t, sess.GraphEvidence())
	assert.Equal(t, "daryl failed to log on to WS-042.", sess.LogSummary())
	assert.False(t, sess.Escalated())
	assert.Equal(t, question, sess.OriginalQuestion())
	assert.Equal(t, "failed logon events for daryl", sess.WorkingQuestion())
	assert.LessOrEqual(t, sess.StepCount(), 30)

	require.Len(t, f.observer.loops, 2)
	assert.Equal(t, LoopOutcome{Source: SourceVector, State: StateExhausted, RetryCount: 3}, f.observer.loops[0])
	assert.Equal(t, LoopOutcome{Source: SourceGraph, State: StateAccept, RetryCount: 1}, f.observer.loops[1])

	f.assertExpectations(t)
	f.knowledge.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
}

func TestPipeline_EscalatesToKnowledge(t *testing.T) {
	const question = "what did user daryl do on WS-042?"
	f := newFixture()
	f.relevant()
	f.routeTo(judgment.DatasourceCyberKnowledge)

	f.vector.On("Query", mock.Anything, question).Return(vectorHit("daryl - RAN -> mimikatz.exe"), nil).Once()
	f.graph.On("Query", mock.Anything, question).Return(graphHit("MATCH ...", map[string]any{"p": "mimikatz.exe"})).Once()
	f.judge.On("ReviewSufficiency", mock.Anything, question, mock.Anything).Return(sufficient, nil).Twice()
	f.judge.On("AnalyzeLogs", mock.Anything, question, mock.Anything, mock.Anything).
		Return(judgment.LogAnalysisResult{
			Decision:          judgment.DecisionKnowledgeRequired,
			LogSummary:        "daryl ran mimikatz.exe.",
			GeneratedQuestion: "Which techniques use Mimikatz?",
		}, nil).Once()
	f.knowledge.On("Query", mock.Anything, "Which techniques use Mimikatz?").Return("T1003 OS Credential Dumping", nil).Once()
	f.judge.On("WriteReport", mock.Anything, mock.MatchedBy(func(v judgment.ReportVars) bool {
		return v.GeneratedQuestion == "Which techniques use Mimikatz?" && v.KnowledgeContext == "T1003 OS Credential Dumping"
	})).Return(fullReport, nil).Once()

	res, err := f.pipeline(Config{}).Run(context.Background(), question, 3, 30)
	require.NoError(t, err)

	assert.Equal(t, BranchLog, res.Session.Branch(), "named user overrides general routing")
	assert.True(t, res.Session.Escalated())
	q, ok := res.Session.EscalationQuestion()
	assert.True(t, ok)
	assert.Equal(t, "Which techniques use Mimikatz?", q)
	assert.Equal(t, []bool{true}, f.observer.escalated)
	f.assertExpectations(t)
}

func TestPipeline_TotalAbsenceSkipsReportJudgment(t *testing.T) {
	const question = "daryl login failures"
	f := newFixture()
	f.relevant()
	f.routeTo(judgment.DatasourceLogAnalysis)

	f.vector.On("Query", mock.Anything, question).Return(retrieval.VectorResult{}, nil).Once()
	f.graph.On("Query", mock.Anything, question).Return(retrieval.GraphResult{GeneratedQuery: "Failed to generate Cypher query: timeout"}).Once()
	f.judge.On("AnalyzeLogs", mock.Anything, question, NoDataFromSource, NoDataFromSource).
		Return(judgment.LogAnalysisResult{Decision: judgment.DecisionKnowledgeNotRequired}, nil).Once()

	res, err := f.pipeline(Config{}).Run(context.Background(), question, 1, 30)
	require.NoError(t, err)

	assert.Equal(t, NoDataMessage, res.Answer)
	assert.Equal(t, OutcomeNoData, res.Outcome)
	f.assertExpectations(t)
	f.judge.AssertNotCalled(t, "WriteReport", mock.Anything, mock.Anything)
	f.judge.AssertNotCalled(t, "ReviewSufficiency", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_KnowledgeFailureOnGeneralBranchIsNoData(t *testing.T) {
	f := newFixture()
	f.relevant()
	f.routeTo(judgment.DatasourceCyberKnowledge)
	f.knowledge.On("Query", mock.Anything, mock.Anything).Return("", errors.New("mcp: connection refused")).Once()

	res, err := f.pipeline(Config{}).Run(context.Background(), "what is T1059?", 3, 30)
	require.NoError(t, err)
	assert.Equal(t, NoDataMessage, res.Answer)
	f.judge.AssertNotCalled(t, "WriteReport", mock.Anything, mock.Anything)
}

func TestPipeline_StepBudgetExceeded(t *testing.T) {
	f := newFixture()
	f.relevant()
	f.routeTo(judgment.DatasourceLogAnalysis)
	f.vector.On("Query", mock.Anything, mock.Anything).Return(retrieval.VectorResult{}, nil).Once()

	res, err := f.pipeline(Config{}).Run(context.Background(), "daryl login failures", 3, 3)
	require.Error(t, err)

	assert.True(t, IsAbort(err))
	assert.ErrorIs(t, err, ErrStepBudgetExceeded)
	assert.Equal(t, GenericFailureMessage, res.Answer)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, []Outcome{OutcomeFailed}, f.observer.outcomes)
	f.graph.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
	f.judge.AssertNotCalled(t, "WriteReport", mock.Anything, mock.Anything)
}

func TestPipeline_CancelledContextAborts(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.pipeline(Config{}).Run(ctx, "daryl login failures", 3, 30)
	assert.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, GenericFailureMessage, res.Answer)
	f.judge.AssertNotCalled(t, "ClassifyRelevance", mock.Anything, mock.Anything)
}

func TestPipeline_ParallelLoops(t *testing.T) {
	const question = "logons from 10.0.0.5"
	f := newFixture()
	f.relevant()
	f.routeTo(judgment.DatasourceLogAnalysis)

	f.vector.On("Query", mock.Anything, question).Return(vectorHit("10.0.0.5 - LOGON -> WS-042"), nil).Once()
	f.graph.On("Query", mock.Anything, question).Return(graphHit("MATCH ...", map[string]any{"host": "WS-042"})).Once()
	f.judge.On("ReviewSufficiency", mock.Anything, question, mock.Anything).Return(sufficient, nil).Twice()
	f.judge.On("AnalyzeLogs", mock.Anything, question, mock.Anything, mock.Anything).
		Return(judgment.LogAnalysisResult{Decision: judgment.DecisionKnowledgeNotRequired, LogSummary: "one logon"}, nil).Once()
	f.judge.On("WriteReport", mock.Anything, mock.Anything).Return(fullReport, nil).Once()

	res, err := f.pipeline(Config{Parallel: true}).Run(context.Background(), question, 3, 30)
	require.NoError(t, err)

	assert.NotNil(t, res.Session.VectorEvidence())
	assert.NotNil(t, res.Session.GraphEvidence())
	require.Len(t, f.observer.loops, 2)
	assert.Equal(t, SourceVector, f.observer.loops[0].Source)
	assert.Equal(t, SourceGraph, f.observer.loops[1].Source)
	f.assertExpectations(t)
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name     string
		question string
		result   judgment.RouteResult
		err      error
		want     Branch
	}{
		{"judgment log", "daryl login failures", judgment.RouteResult{Datasource: judgment.DatasourceLogAnalysis}, nil, BranchLog},
		{"judgment general", "what is phishing?", judgment.RouteResult{Datasource: judgment.DatasourceCyberKnowledge}, nil, BranchGeneral},
		{"entity overrides general", "what did 10.0.0.5 do?", judgment.RouteResult{Datasource: judgment.DatasourceCyberKnowledge}, nil, BranchLog},
		{"fallback with entity", "what did 10.0.0.5 do?", judgment.RouteResult{}, errors.New("timeout"), BranchLog},
		{"fallback without entity", "what is phishing?", judgment.RouteResult{}, errors.New("timeout"), BranchGeneral},
		{"generic noun: user passwords", "What attacks steal user passwords?", judgment.RouteResult{Datasource: judgment.DatasourceCyberKnowledge}, nil, BranchGeneral},
		{"generic noun: host firewall", "Which techniques target the host firewall?", judgment.RouteResult{Datasource: judgment.DatasourceCyberKnowledge}, nil, BranchGeneral},
		{"generic noun: server misconfiguration", "How do attackers abuse server misconfiguration?", judgment.RouteResult{Datasource: judgment.DatasourceCyberKnowledge}, nil, BranchGeneral},
		{"generic noun: machine learning", "What is a machine learning evasion attack?", judgment.RouteResult{Datasource: judgment.DatasourceCyberKnowledge}, nil, BranchGeneral},
		{"generic noun: account takeover", "Explain account takeover techniques", judgment.RouteResult{Datasource: judgment.DatasourceCyberKnowledge}, nil, BranchGeneral},
		{"generic noun: public domain", "Summarize the APT29 report at mitre.org", judgment.RouteResult{Datasource: judgment.DatasourceCyberKnowledge}, nil, BranchGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.judge.On("RouteQuestion", mock.Anything, tt.question).Return(tt.result, tt.err).Once()

			u := f.pipeline(Config{}).route(context.Background(), tt.question)
			require.NotNil(t, u.Branch)
			assert.Equal(t, tt.want, *u.Branch)
		})
	}
}
