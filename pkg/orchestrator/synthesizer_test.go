package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func logSession(t *testing.T, updates ...Update) Session {
	t.Helper()
	s, err := NewSession("daryl login failures", 3).Apply(Update{Relevant: ptr(true), Branch: ptr(BranchLog)})
	require.NoError(t, err)
	for _, u := range updates {
		s, err = s.Apply(u)
		require.NoError(t, err)
	}
	return s
}

func TestSynthesize_NoEvidence(t *testing.T) {
	f := newFixture()
	u, outcome := f.pipeline(Config{}).synthesize(context.Background(), logSession(t))

	assert.Equal(t, OutcomeNoData, outcome)
	assert.Equal(t, NoDataMessage, *u.FinalAnswer)
	f.judge.AssertNotCalled(t, "WriteReport", mock.Anything, mock.Anything)
}

func TestSynthesize_AcceptsConformingReport(t *testing.T) {
	f := newFixture()
	f.judge.On("WriteReport", mock.Anything, mock.Anything).Return(strings.ToUpper(fullReport), nil).Once()

	sess := logSession(t, Update{VectorEvidence: NewVectorEvidence("q", vectorHit("daryl - FAILED_LOGON -> WS-042"))})
	u, outcome := f.pipeline(Config{}).synthesize(context.Background(), sess)

	assert.Equal(t, OutcomeAnswered, outcome)
	assert.Equal(t, strings.ToUpper(fullReport), *u.FinalAnswer, "heading check is case-insensitive")
}

func TestSynthesize_RendersTemplateOnViolation(t *testing.T) {
	f := newFixture()
	f.judge.On("WriteReport", mock.Anything, mock.Anything).Return("daryl failed to log on twice.", nil).Once()

	sess := logSession(t,
		Update{VectorEvidence: NewVectorEvidence("q", vectorHit("daryl - FAILED_LOGON -> WS-042"))},
		Update{LogSummary: ptr("two failed logons"), Escalated: ptr(false)},
	)
	u, outcome := f.pipeline(Config{}).synthesize(context.Background(), sess)
	report := *u.FinalAnswer

	assert.Equal(t, OutcomeAnswered, outcome)
	assert.True(t, hasAllHeadings(report))
	assert.Contains(t, report, "daryl - FAILED_LOGON -> WS-042")
	assert.Contains(t, report, NoDataFromSource, "graph was attempted and returned nothing")
	assert.Contains(t, report, NotApplicable, "knowledge was not consulted")
	assert.True(t, strings.HasSuffix(strings.TrimSuffix(report, "---"), "daryl failed to log on twice.\n\n"))
}

func TestSynthesize_RendersTemplateOnError(t *testing.T) {
	f := newFixture()
	f.judge.On("WriteReport", mock.Anything, mock.Anything).Return("", errors.New("context length exceeded")).Once()

	sess := logSession(t,
		Update{GraphEvidence: NewGraphEvidence("q", graphHit("MATCH (h:Host) RETURN h.name", map[string]any{"h.name": "WS-042"}))},
		Update{LogSummary: ptr("daryl touched WS-042"), Escalated: ptr(false)},
	)
	u, _ := f.pipeline(Config{}).synthesize(context.Background(), sess)
	report := *u.FinalAnswer

	assert.True(t, hasAllHeadings(report))
	assert.Contains(t, report, analysisUnavailable)
	assert.Contains(t, report, "daryl touched WS-042")
	assert.Contains(t, report, "MATCH (h:Host) RETURN h.name")
}

func TestReportVars_GeneralBranch(t *testing.T) {
	s, err := NewSession("what is T1059?", 3).Apply(Update{Relevant: ptr(true), Branch: ptr(BranchGeneral)})
	require.NoError(t, err)

	vars := reportVars(s)
	assert.Equal(t, NotApplicable, vars.GraphContext)
	assert.Equal(t, NotApplicable, vars.VectorContext)
	assert.Equal(t, NotApplicable, vars.GeneratedQuestion)
	assert.Equal(t, NoDataFromSource, vars.KnowledgeContext)
}

func TestMissingHeadings(t *testing.T) {
	assert.Empty(t, missingHeadings(fullReport))
	missing := missingHeadings("**1. Original Question:** q\n**8. Final Answer:** a")
	assert.Len(t, missing, 6)
	assert.Equal(t, "2. Cypher Log Information Context", missing[0])
}
