package service

import (
	"context"
	"testing"
	"time"

	"cskg-agent-be/internal/dto"
	"cskg-agent-be/internal/entity"
	"cskg-agent-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReportList_AppliesFiltersAndPaging(t *testing.T) {
	factory, repo := newFactory()
	svc := NewReportService(factory)

	filters := []specification.Specification{
		specification.ByOutcome{Outcome: "answered"},
		specification.QuestionSearch{Query: "daryl"},
	}
	repo.On("Count", mock.Anything, filters).Return(int64(42), nil).Once()

	id := uuid.New()
	repo.On("FindAll", mock.Anything, mock.MatchedBy(func(specs []specification.Specification) bool {
		if len(specs) != 4 {
			return false
		}
		page, ok := specs[3].(specification.Pagination)
		return ok && page.Limit == defaultReportPageSize && page.Offset == 20
	})).Return([]*entity.InvestigationReport{{
		Id:        id,
		Question:  "daryl login failures",
		Branch:    "log",
		Outcome:   "answered",
		StepCount: 9,
		CreatedAt: time.Now(),
	}}, nil).Once()

	res, err := svc.List(context.Background(), &dto.ListReportsRequest{Outcome: "answered", Search: "daryl", Offset: 20})
	require.NoError(t, err)

	assert.Equal(t, int64(42), res.Total)
	assert.Equal(t, defaultReportPageSize, res.Limit)
	require.Len(t, res.Items, 1)
	assert.Equal(t, id, res.Items[0].Id)
	assert.Equal(t, 9, res.Items[0].Steps)
	repo.AssertExpectations(t)
}

func TestReportShow(t *testing.T) {
	factory, repo := newFactory()
	svc := NewReportService(factory)
	id := uuid.New()

	repo.On("FindOne", mock.Anything, []specification.Specification{specification.ByID{ID: id}}).
		Return(&entity.InvestigationReport{
			Id:          id,
			Question:    "what is T1059?",
			FinalAnswer: "Command and Scripting Interpreter",
			Trace:       []entity.ReportTraceEntry{{Node: "guardrails", Event: "relevant"}},
		}, nil).Once()

	res, err := svc.Show(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Command and Scripting Interpreter", res.FinalAnswer)
	assert.NotNil(t, res.Evidence)
	require.Len(t, res.Trace, 1)
	assert.Equal(t, "guardrails", res.Trace[0].Node)
}

func TestReportShow_NotFound(t *testing.T) {
	factory, repo := newFactory()
	repo.On("FindOne", mock.Anything, mock.Anything).Return(nil, nil).Once()

	_, err := NewReportService(factory).Show(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
