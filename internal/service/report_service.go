package service

import (
	"context"
	"fmt"

	"cskg-agent-be/internal/dto"
	"cskg-agent-be/internal/entity"
	"cskg-agent-be/internal/repository/specification"
	"cskg-agent-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const defaultReportPageSize = 20

type IReportService interface {
	List(ctx context.Context, req *dto.ListReportsRequest) (*dto.ListReportsResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ReportResponse, error)
}

type reportService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewReportService(uowFactory unitofwork.RepositoryFactory) IReportService {
	return &reportService{uowFactory: uowFactory}
}

func (s *reportService) List(ctx context.Context, req *dto.ListReportsRequest) (*dto.ListReportsResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultReportPageSize
	}

	var filters []specification.Specification
	if req.Outcome != "" {
		filters = append(filters, specification.ByOutcome{Outcome: req.Outcome})
	}
	if req.Branch != "" {
		filters = append(filters, specification.ByBranch{Branch: req.Branch})
	}
	if req.Search != "" {
		filters = append(filters, specification.QuestionSearch{Query: req.Search})
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).InvestigationReportRepository()

	total, err := repo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	specs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)
	reports, err := repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ReportSummaryResponse, len(reports))
	for i, r := range reports {
		items[i] = &dto.ReportSummaryResponse{
			Id:        r.Id,
			Question:  r.Question,
			Branch:    r.Branch,
			Outcome:   r.Outcome,
			Steps:     r.StepCount,
			CreatedAt: r.CreatedAt,
		}
	}

	return &dto.ListReportsResponse{Items: items, Total: total, Limit: limit, Offset: req.Offset}, nil
}

func (s *reportService) Show(ctx context.Context, id uuid.UUID) (*dto.ReportResponse, error) {
	report, err := s.uowFactory.NewUnitOfWork(ctx).InvestigationReportRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	return toReportResponse(report), nil
}

func toReportResponse(r *entity.InvestigationReport) *dto.ReportResponse {
	trace := make([]*dto.TraceEntryResponse, len(r.Trace))
	for i, t := range r.Trace {
		trace[i] = &dto.TraceEntryResponse{Node: t.Node, Event: t.Event, Attempt: t.Attempt, Detail: t.Detail}
	}
	evidence := r.Evidence
	if evidence == nil {
		evidence = map[string]string{}
	}
	return &dto.ReportResponse{
		Id:                 r.Id,
		Question:           r.Question,
		WorkingQuestion:    r.WorkingQuestion,
		Branch:             r.Branch,
		Outcome:            r.Outcome,
		EscalationQuestion: r.EscalationQuestion,
		LogSummary:         r.LogSummary,
		FinalAnswer:        r.FinalAnswer,
		Evidence:           evidence,
		VectorRetryCount:   r.VectorRetryCount,
		GraphRetryCount:    r.GraphRetryCount,
		Steps:              r.StepCount,
		Trace:              trace,
		DurationMs:         r.DurationMs,
		CreatedAt:          r.CreatedAt,
	}
}
