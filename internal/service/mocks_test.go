package service

import (
	"context"

	"cskg-agent-be/internal/entity"
	"cskg-agent-be/internal/repository/contract"
	"cskg-agent-be/internal/repository/specification"
	"cskg-agent-be/internal/repository/unitofwork"
	"cskg-agent-be/pkg/embedding"
	"cskg-agent-be/pkg/events"
	"cskg-agent-be/pkg/orchestrator"

	"github.com/stretchr/testify/mock"
)

type mockAnswerer struct{ mock.Mock }

func (m *mockAnswerer) Run(ctx context.Context, question string, maxRetries, stepBudget int) (orchestrator.Result, error) {
	args := m.Called(ctx, question, maxRetries, stepBudget)
	return args.Get(0).(orchestrator.Result), args.Error(1)
}

type mockFactory struct{ uow *mockUnitOfWork }

func (f *mockFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type mockUnitOfWork struct {
	reports    *mockReportRepository
	embeddings *mockEmbeddingRepository
	began      int
	committed  int
	rolledBack int
}

func (u *mockUnitOfWork) Begin(ctx context.Context) error {
	u.began++
	return nil
}

func (u *mockUnitOfWork) Commit() error {
	u.committed++
	return nil
}

func (u *mockUnitOfWork) Rollback() error {
	u.rolledBack++
	return nil
}

func (u *mockUnitOfWork) ResourceEmbeddingRepository() contract.ResourceEmbeddingRepository {
	return u.embeddings
}

func (u *mockUnitOfWork) InvestigationReportRepository() contract.InvestigationReportRepository {
	return u.reports
}

type mockReportRepository struct{ mock.Mock }

func (m *mockReportRepository) Create(ctx context.Context, report *entity.InvestigationReport) error {
	return m.Called(ctx, report).Error(0)
}

func (m *mockReportRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.InvestigationReport, error) {
	args := m.Called(ctx, specs)
	r, _ := args.Get(0).(*entity.InvestigationReport)
	return r, args.Error(1)
}

func (m *mockReportRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.InvestigationReport, error) {
	args := m.Called(ctx, specs)
	r, _ := args.Get(0).([]*entity.InvestigationReport)
	return r, args.Error(1)
}

func (m *mockReportRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	args := m.Called(ctx, specs)
	return args.Get(0).(int64), args.Error(1)
}

type mockEmbeddingRepository struct{ mock.Mock }

func (m *mockEmbeddingRepository) CreateBulk(ctx context.Context, embeddings []*entity.ResourceEmbedding) error {
	return m.Called(ctx, embeddings).Error(0)
}

func (m *mockEmbeddingRepository) DeleteByResourceId(ctx context.Context, resourceId string) error {
	return m.Called(ctx, resourceId).Error(0)
}

func (m *mockEmbeddingRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockEmbeddingRepository) SearchSimilar(ctx context.Context, vec []float32, limit int) ([]*entity.ResourceEmbedding, error) {
	args := m.Called(ctx, vec, limit)
	r, _ := args.Get(0).([]*entity.ResourceEmbedding)
	return r, args.Error(1)
}

type mockEmbedder struct{ mock.Mock }

func (m *mockEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	args := m.Called(ctx, text, taskType)
	r, _ := args.Get(0).(*embedding.EmbeddingResponse)
	return r, args.Error(1)
}

type mockPublisherService struct{ mock.Mock }

func (m *mockPublisherService) Publish(ctx context.Context, payload []byte) error {
	return m.Called(ctx, payload).Error(0)
}

type mockEventPublisher struct{ mock.Mock }

func (m *mockEventPublisher) Publish(ctx context.Context, event events.Event) error {
	return m.Called(ctx, event).Error(0)
}

func newFactory() (*mockFactory, *mockReportRepository) {
	repo := new(mockReportRepository)
	return &mockFactory{uow: &mockUnitOfWork{reports: repo, embeddings: new(mockEmbeddingRepository)}}, repo
}
