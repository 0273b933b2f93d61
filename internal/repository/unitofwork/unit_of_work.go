package unitofwork

import (
	"context"

	"cskg-agent-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ResourceEmbeddingRepository() contract.ResourceEmbeddingRepository
	InvestigationReportRepository() contract.InvestigationReportRepository
}
