package contract

import (
	"context"

	"cskg-agent-be/internal/entity"
	"cskg-agent-be/internal/repository/specification"
)

type InvestigationReportRepository interface {
	Create(ctx context.Context, report *entity.InvestigationReport) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.InvestigationReport, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.InvestigationReport, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
