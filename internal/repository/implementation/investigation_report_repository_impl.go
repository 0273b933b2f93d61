package implementation

import (
	"context"
	"errors"

	"cskg-agent-be/internal/entity"
	"cskg-agent-be/internal/mapper"
	"cskg-agent-be/internal/model"
	"cskg-agent-be/internal/repository/contract"
	"cskg-agent-be/internal/repository/specification"

	"gorm.io/gorm"
)

type InvestigationReportRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.InvestigationReportMapper
}

func NewInvestigationReportRepository(db *gorm.DB) contract.InvestigationReportRepository {
	return &InvestigationReportRepositoryImpl{
		db:     db,
		mapper: mapper.NewInvestigationReportMapper(),
	}
}

func (r *InvestigationReportRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *InvestigationReportRepositoryImpl) Create(ctx context.Context, report *entity.InvestigationReport) error {
	m, err := r.mapper.ToModel(report)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*report = *r.mapper.ToEntity(m)
	return nil
}

func (r *InvestigationReportRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.InvestigationReport, error) {
	var m model.InvestigationReport
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *InvestigationReportRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.InvestigationReport, error) {
	var models []*model.InvestigationReport
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.InvestigationReport, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *InvestigationReportRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.InvestigationReport{}).Count(&count).Error
	return count, err
}
