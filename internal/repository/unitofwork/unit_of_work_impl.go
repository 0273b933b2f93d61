package unitofwork

import (
	"context"
	"errors"

	"cskg-agent-be/internal/repository/contract"
	"cskg-agent-be/internal/repository/implementation"

	"gorm.io/gorm"
)

var (
	errTxActive   = errors.New("transaction already started")
	errTxInactive = errors.New("no active transaction")
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{db: db}
}

func (u *UnitOfWorkImpl) conn() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return errTxActive
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return errTxInactive
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

// Rollback is safe to defer after a successful Commit.
func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return errTxInactive
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) ResourceEmbeddingRepository() contract.ResourceEmbeddingRepository {
	return implementation.NewResourceEmbeddingRepository(u.conn())
}

func (u *UnitOfWorkImpl) InvestigationReportRepository() contract.InvestigationReportRepository {
	return implementation.NewInvestigationReportRepository(u.conn())
}
