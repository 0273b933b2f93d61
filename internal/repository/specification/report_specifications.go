package specification

import (
	"time"

	"gorm.io/gorm"
)

type ByOutcome struct {
	Outcome string
}

func (s ByOutcome) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("outcome = ?", s.Outcome)
}

type ByBranch struct {
	Branch string
}

func (s ByBranch) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("branch = ?", s.Branch)
}

// QuestionSearch matches the original question case-insensitively.
type QuestionSearch struct {
	Query string
}

func (s QuestionSearch) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("question ILIKE ?", "%"+s.Query+"%")
}

type CreatedSince struct {
	Since time.Time
}

func (s CreatedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at >= ?", s.Since)
}
