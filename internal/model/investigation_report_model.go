package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type InvestigationReport struct {
	Id                 uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Question           string         `gorm:"type:text;not null"`
	WorkingQuestion    string         `gorm:"type:text"`
	Branch             string         `gorm:"type:varchar(20);index"`
	Outcome            string         `gorm:"type:varchar(20);not null;index"`
	EscalationQuestion *string        `gorm:"type:text"`
	LogSummary         string         `gorm:"type:text"`
	FinalAnswer        string         `gorm:"type:text;not null"`
	Evidence           datatypes.JSON `gorm:"type:jsonb"`
	VectorRetryCount   int            `gorm:"default:1"`
	GraphRetryCount    int            `gorm:"default:1"`
	StepCount          int            `gorm:"default:0"`
	Trace              datatypes.JSON `gorm:"type:jsonb"`
	DurationMs         int64          `gorm:"default:0"`
	CreatedAt          time.Time      `gorm:"autoCreateTime;index"`
}

func (InvestigationReport) TableName() string {
	return "investigation_reports"
}
