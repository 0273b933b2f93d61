package mapper

import (
	"encoding/json"

	"cskg-agent-be/internal/entity"
	"cskg-agent-be/internal/model"

	"gorm.io/datatypes"
)

type InvestigationReportMapper struct{}

func NewInvestigationReportMapper() *InvestigationReportMapper {
	return &InvestigationReportMapper{}
}

func (m *InvestigationReportMapper) ToEntity(r *model.InvestigationReport) *entity.InvestigationReport {
	if r == nil {
		return nil
	}

	var evidence map[string]string
	if len(r.Evidence) > 0 {
		_ = json.Unmarshal(r.Evidence, &evidence)
	}
	var trace []entity.ReportTraceEntry
	if len(r.Trace) > 0 {
		_ = json.Unmarshal(r.Trace, &trace)
	}

	return &entity.InvestigationReport{
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
		StepCount:          r.StepCount,
		Trace:              trace,
		DurationMs:         r.DurationMs,
		CreatedAt:          r.CreatedAt,
	}
}

func (m *InvestigationReportMapper) ToModel(r *entity.InvestigationReport) (*model.InvestigationReport, error) {
	if r == nil {
		return nil, nil
	}

	evidence, err := json.Marshal(r.Evidence)
	if err != nil {
		return nil, err
	}
	trace, err := json.Marshal(r.Trace)
	if err != nil {
		return nil, err
	}

	return &model.InvestigationReport{
		Id:                 r.Id,
		Question:           r.Question,
		WorkingQuestion:    r.WorkingQuestion,
		Branch:             r.Branch,
		Outcome:            r.Outcome,
		EscalationQuestion: r.EscalationQuestion,
		LogSummary:         r.LogSummary,
		FinalAnswer:        r.FinalAnswer,
		Evidence:           datatypes.JSON(evidence),
		VectorRetryCount:   r.VectorRetryCount,
		GraphRetryCount:    r.GraphRetryCount,
		StepCount:          r.StepCount,
		Trace:              datatypes.JSON(trace),
		DurationMs:         r.DurationMs,
		CreatedAt:          r.CreatedAt,
	}, nil
}
