package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cskg-agent-be/internal/dto"
	"cskg-agent-be/internal/entity"
	"cskg-agent-be/internal/pkg/logger"
	"cskg-agent-be/internal/repository/memory"
	"cskg-agent-be/internal/repository/unitofwork"
	"cskg-agent-be/pkg/events"
	"cskg-agent-be/pkg/orchestrator"
	"cskg-agent-be/pkg/store"

	"github.com/google/uuid"
)

// Answerer runs the question pipeline.
type Answerer interface {
	Run(ctx context.Context, question string, maxRetries, stepBudget int) (orchestrator.Result, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// RunNotifier pushes run status changes to live watchers. final is set
// once the run is DONE or FAILED.
type RunNotifier interface {
	Publish(runID string, payload interface{}, final bool)
}

type IQuestionService interface {
	Ask(ctx context.Context, req *dto.AskQuestionRequest) (*dto.AskQuestionResponse, error)
	Submit(ctx context.Context, req *dto.AskQuestionRequest) (*dto.SubmitQuestionResponse, error)
	GetRun(ctx context.Context, runId string) (*dto.RunResponse, error)
	Process(ctx context.Context, msg *dto.PublishQuestionMessage) error
}

type questionService struct {
	answerer         Answerer
	uowFactory       unitofwork.RepositoryFactory
	runRepo          *memory.RunRepository
	publisherService IPublisherService
	eventPublisher   EventPublisher
	notifier         RunNotifier
	logger           logger.ILogger
}

// NewQuestionService wires the pipeline to persistence and events.
// eventPublisher and notifier may be nil.
func NewQuestionService(
	answerer Answerer,
	uowFactory unitofwork.RepositoryFactory,
	runRepo *memory.RunRepository,
	publisherService IPublisherService,
	eventPublisher EventPublisher,
	notifier RunNotifier,
	log logger.ILogger,
) IQuestionService {
	return &questionService{
		answerer:         answerer,
		uowFactory:       uowFactory,
		runRepo:          runRepo,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		notifier:         notifier,
		logger:           log,
	}
}

func (s *questionService) Ask(ctx context.Context, req *dto.AskQuestionRequest) (*dto.AskQuestionResponse, error) {
	return s.answer(ctx, "", req.Question, req.MaxRetries, req.StepBudget), nil
}

// answer never fails: pipeline aborts already carry the generic failure
// message, and persistence or event errors are only logged.
func (s *questionService) answer(ctx context.Context, runId, question string, maxRetries, stepBudget int) *dto.AskQuestionResponse {
	res, err := s.answerer.Run(ctx, question, maxRetries, stepBudget)
	if err != nil {
		s.logger.Warn("QuestionService", "Pipeline aborted", map[string]interface{}{
			"run_id": runId,
			"error":  err.Error(),
		})
	}

	report := buildReport(res)
	if err := s.saveReport(ctx, report); err != nil {
		s.logger.Error("QuestionService", "Failed to persist investigation report", map[string]interface{}{
			"run_id": runId,
			"error":  err.Error(),
		})
	}

	resp := &dto.AskQuestionResponse{
		Question:   question,
		Answer:     res.Answer,
		Outcome:    string(res.Outcome),
		Branch:     string(res.Session.Branch()),
		Escalated:  res.Session.Escalated(),
		Steps:      res.Session.StepCount(),
		DurationMs: res.Duration.Milliseconds(),
	}
	if report.Id != uuid.Nil {
		resp.ReportId = report.Id.String()
	}

	if s.eventPublisher != nil {
		evt := events.QuestionAnswered{
			ReportID:   resp.ReportId,
			RunID:      runId,
			Question:   question,
			Branch:     resp.Branch,
			Outcome:    resp.Outcome,
			Escalated:  resp.Escalated,
			Steps:      resp.Steps,
			DurationMs: resp.DurationMs,
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("QuestionService", "Failed to publish question_answered event", map[string]interface{}{"error": err.Error()})
		}
	}

	return resp
}

func (s *questionService) saveReport(ctx context.Context, report *entity.InvestigationReport) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.InvestigationReportRepository().Create(ctx, report); err != nil {
		report.Id = uuid.Nil
		return err
	}
	return nil
}

func (s *questionService) Submit(ctx context.Context, req *dto.AskQuestionRequest) (*dto.SubmitQuestionResponse, error) {
	run := &store.Run{
		ID:          uuid.NewString(),
		Question:    req.Question,
		MaxRetries:  req.MaxRetries,
		StepBudget:  req.StepBudget,
		Status:      store.RunPending,
		SubmittedAt: time.Now(),
	}
	s.runRepo.Save(run)

	payload, err := json.Marshal(dto.PublishQuestionMessage{
		RunId:      run.ID,
		Question:   run.Question,
		MaxRetries: run.MaxRetries,
		StepBudget: run.StepBudget,
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.runRepo.Delete(run.ID)
		return nil, fmt.Errorf("failed to queue question: %w", err)
	}

	s.logger.Info("QuestionService", "Question queued", map[string]interface{}{"run_id": run.ID})
	return &dto.SubmitQuestionResponse{RunId: run.ID, Status: run.Status}, nil
}

func (s *questionService) GetRun(ctx context.Context, runId string) (*dto.RunResponse, error) {
	run, ok := s.runRepo.Get(runId)
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runId, ErrNotFound)
	}
	return toRunResponse(run), nil
}

func toRunResponse(run *store.Run) *dto.RunResponse {
	return &dto.RunResponse{
		RunId:       run.ID,
		Question:    run.Question,
		Status:      run.Status,
		Outcome:     run.Outcome,
		Answer:      run.Answer,
		ReportId:    run.ReportID,
		SubmittedAt: run.SubmittedAt,
		CompletedAt: run.CompletedAt,
	}
}

func (s *questionService) saveRun(run *store.Run) {
	s.runRepo.Save(run)
	if s.notifier != nil {
		s.notifier.Publish(run.ID, toRunResponse(run), run.Finished())
	}
}

// Process answers a queued question and records the result on its run.
func (s *questionService) Process(ctx context.Context, msg *dto.PublishQuestionMessage) error {
	run, ok := s.runRepo.Get(msg.RunId)
	if !ok {
		// expired or submitted by another instance
		run = &store.Run{ID: msg.RunId, Question: msg.Question, SubmittedAt: time.Now()}
	}
	run.Status = store.RunRunning
	s.saveRun(run)

	resp := s.answer(ctx, run.ID, msg.Question, msg.MaxRetries, msg.StepBudget)

	now := time.Now()
	run.Status = store.RunDone
	if resp.Outcome == string(orchestrator.OutcomeFailed) {
		run.Status = store.RunFailed
	}
	run.Outcome = resp.Outcome
	run.Answer = resp.Answer
	run.ReportID = resp.ReportId
	run.CompletedAt = &now
	s.saveRun(run)
	return nil
}

func buildReport(res orchestrator.Result) *entity.InvestigationReport {
	sess := res.Session

	evidence := make(map[string]string, 3)
	for name, ev := range map[string]*orchestrator.Evidence{
		"graph":     sess.GraphEvidence(),
		"vector":    sess.VectorEvidence(),
		"knowledge": sess.KnowledgeEvidence(),
	} {
		if !ev.Empty() {
			evidence[name] = ev.Render()
		}
	}

	var escalationQuestion *string
	if q, ok := sess.EscalationQuestion(); ok {
		escalationQuestion = &q
	}

	trace := make([]entity.ReportTraceEntry, 0, len(sess.Trace()))
	for _, t := range sess.Trace() {
		trace = append(trace, entity.ReportTraceEntry{Node: t.Node, Event: t.Event, Attempt: t.Attempt, Detail: t.Detail})
	}

	return &entity.InvestigationReport{
		Id:                 uuid.New(),
		Question:           sess.OriginalQuestion(),
		WorkingQuestion:    sess.WorkingQuestion(),
		Branch:             string(sess.Branch()),
		Outcome:            string(res.Outcome),
		EscalationQuestion: escalationQuestion,
		LogSummary:         sess.LogSummary(),
		FinalAnswer:        res.Answer,
		Evidence:           evidence,
		VectorRetryCount:   sess.VectorRetryCount(),
		GraphRetryCount:    sess.GraphRetryCount(),
		StepCount:          sess.StepCount(),
		Trace:              trace,
		DurationMs:         res.Duration.Milliseconds(),
		CreatedAt:          time.Now(),
	}
}
