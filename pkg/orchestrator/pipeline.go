package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cskg-agent-be/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type Outcome string

const (
	OutcomeAnswered Outcome = "answered"
	OutcomeRefused  Outcome = "refused"
	OutcomeNoData   Outcome = "no_data"
	OutcomeFailed   Outcome = "failed"
)

type Config struct {
	MaxRetries     int
	StepBudget     int
	AdapterTimeout time.Duration
	// Parallel runs the vector and graph loops concurrently. Their updates
	// are still applied vector first.
	Parallel bool
}

// Result is everything known about one answered question.
type Result struct {
	Session  Session
	Outcome  Outcome
	Answer   string
	Duration time.Duration
}

type Option func(*Pipeline)

func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// Pipeline answers one question at a time per call and holds no state
// between calls, so a single instance serves concurrent questions.
type Pipeline struct {
	judge     Judge
	graph     GraphRetriever
	vector    VectorRetriever
	knowledge KnowledgeRetriever
	cfg       Config
	logger    logger.ILogger
	observer  Observer
	tracer    trace.Tracer
}

func NewPipeline(
	judge Judge,
	graph GraphRetriever,
	vector VectorRetriever,
	knowledge KnowledgeRetriever,
	cfg Config,
	log logger.ILogger,
	opts ...Option,
) *Pipeline {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.StepBudget < 1 {
		cfg.StepBudget = DefaultStepBudget
	}
	if cfg.AdapterTimeout <= 0 {
		cfg.AdapterTimeout = 60 * time.Second
	}
	p := &Pipeline{
		judge:     judge,
		graph:     graph,
		vector:    vector,
		knowledge: knowledge,
		cfg:       cfg,
		logger:    log,
		observer:  nopObserver{},
		tracer:    otel.Tracer("cskg-agent-be/orchestrator"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Answer returns the final answer text for question. Values of maxRetries or
// stepBudget below 1 use the pipeline defaults.
func (p *Pipeline) Answer(ctx context.Context, question string, maxRetries, stepBudget int) string {
	res, _ := p.Run(ctx, question, maxRetries, stepBudget)
	return res.Answer
}

// Run answers question and returns the final session alongside the answer.
// The error is non-nil only when processing was aborted; the answer is then
// the generic failure message.
func (p *Pipeline) Run(ctx context.Context, question string, maxRetries, stepBudget int) (Result, error) {
	start := time.Now()
	if maxRetries < 1 {
		maxRetries = p.cfg.MaxRetries
	}
	if stepBudget < 1 {
		stepBudget = p.cfg.StepBudget
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.answer", trace.WithAttributes(
		attribute.Int("pipeline.max_retries", maxRetries),
		attribute.Int("pipeline.step_budget", stepBudget),
	))
	defer span.End()

	budget := newStepBudget(stepBudget)
	sess := NewSession(question, maxRetries)

	sess, outcome, err := p.run(ctx, sess, budget)
	if err != nil {
		p.logger.Error("pipeline", "Question processing aborted", map[string]interface{}{
			"question": question,
			"steps":    budget.steps(),
			"error":    err.Error(),
		})
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		outcome = OutcomeFailed
		if _, done := sess.FinalAnswer(); !done {
			if failed, applyErr := sess.Apply(Update{FinalAnswer: ptr(GenericFailureMessage)}); applyErr == nil {
				sess = failed
			}
		}
	}

	answer, _ := sess.FinalAnswer()
	if outcome == OutcomeFailed {
		answer = GenericFailureMessage
	}
	elapsed := time.Since(start)

	span.SetAttributes(
		attribute.String("pipeline.outcome", string(outcome)),
		attribute.Int("pipeline.steps", sess.StepCount()),
	)
	p.observer.QuestionAnswered(outcome, sess.StepCount(), elapsed)
	p.logger.Info("pipeline", "Question processed", map[string]interface{}{
		"outcome":     string(outcome),
		"branch":      string(sess.Branch()),
		"steps":       sess.StepCount(),
		"duration_ms": elapsed.Milliseconds(),
	})

	return Result{Session: sess, Outcome: outcome, Answer: answer, Duration: elapsed}, err
}

func (p *Pipeline) run(ctx context.Context, sess Session, budget *stepBudget) (Session, Outcome, error) {
	var err error

	if err = budget.charge(ctx, "guardrails"); err != nil {
		return sess, OutcomeFailed, err
	}
	if sess, err = p.apply(sess, budget, p.gate(ctx, sess.OriginalQuestion())); err != nil {
		return sess, OutcomeFailed, err
	}
	if sess.Relevance() != RelevanceTrue {
		return sess, OutcomeRefused, nil
	}

	if err = budget.charge(ctx, "router"); err != nil {
		return sess, OutcomeFailed, err
	}
	if sess, err = p.apply(sess, budget, p.route(ctx, sess.OriginalQuestion())); err != nil {
		return sess, OutcomeFailed, err
	}

	if sess.IsLogQuestion() {
		if sess, err = p.logBranch(ctx, sess, budget); err != nil {
			return sess, OutcomeFailed, err
		}
	} else {
		if err = budget.charge(ctx, "knowledge"); err != nil {
			return sess, OutcomeFailed, err
		}
		if sess, err = p.apply(sess, budget, p.consultKnowledge(ctx, sess.OriginalQuestion())); err != nil {
			return sess, OutcomeFailed, err
		}
	}

	if err = budget.charge(ctx, "synthesizer"); err != nil {
		return sess, OutcomeFailed, err
	}
	u, outcome := p.synthesize(ctx, sess)
	if sess, err = p.apply(sess, budget, u); err != nil {
		return sess, OutcomeFailed, err
	}
	return sess, outcome, nil
}

func (p *Pipeline) logBranch(ctx context.Context, sess Session, budget *stepBudget) (Session, error) {
	strategies := []loopStrategy{vectorStrategy{p: p}, graphStrategy{p: p}}

	var err error
	if p.cfg.Parallel {
		sess, err = p.runLoopsParallel(ctx, sess, budget, strategies)
	} else {
		for _, strat := range strategies {
			u, outcome, loopErr := p.runLoop(ctx, sess, strat, budget)
			if loopErr != nil {
				return sess, loopErr
			}
			p.observer.LoopFinished(outcome.Source, outcome.State, outcome.RetryCount)
			if sess, err = p.apply(sess, budget, u); err != nil {
				return sess, err
			}
		}
	}
	if err != nil {
		return sess, err
	}

	if err = budget.charge(ctx, "escalation"); err != nil {
		return sess, err
	}
	if sess, err = p.apply(sess, budget, p.escalate(ctx, sess)); err != nil {
		return sess, err
	}
	p.observer.Escalated(sess.Escalated())

	if q, ok := sess.EscalationQuestion(); ok && sess.Escalated() {
		if err = budget.charge(ctx, "knowledge"); err != nil {
			return sess, err
		}
		if sess, err = p.apply(sess, budget, p.consultKnowledge(ctx, q)); err != nil {
			return sess, err
		}
	}
	return sess, nil
}

// runLoopsParallel runs the loops against the same starting session. Each
// loop owns disjoint session fields, so applying their updates in order
// gives the same session as the sequential run would.
func (p *Pipeline) runLoopsParallel(ctx context.Context, sess Session, budget *stepBudget, strategies []loopStrategy) (Session, error) {
	updates := make([]Update, len(strategies))
	outcomes := make([]LoopOutcome, len(strategies))

	g, gctx := errgroup.WithContext(ctx)
	for i, strat := range strategies {
		g.Go(func() error {
			u, outcome, err := p.runLoop(gctx, sess, strat, budget)
			if err != nil {
				return err
			}
			updates[i] = u
			outcomes[i] = outcome
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sess, err
	}

	var err error
	for i := range strategies {
		p.observer.LoopFinished(outcomes[i].Source, outcomes[i].State, outcomes[i].RetryCount)
		if sess, err = p.apply(sess, budget, updates[i]); err != nil {
			return sess, err
		}
	}
	return sess, nil
}

// apply merges u and the current step count into sess.
func (p *Pipeline) apply(sess Session, budget *stepBudget, u Update) (Session, error) {
	u.StepCount = ptr(budget.steps())
	next, err := sess.Apply(u)
	if err != nil {
		return sess, fmt.Errorf("apply session update: %w", err)
	}
	return next, nil
}

// IsAbort reports whether err came from the step budget or cancellation.
func IsAbort(err error) bool {
	return errors.Is(err, ErrStepBudgetExceeded) || errors.Is(err, ErrAborted)
}
