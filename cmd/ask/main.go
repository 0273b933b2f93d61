package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cskg-agent-be/internal/bootstrap"
	"cskg-agent-be/internal/config"
	"cskg-agent-be/internal/pkg/logger"
	"cskg-agent-be/pkg/database"
	"cskg-agent-be/pkg/orchestrator"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	maxRetries int
	stepBudget int
	asJSON     bool

	rootCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a cybersecurity question against the knowledge graph",
		Long: `Runs one question through the guardrails, retrieval loops and report
synthesis, then prints the final answer. Logs go to LOG_FILE_PATH only.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}
)

func init() {
	rootCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "retrieval attempts per loop (default MAX_RETRIES)")
	rootCmd.Flags().IntVar(&stepBudget, "step-budget", 0, "maximum pipeline steps (default STEP_BUDGET)")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "print outcome, steps and answer as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question is empty")
	}

	cfg := config.Load()
	sysLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	defer sysLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *gorm.DB
	if cfg.Vector.Backend == "" || cfg.Vector.Backend == "pgvector" {
		var err error
		db, err = database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
	}

	pipeline, closePipeline, err := bootstrap.NewAnswerPipeline(ctx, db, cfg, sysLogger)
	if err != nil {
		return err
	}
	defer closePipeline()

	res, _ := pipeline.Run(ctx, question, maxRetries, stepBudget)

	out := cmd.OutOrStdout()
	if !asJSON {
		fmt.Fprintln(out, res.Answer)
		outcomeColor(res.Outcome).Fprintf(cmd.ErrOrStderr(), "[%s] %d steps in %s\n",
			res.Outcome, res.Session.StepCount(), res.Duration.Round(time.Millisecond))
		return nil
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"question":    question,
		"outcome":     res.Outcome,
		"branch":      res.Session.Branch(),
		"escalated":   res.Session.Escalated(),
		"steps":       res.Session.StepCount(),
		"duration_ms": res.Duration.Milliseconds(),
		"answer":      res.Answer,
	})
}

func outcomeColor(outcome orchestrator.Outcome) *color.Color {
	switch outcome {
	case orchestrator.OutcomeAnswered:
		return color.New(color.FgGreen)
	case orchestrator.OutcomeFailed:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}
