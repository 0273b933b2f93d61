package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"cskg-agent-be/internal/bootstrap"
	"cskg-agent-be/internal/config"
	"cskg-agent-be/internal/model"
	"cskg-agent-be/internal/pkg/logger"
	"cskg-agent-be/internal/repository/unitofwork"
	"cskg-agent-be/internal/service"
	"cskg-agent-be/pkg/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	resourcesDir string

	rootCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create the report and resource tables, optionally indexing resources",
		RunE:  runMigrate,
	}
)

func init() {
	rootCmd.Flags().StringVar(&resourcesDir, "resources", "", "directory of .md/.txt resources to embed into resource_embeddings")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	// 1. Load Environment Variables
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		return fmt.Errorf("DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	// 3. Pre-Migration: Extensions
	log.Println("Step 1: Setting up Extensions...")
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate
	log.Println("Step 2: Running AutoMigrate...")
	if err := db.AutoMigrate(&model.InvestigationReport{}, &model.ResourceEmbedding{}); err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}

	// 5. Post-Migration: Indexes
	log.Println("Step 3: Creating Indexes...")
	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_resource_embeddings_hnsw ON resource_embeddings USING hnsw (embedding_value vector_cosine_ops);`,
		`CREATE INDEX IF NOT EXISTS idx_investigation_reports_created_at ON investigation_reports (created_at DESC);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	if resourcesDir != "" {
		if err := indexResources(cmd.Context(), db, cfg, resourcesDir); err != nil {
			return err
		}
	}

	log.Println("✅ Success: Database migration completed successfully via GORM.")
	return nil
}

func indexResources(ctx context.Context, db *gorm.DB, cfg *config.Config, dir string) error {
	embedder, err := bootstrap.NewEmbeddingProvider(cfg)
	if err != nil {
		return err
	}

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, false)
	defer sysLogger.Sync()
	indexer := service.NewIndexingService(unitofwork.NewRepositoryFactory(db), embedder, sysLogger)

	log.Printf("Step 4: Indexing resources from %s...", dir)
	total := 0
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if d.IsDir() || (ext != ".md" && ext != ".txt") {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		resourceId := filepath.ToSlash(rel)
		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		n, err := indexer.IndexResource(ctx, resourceId, title, string(raw))
		if err != nil {
			return fmt.Errorf("index %s: %w", resourceId, err)
		}
		total += n
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("Indexed %d chunks", total)
	return nil
}
