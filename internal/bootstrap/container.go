package bootstrap

import (
	"context"
	"log"
	"time"

	"cskg-agent-be/internal/config"
	"cskg-agent-be/internal/controller"
	"cskg-agent-be/internal/observability"
	"cskg-agent-be/internal/pkg/logger"
	"cskg-agent-be/internal/repository/memory"
	"cskg-agent-be/internal/repository/unitofwork"
	"cskg-agent-be/internal/service"
	"cskg-agent-be/internal/websocket"
	"cskg-agent-be/pkg/orchestrator"

	pktNats "cskg-agent-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

const (
	runRetention    = 24 * time.Hour
	consumerWorkers = 4
)

type Container struct {
	// Controllers
	QuestionController controller.IQuestionController
	ReportController   controller.IReportController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Registry *prometheus.Registry
	Logger   logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewPipelineMetrics(registry)

	// 2. Pipeline
	pipeline, closePipeline, err := NewAnswerPipeline(context.Background(), db, cfg, sysLogger, orchestrator.WithObserver(metrics))
	if err != nil {
		log.Panicf("Unable to build answer pipeline: %v", err)
	}

	// 3. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS
	var eventPublisher service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
	}

	// Live run feed
	hubCtx, stopHub := context.WithCancel(context.Background())
	wsHub := websocket.NewHub(sysLogger)
	go wsHub.Run(hubCtx)

	// 4. Services
	runRepo := memory.NewRunRepository(runRetention)
	publisherService := service.NewPublisherService(cfg.App.QuestionTopic, pubSub)
	questionService := service.NewQuestionService(pipeline, uowFactory, runRepo, publisherService, eventPublisher, wsHub, sysLogger)
	reportService := service.NewReportService(uowFactory)
	consumerService := service.NewConsumerService(pubSub, cfg.App.QuestionTopic, questionService, consumerWorkers, sysLogger)

	c := &Container{
		QuestionController: controller.NewQuestionController(questionService, wsHub),
		ReportController:   controller.NewReportController(reportService),
		ConsumerService:    consumerService,
		Registry:           registry,
		Logger:             sysLogger,
	}
	c.closers = append(c.closers, closePipeline, func() { _ = pubSub.Close() }, stopHub)
	if natsPub != nil {
		c.closers = append(c.closers, natsPub.Close)
	}
	return c
}

func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
