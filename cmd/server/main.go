package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/config"
	"github.com/stemsi/compass-backend/internal/database"
	"github.com/stemsi/compass-backend/internal/handler"
	"github.com/stemsi/compass-backend/internal/logger"
	"github.com/stemsi/compass-backend/internal/questionbank"
	"github.com/stemsi/compass-backend/internal/recommend"
	"github.com/stemsi/compass-backend/internal/reporting"
	"github.com/stemsi/compass-backend/internal/repository"
	"github.com/stemsi/compass-backend/internal/router"
	"github.com/stemsi/compass-backend/internal/service"
	"github.com/stemsi/compass-backend/internal/store"
	"github.com/stemsi/compass-backend/internal/tracker"
	"github.com/stemsi/compass-backend/internal/validator"
	"github.com/stemsi/compass-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Compass Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	// ─── Load Question Bank ────────────────────────────────────────────
	bank, err := loadBank(cfg.QuestionBankPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.QuestionBankPath).Msg("Failed to load question bank")
	}
	log.Info().Int("questions", len(bank.Questions())).Msg("Question bank loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	hrUserRepo := repository.NewHRUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)
	eventRepo := repository.NewEventRepository(pool)

	// ─── Initialize Collaborators ──────────────────────────────────────
	registry := tracker.NewRegistry()
	mirror := store.NewRedisMirror(rdb, cfg.MirrorTTL, log)
	sender := reporting.NewQueueSender(rdb, log)
	publisher := reporting.NewResultPublisher(rdb, log)
	sheet := reporting.NewSheetClient(cfg.SheetWebhookURL, cfg.SheetTimeout)
	recommender := recommend.NewService(recommend.Config{
		BaseURL:           cfg.AIBaseURL,
		APIKey:            cfg.AIAPIKey,
		Model:             cfg.AIModel,
		Timeout:           cfg.AITimeout,
		RequestsPerMinute: cfg.AIRequestsPerMinute,
	}, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, hrUserRepo)
	assessmentService := service.NewAssessmentService(
		sessionRepo, bank, registry, mirror, sender, publisher, authService,
		service.AssessmentOptions{BatchSize: cfg.TrackerBatchSize},
		log,
	)
	resultService := service.NewResultService(resultRepo, sessionRepo, bank, recommender, rdb, log)
	dashboardService := service.NewDashboardService(dashboardRepo, bank, rdb, log)
	monitorService := service.NewMonitorService(sessionRepo, eventRepo, assessmentService, rdb)

	// ─── Initialize Handlers ──────────────────────────────────────────
	systemDeps := handler.SystemDeps{
		Probes: map[string]handler.Probe{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		QueueDepths: func(ctx context.Context) (map[string]int64, error) { return worker.QueueDepths(ctx, rdb) },
		LiveTracked: registry.Len,
	}

	handlers := &router.Handlers{
		Assessment: handler.NewAssessmentHandler(assessmentService, log),
		WS:         handler.NewWSHandler(assessmentService, log, cfg.AllowedOrigins),
		Auth:       handler.NewAuthHandler(authService, log),
		Result:     handler.NewResultHandler(resultService, log),
		Dashboard:  handler.NewDashboardHandler(dashboardService, log),
		Monitor:    handler.NewMonitorHandler(monitorService, log),
		System:     handler.NewSystemHandler(systemDeps, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	eventWorker := worker.NewEventWorker(pool, rdb, sheet, log)
	resultWorker := worker.NewResultWorker(pool, rdb, sheet, mirror, rdb, log)

	workers.Go(func() { eventWorker.Start(workerCtx) })
	workers.Go(func() { resultWorker.Start(workerCtx) })

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Hand every tracker's partial batch to the queue before the workers stop.
	log.Info().Int("sessions", registry.Len()).Msg("Flushing live trackers")
	registry.FlushAll()

	// 3. Stop background workers and wait for their buffers to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

func loadBank(path string) (*questionbank.Bank, error) {
	if path == "" {
		return questionbank.Default()
	}
	return questionbank.Load(path)
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
