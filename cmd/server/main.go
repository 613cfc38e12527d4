package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/config"
	"github.com/stemsi/etesthub-backend/internal/database"
	"github.com/stemsi/etesthub-backend/internal/events"
	"github.com/stemsi/etesthub-backend/internal/handler"
	"github.com/stemsi/etesthub-backend/internal/logger"
	"github.com/stemsi/etesthub-backend/internal/remote"
	"github.com/stemsi/etesthub-backend/internal/repository"
	"github.com/stemsi/etesthub-backend/internal/router"
	"github.com/stemsi/etesthub-backend/internal/service"
	"github.com/stemsi/etesthub-backend/internal/validator"
	"github.com/stemsi/etesthub-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreBackend).
		Str("grading", cfg.GradingMode).
		Msg("Starting E-TestHub Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Data Service Client ───────────────────────────────────────────
	client, err := remote.New(remote.Config{BaseURL: cfg.DataAPIURL, Timeout: cfg.DataAPITimeout})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid data service configuration")
	}

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	catalogRepo := repository.NewCatalogRepository(client)

	var (
		submissionStore service.SubmissionStore
		scheduleStore   service.ScheduleStore
		pool            *pgxpool.Pool
	)
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		if err := database.MigrateUp(cfg.MigrationsDir, cfg.DatabaseURL, log); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate PostgreSQL")
		}
		pool, err = database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		submissionStore = repository.NewPgSubmissionRepository(pool)
		scheduleStore = repository.NewPgScheduleRepository(pool)
	case config.StoreBackendRemote:
		submissionStore = repository.NewSubmissionRepository(client)
		scheduleStore = repository.NewScheduleRepository(client)
	default:
		log.Fatal().Str("store", cfg.StoreBackend).Msg("Unknown STORE_BACKEND")
	}

	var grader service.Grader = service.RemoteGrader{}
	if cfg.GradingMode == config.GradingModeAnswerKey {
		grader = service.NewAnswerKeyGrader(catalogRepo)
	}

	// ─── Submission Events ─────────────────────────────────────────────
	ps, err := events.NewPubSub(events.Config{
		KafkaBrokers:  cfg.KafkaBrokers,
		ConsumerGroup: cfg.EventsConsumerGroup,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize event transport")
	}
	publisher := events.NewWatermillPublisher(ps.Publisher, cfg.EventsTopic, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, client, log)
	submissionService := service.NewSubmissionService(submissionStore, grader, publisher, log)
	sessionService := service.NewExamSessionService(scheduleStore, catalogRepo, submissionService, log)
	scheduleService := service.NewScheduleService(scheduleStore, catalogRepo, log)
	resultService := service.NewResultService(submissionService, catalogRepo)
	monitorService := service.NewMonitorService(submissionService, catalogRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, log),
		StudentPortal: handler.NewStudentPortalHandler(sessionService, submissionService, resultService, log),
		Schedule:      handler.NewScheduleHandler(scheduleService, log),
		Result:        handler.NewResultHandler(resultService, log),
		Monitor:       handler.NewMonitorHandler(rdb, monitorService, log),
		WS:            handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		Health:        handler.NewHealthHandler(rdb, ps.Transport, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	relay := worker.NewMonitorRelay(ps.Subscriber, rdb, cfg.EventsTopic, log)
	if err := relay.Start(workerCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start monitor relay")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, rdb, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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

	// 2. Stop the relay, then close the transport it reads from.
	workerCancel()
	select {
	case <-relay.Done():
	case <-time.After(2 * time.Second):
		log.Warn().Msg("Monitor relay did not stop in time")
	}
	if err := ps.Close(); err != nil {
		log.Error().Err(err).Msg("Event transport close error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
