package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/joho/godotenv"

	"voice-journal/backend/internal/audio"
	"voice-journal/backend/internal/auth"
	"voice-journal/backend/internal/cache"
	"voice-journal/backend/internal/config"
	"voice-journal/backend/internal/db"
	"voice-journal/backend/internal/handlers"
	"voice-journal/backend/internal/insight"
	"voice-journal/backend/internal/journal"
	"voice-journal/backend/internal/llm"
	"voice-journal/backend/internal/metrics"
	"voice-journal/backend/internal/middleware"
	"voice-journal/backend/internal/mood"
	"voice-journal/backend/internal/observability"
	"voice-journal/backend/internal/realtime"
	"voice-journal/backend/internal/router"
	"voice-journal/backend/internal/stt"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.Init(cfg.Environment)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.New()
	hub := realtime.NewHub(reg, logger)

	entries, usageStore, healthStore, closeStore, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var (
		queue    llm.JobQueue = llm.NewLocalQueue()
		analyses cache.AnalysisCache
	)
	analyses = cache.NewMemoryCache(cfg.AnalysisCacheTTL)
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		queue = llm.NewQueue(client)
		analyses = cache.NewRedisCache(client, cfg.AnalysisCacheTTL)
		logger.Info("using redis for analysis queue and cache")
	}

	providerRouter := llm.NewRouter(llm.NewFactory(), llm.ProvidersFromConfig(cfg), logger)
	health := llm.NewHealthMonitor(providerRouter, healthStore, logger)
	providerRouter.SetHealth(health)
	health.Restore(ctx)
	providers := llm.NewService(providerRouter, usageStore, reg, logger)

	remote := &insight.Remote{Source: providers}
	analyzer := &mood.Analyzer{
		Adapter:  &mood.Adapter{Source: providers, Observer: reg, Logger: logger},
		Insights: insight.NewDefaultChain(remote, reg, logger),
		Detailed: insight.NewDetailedChain(remote, reg, logger),
		Observer: reg,
		Logger:   logger,
	}

	journalService := journal.NewService(entries, hub, llm.Enqueuer{Queue: queue}, logger)

	recorder, err := audio.NewRecorder(cfg.AudioDir, logger)
	if err != nil {
		return err
	}

	backends := []stt.Backend{}
	if cfg.GladiaKey != "" {
		backends = append(backends, stt.NewGladia(cfg.GladiaKey))
	}
	if cfg.WhisperKey != "" {
		backends = append(backends, stt.NewWhisper(cfg.WhisperKey, cfg.WhisperBaseURL, cfg.WhisperModel))
	}
	if len(backends) == 0 {
		logger.Warn("no speech-to-text backend configured; transcriptions will fail")
	}
	transcriber := stt.NewService(cfg.TranscriptionTimeout, logger, backends...)
	transcriber.Observer = reg

	authService, err := auth.NewService(cfg.JWTSecret, 0)
	if err != nil {
		return err
	}
	pairing, err := auth.NewPairing(cfg.PairingCode)
	if err != nil {
		return err
	}
	if !pairing.Enabled() {
		logger.Warn("PAIRING_CODE is not set; new devices cannot pair")
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return err
	}
	if _, err := health.Schedule(ctx, scheduler, cfg.HealthCheckInterval); err != nil {
		return err
	}
	if _, err := recorder.Schedule(scheduler, time.Minute, cfg.RecordingIdleTimeout); err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Warn("scheduler shutdown", "error", err)
		}
	}()

	workers := &llm.WorkerPool{
		Queue:   queue,
		Analyze: analyzer.Analyze,
		Sink:    llm.StoreAnalysis{Cache: analyses, Hub: hub, Entries: journalService},
		Workers: cfg.AnalysisWorkers,
		Logger:  logger,
	}
	workers.Start(ctx)

	api := &handlers.API{
		Journal:   journalService,
		Analyzer:  analyzer,
		Analyses:  analyses,
		Recorder:  recorder,
		STT:       transcriber,
		Auth:      authService,
		Pairing:   pairing,
		Health:    health,
		PublicURL: os.Getenv("PUBLIC_URL"),
	}
	rt := router.New(api, authService, router.Options{
		Limiter:  middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute),
		Origin:   cfg.FrontendOrigin,
		Hub:      hub,
		Live:     realtime.LiveAnalysis{Analyze: analyzer.Analyze, Window: cfg.AnalysisDebounce},
		Metrics:  reg.Handler(),
		Observer: reg,
	})

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     rt,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port, "audio_dir", recorder.Dir())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", "error", err)
	}
	workers.Wait()
	return nil
}

// openStores picks the embedded SQLite store unless DATABASE_URL names
// Postgres. Usage and health logs only exist on Postgres.
func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (journal.Store, llm.UsageStore, llm.HealthStore, func(), error) {
	if cfg.EmbeddedDatabase() {
		store, err := journal.OpenSQLite(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, nil, nil, nil, err
		}
		logger.Info("using sqlite journal", "path", cfg.SQLitePath())
		return store, nil, nil, func() { _ = store.Close() }, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := db.New(connectCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := pool.Migrate(connectCtx); err != nil {
		pool.Close()
		return nil, nil, nil, nil, err
	}
	logs := llm.NewStore(pool)
	logger.Info("using postgres journal")
	return journal.NewPostgresStore(pool), logs, logs, pool.Close, nil
}
