package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/api"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/config"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/database"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/domain"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/events"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/export"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/logging"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/metrics"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/notifier"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/service"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/session"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := events.NewEventBus()

	// A typed nil *Worker inside the interface would defeat the services'
	// nil checks; only assign when the worker actually exists.
	var notify domain.NotifyWorker
	if worker := initNotifier(ctx, cfg, db, redisClient, &logger); worker != nil {
		notify = worker
	}

	sessions := initSessions(cfg, redisClient, &logger)

	exporter := export.NewExporter(cfg.Exports.Path, &logger)

	deps := api.Deps{
		Store:        db,
		Sessions:     sessions,
		Reservations: service.NewReservationService(db, eventBus, notify, &logger),
		Events:       service.NewEventService(db, eventBus, notify, &logger),
		Buses:        service.NewBusService(db, &logger),
		Comments:     service.NewCommentService(db, eventBus, &logger),
		Exporter:     exporter,
		Logger:       &logger,
	}
	httpServer := api.NewHTTPServer(*cfg, deps)

	startMetrics(ctx, cfg, &logger)

	return serve(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return nil
	}

	redisClient := session.NewRedisClient(cfg.Redis)

	if err := session.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initNotifier builds and starts the mail worker. Returns nil when
// notifications are disabled; services treat a nil worker as a no-op.
func initNotifier(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) *notifier.Worker {
	if !cfg.Notify.Enabled {
		logger.Info().Msg("notifications disabled")
		return nil
	}

	mailer := notifier.NewHTTPMailer(
		cfg.Mail.Endpoint,
		cfg.Mail.APIKey,
		cfg.Mail.Sender,
		time.Duration(cfg.Mail.TimeoutSeconds)*time.Second,
	)

	retry := notifier.RetryPolicy{
		MaxRetries:    cfg.Notify.MaxRetries,
		InitialDelay:  time.Duration(cfg.Notify.InitialDelayS) * time.Second,
		MaxDelay:      time.Duration(cfg.Notify.MaxDelayS) * time.Second,
		BackoffFactor: 2,
	}

	workerLogger := logger.With().Str("component", "notifier").Logger()
	worker := notifier.NewWorker(db, mailer, redisClient, retry,
		time.Duration(cfg.Notify.PollSeconds)*time.Second, cfg.Notify.BatchSize, &workerLogger)
	go worker.Start(ctx)
	return worker
}

func initSessions(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.SessionRepository {
	memory := session.NewMemoryRepository(cfg.SessionTTL())
	if redisClient == nil {
		return memory
	}

	primary := session.NewRedisRepository(redisClient, cfg.SessionTTL())
	return session.NewFailoverRepository(primary, memory, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
