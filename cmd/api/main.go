package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"resort/internal/api"
	"resort/internal/config"
	"resort/internal/database"
	"resort/internal/domain"
	"resort/internal/events"
	"resort/internal/export"
	"resort/internal/logging"
	"resort/internal/metrics"
	"resort/internal/repository"
	"resort/internal/service"
	"resort/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const limiterSweepInterval = time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, base, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	logger := logging.Component(base, "api-main")
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := initDatabase(cfg, logging.Component(base, "database"))
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	limiter := initRateLimiter(ctx, redisClient, logger)

	// workers flush and finish before the deferred closes of redis and db run
	var workers sync.WaitGroup

	eventBus := events.NewEventBus()
	initEventRelay(ctx, cfg, eventBus, redisClient, &workers, logging.Component(base, "event-relay"))

	backup := database.NewBackupService(db, cfg.Backup, logging.Component(base, "backup"))
	background(&workers, func() { backup.Start(ctx) })

	startMetrics(ctx, cfg, logger)

	svc := api.Services{
		Users:    service.NewUserService(db, cfg.API.Auth.APIKeys, logging.Component(base, "user-service")),
		Carts:    service.NewCartService(db, logging.Component(base, "cart-service")),
		Orders:   service.NewOrderService(db, eventBus, logging.Component(base, "order-service")),
		Bookings: service.NewBookingService(db, eventBus, cfg.Booking.MaxNights, logging.Component(base, "booking-service")),
		Catalog:  service.NewCatalogService(db, logging.Component(base, "catalog-service")),
		Reviews:  service.NewReviewService(db, logging.Component(base, "review-service")),
		Exporter: export.NewExporter(cfg.Exports.Path, logging.Component(base, "export")),
		Limiter:  limiter,
		DB:       db,
	}
	httpServer := api.NewHTTPServer(cfg.API, svc, logging.Component(base, "http-api"))

	err = serve(ctx, httpServer, cfg, logger)

	stop()
	workers.Wait()
	logger.Info().Msg("background workers stopped")
	return err
}

// background runs fn in a goroutine tracked by wg.
func background(wg *sync.WaitGroup, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn()
	}()
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, baseLogger, closer, nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("init database")
		return nil, err
	}

	seedPath := os.Getenv("SEED_PATH")
	if seedPath == "" {
		seedPath = cfg.Seed.Path
	}
	if seedPath == "" {
		return db, nil
	}

	seed, err := database.LoadSeed(seedPath)
	if err != nil {
		db.Close()
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("read seed")
		return nil, err
	}
	if err := db.ApplySeed(context.Background(), seed); err != nil {
		db.Close()
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("apply seed")
		return nil, err
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initRateLimiter prefers the shared Redis counter and falls back to the
// in-process one while Redis is unreachable.
func initRateLimiter(ctx context.Context, client *redis.Client, logger *zerolog.Logger) domain.RateLimiter {
	memory := repository.NewMemoryRateLimiter()
	go func() {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				memory.Sweep()
			}
		}
	}()

	if client == nil {
		return memory
	}
	return repository.NewFailoverRateLimiter(repository.NewRedisRateLimiter(client), memory, logger)
}

func initEventRelay(
	ctx context.Context,
	cfg *config.Config,
	bus *events.EventBus,
	redisClient *redis.Client,
	wg *sync.WaitGroup,
	logger *zerolog.Logger,
) {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info().Msg("kafka brokers not configured, domain events stay in-process")
		return
	}

	relay := worker.NewEventRelay(
		worker.NewKafkaWriter(cfg.Kafka),
		redisClient,
		worker.DefaultRetryPolicy(cfg.Kafka.MaxRetries),
		logger,
	)
	runEventRelay(ctx, relay, bus, wg)

	logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("event relay started")
}

func runEventRelay(ctx context.Context, relay *worker.EventRelay, bus *events.EventBus, wg *sync.WaitGroup) {
	bus.SubscribeAll(relay.Handle)
	background(wg, func() { relay.Start(ctx) })
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server stopped")
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.HTTP.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
