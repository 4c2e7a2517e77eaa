package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cardealworker/config"
	"cardealworker/internal/crawler"
	"cardealworker/internal/observability"
	"cardealworker/internal/predict"
	"cardealworker/logger"
	"cardealworker/pkg/dtree"
	"cardealworker/services/publisher"
	"cardealworker/services/sink"
	"cardealworker/services/storage"
	"cardealworker/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("crawl_interval", cfg.CrawlInterval).
		Int("max_pages", cfg.MaxPages).
		Msg("Starting application")

	observability.Start(cfg.MetricsPort)

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	c := crawler.New(cfg, services.Storage)

	predictor := predict.New(func() predict.Regressor {
		return dtree.New(cfg.MinSamplesLeaf, cfg.MaxTreeDepth)
	}, cfg.CrossValidate)

	// Create and start worker
	w := worker.NewWorker(
		ctx,
		c,
		predictor,
		services.Publisher,
		services.Sink,
		cfg,
	)

	// Start worker in a goroutine
	workerDone := make(chan struct{})
	go func() {
		log.Info().Msg("Starting car deal worker")
		w.Start()
		close(workerDone)
	}()

	// Wait for shutdown signal or worker exit
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-workerDone
	case <-workerDone:
		log.Info().Msg("Worker exited")
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Storage   storage.Storage
	Publisher publisher.Publisher
	Sink      worker.Sink
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if closer, ok := s.Sink.(interface{ Close() error }); ok && closer != nil {
		closer.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// Initialize the raw page store
	switch cfg.StorageBackend {
	case "memcache":
		store := storage.NewMemcacheStorage(cfg.MemcacheAddr)
		if store == nil {
			return nil, fmt.Errorf("failed to create memcache storage")
		}
		services.Storage = store
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	default:
		store, err := storage.NewFileStorage(cfg.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create file storage: %w", err)
		}
		services.Storage = store
		logger.Info("Storing raw pages under %s", cfg.StorageDir)
	}

	// Initialize publisher
	redisPublisher := publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamCount,
		cfg.RedisStreamMaxLength,
	)
	if redisPublisher == nil {
		return nil, fmt.Errorf("failed to create redis publisher")
	}
	services.Publisher = redisPublisher

	logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
		cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)

	// Initialize the optional prediction sink
	if cfg.DatabaseURL != "" {
		pgSink, err := sink.NewPostgresSink(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres sink: %w", err)
		}
		services.Sink = pgSink
		logger.Info("Persisting predictions to PostgreSQL")
	}

	return services, nil
}
