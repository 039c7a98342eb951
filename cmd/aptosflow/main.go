package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aptosflow/aptosflow/internal/application/coordinator"
	"github.com/aptosflow/aptosflow/internal/application/engine"
	"github.com/aptosflow/aptosflow/internal/application/registry"
	"github.com/aptosflow/aptosflow/internal/config"
	eventsmemory "github.com/aptosflow/aptosflow/pkg/adapters/events/memory"
	eventsredis "github.com/aptosflow/aptosflow/pkg/adapters/events/redis"
	"github.com/aptosflow/aptosflow/pkg/adapters/metrics/prometheus"
	storagememory "github.com/aptosflow/aptosflow/pkg/adapters/storage/memory"
	storageredis "github.com/aptosflow/aptosflow/pkg/adapters/storage/redis"
	"github.com/aptosflow/aptosflow/pkg/adapters/wallet"
	"github.com/aptosflow/aptosflow/pkg/api/grpc"
	"github.com/aptosflow/aptosflow/pkg/api/http"
	"github.com/aptosflow/aptosflow/pkg/api/websocket"
	"github.com/aptosflow/aptosflow/pkg/ports"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting AptosFlow coordinator",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	ctx := context.Background()

	// Initialize Redis client when any component needs it
	var redisClient *goredis.Client
	if cfg.NeedsRedis() {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Initialize adapters
	metricsCollector := prometheus.NewCollector()

	eventBus := eventsmemory.NewBus(logger, metricsCollector)

	var store ports.HistoryStore
	switch cfg.StorageBackend {
	case "redis":
		store = storageredis.NewStore(redisClient, cfg.Coordination.HistoryTTL, logger)
	default:
		store = storagememory.NewStore()
	}

	capability, err := wallet.NewCapability(&wallet.Config{
		Provider: cfg.Wallet.Provider,
		Network:  cfg.Wallet.Network,
		Account:  cfg.Wallet.Account,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("failed to create wallet capability", zap.Error(err))
	}

	// Initialize application components
	workflowRegistry := registry.New(logger)
	validator := registry.NewConnectionValidator()
	pullEngine := engine.New(logger)

	wsHandler := websocket.NewHandler(logger)

	notifiers := ports.MultiNotifier{wsHandler}

	var relay *eventsredis.Relay
	if cfg.Redis.RelayEnabled {
		relay = eventsredis.NewRelay(
			redisClient,
			"aptosflow-coordinators",
			fmt.Sprintf("aptosflow-%d", os.Getpid()),
			logger,
		)
		notifiers = append(notifiers, relay)
	}

	coord := coordinator.New(coordinator.Config{
		Registry:          workflowRegistry,
		Bus:               eventBus,
		Capability:        capability,
		Store:             store,
		Metrics:           metricsCollector,
		Notifier:          notifiers,
		Logger:            logger,
		CapabilityTimeout: cfg.Timeouts.CapabilityTimeout,
		HistoryLimit:      cfg.Coordination.HistoryLimit,
	})

	wsHandler.BindSink(coord)

	// Start the inbound event relay
	if relay != nil {
		if err := relay.ConsumeInbound(ctx, coord.HandleInbound); err != nil {
			logger.Fatal("failed to start event relay", zap.Error(err))
		}
	}

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Port:        cfg.HTTPPort,
		Coordinator: coord,
		Registry:    workflowRegistry,
		Validator:   validator,
		Engine:      pullEngine,
		Logger:      logger,
	})

	// Add WebSocket handler to HTTP server
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:        cfg.GRPCPort,
		Coordinator: coord,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("AptosFlow coordinator started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.String("storage_backend", cfg.StorageBackend),
		zap.Bool("relay_enabled", cfg.Redis.RelayEnabled))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	// Shutdown components
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("AptosFlow coordinator shut down complete")
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
