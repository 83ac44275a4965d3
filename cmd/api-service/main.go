package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/cuongbtq/jobboard/internal/account"
	"github.com/cuongbtq/jobboard/internal/api/handler"
	"github.com/cuongbtq/jobboard/internal/api/router"
	"github.com/cuongbtq/jobboard/internal/config"
	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/cuongbtq/jobboard/internal/session"
	"github.com/cuongbtq/jobboard/internal/store"
	"github.com/cuongbtq/jobboard/internal/store/memory"
	"github.com/cuongbtq/jobboard/internal/store/postgres"
	"github.com/cuongbtq/jobboard/internal/workflow"
	"github.com/cuongbtq/jobboard/shared/logger"
	"github.com/cuongbtq/jobboard/shared/postgresql"
	"github.com/cuongbtq/jobboard/shared/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("storage_driver", cfg.Storage.Driver),
	)

	ctx := context.Background()

	stores, closeStore, err := initStores(ctx, cfg, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStore()

	publisher, rabbitClient, err := initPublisher(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	if rabbitClient != nil {
		defer rabbitClient.Close()
	}

	sessions, err := session.NewIssuer(cfg.Auth.TokenSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize sessions: %w", err)
	}

	r := initRouter(cfg, &handler.Dependencies{
		Logger:         appLogger.Logger,
		ServiceName:    cfg.App.Name,
		Engine:         workflow.NewEngine(stores),
		Accounts:       account.NewService(stores.Users),
		Sessions:       sessions,
		Publisher:      publisher,
		PublishTimeout: cfg.RabbitMQ.Publish.Timeout,
		Ping:           stores.Ping,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Shutting down server...", slog.String("signal", sig.String()))
	case err := <-serverErr:
		appLogger.Error("Server failed", slog.Any("error", err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", slog.Any("error", err))
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
}

// initStores builds the configured store and returns its release function
func initStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Stores, func(), error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		logger.Warn("Using in-memory storage; data is lost on restart")
		return memory.New().Stores(), func() {}, nil
	}

	dbClient, err := initPostgreSQL(ctx, &cfg.Database, logger)
	if err != nil {
		return store.Stores{}, nil, err
	}
	logger.Info("Database connection established")

	pg := postgres.New(dbClient.DB(), logger, cfg.Database.QueryTimeout)
	if cfg.Database.AutoMigrate {
		if err := pg.Migrate(ctx); err != nil {
			dbClient.Close()
			return store.Stores{}, nil, err
		}
	}

	return pg.Stores(), func() { dbClient.Close() }, nil
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	return postgresql.NewClient(ctx, &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}, logger)
}

// initPublisher connects the event publisher. The API only publishes, so
// no queue is declared. With RabbitMQ disabled events are discarded.
func initPublisher(cfg *config.RabbitMQConfig, logger *slog.Logger) (events.Publisher, *rabbitmq.Client, error) {
	if !cfg.Enabled {
		logger.Warn("RabbitMQ disabled; domain events will not be published")
		return events.Discard{}, nil, nil
	}

	client, err := rabbitmq.NewClient(&rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("RabbitMQ connection established")

	return events.NewRabbitPublisher(client), client, nil
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(cfg *config.Config, deps *handler.Dependencies) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	return router.SetupRouter(deps)
}
