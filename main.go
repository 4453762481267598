package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/pulsex/care-service/internal/authz"
	"github.com/pulsex/care-service/internal/cache"
	"github.com/pulsex/care-service/internal/config"
	"github.com/pulsex/care-service/internal/events"
	"github.com/pulsex/care-service/internal/handlers"
	"github.com/pulsex/care-service/internal/repositories/postgres"
	"github.com/pulsex/care-service/internal/security"
	"github.com/pulsex/care-service/internal/services"
	"github.com/pulsex/care-service/internal/storage"
	"github.com/pulsex/care-service/internal/utils"
	"github.com/pulsex/care-service/internal/validator"
	"github.com/pulsex/care-service/pkg"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "care-service",
		Short: "Healthcare coordination backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := newLogger(cfg)

			db, err := pkg.InitDatabase(cfg)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := postgres.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.Info("Migrations applied")
			return nil
		},
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
}

func runServer(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slogLogger := newLogger(cfg)
	logger := utils.NewSlogLogger(slogLogger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}

	// Redis is optional; without it every cache call falls through
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, caching disabled", "error", err)
			redisClient = nil
		}
	}

	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	publisher, err := newAuditPublisher(ctx, cfg, slogLogger)
	if err != nil {
		return err
	}

	blobs, err := storage.NewLocalBlobStore(cfg.Storage.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to prepare upload dir: %w", err)
	}

	tokens := security.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)

	serviceManager := services.NewServiceManager(
		repoManager.GetRepository(),
		slogLogger,
		validator.New(),
		services.Infrastructure{
			Cache:     cache.NewCacheManager(redisClient),
			Publisher: publisher,
			Blobs:     blobs,
			Passwords: security.NewPasswordManager(0),
			Tokens:    tokens,
		},
		services.ServiceManagerConfig{
			Access: authz.Options{
				AdminRecordAccess:           cfg.Access.AdminRecordAccess,
				RequireCompletedAppointment: cfg.Access.RequireCompletedAppointment,
			},
			MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		},
	)
	if err := serviceManager.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	var authenticator handlers.Authenticator
	switch cfg.Auth.Provider {
	case config.AuthProviderCasdoor:
		authenticator = handlers.NewCasdoorAuthMiddleware(cfg.Casdoor, serviceManager.Auth())
	default:
		authenticator = handlers.NewJWTAuthMiddleware(tokens, serviceManager.Auth())
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger)
	handlers.NewHandlerManager(serviceManager, authenticator, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "auth_provider", cfg.Auth.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		logger.Error("Server failed", "error", err)
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Closes the publisher, the database and Redis
	if err := serviceManager.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	logger.Info("Server exited")
	return nil
}

// newAuditPublisher sends audit events to Kafka when brokers are configured,
// otherwise to an in-process channel drained into the log
func newAuditPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (events.EventPublisher, error) {
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Publishing audit events to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.AuditTopic)
		return publisher, nil
	}

	publisher, pubSub := events.NewInProcessPublisher(cfg.Kafka.AuditTopic, logger)
	if err := events.ConsumeAudit(ctx, pubSub, cfg.Kafka.AuditTopic, logger, events.LogAuditEvent(logger)); err != nil {
		_ = publisher.Close()
		return nil, err
	}
	return publisher, nil
}
