package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"checkerq-admin-api/config"
	"checkerq-admin-api/internal/api"
	"checkerq-admin-api/internal/auth"
	"checkerq-admin-api/internal/cache"
	"checkerq-admin-api/internal/database"
	"checkerq-admin-api/internal/events"
	"checkerq-admin-api/internal/license"
	"checkerq-admin-api/internal/vault"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LoggingConfig)
	logger.Info().Msg("Starting CheckerQ admin API")

	db, err := database.NewDB(database.Config{
		Host:     cfg.DatabaseConfig.Host,
		Port:     cfg.DatabaseConfig.Port,
		User:     cfg.DatabaseConfig.User,
		Password: cfg.DatabaseConfig.Password,
		Database: cfg.DatabaseConfig.Database,
		SSLMode:  cfg.DatabaseConfig.SSLMode,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.RunMigrations(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	repo := database.NewRepository(db)
	eventBus := events.NewEventBus()

	vaultClient, err := vault.NewClient(cfg.VaultConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize vault client")
	}
	if !vaultClient.IsEnabled() {
		logger.Warn().Msg("Vault disabled, AI provider keys held in memory only")
	}

	var cacheService *cache.CacheService
	if cfg.RedisConfig.Enabled {
		cacheService, err = cache.NewCacheService(cfg.RedisConfig, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
			cacheService = nil
		} else {
			defer cacheService.Close()
		}
	}

	jwtManager := auth.NewJWTManager(
		cfg.AuthConfig.JWTSecret,
		cfg.AuthConfig.AccessTokenDuration,
		cfg.AuthConfig.RefreshTokenDuration,
	)
	verifier := auth.NewGoogleVerifier(cfg.GoogleConfig.ClientID, cfg.GoogleConfig.VerifyTimeout)
	authService := auth.NewService(repo, jwtManager, verifier, eventBus, logger)

	if err := auth.SeedAdminUser(ctx, repo, cfg.AuthConfig.AdminEmail, cfg.AuthConfig.AdminPassword, logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to seed admin user")
	}

	licenseService := license.NewService(repo, eventBus, logger)

	server := api.NewServer(
		cfg.ServerConfig,
		repo,
		eventBus,
		authService,
		licenseService,
		vaultClient,
		cacheService,
		logger,
	)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Forced shutdown")
	}

	logger.Info().Msg("Server stopped")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
