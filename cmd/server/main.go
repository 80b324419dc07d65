package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecoflow/internal/api"
	"ecoflow/internal/api/handlers"
	"ecoflow/internal/api/middleware"
	"ecoflow/internal/engine/devices"
	"ecoflow/internal/engine/ecoflow"
	"ecoflow/internal/engine/signing"
	"ecoflow/internal/pkg/logger"
	"ecoflow/internal/platform/auth"
	"ecoflow/internal/platform/config"
	"ecoflow/internal/platform/database"
	"ecoflow/internal/platform/repositories"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Init(cfg.Logging)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if applied, err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	} else if len(applied) > 0 {
		log.Info().Strs("migrations", applied).Msg("Applied migrations")
	}

	client, err := ecoflow.NewClient(cfg.EcoFlow, ecoflow.WithLogger(log.Logger))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create EcoFlow client")
	}

	// Repositories
	deviceRepo := repositories.NewDeviceRepository(db)
	snapshotRepo := repositories.NewSnapshotRepository(db)
	commandRepo := repositories.NewCommandRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	deviceSvc := devices.NewService(client, deviceRepo, snapshotRepo, commandRepo)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	go rateLimiter.Run(stopCleanup, 10*time.Minute)

	router := api.NewRouter(&api.Dependencies{
		AuthHandler:    handlers.NewAuthHandler(cfg.Auth, cfg.JWT, tokenSvc),
		DeviceHandler:  handlers.NewDeviceHandler(deviceSvc),
		SignHandler:    handlers.NewSignHandler(signing.NewSigner(cfg.EcoFlow.AccessKey, cfg.EcoFlow.SecretKey), signing.RandomNonce{}, signing.SystemClock{}),
		HealthHandler:  handlers.NewHealthHandler(db),
		MetricsHandler: handlers.NewMetricsHandler(client),
		AuthMiddleware: middleware.NewAuthMiddleware(tokenSvc),
		RateLimiter:    rateLimiter,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
