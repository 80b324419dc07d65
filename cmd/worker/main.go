package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"ecoflow/internal/engine/devices"
	"ecoflow/internal/engine/ecoflow"
	"ecoflow/internal/pkg/logger"
	"ecoflow/internal/platform/config"
	"ecoflow/internal/platform/database"
	"ecoflow/internal/platform/repositories"
	"ecoflow/internal/workers"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	once := flag.Bool("once", false, "Poll a single time and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Init(cfg.Logging)
	log.Info().Msg("Starting EcoFlow poller")

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if _, err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	client, err := ecoflow.NewClient(cfg.EcoFlow, ecoflow.WithLogger(log.Logger))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create EcoFlow client")
	}

	svc := devices.NewService(client,
		repositories.NewDeviceRepository(db),
		repositories.NewSnapshotRepository(db),
		repositories.NewCommandRepository(db),
	)
	poller := workers.NewPoller(svc, cfg.Poller)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		res := poller.Tick(ctx)
		log.Info().Int("captured", res.Captured).Int("failed", res.Failed).Int64("pruned", res.Pruned).Msg("Poll complete")
		return
	}

	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Poller exited")
	}
}
