package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stratoview/cloudsync/pkg/config"
	"github.com/stratoview/cloudsync/pkg/database"
	"github.com/stratoview/cloudsync/pkg/logger"
	"github.com/stratoview/cloudsync/pkg/provider/azure"
	"github.com/stratoview/cloudsync/pkg/syncer"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)

	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Init(cfg.LogLevel)

	db, err := database.Connect(cfg.DBURL)

	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if cfg.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	opts := azure.Options{
		RetryAttempts:  cfg.ProviderRetryAttempts,
		RetryBaseDelay: cfg.ProviderRetryBaseDelay,
		RatePerSecond:  cfg.ProviderRatePerSecond,
	}

	s := syncer.New(db, azure.NewProvider(opts), azure.NewGraphProvider(opts), cfg.EnrichmentConcurrency)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("shutting down")
		cancel()
	}()

	log.Info().Dur("interval", cfg.SyncInterval).Msg("starting sync worker")

	s.SyncAll(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sync worker stopped")
			return
		case <-time.After(cfg.SyncInterval):
			s.SyncAll(ctx)
		}
	}
}
