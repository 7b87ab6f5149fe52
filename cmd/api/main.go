package main

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/stratoview/cloudsync/pkg/api"
	"github.com/stratoview/cloudsync/pkg/config"
	"github.com/stratoview/cloudsync/pkg/database"
	"github.com/stratoview/cloudsync/pkg/logger"
	"github.com/stratoview/cloudsync/pkg/metrics"
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

	metrics.Register(prometheus.DefaultRegisterer)

	opts := azure.Options{
		RetryAttempts:  cfg.ProviderRetryAttempts,
		RetryBaseDelay: cfg.ProviderRetryBaseDelay,
		RatePerSecond:  cfg.ProviderRatePerSecond,
	}

	s := syncer.New(db, azure.NewProvider(opts), azure.NewGraphProvider(opts), cfg.EnrichmentConcurrency)

	app := fiber.New()

	server := api.NewServer(db, s)
	server.SetupRoutes(app)

	log.Info().Str("port", cfg.ServerPort).Msg("starting API server")

	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
