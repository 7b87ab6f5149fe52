package database

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stratoview/cloudsync/pkg/models"
)

func Connect(dbURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dbURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info().Msg("database connected")

	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	log.Info().Msg("running auto migration")

	err := db.AutoMigrate(
		&models.Customer{},
		&models.Subscription{},
		&models.AzureResource{},
		&models.VMDetail{},
		&models.M365User{},
		&models.M365License{},
		&models.M365Device{},
		&models.APIKey{},
	)

	if err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}

	return nil
}
