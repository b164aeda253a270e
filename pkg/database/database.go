package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"library-backend/pkg/config"
	"library-backend/pkg/models"
)

const maxConnectRetries = 10

// InitLibraryDB connects to postgres, retrying while the database container
// comes up, and migrates the full schema.
func InitLibraryDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	log.Info().
		Str("host", cfg.DBHost).
		Str("port", cfg.DBPort).
		Str("dbname", cfg.DBName).
		Msg("connecting to library database")

	var db *gorm.DB
	var err error
	for i := 0; i < maxConnectRetries; i++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			break
		}
		log.Warn().Err(err).Msgf("database connection attempt %d/%d failed", i+1, maxConnectRetries)
		if i < maxConnectRetries-1 {
			time.Sleep(5 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info().Msg("database connection established")
	return db, nil
}

// Migrate creates or updates the schema for all domain models.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(&models.User{}, &models.Category{}, &models.Book{}, &models.Loan{})
	if err != nil {
		return fmt.Errorf("database migration: %w", err)
	}
	return nil
}
