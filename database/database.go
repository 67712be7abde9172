package database

import (
	"fmt"
	"time"

	"github.com/ClipsonBusiness/tracking-system-sub001/config"
	"github.com/ClipsonBusiness/tracking-system-sub001/model"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const connectRetries = 5

// Connect opens the Postgres connection and runs automigration. The unique
// indexes created here (link slug, clipper dashboard code, conversion
// invoice id) are what the allocator and webhook ingestion rely on.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode)

	var db *gorm.DB
	var err error
	for i := 0; i < connectRetries; i++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
			// Unique-constraint violations must surface as
			// gorm.ErrDuplicatedKey so the allocator can retry on them.
			TranslateError: true,
		})
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Int("max", connectRetries).Msg("Failed to connect to database, retrying")
		time.Sleep(3 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Client{},
		&model.Campaign{},
		&model.Clipper{},
		&model.Link{},
		&model.Click{},
		&model.Conversion{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("db", cfg.Name).Msg("Connected to database")
	return db, nil
}
