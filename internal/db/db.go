package db

import (
	"time"

	"agora/internal/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the postgres connection, migrates the schema and seeds the default places.
func Init(dsn string) *gorm.DB {
	conn, err := Open(postgres.Open(dsn))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Msg("Database connection established")

	if err := Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}
	log.Info().Msg("Database migration completed")

	if err := SeedPlaces(conn); err != nil {
		log.Error().Err(err).Msg("Failed to seed places")
	}

	return conn
}

// Open connects through the given dialector with SQL logging routed to zerolog.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(&log.Logger, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	return conn, nil
}

func Migrate(conn *gorm.DB) error {
	return errors.Wrap(conn.AutoMigrate(
		&models.User{},
		&models.Place{},
		&models.Post{},
		&models.Vote{},
		&models.Subscription{},
	), "auto migrate")
}

// DefaultPlaces are created on first start and every new user is subscribed to them.
var DefaultPlaces = []models.Place{
	{Name: "General", Slug: "general", Description: "Anything that fits nowhere else", IsDefault: true},
	{Name: "Technology", Slug: "technology", Description: "Software, hardware and the web", IsDefault: true},
	{Name: "Show", Slug: "show", Description: "Things you made"},
	{Name: "Meta", Slug: "meta", Description: "Discussion about this site"},
}

func SeedPlaces(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&models.Place{}).Count(&count).Error; err != nil {
		return errors.Wrap(err, "count places")
	}
	if count > 0 {
		log.Debug().Msg("Places already seeded, skipping")
		return nil
	}

	for _, place := range DefaultPlaces {
		place := place
		if err := conn.Create(&place).Error; err != nil {
			log.Error().Err(err).Str("place", place.Slug).Msg("Failed to create place")
		}
	}
	log.Info().Msg("Initial places created successfully")
	return nil
}
