package infra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/Alturino/checkout/internal/config"
	"github.com/Alturino/checkout/internal/constants"
)

type MigrateDirection string

const (
	MigrateUp   MigrateDirection = "up"
	MigrateDown MigrateDirection = "down"
)

// Migrate applies every migration under dbConfig.MigrationPath in direction.
// A database already at the target version is not an error.
func Migrate(c context.Context, dbConfig config.Database, direction MigrateDirection) error {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "infra Migrate").
		Str(constants.KeyMigrationDirection, string(direction)).
		Logger()

	logger = logger.With().Str(constants.KeyProcess, "opening sql.DB").Logger()
	logger.Info().Msg("opening sql.DB")
	db, err := sql.Open("postgres", dbConfig.URL())
	if err != nil {
		return fmt.Errorf("failed opening sql.DB with error=%w", err)
	}
	defer db.Close()
	logger.Info().Msg("opened sql.DB")

	logger = logger.With().Str(constants.KeyProcess, "initializing db driver").Logger()
	logger.Info().Msg("initializing db driver")
	driver, err := postgres.WithInstance(db, &postgres.Config{DatabaseName: dbConfig.Name})
	if err != nil {
		return fmt.Errorf("failed creating postgres driver with error=%w", err)
	}
	logger.Info().Msg("initialized db driver")

	logger = logger.With().Str(constants.KeyProcess, "initializing migration").Logger()
	logger.Info().Msg("initializing migration")
	migration, err := migrate.NewWithDatabaseInstance(dbConfig.MigrationPath, dbConfig.Name, driver)
	if err != nil {
		return fmt.Errorf("failed initializing migration with error=%w", err)
	}
	logger.Info().Msg("initialized migration")

	logger = logger.With().Str(constants.KeyProcess, "migration "+string(direction)).Logger()
	logger.Info().Msg("migration " + string(direction))
	switch direction {
	case MigrateDown:
		err = migration.Down()
	default:
		err = migration.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed migration %s with error=%w", direction, err)
	}
	logger.Info().Msg("successed migration " + string(direction))

	return nil
}
