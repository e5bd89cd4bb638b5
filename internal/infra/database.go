package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	pgxuuid "github.com/vgarvardt/pgx-google-uuid/v5"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Alturino/checkout/internal/config"
	"github.com/Alturino/checkout/internal/constants"
)

// NewPoolConfig parses url and wires tracing plus google/uuid support.
func NewPoolConfig(url string, maxConns, minConns int32) (*pgxpool.Config, error) {
	pgxConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed parsing pgx config with error=%w", err)
	}
	pgxConfig.ConnConfig.Tracer = otelpgx.NewTracer(
		otelpgx.WithAttributes(semconv.DBSystemPostgreSQL),
	)
	pgxConfig.AfterConnect = func(c context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}
	if maxConns > 0 {
		pgxConfig.MaxConns = maxConns
	}
	if minConns > 0 {
		pgxConfig.MinConns = minConns
	}
	pgxConfig.MaxConnLifetime = 15 * time.Minute
	pgxConfig.MaxConnIdleTime = 5 * time.Minute
	return pgxConfig, nil
}

func NewDatabaseClient(c context.Context, dbConfig config.Database) *pgxpool.Pool {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KeyTag, "main NewDatabaseClient").
		Str(constants.KeyProcess, "connecting to database").
		Logger()

	logger.Info().Msg("connecting to database")

	logger = logger.With().Str(constants.KeyProcess, "initializing pgx config").Logger()
	logger.Info().Msg("initializing pgx config")
	pgxConfig, err := NewPoolConfig(dbConfig.URL(), dbConfig.MaxConnections, dbConfig.MinConnections)
	if err != nil {
		err = fmt.Errorf("failed creating pgx config with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("initialized pgx config")

	logger = logger.With().Str(constants.KeyProcess, "creating connection pool").Logger()
	logger.Info().Msg("creating connection pool")
	pool, err := pgxpool.NewWithConfig(c, pgxConfig)
	if err != nil {
		err = fmt.Errorf("failed creating connection pool with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("created connection pool")

	logger = logger.With().Str(constants.KeyProcess, "ping db").Logger()
	logger.Info().Msg("ping db")
	if err = pool.Ping(c); err != nil {
		err = fmt.Errorf("failed ping db with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().Msg("successed ping db")

	if dbConfig.AutoMigrate {
		logger = logger.With().Str(constants.KeyProcess, "migrating database").Logger()
		logger.Info().Msg("migrating database")
		c = logger.WithContext(c)
		if err = Migrate(c, dbConfig, MigrateUp); err != nil {
			err = fmt.Errorf("failed migrating database with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		logger.Info().Msg("migrated database")
	}

	logger.Info().
		Str(constants.KeyProcess, "connecting to database").
		Msg("successed connecting to database")

	return pool
}
