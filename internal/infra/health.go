package infra

import (
	"fmt"
	"time"

	"github.com/hellofresh/health-go/v5"
	healthPostgres "github.com/hellofresh/health-go/v5/checks/postgres"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"

	"github.com/Alturino/checkout/internal/config"
)

const version = "1.0.0"

// NewHealth checks the database, and the cache when one is configured.
func NewHealth(appName string, cfg *config.Config) (*health.Health, error) {
	checks := []health.Config{
		{
			Name:    "database",
			Timeout: 3 * time.Second,
			Check:   healthPostgres.New(healthPostgres.Config{DSN: cfg.Database.URL()}),
		},
	}
	if cfg.Cache.Host != "" {
		checks = append(checks, health.Config{
			Name:    "cache",
			Timeout: 2 * time.Second,
			Check:   healthRedis.New(healthRedis.Config{DSN: cfg.Cache.URL()}),
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{Name: appName, Version: version}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating health checker with error=%w", err)
	}
	return h, nil
}
