// Package testutil starts throwaway PostgreSQL and Redis containers for
// service level tests.
package testutil

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/Alturino/checkout/internal/infra"
	"github.com/Alturino/checkout/internal/money"
	"github.com/Alturino/checkout/internal/repository"
)

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// Migrations lists the up migrations in the order they must run.
func Migrations() []string {
	dir := migrationsDir()
	return []string{
		filepath.Join(dir, "20241118072912_create_table_products.up.sql"),
		filepath.Join(dir, "20241119141816_create_table_carts.up.sql"),
		filepath.Join(dir, "20241125115439_create_table_orders.up.sql"),
	}
}

// NewPostgres starts a migrated PostgreSQL container and returns a pool
// connected to it. Both are released when t finishes.
func NewPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	c := context.Background()

	pgContainer, err := postgres.Run(
		c,
		"postgres:16.6-alpine3.21",
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase("postgres"),
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(Migrations()...),
	)
	if err != nil {
		t.Fatalf("failed running postgres container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Errorf("failed terminating postgres container with error: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(c, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed getting postgres connection string with error: %s", err)
	}

	pgConfig, err := infra.NewPoolConfig(connStr, 20, 0)
	if err != nil {
		t.Fatalf("failed parsing pgx config with error: %s", err)
	}

	pool, err := pgxpool.NewWithConfig(c, pgConfig)
	if err != nil {
		t.Fatalf("failed creating postgres pool with error: %s", err)
	}
	t.Cleanup(pool.Close)

	if err = pool.Ping(c); err != nil {
		t.Fatalf("failed ping postgres pool with error: %s", err)
	}
	return pool
}

func NewRedis(t *testing.T) *redis.Client {
	t.Helper()
	c := context.Background()

	redisContainer, err := testRedis.Run(c, "redis:7.4.2-alpine3.21")
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Errorf("failed terminating redis container with error: %s", err)
		}
	})

	connStr, err := redisContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting redis connection string with error: %s", err)
	}

	opt, err := redis.ParseURL(connStr)
	if err != nil {
		t.Fatalf("failed parsing redis url with error: %s", err)
	}

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	if err = client.Ping(c).Err(); err != nil {
		t.Fatalf("failed ping redis with error: %s", err)
	}
	return client
}

const insertProduct = `INSERT INTO products (id, name, price, quantity, is_active) VALUES ($1, $2, $3, $4, $5)`

// SeedProduct inserts a product and returns its id.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, price string, stock int32, active bool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(
		context.Background(),
		insertProduct,
		id,
		"product-"+id.String()[:8],
		repository.NumericFromMoney(money.MustFromString(price)),
		stock,
		active,
	)
	if err != nil {
		t.Fatalf("failed seeding product with error: %s", err)
	}
	return id
}

// Stock reads the current stock of a product.
func Stock(t *testing.T, pool *pgxpool.Pool, productID uuid.UUID) int32 {
	t.Helper()
	var stock int32
	err := pool.QueryRow(context.Background(), `SELECT quantity FROM products WHERE id = $1`, productID).Scan(&stock)
	if err != nil {
		t.Fatalf("failed reading stock with error: %s", err)
	}
	return stock
}

func SetPrice(t *testing.T, pool *pgxpool.Pool, productID uuid.UUID, price string) {
	t.Helper()
	_, err := pool.Exec(
		context.Background(),
		`UPDATE products SET price = $2 WHERE id = $1`,
		productID,
		repository.NumericFromMoney(money.MustFromString(price)),
	)
	if err != nil {
		t.Fatalf("failed updating price with error: %s", err)
	}
}

func SetActive(t *testing.T, pool *pgxpool.Pool, productID uuid.UUID, active bool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `UPDATE products SET is_active = $2 WHERE id = $1`, productID, active)
	if err != nil {
		t.Fatalf("failed updating product with error: %s", err)
	}
}
