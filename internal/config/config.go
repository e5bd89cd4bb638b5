package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/Alturino/checkout/internal/constants"
)

type Application struct {
	Env       string `mapstructure:"env"        json:"env"`
	Host      string `mapstructure:"host"       json:"host"`
	SecretKey string `mapstructure:"secret_key" json:"-"`
	Port      int    `mapstructure:"port"       json:"port"`
}

type Database struct {
	Name           string `mapstructure:"name"            json:"name"`
	Host           string `mapstructure:"host"            json:"host"`
	MigrationPath  string `mapstructure:"migration_path"  json:"migration_path"`
	Password       string `mapstructure:"password"        json:"-"`
	TimeZone       string `mapstructure:"timezone"        json:"timezone"`
	Username       string `mapstructure:"username"        json:"username"`
	MaxConnections int32  `mapstructure:"max_connections" json:"max_connections"`
	MinConnections int32  `mapstructure:"min_connections" json:"min_connections"`
	Port           uint16 `mapstructure:"port"            json:"port"`
	AutoMigrate    bool   `mapstructure:"auto_migrate"    json:"auto_migrate"`
}

func (d Database) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.Username, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", "disable")
	if d.TimeZone != "" {
		q.Set("timezone", d.TimeZone)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type Cache struct {
	Host     string `mapstructure:"host"     json:"host"`
	Password string `mapstructure:"password" json:"-"`
	Database int    `mapstructure:"database" json:"database"`
	Port     uint16 `mapstructure:"port"     json:"port"`
}

func (c Cache) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Cache) URL() string {
	u := url.URL{
		Scheme: "redis",
		Host:   c.Addr(),
		Path:   fmt.Sprintf("%d", c.Database),
	}
	if c.Password != "" {
		u.User = url.UserPassword("", c.Password)
	}
	return u.String()
}

type Otel struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`
}

func (o Otel) Endpoint() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

// Order tunes the order service. IdempotencyClaimTTL bounds how long an
// in flight idempotency key blocks retries; IdempotencyTTL is how long a
// settled key keeps replaying its order. RestockOnCancel returns reserved
// units to stock when a customer cancels.
type Order struct {
	IdempotencyClaimTTL time.Duration `mapstructure:"idempotency_claim_ttl" json:"idempotency_claim_ttl"`
	IdempotencyTTL      time.Duration `mapstructure:"idempotency_ttl"       json:"idempotency_ttl"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"             json:"cache_ttl"`
	RestockOnCancel     bool          `mapstructure:"restock_on_cancel"     json:"restock_on_cancel"`
	HistoryDefaultLimit int           `mapstructure:"history_default_limit" json:"history_default_limit"`
	HistoryMaxLimit     int           `mapstructure:"history_max_limit"     json:"history_max_limit"`
}

type Cart struct {
	OrderServiceURL string        `mapstructure:"order_service_url" json:"order_service_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   json:"request_timeout"`
	ClearOnCheckout bool          `mapstructure:"clear_on_checkout" json:"clear_on_checkout"`
}

type Config struct {
	Database    `mapstructure:"db"          json:"db"`
	Cache       `mapstructure:"cache"       json:"cache"`
	Application `mapstructure:"application" json:"application"`
	Otel        `mapstructure:"otel"        json:"otel"`
	Order       `mapstructure:"order"       json:"order"`
	Cart        `mapstructure:"cart"        json:"cart"`
}

var (
	once   sync.Once
	config *Config
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.env", "development")
	v.SetDefault("application.host", "0.0.0.0")
	v.SetDefault("application.port", 8080)
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.migration_path", "file://migrations")
	v.SetDefault("db.max_connections", 20)
	v.SetDefault("db.min_connections", 2)
	v.SetDefault("db.auto_migrate", false)
	v.SetDefault("cache.port", 6379)
	v.SetDefault("cache.database", 0)
	v.SetDefault("otel.host", "otel-collector")
	v.SetDefault("otel.port", 4317)
	v.SetDefault("order.idempotency_claim_ttl", time.Minute)
	v.SetDefault("order.idempotency_ttl", 24*time.Hour)
	v.SetDefault("order.cache_ttl", 10*time.Minute)
	v.SetDefault("order.restock_on_cancel", false)
	v.SetDefault("order.history_default_limit", 20)
	v.SetDefault("order.history_max_limit", 100)
	v.SetDefault("cart.order_service_url", "http://order-service:8080")
	v.SetDefault("cart.request_timeout", 10*time.Second)
	v.SetDefault("cart.clear_on_checkout", false)
}

// Load reads <filename>.yaml from paths, falling back to ./env, and lets
// environment variables override any key (db.host -> DB_HOST).
func Load(filename string, paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./env"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed reading config=%s with error=%w", filename, err)
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed unmarshaling config=%s with error=%w", filename, err)
	}
	return &cfg, nil
}

func InitConfig(c context.Context, filename string) *Config {
	once.Do(func() {
		logger := zerolog.Ctx(c).
			With().
			Str(constants.KeyTag, "main InitConfig").
			Str(constants.KeyProcess, "init config").
			Str("filename", filename).
			Logger()

		logger = logger.With().Str(constants.KeyProcess, "loading config").Logger()
		logger.Info().Msg("loading config")
		cfg, err := Load(filename)
		if err != nil {
			err = fmt.Errorf("failed loading config with error=%w", err)
			logger.Fatal().Err(err).Msg(err.Error())
		}
		config = cfg
		logger = logger.With().Any(constants.KeyConfig, cfg).Logger()
		logger.Info().Msg("loaded config")
	})
	return config
}
