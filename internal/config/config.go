package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendPersistent = "persistent"
	BackendMemory     = "memory"
)

type Config struct {
	ServiceName     string        `mapstructure:"SERVICE_NAME"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	LogPretty       bool          `mapstructure:"LOG_PRETTY"`
	HTTPPort        string        `mapstructure:"HTTP_PORT"`
	GRPCPort        string        `mapstructure:"GRPC_PORT"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	StorageBackend  string        `mapstructure:"STORAGE_BACKEND"`

	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	DBHost               string `mapstructure:"DB_HOST"`
	DBPort               int    `mapstructure:"DB_PORT"`
	DBUser               string `mapstructure:"DB_USER"`
	DBPassword           string `mapstructure:"DB_PASSWORD"`
	DBName               string `mapstructure:"DB_NAME"`
	LedgerMigrationsPath string `mapstructure:"LEDGER_MIGRATIONS_PATH"`

	CatalogDBPath         string `mapstructure:"CATALOG_DB_PATH"`
	CatalogMigrationsPath string `mapstructure:"CATALOG_MIGRATIONS_PATH"`

	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	EventBuffer  int      `mapstructure:"EVENT_BUFFER"`

	BreakerFailures    uint32        `mapstructure:"CATALOG_BREAKER_FAILURES"`
	BreakerOpenTimeout time.Duration `mapstructure:"CATALOG_BREAKER_OPEN_TIMEOUT"`
}

var defaults = map[string]any{
	"SERVICE_NAME":                 "marketplace",
	"LOG_LEVEL":                    "info",
	"LOG_PRETTY":                   false,
	"HTTP_PORT":                    "8080",
	"GRPC_PORT":                    "50052",
	"REQUEST_TIMEOUT":              30 * time.Second,
	"SHUTDOWN_TIMEOUT":             10 * time.Second,
	"STORAGE_BACKEND":              BackendPersistent,
	"MONGO_URI":                    "mongodb://localhost:27017",
	"MONGO_DB_NAME":                "cartdb",
	"REDIS_ADDR":                   "localhost:6379",
	"REDIS_PASSWORD":               "",
	"DB_HOST":                      "localhost",
	"DB_PORT":                      5432,
	"DB_USER":                      "postgres",
	"DB_PASSWORD":                  "postgres",
	"DB_NAME":                      "marketplace",
	"LEDGER_MIGRATIONS_PATH":       "internal/repository/migrations/ledger",
	"CATALOG_DB_PATH":              "catalog.db",
	"CATALOG_MIGRATIONS_PATH":      "internal/repository/migrations/catalog",
	"KAFKA_BROKERS":                []string{},
	"EVENT_BUFFER":                 256,
	"CATALOG_BREAKER_FAILURES":     5,
	"CATALOG_BREAKER_OPEN_TIMEOUT": 30 * time.Second,
}

// Load reads defaults, then the optional file, then the environment.
// A missing file is not an error when path is empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.KafkaBrokers = splitBrokers(cfg.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendPersistent, BackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT is required")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// splitBrokers accepts both a list and a single comma separated env value.
func splitBrokers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, b := range strings.Split(item, ",") {
			if b = strings.TrimSpace(b); b != "" {
				out = append(out, b)
			}
		}
	}
	return out
}
