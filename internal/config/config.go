// Package config loads cachectl settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"simple-cache/internal/logger"
)

const (
	LogLoadingConfig    = "loading cache configuration"
	LogConfigLoaded     = "configuration loaded successfully"
	ErrFailedLoadConfig = "failed to load configuration"
	ErrFailedLoadDotenv = "failed to load env file"
)

// Driver names accepted in CACHE_DRIVER.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverRedis  = "redis"
)

var ErrUnknownDriver = errors.New("unknown cache driver")

// Config is the full cachectl configuration.
type Config struct {
	Driver     string `env:"CACHE_DRIVER" env-default:"sqlite"`
	DefaultTTL int    `env:"CACHE_DEFAULT_TTL" env-default:"900"`

	SQLite  SQLiteConfig
	Bolt    BoltConfig
	Redis   RedisConfig
	Logging LoggingConfig
}

// SQLiteConfig configures the relational driver.
type SQLiteConfig struct {
	Path  string `env:"CACHE_SQLITE_PATH" env-default:"cache.db"`
	Table string `env:"CACHE_TABLE" env-default:"cache"`
	Debug bool   `env:"CACHE_SQLITE_DEBUG" env-default:"false"`
}

// BoltConfig configures the Bolt driver.
type BoltConfig struct {
	Path   string `env:"CACHE_BOLT_PATH" env-default:"cache.bolt"`
	Bucket string `env:"CACHE_BOLT_BUCKET" env-default:"cache"`
}

// RedisConfig configures the Redis driver.
type RedisConfig struct {
	Host     string        `env:"CACHE_REDIS_HOST" env-default:"localhost"`
	Port     int           `env:"CACHE_REDIS_PORT" env-default:"6379"`
	Password string        `env:"CACHE_REDIS_PASSWORD" env-default:""`
	DB       int           `env:"CACHE_REDIS_DB" env-default:"0"`
	Prefix   string        `env:"CACHE_REDIS_PREFIX" env-default:"cache:"`
	Timeout  time.Duration `env:"CACHE_REDIS_TIMEOUT" env-default:"5s"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level string `env:"CACHE_LOG_LEVEL" env-default:"warn"`
	Mode  string `env:"CACHE_LOG_MODE" env-default:"production"`
}

// GetAddress returns host:port.
func (c *RedisConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetEnvironment returns the logger preset for Mode.
func (c *LoggingConfig) GetEnvironment() logger.Environment {
	if c.Mode == string(logger.Development) {
		return logger.Development
	}
	return logger.Production
}

// Validate checks values cleanenv cannot.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverMemory, DriverSQLite, DriverBolt, DriverRedis:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Driver)
}

// Load reads envPath into the process environment if the file exists, then
// fills Config from the environment. Variables already set win over the file.
func Load(ctx context.Context, envPath string) (*Config, error) {
	log := logger.Log(ctx)
	log.Info(ctx, LogLoadingConfig, zap.String("path", envPath))

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Error(ctx, ErrFailedLoadDotenv, zap.String("path", envPath), zap.Error(err))
			return nil, fmt.Errorf("%s: %w", ErrFailedLoadDotenv, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Error(ctx, ErrFailedLoadConfig, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		log.Error(ctx, ErrFailedLoadConfig, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	log.Info(ctx, LogConfigLoaded,
		zap.String("driver", cfg.Driver),
		zap.Int("default_ttl", cfg.DefaultTTL),
		zap.String("log_level", cfg.Logging.Level))

	return &cfg, nil
}
