package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"simple-cache/internal/cache"
	"simple-cache/internal/cache/boltdriver"
	"simple-cache/internal/cache/gormdriver"
	"simple-cache/internal/cache/redisdriver"
	"simple-cache/internal/clock"
	"simple-cache/internal/config"
	"simple-cache/internal/database"
	"simple-cache/internal/logger"
)

type globalOptions struct {
	envFile    string
	driver     string
	defaultTTL int
	// defaultTTLSet is true when --default-ttl was given, whatever its value.
	defaultTTLSet bool
	clock         clock.Clock
}

// session is an open cache plus whatever must be released afterwards.
type session struct {
	cache   *cache.Cache[string]
	closers []func() error
}

func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	_ = logger.Log(context.Background()).Sync()
	return errors.Join(errs...)
}

func open(ctx context.Context, opts *globalOptions) (*session, error) {
	cfg, err := config.Load(ctx, opts.envFile)
	if err != nil {
		return nil, err
	}
	if opts.driver != "" {
		cfg.Driver = opts.driver
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.defaultTTLSet {
		cfg.DefaultTTL = opts.defaultTTL
	}

	log, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logger.SetGlobalLogger(log)

	s := &session{}
	driver, err := openDriver(ctx, cfg, opts.clock, s)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	driver.SetDefaultTTL(cfg.DefaultTTL)
	s.cache = cache.New(driver)

	logger.Log(ctx).Debug(ctx, "cache opened",
		zap.String("driver", driver.Name()),
		zap.Int("default_ttl", driver.DefaultTTL()))
	return s, nil
}

func openDriver(ctx context.Context, cfg *config.Config, clk clock.Clock, s *session) (cache.Driver[string], error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return cache.NewMemoryDriver[string](cache.Options{Clock: clk}), nil

	case config.DriverSQLite:
		db, err := database.Open(cfg.SQLite.Path, cfg.SQLite.Debug)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLite.Path, err)
		}
		s.closers = append(s.closers, func() error { return database.Close(db) })
		if err := database.EnsureCacheTable(db, cfg.SQLite.Table); err != nil {
			return nil, fmt.Errorf("prepare table %s: %w", cfg.SQLite.Table, err)
		}
		return gormdriver.New[string](db, gormdriver.Options{Table: cfg.SQLite.Table, Clock: clk}), nil

	case config.DriverBolt:
		d, err := boltdriver.Open[string](cfg.Bolt.Path, boltdriver.Options{Bucket: cfg.Bolt.Bucket, Clock: clk})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, d.Close)
		return d, nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.GetAddress(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.Timeout,
			ReadTimeout:  cfg.Redis.Timeout,
			WriteTimeout: cfg.Redis.Timeout,
		})
		s.closers = append(s.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisdriver.New[string](client, redisdriver.Options{Prefix: cfg.Redis.Prefix, Clock: clk}), nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Driver)
}
