package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/passlink/internal/adapter/driven/memory"
	"github.com/ericfisherdev/passlink/internal/adapter/driven/redis"
	sqliteadapter "github.com/ericfisherdev/passlink/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/passlink/internal/config"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// openStore opens the configured cache backend. The returned close func is
// never nil.
func openStore(ctx context.Context, cfg config.StoreConfig) (driven.Cache, func(), error) {
	switch cfg.Backend {
	case config.BackendRedis:
		cache, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("redis store connected")
		return cache, func() {
			if err := cache.Close(); err != nil {
				slog.Error("error closing redis", "error", err)
			}
		}, nil

	case config.BackendSQLite:
		db, err := sqliteadapter.NewDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				slog.Error("error closing database", "error", err)
			}
		}
		if _, err := sqliteadapter.Migrate(db); err != nil {
			closeDB()
			return nil, nil, err
		}
		slog.Info("sqlite store opened", "path", db.Path())

		cache := sqliteadapter.NewCache(db)
		if cfg.SweepInterval > 0 {
			go cache.StartSweeper(ctx, cfg.SweepInterval)
		}
		return cache, closeDB, nil

	case config.BackendMemory:
		slog.Warn("using in-memory store, links and polls are lost on restart")
		return memory.NewCache(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
