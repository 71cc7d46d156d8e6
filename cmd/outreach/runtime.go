package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/example/outreach-tracker/internal/adapters"
	"github.com/example/outreach-tracker/internal/application"
	"github.com/example/outreach-tracker/internal/cache"
	"github.com/example/outreach-tracker/internal/config"
	"github.com/example/outreach-tracker/internal/logging"
	"github.com/example/outreach-tracker/internal/persistence/memory"
	"github.com/example/outreach-tracker/internal/persistence/sqlite"
	"github.com/example/outreach-tracker/internal/seed"
)

const localCacheEntries = 64

type runtimeOptions struct {
	ConfigFile string
	EnvFile    string
	LogOutput  io.Writer
}

// runtime owns the store, services and optional backends shared by every command.
type runtime struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *memory.Storage
	services  adapters.Services
	snapshots *sqlite.SnapshotStore
	closers   []func() error
}

func newRuntime(ctx context.Context, v *viper.Viper, opts runtimeOptions) (*runtime, error) {
	if err := config.LoadDotEnv(opts.EnvFile); err != nil {
		return nil, err
	}
	if err := config.ReadConfigFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(opts.LogOutput, level)

	rt := &runtime{cfg: cfg, logger: logger, store: memory.New()}
	rt.closers = append(rt.closers, rt.store.Close)

	rt.services = adapters.NewServices(rt.store, adapters.Options{
		IDGenerator: uuid.NewString,
		Now:         time.Now,
		Logger:      logger,
		MaxAttempts: cfg.MaxAttempts,
		PageSize:    cfg.PageSize,
		Cache:       rt.summaryCache(ctx),
	})

	if cfg.SnapshotPath != "" {
		if err := rt.restoreSnapshot(ctx); err != nil {
			_ = rt.Close()
			return nil, err
		}
	}

	return rt, nil
}

func (rt *runtime) summaryCache(ctx context.Context) application.SummaryCache {
	if rt.cfg.RedisAddr != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		remote, err := cache.Dial(dialCtx, rt.cfg.RedisAddr, cache.DefaultKeyPrefix, rt.cfg.CacheTTL)
		if err == nil {
			rt.closers = append(rt.closers, remote.Close)
			rt.logger.Info("analytics cache connected", "backend", "redis", "addr", rt.cfg.RedisAddr)
			return remote
		}
		rt.logger.Warn("redis unavailable, using in-process analytics cache", "addr", rt.cfg.RedisAddr, "error", err)
	}
	return cache.NewLocal(rt.cfg.CacheTTL, localCacheEntries, time.Now)
}

func (rt *runtime) restoreSnapshot(ctx context.Context) error {
	store, err := sqlite.Open(ctx, rt.cfg.SnapshotPath)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	rt.snapshots = store
	rt.closers = append(rt.closers, store.Close)

	snapshot, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	rt.store.ImportSnapshot(ctx, snapshot)
	rt.logger.Info("snapshot restored",
		"path", rt.cfg.SnapshotPath,
		"companies", len(snapshot.Companies),
		"people", len(snapshot.People),
		"email_attempts", len(snapshot.EmailAttempts),
	)
	return nil
}

// saveSnapshot writes the current store contents when a snapshot path is configured.
func (rt *runtime) saveSnapshot(ctx context.Context) error {
	if rt.snapshots == nil {
		return nil
	}
	snapshot := rt.store.ExportSnapshot(ctx)
	if err := rt.snapshots.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	rt.logger.Debug("snapshot saved", "companies", len(snapshot.Companies), "revision", rt.store.Revision())
	return nil
}

func (rt *runtime) empty(ctx context.Context) bool {
	return len(rt.store.ExportSnapshot(ctx).Companies) == 0
}

func (rt *runtime) applySeed(ctx context.Context, path string) (seed.Result, error) {
	file, err := seed.LoadFile(path)
	if err != nil {
		return seed.Result{}, fmt.Errorf("load seed file: %w", err)
	}
	result, err := seed.Apply(ctx, file, seed.Services{
		Companies: rt.services.Companies,
		People:    rt.services.People,
		Attempts:  rt.services.Attempts,
	})
	rt.logger.Info("seed applied",
		"path", path,
		"companies", result.Companies,
		"people", result.People,
		"email_attempts", result.EmailAttempts,
	)
	return result, err
}

// Close releases backends in reverse order of acquisition.
func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
