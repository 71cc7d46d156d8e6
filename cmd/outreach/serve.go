package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	httptransport "github.com/example/outreach-tracker/internal/http"
)

const shutdownTimeout = 10 * time.Second

func (rt *runtime) handler() http.Handler {
	logger := rt.logger
	return httptransport.NewRouter(httptransport.RouterConfig{
		Companies:      httptransport.NewCompanyHandler(rt.services.Companies, rt.services.People, logger),
		People:         httptransport.NewPersonHandler(rt.services.People, rt.services.Attempts, logger),
		EmailAttempts:  httptransport.NewEmailAttemptHandler(rt.services.Attempts, logger),
		Analytics:      httptransport.NewAnalyticsHandler(rt.services.Analytics, logger),
		Logger:         logger,
		AllowedOrigins: rt.cfg.CORSAllowedOrigins,
	})
}

// serve runs the HTTP API on listener until ctx is cancelled, then drains
// in-flight requests and writes a final snapshot.
func (rt *runtime) serve(ctx context.Context, listener net.Listener) error {
	if rt.cfg.SeedFile != "" {
		if rt.empty(ctx) {
			if _, err := rt.applySeed(ctx, rt.cfg.SeedFile); err != nil {
				return err
			}
		} else {
			rt.logger.Info("store already populated, skipping seed", "path", rt.cfg.SeedFile)
		}
	}

	server := &http.Server{
		Handler:           rt.handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snapshotsDone := make(chan struct{})
	go func() {
		defer close(snapshotsDone)
		rt.runSnapshotLoop(ctx)
	}()

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	rt.logger.Info("outreach API listening", "addr", listener.Addr().String())
	err := server.Serve(listener)
	cancel()
	<-shutdownDone
	<-snapshotsDone
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	saveCtx, cancelSave := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelSave()
	return rt.saveSnapshot(saveCtx)
}

func (rt *runtime) runSnapshotLoop(ctx context.Context) {
	if rt.snapshots == nil || rt.cfg.SnapshotInterval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(rt.cfg.SnapshotInterval)
	defer ticker.Stop()

	var saved uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			revision := rt.store.Revision()
			if revision == saved {
				continue
			}
			if err := rt.saveSnapshot(ctx); err != nil {
				rt.logger.Error("periodic snapshot failed", "error", err)
				continue
			}
			saved = revision
		}
	}
}
