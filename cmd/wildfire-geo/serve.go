package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/wildfire-geo-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/wildfire-geo-service/internal/pipeline"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic wildfire refresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	checkers := []sharedobs.ReadinessChecker{a.store}
	var scheduler *pipeline.Scheduler
	if a.cfg.RefreshEnabled {
		scheduler = pipeline.NewScheduler(a.refresher, a.clock, a.cfg.RefreshInterval, logger, a.metrics)
		checkers = append(checkers, scheduler)
	} else {
		logger.Info("wildfire refresh scheduler disabled")
	}

	srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.resolver, a.refresher, httpadapter.AllReady(checkers...), logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh scheduler.
	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		if scheduler == nil {
			return
		}
		if err := scheduler.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		logger.Warn("scheduler did not stop before shutdown timeout")
	}

	logger.Info("shutdown complete")
	return nil
}
