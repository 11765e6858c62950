package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/flood-monitor-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/flood-monitor-service/internal/adapter/kafka"
	"github.com/couchcryptid/flood-monitor-service/internal/pipeline"
	"github.com/couchcryptid/flood-monitor-service/internal/scheduler"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the daily scheduler, and the optional Kafka consumer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger, metrics := a.cfg, a.logger, a.metrics
	loc := cfg.Location

	c, err := a.buildComponents(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("close error", "error", err)
		}
	}()

	ingestor := pipeline.NewIngestor(c.store, c.classifier, c.notifier, c.cache, loc, metrics, logger)
	rollup := pipeline.NewRollup(c.store, c.store, c.notifier, cfg.Thresholds, loc, logger)
	sweeper := pipeline.NewSweeper(c.store, metrics, logger)
	status := pipeline.NewStatusReporter(c.store, c.classifier, c.cache, logger)

	rollupJob := scheduler.RollupJob(cfg.RollupAt, rollup, loc)
	sched := scheduler.New(clockwork.NewRealClock(), loc, metrics, logger,
		rollupJob,
		scheduler.CleanupJob(cfg.CleanupAt, sweeper, cfg.RetentionHorizon()),
	)
	if cfg.WarmupEnabled {
		sched.WithWarmup(rollupJob, cfg.WarmupDelay)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Ingester:   ingestor,
		Status:     status,
		Readings:   c.store,
		Summaries:  c.store,
		Classifier: c.classifier,
		Ready:      c,
		Location:   loc,
	}, logger)

	var wg sync.WaitGroup

	// Start HTTP server.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start daily jobs.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	// Start Kafka ingest.
	var reader *kafka.Reader
	if cfg.KafkaEnabled() {
		reader = kafka.NewReader(cfg, logger)
		consumer := pipeline.NewConsumer(reader, ingestor, logger, metrics, cfg.BatchSize)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil {
				logger.Error("consumer error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka disabled, readings accepted over HTTP only")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out waiting for background work")
	}

	logger.Info("shutdown complete")
	return nil
}
