package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/flood-monitor-service/internal/adapter/kafka"
	"github.com/couchcryptid/flood-monitor-service/internal/adapter/predictor"
	"github.com/couchcryptid/flood-monitor-service/internal/adapter/statuscache"
	"github.com/couchcryptid/flood-monitor-service/internal/adapter/store"
	"github.com/couchcryptid/flood-monitor-service/internal/adapter/telegram"
	"github.com/couchcryptid/flood-monitor-service/internal/domain"
	"github.com/couchcryptid/flood-monitor-service/internal/notify"
	"github.com/couchcryptid/flood-monitor-service/internal/pipeline"
)

// components are the long-lived collaborators shared by the commands.
type components struct {
	store      *store.Store
	classifier *pipeline.RiskClassifier
	notifier   pipeline.Notifier
	cache      pipeline.StatusCache
	redis      *statuscache.Redis

	closers []func() error
}

// openStore opens the configured store. Commands that only touch the database
// use it directly.
func (a *app) openStore() (*store.Store, error) {
	s, err := store.Open(a.cfg.DBDriver, a.cfg.DBDSN, a.cfg.Location, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

// buildComponents opens the store and assembles the classifier, the alert
// sinks, and the status cache from the configuration.
func (a *app) buildComponents(ctx context.Context) (*components, error) {
	cfg, logger := a.cfg, a.logger

	s, err := a.openStore()
	if err != nil {
		return nil, err
	}
	c := &components{store: s, closers: []func() error{s.Close}}

	// Left as a nil interface when disabled so classification goes straight
	// to the threshold rule.
	var pred domain.Predictor
	if cfg.PredictorURL != "" {
		client := predictor.NewClient(cfg.PredictorURL, cfg.PredictorTimeout, a.metrics, logger)
		pred = predictor.NewCachedPredictor(client, cfg.PredictorCacheSize, cfg.PredictorCacheTTL, a.metrics)
		logger.Info("remote classifier enabled", "url", cfg.PredictorURL, "cache_size", cfg.PredictorCacheSize, "cache_ttl", cfg.PredictorCacheTTL)
	} else {
		logger.Info("remote classifier disabled, using threshold rule only")
	}
	c.classifier = pipeline.NewRiskClassifier(pred, cfg.Thresholds, cfg.PredictorTimeout, a.metrics, logger)

	var sinks []notify.Sink
	if cfg.TelegramEnabled {
		sinks = append(sinks, telegram.NewClient(cfg.TelegramToken, cfg.TelegramChatID, cfg.NotifyTimeout, cfg.Location, logger))
	}
	if cfg.KafkaEnabled() {
		w := kafka.NewWriter(cfg, logger)
		sinks = append(sinks, w)
		c.closers = append(c.closers, w.Close)
	}
	if len(sinks) > 0 {
		c.notifier = notify.NewFanout(sinks, cfg.NotifyTimeout, a.metrics, logger)
		logger.Info("alert sinks configured", "count", len(sinks))
	} else {
		logger.Warn("no alert sinks configured, alerts will only be logged")
	}

	if cfg.RedisAddr != "" {
		r, err := statuscache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.StatusCacheTTL)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("connect status cache: %w", err), c.Close())
		}
		c.cache = r
		c.redis = r
		c.closers = append(c.closers, r.Close)
	} else {
		c.cache = statuscache.NewMemory(cfg.StatusCacheTTL)
	}

	return c, nil
}

// CheckReadiness reports the store and, when configured, Redis.
func (c *components) CheckReadiness(ctx context.Context) error {
	if err := c.store.CheckReadiness(ctx); err != nil {
		return err
	}
	if c.redis != nil {
		return c.redis.CheckReadiness(ctx)
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (c *components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}
