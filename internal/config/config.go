package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/flood-monitor-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Civil time and risk rules.
	Location      *time.Location
	Thresholds    domain.Thresholds
	RetentionDays int

	// Scheduler triggers, in Location.
	RollupAt      domain.TimeOfDay
	CleanupAt     domain.TimeOfDay
	WarmupEnabled bool
	WarmupDelay   time.Duration

	// Remote classifier. An empty URL disables it (threshold fallback only).
	PredictorURL       string
	PredictorTimeout   time.Duration
	PredictorCacheSize int
	PredictorCacheTTL  time.Duration

	// Telegram notification sink.
	TelegramToken   string
	TelegramChatID  string
	TelegramEnabled bool
	NotifyTimeout   time.Duration

	// Persistent store.
	DBDriver string
	DBDSN    string

	// Current-status cache. An empty address selects the in-memory cache.
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	StatusCacheTTL time.Duration

	// Kafka ingest and alert topics. No brokers disables Kafka.
	KafkaBrokers       []string
	KafkaReadingsTopic string
	KafkaAlertsTopic   string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(sharedcfg.EnvOrDefault("TIMEZONE", "Asia/Jakarta"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	thresholds, err := parseThresholds()
	if err != nil {
		return nil, err
	}

	retentionDays, err := parsePositiveInt("RETENTION_DAYS", "30")
	if err != nil {
		return nil, err
	}
	// The sweeper must never reach the day the rollup is about to read.
	if retentionDays < 2 {
		return nil, errors.New("RETENTION_DAYS must be at least 2")
	}

	rollupAt, err := domain.ParseTimeOfDay(sharedcfg.EnvOrDefault("ROLLUP_AT", "00:05"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROLLUP_AT: %w", err)
	}
	cleanupAt, err := domain.ParseTimeOfDay(sharedcfg.EnvOrDefault("CLEANUP_AT", "01:00"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLEANUP_AT: %w", err)
	}

	warmupDelay, err := parseDuration("WARMUP_DELAY", "3s", true)
	if err != nil {
		return nil, err
	}
	predictorTimeout, err := parseDuration("PREDICTOR_TIMEOUT", "5s", false)
	if err != nil {
		return nil, err
	}
	notifyTimeout, err := parseDuration("NOTIFY_TIMEOUT", "10s", false)
	if err != nil {
		return nil, err
	}
	statusTTL, err := parseDuration("STATUS_CACHE_TTL", "15m", false)
	if err != nil {
		return nil, err
	}
	predictorCacheTTL, err := parseDuration("PREDICTOR_CACHE_TTL", "10m", true)
	if err != nil {
		return nil, err
	}

	predictorCacheSize, err := parseNonNegativeInt("PREDICTOR_CACHE_SIZE", "256")
	if err != nil {
		return nil, err
	}
	redisDB, err := parseNonNegativeInt("REDIS_DB", "0")
	if err != nil {
		return nil, err
	}

	telegramToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	telegramEnabled := telegramToken != ""
	if v := os.Getenv("TELEGRAM_ENABLED"); v != "" {
		telegramEnabled = v == "true"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		Location:      loc,
		Thresholds:    thresholds,
		RetentionDays: retentionDays,

		RollupAt:      rollupAt,
		CleanupAt:     cleanupAt,
		WarmupEnabled: sharedcfg.EnvOrDefault("WARMUP_ENABLED", "true") == "true",
		WarmupDelay:   warmupDelay,

		PredictorURL:       os.Getenv("PREDICTOR_URL"),
		PredictorTimeout:   predictorTimeout,
		PredictorCacheSize: predictorCacheSize,
		PredictorCacheTTL:  predictorCacheTTL,

		TelegramToken:   telegramToken,
		TelegramChatID:  os.Getenv("TELEGRAM_CHAT_ID"),
		TelegramEnabled: telegramEnabled,
		NotifyTimeout:   notifyTimeout,

		DBDriver: sharedcfg.EnvOrDefault("DB_DRIVER", "sqlite"),
		DBDSN:    sharedcfg.EnvOrDefault("DB_DSN", "floodmon.db"),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		StatusCacheTTL: statusTTL,

		KafkaBrokers:       brokers,
		KafkaReadingsTopic: sharedcfg.EnvOrDefault("KAFKA_READINGS_TOPIC", "sensor-readings"),
		KafkaAlertsTopic:   sharedcfg.EnvOrDefault("KAFKA_ALERTS_TOPIC", "flood-alerts"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "floodmon"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if cfg.TelegramEnabled && cfg.TelegramToken == "" {
		return nil, errors.New("TELEGRAM_ENABLED is true but TELEGRAM_BOT_TOKEN is not set")
	}
	if cfg.TelegramEnabled && cfg.TelegramChatID == "" {
		return nil, errors.New("TELEGRAM_ENABLED is true but TELEGRAM_CHAT_ID is not set")
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", cfg.DBDriver)
	}

	return cfg, nil
}

// KafkaEnabled reports whether any Kafka brokers are configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// RetentionHorizon is the maximum age of a stored reading.
func (c *Config) RetentionHorizon() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func parseThresholds() (domain.Thresholds, error) {
	def := domain.DefaultThresholds()
	watch, err := parseFloat("WATCH_THRESHOLD", def.Watch)
	if err != nil {
		return domain.Thresholds{}, err
	}
	flood, err := parseFloat("FLOOD_THRESHOLD", def.Flood)
	if err != nil {
		return domain.Thresholds{}, err
	}
	danger, err := parseFloat("DANGER_THRESHOLD", def.Danger)
	if err != nil {
		return domain.Thresholds{}, err
	}
	if watch <= 0 || watch > flood || flood >= danger {
		return domain.Thresholds{}, fmt.Errorf(
			"thresholds must satisfy 0 < WATCH_THRESHOLD <= FLOOD_THRESHOLD < DANGER_THRESHOLD, got %g/%g/%g",
			watch, flood, danger)
	}
	return domain.Thresholds{Watch: watch, Flood: flood, Danger: danger}, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s: must be a finite number", key)
	}
	return v, nil
}

func parsePositiveInt(key, def string) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseNonNegativeInt(key, def string) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative integer", key)
	}
	return n, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
