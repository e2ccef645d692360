package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/climate-warehouse-etl/internal/domain"
)

const (
	minChunkSize = 1
	maxChunkSize = 1_000_000
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabaseDriver string
	DatabaseDSN    string

	CSVPath            string
	ChunkSize          int
	UnknownEventType   string
	MergePolicy        domain.MergePolicy
	OutlierMetrics     []domain.Metric
	DimensionCacheSize int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Load notifications are published only when brokers are configured.
	KafkaBrokers []string
	KafkaTopic   string
}

// NotificationsEnabled reports whether chunk summaries go to Kafka.
func (c *Config) NotificationsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	chunkSize, err := parseChunkSize()
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("DIMENSION_CACHE_SIZE", 4096)
	if err != nil {
		return nil, err
	}

	policy, err := domain.ParseMergePolicy(sharedcfg.EnvOrDefault("MERGE_POLICY", string(domain.MergeLegacy)))
	if err != nil {
		return nil, fmt.Errorf("invalid MERGE_POLICY: %w", err)
	}

	metrics := domain.DefaultMetricOrder
	if v := os.Getenv("OUTLIER_METRICS"); v != "" {
		metrics, err = domain.ParseMetricOrder(v)
		if err != nil {
			return nil, fmt.Errorf("invalid OUTLIER_METRICS: %w", err)
		}
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		DatabaseDriver:     strings.ToLower(sharedcfg.EnvOrDefault("DATABASE_DRIVER", "sqlite")),
		DatabaseDSN:        sharedcfg.EnvOrDefault("DATABASE_DSN", "climate_data_warehouse.db"),
		CSVPath:            sharedcfg.EnvOrDefault("CSV_PATH", "categorical_data_and_dimensions.csv"),
		ChunkSize:          chunkSize,
		UnknownEventType:   sharedcfg.EnvOrDefault("UNKNOWN_EVENT_TYPE", domain.DefaultUnknownEventType),
		MergePolicy:        policy,
		OutlierMetrics:     metrics,
		DimensionCacheSize: cacheSize,
		HTTPAddr:           os.Getenv("HTTP_ADDR"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		KafkaBrokers:       brokers,
		KafkaTopic:         sharedcfg.EnvOrDefault("KAFKA_TOPIC", "climate-load-events"),
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}
	if strings.TrimSpace(cfg.UnknownEventType) == "" {
		return nil, errors.New("UNKNOWN_EVENT_TYPE must not be blank")
	}
	if cfg.NotificationsEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parseChunkSize() (int, error) {
	s := os.Getenv("CHUNK_SIZE")
	if s == "" {
		return 10000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minChunkSize || n > maxChunkSize {
		return 0, fmt.Errorf("invalid CHUNK_SIZE %q: must be an integer in [%d, %d]", s, minChunkSize, maxChunkSize)
	}
	return n, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, s)
	}
	return n, nil
}
