// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds every setting the API process reads at startup.
type Config struct {
	HTTPAddr        string
	CatalogURL      string
	UpstreamTimeout time.Duration
	RedisAddr       string
	CatalogCacheTTL time.Duration
	SnapshotTTL     time.Duration
	KafkaBroker     string
	KafkaGroupID    string
	NotificationTTL time.Duration
	SessionIdle     time.Duration
	LogLevel        string
}

// KafkaEnabled reports whether a broker was configured.
func (c Config) KafkaEnabled() bool { return c.KafkaBroker != "" }

// Load reads the environment, applying defaults for unset variables.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		CatalogURL:   getenv("CATALOG_URL", "https://fakestoreapi.com"),
		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		KafkaBroker:  os.Getenv("KAFKA_BROKER"),
		KafkaGroupID: getenv("KAFKA_GROUP_ID", "storefront-catalog"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.UpstreamTimeout, err = getDuration("UPSTREAM_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.CatalogCacheTTL, err = getDuration("CATALOG_CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.SnapshotTTL, err = getDuration("SNAPSHOT_TTL", 30*24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.NotificationTTL, err = getDuration("NOTIFICATION_TTL", 3*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SessionIdle, err = getDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", key)
	}
	return d, nil
}
