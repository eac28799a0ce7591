package config

import (
	"os"
	"time"
)

type Config struct {
	HTTPAddr            string
	RedisURL            string
	LiveChannel         string
	ShutdownGracePeriod time.Duration
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func Load() Config {
	return Config{
		HTTPAddr:            getEnv("NOTIFY_HTTP_ADDR", ":3004"),
		RedisURL:            getEnv("REDIS_URL", "redis://redis:6379"),
		LiveChannel:         getEnv("ORDERS_LIVE_CHANNEL", "orders"),
		ShutdownGracePeriod: parseDuration("NOTIFY_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func parseDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return def
}
