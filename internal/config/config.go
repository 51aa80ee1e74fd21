// Package config handles configuration loading for the scheduler process.
// Values come from an optional YAML file overridden by KITCHEN_* environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the application.
type Config struct {
	// Database connection string. Required.
	DatabaseURL string

	// HTTP port for the admin/health surface.
	HTTPPort int

	// AMQP broker URL for realtime notifications. Empty disables them.
	AMQPURL string

	// Fallback tick interval when the settings table has none.
	TickInterval time.Duration

	// OTLP collector endpoint for traces.
	OTELEndpoint string

	// Log level: debug, info, warn, error.
	LogLevel string
}

// Load reads configuration from the given file (optional) and environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http_port", 7070)
	v.SetDefault("amqp_url", "")
	v.SetDefault("tick_interval", "30s")
	v.SetDefault("otel_endpoint", "localhost:4317")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("KITCHEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("kitchenline")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		// A missing default config file is fine; env vars may carry everything.
		_ = v.ReadInConfig()
	}

	dbURL := v.GetString("database_url")
	if dbURL == "" {
		return nil, fmt.Errorf("database_url is required (env: KITCHEN_DATABASE_URL)")
	}

	tick := v.GetDuration("tick_interval")
	if tick <= 0 {
		return nil, fmt.Errorf("tick_interval must be positive, got %v", tick)
	}

	return &Config{
		DatabaseURL:  dbURL,
		HTTPPort:     v.GetInt("http_port"),
		AMQPURL:      v.GetString("amqp_url"),
		TickInterval: tick,
		OTELEndpoint: v.GetString("otel_endpoint"),
		LogLevel:     v.GetString("log_level"),
	}, nil
}
