package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config.yaml and from
// environment variables with the MEDIAGEN_ prefix. Environment variables
// take precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/media-api")

	// A missing config file is fine; env vars alone may be enough.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("MEDIAGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so keys
	// without defaults need an explicit binding to be unmarshaled.
	for _, key := range []string{
		"database.url",
		"llm.gemini_api_key",
		"renderer.url",
		"push.base_url",
		"push.username",
		"push.password",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers defaults for everything that has a sane one.
// Secrets (database URL, API keys, push credentials) deliberately have
// no defaults and must be provided.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("queue.worker_count", 2)
	v.SetDefault("queue.queue_size", 100)
	v.SetDefault("queue.pipeline_timeout", 30*time.Minute)
	v.SetDefault("queue.pipeline_retries", 0)

	v.SetDefault("storage.base_dir", "videos")
	v.SetDefault("storage.public_base_path", "/api/media")

	v.SetDefault("llm.model_name", "gemini-2.0-flash")

	v.SetDefault("renderer.timeout", 25*time.Minute)

	v.SetDefault("push.timeout", 30*time.Second)
	v.SetDefault("push.push_retries", 0)
}
