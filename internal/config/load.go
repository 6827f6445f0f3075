package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config.yaml in the working
// directory and from environment variables with the REMIND_ prefix
// (e.g. REMIND_SERVER_PORT). Environment variables take precedence over
// file values. Returns a validated Config or an error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("storage.driver", "jsonfile")
	v.SetDefault("storage.task_file", "data/tasks.json")
	v.SetDefault("storage.user_file", "data/users.json")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("scheduler.tick_interval_seconds", 30)
	v.SetDefault("scheduler.delivery_timeout_seconds", 5)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything can come from env.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("REMIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags plus the cross-field rules the tags cannot
// express: each storage driver requires its own settings.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch cfg.Storage.Driver {
	case "jsonfile":
		if cfg.Storage.TaskFile == "" || cfg.Storage.UserFile == "" {
			return fmt.Errorf("invalid configuration: jsonfile driver requires storage.task_file and storage.user_file")
		}
	case "postgres":
		if cfg.Storage.DatabaseURL == "" {
			return fmt.Errorf("invalid configuration: postgres driver requires storage.database_url")
		}
	}

	return nil
}
