package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for all environment variable overrides,
// e.g. BOOTSTRAP_SERVER_PORT for server.port.
const EnvPrefix = "BOOTSTRAP"

// setDefaults registers a default for every key so that viper's AutomaticEnv
// can resolve env-only values during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.clock_skew_seconds", 120)

	v.SetDefault("bootstrap.manifest_path", "bootstrap.hcl")
	v.SetDefault("bootstrap.state_key", "bootstrap.user_state")
	v.SetDefault("bootstrap.profile_key", "bootstrap.profile")
	v.SetDefault("bootstrap.token_key", "bootstrap.access_token")
	v.SetDefault("bootstrap.session_credential_key", "bootstrap.session_credential")
	v.SetDefault("bootstrap.session_url", "")
	v.SetDefault("bootstrap.task_timeout", 30*time.Second)
	v.SetDefault("bootstrap.source_timeout", 5*time.Second)
	v.SetDefault("bootstrap.inject_timeout", 10*time.Second)

	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.service_name", "bootstrapd")
}

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from the config file.
// An empty path skips the file. Returns a populated Config struct or an error
// if loading/validation fails.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
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

// Validate checks the struct tags on cfg.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
