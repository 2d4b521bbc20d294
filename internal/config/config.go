package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Store     StoreConfig     `mapstructure:"store" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap" validate:"required"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StoreConfig selects and configures the persisted state store.
type StoreConfig struct {
	// Driver is one of memory, postgres or sqlite.
	Driver string `mapstructure:"driver" validate:"required,oneof=memory postgres sqlite"`
	// DSN is the connection string (postgres URL or sqlite file path).
	// Unused by the memory driver.
	DSN string `mapstructure:"dsn" validate:"required_unless=Driver memory"`
}

// AuthConfig contains the settings used for access token introspection.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// TokenLifetimeMinutes bounds tokens minted by bootstrapd itself.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	// ClockSkewSeconds is the leeway applied to exp/nbf checks.
	ClockSkewSeconds int `mapstructure:"clock_skew_seconds" validate:"gte=0"`
}

// BootstrapConfig contains settings for the bootstrap orchestrator, its
// module loads and the session recovery chain.
type BootstrapConfig struct {
	// ManifestPath points at the HCL manifest declaring modules and sources.
	ManifestPath string `mapstructure:"manifest_path" validate:"required"`

	// Store keys. The integrator chooses them; none are mandated by the core.
	StateKey             string `mapstructure:"state_key" validate:"required"`
	ProfileKey           string `mapstructure:"profile_key" validate:"required"`
	TokenKey             string `mapstructure:"token_key" validate:"required"`
	SessionCredentialKey string `mapstructure:"session_credential_key" validate:"required"`

	// SessionURL is the session-status endpoint. Empty disables the session source.
	SessionURL string `mapstructure:"session_url" validate:"omitempty,url"`

	TaskTimeout   time.Duration `mapstructure:"task_timeout" validate:"gte=0"`
	SourceTimeout time.Duration `mapstructure:"source_timeout" validate:"gt=0"`
	InjectTimeout time.Duration `mapstructure:"inject_timeout" validate:"gt=0"`
}

// TelemetryConfig configures optional OpenTelemetry tracing.
type TelemetryConfig struct {
	// OTLPEndpoint enables trace export when non-empty.
	OTLPEndpoint string `mapstructure:"otlp_endpoint" validate:"omitempty,url"`
	ServiceName  string `mapstructure:"service_name"`
}
