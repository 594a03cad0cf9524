// Package config provides unified configuration for blobgate.
//
// Configuration is loaded from multiple sources with the following precedence
// (highest to lowest):
//  1. Environment variables (BLOBGATE_*, plus PORT)
//  2. YAML config file
//  3. Built-in defaults
//
// Sensitive values can be provided via _file suffixed fields that point
// to files containing the secret (e.g., Kubernetes Secret mounts).
package config

import "time"

// Config is the top-level configuration for the blobgate server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Files         FilesConfig         `yaml:"files"`
	Storage       StorageConfig       `yaml:"storage"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int             `yaml:"port"`
	ReadTimeout     time.Duration   `yaml:"read_timeout"`
	WriteTimeout    time.Duration   `yaml:"write_timeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
	MaxBodySize     int64           `yaml:"max_body_size"`
	StaticDir       string          `yaml:"static_dir"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig configures per-client request throttling.
// A zero RequestsPerSecond disables the limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Enabled reports whether rate limiting is configured.
func (r RateLimitConfig) Enabled() bool {
	return r.RequestsPerSecond > 0
}

// AuthConfig holds credential verification settings.
type AuthConfig struct {
	// Header is the request header carrying the credential.
	Header string `yaml:"header"`

	// Audience and Issuer must match the bearer token's aud and iss claims.
	Audience string `yaml:"audience"`
	Issuer   string `yaml:"issuer"`

	// APIKey is the shared key accepted by routes that allow api-key
	// access. Empty disables api-key authentication.
	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"`

	// ScopesClaim names the token claim holding granted scopes.
	ScopesClaim string `yaml:"scopes_claim"`
}

// FilesConfig holds the access policy for the file routes.
type FilesConfig struct {
	ReadScopes  []string `yaml:"read_scopes"`
	WriteScopes []string `yaml:"write_scopes"`
	AllowAPIKey bool     `yaml:"allow_api_key"`
}

// StorageConfig holds blob storage settings.
type StorageConfig struct {
	Type     string         `yaml:"type"`
	MaxSize  int            `yaml:"max_size"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`
	MaxConns       int32  `yaml:"max_conns"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns a Config populated with default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodySize:     25 << 20,
		},
		Auth: AuthConfig{
			Header:      "Authorization",
			ScopesClaim: "scp",
		},
		Files: FilesConfig{
			ReadScopes:  []string{"files:read"},
			WriteScopes: []string{"files:write"},
		},
		Storage: StorageConfig{
			Type:    "memory",
			MaxSize: 10000,
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
