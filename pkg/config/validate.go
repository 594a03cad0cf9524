package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit.requests_per_second must be >= 0, got %g", c.Server.RateLimit.RequestsPerSecond))
	}
	if c.Server.RateLimit.Enabled() && c.Server.RateLimit.Burst <= 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit.burst must be > 0 when rate limiting is enabled"))
	}

	if strings.TrimSpace(c.Auth.Header) == "" {
		errs = append(errs, fmt.Errorf("auth.header is required"))
	}
	if c.Auth.Audience == "" {
		errs = append(errs, fmt.Errorf("auth.audience is required"))
	}
	if c.Auth.Issuer == "" {
		errs = append(errs, fmt.Errorf("auth.issuer is required"))
	}

	if len(c.Files.ReadScopes) == 0 {
		errs = append(errs, fmt.Errorf("files.read_scopes must not be empty"))
	}
	if len(c.Files.WriteScopes) == 0 {
		errs = append(errs, fmt.Errorf("files.write_scopes must not be empty"))
	}
	if c.Files.AllowAPIKey && c.Auth.APIKey == "" {
		errs = append(errs, fmt.Errorf("files.allow_api_key requires auth.api_key or auth.api_key_file"))
	}

	switch c.Storage.Type {
	case "memory", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}
	if c.Storage.Type == "postgres" {
		if c.Storage.Postgres.DSN == "" && c.Storage.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	return errors.Join(errs...)
}
