package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, BLOBGATE_CONFIG env, ./config.yaml, /etc/blobgate/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. BLOBGATE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/blobgate/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv("BLOBGATE_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/blobgate/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. Unlike
// unset variables, a set but malformed numeric or boolean value is an error.
func applyEnvOverrides(cfg *Config) error {
	// PORT is honored for platforms that inject it; BLOBGATE_PORT wins.
	if err := envInt("PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := envInt("BLOBGATE_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := envInt64("BLOBGATE_MAX_BODY_SIZE", &cfg.Server.MaxBodySize); err != nil {
		return err
	}
	envString("BLOBGATE_STATIC_DIR", &cfg.Server.StaticDir)
	if err := envFloat("BLOBGATE_RATE_LIMIT_RPS", &cfg.Server.RateLimit.RequestsPerSecond); err != nil {
		return err
	}
	if err := envInt("BLOBGATE_RATE_LIMIT_BURST", &cfg.Server.RateLimit.Burst); err != nil {
		return err
	}

	envString("BLOBGATE_AUTH_HEADER", &cfg.Auth.Header)
	envString("BLOBGATE_AUDIENCE", &cfg.Auth.Audience)
	envString("BLOBGATE_ISSUER", &cfg.Auth.Issuer)
	envString("BLOBGATE_API_KEY", &cfg.Auth.APIKey)
	envString("BLOBGATE_API_KEY_FILE", &cfg.Auth.APIKeyFile)
	envString("BLOBGATE_SCOPES_CLAIM", &cfg.Auth.ScopesClaim)

	envList("BLOBGATE_READ_SCOPES", &cfg.Files.ReadScopes)
	envList("BLOBGATE_WRITE_SCOPES", &cfg.Files.WriteScopes)
	if err := envBool("BLOBGATE_ALLOW_API_KEY", &cfg.Files.AllowAPIKey); err != nil {
		return err
	}

	envString("BLOBGATE_STORAGE", &cfg.Storage.Type)
	if err := envInt("BLOBGATE_STORAGE_SIZE", &cfg.Storage.MaxSize); err != nil {
		return err
	}
	envString("BLOBGATE_DATABASE_URL", &cfg.Storage.Postgres.DSN)

	envString("BLOBGATE_LOG_LEVEL", &cfg.Logging.Level)
	envString("BLOBGATE_LOG_FORMAT", &cfg.Logging.Format)

	return envBool("BLOBGATE_METRICS_ENABLED", &cfg.Observability.Metrics.Enabled)
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// envList splits a comma-separated value, dropping empty elements.
func envList(name string, dst *[]string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

func envInt64(name string, dst *int64) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

func envFloat(name string, dst *float64) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = f
	return nil
}

func envBool(name string, dst *bool) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = b
	return nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// auth.api_key_file -> auth.api_key
	if cfg.Auth.APIKeyFile != "" && cfg.Auth.APIKey == "" {
		val, err := readSecretFile(cfg.Auth.APIKeyFile)
		if err != nil {
			return fmt.Errorf("auth.api_key_file: %w", err)
		}
		cfg.Auth.APIKey = val
	}

	// storage.postgres.dsn_file -> storage.postgres.dsn
	if cfg.Storage.Postgres.DSNFile != "" && cfg.Storage.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.Storage.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("storage.postgres.dsn_file: %w", err)
		}
		cfg.Storage.Postgres.DSN = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
