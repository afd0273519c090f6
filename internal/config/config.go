// Package config loads application configuration from environment variables,
// optionally seeded from a YAML file.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/invoice2erpnext/internal/domain/model"
)

const envPrefix = "INVOICE2ERPNEXT_"

// Config holds the application configuration.
type Config struct {
	ListenAddr    string
	DBPath        string
	BaseURL       string
	CreditsMethod string
	HTTPTimeout   time.Duration
	SecretKey     []byte // 32-byte AES-256 key; nil when not configured.
	JWTSecret     string
	LogLevel      slog.Level
}

// HasSecretKey reports whether secret storage is available.
func (c *Config) HasSecretKey() bool {
	return c.SecretKey != nil
}

// Load reads configuration and returns a validated Config.
//
// When INVOICE2ERPNEXT_CONFIG_FILE names a YAML file, its keys (lower-case,
// without the prefix, e.g. listen_addr) provide values; environment variables
// override them. INVOICE2ERPNEXT_JWT_SECRET is required. Optional variables
// with defaults: LISTEN_ADDR (127.0.0.1:8080), DB_PATH (invoice2erpnext.db),
// BASE_URL (https://kainotomo.com), CREDITS_METHOD (get_user_credits path),
// HTTP_TIMEOUT (30s), LOG_LEVEL (info). SECRET_KEY (64 hex chars) enables
// credential storage.
func Load() (*Config, error) {
	file, err := readFile(os.Getenv(envPrefix + "CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	lookup := func(name string) (string, bool) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			return v, true
		}
		v, ok := file[strings.ToLower(name)]
		return v, ok
	}
	get := func(name, def string) string {
		if v, ok := lookup(name); ok {
			return v
		}
		return def
	}

	cfg := &Config{
		ListenAddr:    get("LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:        get("DB_PATH", "invoice2erpnext.db"),
		BaseURL:       get("BASE_URL", model.DefaultBillingBaseURL),
		CreditsMethod: get("CREDITS_METHOD", model.DefaultCreditsMethod),
		HTTPTimeout:   model.DefaultBillingTimeout,
		LogLevel:      slog.LevelInfo,
	}

	if v, ok := lookup("HTTP_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%sHTTP_TIMEOUT has invalid duration %q: %w", envPrefix, v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("%sHTTP_TIMEOUT must be positive, got %s", envPrefix, parsed)
		}
		cfg.HTTPTimeout = parsed
	}

	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("%sLOG_LEVEL has invalid level %q: %w", envPrefix, v, err)
		}
	}

	if v, ok := lookup("SECRET_KEY"); ok && v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("%sSECRET_KEY must be hex encoded: %w", envPrefix, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("%sSECRET_KEY must be 32 bytes (64 hex chars), got %d bytes", envPrefix, len(key))
		}
		cfg.SecretKey = key
	}

	cfg.JWTSecret = get("JWT_SECRET", "")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%sJWT_SECRET is required", envPrefix)
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%sBASE_URL must not be empty", envPrefix)
	}

	return cfg, nil
}

// readFile parses a flat YAML mapping. An empty path yields no values.
func readFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	normalized := make(map[string]string, len(values))
	for k, v := range values {
		normalized[strings.ToLower(k)] = v
	}
	return normalized, nil
}
