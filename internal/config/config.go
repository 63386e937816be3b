// Package config provides environment-driven configuration for the
// saved-objects service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// defaultSupportedTypes lists the object types the service imports, exports
// and serves by default. Operators narrow or extend the set via
// SUPPORTED_TYPES.
const defaultSupportedTypes = "config,dashboard,index-pattern,lens,map,query,search,tag,url,visualization"

// Config holds all application configuration values.
type Config struct {
	DatabaseURL        Secret
	Port               string
	ListenHost         string
	CORSOrigins        []string
	LogLevel           string
	DBMaxConns         int32
	ImportObjectLimit  int
	SupportedTypes     []string
	AuditRetentionDays int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: Secret(envOrDefault("DATABASE_URL", "")),
		Port:        envOrDefault("PORT", "5601"),
		ListenHost:  envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
	}

	dbMaxConns, err := strconv.Atoi(envOrDefault("DB_MAX_CONNS", "21"))
	if err != nil || dbMaxConns < 2 || dbMaxConns > 200 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be an integer between 2 and 200")
	}
	cfg.DBMaxConns = int32(dbMaxConns)

	importLimit, err := strconv.Atoi(envOrDefault("IMPORT_OBJECT_LIMIT", "10000"))
	if err != nil || importLimit < 1 || importLimit > 1000000 {
		return nil, fmt.Errorf("IMPORT_OBJECT_LIMIT must be an integer between 1 and 1000000")
	}
	cfg.ImportObjectLimit = importLimit

	// 0 disables the background retention sweeper; manual purges stay available.
	retention, err := strconv.Atoi(envOrDefault("AUDIT_RETENTION_DAYS", "90"))
	if err != nil || retention < 0 || retention > 3650 {
		return nil, fmt.Errorf("AUDIT_RETENTION_DAYS must be an integer between 0 and 3650")
	}
	cfg.AuditRetentionDays = retention

	cfg.SupportedTypes = splitCSV(envOrDefault("SUPPORTED_TYPES", defaultSupportedTypes))
	cfg.CORSOrigins = splitCSV(envOrDefault("CORS_ORIGINS", "http://localhost:5601"))

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// splitCSV splits a comma-separated value, trimming whitespace and dropping
// empty entries.
func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}

	return out
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
