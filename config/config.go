package config

import (
	"fmt"
	neturl "net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"
)

const (
	DefaultPort           = 8000
	DefaultBodyLimit      = "16kb"
	DefaultMaxRequestBody = "512kb"
	DefaultDatabaseURL    = "mongodb://localhost:27017"
)

// Config holds application configuration. It is built once by LoadConfig and
// treated as read-only afterwards.
type Config struct {
	Port                  int
	CORSOrigin            string
	AllowCredentials      bool
	BodyLimit             int
	MaxRequestBody        int
	DatabaseURL           string
	// DatabaseName is empty unless DB_NAME or the URL path names one; each
	// driver then applies its own default.
	DatabaseName          string
	DatabaseTimeout       time.Duration
	Environment           string
	LogLevel              string
	TrustProxyHeaders     bool
	EnableMetrics         bool
	ExitOnDatabaseFailure bool
	ShutdownTimeout       time.Duration

	// Warnings collected while loading; logged by the caller once logging is up.
	Warnings []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	port, err := parsePort(GetEnvOrDefault("PORT", strconv.Itoa(DefaultPort)))
	if err != nil {
		return nil, err
	}

	bodyLimit, err := GetEnvAsBytes("BODY_LIMIT", DefaultBodyLimit)
	if err != nil {
		return nil, err
	}
	maxBody, err := GetEnvAsBytes("MAX_REQUEST_BODY", DefaultMaxRequestBody)
	if err != nil {
		return nil, err
	}

	dbTimeout, err := GetEnvAsDuration("DB_CONNECT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := GetEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:                  port,
		CORSOrigin:            normalizeOrigins(GetEnvOrDefault("CORS_ORIGIN", "*")),
		AllowCredentials:      GetEnvAsBool("CORS_CREDENTIALS", true),
		BodyLimit:             bodyLimit,
		MaxRequestBody:        maxBody,
		DatabaseURL:           databaseURLFromEnv(),
		DatabaseTimeout:       dbTimeout,
		Environment:           GetEnvOrDefault("APP_ENV", "development"),
		LogLevel:              GetEnvOrDefault("LOG_LEVEL", "info"),
		TrustProxyHeaders:     GetEnvAsBool("TRUST_PROXY_HEADERS", false),
		EnableMetrics:         GetEnvAsBool("ENABLE_METRICS", false),
		ExitOnDatabaseFailure: GetEnvAsBool("EXIT_ON_DB_FAILURE", false),
		ShutdownTimeout:       shutdownTimeout,
	}
	cfg.DatabaseName = GetEnvOrDefault("DB_NAME", databaseNameFromURL(cfg.DatabaseURL))

	if err := validateOrigins(cfg.CORSOrigin); err != nil {
		return nil, err
	}

	// Browsers refuse credentialed responses carrying a wildcard origin.
	if cfg.CORSWildcard() && cfg.AllowCredentials {
		cfg.AllowCredentials = false
		cfg.Warnings = append(cfg.Warnings, "CORS_ORIGIN is '*'; credentialed cross-origin requests are disabled")
	}
	if cfg.MaxRequestBody < cfg.BodyLimit {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("MAX_REQUEST_BODY (%d) is below BODY_LIMIT (%d); raising it", cfg.MaxRequestBody, cfg.BodyLimit))
		cfg.MaxRequestBody = cfg.BodyLimit
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// CORSWildcard reports whether any origin is allowed.
func (c *Config) CORSWildcard() bool {
	for _, origin := range strings.Split(c.CORSOrigin, ",") {
		if strings.TrimSpace(origin) == "*" {
			return true
		}
	}
	return false
}

// GetEnvOrDefault returns environment variable value or default
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsBool parses environment variable as boolean
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		value = strings.ToLower(value)
		if value == "true" || value == "1" || value == "yes" {
			return true
		}
		if value == "false" || value == "0" || value == "no" {
			return false
		}
	}
	return defaultValue
}

// GetEnvAsDuration parses environment variable as a Go duration ("5s", "1m").
func GetEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, value)
	}
	return d, nil
}

// GetEnvAsBytes parses a byte-size string such as "16kb" or "1mb".
// Units are binary (1kb = 1024 bytes).
func GetEnvAsBytes(key, defaultValue string) (int, error) {
	value := GetEnvOrDefault(key, defaultValue)
	n, err := units.RAMInBytes(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, value)
	}
	return int(n), nil
}

func parsePort(raw string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid PORT %q: %w", raw, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid PORT %q: out of range", raw)
	}
	return port, nil
}

// normalizeOrigins trims whitespace around each comma-separated origin
func normalizeOrigins(raw string) string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ",")
}

// validateOrigins accepts "*" or scheme://host[:port] origins, optionally with
// a leading "*." subdomain wildcard in the host.
func validateOrigins(raw string) error {
	for _, origin := range strings.Split(raw, ",") {
		if origin == "*" {
			continue
		}
		candidate := strings.Replace(origin, "://*.", "://", 1)
		u, err := neturl.Parse(candidate)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || strings.Contains(u.Host, "*") ||
			(u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
			return fmt.Errorf("invalid CORS_ORIGIN entry %q: want scheme://host[:port]", origin)
		}
	}
	return nil
}

func databaseURLFromEnv() string {
	if u := strings.TrimSpace(os.Getenv("DATABASE_URL")); u != "" {
		return u
	}
	if u := strings.TrimSpace(os.Getenv("MONGODB_URI")); u != "" {
		return u
	}
	return DefaultDatabaseURL
}

// databaseNameFromURL returns the path component of a connection URL, or ""
// when the URL carries none.
func databaseNameFromURL(raw string) string {
	u, err := neturl.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.Trim(u.Path, "/")
}
