// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Server   ServerConfig
	Cache    CacheConfig
	Settings SettingsConfig
	Fixture  FixtureConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds the inspector HTTP server configuration.
type ServerConfig struct {
	Port           string        // default: 8080
	ReadTimeout    time.Duration // default: 15s
	WriteTimeout   time.Duration // default: 15s; the event stream extends its own deadline
	IdleTimeout    time.Duration // default: 60s
	AllowedOrigins []string      // CORS origins; empty allows any
	RateLimit      float64       // requests per second per client; 0 disables
	RateBurst      int           // default: 20
}

// CacheConfig holds page annotation cache behavior.
type CacheConfig struct {
	// Debug logs soft inconsistencies such as dangling list references.
	Debug bool
	// SortOrder is the annotation display order: "position" or "created".
	SortOrder string
}

// SettingsConfig locates the persisted settings store.
type SettingsConfig struct {
	// Path is the badger directory holding highlight colors (default: ~/.pagecache/settings).
	Path string
}

// FixtureConfig holds the local backend fixture used to hydrate the cache.
type FixtureConfig struct {
	Path string
	// PageURL is the open page to hydrate. Empty hydrates lists only.
	PageURL     string
	Watch       bool
	SettleDelay time.Duration
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load is LoadConfig with explicit command-line arguments.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("pagecache", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := fs.String("allowed-origins", "", "Comma separated CORS origins (default: any)")
	rateLimit := fs.String("rate-limit", "", "Requests per second per client, 0 disables (default: 0)")
	rateBurst := fs.String("rate-burst", "", "Request burst per client (default: 20)")

	cacheDebug := fs.String("cache-debug", "", "Log dropped cache references (default: false)")
	sortOrder := fs.String("sort-order", "", "Annotation order: position or created (default: position)")

	settingsPath := fs.String("settings-path", "", "Directory for the settings database")

	fixturePath := fs.String("fixture", "", "Path to the JSON backend fixture")
	fixturePage := fs.String("page", "", "Full URL of the page to hydrate (default: lists only)")
	fixtureWatch := fs.String("watch", "", "Re-hydrate when the fixture changes (default: true)")
	settleDelay := fs.String("watch-settle", "", "Quiet period before reloading a changed fixture (default: 100ms)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "ALLOWED_ORIGINS", "")),
		},
		Cache: CacheConfig{
			Debug:     getBoolConfigValue(*cacheDebug, "CACHE_DEBUG", false),
			SortOrder: getConfigValue(*sortOrder, "CACHE_SORT_ORDER", "position"),
		},
		Settings: SettingsConfig{
			Path: getConfigValue(*settingsPath, "SETTINGS_PATH", ""),
		},
		Fixture: FixtureConfig{
			Path:    getConfigValue(*fixturePath, "FIXTURE_PATH", ""),
			PageURL: getConfigValue(*fixturePage, "FIXTURE_PAGE_URL", ""),
			Watch:   getBoolConfigValue(*fixtureWatch, "FIXTURE_WATCH", true),
		},
	}

	durations := []struct {
		flagValue, envKey, def string
		dst                    *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*settleDelay, "FIXTURE_SETTLE_DELAY", "100ms", &cfg.Fixture.SettleDelay},
	}
	for _, d := range durations {
		value := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.envKey), value, err)
		}
		*d.dst = parsed
	}

	rps, err := strconv.ParseFloat(getConfigValue(*rateLimit, "RATE_LIMIT_RPS", "0"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid rate_limit_rps: %w", err)
	}
	burst, err := strconv.Atoi(getConfigValue(*rateBurst, "RATE_LIMIT_BURST", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid rate_limit_burst: %w", err)
	}
	cfg.Server.RateLimit = rps
	cfg.Server.RateBurst = burst

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Cache.SortOrder {
	case "position", "created":
	default:
		return fmt.Errorf("invalid sort order: %s (must be position or created)", c.Cache.SortOrder)
	}

	if c.Server.RateLimit < 0 || c.Server.RateBurst < 1 {
		return fmt.Errorf("invalid rate limit: %g/s burst %d", c.Server.RateLimit, c.Server.RateBurst)
	}

	if c.Settings.Path == "" {
		return errors.New("settings path cannot be empty after expansion")
	}

	// An empty fixture path starts with an empty cache.
	if c.Fixture.Path == "" && c.Fixture.Watch {
		c.Fixture.Watch = false
	}

	return nil
}

func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	settings, err := expandPath(c.Settings.Path, filepath.Join(homeDir, ".pagecache", "settings"))
	if err != nil {
		return fmt.Errorf("invalid settings path: %w", err)
	}
	c.Settings.Path = settings

	fixture, err := expandPath(c.Fixture.Path, "")
	if err != nil {
		return fmt.Errorf("invalid fixture path: %w", err)
	}
	c.Fixture.Path = fixture
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned as is.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func splitList(value string) []string {
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
