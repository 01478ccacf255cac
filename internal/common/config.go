package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/ternarybob/govspend/internal/analytics"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Logging     LoggingConfig     `toml:"logging"`
	Storage     StorageConfig     `toml:"storage"`
	USAspending USAspendingConfig `toml:"usaspending"`
	Analysis    analytics.Config  `toml:"analysis"`
	Enrichment  EnrichmentConfig  `toml:"enrichment"`
	Snapshot    SnapshotConfig    `toml:"snapshot"`
	Scheduler   SchedulerConfig   `toml:"scheduler"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Directory for the Badger files
	ResetOnStartup bool   `toml:"reset_on_startup"` // Wipe the database directory before opening
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // debug|info|warn|error
	Output     []string `toml:"output"`      // "stdout", "console", "file"
	TimeFormat string   `toml:"time_format"` // Go time layout for console and file writers
}

// USAspendingConfig configures the upstream award search client
type USAspendingConfig struct {
	BaseURL       string `toml:"base_url"`
	Timeout       string `toml:"timeout"`    // e.g. "30s"
	RateLimit     int    `toml:"rate_limit"` // requests per second
	PageSize      int    `toml:"page_size"`
	MaxPages      int    `toml:"max_pages"`
	LookbackYears int    `toml:"lookback_years"`
	// RecipientSearch limits the scheduled snapshot to matching recipients; empty fetches all
	RecipientSearch string `toml:"recipient_search"`
}

// EnrichmentConfig controls agency history lookups before an analysis
type EnrichmentConfig struct {
	Enabled     bool   `toml:"enabled"`
	Concurrency int    `toml:"concurrency"` // Parallel lookups
	Timeout     string `toml:"timeout"`     // Per-lookup timeout, e.g. "10s"
	CacheTTL    string `toml:"cache_ttl"`   // How long cached histories stay valid, e.g. "24h"
}

// SnapshotConfig controls the cached upstream award snapshot
type SnapshotConfig struct {
	MaxAge string `toml:"max_age"` // e.g. "6h"; empty or "0" never expires
}

// SchedulerConfig controls background snapshot refreshes
type SchedulerConfig struct {
	Enabled         bool   `toml:"enabled"`
	RefreshSchedule string `toml:"refresh_schedule"` // 5-field cron expression
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		USAspending: USAspendingConfig{
			BaseURL:       "https://api.usaspending.gov",
			Timeout:       "30s",
			RateLimit:     5,
			PageSize:      100,
			MaxPages:      10,
			LookbackYears: 10,
		},
		Analysis: analytics.DefaultConfig(),
		Enrichment: EnrichmentConfig{
			Enabled:     true,
			Concurrency: 4,
			Timeout:     "10s",
			CacheTTL:    "24h",
		},
		Snapshot: SnapshotConfig{
			MaxAge: "6h",
		},
		Scheduler: SchedulerConfig{
			Enabled:         false,
			RefreshSchedule: "0 */6 * * *", // Every 6 hours
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority order
// Priority: defaults -> files (in order, later overrides earlier) -> environment
// Pass no paths to use defaults and environment only.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal on top of the current config so missing keys keep earlier values
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies GOVSPEND_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Server configuration
	if port := os.Getenv("GOVSPEND_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("GOVSPEND_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("GOVSPEND_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("GOVSPEND_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("GOVSPEND_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Upstream configuration
	if baseURL := os.Getenv("GOVSPEND_USASPENDING_BASE_URL"); baseURL != "" {
		config.USAspending.BaseURL = baseURL
	}
	if rateLimit := os.Getenv("GOVSPEND_USASPENDING_RATE_LIMIT"); rateLimit != "" {
		if r, err := strconv.Atoi(rateLimit); err == nil {
			config.USAspending.RateLimit = r
		}
	}
	if recipient := os.Getenv("GOVSPEND_USASPENDING_RECIPIENT"); recipient != "" {
		config.USAspending.RecipientSearch = recipient
	}

	// Analysis configuration
	if strategy := os.Getenv("GOVSPEND_RISK_STRATEGY"); strategy != "" {
		config.Analysis.Risk.Strategy = analytics.RiskStrategy(strings.ToLower(strings.TrimSpace(strategy)))
	}

	// Enrichment and scheduling
	if enabled := os.Getenv("GOVSPEND_ENRICHMENT_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Enrichment.Enabled = b
		}
	}
	if maxAge := os.Getenv("GOVSPEND_SNAPSHOT_MAX_AGE"); maxAge != "" {
		config.Snapshot.MaxAge = maxAge
	}
	if enabled := os.Getenv("GOVSPEND_SCHEDULER_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = b
		}
	}
	if schedule := os.Getenv("GOVSPEND_SCHEDULER_REFRESH_SCHEDULE"); schedule != "" {
		config.Scheduler.RefreshSchedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the sections that would otherwise fail late at runtime
func (c *Config) Validate() error {
	if err := c.Analysis.Validate(); err != nil {
		return err
	}

	for name, value := range map[string]string{
		"usaspending.timeout":  c.USAspending.Timeout,
		"enrichment.timeout":   c.Enrichment.Timeout,
		"enrichment.cache_ttl": c.Enrichment.CacheTTL,
		"snapshot.max_age":     c.Snapshot.MaxAge,
	} {
		if _, err := parseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if c.Enrichment.Concurrency < 1 {
		return fmt.Errorf("enrichment.concurrency must be at least 1, got %d", c.Enrichment.Concurrency)
	}

	if c.Scheduler.Enabled {
		if err := ValidateSchedule(c.Scheduler.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid scheduler.refresh_schedule: %w", err)
		}
	}

	return nil
}

// ValidateSchedule validates a cron schedule expression and ensures minimum 5-minute interval
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}
	if strings.HasPrefix(minuteField, "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// parseDuration accepts Go duration strings; empty means zero
func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative: %s", value)
	}
	return d, nil
}

// mustDuration returns the parsed duration or fallback when unset or invalid
func mustDuration(value string, fallback time.Duration) time.Duration {
	d, err := parseDuration(value)
	if err != nil || (d == 0 && strings.TrimSpace(value) == "") {
		return fallback
	}
	return d
}

// TimeoutDuration returns the upstream request timeout
func (c USAspendingConfig) TimeoutDuration() time.Duration {
	return mustDuration(c.Timeout, 30*time.Second)
}

// TimeoutDuration returns the per-lookup timeout
func (c EnrichmentConfig) TimeoutDuration() time.Duration {
	return mustDuration(c.Timeout, 10*time.Second)
}

// CacheTTLDuration returns how long cached agency histories stay valid
func (c EnrichmentConfig) CacheTTLDuration() time.Duration {
	return mustDuration(c.CacheTTL, 24*time.Hour)
}

// MaxAgeDuration returns the snapshot staleness window; zero never expires
func (c SnapshotConfig) MaxAgeDuration() time.Duration {
	return mustDuration(c.MaxAge, 0)
}
