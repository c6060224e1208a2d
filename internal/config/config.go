package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yourusername/community-manager/internal/records"
)

// Config represents the application configuration
type Config struct {
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	Session  SessionConfig  `yaml:"session"`
	Pacing   PacingConfig   `yaml:"pacing"`
	Batch    BatchConfig    `yaml:"batch"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Browser  BrowserConfig  `yaml:"browser"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WhatsAppConfig describes the client and the phone numbering plan
type WhatsAppConfig struct {
	URL            string `yaml:"url"`
	CountryCode    string `yaml:"country_code"`
	NationalDigits int    `yaml:"national_digits"`
}

// SessionConfig controls reuse of the persisted browser profile
type SessionConfig struct {
	ProfileDir string `yaml:"profile_dir"`
	// Reuse is auto, cached or fresh
	Reuse string `yaml:"reuse"`
}

// PacingConfig contains the waits between records and phases
type PacingConfig struct {
	MinContactSeconds int `yaml:"min_contact_seconds"`
	MaxContactSeconds int `yaml:"max_contact_seconds"`
	PhaseSeconds      int `yaml:"phase_seconds"`
}

// BatchConfig selects the input and how much of it to process
type BatchConfig struct {
	InputPath string `yaml:"input_path"`
	Sheet     string `yaml:"sheet"`
	// Limit is all, sample or a positive number
	Limit string `yaml:"limit"`
}

// TimeoutsConfig bounds the polling waits
type TimeoutsConfig struct {
	StepSeconds   int `yaml:"step_seconds"`
	VerifySeconds int `yaml:"verify_seconds"`
	LoadSeconds   int `yaml:"load_seconds"`
	LoginSeconds  int `yaml:"login_seconds"`
	PollMs        int `yaml:"poll_ms"`
}

// BrowserConfig contains browser launch settings
type BrowserConfig struct {
	Headless    bool   `yaml:"headless"`
	Bin         string `yaml:"bin"`
	SnapshotDir string `yaml:"snapshot_dir"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level    string `yaml:"level"`
	ToFile   bool   `yaml:"to_file"`
	FilePath string `yaml:"file_path"`
}

// Load loads configuration from a YAML file and environment variables.
// An empty path falls back to CONFIG_PATH, then ./config/config.yaml.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (ignore errors if not present)
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "./config/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse expands environment variables in data, decodes it over the defaults
// and fills blank strings. It does not validate; call Validate once
// overrides are applied.
func Parse(data []byte) (*Config, error) {
	expandedData := expandEnvVars(string(data))

	// Keys absent from the file keep their default, so an explicit 0 survives
	cfg := defaultConfig()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		WhatsApp: WhatsAppConfig{
			URL:            "https://web.whatsapp.com",
			CountryCode:    records.DefaultPhoneRule.CountryCode,
			NationalDigits: records.DefaultPhoneRule.NationalDigits,
		},
		Session: SessionConfig{ProfileDir: "./whatsapp_session", Reuse: "auto"},
		Pacing:  PacingConfig{MinContactSeconds: 5, MaxContactSeconds: 10, PhaseSeconds: 15},
		Batch:   BatchConfig{Limit: "all"},
		Timeouts: TimeoutsConfig{
			StepSeconds:   10,
			VerifySeconds: 5,
			LoadSeconds:   30,
			LoginSeconds:  90,
			PollMs:        250,
		},
		Database: DatabaseConfig{Path: "./data/community_manager.db"},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// applyDefaults fills strings left blank, e.g. by an unset ${VAR}
func (c *Config) applyDefaults() {
	d := defaultConfig()
	if c.WhatsApp.URL == "" {
		c.WhatsApp.URL = d.WhatsApp.URL
	}
	if c.WhatsApp.CountryCode == "" {
		c.WhatsApp.CountryCode = d.WhatsApp.CountryCode
	}
	if c.Session.ProfileDir == "" {
		c.Session.ProfileDir = d.Session.ProfileDir
	}
	if c.Session.Reuse == "" {
		c.Session.Reuse = d.Session.Reuse
	}
	if c.Batch.Limit == "" {
		c.Batch.Limit = d.Batch.Limit
	}
	if c.Database.Path == "" {
		c.Database.Path = d.Database.Path
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.ToFile && c.Logging.FilePath == "" {
		c.Logging.FilePath = "./logs/community_manager.log"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Batch.InputPath == "" {
		return fmt.Errorf("batch input_path is required")
	}
	if _, err := records.ParseLimit(c.Batch.Limit); err != nil {
		return err
	}

	// Validate phone numbering
	if !regexp.MustCompile(`^[0-9]{1,3}$`).MatchString(c.WhatsApp.CountryCode) {
		return fmt.Errorf("country_code must be 1 to 3 digits, got %q", c.WhatsApp.CountryCode)
	}
	if c.WhatsApp.NationalDigits <= 0 {
		return fmt.Errorf("national_digits must be positive")
	}

	// Validate session config
	switch c.Session.Reuse {
	case "auto", "cached", "fresh":
	default:
		return fmt.Errorf("invalid session reuse: %s (must be auto, cached, or fresh)", c.Session.Reuse)
	}

	// Validate pacing config
	if c.Pacing.MinContactSeconds < 0 {
		return fmt.Errorf("min_contact_seconds must be non-negative")
	}
	if c.Pacing.MaxContactSeconds < c.Pacing.MinContactSeconds {
		return fmt.Errorf("max_contact_seconds must be >= min_contact_seconds")
	}
	if c.Pacing.PhaseSeconds < 0 {
		return fmt.Errorf("phase_seconds must be non-negative")
	}

	// Validate timeouts
	if c.Timeouts.StepSeconds <= 0 || c.Timeouts.VerifySeconds <= 0 ||
		c.Timeouts.LoadSeconds <= 0 || c.Timeouts.LoginSeconds <= 0 || c.Timeouts.PollMs <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}

	// Validate logging config
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	return nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(s string) string {
	// Pattern matches ${VAR} or ${VAR:default}
	pattern := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return pattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name and default value
		parts := pattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		// Get environment variable value
		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}

// RecordLimit returns the parsed batch limit
func (c *Config) RecordLimit() records.Limit {
	l, _ := records.ParseLimit(c.Batch.Limit)
	return l
}

// PhoneRule returns the phone normalization rule
func (c *Config) PhoneRule() records.PhoneRule {
	return records.PhoneRule{CountryCode: c.WhatsApp.CountryCode, NationalDigits: c.WhatsApp.NationalDigits}
}

// GetMinContactDelay returns the minimum wait between records
func (c *Config) GetMinContactDelay() time.Duration {
	return time.Duration(c.Pacing.MinContactSeconds) * time.Second
}

// GetMaxContactDelay returns the maximum wait between records
func (c *Config) GetMaxContactDelay() time.Duration {
	return time.Duration(c.Pacing.MaxContactSeconds) * time.Second
}

// GetPhaseDelay returns the wait between the add and remove phases
func (c *Config) GetPhaseDelay() time.Duration {
	return time.Duration(c.Pacing.PhaseSeconds) * time.Second
}

// GetStepTimeout returns how long to wait for a target before acting
func (c *Config) GetStepTimeout() time.Duration {
	return time.Duration(c.Timeouts.StepSeconds) * time.Second
}

// GetVerifyTimeout returns how long to wait for an activation to take effect
func (c *Config) GetVerifyTimeout() time.Duration {
	return time.Duration(c.Timeouts.VerifySeconds) * time.Second
}

// GetLoadTimeout returns how long a cached session may take to load
func (c *Config) GetLoadTimeout() time.Duration {
	return time.Duration(c.Timeouts.LoadSeconds) * time.Second
}

// GetLoginTimeout returns how long to wait for a QR scan
func (c *Config) GetLoginTimeout() time.Duration {
	return time.Duration(c.Timeouts.LoginSeconds) * time.Second
}

// GetPollInterval returns how often UI conditions are re-checked
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Timeouts.PollMs) * time.Millisecond
}
