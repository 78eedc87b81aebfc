package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config mirrors the layout of config.json.
type Config struct {
	Credentials CredentialsConfig `json:"credentials"`
	Source      FolderConfig      `json:"source"`
	Destination FolderConfig      `json:"destination"`
	Test        TestConfig        `json:"test"`
	Logging     LoggingConfig     `json:"logging"`
	Performance PerformanceConfig `json:"performance"`
	Migration   MigrationConfig   `json:"migration"`
}

// CredentialsConfig points at the OAuth artifacts.
type CredentialsConfig struct {
	ClientSecretsPath string `json:"client_secrets_path"`
	TokenPath         string `json:"token_path"`
}

// FolderConfig names one remote root.
type FolderConfig struct {
	FolderID string `json:"folder_id"`
}

// TestConfig names the folder pair used by test mode.
type TestConfig struct {
	SourceFolderID      string `json:"source_folder_id"`
	DestinationFolderID string `json:"destination_folder_id"`
}

// LoggingConfig controls the log sink.
type LoggingConfig struct {
	LogDirectory string `json:"log_directory"`
	LogLevel     string `json:"log_level"`
}

// PerformanceConfig carries the operator's rate budget.
type PerformanceConfig struct {
	UserRateLimit  int `json:"user_rate_limit"`
	UserTimeWindow int `json:"user_time_window"` // seconds
	Workers        int `json:"workers"`
}

// MigrationConfig tunes the sync pass itself.
type MigrationConfig struct {
	BatchSize       int   `json:"batch_size"`
	MaxRetries      int   `json:"max_retries"`
	AutoFixMissing  bool  `json:"auto_fix_missing"`
	FinalValidation *bool `json:"final_validation"` // nil means on
}

// Load reads, validates and defaults a config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("configuration file not found at %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid JSON in configuration file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) validate() error {
	required := []struct {
		field string
		value string
	}{
		{"credentials.client_secrets_path", c.Credentials.ClientSecretsPath},
		{"credentials.token_path", c.Credentials.TokenPath},
		{"source.folder_id", c.Source.FolderID},
		{"destination.folder_id", c.Destination.FolderID},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing required configuration field: %s", r.field)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Performance.UserRateLimit <= 0 {
		c.Performance.UserRateLimit = 1000
	}
	if c.Performance.UserTimeWindow <= 0 {
		c.Performance.UserTimeWindow = 60
	}
	if c.Performance.Workers <= 0 {
		c.Performance.Workers = 1
	}
	if c.Migration.BatchSize <= 0 {
		c.Migration.BatchSize = 100
	}
	if c.Migration.MaxRetries <= 0 {
		c.Migration.MaxRetries = 10
	}
	if c.Logging.LogLevel == "" {
		c.Logging.LogLevel = "info"
	}
}

// TimeWindow returns the rate window as a duration.
func (c *Config) TimeWindow() time.Duration {
	return time.Duration(c.Performance.UserTimeWindow) * time.Second
}

// FinalValidation reports whether the post-copy validation pass is enabled
// (the default).
func (c *Config) FinalValidation() bool {
	return c.Migration.FinalValidation == nil || *c.Migration.FinalValidation
}

// LogFilePath returns a timestamped log file path inside the configured log
// directory, creating the directory if needed. Empty when no directory is
// configured.
func (c *Config) LogFilePath(now time.Time) (string, error) {
	if c.Logging.LogDirectory == "" {
		return "", nil
	}
	if err := os.MkdirAll(c.Logging.LogDirectory, 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}
	name := fmt.Sprintf("sync_log_%s.log", now.Format("20060102_150405"))
	return filepath.Join(c.Logging.LogDirectory, name), nil
}
