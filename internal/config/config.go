// Package config loads ARA settings from .ara/config.json with ARA_* overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the ARA configuration.
type Config struct {
	Version      int                `json:"version" mapstructure:"version"`
	Database     DatabaseConfig     `json:"database" mapstructure:"database"`
	Log          LogConfig          `json:"log" mapstructure:"log"`
	Matching     MatchingConfig     `json:"matching" mapstructure:"matching"`
	Notification NotificationConfig `json:"notification" mapstructure:"notification"`
	Project      ProjectConfig      `json:"project" mapstructure:"project"`
}

// DatabaseConfig selects the sqlite driver and file.
type DatabaseConfig struct {
	Driver string `json:"driver" mapstructure:"driver"` // "sqlite3" (mattn) or "sqlite" (modernc)
	Path   string `json:"path,omitempty" mapstructure:"path"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"` // "text" or "json"
}

// MatchingConfig tunes automatic assignment.
type MatchingConfig struct {
	Pushdown  bool `json:"pushdown" mapstructure:"pushdown"`
	Workers   int  `json:"workers" mapstructure:"workers"`
	BatchSize int  `json:"batchSize" mapstructure:"batchSize"`
}

// NotificationConfig configures the quality email sent on finished executions.
// An empty SMTP host logs notifications instead of mailing them.
type NotificationConfig struct {
	SMTP       SMTPConfig `json:"smtp" mapstructure:"smtp"`
	Recipients []string   `json:"recipients,omitempty" mapstructure:"recipients"`
}

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string `json:"host,omitempty" mapstructure:"host"`
	Port     int    `json:"port" mapstructure:"port"`
	Username string `json:"username,omitempty" mapstructure:"username"`
	Password string `json:"password,omitempty" mapstructure:"password"`
	From     string `json:"from,omitempty" mapstructure:"from"`
}

// ProjectConfig holds the project used when a command gets no --project flag.
type ProjectConfig struct {
	Default int64 `json:"default" mapstructure:"default"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		Database: DatabaseConfig{Driver: "sqlite3"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Matching: MatchingConfig{Pushdown: true, Workers: 4, BatchSize: 500},
		Notification: NotificationConfig{
			SMTP: SMTPConfig{Port: 25},
		},
		Project: ProjectConfig{Default: 1},
	}
}

// LoadConfig reads .ara/config.json from dir.
// A missing file yields the defaults; ARA_* environment variables override
// both (ARA_DATABASE_PATH, ARA_MATCHING_PUSHDOWN, ...).
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(dir, ".ara"))

	v.SetEnvPrefix("ARA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it on Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("matching.pushdown", d.Matching.Pushdown)
	v.SetDefault("matching.workers", d.Matching.Workers)
	v.SetDefault("matching.batchSize", d.Matching.BatchSize)
	v.SetDefault("notification.smtp.host", d.Notification.SMTP.Host)
	v.SetDefault("notification.smtp.port", d.Notification.SMTP.Port)
	v.SetDefault("notification.smtp.username", d.Notification.SMTP.Username)
	v.SetDefault("notification.smtp.password", d.Notification.SMTP.Password)
	v.SetDefault("notification.smtp.from", d.Notification.SMTP.From)
	v.SetDefault("notification.recipients", d.Notification.Recipients)
	v.SetDefault("project.default", d.Project.Default)
}

// SaveConfig writes config.json to dir/.ara.
func SaveConfig(dir string, cfg *Config) error {
	araDir := filepath.Join(dir, ".ara")
	if err := os.MkdirAll(araDir, 0755); err != nil {
		return fmt.Errorf("failed to create .ara dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(araDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Validate checks the values LoadConfig cannot coerce.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "sqlite":
	default:
		return &ConfigError{Field: "database.driver", Message: fmt.Sprintf("unsupported driver %q", c.Database.Driver)}
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return &ConfigError{Field: "log.format", Message: fmt.Sprintf("unsupported format %q", c.Log.Format)}
	}
	if c.Matching.Workers < 1 {
		return &ConfigError{Field: "matching.workers", Message: "must be at least 1"}
	}
	if c.Matching.BatchSize < 2 {
		return &ConfigError{Field: "matching.batchSize", Message: "must be at least 2"}
	}
	return nil
}

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
