// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
)

// Config holds application configuration.
type Config struct {
	Host     string
	Port     int
	Mode     domain.EngineMode
	DataDir  string // empty disables the decision archive
	LogLevel string
	Pretty   bool

	// TickDeadline bounds one pipeline pass.
	TickDeadline time.Duration

	Backup BackupConfig
}

// BackupConfig holds the optional S3-compatible archive backup settings.
// Backups stay disabled unless a bucket is configured.
type BackupConfig struct {
	Bucket        string
	Endpoint      string // custom endpoint for S3-compatible stores, empty for AWS
	Region        string
	AccessKey     string
	SecretKey     string
	Schedule      string // cron spec
	RetentionDays int
}

// Enabled reports whether backups are configured.
func (b BackupConfig) Enabled() bool {
	return b.Bucket != ""
}

// Load reads .env (when present) and the AGENTE_* environment variables.
func Load() (*Config, error) {
	// Missing .env is fine; the environment may be set by the supervisor.
	_ = godotenv.Load()

	cfg := &Config{
		Host:         getEnv("AGENTE_HOST", "127.0.0.1"),
		Port:         getEnvAsInt("AGENTE_PORT", 3100),
		Mode:         domain.EngineMode(getEnv("AGENTE_MODE", string(domain.ModeAutonomous))),
		DataDir:      getEnv("AGENTE_DATA_DIR", ""),
		LogLevel:     getEnv("AGENTE_LOG_LEVEL", "info"),
		Pretty:       getEnvAsBool("AGENTE_LOG_PRETTY", false),
		TickDeadline: time.Duration(getEnvAsInt("AGENTE_TICK_DEADLINE_MS", 10000)) * time.Millisecond,
		Backup: BackupConfig{
			Bucket:        getEnv("AGENTE_BACKUP_BUCKET", ""),
			Endpoint:      getEnv("AGENTE_BACKUP_ENDPOINT", ""),
			Region:        getEnv("AGENTE_BACKUP_REGION", "auto"),
			AccessKey:     getEnv("AGENTE_BACKUP_ACCESS_KEY", ""),
			SecretKey:     getEnv("AGENTE_BACKUP_SECRET_KEY", ""),
			Schedule:      getEnv("AGENTE_BACKUP_SCHEDULE", "@daily"),
			RetentionDays: getEnvAsInt("AGENTE_BACKUP_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.DataDir != "" {
		abs, err := filepath.Abs(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("resolve data directory: %w", err)
		}
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		cfg.DataDir = abs
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("AGENTE_PORT %d out of range", c.Port)
	}
	switch c.Mode {
	case domain.ModeAutonomous, domain.ModeAdvisor:
	default:
		return fmt.Errorf("AGENTE_MODE %q is not autonomous or advisor", c.Mode)
	}
	if c.Backup.Enabled() && (c.Backup.AccessKey == "" || c.Backup.SecretKey == "") {
		return fmt.Errorf("backup bucket %q configured without credentials", c.Backup.Bucket)
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
