// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides Redis and asynq settings for background jobs.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketLeadExports() string
	IsMinIOEnabled() bool
}

// SMTPConfig provides settings for drip message delivery.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFromName() string
	GetSMTPFromAddress() string
	IsSMTPEnabled() bool
}

// AutomationConfig provides settings for the drip forecast planner and dispatch.
type AutomationConfig interface {
	GetSequencesFile() string
	GetAutomationLocation() *time.Location
	GetMissingStatusChangePolicy() string
	GetDefaultHorizonDays() int
	GetForecastCacheTTL() time.Duration
	GetPlanCron() string
	GetSendHour() int
}

// ExportConfig provides settings for CSV exports and backups.
type ExportConfig interface {
	GetExportFilePrefix() string
	GetExportBackupCron() string
	GetAutomationLocation() *time.Location
}

// PhoneConfig provides the default region for phone normalization.
type PhoneConfig interface {
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                       string
	HTTPAddr                  string
	DatabaseURL               string
	JWTAccessSecret           string
	CORSAllowAll              bool
	CORSOrigins               []string
	CORSAllowCreds            bool
	RedisURL                  string
	RedisTLSInsecure          bool
	AsynqQueueName            string
	AsynqConcurrency          int
	MinIOEndpoint             string
	MinIOAccessKey            string
	MinIOSecretKey            string
	MinIOUseSSL               bool
	MinioBucketLeadExports    string
	SMTPHost                  string
	SMTPPort                  int
	SMTPUsername              string
	SMTPPassword              string
	SMTPFromName              string
	SMTPFromAddress           string
	SequencesFile             string
	AutomationTimezone        string
	AutomationLocation        *time.Location
	MissingStatusChangePolicy string
	DefaultHorizonDays        int
	ForecastCacheTTL          time.Duration
	PlanCron                  string
	SendHour                  int
	ExportFilePrefix          string
	ExportBackupCron          string
	PhoneDefaultRegion        string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string        { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool  { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string  { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int   { return c.AsynqConcurrency }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string          { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string         { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string         { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool              { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketLeadExports() string { return c.MinioBucketLeadExports }
func (c *Config) IsMinIOEnabled() bool              { return c.MinIOEndpoint != "" }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string        { return c.SMTPHost }
func (c *Config) GetSMTPPort() int           { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string    { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string    { return c.SMTPPassword }
func (c *Config) GetSMTPFromName() string    { return c.SMTPFromName }
func (c *Config) GetSMTPFromAddress() string { return c.SMTPFromAddress }
func (c *Config) IsSMTPEnabled() bool        { return c.SMTPHost != "" && c.SMTPFromAddress != "" }

// AutomationConfig implementation
func (c *Config) GetSequencesFile() string               { return c.SequencesFile }
func (c *Config) GetMissingStatusChangePolicy() string   { return c.MissingStatusChangePolicy }
func (c *Config) GetDefaultHorizonDays() int             { return c.DefaultHorizonDays }
func (c *Config) GetForecastCacheTTL() time.Duration     { return c.ForecastCacheTTL }
func (c *Config) GetPlanCron() string                    { return c.PlanCron }
func (c *Config) GetSendHour() int                       { return c.SendHour }
func (c *Config) GetAutomationLocation() *time.Location {
	if c.AutomationLocation == nil {
		return time.UTC
	}
	return c.AutomationLocation
}

// ExportConfig implementation
func (c *Config) GetExportFilePrefix() string { return c.ExportFilePrefix }
func (c *Config) GetExportBackupCron() string { return c.ExportBackupCron }

// PhoneConfig implementation
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	env := &envReader{}
	cfg := &Config{
		Env:                       getEnv("APP_ENV", "development"),
		HTTPAddr:                  getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:               getEnv("DATABASE_URL", ""),
		JWTAccessSecret:           getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:              corsAllowAll,
		CORSOrigins:               corsOrigins,
		CORSAllowCreds:            strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:                  getEnv("REDIS_URL", ""),
		RedisTLSInsecure:          strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:            getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:          env.intVar("ASYNQ_CONCURRENCY", "10"),
		MinIOEndpoint:             getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:            getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:            getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:               strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketLeadExports:    getEnv("MINIO_BUCKET_LEAD_EXPORTS", "lead-exports"),
		SMTPHost:                  getEnv("SMTP_HOST", ""),
		SMTPPort:                  env.intVar("SMTP_PORT", "587"),
		SMTPUsername:              getEnv("SMTP_USERNAME", ""),
		SMTPPassword:              getEnv("SMTP_PASSWORD", ""),
		SMTPFromName:              getEnv("SMTP_FROM_NAME", "Agency"),
		SMTPFromAddress:           getEnv("SMTP_FROM_ADDRESS", ""),
		SequencesFile:             getEnv("AUTOMATION_SEQUENCES_FILE", "config/sequences.yaml"),
		AutomationTimezone:        getEnv("AUTOMATION_TIMEZONE", "UTC"),
		MissingStatusChangePolicy: strings.ToLower(getEnv("AUTOMATION_MISSING_STATUS_CHANGE", "now")),
		DefaultHorizonDays:        env.intVar("AUTOMATION_DEFAULT_HORIZON_DAYS", "7"),
		ForecastCacheTTL:          env.durationVar("AUTOMATION_FORECAST_CACHE_TTL", "5m"),
		PlanCron:                  getEnv("AUTOMATION_PLAN_CRON", "5 0 * * *"),
		SendHour:                  env.intVar("AUTOMATION_SEND_HOUR", "9"),
		ExportFilePrefix:          getEnv("EXPORT_FILE_PREFIX", "leads_backup"),
		ExportBackupCron:          getEnv("EXPORT_BACKUP_CRON", "30 2 * * *"),
		PhoneDefaultRegion:        strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "US")),
	}
	if err := env.err(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.AutomationTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTOMATION_TIMEZONE %q: %w", cfg.AutomationTimezone, err)
	}
	cfg.AutomationLocation = loc

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	switch c.MissingStatusChangePolicy {
	case "now", "skip":
	default:
		return fmt.Errorf("AUTOMATION_MISSING_STATUS_CHANGE must be \"now\" or \"skip\", got %q", c.MissingStatusChangePolicy)
	}
	if c.DefaultHorizonDays < 0 {
		return fmt.Errorf("AUTOMATION_DEFAULT_HORIZON_DAYS must be >= 0")
	}
	if c.SendHour < 0 || c.SendHour > 23 {
		return fmt.Errorf("AUTOMATION_SEND_HOUR must be between 0 and 23")
	}
	if c.ForecastCacheTTL < 0 {
		return fmt.Errorf("AUTOMATION_FORECAST_CACHE_TTL must be >= 0")
	}
	if err := validateCron("AUTOMATION_PLAN_CRON", c.PlanCron); err != nil {
		return err
	}
	if err := validateCron("EXPORT_BACKUP_CRON", c.ExportBackupCron); err != nil {
		return err
	}
	return nil
}

// validateCron accepts an empty spec, which disables the job.
func validateCron(key, spec string) error {
	if strings.TrimSpace(spec) == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, spec, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// envReader parses typed variables and collects every malformed value so
// that Load reports them together.
type envReader struct {
	errs []error
}

func (r *envReader) intVar(key, fallback string) int {
	raw := strings.TrimSpace(getEnv(key, fallback))
	result, err := strconv.Atoi(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: must be an integer", key, raw))
		return 0
	}
	return result
}

func (r *envReader) durationVar(key, fallback string) time.Duration {
	raw := strings.TrimSpace(getEnv(key, fallback))
	d, err := time.ParseDuration(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: must be a duration such as 5m", key, raw))
		return 0
	}
	return d
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
