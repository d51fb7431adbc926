package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/agency")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ALLOW_ALL", "false")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173")
}

func TestLoadAppliesAutomationDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTOMATION_TIMEZONE", "Europe/Amsterdam")
	t.Setenv("AUTOMATION_MISSING_STATUS_CHANGE", "NOW")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.GetDefaultHorizonDays() != 7 {
		t.Fatalf("expected default horizon 7, got %d", cfg.GetDefaultHorizonDays())
	}
	if cfg.GetMissingStatusChangePolicy() != "now" {
		t.Fatalf("expected lower-cased policy, got %q", cfg.GetMissingStatusChangePolicy())
	}
	if cfg.GetAutomationLocation().String() != "Europe/Amsterdam" {
		t.Fatalf("unexpected location %s", cfg.GetAutomationLocation())
	}
	if cfg.GetForecastCacheTTL() != 5*time.Minute {
		t.Fatalf("unexpected cache ttl %s", cfg.GetForecastCacheTTL())
	}
}

func TestLoadRejectsUnknownMissingStatusPolicy(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTOMATION_MISSING_STATUS_CHANGE", "guess")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unknown policy")
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error when DATABASE_URL is empty")
	}
}

func TestWildcardOriginForcesAllowAll(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.GetCORSAllowAll() {
		t.Fatal("expected wildcard origin to enable CORS allow-all")
	}
}

func TestSMTPEnabledNeedsHostAndSender(t *testing.T) {
	cfg := &Config{SMTPHost: "smtp.example.com"}
	if cfg.IsSMTPEnabled() {
		t.Fatal("smtp should stay disabled without a from address")
	}
	cfg.SMTPFromAddress = "hello@example.com"
	if !cfg.IsSMTPEnabled() {
		t.Fatal("smtp should be enabled with host and from address")
	}
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	cases := map[string]string{
		"AUTOMATION_SEND_HOUR":            "nine",
		"AUTOMATION_DEFAULT_HORIZON_DAYS": "7d",
		"SMTP_PORT":                       "",
		"ASYNQ_CONCURRENCY":               "ten",
		"AUTOMATION_FORECAST_CACHE_TTL":   "5",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			if err == nil {
				t.Fatalf("expected an error for %s=%q", key, value)
			}
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected error to name %s, got %v", key, err)
			}
		})
	}
}

func TestLoadRejectsInvalidCronSpecs(t *testing.T) {
	for _, key := range []string{"AUTOMATION_PLAN_CRON", "EXPORT_BACKUP_CRON"} {
		t.Run(key, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(key, "every night")

			_, err := Load()
			if err == nil {
				t.Fatalf("expected an error for malformed %s", key)
			}
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected error to name %s, got %v", key, err)
			}
		})
	}
}

func TestLoadAllowsDisabledCron(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EXPORT_BACKUP_CRON", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.GetExportBackupCron() != "" {
		t.Fatalf("expected backup cron to stay disabled, got %q", cfg.GetExportBackupCron())
	}
}
