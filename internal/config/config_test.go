package config

import (
	"os"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_DSN", "host=localhost user=test password=test dbname=test port=5432 sslmode=disable")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", cfg.APIPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
	if cfg.MaxSendAttempts != 3 {
		t.Errorf("MaxSendAttempts = %d, want 3", cfg.MaxSendAttempts)
	}
	if cfg.RetryDelayMs != 2000 {
		t.Errorf("RetryDelayMs = %d, want 2000", cfg.RetryDelayMs)
	}
	if cfg.SMSBatchItemDelayMs != 100 {
		t.Errorf("SMSBatchItemDelayMs = %d, want 100", cfg.SMSBatchItemDelayMs)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
	if !cfg.EnableEmailAlerts {
		t.Error("EnableEmailAlerts should default to true")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAX_SEND_ATTEMPTS", "5")
	t.Setenv("ENABLE_EMAIL_ALERTS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", cfg.APIPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.MaxSendAttempts != 5 {
		t.Errorf("MaxSendAttempts = %d, want 5", cfg.MaxSendAttempts)
	}
	if cfg.EnableEmailAlerts {
		t.Error("EnableEmailAlerts should be false")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	// t.Setenv registers the restore; the variable must then be truly unset
	// because go-env treats set-but-empty as present.
	t.Setenv("DATABASE_DSN", "")
	os.Unsetenv("DATABASE_DSN")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required env vars, got nil")
	}
}

func TestEnvProviderReadsFreshValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMTP_HOST", "mail-a.example.com")

	p := NewEnvProvider()
	if got := p.SMTP().Host; got != "mail-a.example.com" {
		t.Fatalf("SMTP().Host = %q, want mail-a.example.com", got)
	}

	// Channel configuration is read per attempt, not cached.
	t.Setenv("SMTP_HOST", "mail-b.example.com")
	if got := p.SMTP().Host; got != "mail-b.example.com" {
		t.Fatalf("SMTP().Host after change = %q, want mail-b.example.com", got)
	}
}

func TestEnvProviderTwilioDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TWILIO_ACCOUNT_SID", " AC123 ")

	p := NewEnvProvider()
	tw := p.Twilio()
	if tw.AccountSID != "AC123" {
		t.Errorf("AccountSID = %q, want AC123", tw.AccountSID)
	}
	if tw.TrunkPrefix != "0" {
		t.Errorf("TrunkPrefix = %q, want 0", tw.TrunkPrefix)
	}
	if tw.CountryCode != "+63" {
		t.Errorf("CountryCode = %q, want +63", tw.CountryCode)
	}
}
