package config

import (
	"fmt"
	"strings"

	"github.com/Netflix/go-env"
)

// Config carries process-level settings loaded from the environment.
type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	RedisURL    string `env:"REDIS_URL"`
	APIPort     int    `env:"API_PORT,default=8080"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	EnableEmailAlerts bool   `env:"ENABLE_EMAIL_ALERTS,default=true"`
	CompanyName       string `env:"COMPANY_NAME"`
	SMTPHost          string `env:"SMTP_HOST"`
	SMTPPort          int    `env:"SMTP_PORT,default=587"`
	SMTPUsername      string `env:"SMTP_USERNAME"`
	SMTPPassword      string `env:"SMTP_PASSWORD"`
	SMTPFromEmail     string `env:"SMTP_FROM_EMAIL"`
	SMTPFromName      string `env:"SMTP_FROM_NAME"`

	TwilioAccountSID          string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken           string `env:"TWILIO_AUTH_TOKEN"`
	TwilioMessagingServiceSID string `env:"TWILIO_MESSAGING_SERVICE_SID"`
	TwilioPhoneNumber         string `env:"TWILIO_PHONE_NUMBER"`
	SMSTrunkPrefix            string `env:"SMS_TRUNK_PREFIX,default=0"`
	SMSCountryCode            string `env:"SMS_COUNTRY_CODE,default=+63"`
	SMSRateLimitPerSec        int    `env:"SMS_RATE_LIMIT_PER_SEC,default=10"`

	MaxSendAttempts      int `env:"MAX_SEND_ATTEMPTS,default=3"`
	RetryDelayMs         int `env:"RETRY_DELAY_MS,default=2000"`
	AttemptTimeoutMs     int `env:"ATTEMPT_TIMEOUT_MS,default=30000"`
	SMSBatchItemDelayMs  int `env:"SMS_BATCH_ITEM_DELAY_MS,default=100"`
	DeliveryQueueBacklog int `env:"DELIVERY_QUEUE_BACKLOG,default=256"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// SMTPConfig is the mail transport view of the configuration.
type SMTPConfig struct {
	Enabled   bool
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	Company   string
}

// TwilioConfig is the SMS transport view of the configuration.
type TwilioConfig struct {
	AccountSID          string
	AuthToken           string
	MessagingServiceSID string
	PhoneNumber         string
	TrunkPrefix         string
	CountryCode         string
}

// Provider supplies transport settings to the channels. Implementations must
// return current values on every call; channels read their configuration per
// attempt rather than caching it at construction.
type Provider interface {
	SMTP() SMTPConfig
	Twilio() TwilioConfig
}

// EnvProvider re-reads the environment on each lookup so configuration
// changes take effect on the next delivery attempt.
type EnvProvider struct{}

func NewEnvProvider() *EnvProvider { return &EnvProvider{} }

func (p *EnvProvider) SMTP() SMTPConfig {
	cfg := p.snapshot()
	return SMTPConfig{
		Enabled:   cfg.EnableEmailAlerts,
		Host:      strings.TrimSpace(cfg.SMTPHost),
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		FromEmail: strings.TrimSpace(cfg.SMTPFromEmail),
		FromName:  strings.TrimSpace(cfg.SMTPFromName),
		Company:   strings.TrimSpace(cfg.CompanyName),
	}
}

func (p *EnvProvider) Twilio() TwilioConfig {
	cfg := p.snapshot()
	return TwilioConfig{
		AccountSID:          strings.TrimSpace(cfg.TwilioAccountSID),
		AuthToken:           cfg.TwilioAuthToken,
		MessagingServiceSID: strings.TrimSpace(cfg.TwilioMessagingServiceSID),
		PhoneNumber:         strings.TrimSpace(cfg.TwilioPhoneNumber),
		TrunkPrefix:         cfg.SMSTrunkPrefix,
		CountryCode:         cfg.SMSCountryCode,
	}
}

func (p *EnvProvider) snapshot() Config {
	var cfg Config
	// Transport views only consume optional fields; missing credentials are
	// reported by the channels themselves, so required-field errors from the
	// full struct are ignored here.
	_, _ = env.UnmarshalFromEnviron(&cfg)
	return cfg
}

// StaticProvider returns fixed settings; used by tests and embedded setups.
type StaticProvider struct {
	SMTPConfig   SMTPConfig
	TwilioConfig TwilioConfig
}

func (p *StaticProvider) SMTP() SMTPConfig     { return p.SMTPConfig }
func (p *StaticProvider) Twilio() TwilioConfig { return p.TwilioConfig }
