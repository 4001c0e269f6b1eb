package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/CyberArcenal/POS-Management-sub008/internal/config"
	"github.com/CyberArcenal/POS-Management-sub008/internal/domain"
	"github.com/CyberArcenal/POS-Management-sub008/internal/ratelimit"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultTwilioBaseURL = "https://api.twilio.com"
	defaultSMSTimeout    = 10 * time.Second
	defaultBatchDelay    = 100 * time.Millisecond
)

type twilioMessageResponse struct {
	SID          string  `json:"sid"`
	Status       string  `json:"status"`
	Price        *string `json:"price"`
	ErrorCode    *int    `json:"code"`
	ErrorMessage string  `json:"message"`
}

// TwilioSMSSender sends SMS through the Twilio Messages API. The HTTP client
// is initialized lazily on first use; credentials are read fresh per send.
type TwilioSMSSender struct {
	config     config.Provider
	limiter    ratelimit.RateLimiter
	logger     *zap.Logger
	baseURL    string
	batchDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	client *resty.Client
}

type TwilioOption func(*TwilioSMSSender)

// WithBaseURL points the sender at a different API host; used in tests.
func WithBaseURL(url string) TwilioOption {
	return func(s *TwilioSMSSender) { s.baseURL = strings.TrimRight(url, "/") }
}

// WithBatchDelay overrides the fixed inter-item delay for batch sends.
func WithBatchDelay(d time.Duration) TwilioOption {
	return func(s *TwilioSMSSender) { s.batchDelay = d }
}

// WithRateLimiter adds a cross-process throttle consulted before each send.
func WithRateLimiter(limiter ratelimit.RateLimiter) TwilioOption {
	return func(s *TwilioSMSSender) { s.limiter = limiter }
}

func NewTwilioSMSSender(configProvider config.Provider, logger *zap.Logger, opts ...TwilioOption) (*TwilioSMSSender, error) {
	if configProvider == nil {
		return nil, fmt.Errorf("config provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &TwilioSMSSender{
		config:     configProvider,
		logger:     logger,
		baseURL:    defaultTwilioBaseURL,
		batchDelay: defaultBatchDelay,
		sleep:      sleepWithContext,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *TwilioSMSSender) httpClient() *resty.Client {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		client := resty.New()
		client.SetTimeout(defaultSMSTimeout)
		client.SetRetryCount(0)
		s.client = client
	}
	return s.client
}

// Send performs one SMS send attempt. Transport failures propagate to the
// caller; the caller decides whether to retry.
func (s *TwilioSMSSender) Send(ctx context.Context, to, message string, opts map[string]any) (*SMSResult, error) {
	if s == nil || s.config == nil {
		return nil, fmt.Errorf("sms sender is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := s.config.Twilio()
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, fmt.Errorf("%w: twilio credentials are not set", domain.ErrMissingConfig)
	}
	if cfg.MessagingServiceSID == "" && cfg.PhoneNumber == "" {
		return nil, fmt.Errorf("%w: twilio sender identity is not set", domain.ErrMissingConfig)
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message body is required", domain.ErrValidation)
	}

	recipient := NormalizeNumber(to, cfg.TrunkPrefix, cfg.CountryCode)
	if recipient == "" {
		return nil, fmt.Errorf("%w: recipient number is required", domain.ErrValidation)
	}

	form := map[string]string{
		"To":   recipient,
		"Body": message,
	}
	// Messaging service identity wins over a raw sender number.
	if cfg.MessagingServiceSID != "" {
		form["MessagingServiceSid"] = cfg.MessagingServiceSID
	} else {
		form["From"] = cfg.PhoneNumber
	}
	for key, value := range opts {
		str, ok := value.(string)
		if !ok || strings.TrimSpace(str) == "" {
			continue
		}
		form[key] = str
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, cfg.AccountSID)

	var body twilioMessageResponse
	response, err := s.httpClient().R().
		SetContext(ctx).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetFormData(form).
		SetResult(&body).
		SetError(&body).
		Post(endpoint)
	if err != nil {
		return nil, &SendError{
			Message:   "sms gateway request failed",
			Transient: ctx.Err() == nil,
			Cause:     err,
		}
	}

	statusCode := response.StatusCode()
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		msg := strings.TrimSpace(body.ErrorMessage)
		if msg == "" {
			msg = fmt.Sprintf("sms gateway returned status %d", statusCode)
		}
		return nil, &SendError{
			StatusCode: statusCode,
			Message:    msg,
			Transient:  isTransientHTTPStatus(statusCode),
		}
	}

	price := ""
	if body.Price != nil {
		price = *body.Price
	}

	return &SMSResult{
		SID:    body.SID,
		Status: body.Status,
		Price:  price,
	}, nil
}

// SendBatch sends to each recipient in order with a fixed delay between
// items, respecting gateway rate limits. Per-recipient failures are captured
// in the result slice; the batch itself never fails.
func (s *TwilioSMSSender) SendBatch(ctx context.Context, recipients []string, message string, opts map[string]any) []SMSBatchResult {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]SMSBatchResult, 0, len(recipients))
	for i, recipient := range recipients {
		if i > 0 {
			if err := s.throttle(ctx); err != nil {
				results = append(results, SMSBatchResult{Recipient: recipient, Error: err.Error()})
				continue
			}
		}

		sent, err := s.Send(ctx, recipient, message, opts)
		if err != nil {
			s.logger.Warn("batch sms send failed",
				zap.String("recipient", recipient),
				zap.Error(err),
			)
			results = append(results, SMSBatchResult{Recipient: recipient, Error: err.Error()})
			continue
		}

		results = append(results, SMSBatchResult{
			Recipient: recipient,
			Success:   true,
			SID:       sent.SID,
			Status:    sent.Status,
		})
	}

	return results
}

func (s *TwilioSMSSender) throttle(ctx context.Context) error {
	if s.batchDelay > 0 {
		if err := s.sleep(ctx, s.batchDelay); err != nil {
			return err
		}
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, strings.ToLower(domain.ChannelSMS.String())); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeNumber reduces a raw phone number to digits, then rewrites a local
// trunk prefix into the configured country calling code. The substitution is
// country-specific; both pieces come from configuration.
func NormalizeNumber(raw, trunkPrefix, countryCode string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	number := digits.String()
	if number == "" {
		return ""
	}

	if trunkPrefix != "" && strings.HasPrefix(number, trunkPrefix) {
		return countryCode + number[len(trunkPrefix):]
	}
	return "+" + number
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
