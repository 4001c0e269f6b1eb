package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/CyberArcenal/POS-Management-sub008/internal/config"
	"github.com/CyberArcenal/POS-Management-sub008/internal/domain"
	"github.com/google/uuid"
	"gopkg.in/gomail.v2"
)

const implicitTLSPort = 465

// dialSender matches gomail's DialAndSend so tests can stub the transport.
type dialSender interface {
	DialAndSend(msgs ...*gomail.Message) error
}

// SMTPEmailSender sends email through an SMTP relay. Configuration is read
// fresh on every attempt so settings changes take effect on the next retry.
type SMTPEmailSender struct {
	config    config.Provider
	newDialer func(cfg config.SMTPConfig) dialSender
}

func NewSMTPEmailSender(configProvider config.Provider) (*SMTPEmailSender, error) {
	if configProvider == nil {
		return nil, fmt.Errorf("config provider is required")
	}

	return &SMTPEmailSender{
		config:    configProvider,
		newDialer: newGomailDialer,
	}, nil
}

func newGomailDialer(cfg config.SMTPConfig) dialSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	// Port 465 means implicit TLS; anything else stays on the default
	// STARTTLS-capable behavior.
	d.SSL = cfg.Port == implicitTLSPort
	return d
}

func (s *SMTPEmailSender) Send(ctx context.Context, msg EmailMessage) (*EmailResult, error) {
	if s == nil || s.config == nil {
		return nil, fmt.Errorf("email sender is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := s.config.SMTP()
	if !cfg.Enabled {
		return nil, fmt.Errorf("%w: email alerts are disabled", domain.ErrChannelDisabled)
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: smtp host is not set", domain.ErrMissingConfig)
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("%w: smtp from address is not set", domain.ErrMissingConfig)
	}

	msg = applyOverrides(msg)
	if strings.TrimSpace(msg.To) == "" {
		return nil, fmt.Errorf("%w: recipient is required", domain.ErrValidation)
	}

	text := msg.Text
	if text == "" && msg.HTML != "" {
		text = StripTags(msg.HTML)
	}

	fromName := cfg.FromName
	if fromName == "" {
		fromName = cfg.Company
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), cfg.Host)

	m := gomail.NewMessage()
	m.SetAddressHeader("From", cfg.FromEmail, fromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-Id", messageID)
	if cc := stringOption(msg.Options, "cc"); cc != "" {
		m.SetHeader("Cc", cc)
	}
	if bcc := stringOption(msg.Options, "bcc"); bcc != "" {
		m.SetHeader("Bcc", bcc)
	}
	if replyTo := stringOption(msg.Options, "replyTo"); replyTo != "" {
		m.SetHeader("Reply-To", replyTo)
	}

	if text != "" {
		m.SetBody("text/plain", text)
		if msg.HTML != "" {
			m.AddAlternative("text/html", msg.HTML)
		}
	} else {
		m.SetBody("text/html", msg.HTML)
	}

	if err := s.dialAndSend(ctx, cfg, m); err != nil {
		return nil, &SendError{
			Message:   fmt.Sprintf("smtp send to %s via %s:%d failed", msg.To, cfg.Host, cfg.Port),
			Transient: true,
			Cause:     err,
		}
	}

	return &EmailResult{
		MessageID: messageID,
		Response:  fmt.Sprintf("accepted by %s:%d", cfg.Host, cfg.Port),
	}, nil
}

// dialAndSend runs the blocking gomail call under the caller's deadline.
func (s *SMTPEmailSender) dialAndSend(ctx context.Context, cfg config.SMTPConfig, m *gomail.Message) error {
	done := make(chan error, 1)
	go func() {
		done <- s.newDialer(cfg).DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// applyOverrides merges caller options over the computed message fields.
// Overrides win even for to/subject/html; callers own that footgun.
func applyOverrides(msg EmailMessage) EmailMessage {
	if to := stringOption(msg.Options, "to"); to != "" {
		msg.To = to
	}
	if subject := stringOption(msg.Options, "subject"); subject != "" {
		msg.Subject = subject
	}
	if html := stringOption(msg.Options, "html"); html != "" {
		msg.HTML = html
	}
	if text := stringOption(msg.Options, "text"); text != "" {
		msg.Text = text
	}
	return msg
}

func stringOption(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	value, ok := opts[key]
	if !ok {
		return ""
	}
	str, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(str)
}
