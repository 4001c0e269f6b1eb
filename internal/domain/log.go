package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a notification log row.
type Status string

const (
	StatusQueued Status = "QUEUED"
	StatusResend Status = "RESEND"
	StatusSent   Status = "SENT"
	StatusFailed Status = "FAILED"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusQueued, StatusResend, StatusSent, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the status ends an attempt.
func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusFailed
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Channel represents the delivery channel.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS:
		return true
	}
	return false
}

func ParseChannelFromString(s string) (Channel, error) {
	ch := Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !ch.IsValid() {
		return "", fmt.Errorf("%w: invalid channel %q", ErrValidation, s)
	}
	return ch, nil
}

// NotificationLog is the durable audit record of one logical dispatch.
// All attempts for the same dispatch update the same row.
type NotificationLog struct {
	ID            string
	CorrelationID string
	Channel       Channel
	Recipient     string
	Subject       string
	Payload       string
	Status        Status
	RetryCount    int
	ResendCount   int
	ErrorMessage  *string
	SentAt        *time.Time
	LastErrorAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (l *NotificationLog) Validate() error {
	if l == nil {
		return fmt.Errorf("%w: log record is required", ErrValidation)
	}
	if strings.TrimSpace(l.Recipient) == "" {
		return fmt.Errorf("%w: recipient is required", ErrValidation)
	}
	if !l.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", ErrValidation, l.Channel)
	}
	if !l.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, l.Status)
	}
	if l.RetryCount < 0 {
		return fmt.Errorf("%w: retry count must not be negative", ErrValidation)
	}
	return nil
}
