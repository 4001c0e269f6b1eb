package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/CyberArcenal/POS-Management-sub008/internal/domain"
)

// DeadLetterMessage describes a dispatch job that exhausted its retries in
// asynchronous mode.
type DeadLetterMessage struct {
	Channel       domain.Channel `json:"channel"`
	Recipient     string         `json:"recipient"`
	Subject       string         `json:"subject,omitempty"`
	CorrelationID string         `json:"correlationId,omitempty"`
	LogRowID      string         `json:"logRowId,omitempty"`
	Attempts      int            `json:"attempts"`
	Error         string         `json:"error"`
	FailedAt      time.Time      `json:"failedAt"`
}

func (m DeadLetterMessage) Validate() error {
	if !m.Channel.IsValid() {
		return fmt.Errorf("invalid channel %q", m.Channel)
	}
	if strings.TrimSpace(m.Recipient) == "" {
		return fmt.Errorf("recipient is required")
	}
	if strings.TrimSpace(m.Error) == "" {
		return fmt.Errorf("error is required")
	}
	return nil
}
