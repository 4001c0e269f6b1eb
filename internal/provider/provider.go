package provider

import "context"

// EmailMessage is one outbound email delivery attempt.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
	// Options are caller-supplied transport overrides, merged last. They can
	// override computed defaults including to, subject and html.
	Options map[string]any
}

// EmailResult stores transport call metadata for audit and persistence.
type EmailResult struct {
	MessageID string
	Response  string
}

// EmailSender performs one blocking email send attempt.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) (*EmailResult, error)
}

// SMSResult is the gateway acknowledgment for a single SMS send.
type SMSResult struct {
	SID    string
	Status string
	Price  string
}

// SMSBatchResult is the per-recipient outcome of a batch send. Partial
// failure is the expected outcome of a batch, not an exceptional one.
type SMSBatchResult struct {
	Recipient string
	Success   bool
	SID       string
	Status    string
	Error     string
}

// SMSSender performs direct and batched SMS sends.
type SMSSender interface {
	Send(ctx context.Context, to, message string, opts map[string]any) (*SMSResult, error)
	SendBatch(ctx context.Context, recipients []string, message string, opts map[string]any) []SMSBatchResult
}
