package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CyberArcenal/POS-Management-sub008/internal/domain"
	"github.com/CyberArcenal/POS-Management-sub008/internal/logstore"
	"github.com/CyberArcenal/POS-Management-sub008/internal/provider"
	"github.com/CyberArcenal/POS-Management-sub008/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EmailParams describes one email to deliver.
type EmailParams struct {
	To      string
	Subject string
	HTML    string
	Text    string
	// Options are transport overrides passed through to the email sender,
	// merged after the computed message fields.
	Options map[string]any
	// CorrelationID ties the delivery log rows back to the caller's
	// workflow. Generated when empty.
	CorrelationID string
	// Sync runs the delivery on the caller's goroutine instead of the
	// lane, so the caller observes the terminal outcome directly.
	Sync bool
}

// SendReceipt is the immediate answer to an email send request. For
// asynchronous sends only Queued and CorrelationID are populated; the
// delivery log carries the eventual outcome.
type SendReceipt struct {
	CorrelationID string
	Queued        bool
	RowID         string
	MessageID     string
	Attempts      int
}

// SMSReceipt is the gateway acknowledgment for a direct SMS send.
type SMSReceipt struct {
	RowID  string
	SID    string
	Status string
	Price  string
}

type jobDispatcher interface {
	Dispatch(ctx context.Context, job DispatchJob) (*DispatchResult, error)
}

// Lane accepts delivery tasks, in order, one at a time.
type Lane interface {
	Enqueue(task queue.Task) error
	RunInline(ctx context.Context, task queue.Task) error
}

// Notifier is the notification entrypoint: it validates requests, hands email
// jobs to the delivery lane (or runs them inline for synchronous callers) and
// performs SMS sends directly against the gateway.
type Notifier struct {
	email      provider.EmailSender
	sms        provider.SMSSender
	store      AttemptRecorder
	lane       Lane
	deadLetter queue.DeadLetterPublisher
	logger     *zap.Logger

	emailDispatch jobDispatcher
	smsDispatch   jobDispatcher
	now           func() time.Time
}

func NewNotifier(
	email provider.EmailSender,
	sms provider.SMSSender,
	store AttemptRecorder,
	lane Lane,
	deadLetter queue.DeadLetterPublisher,
	policy RetryPolicy,
	metrics DispatchMetrics,
	logger *zap.Logger,
) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	policy = policy.normalized()

	// SMS sends get exactly one attempt; retrying a text risks double
	// delivery because gateways ack before carriers do.
	smsPolicy := policy
	smsPolicy.MaxAttempts = 1

	return &Notifier{
		email:         email,
		sms:           sms,
		store:         store,
		lane:          lane,
		deadLetter:    deadLetter,
		logger:        logger,
		emailDispatch: NewDispatcher(store, policy, metrics, logger),
		smsDispatch:   NewDispatcher(store, smsPolicy, metrics, logger),
		now:           time.Now,
	}
}

// SendEmail queues an email for delivery. With params.Sync the delivery runs
// to its terminal state before returning; otherwise the method returns as
// soon as the job is on the lane.
func (n *Notifier) SendEmail(ctx context.Context, params EmailParams) (*SendReceipt, error) {
	if n.email == nil {
		return nil, fmt.Errorf("%w: email sender is not configured", domain.ErrChannelDisabled)
	}
	if strings.TrimSpace(params.To) == "" {
		return nil, fmt.Errorf("%w: recipient is required", domain.ErrValidation)
	}
	if strings.TrimSpace(params.HTML) == "" && strings.TrimSpace(params.Text) == "" {
		return nil, fmt.Errorf("%w: email body is required", domain.ErrValidation)
	}
	if params.CorrelationID == "" {
		params.CorrelationID = uuid.NewString()
	}

	job := DispatchJob{
		Channel:       domain.ChannelEmail,
		Recipient:     params.To,
		Subject:       params.Subject,
		Payload:       params.HTML,
		CorrelationID: params.CorrelationID,
		Attempt: func(ctx context.Context) (string, error) {
			res, err := n.email.Send(ctx, provider.EmailMessage{
				To:      params.To,
				Subject: params.Subject,
				HTML:    params.HTML,
				Text:    params.Text,
				Options: params.Options,
			})
			if err != nil {
				return "", err
			}
			return res.MessageID, nil
		},
	}

	if params.Sync {
		var result *DispatchResult
		err := n.lane.RunInline(ctx, queue.Task{
			Name: "email:" + params.To,
			Run: func(ctx context.Context) error {
				var dispatchErr error
				result, dispatchErr = n.emailDispatch.Dispatch(ctx, job)
				return dispatchErr
			},
		})
		// Sync callers observe the terminal error directly; the dead-letter
		// channel exists for async failures nobody is waiting on.
		if err != nil {
			return nil, err
		}
		return &SendReceipt{
			CorrelationID: params.CorrelationID,
			RowID:         result.RowID,
			MessageID:     result.MessageID,
			Attempts:      result.Attempts,
		}, nil
	}

	err := n.lane.Enqueue(queue.Task{
		Name: "email:" + params.To,
		Run: func(ctx context.Context) error {
			result, dispatchErr := n.emailDispatch.Dispatch(ctx, job)
			if dispatchErr != nil {
				n.publishDeadLetter(ctx, job, result, dispatchErr)
				return dispatchErr
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to queue email to %s: %w", params.To, err)
	}

	return &SendReceipt{CorrelationID: params.CorrelationID, Queued: true}, nil
}

// SendSMS sends one text message directly, without retries, and returns the
// gateway acknowledgment. The attempt is still recorded in the delivery log.
func (n *Notifier) SendSMS(ctx context.Context, to, message string, opts map[string]any) (*SMSReceipt, error) {
	if n.sms == nil {
		return nil, fmt.Errorf("%w: sms sender is not configured", domain.ErrChannelDisabled)
	}
	if strings.TrimSpace(to) == "" {
		return nil, fmt.Errorf("%w: recipient is required", domain.ErrValidation)
	}
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}

	var sent *provider.SMSResult
	result, err := n.smsDispatch.Dispatch(ctx, DispatchJob{
		Channel:   domain.ChannelSMS,
		Recipient: to,
		Payload:   message,
		Attempt: func(ctx context.Context) (string, error) {
			res, sendErr := n.sms.Send(ctx, to, message, opts)
			if sendErr != nil {
				return "", sendErr
			}
			sent = res
			return res.SID, nil
		},
	})
	if err != nil {
		return nil, err
	}

	receipt := &SMSReceipt{RowID: result.RowID}
	if sent != nil {
		receipt.SID = sent.SID
		receipt.Status = sent.Status
		receipt.Price = sent.Price
	}
	return receipt, nil
}

// SendSMSBatch sends the same message to each recipient in order and returns
// one result per recipient, in input order. A failed recipient never aborts
// the rest of the batch. Each outcome lands in the delivery log under a
// shared correlation id.
func (n *Notifier) SendSMSBatch(ctx context.Context, recipients []string, message string, opts map[string]any) []provider.SMSBatchResult {
	if n.sms == nil || len(recipients) == 0 {
		return nil
	}

	results := n.sms.SendBatch(ctx, recipients, message, opts)

	if n.store != nil {
		batchID := uuid.NewString()
		for _, r := range results {
			status := domain.StatusSent
			errMsg := ""
			if !r.Success {
				status = domain.StatusFailed
				errMsg = r.Error
			}
			n.store.RecordAttempt(ctx, logstore.Attempt{
				CorrelationID: batchID,
				Channel:       domain.ChannelSMS,
				Recipient:     r.Recipient,
				Payload:       message,
				Status:        status,
				AttemptNumber: 1,
				ErrorMessage:  errMsg,
			})
		}
	}

	return results
}

func (n *Notifier) publishDeadLetter(ctx context.Context, job DispatchJob, result *DispatchResult, cause error) {
	if n.deadLetter == nil {
		return
	}

	var rowID string
	attempts := 0
	if result != nil {
		rowID = result.RowID
		attempts = result.Attempts
	}

	msg := queue.DeadLetterMessage{
		Channel:       job.Channel,
		Recipient:     job.Recipient,
		Subject:       job.Subject,
		CorrelationID: job.CorrelationID,
		LogRowID:      rowID,
		Attempts:      attempts,
		Error:         cause.Error(),
		FailedAt:      n.now().UTC(),
	}
	if err := n.deadLetter.Publish(ctx, msg); err != nil {
		n.logger.Error("failed to publish dead letter",
			zap.String("channel", job.Channel.String()),
			zap.String("recipient", job.Recipient),
			zap.Error(err),
		)
	}
}
