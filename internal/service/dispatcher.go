// Package service holds the delivery core: the retry controller that drives
// individual dispatch jobs and the notifier that exposes the channel
// entrypoints.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CyberArcenal/POS-Management-sub008/internal/domain"
	"github.com/CyberArcenal/POS-Management-sub008/internal/logstore"
	"github.com/CyberArcenal/POS-Management-sub008/internal/provider"
	"go.uber.org/zap"
)

// RetryPolicy bounds how a dispatch job is retried. The delay is fixed, not
// exponential: transient SMTP and gateway hiccups clear within seconds, and a
// predictable worst-case occupancy of the delivery lane matters more than
// backoff elegance here.
type RetryPolicy struct {
	MaxAttempts    int
	Delay          time.Duration
	AttemptTimeout time.Duration
}

// DefaultRetryPolicy returns the standard policy: three attempts, two seconds
// apart, each bounded to thirty seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		Delay:          2 * time.Second,
		AttemptTimeout: 30 * time.Second,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.Delay <= 0 {
		p.Delay = def.Delay
	}
	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = def.AttemptTimeout
	}
	return p
}

// DispatchJob is one notification to deliver. Attempt performs a single
// transport call and returns the provider message id on success.
type DispatchJob struct {
	Channel       domain.Channel
	Recipient     string
	Subject       string
	Payload       string
	CorrelationID string
	Attempt       func(ctx context.Context) (string, error)
}

// DispatchResult reports the terminal outcome of a job.
type DispatchResult struct {
	RowID     string
	MessageID string
	Attempts  int
}

// DispatchMetrics receives delivery outcome signals. Implementations must be
// cheap and non-blocking.
type DispatchMetrics interface {
	ObserveAttempt(channel string, success bool, elapsed time.Duration)
	RetryScheduled(channel string)
	Delivered(channel string)
	Exhausted(channel string)
}

// AttemptRecorder persists delivery status transitions. A nil row return
// means persistence was unavailable; delivery proceeds regardless.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, a logstore.Attempt) *domain.NotificationLog
}

// Dispatcher runs dispatch jobs to a terminal state under a retry policy,
// recording every status transition along the way.
type Dispatcher struct {
	store   AttemptRecorder
	policy  RetryPolicy
	metrics DispatchMetrics
	logger  *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewDispatcher(store AttemptRecorder, policy RetryPolicy, metrics DispatchMetrics, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		store:   store,
		policy:  policy.normalized(),
		metrics: metrics,
		logger:  logger,
		sleep:   sleepCtx,
		now:     time.Now,
	}
}

// Dispatch runs the job until it succeeds or the attempt budget is spent.
// Only transient failures are retried; a configuration error or a permanent
// transport rejection ends the job on the attempt that produced it.
// Every attempt writes two log records: the pending status before the
// transport call (QUEUED for the first attempt, RESEND for retries) and the
// outcome after it (SENT or FAILED). All records for one job land on a single
// log row; the row id from the first write is threaded into every later one.
func (d *Dispatcher) Dispatch(ctx context.Context, job DispatchJob) (*DispatchResult, error) {
	if job.Attempt == nil {
		return nil, fmt.Errorf("dispatch job has no attempt function")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var rowID string
	var lastErr error
	attemptsRun := 0

	record := func(attempt int, status domain.Status, errMsg string) {
		if d.store == nil {
			return
		}
		row := d.store.RecordAttempt(ctx, logstore.Attempt{
			RowID:         rowID,
			CorrelationID: job.CorrelationID,
			Channel:       job.Channel,
			Recipient:     job.Recipient,
			Subject:       job.Subject,
			Payload:       job.Payload,
			Status:        status,
			AttemptNumber: attempt,
			ErrorMessage:  errMsg,
		})
		if row != nil && rowID == "" {
			rowID = row.ID
		}
	}

	for attempt := 1; attempt <= d.policy.MaxAttempts; attempt++ {
		pending := domain.StatusQueued
		if attempt > 1 {
			pending = domain.StatusResend
		}
		record(attempt, pending, "")
		attemptsRun = attempt

		start := d.now()
		messageID, err := d.runAttempt(ctx, job)
		elapsed := d.now().Sub(start)

		if d.metrics != nil {
			d.metrics.ObserveAttempt(job.Channel.String(), err == nil, elapsed)
		}

		if err == nil {
			record(attempt, domain.StatusSent, "")
			if d.metrics != nil {
				d.metrics.Delivered(job.Channel.String())
			}
			d.logger.Info("notification delivered",
				zap.String("channel", job.Channel.String()),
				zap.String("recipient", job.Recipient),
				zap.Int("attempt", attempt),
			)
			return &DispatchResult{RowID: rowID, MessageID: messageID, Attempts: attempt}, nil
		}

		lastErr = err
		transient := provider.IsTransient(err)
		record(attempt, domain.StatusFailed, err.Error())
		d.logger.Warn("notification attempt failed",
			zap.String("channel", job.Channel.String()),
			zap.String("recipient", job.Recipient),
			zap.Int("attempt", attempt),
			zap.Bool("transient", transient),
			zap.Error(err),
		)

		if attempt == d.policy.MaxAttempts {
			break
		}
		// Configuration errors and permanent transport rejections do not
		// heal on a retry; only transient failures earn another attempt.
		if !transient {
			break
		}
		if d.metrics != nil {
			d.metrics.RetryScheduled(job.Channel.String())
		}
		if err := d.sleep(ctx, d.policy.Delay); err != nil {
			lastErr = fmt.Errorf("delivery canceled while waiting to retry: %w", err)
			break
		}
	}

	if d.metrics != nil {
		d.metrics.Exhausted(job.Channel.String())
	}
	return &DispatchResult{RowID: rowID, Attempts: attemptsRun},
		fmt.Errorf("%s delivery to %s failed after %d attempts: %w",
			strings.ToLower(job.Channel.String()), job.Recipient, attemptsRun, lastErr)
}

func (d *Dispatcher) runAttempt(ctx context.Context, job DispatchJob) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.policy.AttemptTimeout)
	defer cancel()
	return job.Attempt(attemptCtx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
