// Package logstore persists the delivery audit trail. Every write degrades
// to a no-op when persistence is unavailable: delivery reliability must not
// depend on log-store health.
package logstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/CyberArcenal/POS-Management-sub008/internal/domain"
	"github.com/CyberArcenal/POS-Management-sub008/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Gate blocks until the persistence layer is ready, within a bounded budget.
type Gate interface {
	AwaitReady(ctx context.Context) bool
}

// Attempt describes one status transition to record against a dispatch job.
type Attempt struct {
	// RowID pins the write to a known log row. The dispatcher threads the
	// id returned by the first record call into every later call for the
	// same job, on success and failure paths alike, so all attempts land
	// on one row.
	RowID         string
	CorrelationID string
	Channel       domain.Channel
	Recipient     string
	Subject       string
	Payload       string
	Status        domain.Status
	AttemptNumber int
	ErrorMessage  string
}

type Store struct {
	repo   repository.NotificationLogRepository
	gate   Gate
	logger *zap.Logger
	now    func() time.Time
}

func NewStore(repo repository.NotificationLogRepository, gate Gate, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		repo:   repo,
		gate:   gate,
		logger: logger,
		now:    time.Now,
	}
}

// RecordAttempt resolves the log row for the attempt and persists the status
// transition. Resolution order: explicit row id, then the latest row matching
// (correlationId, recipient), then a freshly created row. Returns nil when
// persistence is unavailable or erroring; it never returns an error to the
// caller.
func (s *Store) RecordAttempt(ctx context.Context, a Attempt) *domain.NotificationLog {
	if s == nil || s.repo == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if s.gate != nil && !s.gate.AwaitReady(ctx) {
		s.logger.Warn("persistence not ready, skipping delivery log write",
			zap.String("recipient", a.Recipient),
			zap.String("status", a.Status.String()),
			zap.Int("attempt", a.AttemptNumber),
		)
		return nil
	}

	row, err := s.resolveRow(ctx, a)
	if err != nil {
		s.logger.Error("failed to resolve delivery log row",
			zap.String("correlationId", a.CorrelationID),
			zap.String("recipient", a.Recipient),
			zap.Error(err),
		)
		return nil
	}

	if row == nil {
		return s.createRow(ctx, a)
	}
	return s.updateRow(ctx, row, a)
}

func (s *Store) resolveRow(ctx context.Context, a Attempt) (*domain.NotificationLog, error) {
	if id := strings.TrimSpace(a.RowID); id != "" {
		row, err := s.repo.GetByID(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return row, err
	}

	if correlationID := strings.TrimSpace(a.CorrelationID); correlationID != "" {
		row, err := s.repo.GetLatestByCorrelationAndRecipient(ctx, correlationID, a.Recipient)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return row, err
	}

	return nil, nil
}

func (s *Store) createRow(ctx context.Context, a Attempt) *domain.NotificationLog {
	now := s.now().UTC()

	row := &domain.NotificationLog{
		ID:            uuid.NewString(),
		CorrelationID: strings.TrimSpace(a.CorrelationID),
		Channel:       a.Channel,
		Recipient:     a.Recipient,
		Subject:       a.Subject,
		Payload:       a.Payload,
		Status:        a.Status,
		RetryCount:    a.AttemptNumber,
		CreatedAt:     now,
	}
	applyStatus(row, a, now)

	if err := row.Validate(); err != nil {
		s.logger.Error("invalid delivery log row", zap.Error(err))
		return nil
	}

	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create delivery log row",
			zap.String("recipient", a.Recipient),
			zap.Error(err),
		)
		return nil
	}

	return row
}

func (s *Store) updateRow(ctx context.Context, row *domain.NotificationLog, a Attempt) *domain.NotificationLog {
	now := s.now().UTC()

	row.Status = a.Status
	row.RetryCount = a.AttemptNumber
	if a.Subject != "" {
		row.Subject = a.Subject
	}
	if a.Payload != "" {
		row.Payload = a.Payload
	}
	applyStatus(row, a, now)

	if err := s.repo.Save(ctx, row); err != nil {
		s.logger.Error("failed to update delivery log row",
			zap.String("rowId", row.ID),
			zap.Error(err),
		)
		return nil
	}

	return row
}

func applyStatus(row *domain.NotificationLog, a Attempt, now time.Time) {
	switch a.Status {
	case domain.StatusResend:
		row.ResendCount++
	case domain.StatusSent:
		row.ErrorMessage = nil
		sentAt := now
		row.SentAt = &sentAt
	case domain.StatusFailed:
		if msg := strings.TrimSpace(a.ErrorMessage); msg != "" {
			row.ErrorMessage = &msg
		}
		lastErrorAt := now
		row.LastErrorAt = &lastErrorAt
	}
}
