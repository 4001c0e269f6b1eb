package repository

import (
	"testing"
	"time"

	"github.com/CyberArcenal/POS-Management-sub008/internal/domain"
)

func TestLogModelRoundTrip(t *testing.T) {
	t.Parallel()

	errMsg := "connection refused"
	sentAt := time.Unix(1_700_000_000, 0).UTC()

	original := &domain.NotificationLog{
		ID:            "11111111-2222-3333-4444-555555555555",
		CorrelationID: "booking-42",
		Channel:       domain.ChannelEmail,
		Recipient:     "customer@example.com",
		Subject:       "Booking confirmed",
		Payload:       "<p>See you soon</p>",
		Status:        domain.StatusResend,
		RetryCount:    2,
		ResendCount:   1,
		ErrorMessage:  &errMsg,
		SentAt:        &sentAt,
	}

	got := logModelToDomain(logModelFromDomain(original))
	if got == nil {
		t.Fatal("round trip returned nil")
	}
	if got.CorrelationID != original.CorrelationID {
		t.Fatalf("CorrelationID = %q, want %q", got.CorrelationID, original.CorrelationID)
	}
	if got.Status != domain.StatusResend || got.RetryCount != 2 || got.ResendCount != 1 {
		t.Fatalf("counters lost in round trip: %+v", got)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage != errMsg {
		t.Fatalf("ErrorMessage = %v, want %q", got.ErrorMessage, errMsg)
	}
}

func TestLogModelEmptyCorrelationStoredAsNull(t *testing.T) {
	t.Parallel()

	model := logModelFromDomain(&domain.NotificationLog{
		ID:        "id-1",
		Channel:   domain.ChannelSMS,
		Recipient: "+639171234567",
		Status:    domain.StatusQueued,
	})
	if model.CorrelationID != nil {
		t.Fatalf("CorrelationID = %v, want nil", model.CorrelationID)
	}

	back := logModelToDomain(model)
	if back.CorrelationID != "" {
		t.Fatalf("CorrelationID = %q, want empty", back.CorrelationID)
	}
}

func TestLogModelNilSafety(t *testing.T) {
	t.Parallel()

	if logModelFromDomain(nil) != nil {
		t.Fatal("logModelFromDomain(nil) should be nil")
	}
	if logModelToDomain(nil) != nil {
		t.Fatal("logModelToDomain(nil) should be nil")
	}
}
