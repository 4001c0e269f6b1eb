package domain

import (
	"errors"
	"testing"
)

func TestParseStatusFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "valid uppercase", input: "SENT", want: StatusSent},
		{name: "valid lowercase with spaces", input: " resend ", want: StatusResend},
		{name: "invalid", input: "pending", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseStatusFromString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseStatusFromString() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseStatusFromString() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseStatusFromString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	t.Parallel()

	terminal := map[Status]bool{
		StatusQueued: false,
		StatusResend: false,
		StatusSent:   true,
		StatusFailed: true,
	}
	for status, want := range terminal {
		if got := status.IsTerminal(); got != want {
			t.Fatalf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestParseChannelFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseChannelFromString(" email ")
	if err != nil {
		t.Fatalf("ParseChannelFromString() unexpected error = %v", err)
	}
	if got != ChannelEmail {
		t.Fatalf("ParseChannelFromString() = %s, want %s", got, ChannelEmail)
	}

	_, err = ParseChannelFromString("fax")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseChannelFromString() error = %v, want ErrValidation", err)
	}
}

func TestNotificationLogValidate(t *testing.T) {
	t.Parallel()

	valid := &NotificationLog{
		Recipient: "staff@example.com",
		Channel:   ChannelEmail,
		Status:    StatusQueued,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}

	tests := []struct {
		name string
		log  *NotificationLog
	}{
		{name: "nil record", log: nil},
		{name: "missing recipient", log: &NotificationLog{Channel: ChannelSMS, Status: StatusQueued}},
		{name: "invalid channel", log: &NotificationLog{Recipient: "r", Channel: "PIGEON", Status: StatusQueued}},
		{name: "invalid status", log: &NotificationLog{Recipient: "r", Channel: ChannelSMS, Status: "PENDING"}},
		{name: "negative retry count", log: &NotificationLog{Recipient: "r", Channel: ChannelSMS, Status: StatusQueued, RetryCount: -1}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.log.Validate(); !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}
