package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/CyberArcenal/POS-Management-sub008/internal/domain"
	"github.com/CyberArcenal/POS-Management-sub008/internal/repository"
	"github.com/CyberArcenal/POS-Management-sub008/internal/transport"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type stubLogLister struct {
	listFn func(ctx context.Context, params repository.ListParams) ([]domain.NotificationLog, int64, error)
}

func (s *stubLogLister) List(ctx context.Context, params repository.ListParams) ([]domain.NotificationLog, int64, error) {
	return s.listFn(ctx, params)
}

func newLogTestApp(t *testing.T, logs DeliveryLogLister) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	if err := RegisterDeliveryLogRoutes(app, logs); err != nil {
		t.Fatalf("RegisterDeliveryLogRoutes() error = %v", err)
	}

	return app
}

func performRequest(t *testing.T, app *fiber.App, method string, path string) (*http.Response, []byte) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(method, path, nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, body
}

func TestListDeliveryLogs(t *testing.T) {
	t.Parallel()

	sentAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	errMsg := "smtp refused"
	var captured repository.ListParams

	logs := &stubLogLister{listFn: func(ctx context.Context, params repository.ListParams) ([]domain.NotificationLog, int64, error) {
		captured = params
		return []domain.NotificationLog{
			{
				ID:            "row-1",
				CorrelationID: "corr-1",
				Channel:       domain.ChannelEmail,
				Recipient:     "owner@example.com",
				Subject:       "Daily sales report",
				Status:        domain.StatusSent,
				RetryCount:    2,
				ResendCount:   1,
				SentAt:        &sentAt,
			},
			{
				ID:           "row-2",
				Channel:      domain.ChannelSMS,
				Recipient:    "+639171234567",
				Status:       domain.StatusFailed,
				RetryCount:   1,
				ErrorMessage: &errMsg,
			},
		}, 2, nil
	}}
	app := newLogTestApp(t, logs)

	resp, body := performRequest(t, app, http.MethodGet, "/v1/delivery-logs?status=SENT&channel=EMAIL&recipient=owner@example.com&page=2&pageSize=10")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	if captured.Status == nil || *captured.Status != domain.StatusSent {
		t.Fatalf("captured.Status = %v, want SENT", captured.Status)
	}
	if captured.Channel == nil || *captured.Channel != domain.ChannelEmail {
		t.Fatalf("captured.Channel = %v, want EMAIL", captured.Channel)
	}
	if captured.Recipient != "owner@example.com" || captured.Page != 2 || captured.PageSize != 10 {
		t.Fatalf("captured = %+v", captured)
	}

	var parsed listDeliveryLogsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if len(parsed.Data) != 2 || parsed.Meta.Total != 2 || parsed.Meta.Page != 2 {
		t.Fatalf("response = %+v", parsed)
	}
	if parsed.Data[0].ID != "row-1" || parsed.Data[0].Status != "SENT" || parsed.Data[0].ResendCount != 1 {
		t.Fatalf("data[0] = %+v", parsed.Data[0])
	}
	if parsed.Data[1].ErrorMessage == nil || *parsed.Data[1].ErrorMessage != "smtp refused" {
		t.Fatalf("data[1] = %+v", parsed.Data[1])
	}
}

func TestListDeliveryLogsTimeWindow(t *testing.T) {
	t.Parallel()

	var captured repository.ListParams
	logs := &stubLogLister{listFn: func(ctx context.Context, params repository.ListParams) ([]domain.NotificationLog, int64, error) {
		captured = params
		return nil, 0, nil
	}}
	app := newLogTestApp(t, logs)

	resp, _ := performRequest(t, app, http.MethodGet, "/v1/delivery-logs?from=2026-08-01T00:00:00Z&to=2026-08-31T00:00:00Z")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if captured.From == nil || captured.To == nil {
		t.Fatalf("captured window = %+v", captured)
	}
	if !captured.From.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("captured.From = %v", captured.From)
	}
}

func TestListDeliveryLogsValidation(t *testing.T) {
	t.Parallel()

	logs := &stubLogLister{listFn: func(ctx context.Context, params repository.ListParams) ([]domain.NotificationLog, int64, error) {
		t.Error("lister should not be called for invalid params")
		return nil, 0, nil
	}}
	app := newLogTestApp(t, logs)

	cases := []struct {
		name string
		path string
	}{
		{"bad page", "/v1/delivery-logs?page=0"},
		{"bad page size", "/v1/delivery-logs?pageSize=500"},
		{"bad status", "/v1/delivery-logs?status=SENDING"},
		{"bad channel", "/v1/delivery-logs?channel=PUSH"},
		{"bad from", "/v1/delivery-logs?from=yesterday"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			resp, _ := performRequest(t, app, http.MethodGet, tc.path)
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestListDeliveryLogsInternalErrorHidesDetails(t *testing.T) {
	t.Parallel()

	logs := &stubLogLister{listFn: func(ctx context.Context, params repository.ListParams) ([]domain.NotificationLog, int64, error) {
		return nil, 0, errors.New("pq: connection reset")
	}}
	app := newLogTestApp(t, logs)

	resp, body := performRequest(t, app, http.MethodGet, "/v1/delivery-logs")
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}

	var parsed map[string]string
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["error"] != "internal server error" {
		t.Fatalf("error body = %q, driver errors must not leak", parsed["error"])
	}
}

func TestHealthRoutes(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	healthy := true
	RegisterHealthRoutes(app, map[string]HealthChecker{
		"postgres": HealthCheckerFunc(func(ctx context.Context) error {
			if !healthy {
				return errors.New("down")
			}
			return nil
		}),
	})

	resp, _ := performRequest(t, app, http.MethodGet, "/livez")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("livez status = %d, want 200", resp.StatusCode)
	}

	resp, body := performRequest(t, app, http.MethodGet, "/readyz")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("readyz status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	healthy = false
	resp, body = performRequest(t, app, http.MethodGet, "/readyz")
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d, want 503", resp.StatusCode)
	}
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed["status"] != "not_ready" {
		t.Fatalf("status = %v, want not_ready", parsed["status"])
	}
}
