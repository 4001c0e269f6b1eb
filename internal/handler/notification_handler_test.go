package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CyberArcenal/POS-Management-sub008/internal/domain"
	"github.com/CyberArcenal/POS-Management-sub008/internal/provider"
	"github.com/CyberArcenal/POS-Management-sub008/internal/service"
	"github.com/CyberArcenal/POS-Management-sub008/internal/transport"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type stubNotificationService struct {
	sendEmailFn    func(ctx context.Context, params service.EmailParams) (*service.SendReceipt, error)
	sendSMSFn      func(ctx context.Context, to, message string, opts map[string]any) (*service.SMSReceipt, error)
	sendSMSBatchFn func(ctx context.Context, recipients []string, message string, opts map[string]any) []provider.SMSBatchResult
}

func (s *stubNotificationService) SendEmail(ctx context.Context, params service.EmailParams) (*service.SendReceipt, error) {
	return s.sendEmailFn(ctx, params)
}

func (s *stubNotificationService) SendSMS(ctx context.Context, to, message string, opts map[string]any) (*service.SMSReceipt, error) {
	return s.sendSMSFn(ctx, to, message, opts)
}

func (s *stubNotificationService) SendSMSBatch(ctx context.Context, recipients []string, message string, opts map[string]any) []provider.SMSBatchResult {
	return s.sendSMSBatchFn(ctx, recipients, message, opts)
}

func newNotificationTestApp(t *testing.T, svc NotificationService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(zap.NewNop()),
	})

	if err := RegisterNotificationRoutes(app, svc); err != nil {
		t.Fatalf("RegisterNotificationRoutes() error = %v", err)
	}

	return app
}

func performJSONRequest(t *testing.T, app *fiber.App, method string, path string, body string) (*http.Response, []byte) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	_ = resp.Body.Close()

	return resp, respBody
}

func TestSendEmailEndpoint(t *testing.T) {
	t.Parallel()

	svc := &stubNotificationService{
		sendEmailFn: func(ctx context.Context, params service.EmailParams) (*service.SendReceipt, error) {
			if params.To == "" {
				return nil, fmt.Errorf("%w: recipient is required", domain.ErrValidation)
			}
			if params.Sync {
				return &service.SendReceipt{
					CorrelationID: params.CorrelationID,
					RowID:         "row-1",
					MessageID:     "<m@h>",
					Attempts:      1,
				}, nil
			}
			return &service.SendReceipt{CorrelationID: "corr-gen", Queued: true}, nil
		},
	}
	app := newNotificationTestApp(t, svc)

	resp, body := performJSONRequest(t, app, http.MethodPost, "/v1/notifications/email",
		`{"to":"owner@example.com","subject":"Receipt","html":"<p>thanks</p>"}`)
	if resp.StatusCode != fiber.StatusAccepted {
		t.Fatalf("status = %d, want 202, body=%s", resp.StatusCode, string(body))
	}
	var async sendEmailResponse
	if err := json.Unmarshal(body, &async); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if !async.Queued || async.CorrelationID != "corr-gen" {
		t.Fatalf("response = %+v", async)
	}

	resp, body = performJSONRequest(t, app, http.MethodPost, "/v1/notifications/email",
		`{"to":"owner@example.com","subject":"Receipt","html":"<p>thanks</p>","sync":true,"correlationId":"corr-1"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("sync status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}
	var sync sendEmailResponse
	if err := json.Unmarshal(body, &sync); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if sync.Queued || sync.MessageID != "<m@h>" || sync.Attempts != 1 {
		t.Fatalf("response = %+v", sync)
	}

	resp, _ = performJSONRequest(t, app, http.MethodPost, "/v1/notifications/email",
		`{"subject":"Receipt","html":"<p>thanks</p>"}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for missing recipient", resp.StatusCode)
	}
}

func TestSendSMSEndpoint(t *testing.T) {
	t.Parallel()

	svc := &stubNotificationService{
		sendSMSFn: func(ctx context.Context, to, message string, opts map[string]any) (*service.SMSReceipt, error) {
			if to != "09171234567" || message != "Your order is ready" {
				t.Errorf("to=%q message=%q", to, message)
			}
			return &service.SMSReceipt{RowID: "row-2", SID: "SM1", Status: "queued"}, nil
		},
	}
	app := newNotificationTestApp(t, svc)

	resp, body := performJSONRequest(t, app, http.MethodPost, "/v1/notifications/sms",
		`{"to":"09171234567","message":"Your order is ready"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}
	var parsed sendSMSResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if parsed.SID != "SM1" || parsed.LogID != "row-2" {
		t.Fatalf("response = %+v", parsed)
	}
}

func TestSendSMSBatchEndpoint(t *testing.T) {
	t.Parallel()

	svc := &stubNotificationService{
		sendSMSBatchFn: func(ctx context.Context, recipients []string, message string, opts map[string]any) []provider.SMSBatchResult {
			return []provider.SMSBatchResult{
				{Recipient: "+639171111111", Success: true, SID: "SM1", Status: "queued"},
				{Recipient: "+639172222222", Success: false, Error: "undeliverable"},
			}
		},
	}
	app := newNotificationTestApp(t, svc)

	resp, body := performJSONRequest(t, app, http.MethodPost, "/v1/notifications/sms/batch",
		`{"recipients":["09171111111","09172222222"],"message":"promo"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Results []smsBatchItemResponse `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("json unmarshal error = %v", err)
	}
	if len(parsed.Results) != 2 {
		t.Fatalf("results = %+v", parsed.Results)
	}
	if parsed.Results[1].Success || parsed.Results[1].Error != "undeliverable" {
		t.Fatalf("results[1] = %+v", parsed.Results[1])
	}

	resp, _ = performJSONRequest(t, app, http.MethodPost, "/v1/notifications/sms/batch",
		`{"recipients":[],"message":"promo"}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for empty recipients", resp.StatusCode)
	}
}
