package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/CyberArcenal/POS-Management-sub008/internal/provider"
	"github.com/CyberArcenal/POS-Management-sub008/internal/service"
	"github.com/gofiber/fiber/v2"
)

// NotificationService is the delivery core exposed over HTTP.
type NotificationService interface {
	SendEmail(ctx context.Context, params service.EmailParams) (*service.SendReceipt, error)
	SendSMS(ctx context.Context, to, message string, opts map[string]any) (*service.SMSReceipt, error)
	SendSMSBatch(ctx context.Context, recipients []string, message string, opts map[string]any) []provider.SMSBatchResult
}

type NotificationHandler struct {
	service NotificationService
}

func NewNotificationHandler(service NotificationService) (*NotificationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("notification service is required")
	}
	return &NotificationHandler{service: service}, nil
}

func RegisterNotificationRoutes(router fiber.Router, service NotificationService) error {
	h, err := NewNotificationHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/notifications/email", h.SendEmail)
	v1.Post("/notifications/sms", h.SendSMS)
	v1.Post("/notifications/sms/batch", h.SendSMSBatch)

	return nil
}

type sendEmailRequest struct {
	To            string         `json:"to"`
	Subject       string         `json:"subject"`
	HTML          string         `json:"html"`
	Text          string         `json:"text"`
	Options       map[string]any `json:"options"`
	CorrelationID string         `json:"correlationId"`
	Sync          bool           `json:"sync"`
}

type sendEmailResponse struct {
	CorrelationID string `json:"correlationId"`
	Queued        bool   `json:"queued"`
	LogID         string `json:"logId,omitempty"`
	MessageID     string `json:"messageId,omitempty"`
	Attempts      int    `json:"attempts,omitempty"`
}

type sendSMSRequest struct {
	To      string         `json:"to"`
	Message string         `json:"message"`
	Options map[string]any `json:"options"`
}

type sendSMSResponse struct {
	LogID  string `json:"logId,omitempty"`
	SID    string `json:"sid"`
	Status string `json:"status"`
	Price  string `json:"price,omitempty"`
}

type sendSMSBatchRequest struct {
	Recipients []string       `json:"recipients"`
	Message    string         `json:"message"`
	Options    map[string]any `json:"options"`
}

type smsBatchItemResponse struct {
	Recipient string `json:"recipient"`
	Success   bool   `json:"success"`
	SID       string `json:"sid,omitempty"`
	Status    string `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (h *NotificationHandler) SendEmail(c *fiber.Ctx) error {
	var req sendEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	receipt, err := h.service.SendEmail(c.Context(), service.EmailParams{
		To:            req.To,
		Subject:       req.Subject,
		HTML:          req.HTML,
		Text:          req.Text,
		Options:       req.Options,
		CorrelationID: req.CorrelationID,
		Sync:          req.Sync,
	})
	if err != nil {
		return toHTTPError(err)
	}

	status := fiber.StatusAccepted
	if !receipt.Queued {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(sendEmailResponse{
		CorrelationID: receipt.CorrelationID,
		Queued:        receipt.Queued,
		LogID:         receipt.RowID,
		MessageID:     receipt.MessageID,
		Attempts:      receipt.Attempts,
	})
}

func (h *NotificationHandler) SendSMS(c *fiber.Ctx) error {
	var req sendSMSRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	receipt, err := h.service.SendSMS(c.Context(), req.To, req.Message, req.Options)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(sendSMSResponse{
		LogID:  receipt.RowID,
		SID:    receipt.SID,
		Status: receipt.Status,
		Price:  receipt.Price,
	})
}

func (h *NotificationHandler) SendSMSBatch(c *fiber.Ctx) error {
	var req sendSMSBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Recipients) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "recipients is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "message is required")
	}

	results := h.service.SendSMSBatch(c.Context(), req.Recipients, req.Message, req.Options)

	items := make([]smsBatchItemResponse, 0, len(results))
	for _, r := range results {
		items = append(items, smsBatchItemResponse{
			Recipient: r.Recipient,
			Success:   r.Success,
			SID:       r.SID,
			Status:    r.Status,
			Error:     r.Error,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"results": items,
	})
}
