package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CyberArcenal/POS-Management-sub008/internal/domain"
	"github.com/CyberArcenal/POS-Management-sub008/internal/repository"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

// DeliveryLogLister reads the delivery audit trail.
type DeliveryLogLister interface {
	List(ctx context.Context, params repository.ListParams) ([]domain.NotificationLog, int64, error)
}

type DeliveryLogHandler struct {
	logs DeliveryLogLister
}

func NewDeliveryLogHandler(logs DeliveryLogLister) (*DeliveryLogHandler, error) {
	if logs == nil {
		return nil, fmt.Errorf("delivery log lister is required")
	}
	return &DeliveryLogHandler{logs: logs}, nil
}

func RegisterDeliveryLogRoutes(router fiber.Router, logs DeliveryLogLister) error {
	h, err := NewDeliveryLogHandler(logs)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/delivery-logs", h.ListDeliveryLogs)

	return nil
}

type deliveryLogResponse struct {
	ID            string     `json:"id"`
	CorrelationID string     `json:"correlationId,omitempty"`
	Channel       string     `json:"channel"`
	Recipient     string     `json:"recipient"`
	Subject       string     `json:"subject,omitempty"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retryCount"`
	ResendCount   int        `json:"resendCount"`
	ErrorMessage  *string    `json:"errorMessage,omitempty"`
	SentAt        *time.Time `json:"sentAt,omitempty"`
	LastErrorAt   *time.Time `json:"lastErrorAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type listDeliveryLogsResponse struct {
	Data []deliveryLogResponse `json:"data"`
	Meta listMeta              `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func (h *DeliveryLogHandler) ListDeliveryLogs(c *fiber.Ctx) error {
	params, err := parseListParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	logs, total, err := h.logs.List(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]deliveryLogResponse, 0, len(logs))
	for i := range logs {
		data = append(data, toDeliveryLogResponse(&logs[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listDeliveryLogsResponse{
		Data: data,
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func parseListParams(c *fiber.Ctx) (repository.ListParams, error) {
	params := repository.ListParams{
		Page:      c.QueryInt("page", defaultPage),
		PageSize:  c.QueryInt("pageSize", defaultPageSize),
		Recipient: strings.TrimSpace(c.Query("recipient")),
	}

	if params.Page < 1 {
		return repository.ListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.ListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawStatus := strings.TrimSpace(c.Query("status")); rawStatus != "" {
		status, err := domain.ParseStatusFromString(rawStatus)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.Status = &status
	}

	if rawChannel := strings.TrimSpace(c.Query("channel")); rawChannel != "" {
		channel, err := domain.ParseChannelFromString(rawChannel)
		if err != nil {
			return repository.ListParams{}, err
		}
		params.Channel = &channel
	}

	from, err := parseRFC3339Query(c.Query("from"), "from")
	if err != nil {
		return repository.ListParams{}, err
	}
	to, err := parseRFC3339Query(c.Query("to"), "to")
	if err != nil {
		return repository.ListParams{}, err
	}
	params.From = from
	params.To = to

	return params, nil
}

func parseRFC3339Query(value string, field string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, field)
	}
	return &t, nil
}

func toDeliveryLogResponse(l *domain.NotificationLog) deliveryLogResponse {
	return deliveryLogResponse{
		ID:            l.ID,
		CorrelationID: l.CorrelationID,
		Channel:       l.Channel.String(),
		Recipient:     l.Recipient,
		Subject:       l.Subject,
		Status:        l.Status.String(),
		RetryCount:    l.RetryCount,
		ResendCount:   l.ResendCount,
		ErrorMessage:  l.ErrorMessage,
		SentAt:        l.SentAt,
		LastErrorAt:   l.LastErrorAt,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrChannelDisabled):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return err
	}
}
