package repository

import (
	"time"

	"github.com/CyberArcenal/POS-Management-sub008/internal/domain"
)

// NotificationLogModel is the persistence model for notification_logs.
type NotificationLogModel struct {
	ID            string         `gorm:"type:uuid;primaryKey"`
	CorrelationID *string        `gorm:"type:varchar(64)"`
	Channel       domain.Channel `gorm:"type:varchar(10);not null"`
	Recipient     string         `gorm:"type:varchar(255);not null"`
	Subject       string         `gorm:"type:varchar(255)"`
	Payload       string         `gorm:"type:text"`
	Status        domain.Status  `gorm:"type:varchar(20);not null"`
	RetryCount    int            `gorm:"not null;default:0"`
	ResendCount   int            `gorm:"not null;default:0"`
	ErrorMessage  *string        `gorm:"type:text"`
	SentAt        *time.Time
	LastErrorAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (NotificationLogModel) TableName() string {
	return "notification_logs"
}

func logModelFromDomain(l *domain.NotificationLog) *NotificationLogModel {
	if l == nil {
		return nil
	}

	var correlationID *string
	if l.CorrelationID != "" {
		value := l.CorrelationID
		correlationID = &value
	}

	return &NotificationLogModel{
		ID:            l.ID,
		CorrelationID: correlationID,
		Channel:       l.Channel,
		Recipient:     l.Recipient,
		Subject:       l.Subject,
		Payload:       l.Payload,
		Status:        l.Status,
		RetryCount:    l.RetryCount,
		ResendCount:   l.ResendCount,
		ErrorMessage:  l.ErrorMessage,
		SentAt:        l.SentAt,
		LastErrorAt:   l.LastErrorAt,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func logModelToDomain(m *NotificationLogModel) *domain.NotificationLog {
	if m == nil {
		return nil
	}

	correlationID := ""
	if m.CorrelationID != nil {
		correlationID = *m.CorrelationID
	}

	return &domain.NotificationLog{
		ID:            m.ID,
		CorrelationID: correlationID,
		Channel:       m.Channel,
		Recipient:     m.Recipient,
		Subject:       m.Subject,
		Payload:       m.Payload,
		Status:        m.Status,
		RetryCount:    m.RetryCount,
		ResendCount:   m.ResendCount,
		ErrorMessage:  m.ErrorMessage,
		SentAt:        m.SentAt,
		LastErrorAt:   m.LastErrorAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
