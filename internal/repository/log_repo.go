package repository

import (
	"context"
	"errors"
	"time"

	"github.com/CyberArcenal/POS-Management-sub008/internal/domain"
	"gorm.io/gorm"
)

type ListParams struct {
	Status    *domain.Status
	Channel   *domain.Channel
	Recipient string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// NotificationLogRepository is the persistence port for delivery audit rows.
type NotificationLogRepository interface {
	Create(ctx context.Context, l *domain.NotificationLog) error
	Save(ctx context.Context, l *domain.NotificationLog) error
	GetByID(ctx context.Context, id string) (*domain.NotificationLog, error)
	GetLatestByCorrelationAndRecipient(ctx context.Context, correlationID, recipient string) (*domain.NotificationLog, error)
	List(ctx context.Context, params ListParams) ([]domain.NotificationLog, int64, error)
}

type GormNotificationLogRepo struct {
	db *gorm.DB
}

func NewGormNotificationLogRepo(db *gorm.DB) *GormNotificationLogRepo {
	return &GormNotificationLogRepo{db: db}
}

func (r *GormNotificationLogRepo) Create(ctx context.Context, l *domain.NotificationLog) error {
	model := logModelFromDomain(l)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if l != nil {
		*l = *logModelToDomain(model)
	}
	return nil
}

func (r *GormNotificationLogRepo) Save(ctx context.Context, l *domain.NotificationLog) error {
	model := logModelFromDomain(l)
	if model == nil {
		return domain.ErrValidation
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	*l = *logModelToDomain(model)
	return nil
}

func (r *GormNotificationLogRepo) GetByID(ctx context.Context, id string) (*domain.NotificationLog, error) {
	var model NotificationLogModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return logModelToDomain(&model), nil
}

func (r *GormNotificationLogRepo) GetLatestByCorrelationAndRecipient(
	ctx context.Context,
	correlationID string,
	recipient string,
) (*domain.NotificationLog, error) {
	var model NotificationLogModel
	err := r.db.WithContext(ctx).
		Where("correlation_id = ? AND recipient = ?", correlationID, recipient).
		Order("created_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return logModelToDomain(&model), nil
}

func (r *GormNotificationLogRepo) List(ctx context.Context, params ListParams) ([]domain.NotificationLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&NotificationLogModel{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Channel != nil {
		query = query.Where("channel = ?", *params.Channel)
	}
	if params.Recipient != "" {
		query = query.Where("recipient = ?", params.Recipient)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []NotificationLogModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	logs := make([]domain.NotificationLog, 0, len(models))
	for i := range models {
		logs = append(logs, *logModelToDomain(&models[i]))
	}

	return logs, total, nil
}
