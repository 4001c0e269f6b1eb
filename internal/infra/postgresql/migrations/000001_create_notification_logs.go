package migrations

import (
	"github.com/CyberArcenal/POS-Management-sub008/internal/repository"
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createNotificationLogsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_notification_logs",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.NotificationLogModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_notification_logs_correlation_recipient ON notification_logs (correlation_id, recipient, created_at DESC) WHERE correlation_id IS NOT NULL`,
				`CREATE INDEX IF NOT EXISTS idx_notification_logs_status_created ON notification_logs (status, created_at)`,
				`CREATE INDEX IF NOT EXISTS idx_notification_logs_recipient ON notification_logs (recipient)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.NotificationLogModel{})
		},
	}
}
