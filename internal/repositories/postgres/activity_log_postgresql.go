package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
)

type ActivityLogPostgreSQL struct {
	db *gorm.DB
}

func NewActivityLogPostgreSQL(db *gorm.DB) repositories.ActivityLogRepository {
	return &ActivityLogPostgreSQL{db: db}
}

func (a *ActivityLogPostgreSQL) Append(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = 0
	entry.Timestamp = time.Now().UTC()
	return translateError(a.db.WithContext(ctx).Omit("User").Create(entry).Error)
}

func (a *ActivityLogPostgreSQL) List(ctx context.Context, filters repositories.ActivityFilters) ([]*models.ActivityLog, error) {
	var entries []*models.ActivityLog

	query := a.db.WithContext(ctx).Model(&models.ActivityLog{})
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}

	// Serial ids follow insertion order
	query = applyPagination(query.Order("id ASC"), filters.Limit, filters.Offset)
	err := query.Preload("User").Find(&entries).Error
	return entries, err
}

func (a *ActivityLogPostgreSQL) Recent(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	var entries []*models.ActivityLog
	err := applyPagination(a.db.WithContext(ctx).Order("timestamp DESC, id DESC"), limit, 0).
		Preload("User").
		Find(&entries).Error
	return entries, err
}
