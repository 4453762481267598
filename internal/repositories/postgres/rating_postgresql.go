package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
)

type RatingPostgreSQL struct {
	db *gorm.DB
}

func NewRatingPostgreSQL(db *gorm.DB) repositories.RatingRepository {
	return &RatingPostgreSQL{db: db}
}

func (r *RatingPostgreSQL) Create(ctx context.Context, rating *models.Rating) error {
	return translateError(r.db.WithContext(ctx).Omit("Patient").Create(rating).Error)
}

func (r *RatingPostgreSQL) GetByAppointmentID(ctx context.Context, appointmentID uint) (*models.Rating, error) {
	var rating models.Rating
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		First(&rating).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &rating, nil
}

func (r *RatingPostgreSQL) ListByDoctor(ctx context.Context, doctorID uint, limit, offset int) ([]*models.Rating, int64, error) {
	var ratings []*models.Rating
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Rating{}).Where("doctor_id = ?", doctorID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query.Order("created_at DESC, id DESC"), limit, offset)
	if err := query.Preload("Patient.User").Find(&ratings).Error; err != nil {
		return nil, 0, err
	}

	return ratings, total, nil
}

func (r *RatingPostgreSQL) Aggregate(ctx context.Context, doctorID uint) (*models.RatingAggregate, error) {
	var row struct {
		Count   int
		Average float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Rating{}).
		Select("COUNT(*) AS count, COALESCE(AVG(score), 0) AS average").
		Where("doctor_id = ?", doctorID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	return &models.RatingAggregate{Count: row.Count, Average: row.Average}, nil
}
