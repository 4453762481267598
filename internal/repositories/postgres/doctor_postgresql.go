package postgres

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
)

var doctorSortColumns = map[string]bool{
	"created_at":          true,
	"average_rating":      true,
	"total_ratings":       true,
	"consultation_price":  true,
	"years_of_experience": true,
}

type DoctorPostgreSQL struct {
	db *gorm.DB
}

func NewDoctorPostgreSQL(db *gorm.DB) repositories.DoctorRepository {
	return &DoctorPostgreSQL{db: db}
}

func (d *DoctorPostgreSQL) Create(ctx context.Context, doctor *models.Doctor) error {
	return translateError(d.db.WithContext(ctx).Omit("User").Create(doctor).Error)
}

func (d *DoctorPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := d.db.WithContext(ctx).Preload("User").First(&doctor, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &doctor, nil
}

func (d *DoctorPostgreSQL) GetByIDForUpdate(ctx context.Context, id uint) (*models.Doctor, error) {
	var doctor models.Doctor
	// Lock only the doctor row; the user is loaded separately
	err := d.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&doctor, id).Error
	if err != nil {
		return nil, translateError(err)
	}

	if err := d.db.WithContext(ctx).First(&doctor.User, doctor.UserID).Error; err != nil {
		return nil, translateError(err)
	}
	return &doctor, nil
}

func (d *DoctorPostgreSQL) GetByUserID(ctx context.Context, userID uint) (*models.Doctor, error) {
	var doctor models.Doctor
	err := d.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&doctor).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &doctor, nil
}

func (d *DoctorPostgreSQL) Update(ctx context.Context, doctor *models.Doctor) error {
	return translateError(d.db.WithContext(ctx).Omit("User").Save(doctor).Error)
}

func (d *DoctorPostgreSQL) List(ctx context.Context, filters repositories.DoctorFilters) ([]*models.Doctor, int64, error) {
	var doctors []*models.Doctor
	var total int64

	query := d.db.WithContext(ctx).Model(&models.Doctor{})
	if filters.ApprovalStatus != nil {
		query = query.Where("approval_status = ?", *filters.ApprovalStatus)
	}
	if s := strings.TrimSpace(filters.Specialization); s != "" {
		query = query.Where("LOWER(specialization) = ?", strings.ToLower(s))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, doctorSortColumns, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Preload("User").Find(&doctors).Error; err != nil {
		return nil, 0, err
	}

	return doctors, total, nil
}
