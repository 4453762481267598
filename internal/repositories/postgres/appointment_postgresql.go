package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
)

type AppointmentPostgreSQL struct {
	db *gorm.DB
}

func NewAppointmentPostgreSQL(db *gorm.DB) repositories.AppointmentRepository {
	return &AppointmentPostgreSQL{db: db}
}

func (a *AppointmentPostgreSQL) Create(ctx context.Context, appointment *models.Appointment) error {
	return translateError(a.db.WithContext(ctx).Omit("Patient", "Doctor").Create(appointment).Error)
}

func (a *AppointmentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := a.db.WithContext(ctx).First(&appointment, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &appointment, nil
}

func (a *AppointmentPostgreSQL) Update(ctx context.Context, appointment *models.Appointment) error {
	return translateError(a.db.WithContext(ctx).Omit("Patient", "Doctor").Save(appointment).Error)
}

func (a *AppointmentPostgreSQL) ListByPatient(ctx context.Context, patientID uint, filters repositories.AppointmentFilters) ([]*models.Appointment, int64, error) {
	query := a.db.WithContext(ctx).Model(&models.Appointment{}).Where("patient_id = ?", patientID)
	return a.list(query, filters)
}

func (a *AppointmentPostgreSQL) ListByDoctor(ctx context.Context, doctorID uint, filters repositories.AppointmentFilters) ([]*models.Appointment, int64, error) {
	query := a.db.WithContext(ctx).Model(&models.Appointment{}).Where("doctor_id = ?", doctorID)
	return a.list(query, filters)
}

func (a *AppointmentPostgreSQL) ExistsBetween(ctx context.Context, doctorID, patientID uint, statuses ...models.AppointmentStatus) (bool, error) {
	var count int64
	query := a.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("doctor_id = ? AND patient_id = ?", doctorID, patientID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a *AppointmentPostgreSQL) list(query *gorm.DB, filters repositories.AppointmentFilters) ([]*models.Appointment, int64, error) {
	var appointments []*models.Appointment
	var total int64

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("appointment_date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("appointment_date <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query.Order("appointment_date DESC"), filters.Limit, filters.Offset)
	if err := query.Find(&appointments).Error; err != nil {
		return nil, 0, err
	}

	return appointments, total, nil
}
