package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
)

type MedicalRecordPostgreSQL struct {
	db *gorm.DB
}

func NewMedicalRecordPostgreSQL(db *gorm.DB) repositories.MedicalRecordRepository {
	return &MedicalRecordPostgreSQL{db: db}
}

func (m *MedicalRecordPostgreSQL) Create(ctx context.Context, record *models.MedicalRecord) error {
	return translateError(m.db.WithContext(ctx).Create(record).Error)
}

func (m *MedicalRecordPostgreSQL) GetByID(ctx context.Context, id uint) (*models.MedicalRecord, error) {
	var record models.MedicalRecord
	if err := m.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &record, nil
}

func (m *MedicalRecordPostgreSQL) ListByPatient(ctx context.Context, patientID uint) ([]*models.MedicalRecord, error) {
	var records []*models.MedicalRecord
	err := m.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("uploaded_at DESC").
		Find(&records).Error
	return records, err
}

type HealthDataPostgreSQL struct {
	db *gorm.DB
}

func NewHealthDataPostgreSQL(db *gorm.DB) repositories.HealthDataRepository {
	return &HealthDataPostgreSQL{db: db}
}

func (h *HealthDataPostgreSQL) Create(ctx context.Context, data *models.HealthData) error {
	return translateError(h.db.WithContext(ctx).Create(data).Error)
}

func (h *HealthDataPostgreSQL) ListByPatient(ctx context.Context, patientID uint, filters repositories.HealthDataFilters) ([]*models.HealthData, error) {
	var data []*models.HealthData

	query := h.db.WithContext(ctx).Where("patient_id = ?", patientID)
	if filters.DataType != "" {
		query = query.Where("data_type = ?", filters.DataType)
	}
	if filters.DateFrom != nil {
		query = query.Where("recorded_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("recorded_at <= ?", *filters.DateTo)
	}

	query = applyPagination(query.Order("recorded_at DESC"), filters.Limit, 0)
	err := query.Find(&data).Error
	return data, err
}
