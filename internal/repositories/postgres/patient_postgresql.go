package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
)

type PatientPostgreSQL struct {
	db *gorm.DB
}

func NewPatientPostgreSQL(db *gorm.DB) repositories.PatientRepository {
	return &PatientPostgreSQL{db: db}
}

func (p *PatientPostgreSQL) Create(ctx context.Context, patient *models.Patient) error {
	return translateError(p.db.WithContext(ctx).Omit("User").Create(patient).Error)
}

func (p *PatientPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Patient, error) {
	var patient models.Patient
	if err := p.db.WithContext(ctx).Preload("User").First(&patient, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &patient, nil
}

func (p *PatientPostgreSQL) GetByUserID(ctx context.Context, userID uint) (*models.Patient, error) {
	var patient models.Patient
	err := p.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&patient).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &patient, nil
}

func (p *PatientPostgreSQL) Update(ctx context.Context, patient *models.Patient) error {
	return translateError(p.db.WithContext(ctx).Omit("User").Save(patient).Error)
}
