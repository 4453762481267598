package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pulsex/care-service/internal/authz"
	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
	"github.com/pulsex/care-service/internal/validator"
)

type healthDataService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	access    RecordAccessChecker
}

func NewHealthDataService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, access RecordAccessChecker) HealthDataService {
	return &healthDataService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		access:    access,
	}
}

func (s *healthDataService) Add(ctx context.Context, patientUserID uint, req *CreateHealthDataRequest) (*models.HealthData, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, invalidInput(err)
	}

	patient, err := resolvePatient(ctx, s.repo, patientUserID)
	if err != nil {
		return nil, err
	}

	recordedAt := time.Now().UTC()
	if req.RecordedAt != nil {
		recordedAt = req.RecordedAt.UTC()
	}

	data := &models.HealthData{
		PatientID:  patient.ID,
		DataType:   strings.TrimSpace(req.DataType),
		Value:      strings.TrimSpace(req.Value),
		Unit:       req.Unit,
		Notes:      req.Notes,
		RecordedAt: recordedAt,
		Metadata:   req.Metadata,
	}
	if err := s.repo.HealthData().Create(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to save health data: %w", err)
	}

	s.logger.Info("Health data recorded", "patient_id", patient.ID, "data_type", data.DataType)
	return data, nil
}

func (s *healthDataService) ListMine(ctx context.Context, patientUserID uint, filters repositories.HealthDataFilters) ([]*models.HealthData, error) {
	patient, err := resolvePatient(ctx, s.repo, patientUserID)
	if err != nil {
		return nil, err
	}
	return s.repo.HealthData().ListByPatient(ctx, patient.ID, filters)
}

func (s *healthDataService) ListForPatient(ctx context.Context, requester authz.Requester, patientID uint, filters repositories.HealthDataFilters) ([]*models.HealthData, error) {
	if err := checkAccess(ctx, s.access, requester, patientID, "health_data"); err != nil {
		return nil, err
	}

	if _, err := s.repo.Patient().GetByID(ctx, patientID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return s.repo.HealthData().ListByPatient(ctx, patientID, filters)
}
