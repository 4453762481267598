package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/pulsex/care-service/internal/authz"
	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
	"github.com/pulsex/care-service/internal/storage"
	"github.com/pulsex/care-service/internal/validator"
)

type medicalRecordService struct {
	repo           repositories.Repository
	logger         *slog.Logger
	validator      *validator.Validator
	access         RecordAccessChecker
	blobs          storage.BlobStore
	maxUploadBytes int64
}

func NewMedicalRecordService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, access RecordAccessChecker, blobs storage.BlobStore, maxUploadBytes int64) MedicalRecordService {
	return &medicalRecordService{
		repo:           repo,
		logger:         logger,
		validator:      validator,
		access:         access,
		blobs:          blobs,
		maxUploadBytes: maxUploadBytes,
	}
}

func (s *medicalRecordService) Upload(ctx context.Context, patientUserID uint, req *UploadMedicalRecordRequest) (*models.MedicalRecord, error) {
	s.logger.Info("Uploading medical record", "user_id", patientUserID, "file_name", req.FileName)

	if err := s.validator.Validate(req); err != nil {
		return nil, invalidInput(err)
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(req.ContentType, ";")[0]))
	if !storage.AllowedContentTypes[contentType] {
		return nil, invalidInput(ValidationErrors{*NewValidationError("file", "unsupported content type", req.ContentType)})
	}

	patient, err := resolvePatient(ctx, s.repo, patientUserID)
	if err != nil {
		return nil, err
	}

	key, size, err := s.blobs.Put(ctx, req.FileName, req.Content, s.maxUploadBytes)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge):
			return nil, invalidInput(ValidationErrors{*NewValidationError("file", fmt.Sprintf("must be at most %d bytes", s.maxUploadBytes), req.FileName)})
		case errors.Is(err, storage.ErrMissingFileName):
			return nil, invalidInput(ValidationErrors{*NewValidationError("file", "is required", nil)})
		}
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	if size == 0 {
		_ = s.blobs.Delete(ctx, key)
		return nil, invalidInput(ValidationErrors{*NewValidationError("file", "must not be empty", req.FileName)})
	}

	record := &models.MedicalRecord{
		PatientID:   patient.ID,
		FileName:    req.FileName,
		StorageKey:  key,
		ContentType: contentType,
		FileSize:    size,
		Description: req.Description,
		Tags:        req.Tags,
		UploadedAt:  time.Now().UTC(),
	}
	if err := s.repo.MedicalRecord().Create(ctx, record); err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			s.logger.Error("Failed to remove orphaned blob", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to save medical record: %w", err)
	}

	s.logger.Info("Medical record uploaded", "record_id", record.ID, "patient_id", patient.ID, "size", size)
	return record, nil
}

func (s *medicalRecordService) ListMine(ctx context.Context, patientUserID uint) ([]*models.MedicalRecord, error) {
	patient, err := resolvePatient(ctx, s.repo, patientUserID)
	if err != nil {
		return nil, err
	}
	return s.repo.MedicalRecord().ListByPatient(ctx, patient.ID)
}

// ListForPatient decides access before looking the patient up, so a denied
// caller cannot discover which patients exist
func (s *medicalRecordService) ListForPatient(ctx context.Context, requester authz.Requester, patientID uint) ([]*models.MedicalRecord, error) {
	if err := checkAccess(ctx, s.access, requester, patientID, "medical_records"); err != nil {
		return nil, err
	}

	if _, err := s.repo.Patient().GetByID(ctx, patientID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return s.repo.MedicalRecord().ListByPatient(ctx, patientID)
}

// Download resolves the record first since access depends on its patient.
// A denied caller gets the same not-found error as for an unknown id.
func (s *medicalRecordService) Download(ctx context.Context, requester authz.Requester, recordID uint) (*models.MedicalRecord, io.ReadCloser, error) {
	record, err := s.repo.MedicalRecord().GetByID(ctx, recordID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrMedicalRecordNotFound
		}
		return nil, nil, fmt.Errorf("failed to get medical record: %w", err)
	}

	if err := checkAccess(ctx, s.access, requester, record.PatientID, "medical_record"); err != nil {
		if errors.Is(err, ErrForbidden) {
			s.logger.Warn("Medical record download denied", "record_id", record.ID, "user_id", requester.UserID)
			return nil, nil, ErrMedicalRecordNotFound
		}
		return nil, nil, err
	}

	content, err := s.blobs.Open(ctx, record.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			s.logger.Error("Medical record content missing", "record_id", record.ID, "key", record.StorageKey)
			return nil, nil, ErrMedicalRecordNotFound
		}
		return nil, nil, fmt.Errorf("failed to open medical record: %w", err)
	}
	return record, content, nil
}

func checkAccess(ctx context.Context, access RecordAccessChecker, requester authz.Requester, patientID uint, resource string) error {
	decision, err := access.CheckRecordAccess(ctx, requester.UserID, requester.Role, patientID)
	if err != nil {
		return fmt.Errorf("failed to check record access: %w", err)
	}
	if decision != authz.Allow {
		return NewPermissionError(requester.UserID, patientID, resource, "read", "no care relationship with patient")
	}
	return nil
}
