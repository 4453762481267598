package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pulsex/care-service/internal/cache"
	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
	"github.com/pulsex/care-service/internal/validator"
)

type doctorService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
}

func NewDoctorService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager) DoctorService {
	return &doctorService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		cache:     cacheManager,
	}
}

// ===== DIRECTORY =====

// ListDoctors returns approved doctors; admins may opt in to every state
func (s *doctorService) ListDoctors(ctx context.Context, params *DoctorListParams, callerRole models.UserRole) (*models.PaginatedResponse, error) {
	if err := s.validator.Validate(params); err != nil {
		return nil, invalidInput(err)
	}

	page, size := normalizePage(params.Page, params.Size)
	filters := repositories.DoctorFilters{
		Specialization: strings.TrimSpace(params.Specialization),
		SortBy:         params.SortBy,
		SortOrder:      params.SortOrder,
		Limit:          size,
		Offset:         (page - 1) * size,
	}

	status := "all"
	if !(params.IncludeUnapproved && callerRole == models.RoleAdmin) {
		approved := models.ApprovalApproved
		filters.ApprovalStatus = &approved
		status = string(approved)
	}

	key := cache.DoctorListKey(status, strings.ToLower(filters.Specialization), filters.SortBy+":"+filters.SortOrder, filters.Limit, filters.Offset)
	var result DoctorPage
	err := s.cache.Doctor.CacheOrExecute(ctx, key, &result, cache.DoctorCacheConfig.TTL, func() (interface{}, error) {
		doctors, total, err := s.repo.Doctor().List(ctx, filters)
		if err != nil {
			return nil, err
		}
		summaries := make([]*models.DoctorSummary, 0, len(doctors))
		for _, d := range doctors {
			summaries = append(summaries, models.NewDoctorSummary(d))
		}
		return &DoctorPage{Doctors: summaries, Total: total}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}

	return models.NewPaginatedResponse(result.Doctors, len(result.Doctors), result.Total, page, size), nil
}

// GetDoctorProfile hides doctors that are not approved from non-admin callers
func (s *doctorService) GetDoctorProfile(ctx context.Context, doctorID uint, callerRole models.UserRole) (*models.DoctorSummary, error) {
	var summary models.DoctorSummary
	err := s.cache.Doctor.CacheOrExecute(ctx, cache.DoctorProfileKey(doctorID), &summary, cache.DoctorCacheConfig.TTL, func() (interface{}, error) {
		doctor, err := s.repo.Doctor().GetByID(ctx, doctorID)
		if err != nil {
			return nil, err
		}
		return models.NewDoctorSummary(doctor), nil
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	if !summary.IsApproved && callerRole != models.RoleAdmin {
		return nil, ErrDoctorNotFound
	}
	return &summary, nil
}

// ===== RATINGS =====

// SubmitRating records a patient's score for a completed appointment and
// recomputes the doctor's aggregate in the same transaction
func (s *doctorService) SubmitRating(ctx context.Context, patientUserID uint, req *SubmitRatingRequest) (*models.RatingSummary, error) {
	s.logger.Info("Submitting rating", "user_id", patientUserID, "appointment_id", req.AppointmentID)

	if errs := s.validator.GetBusinessValidator().ValidateRatingScore(req.Score); len(errs) > 0 {
		return nil, invalidInput(errs)
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, invalidInput(err)
	}

	patient, err := resolvePatient(ctx, s.repo, patientUserID)
	if err != nil {
		return nil, err
	}

	appointment, err := s.repo.Appointment().GetByID(ctx, req.AppointmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	if appointment.PatientID != patient.ID {
		return nil, ErrAppointmentNotYours
	}
	if appointment.Status != models.AppointmentCompleted {
		return nil, ErrAppointmentNotDone
	}

	if _, err := s.repo.Rating().GetByAppointmentID(ctx, appointment.ID); err == nil {
		return nil, ErrAppointmentRated
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing rating: %w", err)
	}

	rating := &models.Rating{
		DoctorID:      appointment.DoctorID,
		PatientID:     patient.ID,
		AppointmentID: appointment.ID,
		Score:         req.Score,
		Review:        req.Review,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		// Serializes concurrent recomputes for the same doctor
		doctor, err := tx.Doctor().GetByIDForUpdate(ctx, appointment.DoctorID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrDoctorNotFound
			}
			return fmt.Errorf("failed to lock doctor: %w", err)
		}

		if err := tx.Rating().Create(ctx, rating); err != nil {
			if repositories.IsDuplicateKeyError(err) {
				return ErrAppointmentRated
			}
			return fmt.Errorf("failed to create rating: %w", err)
		}

		agg, err := tx.Rating().Aggregate(ctx, doctor.ID)
		if err != nil {
			return err
		}
		doctor.TotalRatings = agg.Count
		doctor.AverageRating = roundScore(agg.Average)
		if err := tx.Doctor().Update(ctx, doctor); err != nil {
			return fmt.Errorf("failed to update doctor rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateDoctorCache(ctx, s.cache, rating.DoctorID)
	s.logger.Info("Rating submitted", "rating_id", rating.ID, "doctor_id", rating.DoctorID)

	return newRatingSummary(rating, patient.User.FullName), nil
}

func (s *doctorService) ListDoctorRatings(ctx context.Context, doctorID uint, page, size int) (*models.PaginatedResponse, error) {
	page, size = normalizePage(page, size)
	offset := (page - 1) * size

	if _, err := s.repo.Doctor().GetByID(ctx, doctorID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}

	var result RatingPage
	err := s.cache.Rating.CacheOrExecute(ctx, cache.DoctorRatingsKey(doctorID, size, offset), &result, cache.RatingCacheConfig.TTL, func() (interface{}, error) {
		ratings, total, err := s.repo.Rating().ListByDoctor(ctx, doctorID, size, offset)
		if err != nil {
			return nil, err
		}
		summaries := make([]*models.RatingSummary, 0, len(ratings))
		for _, r := range ratings {
			summaries = append(summaries, newRatingSummary(r, r.Patient.User.FullName))
		}
		return &RatingPage{Ratings: summaries, Total: total}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}

	return models.NewPaginatedResponse(result.Ratings, len(result.Ratings), result.Total, page, size), nil
}

func newRatingSummary(r *models.Rating, patientName string) *models.RatingSummary {
	if patientName == "" {
		patientName = models.UnknownActorName
	}
	return &models.RatingSummary{
		ID:            r.ID,
		DoctorID:      r.DoctorID,
		PatientID:     r.PatientID,
		PatientName:   patientName,
		AppointmentID: r.AppointmentID,
		Score:         r.Score,
		Review:        r.Review,
		CreatedAt:     r.CreatedAt,
	}
}
