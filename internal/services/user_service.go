package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pulsex/care-service/internal/cache"
	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
	"github.com/pulsex/care-service/internal/security"
	"github.com/pulsex/care-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	passwords *security.PasswordManager
}

func NewUserService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager, passwords *security.PasswordManager) UserService {
	return &userService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		cache:     cacheManager,
		passwords: passwords,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := s.cache.User.CacheOrExecute(ctx, fmt.Sprintf("id:%d", userID), &profile, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		return s.loadProfile(ctx, userID)
	})
	if err != nil {
		if IsNotFound(err) || repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*models.UserProfile, error) {
	s.logger.Info("Updating profile", "user_id", userID)

	if err := s.validator.Validate(req); err != nil {
		return nil, invalidInput(err)
	}

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		user, err := tx.User().GetByID(ctx, userID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to get user: %w", err)
		}

		var changes repositories.UserChanges
		if req.FullName != nil && strings.TrimSpace(*req.FullName) != "" {
			name := strings.TrimSpace(*req.FullName)
			changes.FullName = &name
		}
		if req.PhoneNumber != nil && *req.PhoneNumber != "" {
			changes.PhoneNumber = req.PhoneNumber
		}
		if err := tx.User().UpdateFields(ctx, user.ID, changes); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		if user.Role != models.RolePatient {
			return nil
		}
		patient, err := tx.Patient().GetByUserID(ctx, user.ID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil
			}
			return fmt.Errorf("failed to get patient: %w", err)
		}
		if req.DateOfBirth != nil {
			patient.DateOfBirth = req.DateOfBirth
		}
		if req.Gender != nil && *req.Gender != "" {
			patient.Gender = req.Gender
		}
		if req.Address != nil && *req.Address != "" {
			patient.Address = req.Address
		}
		if req.BloodType != nil && *req.BloodType != "" {
			patient.BloodType = req.BloodType
		}
		if err := tx.Patient().Update(ctx, patient); err != nil {
			return fmt.Errorf("failed to update patient: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateUserCache(ctx, s.cache, userID)
	return s.loadProfile(ctx, userID)
}

func (s *userService) ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return invalidInput(err)
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := s.passwords.VerifyPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return ErrWrongPassword
	}

	hash, err := s.passwords.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.User().UpdateFields(ctx, user.ID, repositories.UserChanges{PasswordHash: &hash}); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("Password changed", "user_id", userID)
	return nil
}

func (s *userService) loadProfile(ctx context.Context, userID uint) (*models.UserProfile, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	profile := models.NewUserProfile(user)
	switch user.Role {
	case models.RolePatient:
		patient, err := s.repo.Patient().GetByUserID(ctx, user.ID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get patient: %w", err)
		}
		if err == nil {
			profile.WithPatient(patient)
		}
	case models.RoleDoctor:
		doctor, err := s.repo.Doctor().GetByUserID(ctx, user.ID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get doctor: %w", err)
		}
		if err == nil {
			id := doctor.ID
			profile.DoctorID = &id
		}
	}
	return profile, nil
}
