package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
	"github.com/pulsex/care-service/internal/security"
	"github.com/pulsex/care-service/internal/validator"
)

type authService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	passwords *security.PasswordManager
	tokens    *security.TokenManager
	audit     *auditTrail
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, passwords *security.PasswordManager, tokens *security.TokenManager, audit *auditTrail) AuthService {
	return &authService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		passwords: passwords,
		tokens:    tokens,
		audit:     audit,
	}
}

func (s *authService) RegisterPatient(ctx context.Context, req *RegisterPatientRequest) (*AuthResponse, error) {
	s.logger.Info("Registering patient", "email", req.Email)

	if err := s.validator.Validate(req); err != nil {
		return nil, invalidInput(err)
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        normalizeEmail(req.Email),
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		Role:         models.RolePatient,
		IsActive:     true,
	}

	var entry *models.ActivityLog
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := s.createUser(ctx, tx, user); err != nil {
			return err
		}

		patient := &models.Patient{
			UserID:      user.ID,
			DateOfBirth: req.DateOfBirth,
			Gender:      req.Gender,
			Address:     req.Address,
			BloodType:   req.BloodType,
		}
		if err := tx.Patient().Create(ctx, patient); err != nil {
			return fmt.Errorf("failed to create patient: %w", err)
		}

		entry, err = s.audit.record(ctx, tx, user.ID, models.ActionPatientRegistration, models.EntityPatient,
			entityRef(patient.ID), fmt.Sprintf("Patient %s registered", user.FullName))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit.emit(ctx, entry)

	s.logger.Info("Patient registered", "user_id", user.ID)
	return s.issue(user)
}

func (s *authService) CreateDoctor(ctx context.Context, req *CreateDoctorRequest, adminID uint) (*models.DoctorSummary, error) {
	s.logger.Info("Creating doctor account", "email", req.Email, "admin_id", adminID)

	if err := s.validator.Validate(req); err != nil {
		return nil, invalidInput(err)
	}
	if _, err := requireAdmin(ctx, s.repo, adminID, "doctor", 0, "create"); err != nil {
		return nil, err
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        normalizeEmail(req.Email),
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		Role:         models.RoleDoctor,
		IsActive:     true,
	}
	doctor := &models.Doctor{
		Specialization:    strings.TrimSpace(req.Specialization),
		LicenseNumber:     req.LicenseNumber,
		ConsultationPrice: req.ConsultationPrice,
		ClinicLocation:    req.ClinicLocation,
		Bio:               req.Bio,
		YearsOfExperience: req.YearsOfExperience,
		ApprovalStatus:    models.ApprovalPending,
	}

	var entry *models.ActivityLog
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := s.createUser(ctx, tx, user); err != nil {
			return err
		}
		doctor.UserID = user.ID
		if err := tx.Doctor().Create(ctx, doctor); err != nil {
			return fmt.Errorf("failed to create doctor: %w", err)
		}

		entry, err = s.audit.record(ctx, tx, adminID, models.ActionDoctorCreated, models.EntityDoctor,
			entityRef(doctor.ID), fmt.Sprintf("Doctor %s created", user.FullName))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit.emit(ctx, entry)

	doctor.User = *user
	s.logger.Info("Doctor account created", "doctor_id", doctor.ID, "user_id", user.ID)
	return models.NewDoctorSummary(doctor), nil
}

func (s *authService) CreateAdmin(ctx context.Context, req *CreateAdminRequest, adminID uint) (*models.UserProfile, error) {
	s.logger.Info("Creating admin account", "email", req.Email, "admin_id", adminID)

	if err := s.validator.Validate(req); err != nil {
		return nil, invalidInput(err)
	}
	if _, err := requireAdmin(ctx, s.repo, adminID, "admin", 0, "create"); err != nil {
		return nil, err
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        normalizeEmail(req.Email),
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}

	var entry *models.ActivityLog
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := s.createUser(ctx, tx, user); err != nil {
			return err
		}
		entry, err = s.audit.record(ctx, tx, adminID, models.ActionAdminCreated, models.EntityUser,
			entityRef(user.ID), fmt.Sprintf("Admin %s created", user.FullName))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit.emit(ctx, entry)

	return models.NewUserProfile(user), nil
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, invalidInput(err)
	}

	user, err := s.repo.User().GetByEmail(ctx, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := s.passwords.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.logger.Warn("Login rejected", "user_id", user.ID, "reason", "bad password")
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	var entry *models.ActivityLog
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		now := time.Now().UTC()
		user.LastLoginAt = &now
		if err := tx.User().UpdateFields(ctx, user.ID, repositories.UserChanges{LastLoginAt: &now}); err != nil {
			return fmt.Errorf("failed to update last login: %w", err)
		}
		entry, err = s.audit.record(ctx, tx, user.ID, models.ActionLogin, models.EntityUser,
			entityRef(user.ID), fmt.Sprintf("User %s logged in", user.FullName))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.audit.emit(ctx, entry)

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return s.issue(user)
}

func (s *authService) ResolveUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.repo.User().GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}
	return user, nil
}

func (s *authService) createUser(ctx context.Context, tx repositories.Repository, user *models.User) error {
	exists, err := tx.User().ExistsByEmail(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return ErrEmailTaken
	}
	if err := tx.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *authService) issue(user *models.User) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
	}, nil
}
