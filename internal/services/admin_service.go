package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pulsex/care-service/internal/cache"
	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
	"github.com/pulsex/care-service/internal/validator"
)

const (
	defaultRecentActivity = 10
	maxRecentActivity     = 200
)

type adminService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     *cache.CacheManager
	audit     *auditTrail
	exporter  *ActivityExporter
}

func NewAdminService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, cacheManager *cache.CacheManager, audit *auditTrail) AdminService {
	return &adminService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		cache:     cacheManager,
		audit:     audit,
		exporter:  NewActivityExporter(),
	}
}

// ===== USERS =====

func (s *adminService) ListUsers(ctx context.Context, filters repositories.UserFilters) ([]*models.UserProfile, int64, error) {
	users, total, err := s.repo.User().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	profiles := make([]*models.UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, models.NewUserProfile(u))
	}
	return profiles, total, nil
}

func (s *adminService) UpdateUserStatus(ctx context.Context, userID uint, req *UpdateUserStatusRequest, adminID uint) (*models.UserProfile, error) {
	s.logger.Info("Updating user status", "user_id", userID, "admin_id", adminID)

	if err := s.validator.Validate(req); err != nil {
		return nil, invalidInput(err)
	}
	if _, err := requireAdmin(ctx, s.repo, adminID, "user", userID, "update status"); err != nil {
		return nil, err
	}

	var user *models.User
	var entry *models.ActivityLog
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		user, err = tx.User().GetByID(ctx, userID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to get user: %w", err)
		}

		previous := user.IsActive
		user.IsActive = *req.IsActive
		if err := tx.User().UpdateFields(ctx, user.ID, repositories.UserChanges{IsActive: req.IsActive}); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		status := activeLabel(user.IsActive)
		entry, err = s.audit.recordChange(ctx, tx, adminID, models.ActionUpdateUserStatus, models.EntityUser,
			entityRef(user.ID), fmt.Sprintf("User %s status changed to %s", user.FullName, status), activeLabel(previous), status)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.emit(ctx, entry)
	cache.InvalidateUserCache(ctx, s.cache, user.ID)

	return models.NewUserProfile(user), nil
}

// ===== APPROVAL WORKFLOW =====

func (s *adminService) ListPendingDoctors(ctx context.Context) ([]*models.DoctorSummary, error) {
	pending := models.ApprovalPending
	doctors, _, err := s.repo.Doctor().List(ctx, repositories.DoctorFilters{
		ApprovalStatus: &pending,
		SortBy:         "created_at",
		SortOrder:      "asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending doctors: %w", err)
	}

	summaries := make([]*models.DoctorSummary, 0, len(doctors))
	for _, d := range doctors {
		summaries = append(summaries, models.NewDoctorSummary(d))
	}
	return summaries, nil
}

// ApproveDoctor moves a doctor to Approved or Rejected. Repeating the current
// decision changes nothing and writes no audit entry.
func (s *adminService) ApproveDoctor(ctx context.Context, doctorID, adminID uint, req *ApproveDoctorRequest) (*models.DoctorSummary, error) {
	s.logger.Info("Reviewing doctor", "doctor_id", doctorID, "admin_id", adminID, "approve", req.IsApproved)

	if err := s.validator.Validate(req); err != nil {
		return nil, invalidInput(err)
	}
	if _, err := requireAdmin(ctx, s.repo, adminID, "doctor", doctorID, "review"); err != nil {
		return nil, err
	}

	var doctor *models.Doctor
	var entry *models.ActivityLog
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		doctor, err = tx.Doctor().GetByIDForUpdate(ctx, doctorID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrDoctorNotFound
			}
			return fmt.Errorf("failed to get doctor: %w", err)
		}

		var next models.ApprovalState
		var action, details string
		now := time.Now().UTC()
		if req.IsApproved {
			next = models.Approved{By: adminID, At: now}
			action = models.ActionApproveDoctor
			details = fmt.Sprintf("Doctor %s approved", doctor.User.FullName)
		} else {
			reason := ptrValue(req.RejectionReason)
			next = models.Rejected{By: adminID, At: now, Reason: reason}
			action = models.ActionRejectDoctor
			details = fmt.Sprintf("Doctor %s rejected. Reason: %s", doctor.User.FullName, reason)
		}

		if doctor.Approval().Status() == next.Status() {
			s.logger.Info("Doctor review unchanged", "doctor_id", doctorID, "status", next.Status())
			return nil
		}

		previous := doctor.Approval().Status()
		doctor.SetApproval(next)
		if err := tx.Doctor().Update(ctx, doctor); err != nil {
			return fmt.Errorf("failed to update doctor: %w", err)
		}

		entry, err = s.audit.recordChange(ctx, tx, adminID, action, models.EntityDoctor, entityRef(doctor.ID), details,
			string(previous), string(next.Status()))
		return err
	})
	if err != nil {
		return nil, err
	}

	if entry != nil {
		s.audit.emit(ctx, entry)
		cache.InvalidateDoctorCache(ctx, s.cache, doctor.ID)
		s.logger.Info("Doctor reviewed", "doctor_id", doctor.ID, "status", doctor.ApprovalStatus)
	}

	return models.NewDoctorSummary(doctor), nil
}

// ===== AUDIT LOG =====

func (s *adminService) ListActivity(ctx context.Context, userID *uint) ([]*models.ActivityEntry, error) {
	logs, err := s.repo.ActivityLog().List(ctx, repositories.ActivityFilters{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return toActivityEntries(logs), nil
}

func (s *adminService) RecentActivity(ctx context.Context, limit int) ([]*models.ActivityEntry, error) {
	if limit <= 0 {
		limit = defaultRecentActivity
	}
	if limit > maxRecentActivity {
		limit = maxRecentActivity
	}

	logs, err := s.repo.ActivityLog().Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent activity: %w", err)
	}
	return toActivityEntries(logs), nil
}

func (s *adminService) ExportActivity(ctx context.Context, userID *uint) ([]byte, error) {
	entries, err := s.ListActivity(ctx, userID)
	if err != nil {
		return nil, err
	}

	data, err := s.exporter.Export(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to export activity: %w", err)
	}

	s.logger.Info("Activity exported", "entries", len(entries), "bytes", len(data))
	return data, nil
}

func toActivityEntries(logs []*models.ActivityLog) []*models.ActivityEntry {
	entries := make([]*models.ActivityEntry, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, models.NewActivityEntry(l))
	}
	return entries
}

func activeLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}
