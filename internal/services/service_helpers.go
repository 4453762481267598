package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// requireAdmin resolves the acting user and fails unless it is an active admin
func requireAdmin(ctx context.Context, repo repositories.Repository, actorID uint, resource string, resourceID uint, action string) (*models.User, error) {
	actor, err := repo.User().GetByID(ctx, actorID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewPermissionError(actorID, resourceID, resource, action, "unknown actor")
		}
		return nil, fmt.Errorf("failed to resolve actor: %w", err)
	}
	if actor.Role != models.RoleAdmin || !actor.IsActive {
		return nil, NewPermissionError(actorID, resourceID, resource, action, "admin role required")
	}
	return actor, nil
}

// resolvePatient maps a user onto their patient profile
func resolvePatient(ctx context.Context, repo repositories.Repository, userID uint) (*models.Patient, error) {
	patient, err := repo.Patient().GetByUserID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

// roundScore keeps two decimals to match the decimal(3,2) column
func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ptrValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
