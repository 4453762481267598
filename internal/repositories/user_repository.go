package repositories

import (
	"context"
	"time"

	"github.com/pulsex/care-service/internal/models"
)

// UserFilters defines filters for user queries
type UserFilters struct {
	Query    string           // Search query for name or email
	Role     *models.UserRole // Restrict to one role
	IsActive *bool
	Limit    int // Page size
	Offset   int // Offset for pagination
}

// UserChanges names the columns an update writes; nil fields keep their stored value
type UserChanges struct {
	FullName     *string
	PhoneNumber  *string
	PasswordHash *string
	IsActive     *bool
	LastLoginAt  *time.Time
}

// UserRepository interface for user operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// UpdateFields writes only the columns set in changes, so concurrent
	// writers of other columns never overwrite each other
	UpdateFields(ctx context.Context, id uint, changes UserChanges) error

	// Basic read operations
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.User, error)

	// List and search operations
	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)

	// Validation and checks
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
