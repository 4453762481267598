package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsex/care-service/internal/authz"
	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
	"github.com/pulsex/care-service/internal/repositories/memory"
	"github.com/pulsex/care-service/internal/validator"
)

// interleavingRepo runs afterRead once, right after the first user lookup,
// to simulate a write landing between a service's read and its own write
type interleavingRepo struct {
	*memory.Repository
	afterRead func()
}

func (r *interleavingRepo) User() repositories.UserRepository {
	return &interleavingUsers{UserRepository: r.Repository.User(), repo: r}
}

func (r *interleavingRepo) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.Repository.WithTransaction(ctx, func(repositories.Repository) error { return fn(r) })
}

func (r *interleavingRepo) fire() {
	if r.afterRead != nil {
		hook := r.afterRead
		r.afterRead = nil
		hook()
	}
}

type interleavingUsers struct {
	repositories.UserRepository
	repo *interleavingRepo
}

func (u *interleavingUsers) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := u.UserRepository.GetByID(ctx, id)
	u.repo.fire()
	return user, err
}

func (u *interleavingUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := u.UserRepository.GetByEmail(ctx, email)
	u.repo.fire()
	return user, err
}

func TestUserWrites_KeepConcurrentDeactivation(t *testing.T) {
	tests := []struct {
		name string
		run  func(ctx context.Context, sm ServiceManager, u *models.User) error
	}{
		{"login", func(ctx context.Context, sm ServiceManager, u *models.User) error {
			_, err := sm.Auth().Login(ctx, &LoginRequest{Email: u.Email, Password: testPassword})
			return err
		}},
		{"update profile", func(ctx context.Context, sm ServiceManager, u *models.User) error {
			_, err := sm.User().UpdateProfile(ctx, u.ID, &UpdateProfileRequest{FullName: strPtr("Alice Liddell")})
			return err
		}},
		{"change password", func(ctx context.Context, sm ServiceManager, u *models.User) error {
			return sm.User().ChangePassword(ctx, u.ID, &ChangePasswordRequest{
				CurrentPassword: testPassword,
				NewPassword:     "N3w-Passw0rd",
			})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			u, _ := env.patient("alice")

			repo := &interleavingRepo{Repository: env.repo}
			repo.afterRead = func() { env.deactivate(u) }

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			sm := NewServiceManager(repo, logger, validator.New(), Infrastructure{
				Cache:     env.cache,
				Publisher: env.publisher,
				Blobs:     env.blobs,
				Passwords: env.passwords,
				Tokens:    env.tokens,
			}, ServiceManagerConfig{Access: authz.DefaultOptions(), MaxUploadBytes: 1 << 10})
			require.NoError(t, sm.Initialize(env.ctx))

			require.NoError(t, tt.run(env.ctx, sm, u))
			require.Nil(t, repo.afterRead, "user lookup never happened")

			stored, err := env.repo.User().GetByID(env.ctx, u.ID)
			require.NoError(t, err)
			assert.False(t, stored.IsActive)
		})
	}
}

func TestUserWrites_TouchOnlyChangedColumns(t *testing.T) {
	env := newTestEnv(t)
	u, _ := env.patient("alice")

	_, err := env.services.Auth().Login(env.ctx, &LoginRequest{Email: u.Email, Password: testPassword})
	require.NoError(t, err)

	stored, err := env.repo.User().GetByID(env.ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, u.FullName, stored.FullName)
	assert.Equal(t, u.PasswordHash, stored.PasswordHash)
	assert.True(t, stored.IsActive)

	err = env.repo.User().UpdateFields(env.ctx, 9999, repositories.UserChanges{})
	assert.True(t, repositories.IsNotFoundError(err))
}
