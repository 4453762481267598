package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/pulsex/care-service/internal/authz"
	"github.com/pulsex/care-service/internal/cache"
	"github.com/pulsex/care-service/internal/events"
	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
	"github.com/pulsex/care-service/internal/repositories/memory"
	"github.com/pulsex/care-service/internal/security"
	"github.com/pulsex/care-service/internal/storage"
	"github.com/pulsex/care-service/internal/validator"
)

const (
	testPassword  = "Passw0rd!"
	testJWTSecret = "0123456789abcdef0123456789abcdef"
)

type testEnv struct {
	t         *testing.T
	ctx       context.Context
	repo      *memory.Repository
	publisher *events.MockEventPublisher
	cache     *cache.CacheManager
	redis     *miniredis.Miniredis
	blobs     *storage.MemoryBlobStore
	passwords *security.PasswordManager
	tokens    *security.TokenManager
	services  ServiceManager
	hash      string
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithConfig(t, ServiceManagerConfig{Access: authz.DefaultOptions(), MaxUploadBytes: 1 << 10})
}

func newTestEnvWithConfig(t *testing.T, config ServiceManagerConfig) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := &testEnv{
		t:         t,
		ctx:       context.Background(),
		repo:      memory.NewRepository(),
		publisher: events.NewMockEventPublisher(logger),
		cache:     cache.NewCacheManager(client),
		redis:     mr,
		blobs:     storage.NewMemoryBlobStore(),
		passwords: security.NewPasswordManager(4),
		tokens:    security.NewTokenManager(testJWTSecret, "care-service", time.Hour),
	}

	env.services = NewServiceManager(env.repo, logger, validator.New(), Infrastructure{
		Cache:     env.cache,
		Publisher: env.publisher,
		Blobs:     env.blobs,
		Passwords: env.passwords,
		Tokens:    env.tokens,
	}, config)
	require.NoError(t, env.services.Initialize(env.ctx))

	hash, err := env.passwords.HashPassword(testPassword)
	require.NoError(t, err)
	env.hash = hash
	return env
}

func (e *testEnv) user(name string, role models.UserRole) *models.User {
	e.t.Helper()
	u := &models.User{
		FullName:     name,
		Email:        name + "@care.test",
		PasswordHash: e.hash,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(e.t, e.repo.User().Create(e.ctx, u))
	return u
}

func (e *testEnv) admin(name string) *models.User {
	return e.user(name, models.RoleAdmin)
}

func (e *testEnv) patient(name string) (*models.User, *models.Patient) {
	e.t.Helper()
	u := e.user(name, models.RolePatient)
	p := &models.Patient{UserID: u.ID}
	require.NoError(e.t, e.repo.Patient().Create(e.ctx, p))
	return u, p
}

func (e *testEnv) doctor(name string, status models.ApprovalStatus) (*models.User, *models.Doctor) {
	e.t.Helper()
	u := e.user(name, models.RoleDoctor)
	d := &models.Doctor{UserID: u.ID, Specialization: "Cardiology", ApprovalStatus: status}
	require.NoError(e.t, e.repo.Doctor().Create(e.ctx, d))
	return u, d
}

func (e *testEnv) appointment(doctorID, patientID uint, status models.AppointmentStatus) *models.Appointment {
	e.t.Helper()
	a := &models.Appointment{
		DoctorID:        doctorID,
		PatientID:       patientID,
		AppointmentDate: time.Now().Add(-24 * time.Hour),
		Status:          status,
	}
	require.NoError(e.t, e.repo.Appointment().Create(e.ctx, a))
	return a
}

func (e *testEnv) deactivate(u *models.User) {
	e.t.Helper()
	inactive := false
	require.NoError(e.t, e.repo.User().UpdateFields(e.ctx, u.ID, repositories.UserChanges{IsActive: &inactive}))
	u.IsActive = false
}

func (e *testEnv) activity() []*models.ActivityLog {
	e.t.Helper()
	logs, err := e.repo.ActivityLog().List(e.ctx, repositories.ActivityFilters{})
	require.NoError(e.t, err)
	return logs
}

func (e *testEnv) reloadDoctor(id uint) *models.Doctor {
	e.t.Helper()
	d, err := e.repo.Doctor().GetByID(e.ctx, id)
	require.NoError(e.t, err)
	return d
}

func strPtr(s string) *string { return &s }
