package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/pulsex/care-service/internal/authz"
	"github.com/pulsex/care-service/internal/events"
	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
	"github.com/pulsex/care-service/internal/repositories/memory"
	"github.com/pulsex/care-service/internal/security"
	"github.com/pulsex/care-service/internal/services"
	"github.com/pulsex/care-service/internal/storage"
	"github.com/pulsex/care-service/internal/utils"
	"github.com/pulsex/care-service/internal/validator"
)

const (
	testPassword  = "Passw0rd!"
	testJWTSecret = "0123456789abcdef0123456789abcdef"
)

type apiEnv struct {
	t         *testing.T
	ctx       context.Context
	repo      *memory.Repository
	publisher *events.MockEventPublisher
	tokens    *security.TokenManager
	router    *gin.Engine
	hash      string
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	slogLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	passwords := security.NewPasswordManager(4)
	hash, err := passwords.HashPassword(testPassword)
	require.NoError(t, err)

	env := &apiEnv{
		t:         t,
		ctx:       context.Background(),
		repo:      memory.NewRepository(),
		publisher: events.NewMockEventPublisher(slogLogger),
		tokens:    security.NewTokenManager(testJWTSecret, "care-service", time.Hour),
		hash:      hash,
	}

	serviceManager := services.NewServiceManager(env.repo, slogLogger, validator.New(), services.Infrastructure{
		Publisher: env.publisher,
		Blobs:     storage.NewMemoryBlobStore(),
		Passwords: passwords,
		Tokens:    env.tokens,
	}, services.ServiceManagerConfig{Access: authz.DefaultOptions(), MaxUploadBytes: 1 << 10})
	require.NoError(t, serviceManager.Initialize(env.ctx))

	logger := utils.NewSlogLogger(slogLogger)
	env.router = gin.New()
	SetupMiddleware(env.router, logger)
	NewHandlerManager(serviceManager, NewJWTAuthMiddleware(env.tokens, serviceManager.Auth()), logger).SetupRoutes(env.router)
	return env
}

func (e *apiEnv) user(name string, role models.UserRole) *models.User {
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

func (e *apiEnv) patient(name string) (*models.User, *models.Patient) {
	e.t.Helper()
	u := e.user(name, models.RolePatient)
	p := &models.Patient{UserID: u.ID}
	require.NoError(e.t, e.repo.Patient().Create(e.ctx, p))
	return u, p
}

func (e *apiEnv) doctor(name string, status models.ApprovalStatus) (*models.User, *models.Doctor) {
	e.t.Helper()
	u := e.user(name, models.RoleDoctor)
	d := &models.Doctor{UserID: u.ID, Specialization: "Cardiology", ApprovalStatus: status}
	require.NoError(e.t, e.repo.Doctor().Create(e.ctx, d))
	return u, d
}

func (e *apiEnv) appointment(doctorID, patientID uint, status models.AppointmentStatus) *models.Appointment {
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

func (e *apiEnv) deactivate(u *models.User) {
	e.t.Helper()
	inactive := false
	require.NoError(e.t, e.repo.User().UpdateFields(e.ctx, u.ID, repositories.UserChanges{IsActive: &inactive}))
}

func (e *apiEnv) token(u *models.User) string {
	e.t.Helper()
	token, _, err := e.tokens.Issue(u)
	require.NoError(e.t, err)
	return token
}

// do sends body as JSON unless it is already an io.Reader
func (e *apiEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()

	var reader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		payload, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req := newRequest(e.t, method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return serve(e, req)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, "%s", w.Body.String())
}

func newRequest(t *testing.T, method, path string, body io.Reader) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, body)
}

func serve(e *apiEnv, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
