package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pulsex/care-service/internal/authz"
	"github.com/pulsex/care-service/internal/cache"
	"github.com/pulsex/care-service/internal/events"
	"github.com/pulsex/care-service/internal/repositories"
	"github.com/pulsex/care-service/internal/security"
	"github.com/pulsex/care-service/internal/storage"
	"github.com/pulsex/care-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// Record access policy
	Access authz.Options

	// Upload limit for medical records; zero means unlimited
	MaxUploadBytes int64

	DefaultTimeout time.Duration
}

// Infrastructure bundles the collaborators shared by every service
type Infrastructure struct {
	Cache     *cache.CacheManager
	Publisher events.EventPublisher
	Blobs     storage.BlobStore
	Passwords *security.PasswordManager
	Tokens    *security.TokenManager
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	infra     Infrastructure
	config    ServiceManagerConfig

	// Service instances
	authService          AuthService
	adminService         AdminService
	doctorService        DoctorService
	appointmentService   AppointmentService
	medicalRecordService MedicalRecordService
	healthDataService    HealthDataService
	userService          UserService
	accessEngine         *authz.Engine

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, infra Infrastructure, config ServiceManagerConfig) ServiceManager {
	if infra.Cache == nil {
		infra.Cache = cache.NewCacheManager(nil)
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = 30 * time.Second
	}
	return &serviceManager{
		repo:      repo,
		logger:    logger,
		validator: validator,
		infra:     infra,
		config:    config,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.validateInfrastructure(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	audit := newAuditTrail(sm.infra.Publisher, sm.logger)
	sm.accessEngine = authz.NewEngine(sm.repo, sm.config.Access)

	sm.authService = NewAuthService(sm.repo, sm.logger, sm.validator, sm.infra.Passwords, sm.infra.Tokens, audit)
	sm.adminService = NewAdminService(sm.repo, sm.logger, sm.validator, sm.infra.Cache, audit)
	sm.doctorService = NewDoctorService(sm.repo, sm.logger, sm.validator, sm.infra.Cache)
	sm.appointmentService = NewAppointmentService(sm.repo, sm.logger, sm.validator, audit)
	sm.medicalRecordService = NewMedicalRecordService(sm.repo, sm.logger, sm.validator, sm.accessEngine, sm.infra.Blobs, sm.config.MaxUploadBytes)
	sm.healthDataService = NewHealthDataService(sm.repo, sm.logger, sm.validator, sm.accessEngine)
	sm.userService = NewUserService(sm.repo, sm.logger, sm.validator, sm.infra.Cache, sm.infra.Passwords)

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully",
		"admin_record_access", sm.config.Access.AdminRecordAccess,
		"require_completed_appointment", sm.config.Access.RequireCompletedAppointment)

	return nil
}

func (sm *serviceManager) validateInfrastructure() error {
	switch {
	case sm.repo == nil:
		return fmt.Errorf("repository is required")
	case sm.infra.Blobs == nil:
		return fmt.Errorf("blob store is required")
	case sm.infra.Passwords == nil:
		return fmt.Errorf("password manager is required")
	case sm.infra.Tokens == nil:
		return fmt.Errorf("token manager is required")
	}
	return nil
}

// Service getters
func (sm *serviceManager) Auth() AuthService {
	sm.mustBeInitialized()
	return sm.authService
}

func (sm *serviceManager) Admin() AdminService {
	sm.mustBeInitialized()
	return sm.adminService
}

func (sm *serviceManager) Doctor() DoctorService {
	sm.mustBeInitialized()
	return sm.doctorService
}

func (sm *serviceManager) Appointment() AppointmentService {
	sm.mustBeInitialized()
	return sm.appointmentService
}

func (sm *serviceManager) MedicalRecord() MedicalRecordService {
	sm.mustBeInitialized()
	return sm.medicalRecordService
}

func (sm *serviceManager) HealthData() HealthDataService {
	sm.mustBeInitialized()
	return sm.healthDataService
}

func (sm *serviceManager) User() UserService {
	sm.mustBeInitialized()
	return sm.userService
}

func (sm *serviceManager) Access() RecordAccessChecker {
	sm.mustBeInitialized()
	return sm.accessEngine
}

func (sm *serviceManager) mustBeInitialized() {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	ctx, cancel := context.WithTimeout(ctx, sm.config.DefaultTimeout)
	defer cancel()

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.infra.Publisher != nil {
		if err := sm.infra.Publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if err := sm.repo.Close(); err != nil {
		sm.logger.Error("Failed to close repository", "error", err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}
