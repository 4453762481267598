package repositories

import "context"

// Repository aggregates every store the service owns
type Repository interface {
	// Identity domain
	User() UserRepository
	Patient() PatientRepository
	Doctor() DoctorRepository

	// Care domain
	Appointment() AppointmentRepository
	Rating() RatingRepository
	MedicalRecord() MedicalRecordRepository
	HealthData() HealthDataRepository

	// Audit domain (append-only)
	ActivityLog() ActivityLogRepository

	// Transaction support; fn receives a Repository bound to the transaction
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
