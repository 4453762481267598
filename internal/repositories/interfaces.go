package repositories

import (
	"context"
	"time"

	"github.com/pulsex/care-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type DoctorFilters struct {
	ApprovalStatus *models.ApprovalStatus `json:"approval_status"`
	Specialization string                 `json:"specialization"`
	Limit          int                    `json:"limit"`
	Offset         int                    `json:"offset"`
	SortBy         string                 `json:"sort_by"`    // "created_at", "average_rating", "consultation_price"
	SortOrder      string                 `json:"sort_order"` // "asc", "desc"
}

type AppointmentFilters struct {
	Status   *models.AppointmentStatus `json:"status"`
	DateFrom *time.Time                `json:"date_from"`
	DateTo   *time.Time                `json:"date_to"`
	Limit    int                       `json:"limit"`
	Offset   int                       `json:"offset"`
}

type HealthDataFilters struct {
	DataType string     `json:"data_type"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
	Limit    int        `json:"limit"`
}

type ActivityFilters struct {
	UserID *uint `json:"user_id"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// ===== DOMAIN REPOSITORIES =====

type PatientRepository interface {
	Create(ctx context.Context, patient *models.Patient) error
	GetByID(ctx context.Context, id uint) (*models.Patient, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Patient, error)
	Update(ctx context.Context, patient *models.Patient) error
}

type DoctorRepository interface {
	Create(ctx context.Context, doctor *models.Doctor) error
	GetByID(ctx context.Context, id uint) (*models.Doctor, error)
	// GetByIDForUpdate locks the doctor row until the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Doctor, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Doctor, error)
	Update(ctx context.Context, doctor *models.Doctor) error
	List(ctx context.Context, filters DoctorFilters) ([]*models.Doctor, int64, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, id uint) (*models.Appointment, error)
	Update(ctx context.Context, appointment *models.Appointment) error
	ListByPatient(ctx context.Context, patientID uint, filters AppointmentFilters) ([]*models.Appointment, int64, error)
	ListByDoctor(ctx context.Context, doctorID uint, filters AppointmentFilters) ([]*models.Appointment, int64, error)
	// ExistsBetween reports whether doctor and patient share an appointment,
	// optionally restricted to the given statuses
	ExistsBetween(ctx context.Context, doctorID, patientID uint, statuses ...models.AppointmentStatus) (bool, error)
}

// RatingRepository has no update or delete on purpose: ratings are immutable
type RatingRepository interface {
	// Create returns ErrDuplicateKey when the appointment already has a rating
	Create(ctx context.Context, rating *models.Rating) error
	GetByAppointmentID(ctx context.Context, appointmentID uint) (*models.Rating, error)
	ListByDoctor(ctx context.Context, doctorID uint, limit, offset int) ([]*models.Rating, int64, error)
	// Aggregate recomputes count and mean score over every rating of the doctor
	Aggregate(ctx context.Context, doctorID uint) (*models.RatingAggregate, error)
}

type MedicalRecordRepository interface {
	Create(ctx context.Context, record *models.MedicalRecord) error
	GetByID(ctx context.Context, id uint) (*models.MedicalRecord, error)
	ListByPatient(ctx context.Context, patientID uint) ([]*models.MedicalRecord, error)
}

type HealthDataRepository interface {
	Create(ctx context.Context, data *models.HealthData) error
	ListByPatient(ctx context.Context, patientID uint, filters HealthDataFilters) ([]*models.HealthData, error)
}

// ActivityLogRepository is append-only
type ActivityLogRepository interface {
	// Append assigns ID and Timestamp
	Append(ctx context.Context, entry *models.ActivityLog) error
	// List returns entries in insertion order
	List(ctx context.Context, filters ActivityFilters) ([]*models.ActivityLog, error)
	// Recent returns the newest entries first
	Recent(ctx context.Context, limit int) ([]*models.ActivityLog, error)
}
