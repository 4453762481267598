package services

import (
	"context"
	"io"
	"time"

	"github.com/pulsex/care-service/internal/authz"
	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
)

// ===== AUTH DTOs =====

type RegisterPatientRequest struct {
	Email       string     `json:"email" validate:"required,email,max=255"`
	Password    string     `json:"password" validate:"required,password_strength"`
	FullName    string     `json:"full_name" validate:"required,min=2,max=100"`
	PhoneNumber *string    `json:"phone_number" validate:"omitempty,max=30"`
	DateOfBirth *time.Time `json:"date_of_birth" validate:"omitempty,past_date"`
	Gender      *string    `json:"gender" validate:"omitempty,oneof=male female other"`
	Address     *string    `json:"address" validate:"omitempty,max=500"`
	BloodType   *string    `json:"blood_type" validate:"omitempty,blood_type"`
}

type CreateDoctorRequest struct {
	Email             string  `json:"email" validate:"required,email,max=255"`
	Password          string  `json:"password" validate:"required,password_strength"`
	FullName          string  `json:"full_name" validate:"required,min=2,max=100"`
	PhoneNumber       *string `json:"phone_number" validate:"omitempty,max=30"`
	Specialization    string  `json:"specialization" validate:"required,max=100"`
	LicenseNumber     *string `json:"license_number" validate:"omitempty,max=100"`
	ConsultationPrice float64 `json:"consultation_price" validate:"min=0"`
	ClinicLocation    *string `json:"clinic_location" validate:"omitempty,max=255"`
	Bio               *string `json:"bio" validate:"omitempty,max=2000"`
	YearsOfExperience int     `json:"years_of_experience" validate:"min=0,max=80"`
}

type CreateAdminRequest struct {
	Email       string  `json:"email" validate:"required,email,max=255"`
	Password    string  `json:"password" validate:"required,password_strength"`
	FullName    string  `json:"full_name" validate:"required,min=2,max=100"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=30"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	UserID    uint            `json:"user_id"`
	Email     string          `json:"email"`
	FullName  string          `json:"full_name"`
	Role      models.UserRole `json:"role"`
}

// ===== ADMIN DTOs =====

type ApproveDoctorRequest struct {
	IsApproved      bool    `json:"is_approved"`
	RejectionReason *string `json:"rejection_reason" validate:"omitempty,max=1000"`
}

type UpdateUserStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// ===== DOCTOR DTOs =====

type DoctorListParams struct {
	Specialization    string `form:"specialization" validate:"omitempty,max=100"`
	IncludeUnapproved bool   `form:"include_unapproved"`
	SortBy            string `form:"sort_by" validate:"omitempty,oneof=created_at average_rating total_ratings consultation_price years_of_experience"`
	SortOrder         string `form:"sort_order" validate:"omitempty,oneof=asc desc"`
	Page              int    `form:"page" validate:"omitempty,min=1"`
	Size              int    `form:"size" validate:"omitempty,min=1,max=100"`
}

// Score is range checked before any other rule, outside the struct tags
type SubmitRatingRequest struct {
	AppointmentID uint    `json:"appointment_id" validate:"required"`
	Score         int     `json:"rating"`
	Review        *string `json:"review" validate:"omitempty,max=2000"`
}

// DoctorPage and RatingPage are the cached shapes of directory reads
type DoctorPage struct {
	Doctors []*models.DoctorSummary `json:"doctors"`
	Total   int64                   `json:"total"`
}

type RatingPage struct {
	Ratings []*models.RatingSummary `json:"ratings"`
	Total   int64                   `json:"total"`
}

// ===== APPOINTMENT DTOs =====

type BookAppointmentRequest struct {
	DoctorID        uint      `json:"doctor_id" validate:"required"`
	AppointmentDate time.Time `json:"appointment_date" validate:"required,future_date"`
	Notes           *string   `json:"notes" validate:"omitempty,max=1000"`
	PaymentMethod   string    `json:"payment_method" validate:"omitempty,oneof=cash card insurance online"`
}

type UpdateAppointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status" validate:"required,oneof=completed cancelled"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status" validate:"required,oneof=paid refunded"`
}

// ===== MEDICAL RECORD / HEALTH DATA DTOs =====

type UploadMedicalRecordRequest struct {
	FileName    string                 `validate:"required,max=255"`
	ContentType string                 `validate:"required"`
	Description *string                `validate:"omitempty,max=1000"`
	Tags        map[string]interface{}
	Content     io.Reader              `validate:"required"`
}

type CreateHealthDataRequest struct {
	DataType   string                 `json:"data_type" validate:"required,max=50"`
	Value      string                 `json:"value" validate:"required,max=100"`
	Unit       *string                `json:"unit" validate:"omitempty,max=20"`
	Notes      *string                `json:"notes" validate:"omitempty,max=1000"`
	RecordedAt *time.Time             `json:"recorded_at"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// ===== USER DTOs =====

type UpdateProfileRequest struct {
	FullName    *string    `json:"full_name" validate:"omitempty,min=2,max=100"`
	PhoneNumber *string    `json:"phone_number" validate:"omitempty,max=30"`
	DateOfBirth *time.Time `json:"date_of_birth" validate:"omitempty,past_date"`
	Gender      *string    `json:"gender" validate:"omitempty,oneof=male female other"`
	Address     *string    `json:"address" validate:"omitempty,max=500"`
	BloodType   *string    `json:"blood_type" validate:"omitempty,blood_type"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,password_strength"`
}

// ===== SERVICE INTERFACES =====

type AuthService interface {
	RegisterPatient(ctx context.Context, req *RegisterPatientRequest) (*AuthResponse, error)
	CreateDoctor(ctx context.Context, req *CreateDoctorRequest, adminID uint) (*models.DoctorSummary, error)
	CreateAdmin(ctx context.Context, req *CreateAdminRequest, adminID uint) (*models.UserProfile, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)

	// ResolveUser maps an externally authenticated email to an active local user
	ResolveUser(ctx context.Context, email string) (*models.User, error)
}

type AdminService interface {
	ListUsers(ctx context.Context, filters repositories.UserFilters) ([]*models.UserProfile, int64, error)
	UpdateUserStatus(ctx context.Context, userID uint, req *UpdateUserStatusRequest, adminID uint) (*models.UserProfile, error)

	// Approval workflow
	ListPendingDoctors(ctx context.Context) ([]*models.DoctorSummary, error)
	ApproveDoctor(ctx context.Context, doctorID, adminID uint, req *ApproveDoctorRequest) (*models.DoctorSummary, error)

	// Audit log reads
	ListActivity(ctx context.Context, userID *uint) ([]*models.ActivityEntry, error)
	RecentActivity(ctx context.Context, limit int) ([]*models.ActivityEntry, error)
	ExportActivity(ctx context.Context, userID *uint) ([]byte, error)
}

type DoctorService interface {
	ListDoctors(ctx context.Context, params *DoctorListParams, callerRole models.UserRole) (*models.PaginatedResponse, error)
	GetDoctorProfile(ctx context.Context, doctorID uint, callerRole models.UserRole) (*models.DoctorSummary, error)

	// Rating aggregation
	SubmitRating(ctx context.Context, patientUserID uint, req *SubmitRatingRequest) (*models.RatingSummary, error)
	ListDoctorRatings(ctx context.Context, doctorID uint, page, size int) (*models.PaginatedResponse, error)
}

type AppointmentService interface {
	Book(ctx context.Context, patientUserID uint, req *BookAppointmentRequest) (*models.Appointment, error)
	ListMine(ctx context.Context, userID uint, role models.UserRole, filters repositories.AppointmentFilters) ([]*models.Appointment, int64, error)
	UpdateStatus(ctx context.Context, appointmentID uint, req *UpdateAppointmentStatusRequest, actor authz.Requester) (*models.Appointment, error)
	UpdatePaymentStatus(ctx context.Context, appointmentID uint, req *UpdatePaymentStatusRequest, adminID uint) (*models.Appointment, error)
}

type MedicalRecordService interface {
	Upload(ctx context.Context, patientUserID uint, req *UploadMedicalRecordRequest) (*models.MedicalRecord, error)
	ListMine(ctx context.Context, patientUserID uint) ([]*models.MedicalRecord, error)
	ListForPatient(ctx context.Context, requester authz.Requester, patientID uint) ([]*models.MedicalRecord, error)
	// Download returns the record and its content; the caller closes the reader
	Download(ctx context.Context, requester authz.Requester, recordID uint) (*models.MedicalRecord, io.ReadCloser, error)
}

type HealthDataService interface {
	Add(ctx context.Context, patientUserID uint, req *CreateHealthDataRequest) (*models.HealthData, error)
	ListMine(ctx context.Context, patientUserID uint, filters repositories.HealthDataFilters) ([]*models.HealthData, error)
	ListForPatient(ctx context.Context, requester authz.Requester, patientID uint, filters repositories.HealthDataFilters) ([]*models.HealthData, error)
}

type UserService interface {
	GetProfile(ctx context.Context, userID uint) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID uint, req *UpdateProfileRequest) (*models.UserProfile, error)
	ChangePassword(ctx context.Context, userID uint, req *ChangePasswordRequest) error
}

// RecordAccessChecker decides whether a requester may read a patient's data
type RecordAccessChecker interface {
	CheckRecordAccess(ctx context.Context, requesterUserID uint, role models.UserRole, targetPatientID uint) (authz.Decision, error)
}

type ServiceManager interface {
	Auth() AuthService
	Admin() AdminService
	Doctor() DoctorService
	Appointment() AppointmentService
	MedicalRecord() MedicalRecordService
	HealthData() HealthDataService
	User() UserService
	Access() RecordAccessChecker

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
