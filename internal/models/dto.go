package models

import (
	"time"
)

type PaginatedResponse struct {
	Content          interface{} `json:"content"`
	TotalElements    int64       `json:"total_elements"`
	TotalPages       int         `json:"total_pages"`
	Size             int         `json:"size"`
	Page             int         `json:"page"`
	First            bool        `json:"first"`
	Last             bool        `json:"last"`
	NumberOfElements int         `json:"number_of_elements"`
	Empty            bool        `json:"empty"`
}

// NewPaginatedResponse builds a page envelope; page is 1-based
func NewPaginatedResponse(content interface{}, count int, total int64, page, size int) *PaginatedResponse {
	if size <= 0 {
		size = count
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return &PaginatedResponse{
		Content:          content,
		TotalElements:    total,
		TotalPages:       totalPages,
		Size:             size,
		Page:             page,
		First:            page <= 1,
		Last:             page >= totalPages,
		NumberOfElements: count,
		Empty:            count == 0,
	}
}

// ===== DOCTOR DTOs =====

type DoctorSummary struct {
	ID                uint           `json:"id"`
	UserID            uint           `json:"user_id"`
	FullName          string         `json:"full_name"`
	Email             string         `json:"email"`
	PhoneNumber       *string        `json:"phone_number"`
	Specialization    string         `json:"specialization"`
	LicenseNumber     *string        `json:"license_number"`
	ConsultationPrice float64        `json:"consultation_price"`
	ClinicLocation    *string        `json:"clinic_location"`
	Bio               *string        `json:"bio"`
	YearsOfExperience int            `json:"years_of_experience"`
	IsApproved        bool           `json:"is_approved"`
	ApprovalStatus    ApprovalStatus `json:"approval_status"`
	ApprovedByAdminID *uint          `json:"approved_by_admin_id"`
	ApprovedAt        *time.Time     `json:"approved_at"`
	RejectionReason   *string        `json:"rejection_reason,omitempty"`
	AverageRating     float64        `json:"average_rating"`
	TotalRatings      int            `json:"total_ratings"`
}

// NewDoctorSummary flattens a doctor and its preloaded user
func NewDoctorSummary(d *Doctor) *DoctorSummary {
	return &DoctorSummary{
		ID:                d.ID,
		UserID:            d.UserID,
		FullName:          d.User.FullName,
		Email:             d.User.Email,
		PhoneNumber:       d.User.PhoneNumber,
		Specialization:    d.Specialization,
		LicenseNumber:     d.LicenseNumber,
		ConsultationPrice: d.ConsultationPrice,
		ClinicLocation:    d.ClinicLocation,
		Bio:               d.Bio,
		YearsOfExperience: d.YearsOfExperience,
		IsApproved:        d.IsApproved(),
		ApprovalStatus:    d.ApprovalStatus,
		ApprovedByAdminID: d.ApprovedByAdminID,
		ApprovedAt:        d.ApprovedAt,
		RejectionReason:   d.RejectionReason,
		AverageRating:     d.AverageRating,
		TotalRatings:      d.TotalRatings,
	}
}

type RatingSummary struct {
	ID            uint      `json:"id"`
	DoctorID      uint      `json:"doctor_id"`
	PatientID     uint      `json:"patient_id"`
	PatientName   string    `json:"patient_name"`
	AppointmentID uint      `json:"appointment_id"`
	Score         int       `json:"rating"`
	Review        *string   `json:"review"`
	CreatedAt     time.Time `json:"created_at"`
}

// ===== AUDIT DTOs =====

type ActivityEntry struct {
	ID         uint      `json:"id"`
	ActorID    uint      `json:"user_id"`
	ActorName  string    `json:"user_name"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   *uint     `json:"entity_id"`
	Details    string                 `json:"details"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// UnknownActorName is shown when the acting user no longer resolves
const UnknownActorName = "Unknown"

// NewActivityEntry flattens a log row; the User relation may be empty
func NewActivityEntry(l *ActivityLog) *ActivityEntry {
	name := l.User.FullName
	if name == "" {
		name = UnknownActorName
	}
	return &ActivityEntry{
		ID:         l.ID,
		ActorID:    l.UserID,
		ActorName:  name,
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Details:    l.Details,
		Metadata:   l.Metadata,
		Timestamp:  l.Timestamp,
	}
}

// ===== USER DTOs =====

type UserProfile struct {
	ID          uint       `json:"id"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	PhoneNumber *string    `json:"phone_number"`
	Role        UserRole   `json:"role"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at"`

	// Patient only
	PatientID   *uint      `json:"patient_id,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      *string    `json:"gender,omitempty"`
	Address     *string    `json:"address,omitempty"`
	BloodType   *string    `json:"blood_type,omitempty"`

	// Doctor only
	DoctorID *uint `json:"doctor_id,omitempty"`
}

func NewUserProfile(u *User) *UserProfile {
	return &UserProfile{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// WithPatient copies patient demographics onto the profile
func (p *UserProfile) WithPatient(patient *Patient) *UserProfile {
	if patient == nil {
		return p
	}
	id := patient.ID
	p.PatientID = &id
	p.DateOfBirth = patient.DateOfBirth
	p.Gender = patient.Gender
	p.Address = patient.Address
	p.BloodType = patient.BloodType
	return p
}
