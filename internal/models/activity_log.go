package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions
const (
	ActionLogin                   = "Login"
	ActionPatientRegistration     = "Patient Registration"
	ActionDoctorCreated           = "Create Doctor"
	ActionAdminCreated            = "Create Admin"
	ActionUpdateUserStatus        = "Update User Status"
	ActionApproveDoctor           = "Approve Doctor"
	ActionRejectDoctor            = "Reject Doctor"
	ActionUpdateAppointmentStatus = "Update Appointment Status"
	ActionUpdatePaymentStatus     = "Update Payment Status"
)

// Audit entity types
const (
	EntityUser        = "User"
	EntityPatient     = "Patient"
	EntityDoctor      = "Doctor"
	EntityAppointment = "Appointment"
)

// ActivityLog is append-only; ID and Timestamp are assigned by the store
type ActivityLog struct {
	ID         uint              `json:"id" gorm:"primaryKey"`
	UserID     uint              `json:"user_id" gorm:"not null;index"`
	Action     string            `json:"action" gorm:"not null;size:100;index"`
	EntityType string            `json:"entity_type" gorm:"not null;size:50"`
	EntityID   *uint             `json:"entity_id"`
	Details    string            `json:"details" gorm:"type:text"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	Timestamp  time.Time         `json:"timestamp" gorm:"not null;index"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// AllModels lists every table owned by the service, in migration order
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Patient{},
		&Doctor{},
		&Appointment{},
		&Rating{},
		&MedicalRecord{},
		&HealthData{},
		&ActivityLog{},
	}
}
