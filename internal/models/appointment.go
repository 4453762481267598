package models

import "time"

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Appointment struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	PatientID       uint              `json:"patient_id" gorm:"not null;index;index:idx_appointment_pair"`
	DoctorID        uint              `json:"doctor_id" gorm:"not null;index;index:idx_appointment_pair"`
	AppointmentDate time.Time         `json:"appointment_date" gorm:"not null"`
	Notes           *string           `json:"notes" gorm:"type:text"`
	Status          AppointmentStatus `json:"status" gorm:"not null;size:20;default:scheduled;index"`
	PaymentMethod   string            `json:"payment_method" gorm:"size:50"`
	PaymentStatus   PaymentStatus     `json:"payment_status" gorm:"not null;size:20;default:pending"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Patient Patient `json:"-" gorm:"foreignKey:PatientID"`
	Doctor  Doctor  `json:"-" gorm:"foreignKey:DoctorID"`
}

func (Appointment) TableName() string {
	return "appointments"
}
