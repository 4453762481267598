package models

import "time"

const (
	MinRatingScore = 1
	MaxRatingScore = 5
)

// Rating is immutable once written; one per appointment
type Rating struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	DoctorID      uint      `json:"doctor_id" gorm:"not null;index"`
	PatientID     uint      `json:"patient_id" gorm:"not null;index"`
	AppointmentID uint      `json:"appointment_id" gorm:"not null;uniqueIndex"`
	Score         int       `json:"score" gorm:"not null;check:chk_ratings_score,score >= 1 AND score <= 5"`
	Review        *string   `json:"review" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`

	// Relations
	Patient Patient `json:"-" gorm:"foreignKey:PatientID"`
}

func (Rating) TableName() string {
	return "ratings"
}

// RatingAggregate is the recomputed reputation of one doctor
type RatingAggregate struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}
