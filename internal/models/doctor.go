package models

import (
	"time"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

type Doctor struct {
	ID                uint    `json:"id" gorm:"primaryKey"`
	UserID            uint    `json:"user_id" gorm:"not null;uniqueIndex"`
	Specialization    string  `json:"specialization" gorm:"not null;size:100;index"`
	LicenseNumber     *string `json:"license_number" gorm:"size:100"`
	ConsultationPrice float64 `json:"consultation_price" gorm:"type:decimal(10,2);default:0"`
	ClinicLocation    *string `json:"clinic_location" gorm:"size:255"`
	Bio               *string `json:"bio" gorm:"type:text"`
	YearsOfExperience int     `json:"years_of_experience" gorm:"default:0"`

	// Approval workflow; read through Approval()
	ApprovalStatus    ApprovalStatus `json:"approval_status" gorm:"not null;size:20;default:pending;index"`
	ApprovedByAdminID *uint          `json:"approved_by_admin_id"`
	ApprovedAt        *time.Time     `json:"approved_at"`
	ReviewedByAdminID *uint          `json:"reviewed_by_admin_id"`
	ReviewedAt        *time.Time     `json:"reviewed_at"`
	RejectionReason   *string        `json:"rejection_reason" gorm:"type:text"`

	// Reputation aggregate, maintained by the rating engine
	AverageRating float64 `json:"average_rating" gorm:"type:decimal(3,2);default:0"`
	TotalRatings  int     `json:"total_ratings" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User User `json:"user" gorm:"foreignKey:UserID"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// IsApproved reports whether the doctor is visible in the public directory
func (d *Doctor) IsApproved() bool {
	return d.ApprovalStatus == ApprovalApproved
}

// ApprovalState is the decoded approval column set. Exactly one of
// PendingApproval, Approved and Rejected is returned by Doctor.Approval.
type ApprovalState interface {
	Status() ApprovalStatus
}

type PendingApproval struct{}

func (PendingApproval) Status() ApprovalStatus { return ApprovalPending }

type Approved struct {
	By uint
	At time.Time
}

func (Approved) Status() ApprovalStatus { return ApprovalApproved }

type Rejected struct {
	By     uint
	At     time.Time
	Reason string
}

func (Rejected) Status() ApprovalStatus { return ApprovalRejected }

// Approval decodes the persisted approval columns into a tagged state
func (d *Doctor) Approval() ApprovalState {
	switch d.ApprovalStatus {
	case ApprovalApproved:
		state := Approved{}
		if d.ApprovedByAdminID != nil {
			state.By = *d.ApprovedByAdminID
		}
		if d.ApprovedAt != nil {
			state.At = *d.ApprovedAt
		}
		return state
	case ApprovalRejected:
		state := Rejected{}
		if d.ReviewedByAdminID != nil {
			state.By = *d.ReviewedByAdminID
		}
		if d.ReviewedAt != nil {
			state.At = *d.ReviewedAt
		}
		if d.RejectionReason != nil {
			state.Reason = *d.RejectionReason
		}
		return state
	default:
		return PendingApproval{}
	}
}

// SetApproval encodes a tagged state back onto the persisted columns
func (d *Doctor) SetApproval(state ApprovalState) {
	switch s := state.(type) {
	case Approved:
		by, at := s.By, s.At
		d.ApprovalStatus = ApprovalApproved
		d.ApprovedByAdminID = &by
		d.ApprovedAt = &at
		d.ReviewedByAdminID = &by
		d.ReviewedAt = &at
		d.RejectionReason = nil
	case Rejected:
		by, at, reason := s.By, s.At, s.Reason
		d.ApprovalStatus = ApprovalRejected
		d.ApprovedByAdminID = nil
		d.ApprovedAt = nil
		d.ReviewedByAdminID = &by
		d.ReviewedAt = &at
		d.RejectionReason = &reason
	default:
		d.ApprovalStatus = ApprovalPending
		d.ApprovedByAdminID = nil
		d.ApprovedAt = nil
		d.ReviewedByAdminID = nil
		d.ReviewedAt = nil
		d.RejectionReason = nil
	}
}
