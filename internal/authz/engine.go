// Package authz decides who may read a patient's medical records and health data.
package authz

import (
	"context"
	"fmt"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
)

type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Requester identifies the caller asking for access
type Requester struct {
	UserID uint
	Role   models.UserRole
}

// AccessPolicy decides access to one patient's data for one role
type AccessPolicy interface {
	CheckAccess(ctx context.Context, requester Requester, targetPatientID uint) (Decision, error)
}

// Options tunes the built-in policies
type Options struct {
	// AdminRecordAccess lets admins read every patient's records
	AdminRecordAccess bool
	// RequireCompletedAppointment narrows the doctor relationship to completed visits
	RequireCompletedAppointment bool
}

func DefaultOptions() Options {
	return Options{AdminRecordAccess: true}
}

// Engine dispatches a request to the policy registered for the requester's role.
// Roles without a policy are denied.
type Engine struct {
	policies map[models.UserRole]AccessPolicy
}

func NewEngine(repo repositories.Repository, opts Options) *Engine {
	return &Engine{
		policies: map[models.UserRole]AccessPolicy{
			models.RolePatient: &PatientPolicy{repo: repo},
			models.RoleDoctor:  &DoctorPolicy{repo: repo, RequireCompletedAppointment: opts.RequireCompletedAppointment},
			models.RoleAdmin:   &AdminPolicy{Enabled: opts.AdminRecordAccess},
		},
	}
}

// CheckRecordAccess is a pure query; it never writes
func (e *Engine) CheckRecordAccess(ctx context.Context, requesterUserID uint, role models.UserRole, targetPatientID uint) (Decision, error) {
	if requesterUserID == 0 || targetPatientID == 0 {
		return Deny, nil
	}
	policy, ok := e.policies[role]
	if !ok {
		return Deny, nil
	}
	return policy.CheckAccess(ctx, Requester{UserID: requesterUserID, Role: role}, targetPatientID)
}

// PatientPolicy allows a patient to read only their own data
type PatientPolicy struct {
	repo repositories.Repository
}

func (p *PatientPolicy) CheckAccess(ctx context.Context, requester Requester, targetPatientID uint) (Decision, error) {
	patient, err := p.repo.Patient().GetByUserID(ctx, requester.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return Deny, nil
		}
		return Deny, fmt.Errorf("failed to resolve patient: %w", err)
	}
	if patient.ID == targetPatientID {
		return Allow, nil
	}
	return Deny, nil
}

// DoctorPolicy allows a doctor who shares an appointment with the patient
type DoctorPolicy struct {
	repo                        repositories.Repository
	RequireCompletedAppointment bool
}

func (p *DoctorPolicy) CheckAccess(ctx context.Context, requester Requester, targetPatientID uint) (Decision, error) {
	doctor, err := p.repo.Doctor().GetByUserID(ctx, requester.UserID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return Deny, nil
		}
		return Deny, fmt.Errorf("failed to resolve doctor: %w", err)
	}

	var statuses []models.AppointmentStatus
	if p.RequireCompletedAppointment {
		statuses = []models.AppointmentStatus{models.AppointmentCompleted}
	}

	linked, err := p.repo.Appointment().ExistsBetween(ctx, doctor.ID, targetPatientID, statuses...)
	if err != nil {
		return Deny, fmt.Errorf("failed to check care relationship: %w", err)
	}
	if linked {
		return Allow, nil
	}
	return Deny, nil
}

// AdminPolicy grants admins access unless disabled
type AdminPolicy struct {
	Enabled bool
}

func (p *AdminPolicy) CheckAccess(ctx context.Context, requester Requester, targetPatientID uint) (Decision, error) {
	if p.Enabled {
		return Allow, nil
	}
	return Deny, nil
}
