package services

import (
	"errors"
	"fmt"

	"github.com/pulsex/care-service/internal/validator"
)

// Error kinds. Every error returned by a service wraps exactly one of these.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
)

// Identity
var (
	ErrUserNotFound       = fmt.Errorf("user not found: %w", ErrNotFound)
	ErrPatientNotFound    = fmt.Errorf("patient not found: %w", ErrNotFound)
	ErrEmailTaken         = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", ErrUnauthorized)
	ErrAccountDeactivated = fmt.Errorf("account is deactivated: %w", ErrForbidden)
	ErrWrongPassword      = fmt.Errorf("current password is incorrect: %w", ErrUnauthorized)
)

// Doctors and ratings
var (
	ErrDoctorNotFound        = fmt.Errorf("doctor not found: %w", ErrNotFound)
	ErrDoctorNotApproved     = fmt.Errorf("doctor is not approved: %w", ErrInvalidState)
	ErrAppointmentNotFound   = fmt.Errorf("appointment not found: %w", ErrNotFound)
	ErrAppointmentNotDone    = fmt.Errorf("can only rate completed appointments: %w", ErrInvalidState)
	ErrAppointmentRated      = fmt.Errorf("appointment already rated: %w", ErrConflict)
	ErrAppointmentNotYours   = fmt.Errorf("appointment belongs to another patient: %w", ErrForbidden)
	ErrMedicalRecordNotFound = fmt.Errorf("medical record not found: %w", ErrNotFound)
)

type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// invalidInput tags a validation failure with ErrInvalidInput while keeping
// the field details reachable through errors.As
func invalidInput(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// PermissionError describes a denied action on a resource
type PermissionError struct {
	UserID     uint
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func NewPermissionError(userID, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Unwrap() error { return ErrForbidden }

// BusinessRuleError reports a request that is well formed but not allowed
// in the entity's current state
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

func (e *BusinessRuleError) Unwrap() error { return ErrInvalidState }

func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsForbidden(err error) bool    { return errors.Is(err, ErrForbidden) }
func IsConflict(err error) bool     { return errors.Is(err, ErrConflict) }
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }
