package validator

import (
	"fmt"
	"reflect"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/pulsex/care-service/internal/models"
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates struct tags for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateRatingScore checks the score bounds outside of struct tags
func (bv *BusinessValidator) ValidateRatingScore(score int) ValidationErrors {
	if score < models.MinRatingScore || score > models.MaxRatingScore {
		return ValidationErrors{{
			Field:   "rating",
			Message: "must be between 1 and 5",
			Value:   score,
			Rule:    "rating_score",
		}}
	}
	return nil
}

// ValidateAppointmentTransition validates appointment status transitions
func (bv *BusinessValidator) ValidateAppointmentTransition(current, next models.AppointmentStatus) ValidationErrors {
	allowedTransitions := map[models.AppointmentStatus][]models.AppointmentStatus{
		models.AppointmentScheduled: {models.AppointmentCompleted, models.AppointmentCancelled},
		models.AppointmentCompleted: {},
		models.AppointmentCancelled: {},
	}

	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return nil
		}
	}

	return ValidationErrors{{
		Field:   "status",
		Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
		Value:   next,
		Rule:    "status_transition",
	}}
}

// ValidatePaymentTransition validates payment status transitions
func (bv *BusinessValidator) ValidatePaymentTransition(current, next models.PaymentStatus) ValidationErrors {
	allowedTransitions := map[models.PaymentStatus][]models.PaymentStatus{
		models.PaymentPending:  {models.PaymentPaid},
		models.PaymentPaid:     {models.PaymentRefunded},
		models.PaymentRefunded: {},
	}

	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return nil
		}
	}

	return ValidationErrors{{
		Field:   "payment_status",
		Message: fmt.Sprintf("cannot transition from %s to %s", current, next),
		Value:   next,
		Rule:    "status_transition",
	}}
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("rating_score", func(fl validator.FieldLevel) bool {
		score := fl.Field().Int()
		return score >= models.MinRatingScore && score <= models.MaxRatingScore
	})

	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).IsValid()
	})

	bv.validate.RegisterValidation("blood_type", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-":
			return true
		}
		return false
	})

	// At least 8 characters with one letter and one digit
	bv.validate.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		if len(password) < 8 {
			return false
		}
		var hasLetter, hasDigit bool
		for _, r := range password {
			switch {
			case unicode.IsLetter(r):
				hasLetter = true
			case unicode.IsDigit(r):
				hasDigit = true
			}
		}
		return hasLetter && hasDigit
	})

	bv.validate.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		t, ok := timeValue(fl.Field())
		if !ok {
			return true // Optional field
		}
		return t.After(time.Now())
	})

	bv.validate.RegisterValidation("past_date", func(fl validator.FieldLevel) bool {
		t, ok := timeValue(fl.Field())
		if !ok {
			return true
		}
		return t.Before(time.Now())
	})
}

// timeValue handles both *time.Time and time.Time; ok is false for nil
func timeValue(field reflect.Value) (time.Time, bool) {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return time.Time{}, false
		}
		field = field.Elem()
	}
	t, ok := field.Interface().(time.Time)
	return t, ok
}
