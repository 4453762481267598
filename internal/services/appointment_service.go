package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pulsex/care-service/internal/authz"
	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
	"github.com/pulsex/care-service/internal/validator"
)

type appointmentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	audit     *auditTrail
}

func NewAppointmentService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, audit *auditTrail) AppointmentService {
	return &appointmentService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		audit:     audit,
	}
}

func (s *appointmentService) Book(ctx context.Context, patientUserID uint, req *BookAppointmentRequest) (*models.Appointment, error) {
	s.logger.Info("Booking appointment", "user_id", patientUserID, "doctor_id", req.DoctorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, invalidInput(err)
	}

	patient, err := resolvePatient(ctx, s.repo, patientUserID)
	if err != nil {
		return nil, err
	}

	doctor, err := s.repo.Doctor().GetByID(ctx, req.DoctorID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	if !doctor.IsApproved() {
		return nil, ErrDoctorNotApproved
	}

	appointment := &models.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: req.AppointmentDate.UTC(),
		Notes:           req.Notes,
		Status:          models.AppointmentScheduled,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   models.PaymentPending,
	}
	if err := s.repo.Appointment().Create(ctx, appointment); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.logger.Info("Appointment booked", "appointment_id", appointment.ID)
	return appointment, nil
}

// ListMine lists the caller's appointments as patient or as doctor
func (s *appointmentService) ListMine(ctx context.Context, userID uint, role models.UserRole, filters repositories.AppointmentFilters) ([]*models.Appointment, int64, error) {
	switch role {
	case models.RolePatient:
		patient, err := resolvePatient(ctx, s.repo, userID)
		if err != nil {
			return nil, 0, err
		}
		return s.repo.Appointment().ListByPatient(ctx, patient.ID, filters)
	case models.RoleDoctor:
		doctor, err := s.repo.Doctor().GetByUserID(ctx, userID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, 0, ErrDoctorNotFound
			}
			return nil, 0, fmt.Errorf("failed to get doctor: %w", err)
		}
		return s.repo.Appointment().ListByDoctor(ctx, doctor.ID, filters)
	default:
		return nil, 0, NewPermissionError(userID, 0, "appointment", "list", "role has no appointments")
	}
}

// UpdateStatus completes or cancels a scheduled appointment. Only the
// appointment's doctor or an admin may do so.
func (s *appointmentService) UpdateStatus(ctx context.Context, appointmentID uint, req *UpdateAppointmentStatusRequest, actor authz.Requester) (*models.Appointment, error) {
	s.logger.Info("Updating appointment status", "appointment_id", appointmentID, "status", req.Status, "actor_id", actor.UserID)

	if err := s.validator.Validate(req); err != nil {
		return nil, invalidInput(err)
	}

	var appointment *models.Appointment
	var entry *models.ActivityLog
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		appointment, err = tx.Appointment().GetByID(ctx, appointmentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAppointmentNotFound
			}
			return fmt.Errorf("failed to get appointment: %w", err)
		}

		if err := s.checkOwnership(ctx, tx, appointment, actor); err != nil {
			return err
		}

		previous := appointment.Status
		if errs := s.validator.GetBusinessValidator().ValidateAppointmentTransition(previous, req.Status); len(errs) > 0 {
			return NewBusinessRuleError("appointment_status_transition", errs[0].Message, map[string]interface{}{
				"appointment_id": appointment.ID,
				"from":           previous,
				"to":             req.Status,
			})
		}

		appointment.Status = req.Status
		if err := tx.Appointment().Update(ctx, appointment); err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}

		entry, err = s.audit.recordChange(ctx, tx, actor.UserID, models.ActionUpdateAppointmentStatus, models.EntityAppointment,
			entityRef(appointment.ID), fmt.Sprintf("Appointment %d status changed from %s to %s", appointment.ID, previous, req.Status),
			string(previous), string(req.Status))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.emit(ctx, entry)
	return appointment, nil
}

// UpdatePaymentStatus settles or refunds an appointment on behalf of an admin
func (s *appointmentService) UpdatePaymentStatus(ctx context.Context, appointmentID uint, req *UpdatePaymentStatusRequest, adminID uint) (*models.Appointment, error) {
	s.logger.Info("Updating payment status", "appointment_id", appointmentID, "payment_status", req.PaymentStatus, "admin_id", adminID)

	if err := s.validator.Validate(req); err != nil {
		return nil, invalidInput(err)
	}
	if _, err := requireAdmin(ctx, s.repo, adminID, "appointment", appointmentID, "update payment status"); err != nil {
		return nil, err
	}

	var appointment *models.Appointment
	var entry *models.ActivityLog
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		appointment, err = tx.Appointment().GetByID(ctx, appointmentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrAppointmentNotFound
			}
			return fmt.Errorf("failed to get appointment: %w", err)
		}

		previous := appointment.PaymentStatus
		if errs := s.validator.GetBusinessValidator().ValidatePaymentTransition(previous, req.PaymentStatus); len(errs) > 0 {
			return NewBusinessRuleError("payment_status_transition", errs[0].Message, map[string]interface{}{
				"appointment_id": appointment.ID,
				"from":           previous,
				"to":             req.PaymentStatus,
			})
		}

		appointment.PaymentStatus = req.PaymentStatus
		if err := tx.Appointment().Update(ctx, appointment); err != nil {
			return fmt.Errorf("failed to update payment status: %w", err)
		}

		entry, err = s.audit.recordChange(ctx, tx, adminID, models.ActionUpdatePaymentStatus, models.EntityAppointment,
			entityRef(appointment.ID), fmt.Sprintf("Appointment %d payment changed from %s to %s", appointment.ID, previous, req.PaymentStatus),
			string(previous), string(req.PaymentStatus))
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.emit(ctx, entry)
	s.logger.Info("Payment status updated", "appointment_id", appointment.ID, "payment_status", appointment.PaymentStatus)
	return appointment, nil
}

func (s *appointmentService) checkOwnership(ctx context.Context, tx repositories.Repository, appointment *models.Appointment, actor authz.Requester) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleDoctor:
		doctor, err := tx.Doctor().GetByUserID(ctx, actor.UserID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to get doctor: %w", err)
		}
		if err == nil && doctor.ID == appointment.DoctorID {
			return nil
		}
	}
	return NewPermissionError(actor.UserID, appointment.ID, "appointment", "update status", "not the appointment's doctor")
}
