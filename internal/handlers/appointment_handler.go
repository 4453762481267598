package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
	"github.com/pulsex/care-service/internal/services"
	"github.com/pulsex/care-service/internal/utils"
)

type AppointmentHandler struct {
	BaseHandler
	appointmentService services.AppointmentService
}

func NewAppointmentHandler(appointmentService services.AppointmentService, logger utils.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		BaseHandler:        NewBaseHandler(logger),
		appointmentService: appointmentService,
	}
}

// BookAppointment books a visit with an approved doctor
// @Summary Book appointment
// @Tags appointments
// @Accept json
// @Produce json
// @Param body body services.BookAppointmentRequest true "Appointment"
// @Success 201 {object} models.Appointment
// @Router /appointments [post]
func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req services.BookAppointmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	appointment, err := h.appointmentService.Book(c.Request.Context(), caller.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, appointment)
}

// ListMyAppointments lists the caller's appointments
// @Summary List my appointments
// @Tags appointments
// @Produce json
// @Param status query string false "scheduled, completed or cancelled"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Router /appointments/me [get]
func (h *AppointmentHandler) ListMyAppointments(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}

	page := max(h.parseIntQuery(c, "page", 1), 1)
	size := h.parseIntQuery(c, "size", 20)
	if size <= 0 || size > 100 {
		size = 20
	}
	filters := repositories.AppointmentFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}
	if status := c.Query("status"); status != "" {
		s := models.AppointmentStatus(status)
		filters.Status = &s
	}

	appointments, total, err := h.appointmentService.ListMine(c.Request.Context(), caller.UserID, caller.Role, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewPaginatedResponse(appointments, len(appointments), total, page, size))
}

// UpdateAppointmentStatus completes or cancels an appointment
// @Summary Update appointment status
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param body body services.UpdateAppointmentStatusRequest true "Status"
// @Success 200 {object} models.Appointment
// @Failure 422 {object} ErrorResponse
// @Router /appointments/{id}/status [put]
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	appointmentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateAppointmentStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	appointment, err := h.appointmentService.UpdateStatus(c.Request.Context(), appointmentID, &req, caller)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, appointment)
}

// UpdatePaymentStatus marks an appointment paid or refunded
// @Summary Update payment status
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param body body services.UpdatePaymentStatusRequest true "Payment status"
// @Success 200 {object} models.Appointment
// @Router /appointments/{id}/payment [put]
func (h *AppointmentHandler) UpdatePaymentStatus(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	appointmentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdatePaymentStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	appointment, err := h.appointmentService.UpdatePaymentStatus(c.Request.Context(), appointmentID, &req, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, appointment)
}
