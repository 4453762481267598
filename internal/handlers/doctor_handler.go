package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsex/care-service/internal/services"
	"github.com/pulsex/care-service/internal/utils"
)

type DoctorHandler struct {
	BaseHandler
	doctorService services.DoctorService
}

func NewDoctorHandler(doctorService services.DoctorService, logger utils.Logger) *DoctorHandler {
	return &DoctorHandler{
		BaseHandler:   NewBaseHandler(logger),
		doctorService: doctorService,
	}
}

// ListDoctors lists the doctor directory
// @Summary List doctors
// @Description Approved doctors only; admins may pass include_unapproved=true
// @Tags doctors
// @Produce json
// @Param specialization query string false "Exact specialization, case-insensitive"
// @Param include_unapproved query bool false "Admins only"
// @Param sort_by query string false "created_at, average_rating, total_ratings, consultation_price, years_of_experience"
// @Param sort_order query string false "asc or desc"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Router /doctors [get]
func (h *DoctorHandler) ListDoctors(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}

	var params services.DoctorListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}

	page, err := h.doctorService.ListDoctors(c.Request.Context(), &params, caller.Role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// GetDoctor returns one doctor profile
// @Summary Get doctor
// @Tags doctors
// @Produce json
// @Param id path int true "Doctor ID"
// @Success 200 {object} models.DoctorSummary
// @Failure 404 {object} ErrorResponse
// @Router /doctors/{id} [get]
func (h *DoctorHandler) GetDoctor(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	doctorID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	doctor, err := h.doctorService.GetDoctorProfile(c.Request.Context(), doctorID, caller.Role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, doctor)
}

// ListDoctorRatings lists a doctor's ratings, newest first
// @Summary List doctor ratings
// @Tags doctors
// @Produce json
// @Param id path int true "Doctor ID"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Router /doctors/{id}/ratings [get]
func (h *DoctorHandler) ListDoctorRatings(c *gin.Context) {
	doctorID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	page, err := h.doctorService.ListDoctorRatings(c.Request.Context(), doctorID, h.parseIntQuery(c, "page", 1), h.parseIntQuery(c, "size", 20))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// SubmitRating rates the doctor of a completed appointment
// @Summary Submit rating
// @Tags ratings
// @Accept json
// @Produce json
// @Param body body services.SubmitRatingRequest true "Rating"
// @Success 201 {object} models.RatingSummary
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /ratings [post]
func (h *DoctorHandler) SubmitRating(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req services.SubmitRatingRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Submitting rating", "appointment_id", req.AppointmentID)

	rating, err := h.doctorService.SubmitRating(c.Request.Context(), caller.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rating)
}
