package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsex/care-service/internal/repositories"
	"github.com/pulsex/care-service/internal/services"
	"github.com/pulsex/care-service/internal/utils"
)

type HealthDataHandler struct {
	BaseHandler
	healthDataService services.HealthDataService
}

func NewHealthDataHandler(healthDataService services.HealthDataService, logger utils.Logger) *HealthDataHandler {
	return &HealthDataHandler{
		BaseHandler:       NewBaseHandler(logger),
		healthDataService: healthDataService,
	}
}

// AddHealthData records a reading for the caller
// @Summary Add health data
// @Tags health-data
// @Accept json
// @Produce json
// @Param body body services.CreateHealthDataRequest true "Reading"
// @Success 201 {object} models.HealthData
// @Router /health-data [post]
func (h *HealthDataHandler) AddHealthData(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req services.CreateHealthDataRequest
	if !h.bindJSON(c, &req) {
		return
	}

	data, err := h.healthDataService.Add(c.Request.Context(), caller.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, data)
}

// ListMyHealthData lists the caller's readings, newest first
// @Summary List my health data
// @Tags health-data
// @Produce json
// @Param data_type query string false "Reading type"
// @Param limit query int false "Maximum readings"
// @Success 200 {array} models.HealthData
// @Router /health-data/me [get]
func (h *HealthDataHandler) ListMyHealthData(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}

	data, err := h.healthDataService.ListMine(c.Request.Context(), caller.UserID, h.parseFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

// ListPatientHealthData lists another patient's readings
// @Summary List patient health data
// @Tags health-data
// @Produce json
// @Param id path int true "Patient ID"
// @Success 200 {array} models.HealthData
// @Failure 403 {object} ErrorResponse
// @Router /patients/{id}/health-data [get]
func (h *HealthDataHandler) ListPatientHealthData(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	patientID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	data, err := h.healthDataService.ListForPatient(c.Request.Context(), caller, patientID, h.parseFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *HealthDataHandler) parseFilters(c *gin.Context) repositories.HealthDataFilters {
	return repositories.HealthDataFilters{
		DataType: c.Query("data_type"),
		Limit:    h.parseIntQuery(c, "limit", 0),
	}
}
