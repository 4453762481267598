package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pulsex/care-service/internal/services"
	"github.com/pulsex/care-service/internal/utils"
)

type MedicalRecordHandler struct {
	BaseHandler
	recordService services.MedicalRecordService
	access        services.RecordAccessChecker
}

func NewMedicalRecordHandler(recordService services.MedicalRecordService, access services.RecordAccessChecker, logger utils.Logger) *MedicalRecordHandler {
	return &MedicalRecordHandler{
		BaseHandler:   NewBaseHandler(logger),
		recordService: recordService,
		access:        access,
	}
}

// UploadMedicalRecord stores a file in the caller's record
// @Summary Upload medical record
// @Tags medical-records
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Record file"
// @Param description formData string false "Description"
// @Param tags formData string false "JSON object of tags"
// @Success 201 {object} models.MedicalRecord
// @Router /medical-records [post]
func (h *MedicalRecordHandler) UploadMedicalRecord(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "File is required",
			Details: err.Error(),
		})
		return
	}

	var tags map[string]interface{}
	if raw := c.PostForm("tags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Tags must be a JSON object",
				Details: err.Error(),
			})
			return
		}
	}

	file, err := header.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open upload")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Failed to read upload"})
		return
	}
	defer file.Close()

	req := &services.UploadMedicalRecordRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Tags:        tags,
		Content:     file,
	}
	if desc := strings.TrimSpace(c.PostForm("description")); desc != "" {
		req.Description = &desc
	}

	record, err := h.recordService.Upload(c.Request.Context(), caller.UserID, req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// ListMyMedicalRecords lists the caller's own records
// @Summary List my medical records
// @Tags medical-records
// @Produce json
// @Success 200 {array} models.MedicalRecord
// @Router /medical-records/me [get]
func (h *MedicalRecordHandler) ListMyMedicalRecords(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}

	records, err := h.recordService.ListMine(c.Request.Context(), caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// ListPatientMedicalRecords lists another patient's records
// @Summary List patient medical records
// @Tags medical-records
// @Produce json
// @Param id path int true "Patient ID"
// @Success 200 {array} models.MedicalRecord
// @Failure 403 {object} ErrorResponse
// @Router /patients/{id}/medical-records [get]
func (h *MedicalRecordHandler) ListPatientMedicalRecords(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	patientID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	records, err := h.recordService.ListForPatient(c.Request.Context(), caller, patientID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// DownloadMedicalRecord streams a record's content
// @Summary Download medical record
// @Tags medical-records
// @Produce octet-stream
// @Param id path int true "Record ID"
// @Success 200 {file} file
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /medical-records/{id}/download [get]
func (h *MedicalRecordHandler) DownloadMedicalRecord(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	recordID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	record, content, err := h.recordService.Download(c.Request.Context(), caller, recordID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	defer content.Close()

	contentType := record.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, record.FileSize, contentType, content, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", record.FileName),
	})
}

// CheckRecordAccess reports whether the caller may read a patient's data
// @Summary Check record access
// @Tags medical-records
// @Produce json
// @Param id path int true "Patient ID"
// @Success 200 {object} map[string]interface{}
// @Router /patients/{id}/access [get]
func (h *MedicalRecordHandler) CheckRecordAccess(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	patientID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	decision, err := h.access.CheckRecordAccess(c.Request.Context(), caller.UserID, caller.Role, patientID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_id": patientID,
		"decision":   decision.String(),
	})
}
