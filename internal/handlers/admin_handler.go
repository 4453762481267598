package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pulsex/care-service/internal/models"
	"github.com/pulsex/care-service/internal/repositories"
	"github.com/pulsex/care-service/internal/services"
	"github.com/pulsex/care-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminHandler struct {
	BaseHandler
	adminService services.AdminService
	authService  services.AuthService
}

func NewAdminHandler(adminService services.AdminService, authService services.AuthService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  NewBaseHandler(logger),
		adminService: adminService,
		authService:  authService,
	}
}

// ===== ACCOUNTS =====

// ListUsers lists accounts with optional filtering
// @Summary List users
// @Tags admin
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param q query string false "Search query (name or email)"
// @Param role query string false "Filter by role (patient, doctor, admin)"
// @Param is_active query bool false "Filter by activation"
// @Success 200 {object} models.PaginatedResponse
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	page := max(h.parseIntQuery(c, "page", 1), 1)
	size := h.parseIntQuery(c, "size", 20)
	if size <= 0 || size > 100 {
		size = 20
	}

	filters := repositories.UserFilters{
		Query:  c.Query("q"),
		Limit:  size,
		Offset: (page - 1) * size,
	}
	if role := models.UserRole(c.Query("role")); role != "" {
		if !role.IsValid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid role"})
			return
		}
		filters.Role = &role
	}
	switch c.Query("is_active") {
	case "true":
		active := true
		filters.IsActive = &active
	case "false":
		active := false
		filters.IsActive = &active
	}

	users, total, err := h.adminService.ListUsers(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewPaginatedResponse(users, len(users), total, page, size))
}

// UpdateUserStatus activates or deactivates an account
// @Summary Update user status
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param body body services.UpdateUserStatusRequest true "Status"
// @Success 200 {object} models.UserProfile
// @Router /admin/users/{id}/status [put]
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	userID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateUserStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	profile, err := h.adminService.UpdateUserStatus(c.Request.Context(), userID, &req, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// CreateDoctor creates a doctor account pending approval
// @Summary Create doctor
// @Tags admin
// @Accept json
// @Produce json
// @Param body body services.CreateDoctorRequest true "Doctor"
// @Success 201 {object} models.DoctorSummary
// @Router /admin/doctors [post]
func (h *AdminHandler) CreateDoctor(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req services.CreateDoctorRequest
	if !h.bindJSON(c, &req) {
		return
	}

	doctor, err := h.authService.CreateDoctor(c.Request.Context(), &req, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, doctor)
}

// CreateAdmin creates another admin account
// @Summary Create admin
// @Tags admin
// @Accept json
// @Produce json
// @Param body body services.CreateAdminRequest true "Admin"
// @Success 201 {object} models.UserProfile
// @Router /admin/admins [post]
func (h *AdminHandler) CreateAdmin(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req services.CreateAdminRequest
	if !h.bindJSON(c, &req) {
		return
	}

	profile, err := h.authService.CreateAdmin(c.Request.Context(), &req, caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, profile)
}

// ===== APPROVAL WORKFLOW =====

// ListPendingDoctors lists doctors awaiting review, oldest first
// @Summary List pending doctors
// @Tags admin
// @Produce json
// @Success 200 {array} models.DoctorSummary
// @Router /admin/doctors/pending [get]
func (h *AdminHandler) ListPendingDoctors(c *gin.Context) {
	doctors, err := h.adminService.ListPendingDoctors(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, doctors)
}

// ApproveDoctor approves or rejects a doctor
// @Summary Review doctor
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Doctor ID"
// @Param body body services.ApproveDoctorRequest true "Decision"
// @Success 200 {object} models.DoctorSummary
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/doctors/{id}/approval [put]
func (h *AdminHandler) ApproveDoctor(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	doctorID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.ApproveDoctorRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Reviewing doctor", "doctor_id", doctorID, "approve", req.IsApproved)

	doctor, err := h.adminService.ApproveDoctor(c.Request.Context(), doctorID, caller.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, doctor)
}

// ===== AUDIT LOG =====

// ListActivity lists audit entries in insertion order
// @Summary List activity
// @Tags admin
// @Produce json
// @Param user_id query int false "Only entries by this actor"
// @Success 200 {array} models.ActivityEntry
// @Router /admin/activity [get]
func (h *AdminHandler) ListActivity(c *gin.Context) {
	userID, ok := h.parseUintQueryPtr(c, "user_id")
	if !ok {
		return
	}

	entries, err := h.adminService.ListActivity(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// RecentActivity lists the newest audit entries first
// @Summary Recent activity
// @Tags admin
// @Produce json
// @Param limit query int false "Entries to return (default: 10, max: 200)"
// @Success 200 {array} models.ActivityEntry
// @Router /admin/activity/recent [get]
func (h *AdminHandler) RecentActivity(c *gin.Context) {
	entries, err := h.adminService.RecentActivity(c.Request.Context(), h.parseIntQuery(c, "limit", 0))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// ExportActivity downloads the audit log as a workbook
// @Summary Export activity
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param user_id query int false "Only entries by this actor"
// @Success 200 {file} file
// @Router /admin/activity/export [get]
func (h *AdminHandler) ExportActivity(c *gin.Context) {
	userID, ok := h.parseUintQueryPtr(c, "user_id")
	if !ok {
		return
	}

	data, err := h.adminService.ExportActivity(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	fileName := fmt.Sprintf("activity-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, xlsxContentType, data)
}
