package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pulsex/care-service/internal/services"
	"github.com/pulsex/care-service/internal/utils"
)

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// GetMe returns the caller's profile
// @Summary Get my profile
// @Tags users
// @Produce json
// @Success 200 {object} models.UserProfile
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), caller.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateMe updates the caller's profile
// @Summary Update my profile
// @Tags users
// @Accept json
// @Produce json
// @Param body body services.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} models.UserProfile
// @Failure 400 {object} ErrorResponse "Bad request"
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req services.UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating profile")

	profile, err := h.userService.UpdateProfile(c.Request.Context(), caller.UserID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ChangePassword replaces the caller's password
// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Param body body services.ChangePasswordRequest true "Passwords"
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse "Wrong current password"
// @Router /users/me/password [put]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	caller, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req services.ChangePasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), caller.UserID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Password changed"})
}
