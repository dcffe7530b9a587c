package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/equiptrack/auth-service/internal/dto"
	"github.com/equiptrack/auth-service/internal/service"
)

// PasswordResetHandler handles the three-step password reset flow
type PasswordResetHandler struct {
	reset service.PasswordResetService
}

// NewPasswordResetHandler creates a new password reset handler
func NewPasswordResetHandler(reset service.PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{reset: reset}
}

// Request issues a reset passcode for a username or email
// @Summary Request password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RequestPasswordResetRequest true "Identifier"
// @Success 200 {object} dto.OTPIssuedResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /auth/password-reset/request [post]
func (h *PasswordResetHandler) Request(c *gin.Context) {
	var req dto.RequestPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindingError(c, err)
		return
	}

	response, err := h.reset.RequestReset(c.Request.Context(), &req, IPBasedKey(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Verify checks the submitted reset passcode
// @Summary Verify reset OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyResetOTPRequest true "Email and passcode"
// @Success 200 {object} dto.OTPVerifyResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /auth/password-reset/verify [post]
func (h *PasswordResetHandler) Verify(c *gin.Context) {
	var req dto.VerifyResetOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindingError(c, err)
		return
	}

	response, err := h.reset.VerifyResetOTP(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Reset rotates the credential after a verified passcode
// @Summary Reset password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "New password"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /auth/password-reset/reset [post]
func (h *PasswordResetHandler) Reset(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindingError(c, err)
		return
	}

	if err := h.reset.ResetPassword(c.Request.Context(), &req); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Password has been reset successfully",
	})
}
