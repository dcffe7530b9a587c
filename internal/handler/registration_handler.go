package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/equiptrack/auth-service/internal/dto"
	"github.com/equiptrack/auth-service/internal/service"
)

// RegistrationHandler handles the multi-step registration flow
type RegistrationHandler struct {
	registration service.RegistrationService
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registration service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registration: registration}
}

// ValidateDetails handles step 1: field format and uniqueness checks
// @Summary Validate registration details
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.BasicDetailsRequest true "Basic details"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /auth/register/validate [post]
func (h *RegistrationHandler) ValidateDetails(c *gin.Context) {
	var req dto.BasicDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindingError(c, err)
		return
	}

	if err := h.registration.ValidateBasicDetails(c.Request.Context(), &req); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Details are valid",
	})
}

// SendOTP handles step 2: issue and deliver a verification passcode
// @Summary Send registration OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SendOTPRequest true "Registration details"
// @Success 200 {object} dto.OTPIssuedResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /auth/register/send-otp [post]
func (h *RegistrationHandler) SendOTP(c *gin.Context) {
	var req dto.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindingError(c, err)
		return
	}

	response, err := h.registration.SendOTP(c.Request.Context(), &req, IPBasedKey(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// VerifyOTP handles step 3: check the submitted passcode
// @Summary Verify registration OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyOTPRequest true "Email and passcode"
// @Success 200 {object} dto.OTPVerifyResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /auth/register/verify-otp [post]
func (h *RegistrationHandler) VerifyOTP(c *gin.Context) {
	var req dto.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindingError(c, err)
		return
	}

	response, err := h.registration.VerifyOTP(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	// Verification misses are part of the flow, not transport errors: the
	// outcome rides in the body with a 200 either way.
	c.JSON(http.StatusOK, response)
}

// ResendOTP re-issues a passcode from the most recent prior request
// @Summary Resend registration OTP
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.ResendOTPRequest true "Email"
// @Success 200 {object} dto.OTPIssuedResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /auth/register/resend-otp [post]
func (h *RegistrationHandler) ResendOTP(c *gin.Context) {
	var req dto.ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindingError(c, err)
		return
	}

	response, err := h.registration.ResendOTP(c.Request.Context(), &req, IPBasedKey(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// CreatePassword handles step 4: set the credential and create the account
// @Summary Complete registration
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.CreatePasswordRequest true "Password"
// @Success 201 {object} dto.RegistrationCompleteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /auth/register/create-password [post]
func (h *RegistrationHandler) CreatePassword(c *gin.Context) {
	var req dto.CreatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindingError(c, err)
		return
	}

	response, err := h.registration.CompleteRegistration(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}
