package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/equiptrack/auth-service/internal/dto"
	"github.com/equiptrack/auth-service/internal/service"
	"github.com/equiptrack/auth-service/internal/utils"
)

// AuthHandler handles login, federated sign-in and session requests
type AuthHandler struct {
	login          service.LoginService
	google         service.GoogleAuthService
	sessions       service.SessionService
	googleClientID string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(login service.LoginService, google service.GoogleAuthService, sessions service.SessionService, googleClientID string) *AuthHandler {
	return &AuthHandler{
		login:          login,
		google:         google,
		sessions:       sessions,
		googleClientID: googleClientID,
	}
}

// Login handles user login by username or email
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindingError(c, err)
		return
	}

	response, err := h.login.LoginUser(c.Request.Context(), &req, IPBasedKey(c), userAgent(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// AdminLogin handles admin login
// @Summary Login admin
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.AdminLoginRequest true "Admin login request"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Router /auth/admin/login [post]
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindingError(c, err)
		return
	}

	response, err := h.login.LoginAdmin(c.Request.Context(), &req, IPBasedKey(c), userAgent(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GoogleAuth handles sign-in with a Google ID token
// @Summary Authenticate with Google
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.GoogleAuthRequest true "Google ID token"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /auth/google [post]
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	var req dto.GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindingError(c, err)
		return
	}

	response, err := h.google.Authenticate(c.Request.Context(), &req, IPBasedKey(c), userAgent(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GoogleConfig exposes the OAuth client ID the frontend needs to start
// the sign-in flow
// @Summary Get Google sign-in configuration
// @Tags auth
// @Produce json
// @Success 200 {object} dto.GoogleConfigResponse
// @Router /auth/google/config [get]
func (h *AuthHandler) GoogleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, dto.GoogleConfigResponse{
		ClientID: h.googleClientID,
	})
}

// Logout revokes the presented tokens
// @Summary Logout user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.SuccessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	accessToken := bearerToken(c)
	refreshToken, _ := c.Cookie("refresh_token")

	if err := h.sessions.Logout(c.Request.Context(), accessToken, refreshToken); err != nil {
		writeServiceError(c, err)
		return
	}

	c.SetCookie("refresh_token", "", -1, "/", "", true, true)

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Logged out successfully",
	})
}

// GetMe returns the authenticated user's summary
// @Summary Get current user profile
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.UserSummary
// @Failure 401 {object} dto.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: "User ID not found in context",
		})
		return
	}

	user, err := h.sessions.GetUser(c.Request.Context(), userID.(string))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// PasswordStrength evaluates a candidate password for display purposes
// @Summary Check password strength
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.PasswordStrengthRequest true "Candidate password"
// @Success 200 {object} dto.PasswordStrengthResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /auth/password-strength [post]
func (h *AuthHandler) PasswordStrength(c *gin.Context) {
	var req dto.PasswordStrengthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindingError(c, err)
		return
	}

	strength := utils.CalculatePasswordStrength(req.Password)

	c.JSON(http.StatusOK, dto.PasswordStrengthResponse{
		Score:    strength.Score,
		Strength: strength.Strength,
		Feedback: strength.Feedback,
	})
}

// bearerToken extracts the token from the Authorization header, empty when
// absent or malformed
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
