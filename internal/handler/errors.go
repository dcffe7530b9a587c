package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/equiptrack/auth-service/internal/dto"
	"github.com/equiptrack/auth-service/internal/service"
)

// writeServiceError maps service errors onto HTTP responses. Unrecognized
// errors become an opaque 500; their detail stays in the logs.
func writeServiceError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: "One or more fields are invalid",
			Details: validationErr.Fields,
		})
		return
	}

	var cooldownErr *service.CooldownError
	if errors.As(err, &cooldownErr) {
		c.Header("Retry-After", strconv.Itoa(cooldownErr.RetryAfterSeconds()))
		c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{
			Error:   "Too Many Requests",
			Message: cooldownErr.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{
			Error:   "Too Many Requests",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrGoogleAuthFailed):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "Unauthorized",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrAdminLoginRequired),
		errors.Is(err, service.ErrNotAdmin),
		errors.Is(err, service.ErrEmailNotVerified),
		errors.Is(err, service.ErrGoogleEmailNotVerified):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{
			Error:   "Forbidden",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrUsernameTaken):
		c.JSON(http.StatusConflict, dto.ErrorResponse{
			Error:   "Conflict",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrNoPriorRequest),
		errors.Is(err, service.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "Not Found",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrOTPNotVerified),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrResetWindowExpired):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Bad request",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrDeliveryFailed):
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Error:   "Bad Gateway",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "Something went wrong",
		})
	}
}

// writeBindingError reports malformed request bodies
func writeBindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "Validation failed",
		Message: err.Error(),
	})
}

// userAgent returns the request's user agent, nil when absent
func userAgent(c *gin.Context) *string {
	ua := c.Request.UserAgent()
	if ua == "" {
		return nil
	}
	return &ua
}
