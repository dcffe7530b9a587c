// Package mailer is the client for the external OTP delivery service.
// Email rendering and delivery live on the other side of this boundary.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/equiptrack/auth-service/internal/domain"
)

// Failure kinds, distinguished for logging; callers collapse them into a
// generic delivery failure toward the user.
var (
	// ErrTimeout is returned when the delivery service does not answer in time
	ErrTimeout = errors.New("otp delivery service timeout")

	// ErrUnavailable is returned when the delivery service cannot be reached
	ErrUnavailable = errors.New("otp delivery service unavailable")

	// ErrRejected is returned when the delivery service refuses the send
	ErrRejected = errors.New("otp delivery service rejected the request")
)

// Sender delivers a passcode to a recipient
type Sender interface {
	SendOTP(ctx context.Context, email, code, firstName, lastName string, purpose domain.OTPPurpose) error
}

// Client is an HTTP client for the OTP delivery service
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new delivery service client with a bounded timeout
func NewClient(url string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

type sendRequest struct {
	Email     string `json:"email"`
	OTP       string `json:"otp"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Purpose   string `json:"purpose"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SendOTP posts the passcode to the delivery service. Never retried here;
// callers re-issue through the resend flow instead.
func (c *Client) SendOTP(ctx context.Context, email, code, firstName, lastName string, purpose domain.OTPPurpose) error {
	payload, err := json.Marshal(sendRequest{
		Email:     email,
		OTP:       code,
		FirstName: firstName,
		LastName:  lastName,
		Purpose:   string(purpose),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal otp payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create otp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr interface{ Timeout() bool }
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			c.logger.Error("OTP delivery service timed out", zap.String("url", c.url))
			return ErrTimeout
		}
		c.logger.Error("OTP delivery service unreachable", zap.String("url", c.url), zap.Error(err))
		return ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("OTP delivery service returned error status",
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("delivery failed with status %d: %w", resp.StatusCode, ErrRejected)
	}

	var body sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode delivery response: %w", err)
	}

	if !body.Success {
		c.logger.Error("OTP delivery service reported failure", zap.String("message", body.Message))
		return fmt.Errorf("delivery reported failure: %w", ErrRejected)
	}

	return nil
}
