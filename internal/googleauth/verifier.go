// Package googleauth is the client for Google's ID-token verification
// endpoint. Signature, issuer and audience validation happen on Google's
// side; this client only checks that the response matches our client ID.
package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/equiptrack/auth-service/internal/domain"
)

var (
	// ErrInvalidToken is returned when Google rejects the assertion
	ErrInvalidToken = errors.New("invalid google token")

	// ErrAudienceMismatch is returned when the token was issued to a different client
	ErrAudienceMismatch = errors.New("google token audience mismatch")

	// ErrTimeout is returned when the verification endpoint does not answer in time
	ErrTimeout = errors.New("google token verification timeout")

	// ErrUnavailable is returned when the verification endpoint cannot be reached
	ErrUnavailable = errors.New("google token verification unavailable")
)

// Verifier exchanges an ID token for a verified claim set
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*domain.GoogleClaims, error)
}

// Client is an HTTP client for the tokeninfo endpoint
type Client struct {
	tokenInfoURL string
	clientID     string
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewClient creates a new verification client with a bounded timeout
func NewClient(tokenInfoURL, clientID string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		tokenInfoURL: tokenInfoURL,
		clientID:     clientID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// tokeninfo returns every field as a string
type tokenInfoResponse struct {
	Sub           string `json:"sub"`
	Aud           string `json:"aud"`
	Iss           string `json:"iss"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Exp           string `json:"exp"`
}

// Verify calls the tokeninfo endpoint and maps its answer to claims
func (c *Client) Verify(ctx context.Context, idToken string) (*domain.GoogleClaims, error) {
	endpoint := fmt.Sprintf("%s?id_token=%s", c.tokenInfoURL, url.QueryEscape(idToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var timeoutErr interface{ Timeout() bool }
		if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
			c.logger.Error("Google tokeninfo endpoint timed out")
			return nil, ErrTimeout
		}
		c.logger.Error("Google tokeninfo endpoint unreachable", zap.Error(err))
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Google rejected id token", zap.Int("status", resp.StatusCode))
		return nil, ErrInvalidToken
	}

	var info tokenInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	if info.Iss != "accounts.google.com" && info.Iss != "https://accounts.google.com" {
		c.logger.Warn("Invalid token issuer", zap.String("iss", info.Iss))
		return nil, ErrInvalidToken
	}

	if c.clientID != "" && info.Aud != c.clientID {
		c.logger.Warn("Token audience mismatch", zap.String("aud", info.Aud))
		return nil, ErrAudienceMismatch
	}

	exp, _ := strconv.ParseInt(info.Exp, 10, 64)

	return &domain.GoogleClaims{
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified == "true",
		Name:          info.Name,
		GivenName:     info.GivenName,
		FamilyName:    info.FamilyName,
		Picture:       info.Picture,
		ExpiresAt:     exp,
	}, nil
}
