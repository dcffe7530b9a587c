package googleauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func validTokenInfo() tokenInfoResponse {
	return tokenInfoResponse{
		Sub:           "google-sub-123",
		Aud:           "client-id",
		Iss:           "https://accounts.google.com",
		Email:         "jane@gmail.com",
		EmailVerified: "true",
		Name:          "Jane Doe",
		GivenName:     "Jane",
		FamilyName:    "Doe",
		Picture:       "https://lh3.example.com/photo.jpg",
		Exp:           "1756400000",
	}
}

func tokenInfoServer(t *testing.T, info tokenInfoResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("id_token"))
		json.NewEncoder(w).Encode(info)
	}))
}

func TestVerify_Success(t *testing.T) {
	server := tokenInfoServer(t, validTokenInfo())
	defer server.Close()

	client := NewClient(server.URL, "client-id", 5*time.Second, zap.NewNop())
	claims, err := client.Verify(context.Background(), "id-token")
	require.NoError(t, err)

	assert.Equal(t, "google-sub-123", claims.Subject)
	assert.Equal(t, "jane@gmail.com", claims.Email)
	assert.True(t, claims.EmailVerified)
	assert.Equal(t, "Jane", claims.GivenName)
	assert.Equal(t, int64(1756400000), claims.ExpiresAt)
}

func TestVerify_UnverifiedEmailString(t *testing.T) {
	info := validTokenInfo()
	info.EmailVerified = "false"
	server := tokenInfoServer(t, info)
	defer server.Close()

	client := NewClient(server.URL, "client-id", 5*time.Second, zap.NewNop())
	claims, err := client.Verify(context.Background(), "id-token")
	require.NoError(t, err)
	assert.False(t, claims.EmailVerified)
}

func TestVerify_RejectedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, "client-id", 5*time.Second, zap.NewNop())
	_, err := client.Verify(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongIssuer(t *testing.T) {
	info := validTokenInfo()
	info.Iss = "https://evil.example.com"
	server := tokenInfoServer(t, info)
	defer server.Close()

	client := NewClient(server.URL, "client-id", 5*time.Second, zap.NewNop())
	_, err := client.Verify(context.Background(), "id-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_AudienceMismatch(t *testing.T) {
	info := validTokenInfo()
	info.Aud = "someone-elses-client"
	server := tokenInfoServer(t, info)
	defer server.Close()

	client := NewClient(server.URL, "client-id", 5*time.Second, zap.NewNop())
	_, err := client.Verify(context.Background(), "id-token")
	assert.ErrorIs(t, err, ErrAudienceMismatch)
}

func TestVerify_EmptyClientIDSkipsAudienceCheck(t *testing.T) {
	info := validTokenInfo()
	info.Aud = "someone-elses-client"
	server := tokenInfoServer(t, info)
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, zap.NewNop())
	_, err := client.Verify(context.Background(), "id-token")
	assert.NoError(t, err)
}

func TestVerify_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "client-id", 5*time.Second, zap.NewNop())
	_, err := client.Verify(context.Background(), "id-token")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestVerify_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, "client-id", 20*time.Millisecond, zap.NewNop())
	_, err := client.Verify(context.Background(), "id-token")
	assert.ErrorIs(t, err, ErrTimeout)
}
