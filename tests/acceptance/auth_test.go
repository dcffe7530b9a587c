package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

func (s *Suite) postJSON(path string, body any, token string) (*http.Response, map[string]any) {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, s.BaseURL+path, bytes.NewReader(payload))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func (s *Suite) getJSON(path, token string) (*http.Response, map[string]any) {
	req, err := http.NewRequest(http.MethodGet, s.BaseURL+path, nil)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

// register walks the four registration steps for a fresh account
func (s *Suite) register(username, email, password string) {
	details := map[string]any{
		"username":   username,
		"email":      email,
		"first_name": "Test",
		"last_name":  "User",
	}

	resp, _ := s.postJSON("/api/v1/auth/register/validate", details, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.postJSON("/api/v1/auth/register/send-otp", details, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	code, ok := s.Mailer.LastCode(email)
	s.Require().True(ok, "no passcode delivered for %s", email)

	resp, body := s.postJSON("/api/v1/auth/register/verify-otp", map[string]any{
		"email":    email,
		"otp_code": code,
	}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().Equal(true, body["verified"])

	resp, _ = s.postJSON("/api/v1/auth/register/create-password", map[string]any{
		"email":            email,
		"password":         password,
		"confirm_password": password,
	}, "")
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
}

func (s *Suite) login(identifier, password string) (*http.Response, map[string]any) {
	return s.postJSON("/api/v1/auth/login", map[string]any{
		"username_or_email": identifier,
		"password":          password,
	}, "")
}

func (s *Suite) TestRegistrationFlow() {
	s.register("johndoe", "john@example.com", "Str0ng!Pass")

	resp, body := s.login("johndoe", "Str0ng!Pass")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.NotEmpty(body["access_token"])

	user, ok := body["user"].(map[string]any)
	s.Require().True(ok)
	s.Equal("john@example.com", user["email"])
	s.Equal(true, user["is_email_verified"])
}

func (s *Suite) TestRegistrationRejectsTakenIdentity() {
	s.register("johndoe", "john@example.com", "Str0ng!Pass")

	resp, _ := s.postJSON("/api/v1/auth/register/validate", map[string]any{
		"username":   "other",
		"email":      "john@example.com",
		"first_name": "Other",
		"last_name":  "User",
	}, "")
	s.Equal(http.StatusConflict, resp.StatusCode)
}

func (s *Suite) TestRegistrationWrongOTP() {
	details := map[string]any{
		"username":   "johndoe",
		"email":      "john@example.com",
		"first_name": "Test",
		"last_name":  "User",
	}
	resp, _ := s.postJSON("/api/v1/auth/register/send-otp", details, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	code, _ := s.Mailer.LastCode("john@example.com")
	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}

	// Misses are reported in the 200 body, not as HTTP errors
	resp, body := s.postJSON("/api/v1/auth/register/verify-otp", map[string]any{
		"email":    "john@example.com",
		"otp_code": wrong,
	}, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(false, body["verified"])
	s.Equal(float64(4), body["remaining_attempts"])

	// Finishing without a verified passcode is refused
	resp, _ = s.postJSON("/api/v1/auth/register/create-password", map[string]any{
		"email":            "john@example.com",
		"password":         "Str0ng!Pass",
		"confirm_password": "Str0ng!Pass",
	}, "")
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestResendOTPInvalidatesOldCode() {
	details := map[string]any{
		"username":   "johndoe",
		"email":      "john@example.com",
		"first_name": "Test",
		"last_name":  "User",
	}
	resp, _ := s.postJSON("/api/v1/auth/register/send-otp", details, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	first, _ := s.Mailer.LastCode("john@example.com")

	resp, _ = s.postJSON("/api/v1/auth/register/resend-otp", map[string]any{
		"email": "john@example.com",
	}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	second, _ := s.Mailer.LastCode("john@example.com")

	if first != second {
		resp, body := s.postJSON("/api/v1/auth/register/verify-otp", map[string]any{
			"email":    "john@example.com",
			"otp_code": first,
		}, "")
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal(false, body["verified"])
	}

	resp, body := s.postJSON("/api/v1/auth/register/verify-otp", map[string]any{
		"email":    "john@example.com",
		"otp_code": second,
	}, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, body["verified"])
}

func (s *Suite) TestLoginInvalidCredentials() {
	s.register("johndoe", "john@example.com", "Str0ng!Pass")

	resp, _ := s.login("johndoe", "wrong-password")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.login("ghost", "Str0ng!Pass")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestLoginRateLimiting() {
	s.register("johndoe", "john@example.com", "Str0ng!Pass")

	for i := 0; i < 5; i++ {
		resp, _ := s.login("johndoe", "wrong-password")
		s.Require().Equal(http.StatusUnauthorized, resp.StatusCode)
	}

	// The sixth try is refused before the password is even checked
	resp, _ := s.login("johndoe", "Str0ng!Pass")
	s.Equal(http.StatusTooManyRequests, resp.StatusCode)
}

func (s *Suite) TestAdminLoginRejectsRegularUser() {
	s.register("johndoe", "john@example.com", "Str0ng!Pass")

	resp, _ := s.postJSON("/api/v1/auth/admin/login", map[string]any{
		"username": "johndoe",
		"password": "Str0ng!Pass",
	}, "")
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *Suite) TestAdminLoginAndUserLoginSplit() {
	s.register("admin", "admin@example.com", "Str0ng!Pass")
	_, err := s.Postgres.DB.Exec(
		`UPDATE user_profiles SET is_admin_user = TRUE WHERE user_id = (SELECT id FROM users WHERE username = 'admin')`,
	)
	s.Require().NoError(err)

	// Admins are bounced from the user endpoint
	resp, _ := s.login("admin", "Str0ng!Pass")
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp, body := s.postJSON("/api/v1/auth/admin/login", map[string]any{
		"username": "admin",
		"password": "Str0ng!Pass",
	}, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	user, ok := body["user"].(map[string]any)
	s.Require().True(ok)
	s.Equal("admin", user["role"])
}

func (s *Suite) TestPasswordResetFlow() {
	s.register("johndoe", "john@example.com", "Str0ng!Pass")

	resp, _ := s.postJSON("/api/v1/auth/password-reset/request", map[string]any{
		"identifier": "johndoe",
	}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	code, ok := s.Mailer.LastCode("john@example.com")
	s.Require().True(ok)

	resp, body := s.postJSON("/api/v1/auth/password-reset/verify", map[string]any{
		"email":    "john@example.com",
		"otp_code": code,
	}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().Equal(true, body["verified"])

	resp, _ = s.postJSON("/api/v1/auth/password-reset/reset", map[string]any{
		"email":            "john@example.com",
		"new_password":     "N3w!Secret",
		"confirm_password": "N3w!Secret",
	}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.login("johndoe", "Str0ng!Pass")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.login("johndoe", "N3w!Secret")
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *Suite) TestPasswordResetUnknownAccount() {
	resp, _ := s.postJSON("/api/v1/auth/password-reset/request", map[string]any{
		"identifier": "ghost",
	}, "")
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *Suite) TestGoogleAuthFlow() {
	s.Google.Issue("good-token", googleIdentity{
		Subject:       "google-sub-123",
		Email:         "jane@gmail.com",
		EmailVerified: true,
		GivenName:     "Jane",
		FamilyName:    "Doe",
	})

	resp, body := s.postJSON("/api/v1/auth/google", map[string]any{"token": "good-token"}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(true, body["new_user"])
	user, ok := body["user"].(map[string]any)
	s.Require().True(ok)
	s.Equal("janedoe", user["username"])

	// The same identity signs into the same account
	resp, body = s.postJSON("/api/v1/auth/google", map[string]any{"token": "good-token"}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Nil(body["new_user"])

	resp, _ = s.postJSON("/api/v1/auth/google", map[string]any{"token": "forged-token"}, "")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestGoogleConfig() {
	resp, body := s.getJSON("/api/v1/auth/google/config", "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(testGoogleClientID, body["client_id"])
}

func (s *Suite) TestMeAndLogout() {
	s.register("johndoe", "john@example.com", "Str0ng!Pass")

	_, body := s.login("johndoe", "Str0ng!Pass")
	token, ok := body["access_token"].(string)
	s.Require().True(ok)

	resp, me := s.getJSON("/api/v1/auth/me", token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("johndoe", me["username"])

	resp, _ = s.postJSON("/api/v1/auth/logout", map[string]any{}, token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	// The blacklisted token no longer opens the door
	resp, _ = s.getJSON("/api/v1/auth/me", token)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestPasswordStrength() {
	resp, body := s.postJSON("/api/v1/auth/password-strength", map[string]any{
		"password": "Str0ng!Pass",
	}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal(float64(100), body["score"])
	s.Equal("strong", body["strength"])
}

func (s *Suite) TestMetricsEndpoint() {
	resp, err := http.Get(fmt.Sprintf("%s/metrics", s.BaseURL))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}
