package dto

// UserSummary represents user information in auth responses
type UserSummary struct {
	ID              string  `json:"id"`
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Role            string  `json:"role"`
	IsEmailVerified bool    `json:"is_email_verified"`
	ProfilePicture  *string `json:"profile_picture,omitempty"`
	LoginCount      int     `json:"login_count"`
}

// AuthResponse represents a successful authentication response
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	User         UserSummary `json:"user"`
	NewUser      bool        `json:"new_user,omitempty"`
}

// GoogleConfigResponse carries the OAuth client ID the frontend signs
// in with
type GoogleConfigResponse struct {
	ClientID string `json:"client_id"`
}

// OTPIssuedResponse is returned after a passcode is sent
type OTPIssuedResponse struct {
	Email          string `json:"email"` // masked
	ExpiresIn      int    `json:"expires_in"`
	CanResendAfter int    `json:"can_resend_after,omitempty"`
}

// OTPVerifyResponse reports a verification outcome
type OTPVerifyResponse struct {
	Verified          bool   `json:"verified"`
	Message           string `json:"message"`
	RemainingAttempts *int   `json:"remaining_attempts,omitempty"`
}

// RegistrationCompleteResponse is returned once the account exists
type RegistrationCompleteResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// PasswordStrengthResponse reports a strength evaluation
type PasswordStrengthResponse struct {
	Score    int      `json:"score"`
	Strength string   `json:"strength"`
	Feedback []string `json:"feedback"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
