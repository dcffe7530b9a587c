package domain

import "time"

// GoogleClaims is the structured claim set returned by the external
// ID-token verification collaborator. Signature, issuer and audience
// validation happen on the other side of that boundary.
type GoogleClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	ExpiresAt     int64  `json:"exp"`
}

// GoogleAuthToken stores the federated token material for an account,
// replaced wholesale on each successful Google authentication
type GoogleAuthToken struct {
	UserID       string    `json:"user_id" db:"user_id"`
	AccessToken  string    `json:"-" db:"access_token"`
	RefreshToken *string   `json:"-" db:"refresh_token"`
	TokenType    string    `json:"token_type" db:"token_type"`
	Scope        string    `json:"scope" db:"scope"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsExpired checks if the stored token is expired
func (t *GoogleAuthToken) IsExpired() bool {
	return !time.Now().Before(t.ExpiresAt)
}
