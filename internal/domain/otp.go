package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPPurpose scopes a one-time passcode to a single flow
type OTPPurpose string

const (
	PurposeRegistration      OTPPurpose = "registration"
	PurposeLogin             OTPPurpose = "login"
	PurposePasswordReset     OTPPurpose = "password_reset"
	PurposeEmailVerification OTPPurpose = "email_verification"
)

// Valid reports whether the purpose is one of the known values
func (p OTPPurpose) Valid() bool {
	switch p {
	case PurposeRegistration, PurposeLogin, PurposePasswordReset, PurposeEmailVerification:
		return true
	}
	return false
}

// OTPStatus records how a passcode record reached its current state.
// is_verified remains the single liveness gate; status makes superseded
// records distinguishable from genuinely verified ones in audit queries.
type OTPStatus string

const (
	// OTPStatusLive marks an issued, not yet used record
	OTPStatusLive OTPStatus = "live"
	// OTPStatusVerified marks a record whose code was matched by the user
	OTPStatusVerified OTPStatus = "verified"
	// OTPStatusSuperseded marks a record retired by a newer issue for the same key
	OTPStatusSuperseded OTPStatus = "superseded"
	// OTPStatusConsumed marks a verified record spent by a completed flow
	OTPStatusConsumed OTPStatus = "consumed"
)

// OTPRecord represents one issued passcode
type OTPRecord struct {
	ID          string     `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	Code        string     `json:"-" db:"otp_code"`
	Purpose     OTPPurpose `json:"purpose" db:"purpose"`
	Status      OTPStatus  `json:"status" db:"status"`
	IsVerified  bool       `json:"is_verified" db:"is_verified"`
	Attempts    int        `json:"attempts" db:"attempts"`
	MaxAttempts int        `json:"max_attempts" db:"max_attempts"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at" db:"expires_at"`
	VerifiedAt  *time.Time `json:"verified_at" db:"verified_at"`
	IPAddress   *string    `json:"ip_address" db:"ip_address"`

	// Staged registration fields, carried until account materialization
	TempUsername  *string `json:"-" db:"temp_username"`
	TempFirstName *string `json:"-" db:"temp_first_name"`
	TempLastName  *string `json:"-" db:"temp_last_name"`
}

// DefaultOTPMaxAttempts is the per-record verification attempt ceiling
const DefaultOTPMaxAttempts = 5

// IsExpired reports whether the record's validity window has elapsed
func (o *OTPRecord) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}

// RemainingSeconds returns the remaining validity time, zero once expired
func (o *OTPRecord) RemainingSeconds() int {
	remaining := time.Until(o.ExpiresAt)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// GenerateOTPCode returns a uniformly random 6-digit code. Codes are not
// globally unique; uniqueness is scoped by (email, purpose) liveness.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
