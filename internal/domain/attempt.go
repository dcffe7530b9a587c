package domain

import "time"

// LoginAttempt is an immutable audit row written for every login outcome
type LoginAttempt struct {
	ID              string    `json:"id" db:"id"`
	UsernameOrEmail string    `json:"username_or_email" db:"username_or_email"`
	IPAddress       string    `json:"ip_address" db:"ip_address"`
	Success         bool      `json:"success" db:"success"`
	FailureReason   *string   `json:"failure_reason" db:"failure_reason"`
	UserAgent       *string   `json:"user_agent" db:"user_agent"`
	AttemptedAt     time.Time `json:"attempted_at" db:"attempted_at"`
}

// Well-known failure reasons recorded on the attempt ledger
const (
	FailureInvalidCredentials = "Invalid credentials"
	FailureAdminOnUserLogin   = "Admin user attempted user login"
	FailureNotAdmin           = "Not an admin user"
	FailureEmailNotVerified   = "Email not verified"
)
