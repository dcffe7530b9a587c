package service

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by the services. Handlers map these to HTTP
// statuses; anything not listed here is treated as an internal error.
var (
	// ErrRateLimited is returned when the failed-attempt allowance for an IP or
	// identifier is exhausted
	ErrRateLimited = errors.New("too many failed login attempts, please try again later")

	// ErrInvalidCredentials covers both unknown identifiers and wrong
	// passwords so callers cannot probe which accounts exist
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAdminLoginRequired is returned when an admin account is presented
	// to the regular user login
	ErrAdminLoginRequired = errors.New("admin users must use the admin login")

	// ErrNotAdmin is returned when a non-admin account is presented to the
	// admin login
	ErrNotAdmin = errors.New("not an admin user")

	// ErrEmailNotVerified is returned when logging in to an account whose
	// email was never verified
	ErrEmailNotVerified = errors.New("email address is not verified")

	// ErrEmailTaken is returned when registering an email that already has
	// an account
	ErrEmailTaken = errors.New("email is already registered")

	// ErrUsernameTaken is returned when registering a username that is
	// already in use
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrNoPriorRequest is returned when resending a passcode with no prior
	// request to re-issue from
	ErrNoPriorRequest = errors.New("no prior verification request found")

	// ErrOTPNotVerified is returned when completing a flow whose passcode
	// was never verified
	ErrOTPNotVerified = errors.New("email verification is not complete")

	// ErrDeliveryFailed is returned when the passcode could not be sent.
	// The issued record stays valid; a resend re-issues it.
	ErrDeliveryFailed = errors.New("failed to send verification code")

	// ErrPasswordMismatch is returned when password and confirmation differ
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrAccountNotFound is returned when a password reset is requested for
	// an unknown identifier
	ErrAccountNotFound = errors.New("no account found for that identifier")

	// ErrResetWindowExpired is returned when the verified reset passcode is
	// older than the reset session window
	ErrResetWindowExpired = errors.New("password reset session expired, please request a new code")

	// ErrRegistrationFailed is the generic failure for lost duplicate races
	// during account creation
	ErrRegistrationFailed = errors.New("registration failed, please try again")

	// ErrGoogleAuthFailed is the single external failure for Google sign-in;
	// the internal cause is logged, never surfaced
	ErrGoogleAuthFailed = errors.New("google authentication failed")

	// ErrGoogleEmailNotVerified is returned when Google has not verified the
	// email on the presented identity
	ErrGoogleEmailNotVerified = errors.New("google account email is not verified")
)

// ValidationError carries per-field messages for input that fails format or
// policy checks
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %d field(s)", len(e.Fields))
}

// newValidationError builds a single-field validation error
func newValidationError(field string, messages ...string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: messages}}
}

// CooldownError is returned when a passcode is re-requested before the
// per-email cooldown elapses
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting another code", e.RetryAfterSeconds())
}

// RetryAfterSeconds returns the remaining cooldown rounded up to whole seconds
func (e *CooldownError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
