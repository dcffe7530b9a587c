package dto

// BasicDetailsRequest carries step 1 of the registration flow
type BasicDetailsRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
}

// SendOTPRequest carries step 2 of the registration flow
type SendOTPRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=150"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Purpose   string `json:"purpose"`
}

// VerifyOTPRequest carries step 3 of the registration flow
type VerifyOTPRequest struct {
	Email   string `json:"email" binding:"required,email"`
	OTPCode string `json:"otp_code" binding:"required,len=6"`
	Purpose string `json:"purpose"`
}

// ResendOTPRequest re-issues a passcode from the staged fields of the
// most recent prior request
type ResendOTPRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Purpose string `json:"purpose"`
}

// CreatePasswordRequest carries the final registration step
type CreatePasswordRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// LoginRequest represents a user login request
type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	RememberMe      bool   `json:"remember_me"`
}

// AdminLoginRequest represents an admin login request
type AdminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// GoogleAuthRequest carries a Google ID token issued to the frontend
type GoogleAuthRequest struct {
	Token string `json:"token" binding:"required"`
}

// RequestPasswordResetRequest accepts a username or email
type RequestPasswordResetRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

// VerifyResetOTPRequest carries the reset passcode
type VerifyResetOTPRequest struct {
	Email   string `json:"email" binding:"required,email"`
	OTPCode string `json:"otp_code" binding:"required,len=6"`
}

// ResetPasswordRequest carries the rotated credential
type ResetPasswordRequest struct {
	Email           string `json:"email" binding:"required,email"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// PasswordStrengthRequest asks for a strength evaluation
type PasswordStrengthRequest struct {
	Password string `json:"password" binding:"required"`
}
