package domain

import "time"

// User represents a registered account in the system
type User struct {
	ID           string     `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at" db:"last_login_at"`

	// Profile is always present: it is created in the same transaction as
	// the user and loaded with every user read.
	Profile Profile `json:"profile"`
}

// Profile is the one-to-one extension of a User
type Profile struct {
	UserID          string    `json:"-" db:"user_id"`
	IsEmailVerified bool      `json:"is_email_verified" db:"is_email_verified"`
	IsAdminUser     bool      `json:"is_admin_user" db:"is_admin_user"`
	GoogleID        *string   `json:"-" db:"google_id"`
	ProfilePicture  *string   `json:"profile_picture" db:"profile_picture"`
	LastLoginIP     *string   `json:"last_login_ip" db:"last_login_ip"`
	LoginCount      int       `json:"login_count" db:"login_count"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Role returns the user's role name as embedded in token claims
func (u *User) Role() string {
	if u.Profile.IsAdminUser {
		return "admin"
	}
	return "user"
}
