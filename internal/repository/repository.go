package repository

import (
	"github.com/equiptrack/auth-service/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User        UserRepository
	OTP         OTPRepository
	Attempt     LoginAttemptRepository
	GoogleToken GoogleTokenRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		OTP:         NewOTPRepository(db),
		Attempt:     NewLoginAttemptRepository(db),
		GoogleToken: NewGoogleTokenRepository(db),
	}
}
