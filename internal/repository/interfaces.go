package repository

import (
	"context"
	"time"

	"github.com/equiptrack/auth-service/internal/domain"
)

// UserRepository defines methods for account and profile operations.
// A profile row always exists for every user; Create writes both in one
// transaction and every read joins them.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	RecordLogin(ctx context.Context, userID, ipAddress string) error
	LinkGoogleAccount(ctx context.Context, userID, googleID string, picture *string) error
}

// OTPRepository defines methods for the verification ledger
type OTPRepository interface {
	// CreateSuperseding retires every live record for the record's
	// (email, purpose) key and inserts the new record, atomically.
	CreateSuperseding(ctx context.Context, record *domain.OTPRecord) error
	GetLatestLive(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error)
	GetLatest(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error)
	GetLatestVerified(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error)
	UpdateAttempts(ctx context.Context, record *domain.OTPRecord) error
	MarkVerified(ctx context.Context, record *domain.OTPRecord) error
	InvalidateAll(ctx context.Context, email string, purpose domain.OTPPurpose) error
}

// LoginAttemptRepository defines methods for the append-only attempt ledger
type LoginAttemptRepository interface {
	Create(ctx context.Context, attempt *domain.LoginAttempt) error
	CountRecentFailuresByIP(ctx context.Context, ipAddress string, since time.Time) (int, error)
	CountRecentFailuresByIdentifier(ctx context.Context, identifier string, since time.Time) (int, error)
}

// GoogleTokenRepository defines methods for stored federated token material
type GoogleTokenRepository interface {
	Upsert(ctx context.Context, token *domain.GoogleAuthToken) error
	GetByUserID(ctx context.Context, userID string) (*domain.GoogleAuthToken, error)
}
