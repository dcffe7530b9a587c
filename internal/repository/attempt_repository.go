package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/equiptrack/auth-service/internal/domain"
	"github.com/equiptrack/auth-service/pkg/database"
)

// loginAttemptRepository implements LoginAttemptRepository interface
type loginAttemptRepository struct {
	db *database.Postgres
}

// NewLoginAttemptRepository creates a new login attempt repository
func NewLoginAttemptRepository(db *database.Postgres) LoginAttemptRepository {
	return &loginAttemptRepository{db: db}
}

// Create appends an attempt row; the ledger is never mutated or pruned here
func (r *loginAttemptRepository) Create(ctx context.Context, attempt *domain.LoginAttempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now()
	}

	query := `
		INSERT INTO login_attempts (id, username_or_email, ip_address, success, failure_reason, user_agent, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		attempt.ID,
		attempt.UsernameOrEmail,
		attempt.IPAddress,
		attempt.Success,
		attempt.FailureReason,
		attempt.UserAgent,
		attempt.AttemptedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create login attempt: %w", err)
	}

	return nil
}

// CountRecentFailuresByIP counts failed attempts from an IP since the cutoff
func (r *loginAttemptRepository) CountRecentFailuresByIP(ctx context.Context, ipAddress string, since time.Time) (int, error) {
	return r.countFailures(ctx,
		`SELECT COUNT(*) FROM login_attempts WHERE ip_address = $1 AND success = FALSE AND attempted_at >= $2`,
		ipAddress, since,
	)
}

// CountRecentFailuresByIdentifier counts failed attempts for a submitted
// username or email since the cutoff
func (r *loginAttemptRepository) CountRecentFailuresByIdentifier(ctx context.Context, identifier string, since time.Time) (int, error) {
	return r.countFailures(ctx,
		`SELECT COUNT(*) FROM login_attempts WHERE username_or_email = $1 AND success = FALSE AND attempted_at >= $2`,
		identifier, since,
	)
}

func (r *loginAttemptRepository) countFailures(ctx context.Context, query string, args ...interface{}) (int, error) {
	var count int
	if err := r.db.DB.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count login failures: %w", err)
	}
	return count, nil
}
