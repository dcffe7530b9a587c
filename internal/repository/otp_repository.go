package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/equiptrack/auth-service/internal/domain"
	"github.com/equiptrack/auth-service/pkg/database"
)

// otpRepository implements OTPRepository interface
type otpRepository struct {
	db *database.Postgres
}

// NewOTPRepository creates a new OTP repository
func NewOTPRepository(db *database.Postgres) OTPRepository {
	return &otpRepository{db: db}
}

const otpSelectColumns = `
	id, email, otp_code, purpose, status, is_verified, attempts, max_attempts,
	created_at, expires_at, verified_at, ip_address,
	temp_username, temp_first_name, temp_last_name
`

// CreateSuperseding retires all live records for (email, purpose) and
// inserts the new record in one transaction. The supersede UPDATE takes
// row locks on the key, serializing concurrent issues for the same pair.
func (r *otpRepository) CreateSuperseding(ctx context.Context, record *domain.OTPRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if record.Status == "" {
		record.Status = domain.OTPStatusLive
	}
	if record.MaxAttempts == 0 {
		record.MaxAttempts = domain.DefaultOTPMaxAttempts
	}

	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Supersede-as-used: retired records read as verified so they can never
	// satisfy a later verify call, but status keeps them distinguishable
	// from genuinely verified records.
	_, err = tx.ExecContext(ctx, `
		UPDATE otp_records
		SET is_verified = TRUE, status = $3
		WHERE email = $1 AND purpose = $2 AND is_verified = FALSE
	`, record.Email, record.Purpose, domain.OTPStatusSuperseded)
	if err != nil {
		return fmt.Errorf("failed to supersede live otp records: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO otp_records (id, email, otp_code, purpose, status, is_verified, attempts, max_attempts,
			created_at, expires_at, ip_address, temp_username, temp_first_name, temp_last_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		record.ID,
		record.Email,
		record.Code,
		record.Purpose,
		record.Status,
		record.IsVerified,
		record.Attempts,
		record.MaxAttempts,
		record.CreatedAt,
		record.ExpiresAt,
		record.IPAddress,
		record.TempUsername,
		record.TempFirstName,
		record.TempLastName,
	)
	if err != nil {
		return fmt.Errorf("failed to insert otp record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit otp issue: %w", err)
	}

	return nil
}

func (r *otpRepository) getLatest(ctx context.Context, where, order string, args ...interface{}) (*domain.OTPRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM otp_records
		WHERE %s
		ORDER BY %s
		LIMIT 1
	`, otpSelectColumns, where, order)

	record := &domain.OTPRecord{}
	var verifiedAt sql.NullTime
	var ipAddress, tempUsername, tempFirstName, tempLastName sql.NullString

	err := r.db.DB.QueryRowContext(ctx, query, args...).Scan(
		&record.ID,
		&record.Email,
		&record.Code,
		&record.Purpose,
		&record.Status,
		&record.IsVerified,
		&record.Attempts,
		&record.MaxAttempts,
		&record.CreatedAt,
		&record.ExpiresAt,
		&verifiedAt,
		&ipAddress,
		&tempUsername,
		&tempFirstName,
		&tempLastName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("otp record not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get otp record: %w", err)
	}

	if verifiedAt.Valid {
		record.VerifiedAt = &verifiedAt.Time
	}
	if ipAddress.Valid {
		record.IPAddress = &ipAddress.String
	}
	if tempUsername.Valid {
		record.TempUsername = &tempUsername.String
	}
	if tempFirstName.Valid {
		record.TempFirstName = &tempFirstName.String
	}
	if tempLastName.Valid {
		record.TempLastName = &tempLastName.String
	}

	return record, nil
}

// GetLatestLive returns the most recent not-yet-used record for the key
func (r *otpRepository) GetLatestLive(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	return r.getLatest(ctx,
		"email = $1 AND purpose = $2 AND is_verified = FALSE",
		"created_at DESC",
		email, purpose,
	)
}

// GetLatest returns the most recent record for the key regardless of state
func (r *otpRepository) GetLatest(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	return r.getLatest(ctx,
		"email = $1 AND purpose = $2",
		"created_at DESC",
		email, purpose,
	)
}

// GetLatestVerified returns the most recently verified record for the key.
// Superseded records never match: only user-verified rows carry the
// verified status.
func (r *otpRepository) GetLatestVerified(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	return r.getLatest(ctx,
		"email = $1 AND purpose = $2 AND status = $3",
		"verified_at DESC",
		email, purpose, domain.OTPStatusVerified,
	)
}

// UpdateAttempts persists the attempt counter of a record
func (r *otpRepository) UpdateAttempts(ctx context.Context, record *domain.OTPRecord) error {
	result, err := r.db.DB.ExecContext(ctx,
		`UPDATE otp_records SET attempts = $2 WHERE id = $1`,
		record.ID, record.Attempts,
	)
	if err != nil {
		return fmt.Errorf("failed to update otp attempts: %w", err)
	}

	return requireOTPRowsAffected(result, record.ID)
}

// MarkVerified persists a successful verification transition
func (r *otpRepository) MarkVerified(ctx context.Context, record *domain.OTPRecord) error {
	result, err := r.db.DB.ExecContext(ctx, `
		UPDATE otp_records
		SET is_verified = TRUE, status = $2, attempts = $3, verified_at = $4
		WHERE id = $1
	`,
		record.ID, domain.OTPStatusVerified, record.Attempts, record.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to mark otp verified: %w", err)
	}

	return requireOTPRowsAffected(result, record.ID)
}

// InvalidateAll retires every record for (email, purpose): verified rows
// become consumed, everything else superseded. Called after a completed
// password reset to prevent replay of a stale verified state.
func (r *otpRepository) InvalidateAll(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	_, err := r.db.DB.ExecContext(ctx, `
		UPDATE otp_records
		SET is_verified = TRUE,
		    status = CASE WHEN status = $3 THEN $4 ELSE $5 END
		WHERE email = $1 AND purpose = $2 AND status <> $4
	`,
		email, purpose,
		domain.OTPStatusVerified, domain.OTPStatusConsumed, domain.OTPStatusSuperseded,
	)
	if err != nil {
		return fmt.Errorf("failed to invalidate otp records: %w", err)
	}

	return nil
}

func requireOTPRowsAffected(result sql.Result, recordID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("otp record with id %s not found: %w", recordID, ErrNotFound)
	}
	return nil
}
