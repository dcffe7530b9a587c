package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/equiptrack/auth-service/internal/domain"
	"github.com/equiptrack/auth-service/pkg/database"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

const userSelectColumns = `
	u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash,
	u.is_active, u.created_at, u.updated_at, u.last_login_at,
	p.is_email_verified, p.is_admin_user, p.google_id, p.profile_picture,
	p.last_login_ip, p.login_count, p.created_at, p.updated_at
`

// Create creates a user and its profile in a single transaction
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	user.Profile.UserID = user.ID
	if user.Profile.CreatedAt.IsZero() {
		user.Profile.CreatedAt = now
	}
	if user.Profile.UpdatedAt.IsZero() {
		user.Profile.UpdatedAt = now
	}

	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	userQuery := `
		INSERT INTO users (id, username, email, first_name, last_name, password_hash, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = tx.ExecContext(ctx, userQuery,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return translateUserConstraint(err)
	}

	profileQuery := `
		INSERT INTO user_profiles (user_id, is_email_verified, is_admin_user, google_id, profile_picture, last_login_ip, login_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = tx.ExecContext(ctx, profileQuery,
		user.Profile.UserID,
		user.Profile.IsEmailVerified,
		user.Profile.IsAdminUser,
		user.Profile.GoogleID,
		user.Profile.ProfilePicture,
		user.Profile.LastLoginIP,
		user.Profile.LoginCount,
		user.Profile.CreatedAt,
		user.Profile.UpdatedAt,
	)
	if err != nil {
		return translateUserConstraint(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user creation: %w", err)
	}

	return nil
}

func translateUserConstraint(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "users_email_key":
			return fmt.Errorf("email is taken: %w", ErrDuplicateEmail)
		case "users_username_key":
			return fmt.Errorf("username is taken: %w", ErrDuplicateUsername)
		case "user_profiles_google_id_key":
			return fmt.Errorf("google id is taken: %w", ErrDuplicateGoogleID)
		}
	}
	return fmt.Errorf("failed to write user: %w", err)
}

func (r *userRepository) getBy(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM users u
		JOIN user_profiles p ON p.user_id = u.id
		WHERE %s
	`, userSelectColumns, where)

	user := &domain.User{}
	var lastLoginAt sql.NullTime
	var googleID, picture, lastIP sql.NullString

	err := r.db.DB.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLoginAt,
		&user.Profile.IsEmailVerified,
		&user.Profile.IsAdminUser,
		&googleID,
		&picture,
		&lastIP,
		&user.Profile.LoginCount,
		&user.Profile.CreatedAt,
		&user.Profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Profile.UserID = user.ID
	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Time
	}
	if googleID.Valid {
		user.Profile.GoogleID = &googleID.String
	}
	if picture.Valid {
		user.Profile.ProfilePicture = &picture.String
	}
	if lastIP.Valid {
		user.Profile.LastLoginIP = &lastIP.String
	}

	return user, nil
}

// GetByID retrieves a user with profile by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "u.id = $1", id)
}

// GetByEmail retrieves a user with profile by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "u.email = $1", email)
}

// GetByUsername retrieves a user with profile by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, "u.username = $1", username)
}

// GetByGoogleID retrieves a user with profile by linked Google identity
func (r *userRepository) GetByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return r.getBy(ctx, "p.google_id = $1", googleID)
}

// ExistsByEmail reports whether an account with the email exists
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email)
}

// ExistsByUsername reports whether an account with the username exists
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)", username)
}

func (r *userRepository) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var exists bool
	if err := r.db.DB.QueryRowContext(ctx, query, arg).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return exists, nil
}

// UpdatePassword rotates the stored credential hash
func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, userID, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return requireRowsAffected(result, userID)
}

// RecordLogin updates last-login bookkeeping on both the user row and the
// profile row: timestamp, source IP and login counter
func (r *userRepository) RecordLogin(ctx context.Context, userID, ipAddress string) error {
	now := time.Now()

	tx, err := r.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET last_login_at = $2 WHERE id = $1`,
		userID, now,
	); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE user_profiles SET login_count = login_count + 1, last_login_ip = $2, updated_at = $3 WHERE user_id = $1`,
		userID, ipAddress, now,
	)
	if err != nil {
		return fmt.Errorf("failed to update login stats: %w", err)
	}
	if err := requireRowsAffected(result, userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit login stats: %w", err)
	}

	return nil
}

// LinkGoogleAccount attaches a Google identity to an existing account and
// forces the email-verified flag, since the issuer vouched for the address
func (r *userRepository) LinkGoogleAccount(ctx context.Context, userID, googleID string, picture *string) error {
	query := `
		UPDATE user_profiles
		SET google_id = $2, is_email_verified = TRUE, profile_picture = COALESCE($3, profile_picture), updated_at = $4
		WHERE user_id = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, userID, googleID, picture, time.Now())
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("google id is taken: %w", ErrDuplicateGoogleID)
		}
		return fmt.Errorf("failed to link google account: %w", err)
	}

	return requireRowsAffected(result, userID)
}

func requireRowsAffected(result sql.Result, userID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user with id %s not found: %w", userID, ErrNotFound)
	}
	return nil
}
