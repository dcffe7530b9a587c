package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/equiptrack/auth-service/internal/domain"
	"github.com/equiptrack/auth-service/pkg/database"
)

// googleTokenRepository implements GoogleTokenRepository interface
type googleTokenRepository struct {
	db *database.Postgres
}

// NewGoogleTokenRepository creates a new Google token repository
func NewGoogleTokenRepository(db *database.Postgres) GoogleTokenRepository {
	return &googleTokenRepository{db: db}
}

// Upsert replaces the stored token material for the account wholesale
func (r *googleTokenRepository) Upsert(ctx context.Context, token *domain.GoogleAuthToken) error {
	now := time.Now()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now
	}
	token.UpdatedAt = now

	query := `
		INSERT INTO google_auth_tokens (user_id, access_token, refresh_token, token_type, scope, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_type = EXCLUDED.token_type,
			scope = EXCLUDED.scope,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		token.UserID,
		token.AccessToken,
		token.RefreshToken,
		token.TokenType,
		token.Scope,
		token.ExpiresAt,
		token.CreatedAt,
		token.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert google token: %w", err)
	}

	return nil
}

// GetByUserID retrieves the stored token material for an account
func (r *googleTokenRepository) GetByUserID(ctx context.Context, userID string) (*domain.GoogleAuthToken, error) {
	query := `
		SELECT user_id, access_token, refresh_token, token_type, scope, expires_at, created_at, updated_at
		FROM google_auth_tokens
		WHERE user_id = $1
	`

	token := &domain.GoogleAuthToken{}
	var refreshToken sql.NullString

	err := r.db.DB.QueryRowContext(ctx, query, userID).Scan(
		&token.UserID,
		&token.AccessToken,
		&refreshToken,
		&token.TokenType,
		&token.Scope,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("google token for user %s not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get google token: %w", err)
	}

	if refreshToken.Valid {
		token.RefreshToken = &refreshToken.String
	}

	return token, nil
}
