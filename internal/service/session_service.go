package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/equiptrack/auth-service/internal/domain"
	"github.com/equiptrack/auth-service/internal/dto"
	"github.com/equiptrack/auth-service/internal/repository"
	"github.com/equiptrack/auth-service/internal/utils"
)

// SessionService validates issued tokens and ends sessions. Logout works by
// blacklisting the presented tokens until they would have expired anyway.
type SessionService interface {
	ValidateAccessToken(ctx context.Context, token string) (*domain.TokenClaims, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	GetUser(ctx context.Context, userID string) (*dto.UserSummary, error)
}

// sessionService implements SessionService
type sessionService struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
	blacklist  *TokenBlacklistService
	logger     *zap.Logger
}

// NewSessionService creates a new session service
func NewSessionService(
	userRepo repository.UserRepository,
	jwtManager *utils.JWTManager,
	blacklist *TokenBlacklistService,
	logger *zap.Logger,
) SessionService {
	return &sessionService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// ValidateAccessToken rejects blacklisted tokens before checking the
// signature and claims
func (s *sessionService) ValidateAccessToken(ctx context.Context, token string) (*domain.TokenClaims, error) {
	blacklisted, err := s.blacklist.IsTokenBlacklisted(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if blacklisted {
		return nil, fmt.Errorf("token is revoked")
	}

	return s.jwtManager.ValidateToken(token)
}

// Logout blacklists the presented tokens. Blacklist entries live as long as
// the longest lifetime a token of that kind can have, so an entry never
// outlasts Redis before the token itself expires.
func (s *sessionService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if accessToken != "" {
		if err := s.blacklist.AddToken(ctx, accessToken, s.jwtManager.RefreshTokenExpiry(false)); err != nil {
			return fmt.Errorf("failed to revoke access token: %w", err)
		}
	}

	if refreshToken != "" {
		if err := s.blacklist.AddToken(ctx, refreshToken, s.jwtManager.RefreshTokenExpiry(true)); err != nil {
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
	}

	return nil
}

// GetUser returns the summary for an authenticated user
func (s *sessionService) GetUser(ctx context.Context, userID string) (*dto.UserSummary, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := newUserSummary(user)
	return &summary, nil
}
