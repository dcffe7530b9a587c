package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/equiptrack/auth-service/internal/domain"
	"github.com/equiptrack/auth-service/internal/dto"
	"github.com/equiptrack/auth-service/internal/googleauth"
	"github.com/equiptrack/auth-service/internal/repository"
	"github.com/equiptrack/auth-service/internal/utils"
)

// googleTokenScope is recorded with stored federated token material
const googleTokenScope = "openid email profile"

// GoogleAuthService signs users in with a Google ID token. Accounts are
// resolved by linked Google identity first, then by email, and created on
// the fly when neither matches.
type GoogleAuthService interface {
	Authenticate(ctx context.Context, req *dto.GoogleAuthRequest, ip string, userAgent *string) (*dto.AuthResponse, error)
}

// googleAuthService implements GoogleAuthService
type googleAuthService struct {
	userRepo    repository.UserRepository
	tokenRepo   repository.GoogleTokenRepository
	attemptRepo repository.LoginAttemptRepository
	verifier    googleauth.Verifier
	jwtManager  *utils.JWTManager
	logger      *zap.Logger
	bcryptCost  int
}

// NewGoogleAuthService creates a new Google authentication service
func NewGoogleAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.GoogleTokenRepository,
	attemptRepo repository.LoginAttemptRepository,
	verifier googleauth.Verifier,
	jwtManager *utils.JWTManager,
	logger *zap.Logger,
	bcryptCost int,
) GoogleAuthService {
	return &googleAuthService{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		attemptRepo: attemptRepo,
		verifier:    verifier,
		jwtManager:  jwtManager,
		logger:      logger,
		bcryptCost:  bcryptCost,
	}
}

// Authenticate verifies the ID token and signs the matching account in,
// creating it first if needed
func (s *googleAuthService) Authenticate(ctx context.Context, req *dto.GoogleAuthRequest, ip string, userAgent *string) (*dto.AuthResponse, error) {
	claims, err := s.verifier.Verify(ctx, req.Token)
	if err != nil {
		// The cause stays internal; callers see one generic failure
		// regardless of whether the token was bad or Google was down.
		s.logger.Warn("Google token verification failed", zap.Error(err))
		return nil, ErrGoogleAuthFailed
	}

	if !claims.EmailVerified {
		return nil, ErrGoogleEmailNotVerified
	}

	email := utils.SanitizeEmail(claims.Email)

	user, newAccount, err := s.resolveAccount(ctx, claims, email)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.RecordLogin(ctx, user.ID, ip); err != nil {
		s.logger.Error("Failed to record login stats", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		now := time.Now()
		user.LastLoginAt = &now
		user.Profile.LoginCount++
		user.Profile.LastLoginIP = &ip
	}

	if err := s.attemptRepo.Create(ctx, &domain.LoginAttempt{
		UsernameOrEmail: email,
		IPAddress:       ip,
		Success:         true,
		UserAgent:       userAgent,
	}); err != nil {
		s.logger.Error("Failed to write login attempt", zap.Error(err))
	}

	if err := s.storeToken(ctx, user.ID, req.Token, claims); err != nil {
		s.logger.Error("Failed to store google token", zap.String("user_id", user.ID), zap.Error(err))
	}

	pair, err := s.jwtManager.GenerateTokenPair(user, false)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Google login succeeded",
		zap.String("user_id", user.ID),
		zap.Bool("new_account", newAccount),
	)

	return newAuthResponse(user, pair, newAccount), nil
}

// resolveAccount finds or creates the account for a verified claim set.
// Resolution order: linked Google identity, then email, then create.
func (s *googleAuthService) resolveAccount(ctx context.Context, claims *domain.GoogleClaims, email string) (*domain.User, bool, error) {
	user, err := s.userRepo.GetByGoogleID(ctx, claims.Subject)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	user, err = s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		picture := optional(claims.Picture)
		if err := s.userRepo.LinkGoogleAccount(ctx, user.ID, claims.Subject, picture); err != nil {
			return nil, false, err
		}
		user.Profile.GoogleID = &claims.Subject
		user.Profile.IsEmailVerified = true
		if picture != nil {
			user.Profile.ProfilePicture = picture
		}
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	user, err = s.createAccount(ctx, claims, email)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *googleAuthService) createAccount(ctx context.Context, claims *domain.GoogleClaims, email string) (*domain.User, error) {
	username, err := s.synthesizeUsername(ctx, claims, email)
	if err != nil {
		return nil, err
	}

	// The account has no usable password until the owner sets one through
	// the reset flow; a random credential keeps bcrypt checks failing.
	passwordHash, err := utils.HashPassword(uuid.New().String(), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		FirstName:    claims.GivenName,
		LastName:     claims.FamilyName,
		PasswordHash: passwordHash,
		IsActive:     true,
		Profile: domain.Profile{
			IsEmailVerified: true,
			GoogleID:        &claims.Subject,
			ProfilePicture:  optional(claims.Picture),
		},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create google account: %w", err)
	}

	return user, nil
}

// synthesizeUsername derives a username from the claim names, falling back
// to the email local part, and resolves collisions with a numeric suffix
func (s *googleAuthService) synthesizeUsername(ctx context.Context, claims *domain.GoogleClaims, email string) (string, error) {
	base := alnumLower(claims.GivenName + claims.FamilyName)
	if base == "" {
		local, _, _ := strings.Cut(email, "@")
		base = alnumLower(local)
	}
	if base == "" {
		base = "user"
	}

	candidate := base
	for i := 1; i <= 1000; i++ {
		taken, err := s.userRepo.ExistsByUsername(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check username: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}

	return fmt.Sprintf("%s%s", base, uuid.New().String()[:8]), nil
}

func (s *googleAuthService) storeToken(ctx context.Context, userID, idToken string, claims *domain.GoogleClaims) error {
	expiresAt := time.Unix(claims.ExpiresAt, 0)
	if claims.ExpiresAt == 0 {
		expiresAt = time.Now().Add(time.Hour)
	}

	token := &domain.GoogleAuthToken{
		UserID:      userID,
		AccessToken: idToken,
		TokenType:   "Bearer",
		Scope:       googleTokenScope,
		ExpiresAt:   expiresAt,
	}

	// Google hands out a refresh token only on first consent; carry the
	// stored one forward so the wholesale upsert does not wipe it.
	existing, err := s.tokenRepo.GetByUserID(ctx, userID)
	if err == nil {
		token.RefreshToken = existing.RefreshToken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	return s.tokenRepo.Upsert(ctx, token)
}

func alnumLower(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
