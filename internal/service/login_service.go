package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/equiptrack/auth-service/internal/domain"
	"github.com/equiptrack/auth-service/internal/dto"
	"github.com/equiptrack/auth-service/internal/repository"
	"github.com/equiptrack/auth-service/internal/utils"
)

// LoginService authenticates users and admins against their respective
// entry points. Every terminal outcome leaves exactly one row on the
// attempt ledger; a rate-limited rejection leaves none.
type LoginService interface {
	LoginUser(ctx context.Context, req *dto.LoginRequest, ip string, userAgent *string) (*dto.AuthResponse, error)
	LoginAdmin(ctx context.Context, req *dto.AdminLoginRequest, ip string, userAgent *string) (*dto.AuthResponse, error)
}

// loginService implements LoginService
type loginService struct {
	userRepo    repository.UserRepository
	attemptRepo repository.LoginAttemptRepository
	limiter     *AttemptLimiter
	jwtManager  *utils.JWTManager
	logger      *zap.Logger
}

// NewLoginService creates a new login service
func NewLoginService(
	userRepo repository.UserRepository,
	attemptRepo repository.LoginAttemptRepository,
	limiter *AttemptLimiter,
	jwtManager *utils.JWTManager,
	logger *zap.Logger,
) LoginService {
	return &loginService{
		userRepo:    userRepo,
		attemptRepo: attemptRepo,
		limiter:     limiter,
		jwtManager:  jwtManager,
		logger:      logger,
	}
}

// LoginUser authenticates a regular user by username or email
func (s *loginService) LoginUser(ctx context.Context, req *dto.LoginRequest, ip string, userAgent *string) (*dto.AuthResponse, error) {
	return s.authenticate(ctx, req.UsernameOrEmail, req.Password, ip, userAgent, false, req.RememberMe)
}

// LoginAdmin authenticates an admin account. Non-admin accounts are turned
// away regardless of their credentials being correct.
func (s *loginService) LoginAdmin(ctx context.Context, req *dto.AdminLoginRequest, ip string, userAgent *string) (*dto.AuthResponse, error) {
	return s.authenticate(ctx, req.Username, req.Password, ip, userAgent, true, false)
}

func (s *loginService) authenticate(ctx context.Context, identifier, password, ip string, userAgent *string, adminPath, rememberMe bool) (*dto.AuthResponse, error) {
	identifier = strings.TrimSpace(identifier)

	limited, err := s.limiter.IsRateLimited(ctx, identifier, ip)
	if err != nil {
		return nil, err
	}
	if limited {
		s.logger.Warn("Login rate limited",
			zap.String("identifier", identifier),
			zap.String("ip", ip),
		)
		return nil, ErrRateLimited
	}

	user, err := s.lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordFailure(ctx, identifier, ip, userAgent, domain.FailureInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) || !user.IsActive {
		s.recordFailure(ctx, identifier, ip, userAgent, domain.FailureInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	if adminPath {
		if !user.Profile.IsAdminUser {
			s.recordFailure(ctx, identifier, ip, userAgent, domain.FailureNotAdmin)
			return nil, ErrNotAdmin
		}
	} else {
		if user.Profile.IsAdminUser {
			s.recordFailure(ctx, identifier, ip, userAgent, domain.FailureAdminOnUserLogin)
			return nil, ErrAdminLoginRequired
		}
		if !user.Profile.IsEmailVerified {
			s.recordFailure(ctx, identifier, ip, userAgent, domain.FailureEmailNotVerified)
			return nil, ErrEmailNotVerified
		}
	}

	if err := s.userRepo.RecordLogin(ctx, user.ID, ip); err != nil {
		s.logger.Error("Failed to record login stats", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		now := time.Now()
		user.LastLoginAt = &now
		user.Profile.LoginCount++
		user.Profile.LastLoginIP = &ip
	}

	s.recordAttempt(ctx, &domain.LoginAttempt{
		UsernameOrEmail: identifier,
		IPAddress:       ip,
		Success:         true,
		UserAgent:       userAgent,
	})

	pair, err := s.jwtManager.GenerateTokenPair(user, rememberMe)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Login succeeded",
		zap.String("user_id", user.ID),
		zap.Bool("admin", adminPath),
	)

	return newAuthResponse(user, pair, false), nil
}

// lookup resolves an identifier: anything containing '@' is treated as an
// email, everything else as a username
func (s *loginService) lookup(ctx context.Context, identifier string) (*domain.User, error) {
	if strings.Contains(identifier, "@") {
		return s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(identifier))
	}
	return s.userRepo.GetByUsername(ctx, utils.SanitizeUsername(identifier))
}

func (s *loginService) recordFailure(ctx context.Context, identifier, ip string, userAgent *string, reason string) {
	s.recordAttempt(ctx, &domain.LoginAttempt{
		UsernameOrEmail: identifier,
		IPAddress:       ip,
		Success:         false,
		FailureReason:   &reason,
		UserAgent:       userAgent,
	})
}

// recordAttempt writes the audit row. The ledger is best effort relative to
// the login result: a write failure is logged, not surfaced.
func (s *loginService) recordAttempt(ctx context.Context, attempt *domain.LoginAttempt) {
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		s.logger.Error("Failed to write login attempt", zap.Error(err))
	}
}
