package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/equiptrack/auth-service/internal/domain"
	"github.com/equiptrack/auth-service/internal/dto"
	"github.com/equiptrack/auth-service/internal/mailer"
	"github.com/equiptrack/auth-service/internal/repository"
	"github.com/equiptrack/auth-service/internal/utils"
)

// PasswordResetService drives the three-step reset flow: request a passcode,
// verify it, then rotate the credential. The verified passcode opens a
// bounded reset session; once it closes a fresh request is needed.
type PasswordResetService interface {
	RequestReset(ctx context.Context, req *dto.RequestPasswordResetRequest, ip string) (*dto.OTPIssuedResponse, error)
	VerifyResetOTP(ctx context.Context, req *dto.VerifyResetOTPRequest) (*dto.OTPVerifyResponse, error)
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
}

// passwordResetService implements PasswordResetService
type passwordResetService struct {
	userRepo        repository.UserRepository
	otps            OTPService
	sender          mailer.Sender
	logger          *zap.Logger
	otpValidity     time.Duration
	requestCooldown time.Duration
	sessionWindow   time.Duration
	bcryptCost      int
}

// NewPasswordResetService creates a new password reset service
func NewPasswordResetService(
	userRepo repository.UserRepository,
	otps OTPService,
	sender mailer.Sender,
	logger *zap.Logger,
	otpValidity time.Duration,
	requestCooldown time.Duration,
	sessionWindow time.Duration,
	bcryptCost int,
) PasswordResetService {
	return &passwordResetService{
		userRepo:        userRepo,
		otps:            otps,
		sender:          sender,
		logger:          logger,
		otpValidity:     otpValidity,
		requestCooldown: requestCooldown,
		sessionWindow:   sessionWindow,
		bcryptCost:      bcryptCost,
	}
}

// RequestReset issues a reset passcode for the account behind the
// identifier. Only accounts with a verified email can start a reset, and
// repeat requests for the same email are throttled.
func (s *passwordResetService) RequestReset(ctx context.Context, req *dto.RequestPasswordResetRequest, ip string) (*dto.OTPIssuedResponse, error) {
	user, err := s.resolve(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if !user.Profile.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}

	prior, err := s.otps.Latest(ctx, user.Email, domain.PurposePasswordReset)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if prior != nil {
		if wait := s.requestCooldown - time.Since(prior.CreatedAt); wait > 0 {
			return nil, &CooldownError{RetryAfter: wait}
		}
	}

	record, err := s.otps.Issue(ctx, IssueParams{
		Email:    user.Email,
		Purpose:  domain.PurposePasswordReset,
		Validity: s.otpValidity,
		IP:       &ip,
	})
	if err != nil {
		return nil, err
	}

	if err := s.sender.SendOTP(ctx, user.Email, record.Code, user.FirstName, user.LastName, domain.PurposePasswordReset); err != nil {
		s.logger.Error("Password reset OTP delivery failed",
			zap.String("email", utils.MaskEmail(user.Email)),
			zap.Error(err),
		)
		return nil, ErrDeliveryFailed
	}

	s.logger.Info("Password reset OTP sent", zap.String("email", utils.MaskEmail(user.Email)))

	return &dto.OTPIssuedResponse{
		Email:          utils.MaskEmail(user.Email),
		ExpiresIn:      record.RemainingSeconds(),
		CanResendAfter: int(s.requestCooldown.Seconds()),
	}, nil
}

// VerifyResetOTP checks a submitted reset passcode
func (s *passwordResetService) VerifyResetOTP(ctx context.Context, req *dto.VerifyResetOTPRequest) (*dto.OTPVerifyResponse, error) {
	email := utils.SanitizeEmail(req.Email)

	result, err := s.otps.Verify(ctx, email, domain.PurposePasswordReset, req.OTPCode)
	if err != nil {
		return nil, err
	}

	return verifyResponse(result), nil
}

// ResetPassword rotates the credential behind a recently verified reset
// passcode and retires every reset record for the email
func (s *passwordResetService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	email := utils.SanitizeEmail(req.Email)

	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if violations := utils.ValidatePasswordPolicy(req.NewPassword); len(violations) > 0 {
		return newValidationError("new_password", violations...)
	}

	record, err := s.otps.LatestVerified(ctx, email, domain.PurposePasswordReset)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOTPNotVerified
		}
		return err
	}
	if record.VerifiedAt == nil || time.Since(*record.VerifiedAt) > s.sessionWindow {
		return ErrResetWindowExpired
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	passwordHash, err := utils.HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return err
	}

	if err := s.otps.InvalidateAll(ctx, email, domain.PurposePasswordReset); err != nil {
		s.logger.Error("Failed to invalidate reset OTPs", zap.Error(err))
	}

	s.logger.Info("Password reset completed", zap.String("user_id", user.ID))

	return nil
}

// resolve finds the account behind a username or email identifier
func (s *passwordResetService) resolve(ctx context.Context, identifier string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return s.userRepo.GetByEmail(ctx, utils.SanitizeEmail(identifier))
	}
	return s.userRepo.GetByUsername(ctx, utils.SanitizeUsername(identifier))
}
