package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/equiptrack/auth-service/internal/domain"
	"github.com/equiptrack/auth-service/internal/dto"
	"github.com/equiptrack/auth-service/internal/mailer"
	"github.com/equiptrack/auth-service/internal/repository"
	"github.com/equiptrack/auth-service/internal/utils"
)

// RegistrationService drives the four-step registration flow: validate
// details, send a passcode, verify it, then create the account with a
// password. No account row exists until the final step.
type RegistrationService interface {
	ValidateBasicDetails(ctx context.Context, req *dto.BasicDetailsRequest) error
	SendOTP(ctx context.Context, req *dto.SendOTPRequest, ip string) (*dto.OTPIssuedResponse, error)
	VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) (*dto.OTPVerifyResponse, error)
	ResendOTP(ctx context.Context, req *dto.ResendOTPRequest, ip string) (*dto.OTPIssuedResponse, error)
	CompleteRegistration(ctx context.Context, req *dto.CreatePasswordRequest) (*dto.RegistrationCompleteResponse, error)
}

// registrationService implements RegistrationService
type registrationService struct {
	userRepo       repository.UserRepository
	otps           OTPService
	sender         mailer.Sender
	logger         *zap.Logger
	otpValidity    time.Duration
	resendCooldown time.Duration
	bcryptCost     int
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	userRepo repository.UserRepository,
	otps OTPService,
	sender mailer.Sender,
	logger *zap.Logger,
	otpValidity time.Duration,
	resendCooldown time.Duration,
	bcryptCost int,
) RegistrationService {
	return &registrationService{
		userRepo:       userRepo,
		otps:           otps,
		sender:         sender,
		logger:         logger,
		otpValidity:    otpValidity,
		resendCooldown: resendCooldown,
		bcryptCost:     bcryptCost,
	}
}

// ValidateBasicDetails checks format and uniqueness of the first-step fields
func (s *registrationService) ValidateBasicDetails(ctx context.Context, req *dto.BasicDetailsRequest) error {
	return s.checkDetails(ctx, req.Username, req.Email, req.FirstName, req.LastName)
}

func (s *registrationService) checkDetails(ctx context.Context, username, email, firstName, lastName string) error {
	username = utils.SanitizeUsername(username)
	email = utils.SanitizeEmail(email)

	fields := map[string][]string{}
	if !utils.ValidateEmail(email) {
		fields["email"] = append(fields["email"], "Enter a valid email address")
	}
	if !utils.ValidateUsername(username) {
		fields["username"] = append(fields["username"], "Username may only contain letters, numbers, underscores and hyphens")
	}
	if utils.SanitizeName(firstName) == "" {
		fields["first_name"] = append(fields["first_name"], "First name may not be blank")
	}
	if utils.SanitizeName(lastName) == "" {
		fields["last_name"] = append(fields["last_name"], "Last name may not be blank")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	emailTaken, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if emailTaken {
		return ErrEmailTaken
	}

	usernameTaken, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if usernameTaken {
		return ErrUsernameTaken
	}

	return nil
}

// SendOTP re-validates the details, issues a passcode with the registration
// fields staged on the record, and hands it to the delivery service. The
// record outlives a delivery failure so a resend can re-issue from it.
func (s *registrationService) SendOTP(ctx context.Context, req *dto.SendOTPRequest, ip string) (*dto.OTPIssuedResponse, error) {
	if err := s.checkDetails(ctx, req.Username, req.Email, req.FirstName, req.LastName); err != nil {
		return nil, err
	}

	email := utils.SanitizeEmail(req.Email)
	username := utils.SanitizeUsername(req.Username)
	firstName := utils.SanitizeName(req.FirstName)
	lastName := utils.SanitizeName(req.LastName)

	record, err := s.otps.Issue(ctx, IssueParams{
		Email:         email,
		Purpose:       domain.PurposeRegistration,
		Validity:      s.otpValidity,
		IP:            &ip,
		TempUsername:  &username,
		TempFirstName: &firstName,
		TempLastName:  &lastName,
	})
	if err != nil {
		return nil, err
	}

	if err := s.sender.SendOTP(ctx, email, record.Code, firstName, lastName, domain.PurposeRegistration); err != nil {
		s.logger.Error("Registration OTP delivery failed",
			zap.String("email", utils.MaskEmail(email)),
			zap.Error(err),
		)
		return nil, ErrDeliveryFailed
	}

	s.logger.Info("Registration OTP sent", zap.String("email", utils.MaskEmail(email)))

	return s.issuedResponse(email, record), nil
}

// VerifyOTP checks a submitted registration passcode
func (s *registrationService) VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) (*dto.OTPVerifyResponse, error) {
	email := utils.SanitizeEmail(req.Email)

	result, err := s.otps.Verify(ctx, email, domain.PurposeRegistration, req.OTPCode)
	if err != nil {
		return nil, err
	}

	return verifyResponse(result), nil
}

// ResendOTP re-issues a passcode carrying over the staged fields of the most
// recent prior request, in any state. Without one there is nothing to resend.
func (s *registrationService) ResendOTP(ctx context.Context, req *dto.ResendOTPRequest, ip string) (*dto.OTPIssuedResponse, error) {
	email := utils.SanitizeEmail(req.Email)

	prior, err := s.otps.Latest(ctx, email, domain.PurposeRegistration)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoPriorRequest
		}
		return nil, err
	}

	if wait := s.resendCooldown - time.Since(prior.CreatedAt); wait > 0 {
		return nil, &CooldownError{RetryAfter: wait}
	}

	record, err := s.otps.Issue(ctx, IssueParams{
		Email:         email,
		Purpose:       domain.PurposeRegistration,
		Validity:      s.otpValidity,
		IP:            &ip,
		TempUsername:  prior.TempUsername,
		TempFirstName: prior.TempFirstName,
		TempLastName:  prior.TempLastName,
	})
	if err != nil {
		return nil, err
	}

	firstName, lastName := staged(record.TempFirstName), staged(record.TempLastName)
	if err := s.sender.SendOTP(ctx, email, record.Code, firstName, lastName, domain.PurposeRegistration); err != nil {
		s.logger.Error("Registration OTP redelivery failed",
			zap.String("email", utils.MaskEmail(email)),
			zap.Error(err),
		)
		return nil, ErrDeliveryFailed
	}

	return s.issuedResponse(email, record), nil
}

// CompleteRegistration materializes the account from the staged fields of
// the latest verified passcode record
func (s *registrationService) CompleteRegistration(ctx context.Context, req *dto.CreatePasswordRequest) (*dto.RegistrationCompleteResponse, error) {
	email := utils.SanitizeEmail(req.Email)

	record, err := s.otps.LatestVerified(ctx, email, domain.PurposeRegistration)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOTPNotVerified
		}
		return nil, err
	}
	if record.TempUsername == nil {
		return nil, ErrOTPNotVerified
	}

	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if violations := utils.ValidatePasswordPolicy(req.Password); len(violations) > 0 {
		return nil, newValidationError("password", violations...)
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     *record.TempUsername,
		Email:        email,
		FirstName:    staged(record.TempFirstName),
		LastName:     staged(record.TempLastName),
		PasswordHash: passwordHash,
		IsActive:     true,
		Profile: domain.Profile{
			IsEmailVerified: true,
		},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// A lost duplicate race surfaces as a generic failure; the earlier
		// uniqueness checks already told honest callers what was taken.
		if errors.Is(err, repository.ErrDuplicateEmail) || errors.Is(err, repository.ErrDuplicateUsername) {
			s.logger.Warn("Registration lost duplicate race", zap.String("email", utils.MaskEmail(email)))
			return nil, ErrRegistrationFailed
		}
		return nil, err
	}

	if err := s.otps.InvalidateAll(ctx, email, domain.PurposeRegistration); err != nil {
		s.logger.Error("Failed to invalidate registration OTPs", zap.Error(err))
	}

	s.logger.Info("Registration completed",
		zap.String("user_id", user.ID),
		zap.String("email", utils.MaskEmail(email)),
	)

	return &dto.RegistrationCompleteResponse{
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

func (s *registrationService) issuedResponse(email string, record *domain.OTPRecord) *dto.OTPIssuedResponse {
	return &dto.OTPIssuedResponse{
		Email:          utils.MaskEmail(email),
		ExpiresIn:      record.RemainingSeconds(),
		CanResendAfter: int(s.resendCooldown.Seconds()),
	}
}

// verifyResponse maps a ledger verification result onto the response shape
func verifyResponse(result *VerifyResult) *dto.OTPVerifyResponse {
	resp := &dto.OTPVerifyResponse{
		Verified: result.Outcome == OutcomeVerified,
		Message:  result.Message,
	}
	if result.Outcome == OutcomeInvalidCode {
		remaining := result.RemainingAttempts
		resp.RemainingAttempts = &remaining
	}
	return resp
}

func staged(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
