package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/equiptrack/auth-service/internal/domain"
	"github.com/equiptrack/auth-service/internal/repository"
)

// VerifyOutcome classifies the result of a passcode verification attempt
type VerifyOutcome int

const (
	// OutcomeVerified means the code matched a live record
	OutcomeVerified VerifyOutcome = iota
	// OutcomeInvalidCode means the code did not match; attempts remain
	OutcomeInvalidCode
	// OutcomeExpiredOrExhausted means the record is no longer usable, either
	// past its validity window or out of attempts. The two are reported as
	// one condition and the code is never compared.
	OutcomeExpiredOrExhausted
	// OutcomeNotFound means no live record exists for the key
	OutcomeNotFound
)

// Messages surfaced with each verification outcome
const (
	msgOTPVerified           = "OTP verified successfully"
	msgOTPInvalid            = "Invalid OTP. %d attempts remaining"
	msgOTPExpiredOrExhausted = "OTP expired or maximum attempts reached. Please request a new one"
	msgOTPNotFound           = "No OTP found. Please request a new one"
)

// VerifyResult reports a verification attempt against the ledger
type VerifyResult struct {
	Outcome           VerifyOutcome
	Message           string
	RemainingAttempts int
	Record            *domain.OTPRecord
}

// IssueParams describes a passcode to issue
type IssueParams struct {
	Email    string
	Purpose  domain.OTPPurpose
	Validity time.Duration
	IP       *string

	// Staged registration fields carried on the record until the account
	// materializes
	TempUsername  *string
	TempFirstName *string
	TempLastName  *string
}

// OTPService is the verification ledger: at most one live passcode per
// (email, purpose) key, each usable for a bounded number of attempts within
// a bounded validity window.
type OTPService interface {
	Issue(ctx context.Context, params IssueParams) (*domain.OTPRecord, error)
	Verify(ctx context.Context, email string, purpose domain.OTPPurpose, code string) (*VerifyResult, error)
	Latest(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error)
	LatestVerified(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error)
	InvalidateAll(ctx context.Context, email string, purpose domain.OTPPurpose) error
}

// otpService implements OTPService over the otp_records repository
type otpService struct {
	otpRepo repository.OTPRepository
}

// NewOTPService creates a new verification ledger service
func NewOTPService(otpRepo repository.OTPRepository) OTPService {
	return &otpService{otpRepo: otpRepo}
}

// Issue generates a fresh passcode and inserts it, retiring every live
// record for the same key in the same transaction
func (s *otpService) Issue(ctx context.Context, params IssueParams) (*domain.OTPRecord, error) {
	code, err := domain.GenerateOTPCode()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := &domain.OTPRecord{
		Email:         params.Email,
		Code:          code,
		Purpose:       params.Purpose,
		Status:        domain.OTPStatusLive,
		MaxAttempts:   domain.DefaultOTPMaxAttempts,
		CreatedAt:     now,
		ExpiresAt:     now.Add(params.Validity),
		IPAddress:     params.IP,
		TempUsername:  params.TempUsername,
		TempFirstName: params.TempFirstName,
		TempLastName:  params.TempLastName,
	}

	if err := s.otpRepo.CreateSuperseding(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to issue otp: %w", err)
	}

	return record, nil
}

// Verify checks a submitted code against the latest live record for the key.
// Every call that reaches a record costs one attempt, including calls that
// arrive after the record is already expired or out of attempts.
func (s *otpService) Verify(ctx context.Context, email string, purpose domain.OTPPurpose, code string) (*VerifyResult, error) {
	record, err := s.otpRepo.GetLatestLive(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &VerifyResult{
				Outcome: OutcomeNotFound,
				Message: msgOTPNotFound,
			}, nil
		}
		return nil, fmt.Errorf("failed to load otp record: %w", err)
	}

	record.Attempts++

	// The usability gate looks at the pre-increment count: a record with
	// max_attempts failures behind it is exhausted before any comparison.
	// Expiry and exhaustion are one condition to the caller.
	if record.IsExpired() || record.Attempts > record.MaxAttempts {
		if err := s.otpRepo.UpdateAttempts(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to persist otp attempt: %w", err)
		}
		return &VerifyResult{
			Outcome: OutcomeExpiredOrExhausted,
			Message: msgOTPExpiredOrExhausted,
			Record:  record,
		}, nil
	}

	if record.Code == code {
		now := time.Now()
		record.IsVerified = true
		record.Status = domain.OTPStatusVerified
		record.VerifiedAt = &now
		if err := s.otpRepo.MarkVerified(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to mark otp verified: %w", err)
		}
		return &VerifyResult{
			Outcome: OutcomeVerified,
			Message: msgOTPVerified,
			Record:  record,
		}, nil
	}

	if err := s.otpRepo.UpdateAttempts(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist otp attempt: %w", err)
	}

	remaining := record.MaxAttempts - record.Attempts
	return &VerifyResult{
		Outcome:           OutcomeInvalidCode,
		Message:           fmt.Sprintf(msgOTPInvalid, remaining),
		RemainingAttempts: remaining,
		Record:            record,
	}, nil
}

// Latest returns the most recently created record for the key in any state
func (s *otpService) Latest(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	return s.otpRepo.GetLatest(ctx, email, purpose)
}

// LatestVerified returns the most recently verified record for the key.
// Superseded and consumed records never qualify.
func (s *otpService) LatestVerified(ctx context.Context, email string, purpose domain.OTPPurpose) (*domain.OTPRecord, error) {
	return s.otpRepo.GetLatestVerified(ctx, email, purpose)
}

// InvalidateAll retires every record for the key once a flow completes
func (s *otpService) InvalidateAll(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	return s.otpRepo.InvalidateAll(ctx, email, purpose)
}
