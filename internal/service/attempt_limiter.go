package service

import (
	"context"
	"fmt"
	"time"

	"github.com/equiptrack/auth-service/internal/repository"
)

// AttemptLimiter throttles logins by reading the attempt ledger: an IP or an
// identifier with too many recent failures is locked out until failures age
// past the trailing window. The rejection itself writes nothing, so a locked
// out caller cannot extend their own lockout.
type AttemptLimiter struct {
	attemptRepo repository.LoginAttemptRepository
	maxFailures int
	window      time.Duration
}

// NewAttemptLimiter creates a limiter over the attempt ledger
func NewAttemptLimiter(attemptRepo repository.LoginAttemptRepository, maxFailures int, window time.Duration) *AttemptLimiter {
	return &AttemptLimiter{
		attemptRepo: attemptRepo,
		maxFailures: maxFailures,
		window:      window,
	}
}

// IsRateLimited reports whether the IP or the identifier has reached the
// failure ceiling inside the trailing window. The two counts are independent
// and either one is enough.
func (l *AttemptLimiter) IsRateLimited(ctx context.Context, identifier, ip string) (bool, error) {
	since := time.Now().Add(-l.window)

	ipFailures, err := l.attemptRepo.CountRecentFailuresByIP(ctx, ip, since)
	if err != nil {
		return false, fmt.Errorf("failed to count failures by ip: %w", err)
	}
	if ipFailures >= l.maxFailures {
		return true, nil
	}

	idFailures, err := l.attemptRepo.CountRecentFailuresByIdentifier(ctx, identifier, since)
	if err != nil {
		return false, fmt.Errorf("failed to count failures by identifier: %w", err)
	}

	return idFailures >= l.maxFailures, nil
}
