package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/equiptrack/auth-service/pkg/database"
)

// TokenBlacklistService tracks revoked tokens in Redis. Entries carry a
// TTL no shorter than the token's own remaining lifetime, so a revoked
// token stays listed until it would have expired anyway. Tokens are
// keyed by digest; the raw JWT never lands in Redis.
type TokenBlacklistService struct {
	redis *database.Redis
}

// NewTokenBlacklistService creates a new token blacklist service
func NewTokenBlacklistService(redis *database.Redis) *TokenBlacklistService {
	return &TokenBlacklistService{redis: redis}
}

func blacklistKey(token string) string {
	digest := sha256.Sum256([]byte(token))
	return fmt.Sprintf("blacklist:token:%s", hex.EncodeToString(digest[:]))
}

// AddToken revokes a token for the given duration
func (s *TokenBlacklistService) AddToken(ctx context.Context, token string, expiry time.Duration) error {
	if err := s.redis.Client.Set(ctx, blacklistKey(token), "1", expiry).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

// IsTokenBlacklisted reports whether a token has been revoked
func (s *TokenBlacklistService) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	exists, err := s.redis.Client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return exists > 0, nil
}
