package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/equiptrack/auth-service/internal/domain"
)

// JWTManager manages JWT token operations
type JWTManager struct {
	secret                []byte
	accessTokenExpiry     time.Duration
	refreshTokenExpiry    time.Duration
	rememberMeTokenExpiry time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, accessTokenExpiry, refreshTokenExpiry, rememberMeTokenExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:                []byte(secret),
		accessTokenExpiry:     accessTokenExpiry,
		refreshTokenExpiry:    refreshTokenExpiry,
		rememberMeTokenExpiry: rememberMeTokenExpiry,
	}
}

// GenerateTokenPair generates an access and refresh token for the user.
// rememberMe extends the refresh token lifetime.
func (j *JWTManager) GenerateTokenPair(user *domain.User, rememberMe bool) (*domain.TokenPair, error) {
	accessToken, err := j.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := j.generateRefreshToken(user.ID, j.RefreshTokenExpiry(rememberMe))
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(j.accessTokenExpiry.Seconds()),
	}, nil
}

func (j *JWTManager) generateAccessToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
		"is_admin": user.Profile.IsAdminUser,
		"exp":      now.Add(j.accessTokenExpiry).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (j *JWTManager) generateRefreshToken(userID string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(expiry).Unix(),
		"iat":     now.Unix(),
		"type":    "refresh",
		"jti":     uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates an access token and returns its claims
func (j *JWTManager) ValidateToken(tokenString string) (*domain.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid user_id in token")
	}

	email, ok := claims["email"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid email in token")
	}

	username, ok := claims["username"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid username in token")
	}

	isAdmin, _ := claims["is_admin"].(bool)

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid exp in token")
	}

	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid iat in token")
	}

	tokenClaims := &domain.TokenClaims{
		UserID:   userID,
		Username: username,
		Email:    email,
		IsAdmin:  isAdmin,
		Exp:      int64(exp),
		Iat:      int64(iat),
	}

	if tokenClaims.IsExpired() {
		return nil, fmt.Errorf("token is expired")
	}

	return tokenClaims, nil
}

// GetAccessTokenExpiry returns the access token expiry duration in seconds
func (j *JWTManager) GetAccessTokenExpiry() int {
	return int(j.accessTokenExpiry.Seconds())
}

// RefreshTokenExpiry returns the refresh token lifetime for the remember-me choice
func (j *JWTManager) RefreshTokenExpiry(rememberMe bool) time.Duration {
	if rememberMe {
		return j.rememberMeTokenExpiry
	}
	return j.refreshTokenExpiry
}
