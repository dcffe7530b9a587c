package service

import (
	"github.com/equiptrack/auth-service/internal/domain"
	"github.com/equiptrack/auth-service/internal/dto"
)

// newUserSummary maps an account onto the response summary
func newUserSummary(user *domain.User) dto.UserSummary {
	return dto.UserSummary{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Role:            user.Role(),
		IsEmailVerified: user.Profile.IsEmailVerified,
		ProfilePicture:  user.Profile.ProfilePicture,
		LoginCount:      user.Profile.LoginCount,
	}
}

// newAuthResponse assembles the response for a successful authentication
func newAuthResponse(user *domain.User, pair *domain.TokenPair, newUser bool) *dto.AuthResponse {
	return &dto.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		User:         newUserSummary(user),
		NewUser:      newUser,
	}
}
