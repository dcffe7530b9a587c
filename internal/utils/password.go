package utils

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password using bcrypt
func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

const passwordSpecialChars = `!@#$%^&*(),.?":{}|<>`

// ValidatePasswordPolicy checks the composite strength policy: minimum 8
// characters with at least one uppercase letter, one lowercase letter, one
// digit and one special character. Returns one message per violation.
func ValidatePasswordPolicy(password string) []string {
	var errs []string

	if len(password) < 8 {
		errs = append(errs, "Password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		case strings.ContainsRune(passwordSpecialChars, char):
			hasSpecial = true
		}
	}

	if !hasUpper {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !hasLower {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !hasDigit {
		errs = append(errs, "Password must contain at least one number")
	}
	if !hasSpecial {
		errs = append(errs, "Password must contain at least one special character")
	}

	return errs
}

// PasswordStrength holds a strength evaluation for display purposes
type PasswordStrength struct {
	Score    int
	Strength string
	Feedback []string
}

// CalculatePasswordStrength scores a password for the strength endpoint.
// Display-only; the policy gate is ValidatePasswordPolicy.
func CalculatePasswordStrength(password string) PasswordStrength {
	score := 0
	feedback := []string{}

	if len(password) >= 8 {
		score += 25
	} else {
		feedback = append(feedback, "Use at least 8 characters")
	}

	var hasUpper, hasDigit, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsDigit(char):
			hasDigit = true
		case strings.ContainsRune(passwordSpecialChars, char):
			hasSpecial = true
		}
	}

	if hasUpper {
		score += 25
	} else {
		feedback = append(feedback, "Add uppercase letters")
	}
	if hasDigit {
		score += 25
	} else {
		feedback = append(feedback, "Add numbers")
	}
	if hasSpecial {
		score += 25
	} else {
		feedback = append(feedback, "Add special characters")
	}

	strength := "weak"
	switch {
	case score >= 100:
		strength = "strong"
	case score >= 75:
		strength = "good"
	case score >= 50:
		strength = "medium"
	}

	return PasswordStrength{
		Score:    score,
		Strength: strength,
		Feedback: feedback,
	}
}
