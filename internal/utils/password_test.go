package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!Pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!Pass", hash)

	assert.True(t, CheckPasswordHash("Str0ng!Pass", hash))
	assert.False(t, CheckPasswordHash("str0ng!pass", hash))
	assert.False(t, CheckPasswordHash("", hash))
}

func TestValidatePasswordPolicy(t *testing.T) {
	assert.Empty(t, ValidatePasswordPolicy("Str0ng!Pass"))

	cases := map[string]string{
		"Sh0rt!a":      "at least 8 characters",
		"alllower1!aa": "uppercase",
		"ALLUPPER1!AA": "lowercase",
		"NoDigits!aaa": "number",
		"NoSpecial1aa": "special character",
	}
	for password, fragment := range cases {
		violations := ValidatePasswordPolicy(password)
		require.Len(t, violations, 1, password)
		assert.Contains(t, violations[0], fragment)
	}

	assert.Len(t, ValidatePasswordPolicy(""), 5)
}

func TestCalculatePasswordStrength(t *testing.T) {
	weak := CalculatePasswordStrength("abc")
	assert.Equal(t, 0, weak.Score)
	assert.Equal(t, "weak", weak.Strength)
	assert.NotEmpty(t, weak.Feedback)

	medium := CalculatePasswordStrength("abcdefgH")
	assert.Equal(t, 50, medium.Score)
	assert.Equal(t, "medium", medium.Strength)

	good := CalculatePasswordStrength("abcdefgH1")
	assert.Equal(t, 75, good.Score)
	assert.Equal(t, "good", good.Strength)

	strong := CalculatePasswordStrength("abcdefgH1!")
	assert.Equal(t, 100, strong.Score)
	assert.Equal(t, "strong", strong.Strength)
	assert.Empty(t, strong.Feedback)
}
