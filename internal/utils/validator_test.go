package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"john@example.com",
		"john.doe+tag@sub.example.co",
		"j_d-1%@example.io",
	}
	for _, email := range valid {
		assert.True(t, ValidateEmail(email), email)
	}

	invalid := []string{
		"",
		"john",
		"john@",
		"@example.com",
		"john@example",
		"john doe@example.com",
	}
	for _, email := range invalid {
		assert.False(t, ValidateEmail(email), email)
	}
}

func TestValidateUsername(t *testing.T) {
	assert.True(t, ValidateUsername("john_doe-1"))
	assert.False(t, ValidateUsername("john doe"))
	assert.False(t, ValidateUsername("john!"))
	assert.False(t, ValidateUsername(""))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "john@example.com", SanitizeEmail("  John@Example.COM "))
	assert.Equal(t, "johndoe", SanitizeUsername(" JohnDoe "))
}

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"john.doe@example.com": "j******e@e*****e.com",
		"john@example.com":     "j**n@e*****e.com",
		"jo@example.com":       "j*@e*****e.com",
		"j@ex.co":              "j*@e*.co",
		"user@mail.example.org": "u**r@m**********e.org",
		"émile@example.com":     "é***e@e*****e.com",
		"bø@example.com":        "b*@e*****e.com",
	}
	for in, want := range cases {
		assert.Equal(t, want, MaskEmail(in), in)
	}

	// Malformed addresses pass through untouched
	for _, in := range []string{"", "john", "john@", "@example.com", "john@example"} {
		assert.Equal(t, in, MaskEmail(in), in)
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "John", SanitizeName("  John "))
	assert.Equal(t, "", SanitizeName(" \t "))
}
