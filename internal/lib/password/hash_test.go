package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGetHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "admin password", password: "Admin"},
		{name: "password with special chars", password: "p@ssw0rd!@#$%^&*()"},
		{name: "cyrillic password", password: "пароль123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotHash, err := GetHash(tt.password)
			require.NoError(t, err)
			assert.NotEmpty(t, gotHash)
			assert.NotEqual(t, tt.password, gotHash)
			assert.NoError(t, CompareHash(gotHash, tt.password))
		})
	}
}

func TestGetHash_TooLong(t *testing.T) {
	_, err := GetHash(strings.Repeat("a", MaxBytes+1))
	require.Error(t, err)
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)

	// 40 кириллических символов проходят validate:"max=72", но занимают 80 байт.
	_, err = GetHash(strings.Repeat("ж", 40))
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)

	_, err = GetHash(strings.Repeat("a", MaxBytes))
	assert.NoError(t, err)
}

func TestCompareHash(t *testing.T) {
	correctHash, err := GetHash("correct_password")
	require.NoError(t, err)

	tests := []struct {
		name        string
		password    string
		shouldMatch bool
	}{
		{name: "matching password", password: "correct_password", shouldMatch: true},
		{name: "wrong password", password: "wrong_password", shouldMatch: false},
		{name: "empty password", password: "", shouldMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CompareHash(correctHash, tt.password)
			if tt.shouldMatch {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrMismatch)
			}
		})
	}
}

func TestCompareHash_CorruptedHash(t *testing.T) {
	err := CompareHash("not-a-bcrypt-hash", "secret")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}
