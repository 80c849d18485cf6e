package auth

import (
	"strings"
	"testing"

	"github.com/dmitrijs2005/credstack/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name   string
		email  string
		reason string
	}{
		{name: "ok", email: "a@b.com"},
		{name: "empty", email: "", reason: "Invalid email format"},
		{name: "no at", email: "ab.com", reason: "Invalid email format"},
		{name: "no dot", email: "a@bcom", reason: "Invalid email format"},
		{name: "255 ok", email: strings.Repeat("a", 249) + "@b.com"},
		{name: "too long", email: strings.Repeat("a", 250) + "@b.com", reason: "Email too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			var ve *common.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.reason, ve.Reason)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		reason   string
	}{
		{name: "ok", password: "Secret123"},
		{name: "short", password: "abc12", reason: "Password must be at least 8 characters"},
		{name: "no letter", password: "12345678", reason: "Password must contain at least one letter"},
		{name: "no digit", password: "abcdefgh", reason: "Password must contain at least one number"},
		{name: "unicode counts runes", password: "пароль1ё", reason: ""},
		{name: "unicode too short", password: "пароль1", reason: "Password must be at least 8 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			var ve *common.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.reason, ve.Reason)
		})
	}
}
