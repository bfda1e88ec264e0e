package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "alice@example.com", false},
		{"subdomain", "bob@mail.example.co.uk", false},
		{"empty", "", true},
		{"missing at", "alice.example.com", true},
		{"display name", "Alice <alice@example.com>", true},
		{"too long", string(make([]byte, 255)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidOTP(t *testing.T) {
	assert.True(t, ValidOTP("123456"))
	assert.True(t, ValidOTP("000000"))
	assert.False(t, ValidOTP("12345"))
	assert.False(t, ValidOTP("1234567"))
	assert.False(t, ValidOTP("12a456"))
	assert.False(t, ValidOTP(""))
}

func TestStruct(t *testing.T) {
	t.Run("valid verify request", func(t *testing.T) {
		err := Struct(&VerifyOTPRequest{Email: "alice@example.com", OTP: "123456"})
		assert.NoError(t, err)
	})

	t.Run("missing email", func(t *testing.T) {
		err := Struct(&SendOTPRequest{})
		require.Error(t, err)
		assert.Equal(t, "email is required", err.Error())
	})

	t.Run("bad email", func(t *testing.T) {
		err := Struct(&SendOTPRequest{Email: "not-an-email"})
		require.Error(t, err)
		assert.Equal(t, "email must be a valid email address", err.Error())
	})

	t.Run("bad otp", func(t *testing.T) {
		err := Struct(&VerifyOTPRequest{Email: "alice@example.com", OTP: "12ab56"})
		require.Error(t, err)
		assert.Equal(t, "otp must be exactly 6 digits", err.Error())
	})

	t.Run("missing plan", func(t *testing.T) {
		err := Struct(&CheckoutRequest{})
		require.Error(t, err)
		assert.Equal(t, "plan is required", err.Error())
	})
}
