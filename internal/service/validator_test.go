package service_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entregasmx/entregas-cli/internal/service"
)

func TestValidateCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		email    string
		password string
		errFn    require.ErrorAssertionFunc
	}{
		{"both present", "ana@example.com", "secret", require.NoError},
		{"empty email", "", "secret", require.Error},
		{"empty password", "ana@example.com", "", require.Error},
		{"both empty", "", "", require.Error},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := service.ValidateCredentials(tt.email, tt.password)
			tt.errFn(t, err)
		})
	}
}

func TestValidateOTPCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		code  string
		errFn require.ErrorAssertionFunc
	}{
		{"six digits", "123456", require.NoError},
		{"leading zeros", "000123", require.NoError},
		{"five digits", "12345", require.Error},
		{"seven digits", "1234567", require.Error},
		{"letters", "abcdef", require.Error},
		{"digits with space", "12345 ", require.Error},
		{"unicode digits", "１２３４５６", require.Error},
		{"empty", "", require.Error},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := service.ValidateOTPCode(tt.code)
			tt.errFn(t, err)
		})
	}
}
