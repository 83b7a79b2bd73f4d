package service

import (
	"regexp"

	"github.com/entregasmx/entregas-cli/internal/entity"
)

const OTPCodeLength = 6

var otpCodeRegexp = regexp.MustCompile(`^[0-9]{6}$`)

// ValidateCredentials only checks presence. Format and correctness are the
// backend's call; the web client never validated more than this either.
func ValidateCredentials(email, password string) error {
	if email == "" || password == "" {
		return entity.ErrMissingCredentials
	}

	return nil
}

// ValidateOTPCode accepts exactly six ASCII digits.
func ValidateOTPCode(code string) error {
	if !otpCodeRegexp.MatchString(code) {
		return entity.ErrInvalidCode
	}

	return nil
}
