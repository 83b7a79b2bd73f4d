package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/entregasmx/entregas-cli/internal/clients/authapi"
	"github.com/entregasmx/entregas-cli/internal/entity"
)

// loginRoute is where both verification outcomes send the user next.
const loginRoute = "/login"

type VerifyOutcome int

const (
	// OutcomeVerified means the code was accepted just now.
	OutcomeVerified VerifyOutcome = iota
	// OutcomeAlreadyVerified means the account had been verified before;
	// still a navigable success, not an error.
	OutcomeAlreadyVerified
)

type VerifyResult struct {
	Outcome    VerifyOutcome
	NavigateTo string
}

// VerifyFlow confirms an account with the emailed 6-digit code. It is
// independent of the session store: verification happens before any login.
type VerifyFlow struct {
	api     authapi.ClientInterface
	lastErr string
}

func NewVerifyFlow(api authapi.ClientInterface) *VerifyFlow {
	return &VerifyFlow{api: api}
}

// Submit checks the code with the backend. The server reporting "already
// verified" counts as success; every other error is surfaced and the flow
// stays put.
func (f *VerifyFlow) Submit(ctx context.Context, code string) (VerifyResult, error) {
	if err := ValidateOTPCode(code); err != nil {
		f.lastErr = err.Error()
		return VerifyResult{}, err
	}

	f.lastErr = ""

	err := f.api.VerifyEmail(ctx, code)
	if errors.Is(err, entity.ErrAlreadyVerified) {
		slog.InfoContext(ctx, "account already verified")
		return VerifyResult{Outcome: OutcomeAlreadyVerified, NavigateTo: loginRoute}, nil
	}
	if err != nil {
		f.lastErr = displayMessage(err, "Ocurrió un error al verificar el código. Por favor, intenta de nuevo.")
		return VerifyResult{}, err
	}

	slog.InfoContext(ctx, "email verified")

	return VerifyResult{Outcome: OutcomeVerified, NavigateTo: loginRoute}, nil
}

// ResendCode forwards to the API client's resend stub. There is no backend
// endpoint yet, so this currently always returns entity.ErrNotImplemented.
func (f *VerifyFlow) ResendCode(ctx context.Context, email string) error {
	return f.api.ResendVerificationCode(ctx, email)
}

// Err is the message for the last failed submit, empty after a success.
func (f *VerifyFlow) Err() string { return f.lastErr }
