package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/entregasmx/entregas-cli/internal/clients/authapi"
	"github.com/entregasmx/entregas-cli/internal/entity"
)

// Step is the login flow's current state.
type Step int

const (
	// StepCredentials collects email and password.
	StepCredentials Step = iota
	// StepSecondFactor waits for the SMS code the server requested.
	StepSecondFactor
	// StepCommitted means the session is stored; the redirect route is
	// released through Acknowledge.
	StepCommitted
)

// SessionStore is the single mutation the flow performs on success.
type SessionStore interface {
	Commit(ctx context.Context, user entity.User, token string) error
}

// LoginFlow drives the two-step login: credentials first, then an SMS
// one-time code when the server asks for one. A successful submit commits
// the session exactly once; failed or rejected submits leave the store
// untouched and keep the flow on its current step.
//
// A flow instance is not safe for concurrent use. The presentation layer
// must not start a second submission while one is in flight (it disables
// input instead); the flow does not serialize requests itself.
type LoginFlow struct {
	api   authapi.ClientInterface
	store SessionStore

	step          Step
	pendingUserID string
	route         string
	acked         bool
	lastErr       string
	commitWarn    string
}

func NewLoginFlow(api authapi.ClientInterface, store SessionStore) *LoginFlow {
	return &LoginFlow{api: api, store: store}
}

// SubmitCredentials sends the login request. Empty fields fail locally
// without a network call. Depending on the answer the flow either commits
// directly or moves to the second-factor step.
func (f *LoginFlow) SubmitCredentials(ctx context.Context, email, password string) error {
	if f.step != StepCredentials {
		return entity.ErrNoPendingSecondFactor
	}

	if err := ValidateCredentials(email, password); err != nil {
		f.lastErr = err.Error()
		return err
	}

	f.lastErr = ""

	resp, err := f.api.Login(ctx, email, password)
	if err != nil {
		f.lastErr = displayMessage(err, "Error al iniciar sesión.")
		return err
	}

	if resp.SecondFactorRequired() {
		f.pendingUserID = resp.UserID
		f.step = StepSecondFactor

		slog.InfoContext(ctx, "second factor requested", "user_id", resp.UserID)

		return nil
	}

	f.commit(ctx, resp)

	return nil
}

// SubmitSecondFactor sends the 6-digit SMS code for the pending user. A code
// that is not exactly six digits fails locally. On rejection the flow stays
// on this step so the user can retry.
func (f *LoginFlow) SubmitSecondFactor(ctx context.Context, code string) error {
	if f.step != StepSecondFactor {
		return entity.ErrNoPendingSecondFactor
	}

	if err := ValidateOTPCode(code); err != nil {
		f.lastErr = err.Error()
		return err
	}

	f.lastErr = ""

	resp, err := f.api.VerifySMS(ctx, f.pendingUserID, code)
	if err != nil {
		f.lastErr = displayMessage(err, "Código OTP inválido.")
		return err
	}

	f.commit(ctx, resp)

	return nil
}

// GoBack returns from the second-factor step to credential entry, discarding
// the pending user id and any error. It does nothing on other steps.
func (f *LoginFlow) GoBack() {
	if f.step != StepSecondFactor {
		return
	}

	f.step = StepCredentials
	f.pendingUserID = ""
	f.lastErr = ""
}

// Acknowledge releases the role-derived redirect route once, and only after
// the session commit happened. The presentation layer calls it when the
// user dismisses the success notice, which decouples navigation from any
// particular widget.
func (f *LoginFlow) Acknowledge() (string, bool) {
	if f.step != StepCommitted || f.acked {
		return "", false
	}

	f.acked = true

	return f.route, true
}

func (f *LoginFlow) Step() Step { return f.step }

// Err is the message to show for the last failed submit, empty when the
// last submit succeeded.
func (f *LoginFlow) Err() string { return f.lastErr }

// CommitWarning is non-empty when the session was established but could not
// be persisted; the session only lasts until the process exits.
func (f *LoginFlow) CommitWarning() string { return f.commitWarn }

func (f *LoginFlow) commit(ctx context.Context, resp *authapi.LoginResponse) {
	if err := f.store.Commit(ctx, *resp.User, resp.Token); err != nil {
		// Non-fatal: the in-memory session is live, only durability is lost.
		slog.WarnContext(ctx, "session not persisted", "error", err, "user_id", resp.User.ID)
		f.commitWarn = "La sesión no se pudo guardar; tendrás que iniciar sesión de nuevo la próxima vez."
	}

	f.step = StepCommitted
	f.pendingUserID = ""
	f.route = resp.User.Role.Route()

	slog.InfoContext(ctx, "login committed", "user_id", resp.User.ID, "role", resp.User.Role)
}

// displayMessage picks what the user should see: the backend's {error} text
// when there is one, a generic fallback otherwise.
func displayMessage(err error, fallback string) string {
	var apiErr *entity.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	if errors.Is(err, entity.ErrServiceUnavailable) {
		return "El servicio no está disponible. Intenta más tarde."
	}

	return fallback
}
