package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entregasmx/entregas-cli/internal/clients/authapi"
	"github.com/entregasmx/entregas-cli/internal/entity"
	"github.com/entregasmx/entregas-cli/internal/service"
)

type fakeAPI struct {
	loginResp  *authapi.LoginResponse
	loginErr   error
	loginCalls int

	verifyResp  *authapi.LoginResponse
	verifyErr   error
	verifyCalls int

	lastVerifyUserID string
	lastVerifyCode   string

	emailErr   error
	emailCalls int
}

func (f *fakeAPI) Login(_ context.Context, _, _ string) (*authapi.LoginResponse, error) {
	f.loginCalls++
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) VerifySMS(_ context.Context, userID, code string) (*authapi.LoginResponse, error) {
	f.verifyCalls++
	f.lastVerifyUserID = userID
	f.lastVerifyCode = code

	return f.verifyResp, f.verifyErr
}

func (f *fakeAPI) VerifyEmail(_ context.Context, _ string) error {
	f.emailCalls++
	return f.emailErr
}

func (f *fakeAPI) ResendVerificationCode(_ context.Context, _ string) error {
	return entity.ErrNotImplemented
}

type commit struct {
	user  entity.User
	token string
}

type fakeStore struct {
	commits []commit
	err     error
}

func (s *fakeStore) Commit(_ context.Context, user entity.User, token string) error {
	s.commits = append(s.commits, commit{user: user, token: token})
	return s.err
}

func adminUser() *entity.User {
	return &entity.User{ID: "u-1", Email: "admin@example.com", Role: entity.RoleAdmin}
}

func TestLoginFlow_DirectLoginCommitsAndRedirects(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{loginResp: &authapi.LoginResponse{Token: "t", User: adminUser()}}
	store := &fakeStore{}
	flow := service.NewLoginFlow(api, store)

	require.NoError(t, flow.SubmitCredentials(context.Background(), "admin@example.com", "secret"))
	require.Equal(t, service.StepCommitted, flow.Step())
	require.Len(t, store.commits, 1)
	require.Equal(t, "t", store.commits[0].token)

	route, ok := flow.Acknowledge()
	require.True(t, ok)
	require.Equal(t, "/admin", route)

	// The redirect is released exactly once.
	_, ok = flow.Acknowledge()
	require.False(t, ok)
}

func TestLoginFlow_SecondFactorRequested(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{loginResp: &authapi.LoginResponse{UserID: "u-1"}}
	store := &fakeStore{}
	flow := service.NewLoginFlow(api, store)

	require.NoError(t, flow.SubmitCredentials(context.Background(), "a@b.com", "secret"))
	require.Equal(t, service.StepSecondFactor, flow.Step())
	require.Empty(t, store.commits)

	// The redirect is not available before the commit.
	_, ok := flow.Acknowledge()
	require.False(t, ok)
}

func TestLoginFlow_MissingFieldsRejectedLocally(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "secret"},
		{"empty password", "a@b.com", ""},
		{"both empty", "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := &fakeAPI{}
			flow := service.NewLoginFlow(api, &fakeStore{})

			err := flow.SubmitCredentials(context.Background(), tt.email, tt.password)
			require.ErrorIs(t, err, entity.ErrMissingCredentials)
			require.Zero(t, api.loginCalls)
			require.Equal(t, service.StepCredentials, flow.Step())
		})
	}
}

func TestLoginFlow_OTPLengthGate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		code        string
		wantCalls   int
		wantLocally error
	}{
		{"five digits", "12345", 0, entity.ErrInvalidCode},
		{"seven digits", "1234567", 0, entity.ErrInvalidCode},
		{"non digits", "abcdef", 0, entity.ErrInvalidCode},
		{"six digits", "123456", 1, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := &fakeAPI{
				loginResp:  &authapi.LoginResponse{UserID: "u-1"},
				verifyResp: &authapi.LoginResponse{Token: "t", User: adminUser()},
			}
			flow := service.NewLoginFlow(api, &fakeStore{})
			require.NoError(t, flow.SubmitCredentials(context.Background(), "a@b.com", "secret"))

			err := flow.SubmitSecondFactor(context.Background(), tt.code)
			if tt.wantLocally != nil {
				require.ErrorIs(t, err, tt.wantLocally)
			} else {
				require.NoError(t, err)
				require.Equal(t, "u-1", api.lastVerifyUserID)
				require.Equal(t, tt.code, api.lastVerifyCode)
			}

			require.Equal(t, tt.wantCalls, api.verifyCalls)
		})
	}
}

func TestLoginFlow_SecondFactorRejectionKeepsStep(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		loginResp: &authapi.LoginResponse{UserID: "u-1"},
		verifyErr: &entity.APIError{StatusCode: 401, Message: "Código expirado."},
	}
	store := &fakeStore{}
	flow := service.NewLoginFlow(api, store)
	require.NoError(t, flow.SubmitCredentials(context.Background(), "a@b.com", "secret"))

	err := flow.SubmitSecondFactor(context.Background(), "123456")
	require.Error(t, err)
	require.Equal(t, service.StepSecondFactor, flow.Step())
	require.Equal(t, "Código expirado.", flow.Err())
	require.Empty(t, store.commits)
}

func TestLoginFlow_GoBackResetsPendingState(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{loginResp: &authapi.LoginResponse{UserID: "u-1"}}
	flow := service.NewLoginFlow(api, &fakeStore{})
	require.NoError(t, flow.SubmitCredentials(context.Background(), "a@b.com", "secret"))

	// Leave an error behind so GoBack has something to clear.
	_ = flow.SubmitSecondFactor(context.Background(), "12")
	require.NotEmpty(t, flow.Err())

	flow.GoBack()
	require.Equal(t, service.StepCredentials, flow.Step())
	require.Empty(t, flow.Err())

	// The pending id is gone: the second-factor step no longer accepts codes.
	err := flow.SubmitSecondFactor(context.Background(), "123456")
	require.ErrorIs(t, err, entity.ErrNoPendingSecondFactor)
}

func TestLoginFlow_ServerRejectionSurfacesMessage(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{loginErr: &entity.APIError{StatusCode: 401, Message: "Credenciales incorrectas."}}
	store := &fakeStore{}
	flow := service.NewLoginFlow(api, store)

	err := flow.SubmitCredentials(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	require.Equal(t, service.StepCredentials, flow.Step())
	require.Equal(t, "Credenciales incorrectas.", flow.Err())
	require.Empty(t, store.commits)
}

func TestLoginFlow_ProtocolErrorIsReported(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{loginErr: entity.ErrUnexpectedResponse}
	flow := service.NewLoginFlow(api, &fakeStore{})

	err := flow.SubmitCredentials(context.Background(), "a@b.com", "secret")
	require.ErrorIs(t, err, entity.ErrUnexpectedResponse)
	require.NotEmpty(t, flow.Err())
	require.Equal(t, service.StepCredentials, flow.Step())
}

func TestLoginFlow_CommitStorageFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{loginResp: &authapi.LoginResponse{Token: "t", User: adminUser()}}
	store := &fakeStore{err: context.DeadlineExceeded}
	flow := service.NewLoginFlow(api, store)

	require.NoError(t, flow.SubmitCredentials(context.Background(), "a@b.com", "secret"))
	require.Equal(t, service.StepCommitted, flow.Step())
	require.NotEmpty(t, flow.CommitWarning())

	route, ok := flow.Acknowledge()
	require.True(t, ok)
	require.Equal(t, "/admin", route)
}
