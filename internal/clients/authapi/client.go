package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/entregasmx/entregas-cli/internal/entity"
	"github.com/entregasmx/entregas-cli/pkg/config"
	"github.com/entregasmx/entregas-cli/pkg/logger"
)

const defaultRetryWaitMax = time.Second * 5

// AlreadyVerifiedMessage is the exact error text the backend returns when a
// verification code is submitted for an account that already completed
// verification. It is the only error treated as a success-adjacent outcome.
const AlreadyVerifiedMessage = "La cuenta ya está verificada. Inicia sesión para continuar."

type ClientInterface interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	VerifySMS(ctx context.Context, userID, code string) (*LoginResponse, error)
	VerifyEmail(ctx context.Context, code string) error
	ResendVerificationCode(ctx context.Context, email string) error
}

type Client struct {
	client  *http.Client
	baseURL string
}

var _ ClientInterface = (*Client)(nil)

func NewClient(cfg config.Config) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.AuthAPI.RetryAttempts
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = defaultRetryWaitMax
	retryClient.HTTPClient.Timeout = cfg.AuthAPI.Timeout

	retryClient.Logger = nil

	// Retry transport failures only. An HTTP error status is a final answer:
	// replaying a login or an OTP check would burn attempts server-side.
	retryClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if err != nil {
			return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		}

		return false, nil
	}

	return &Client{
		client:  retryClient.StandardClient(),
		baseURL: strings.TrimRight(cfg.AuthAPI.BaseURL, "/"),
	}
}

type loginRequest struct {
	Correo   string `json:"correo"`
	Password string `json:"password"`
}

type verifySMSRequest struct {
	UserID  string `json:"userId"`
	OTPCode string `json:"otpCode"`
}

// LoginResponse covers both shapes /api/login can answer with: a finished
// login carrying Token+User, or a pending second factor carrying only UserID.
type LoginResponse struct {
	Token  string       `json:"token"`
	User   *entity.User `json:"user"`
	UserID string       `json:"userId"`
}

// SecondFactorRequired reports whether the server withheld the token and
// expects an SMS code for the returned UserID instead.
func (r *LoginResponse) SecondFactorRequired() bool {
	return r.Token == "" && r.UserID != ""
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	resp, err := c.postJSON(ctx, "/api/login", loginRequest{Correo: email, Password: password},
		"Error al iniciar sesión.")
	if err != nil {
		return nil, err
	}

	if resp.Token == "" && resp.UserID == "" {
		return nil, entity.ErrUnexpectedResponse
	}

	if resp.Token != "" && resp.User == nil {
		return nil, entity.ErrUnexpectedResponse
	}

	return resp, nil
}

func (c *Client) VerifySMS(ctx context.Context, userID, code string) (*LoginResponse, error) {
	resp, err := c.postJSON(ctx, "/api/login/verify-sms", verifySMSRequest{UserID: userID, OTPCode: code},
		"Código OTP inválido.")
	if err != nil {
		return nil, err
	}

	if resp.Token == "" || resp.User == nil {
		return nil, entity.ErrUnexpectedResponse
	}

	return resp, nil
}

// VerifyEmail confirms an account with the 6-digit code the backend mailed
// out. The code travels in the request path. A 2xx answer needs no body; the
// "already verified" error text maps to entity.ErrAlreadyVerified.
func (c *Client) VerifyEmail(ctx context.Context, code string) error {
	url := c.baseURL + "/api/registro/verify/" + code

	reqID := newRequestID()
	ctx = logger.SetRequestID(ctx, reqID)
	slog.DebugContext(ctx, "auth api request", "method", http.MethodGet, "path", "/api/registro/verify/{code}")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-Request-Id", reqID)

	resp, err := c.client.Do(req)
	if err != nil {
		if isUnavailable(err) {
			return entity.ErrServiceUnavailable
		}
		return fmt.Errorf("send request: %w", err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	msg := parseErrorBody(body, "Ocurrió un error al verificar el código. Por favor, intenta de nuevo.")
	if msg == AlreadyVerifiedMessage {
		return entity.ErrAlreadyVerified
	}

	return &entity.APIError{StatusCode: resp.StatusCode, Message: msg}
}

// ResendVerificationCode has no backend endpoint yet. The method exists so
// the presentation layer can wire the button; it must not fake success.
func (c *Client) ResendVerificationCode(_ context.Context, _ string) error {
	return entity.ErrNotImplemented
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, fallbackMsg string) (*LoginResponse, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request in JSON: %w", err)
	}

	reqID := newRequestID()
	ctx = logger.SetRequestID(ctx, reqID)
	slog.DebugContext(ctx, "auth api request", "method", http.MethodPost, "path", path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)

	resp, err := c.client.Do(req)
	if err != nil {
		if isUnavailable(err) {
			return nil, entity.ErrServiceUnavailable
		}
		return nil, fmt.Errorf("send request: %w", err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &entity.APIError{
			StatusCode: resp.StatusCode,
			Message:    parseErrorBody(body, fallbackMsg),
		}
	}

	var data LoginResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &data, nil
}

func parseErrorBody(body []byte, fallback string) string {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fallback
	}

	return errResp.Error
}

func isUnavailable(err error) bool {
	return strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "connection refused")
}

func newRequestID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Sprintf("%032x", time.Now().UnixNano())
	}

	return id.String()
}
