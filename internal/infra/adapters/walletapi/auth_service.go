// File: internal/infra/adapters/walletapi/auth_service.go
package walletapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"wallet-flows/internal/domain"
	"wallet-flows/internal/domain/ports/service"
)

var (
	_ service.LoginService              = (*AuthService)(nil)
	_ service.EmailAuthorizationService = (*AuthService)(nil)
	_ service.SessionTokenService       = (*AuthService)(nil)
	_ service.SMSService                = (*AuthService)(nil)
	_ service.DeviceVerificationService = (*AuthService)(nil)
)

// AuthService implements every auth-facing collaborator port against the
// wallet backend. The endpoints share a session token, so one adapter backs
// all of them.
type AuthService struct {
	c   *Client
	log *zerolog.Logger

	mu           sync.Mutex
	sessionToken string
}

func NewAuthService(client *Client, logger *zerolog.Logger) *AuthService {
	return &AuthService{c: client, log: logger}
}

type sessionTokenResponse struct {
	Token string `json:"token"`
}

func (a *AuthService) SetupSessionToken(ctx context.Context) error {
	var resp sessionTokenResponse
	if err := a.c.postJSON(ctx, "/wallet/sessions", nil, &resp); err != nil {
		return fmt.Errorf("failed to set up session token: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("failed to set up session token: empty token in response")
	}
	a.mu.Lock()
	a.sessionToken = resp.Token
	a.mu.Unlock()
	return nil
}

func (a *AuthService) session() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessionToken
}

type loginRequest struct {
	WalletIdentifier string `json:"wallet_identifier"`
	SessionToken     string `json:"session_token"`
	Code             string `json:"code,omitempty"`
}

// authErrorBody is the error envelope the login endpoints answer 4xx with.
type authErrorBody struct {
	Error         string `json:"error"`
	TwoFAType     string `json:"two_fa_type,omitempty"`
	AttemptsLeft  int    `json:"attempts_left,omitempty"`
	AccountLocked bool   `json:"account_locked,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Login authenticates with the wallet identifier alone. OTP demands and
// payload failures come back as *domain.LoginError.
func (a *AuthService) Login(ctx context.Context, walletIdentifier string) error {
	req := loginRequest{WalletIdentifier: walletIdentifier, SessionToken: a.session()}
	err := a.c.postJSON(ctx, "/wallet/login", req, nil)
	if err == nil {
		return nil
	}
	return mapLoginError(err, false)
}

// LoginWithCode authenticates with a second-factor code. All failures on
// this path surface as KindTwoFAWallet.
func (a *AuthService) LoginWithCode(ctx context.Context, walletIdentifier, code string) error {
	req := loginRequest{WalletIdentifier: walletIdentifier, SessionToken: a.session(), Code: code}
	err := a.c.postJSON(ctx, "/wallet/login", req, nil)
	if err == nil {
		return nil
	}
	return mapLoginError(err, true)
}

// mapLoginError turns wire-level failures into the domain login taxonomy.
// withCode selects the KindTwoFAWallet surface the code-carrying call is
// contracted to produce.
func mapLoginError(err error, withCode bool) error {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		if withCode {
			return domain.NewTwoFAWalletError(&domain.TwoFAWalletError{Message: err.Error()})
		}
		return domain.NewPayloadError(&domain.PayloadError{Message: err.Error()})
	}

	var body authErrorBody
	if jsonErr := json.Unmarshal(apiErr.Body, &body); jsonErr != nil {
		body.Message = string(apiErr.Body)
	}

	if withCode {
		walletErr := &domain.TwoFAWalletError{
			AccountLocked: body.AccountLocked,
			Message:       body.Message,
		}
		switch body.Error {
		case "wrong_code":
			walletErr.WrongCode = true
			walletErr.AttemptsLeft = body.AttemptsLeft
		case "missing_code":
			walletErr.MissingCode = true
		}
		return domain.NewTwoFAWalletError(walletErr)
	}

	if body.Error == "otp_required" {
		return domain.NewOTPRequiredError(parseTwoFAType(body.TwoFAType))
	}
	return domain.NewPayloadError(&domain.PayloadError{
		AccountLocked: body.AccountLocked,
		Message:       body.Message,
	})
}

func parseTwoFAType(s string) domain.TwoFAType {
	switch domain.TwoFAType(s) {
	case domain.TwoFAEmail, domain.TwoFASMS, domain.TwoFAGoogle,
		domain.TwoFAYubiKey, domain.TwoFAYubiKeyMtGox:
		return domain.TwoFAType(s)
	}
	return domain.TwoFANone
}

// AuthorizeEmail asks whether the wallet GUID became available after the
// user approved the login email. 404 means still pending and maps to
// domain.ErrNotFound so the poller keeps going.
func (a *AuthService) AuthorizeEmail(ctx context.Context) error {
	err := a.c.postJSON(ctx, "/wallet/email-authorization/poll",
		struct {
			SessionToken string `json:"session_token"`
		}{SessionToken: a.session()}, nil)
	if err == nil {
		return nil
	}
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return fmt.Errorf("failed to poll email authorization: %w", err)
}

// RequestCode asks the backend to send a fresh SMS one-time code.
func (a *AuthService) RequestCode(ctx context.Context) error {
	err := a.c.postJSON(ctx, "/wallet/sms/resend",
		struct {
			SessionToken string `json:"session_token"`
		}{SessionToken: a.session()}, nil)
	if err != nil {
		return fmt.Errorf("failed to request sms code: %w", err)
	}
	return nil
}

// AuthorizeLogin approves a login with the email code carried by the deep
// link. Fire and forget from the caller's point of view.
func (a *AuthService) AuthorizeLogin(ctx context.Context, emailCode string) error {
	err := a.c.postJSON(ctx, "/wallet/email-authorization/approve",
		struct {
			SessionToken string `json:"session_token"`
			EmailCode    string `json:"email_code"`
		}{SessionToken: a.session(), EmailCode: emailCode}, nil)
	if err != nil {
		return fmt.Errorf("failed to authorize login: %w", err)
	}
	return nil
}
