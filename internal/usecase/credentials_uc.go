// File: internal/usecase/credentials_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wallet-flows/internal/domain"
	"wallet-flows/internal/domain/model"
	"wallet-flows/internal/domain/ports/service"
	"wallet-flows/internal/infra/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// DefaultPollInterval is how often the wallet-identifier polling timer fires
// while waiting for the user to approve the login email.
const DefaultPollInterval = 2 * time.Second

// Effects runs a side effect off the dispatch path. Results re-enter the
// flow as method calls, so they are ordered behind whatever is mutating
// state at the time.
type Effects interface {
	Submit(task func(ctx context.Context) error) error
}

// AlertCopy is the user-facing copy the credentials flow puts into modal
// alerts. It comes from configuration; the SMS sent copy in particular is a
// placeholder pending final wording.
type AlertCopy struct {
	GenericErrorTitle   string
	GenericErrorMessage string
	EmailAuthTitle      string
	EmailAuthMessage    string
	SMSCodeSentTitle    string
	SMSCodeSentMessage  string
}

// CredentialsFlow orchestrates one wallet login attempt: password, email
// approval polling, SMS/Google/hardware-key second factors, account-lock
// detection, and the hand-off to wallet decryption. All state mutation
// happens under one mutex; asynchronous service results re-enter through
// the public methods and are serialized the same way.
type CredentialsFlow struct {
	mu    sync.Mutex
	state model.CredentialsState

	login        service.LoginService
	emailAuth    service.EmailAuthorizationService
	sessionToken service.SessionTokenService
	sms          service.SMSService
	deviceVerify service.DeviceVerificationService
	decrypter    service.WalletDecryptionLauncher
	attempts     *AttemptRecorder

	effects      Effects
	cancels      *canceler
	validate     *validator.Validate
	alerts       AlertCopy
	pollInterval time.Duration
	log          *zerolog.Logger
}

func NewCredentialsFlow(
	login service.LoginService,
	emailAuth service.EmailAuthorizationService,
	sessionToken service.SessionTokenService,
	sms service.SMSService,
	deviceVerify service.DeviceVerificationService,
	decrypter service.WalletDecryptionLauncher,
	attempts *AttemptRecorder,
	effects Effects,
	alertCopy AlertCopy,
	logger *zerolog.Logger,
) *CredentialsFlow {
	return &CredentialsFlow{
		login:        login,
		emailAuth:    emailAuth,
		sessionToken: sessionToken,
		sms:          sms,
		deviceVerify: deviceVerify,
		decrypter:    decrypter,
		attempts:     attempts,
		effects:      effects,
		cancels:      newCanceler(),
		validate:     validator.New(),
		alerts:       alertCopy,
		pollInterval: DefaultPollInterval,
		log:          logger,
	}
}

// SetPollInterval overrides the email-approval polling cadence.
func (f *CredentialsFlow) SetPollInterval(d time.Duration) {
	if d > 0 {
		f.pollInterval = d
	}
}

// State returns a snapshot of the login attempt. Sub-states are copied so
// callers can never alias the flow's own mutable state.
func (f *CredentialsFlow) State() model.CredentialsState {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.state
	if s.TwoFA != nil {
		twoFA := *s.TwoFA
		s.TwoFA = &twoFA
	}
	if s.HardwareKey != nil {
		hw := *s.HardwareKey
		s.HardwareKey = &hw
	}
	if s.Alert != nil {
		alert := *s.Alert
		s.Alert = &alert
	}
	return s
}

// DidAppear seeds a fresh login attempt from deep-link or polled wallet info
// and sets up the session token every login call depends on.
func (f *CredentialsFlow) DidAppear(ctx context.Context, info model.WalletInfo, manualPairing bool) {
	f.mu.Lock()
	f.state = model.NewCredentialsState()
	f.state.EmailAddress = info.Email
	f.state.WalletGUID = info.GUID
	f.state.EmailCode = info.EmailCode
	f.state.IsManualPairing = manualPairing
	f.mu.Unlock()

	f.submit(func(context.Context) error {
		if err := f.sessionToken.SetupSessionToken(ctx); err != nil {
			f.log.Error().Err(err).Msg("credentials: session token setup")
			f.showGenericAlert()
		}
		return nil
	})
}

// DidDisappear tears the attempt down: every keyed operation is cancelled
// and the state drops back to empty. Dispatching further actions before the
// next DidAppear is a wiring bug.
func (f *CredentialsFlow) DidDisappear() {
	f.cancels.CancelAll()
	f.attempts.Reset()
	f.mu.Lock()
	f.state = model.CredentialsState{}
	f.mu.Unlock()
}

// DidChangeWalletIdentifier records the typed identifier and flags malformed
// ones inline. Wallet GUIDs are UUIDs.
func (f *CredentialsFlow) DidChangeWalletIdentifier(guid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.WalletGUID = guid
	f.state.IsWalletIdentifierIncorrect = guid != "" && f.validate.Var(guid, "uuid") != nil
}

// SetPassword records the typed password and clears the incorrect flag.
func (f *CredentialsFlow) SetPassword(password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Password.Password = password
	f.state.Password.IsPasswordIncorrect = false
}

// SetTwoFACode records the typed one-time code.
func (f *CredentialsFlow) SetTwoFACode(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mustSubStatesLocked()
	f.state.TwoFA.Code = code
	f.state.TwoFA.IsCodeIncorrect = false
	f.state.TwoFA.IsCodeMissing = false
}

// SetHardwareKeyCode records the typed hardware-key code.
func (f *CredentialsFlow) SetHardwareKeyCode(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mustSubStatesLocked()
	f.state.HardwareKey.Code = code
	f.state.HardwareKey.IsCodeIncorrect = false
}

// ContinueTapped routes the continue button to whichever step the attempt
// is on.
func (f *CredentialsFlow) ContinueTapped(ctx context.Context) {
	f.mu.Lock()
	f.mustSubStatesLocked()
	verified := f.state.IsTwoFACodeOrHardwareKeyVerified
	secondFactorVisible := f.state.TwoFA.IsCodeFieldVisible || f.state.HardwareKey.IsCodeFieldVisible
	f.mu.Unlock()

	switch {
	case verified:
		f.requestDecryption()
	case secondFactorVisible:
		f.AuthenticateWithTwoFAOrHardwareKey(ctx)
	default:
		f.Authenticate(ctx)
	}
}

// Authenticate runs the first-leg login with the wallet identifier. Prior
// error flags are cleared, the polling timer stops, and any in-flight
// authentication is superseded.
func (f *CredentialsFlow) Authenticate(ctx context.Context) {
	f.mu.Lock()
	f.mustSubStatesLocked()
	if f.state.WalletGUID == "" {
		panic("credentials flow: authenticate with empty wallet identifier")
	}
	f.state.IsAccountLocked = false
	f.state.Password.IsPasswordIncorrect = false
	f.state.IsLoading = true
	guid := f.state.WalletGUID
	f.mu.Unlock()

	f.cancels.Cancel(cancelKeyPollingTimer)
	actx := f.cancels.Start(ctx, cancelKeyAuthentication)

	f.submit(func(context.Context) error {
		err := f.login.Login(actx, guid)
		if actx.Err() != nil {
			// Superseded by a newer attempt.
			return nil
		}
		if err == nil {
			f.attempts.RecordSuccess(actx, guid)
			f.requestDecryption()
			return nil
		}
		f.handleAuthenticateError(actx, guid, err)
		return nil
	})
}

func (f *CredentialsFlow) handleAuthenticateError(ctx context.Context, guid string, err error) {
	var loginErr *domain.LoginError
	if !errors.As(err, &loginErr) {
		f.log.Error().Err(err).Msg("credentials: authenticate")
		f.attempts.RecordFailure(ctx, guid, model.AttemptErrored, domain.TwoFANone)
		f.finishLoadingWithGenericAlert()
		return
	}

	switch loginErr.Kind {
	case domain.KindTwoFactorOTPRequired:
		f.mu.Lock()
		alreadyVisible := f.state.TwoFA.IsCodeFieldVisible || f.state.HardwareKey.IsCodeFieldVisible
		f.mu.Unlock()
		if alreadyVisible {
			// The user already typed a code; retry on the code path.
			f.AuthenticateWithTwoFAOrHardwareKey(ctx)
			return
		}
		f.handleOTPRequired(ctx, loginErr.TwoFA)

	case domain.KindWalletPayload:
		if loginErr.Payload.AccountLocked {
			f.attempts.RecordFailure(ctx, guid, model.AttemptAccountLocked, domain.TwoFANone)
			f.mu.Lock()
			f.state.IsAccountLocked = true
			f.state.IsLoading = false
			f.mu.Unlock()
			return
		}
		f.log.Error().Str("message", loginErr.Payload.Message).Msg("credentials: wallet payload failure")
		f.attempts.RecordFailure(ctx, guid, model.AttemptErrored, domain.TwoFANone)
		f.finishLoadingWithGenericAlert()

	default:
		panic(fmt.Sprintf("credentials flow: login returned %v on the identifier path", loginErr))
	}
}

func (f *CredentialsFlow) handleOTPRequired(ctx context.Context, twoFAType domain.TwoFAType) {
	metrics.IncTwoFARequired(string(twoFAType))
	switch twoFAType {
	case domain.TwoFAEmail:
		f.ApproveEmailAuthorization(ctx)
	case domain.TwoFASMS:
		f.RequestSMSCode(ctx)
	case domain.TwoFAGoogle:
		f.mu.Lock()
		f.mustSubStatesLocked()
		f.state.TwoFA.Type = domain.TwoFAGoogle
		f.state.TwoFA.IsCodeFieldVisible = true
		f.state.IsLoading = false
		f.mu.Unlock()
	case domain.TwoFAYubiKey, domain.TwoFAYubiKeyMtGox:
		f.mu.Lock()
		f.mustSubStatesLocked()
		f.state.HardwareKey.IsCodeFieldVisible = true
		f.state.IsLoading = false
		f.mu.Unlock()
	default:
		panic(fmt.Sprintf("credentials flow: unsupported two-factor type %q", twoFAType))
	}
}

// AuthenticateWithTwoFAOrHardwareKey runs the second-leg login with the
// typed one-time or hardware-key code.
func (f *CredentialsFlow) AuthenticateWithTwoFAOrHardwareKey(ctx context.Context) {
	f.mu.Lock()
	f.mustSubStatesLocked()
	if f.state.WalletGUID == "" {
		panic("credentials flow: two-factor authenticate with empty wallet identifier")
	}
	f.state.TwoFA.IsCodeIncorrect = false
	f.state.TwoFA.IsCodeMissing = false
	f.state.HardwareKey.IsCodeIncorrect = false
	f.state.IsLoading = true
	guid := f.state.WalletGUID
	twoFAType := f.state.TwoFA.Type
	code := f.state.TwoFA.Code
	if f.state.HardwareKey.IsCodeFieldVisible {
		code = f.state.HardwareKey.Code
	}
	f.mu.Unlock()

	actx := f.cancels.Start(ctx, cancelKeyAuthentication)

	f.submit(func(context.Context) error {
		err := f.login.LoginWithCode(actx, guid, code)
		if actx.Err() != nil {
			return nil
		}
		if err == nil {
			f.attempts.RecordSuccess(actx, guid)
			f.SetTwoFAOrHardwareKeyVerified(true)
			return nil
		}
		f.handleTwoFAError(actx, guid, twoFAType, err)
		return nil
	})
}

func (f *CredentialsFlow) handleTwoFAError(ctx context.Context, guid string, twoFAType domain.TwoFAType, err error) {
	var loginErr *domain.LoginError
	if !errors.As(err, &loginErr) {
		f.log.Error().Err(err).Msg("credentials: two-factor authenticate")
		f.attempts.RecordFailure(ctx, guid, model.AttemptErrored, twoFAType)
		f.finishLoadingWithGenericAlert()
		return
	}
	if loginErr.Kind != domain.KindTwoFAWallet {
		// Payload or OTP-required failures cannot happen once OTP was
		// already demanded.
		panic(fmt.Sprintf("credentials flow: login-with-code returned %v", loginErr))
	}

	walletErr := loginErr.TwoFAWallet
	switch {
	case walletErr.WrongCode:
		f.attempts.RecordFailure(ctx, guid, model.AttemptWrongCode, twoFAType)
		f.mu.Lock()
		f.mustSubStatesLocked()
		f.state.TwoFA.AttemptsLeft = walletErr.AttemptsLeft
		f.state.TwoFA.IsCodeIncorrect = true
		f.state.HardwareKey.IsCodeIncorrect = f.state.HardwareKey.IsCodeFieldVisible
		f.state.IsLoading = false
		f.mu.Unlock()
	case walletErr.AccountLocked:
		f.attempts.RecordFailure(ctx, guid, model.AttemptAccountLocked, twoFAType)
		f.mu.Lock()
		f.state.IsAccountLocked = true
		f.state.IsLoading = false
		f.mu.Unlock()
	case walletErr.MissingCode:
		f.mu.Lock()
		f.mustSubStatesLocked()
		f.state.TwoFA.IsCodeMissing = true
		f.state.IsLoading = false
		f.mu.Unlock()
	default:
		f.attempts.RecordFailure(ctx, guid, model.AttemptErrored, twoFAType)
		f.finishLoadingWithGenericAlert()
	}
}

// SetTwoFAOrHardwareKeyVerified records the second-factor outcome; a
// verified factor hides the code fields and moves straight to decryption
// with the already-entered password.
func (f *CredentialsFlow) SetTwoFAOrHardwareKeyVerified(verified bool) {
	f.mu.Lock()
	f.mustSubStatesLocked()
	f.state.IsTwoFACodeOrHardwareKeyVerified = verified
	if !verified {
		f.mu.Unlock()
		return
	}
	f.state.TwoFA.IsCodeFieldVisible = false
	f.state.TwoFA.IsCodeIncorrect = false
	f.state.HardwareKey.IsCodeFieldVisible = false
	f.state.HardwareKey.IsCodeIncorrect = false
	f.mu.Unlock()

	f.requestDecryption()
}

// ApproveEmailAuthorization waits for the user to approve the login email.
// With a deep-linked email code the approval is also requested optimistically;
// manual pairing (or a missing code) falls back to an informational alert
// plus polling alone.
func (f *CredentialsFlow) ApproveEmailAuthorization(ctx context.Context) {
	f.mu.Lock()
	emailCode := f.state.EmailCode
	optimistic := !f.state.IsManualPairing && emailCode != ""
	if !optimistic {
		f.state.Alert = &model.Alert{Title: f.alerts.EmailAuthTitle, Message: f.alerts.EmailAuthMessage}
	}
	f.mu.Unlock()

	f.startPolling(ctx)

	if optimistic {
		// Fire and forget: the user can still approve from their inbox.
		f.submit(func(context.Context) error {
			if err := f.deviceVerify.AuthorizeLogin(ctx, emailCode); err != nil {
				f.log.Warn().Err(err).Msg("credentials: optimistic email authorization")
			}
			return nil
		})
	}
}

// startPolling arms the 2-second wallet-identifier polling timer. A second
// call supersedes the first. Checks run under the caller's context, not the
// timer's: a successful check cancels the timer and must still be able to
// authenticate afterwards.
func (f *CredentialsFlow) startPolling(ctx context.Context) {
	tctx := f.cancels.Start(ctx, cancelKeyPollingTimer)
	go func() {
		ticker := time.NewTicker(f.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-tctx.Done():
				return
			case <-ticker.C:
				f.PollWalletIdentifier(ctx)
			}
		}
	}()
}

// PollWalletIdentifier runs one email-approval check, cancelling any check
// still in flight.
func (f *CredentialsFlow) PollWalletIdentifier(ctx context.Context) {
	rctx := f.cancels.Start(ctx, cancelKeyPollingRequest)
	f.submit(func(context.Context) error {
		err := f.emailAuth.AuthorizeEmail(rctx)
		switch {
		case rctx.Err() != nil:
			return nil
		case err == nil:
			f.cancels.Cancel(cancelKeyPollingTimer)
			f.Authenticate(ctx)
		case errors.Is(err, domain.ErrNotFound):
			// Approval still pending; keep polling.
		default:
			f.log.Warn().Err(err).Msg("credentials: email authorization poll")
		}
		return nil
	})
}

// RequestSMSCode asks for a fresh SMS one-time code, showing the code field
// and the resend button optimistically.
func (f *CredentialsFlow) RequestSMSCode(ctx context.Context) {
	f.mu.Lock()
	f.mustSubStatesLocked()
	f.state.TwoFA.Type = domain.TwoFASMS
	f.state.TwoFA.IsCodeFieldVisible = true
	f.state.TwoFA.IsResendSMSButtonVisible = true
	f.state.IsLoading = true
	f.mu.Unlock()

	f.submit(func(context.Context) error {
		err := f.sms.RequestCode(ctx)
		f.mu.Lock()
		f.state.IsLoading = false
		if err != nil {
			f.state.Alert = &model.Alert{Title: f.alerts.GenericErrorTitle, Message: f.alerts.GenericErrorMessage}
		} else {
			f.state.Alert = &model.Alert{Title: f.alerts.SMSCodeSentTitle, Message: f.alerts.SMSCodeSentMessage}
		}
		f.mu.Unlock()
		if err != nil {
			f.log.Error().Err(err).Msg("credentials: request sms code")
		}
		return nil
	})
}

// PasswordIncorrect reports a failed wallet decryption back into the flow.
// The whole second-factor progress is voided: the wrong password means the
// earlier verification belonged to a different credential set.
func (f *CredentialsFlow) PasswordIncorrect(ctx context.Context) {
	f.mu.Lock()
	f.mustSubStatesLocked()
	guid := f.state.WalletGUID
	f.state.Password.IsPasswordIncorrect = true
	f.state.IsTwoFACodeOrHardwareKeyVerified = false
	*f.state.TwoFA = model.TwoFAState{}
	*f.state.HardwareKey = model.HardwareKeyState{}
	f.state.IsLoading = false
	f.mu.Unlock()

	f.attempts.RecordFailure(ctx, guid, model.AttemptWrongPassword, domain.TwoFANone)
}

// ShowAccountLockedError toggles the persistent account-locked banner.
func (f *CredentialsFlow) ShowAccountLockedError(visible bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.IsAccountLocked = visible
}

// DismissAlert clears the modal alert after the user acknowledged it.
func (f *CredentialsFlow) DismissAlert() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Alert = nil
}

func (f *CredentialsFlow) requestDecryption() {
	f.mu.Lock()
	f.state.IsLoading = true
	password := f.state.Password.Password
	f.mu.Unlock()

	f.decrypter.DecryptWalletWithPassword(password)
}

func (f *CredentialsFlow) finishLoadingWithGenericAlert() {
	f.mu.Lock()
	f.state.IsLoading = false
	f.state.Alert = &model.Alert{Title: f.alerts.GenericErrorTitle, Message: f.alerts.GenericErrorMessage}
	f.mu.Unlock()
}

func (f *CredentialsFlow) showGenericAlert() {
	f.mu.Lock()
	f.state.Alert = &model.Alert{Title: f.alerts.GenericErrorTitle, Message: f.alerts.GenericErrorMessage}
	f.mu.Unlock()
}

// mustSubStatesLocked asserts the sub-states DidAppear guarantees. A nil
// sub-state means an action arrived outside the appear/disappear window.
func (f *CredentialsFlow) mustSubStatesLocked() {
	if f.state.TwoFA == nil || f.state.HardwareKey == nil {
		panic("credentials flow: sub-states are nil; the screen has not appeared")
	}
}

func (f *CredentialsFlow) submit(task func(ctx context.Context) error) {
	if err := f.effects.Submit(task); err != nil {
		f.log.Error().Err(err).Msg("credentials: submit effect")
	}
}
