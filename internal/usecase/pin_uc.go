// File: internal/usecase/pin_uc.go
package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wallet-flows/internal/domain"
	"wallet-flows/internal/domain/model"
	"wallet-flows/internal/domain/ports/service"
	"wallet-flows/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PinUseCase selects which journey the PIN screen is serving.
type PinUseCase int

const (
	// PinUseCaseCreate - pick a brand new PIN (two entries).
	PinUseCaseCreate PinUseCase = iota + 1
	// PinUseCaseChange - replace the existing PIN (two entries, must differ
	// from the old one).
	PinUseCaseChange
	// PinUseCaseAuthenticateOnLogin - unlock the wallet.
	PinUseCaseAuthenticateOnLogin
	// PinUseCaseAuthenticateBeforeChanging - verify the old PIN before a
	// change.
	PinUseCaseAuthenticateBeforeChanging
	// PinUseCaseAuthenticateBeforeEnablingBiometrics - verify before turning
	// biometric unlock on.
	PinUseCaseAuthenticateBeforeEnablingBiometrics
)

// IsAuthenticate reports whether the use case verifies an existing PIN
// rather than capturing a new one.
func (u PinUseCase) IsAuthenticate() bool {
	switch u {
	case PinUseCaseAuthenticateOnLogin,
		PinUseCaseAuthenticateBeforeChanging,
		PinUseCaseAuthenticateBeforeEnablingBiometrics:
		return true
	}
	return false
}

// PinPresenter owns PIN value capture, the lockout countdown, and the
// biometric-unlock shortcut. Completed PINs are emitted exactly once per
// entry on the Pins channel; forced logouts on the Logouts channel.
type PinPresenter struct {
	mu         sync.Mutex
	useCase    PinUseCase
	buffer     string
	emitted    bool
	firstEntry model.Pin
	padEnabled bool

	lockCancel context.CancelFunc

	pins    chan model.Pin
	ticks   chan int
	logouts chan struct{}

	interactor   service.PinInteractor
	biometry     service.BiometryProvider
	settings     service.AppSettings
	credStore    service.CredentialsStore
	reachability service.Reachability
	attempts     *AttemptRecorder

	tickInterval time.Duration
	log          *zerolog.Logger
}

func NewPinPresenter(
	useCase PinUseCase,
	interactor service.PinInteractor,
	biometry service.BiometryProvider,
	settings service.AppSettings,
	credStore service.CredentialsStore,
	reachability service.Reachability,
	attempts *AttemptRecorder,
	logger *zerolog.Logger,
) *PinPresenter {
	return &PinPresenter{
		useCase:      useCase,
		padEnabled:   true,
		pins:         make(chan model.Pin, 4),
		ticks:        make(chan int, 64),
		logouts:      make(chan struct{}, 1),
		interactor:   interactor,
		biometry:     biometry,
		settings:     settings,
		credStore:    credStore,
		reachability: reachability,
		attempts:     attempts,
		tickInterval: time.Second,
		log:          logger,
	}
}

// SetTickInterval overrides the one-second lockout tick cadence.
func (p *PinPresenter) SetTickInterval(d time.Duration) {
	if d > 0 {
		p.tickInterval = d
	}
}

// Pins streams each completed PIN entry, once per entry.
func (p *PinPresenter) Pins() <-chan model.Pin { return p.pins }

// LockTicks streams the per-second countdown values down to zero.
func (p *PinPresenter) LockTicks() <-chan int { return p.ticks }

// Logouts fires when the attempt budget forces the user out.
func (p *PinPresenter) Logouts() <-chan struct{} { return p.logouts }

// IsDigitPadEnabled reports whether digits are currently accepted. The pad
// is disabled exactly while a lockout countdown is above zero.
func (p *PinPresenter) IsDigitPadEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.padEnabled
}

// Append adds one digit to the buffer. The fill is bounded: digits past the
// PIN length are ignored, as is input while the pad is disabled.
func (p *PinPresenter) Append(digit rune) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.padEnabled || digit < '0' || digit > '9' || len(p.buffer) >= model.PinLength {
		return
	}
	p.buffer += string(digit)
	p.emitIfCompleteLocked()
}

// Erase removes the last digit.
func (p *PinPresenter) Erase() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buffer) > 0 {
		p.buffer = p.buffer[:len(p.buffer)-1]
		p.emitted = false
	}
}

// Reset replaces the buffer wholesale. Resetting to a complete PIN re-emits
// it through the normal completion path, which is how biometric unlock
// replays the stored PIN without a second code path.
func (p *PinPresenter) Reset(pin model.Pin) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffer = pin.String()
	p.emitted = false
	p.emitIfCompleteLocked()
}

func (p *PinPresenter) resetBufferLocked() {
	p.buffer = ""
	p.emitted = false
}

func (p *PinPresenter) emitIfCompleteLocked() {
	if p.emitted || len(p.buffer) != model.PinLength {
		return
	}
	p.emitted = true
	select {
	case p.pins <- model.NewPin(p.buffer):
	default:
		p.log.Warn().Msg("pin: dropping completed entry for slow consumer")
	}
}

// AuthenticateUsingBiometricsIfNeeded runs the biometric shortcut: only on
// authenticate use cases, only with a configured authenticator, and only
// when a PIN was stored for replay.
func (p *PinPresenter) AuthenticateUsingBiometricsIfNeeded(ctx context.Context) {
	if !p.useCase.IsAuthenticate() {
		return
	}
	if p.biometry.ConfiguredType() == service.BiometryNone {
		return
	}
	stored, ok := p.settings.Pin()
	if !ok {
		p.log.Error().Msg("pin: biometrics configured but no pin stored for replay")
		return
	}
	if err := p.biometry.Authenticate(ctx, "Unlock your wallet"); err != nil {
		p.log.Debug().Err(err).Msg("pin: biometric challenge failed")
		return
	}
	p.Reset(stored)
}

// RemainingLockTimeDidChange arms the lockout countdown with the
// server-supplied remaining seconds. A fresh value supersedes any countdown
// already running. The pad stays disabled until the countdown hits zero.
func (p *PinPresenter) RemainingLockTimeDidChange(ctx context.Context, remaining int) {
	p.mu.Lock()
	if p.lockCancel != nil {
		p.lockCancel()
		p.lockCancel = nil
	}
	if remaining <= 0 {
		p.padEnabled = true
		p.mu.Unlock()
		return
	}
	metrics.IncLockoutArmed()
	p.padEnabled = false
	cctx, cancel := context.WithCancel(ctx)
	p.lockCancel = cancel
	interval := p.tickInterval
	p.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for value := remaining - 1; value >= 0; value-- {
			select {
			case <-cctx.Done():
				return
			case <-ticker.C:
			}
			p.mu.Lock()
			p.padEnabled = value == 0
			p.mu.Unlock()
			select {
			case p.ticks <- value:
			default:
			}
		}
	}()
}

// FormatRemainingLockTime renders the remaining lockout as a short duration
// string, switching precision with magnitude. Zero renders as nothing.
func FormatRemainingLockTime(seconds int) string {
	switch {
	case seconds <= 0:
		return ""
	case seconds <= 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds <= 3600:
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%dh %dm %ds", seconds/3600, (seconds%3600)/60, seconds%60)
	}
}

// ValidateFirstEntry checks the first entry of a create/change flow: well
// formed, and for a change different from the PIN being replaced. A valid
// entry is parked for the confirmation step.
func (p *PinPresenter) ValidateFirstEntry() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pin := model.NewPin(p.buffer)
	if !pin.IsValid() {
		p.resetBufferLocked()
		return &domain.PinError{Kind: domain.KindInvalidPin}
	}
	if p.useCase == PinUseCaseChange {
		if previous, ok := p.settings.Pin(); ok && previous == pin {
			p.resetBufferLocked()
			return &domain.PinError{Kind: domain.KindIdenticalToPrevious}
		}
	}
	p.firstEntry = pin
	p.resetBufferLocked()
	return nil
}

// ValidateSecondEntry checks the confirmation entry against the first and,
// on match, creates the PIN remotely and persists it for biometric replay.
// A mismatch carries a recovery that rewinds to the first-entry step.
func (p *PinPresenter) ValidateSecondEntry(ctx context.Context) error {
	p.mu.Lock()
	pin := model.NewPin(p.buffer)
	first := p.firstEntry
	p.mu.Unlock()

	if pin != first {
		return &domain.PinError{
			Kind: domain.KindPinMismatch,
			Recovery: func() {
				p.mu.Lock()
				p.firstEntry = ""
				p.resetBufferLocked()
				p.mu.Unlock()
			},
		}
	}

	payload := model.PinPayload{
		PinCode:         pin.String(),
		PinKey:          uuid.NewString(),
		PersistsLocally: p.useCase == PinUseCaseChange,
	}
	if err := p.interactor.Create(ctx, payload); err != nil {
		return p.handlePinError(ctx, err)
	}
	p.settings.SetPin(pin)
	p.interactor.Persist(pin)
	return nil
}

// VerifyPinBeforeChanging authenticates the current PIN as the gate into
// the change flow.
func (p *PinPresenter) VerifyPinBeforeChanging(ctx context.Context) error {
	_, err := p.verify(ctx, false)
	return err
}

// AuthenticatePin verifies the entered PIN and returns the decrypted wallet
// password. On the login use case the credentials are also backed up with
// the PIN decryption key.
func (p *PinPresenter) AuthenticatePin(ctx context.Context) (string, error) {
	key, err := p.verify(ctx, true)
	if err != nil {
		return "", err
	}

	if p.useCase == PinUseCaseAuthenticateOnLogin {
		if err := p.credStore.Backup(ctx, key); err != nil {
			p.log.Warn().Err(err).Msg("pin: credentials backup")
		}
	}
	password, err := p.interactor.Password(ctx, key)
	if err != nil {
		return "", p.handlePinError(ctx, err)
	}
	return password, nil
}

// verify runs the remote PIN validation after the reachability pre-check
// and returns the PIN decryption key.
func (p *PinPresenter) verify(ctx context.Context, persistLocally bool) (string, error) {
	if !p.reachability.HasInternetConnection() {
		return "", &domain.PinError{
			Kind: domain.KindNoInternetConnection,
			Recovery: func() {
				if _, err := p.verify(ctx, persistLocally); err != nil {
					p.log.Debug().Err(err).Msg("pin: recovery retry failed")
				}
			},
		}
	}

	pinKey, ok := p.settings.PinKey()
	if !ok || pinKey == "" {
		return "", &domain.PinError{Kind: domain.KindNullifiedPinKey}
	}

	p.mu.Lock()
	pin := model.NewPin(p.buffer)
	p.mu.Unlock()

	key, err := p.interactor.Validate(ctx, model.PinPayload{
		PinCode:         pin.String(),
		PinKey:          pinKey,
		PersistsLocally: persistLocally,
	})
	if err != nil {
		return "", p.handlePinError(ctx, err)
	}
	p.attempts.Reset()
	p.settings.SetPin(pin)
	p.interactor.Persist(pin)
	return key, nil
}

// handlePinError applies the side effects a PIN failure demands before the
// error is surfaced: countdown arming, attempt accounting, forced logout.
func (p *PinPresenter) handlePinError(ctx context.Context, err error) error {
	pinErr, ok := err.(*domain.PinError)
	if !ok {
		return &domain.PinError{Kind: domain.KindServerError, Message: err.Error()}
	}

	switch pinErr.Kind {
	case domain.KindTooManyAttempts:
		p.Logout(ctx)
	case domain.KindIncorrectPin, domain.KindBackoff:
		p.RemainingLockTimeDidChange(ctx, pinErr.RemainingLockSeconds)
		if _, forceLogout := p.attempts.RecordFailure(ctx, "", model.AttemptWrongPassword, domain.TwoFANone); forceLogout {
			p.Logout(ctx)
		}
	case domain.KindReceivedResponseWhileLoggedOut:
		// Stale response after logout; nothing to do.
	}
	return pinErr
}

// Logout erases the cloud credential backup and signals the forced logout.
func (p *PinPresenter) Logout(ctx context.Context) {
	if err := p.credStore.Erase(ctx); err != nil {
		p.log.Warn().Err(err).Msg("pin: erase credentials on logout")
	}
	select {
	case p.logouts <- struct{}{}:
	default:
	}
}
