package domain

import "fmt"

// TwoFAType enumerates the second-factor kinds the login service may demand.
type TwoFAType string

const (
	TwoFANone         TwoFAType = "none"
	TwoFAEmail        TwoFAType = "email"
	TwoFASMS          TwoFAType = "sms"
	TwoFAGoogle       TwoFAType = "google"
	TwoFAYubiKey      TwoFAType = "yubikey"
	TwoFAYubiKeyMtGox TwoFAType = "yubikey-mtgox"
)

// IsTwoFactor reports whether the type actually requires a second factor.
func (t TwoFAType) IsTwoFactor() bool {
	return t != TwoFANone && t != ""
}

// LoginError is the failure surface of LoginService.Login. Exactly one of
// the three kinds is set; the reducer branches on Kind.
type LoginError struct {
	Kind    LoginErrorKind
	TwoFA   TwoFAType       // set for KindTwoFactorOTPRequired
	Payload *PayloadError   // set for KindWalletPayload
	TwoFAWallet *TwoFAWalletError // set for KindTwoFAWallet
}

type LoginErrorKind int

const (
	// KindTwoFactorOTPRequired means the wallet demands a second factor of
	// the carried type before the payload is released.
	KindTwoFactorOTPRequired LoginErrorKind = iota + 1
	// KindWalletPayload wraps wallet-payload level failures (account locked,
	// network, malformed payload).
	KindWalletPayload
	// KindTwoFAWallet wraps failures of the code-carrying login call
	// (wrong code, missing code, account locked).
	KindTwoFAWallet
)

func (e *LoginError) Error() string {
	switch e.Kind {
	case KindTwoFactorOTPRequired:
		return fmt.Sprintf("login: two-factor OTP required (%s)", e.TwoFA)
	case KindWalletPayload:
		return fmt.Sprintf("login: wallet payload error: %v", e.Payload)
	case KindTwoFAWallet:
		return fmt.Sprintf("login: two-fa wallet error: %v", e.TwoFAWallet)
	}
	return "login: unknown error"
}

// NewOTPRequiredError signals that a second factor of the given type is needed.
func NewOTPRequiredError(t TwoFAType) *LoginError {
	return &LoginError{Kind: KindTwoFactorOTPRequired, TwoFA: t}
}

// NewPayloadError wraps a wallet-payload service failure.
func NewPayloadError(p *PayloadError) *LoginError {
	return &LoginError{Kind: KindWalletPayload, Payload: p}
}

// NewTwoFAWalletError wraps a second-factor verification failure.
func NewTwoFAWalletError(t *TwoFAWalletError) *LoginError {
	return &LoginError{Kind: KindTwoFAWallet, TwoFAWallet: t}
}

// PayloadError is a wallet-payload service failure.
type PayloadError struct {
	AccountLocked bool
	Message       string
}

func (e *PayloadError) Error() string {
	if e.AccountLocked {
		return "wallet payload: account locked"
	}
	return "wallet payload: " + e.Message
}

// TwoFAWalletError is a failure of the second-factor login call.
type TwoFAWalletError struct {
	WrongCode     bool
	AttemptsLeft  int // meaningful only when WrongCode
	AccountLocked bool
	MissingCode   bool
	Message       string
}

func (e *TwoFAWalletError) Error() string {
	switch {
	case e.WrongCode:
		return fmt.Sprintf("two-fa: wrong code, %d attempts left", e.AttemptsLeft)
	case e.AccountLocked:
		return "two-fa: account locked"
	case e.MissingCode:
		return "two-fa: missing code"
	}
	return "two-fa: " + e.Message
}
