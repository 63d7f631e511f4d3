package model

import "wallet-flows/internal/domain"

// PasswordState is the password sub-state of a login attempt.
type PasswordState struct {
	Password            string
	IsPasswordIncorrect bool
}

// TwoFAState is the one-time-code sub-state of a login attempt. It exists
// for SMS and Google-authenticator factors; hardware keys have their own
// sub-state.
type TwoFAState struct {
	Code                     string
	Type                     domain.TwoFAType
	AttemptsLeft             int
	IsCodeFieldVisible       bool
	IsCodeIncorrect          bool
	IsCodeMissing            bool
	IsResendSMSButtonVisible bool
}

// HardwareKeyState is the hardware-security-key sub-state of a login attempt.
type HardwareKeyState struct {
	Code               string
	IsCodeFieldVisible bool
	IsCodeIncorrect    bool
}

// Alert is a modal error surface: a title, a message, and a single
// acknowledgment.
type Alert struct {
	Title   string
	Message string
}

// CredentialsState holds one in-progress login attempt. It is created fresh
// when the login screen appears and fully reset when it disappears; only the
// credentials reducer mutates it.
//
// TwoFA and HardwareKey are non-nil by construction once the state exists;
// the reducer treats a nil sub-state as a wiring bug, not a runtime error.
type CredentialsState struct {
	EmailAddress string
	WalletGUID   string
	EmailCode    string

	Password    PasswordState
	TwoFA       *TwoFAState
	HardwareKey *HardwareKeyState

	IsTwoFACodeOrHardwareKeyVerified bool
	IsAccountLocked                  bool
	IsWalletIdentifierIncorrect      bool
	IsManualPairing                  bool
	IsLoading                        bool

	Alert *Alert
}

// NewCredentialsState returns the empty state a fresh login screen starts
// with.
func NewCredentialsState() CredentialsState {
	return CredentialsState{
		TwoFA:       &TwoFAState{},
		HardwareKey: &HardwareKeyState{},
	}
}

// WalletInfo is the deep-link or polled wallet identity that seeds a login
// attempt.
type WalletInfo struct {
	GUID      string
	Email     string
	EmailCode string
	TwoFAType domain.TwoFAType
}
