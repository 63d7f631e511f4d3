package service

import (
	"context"
)

// LoginService talks to the wallet backend during pairing. Failures are
// *domain.LoginError values; a nil return means the payload was released.
type LoginService interface {
	// Login authenticates with the wallet identifier alone. Fails with
	// KindTwoFactorOTPRequired when a second factor is demanded.
	Login(ctx context.Context, walletIdentifier string) error
	// LoginWithCode authenticates with a second-factor code. Fails with
	// KindTwoFAWallet errors only; receiving payload-level or
	// OTP-required errors on this path is a contract violation of the
	// implementation.
	LoginWithCode(ctx context.Context, walletIdentifier, code string) error
}

// EmailAuthorizationService polls whether the wallet GUID became available
// server-side after the user approved the login email. Returns
// domain.ErrNotFound while the approval is still pending.
type EmailAuthorizationService interface {
	AuthorizeEmail(ctx context.Context) error
}

// SessionTokenService establishes the session token needed before any
// login call.
type SessionTokenService interface {
	SetupSessionToken(ctx context.Context) error
}

// SMSService requests a fresh SMS one-time code.
type SMSService interface {
	RequestCode(ctx context.Context) error
}

// DeviceVerificationService approves a login optimistically with the email
// code from the deep link. Fire and forget: failures are logged, never
// surfaced, since the user can still approve manually from their inbox.
type DeviceVerificationService interface {
	AuthorizeLogin(ctx context.Context, emailCode string) error
}

// DecryptedWallet is what the wallet-crypto collaborator hands back after a
// successful decryption.
type DecryptedWallet struct {
	GUID      string
	SharedKey string
}

// WalletDecryptionService is the opaque wallet-crypto collaborator. This
// core kicks decryption off and consumes the result; it never implements it.
type WalletDecryptionService interface {
	Decrypt(ctx context.Context, password string) (DecryptedWallet, error)
	DecryptWithSecondPassword(ctx context.Context, password, secondPassword string) (DecryptedWallet, error)
}

// WalletDecryptionLauncher is the outer coordinator the credentials flow
// hands a verified password off to. Decryption itself happens elsewhere;
// failures come back through CredentialsFlow.PasswordIncorrect.
type WalletDecryptionLauncher interface {
	DecryptWalletWithPassword(password string)
}
