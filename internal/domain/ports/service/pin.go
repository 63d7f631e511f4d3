package service

import (
	"context"

	"wallet-flows/internal/domain/model"
)

// PinInteractor validates and creates PINs against the remote PIN store.
// Failures are *domain.PinError values.
type PinInteractor interface {
	// Create stores a brand new PIN payload remotely.
	Create(ctx context.Context, payload model.PinPayload) error
	// Validate checks the payload and returns the PIN decryption key on
	// success.
	Validate(ctx context.Context, payload model.PinPayload) (string, error)
	// Password decrypts the wallet password with the PIN decryption key.
	Password(ctx context.Context, pinDecryptionKey string) (string, error)
	// Persist keeps the PIN locally for biometric replay.
	Persist(pin model.Pin)
}

// BiometryType is the device biometric authenticator kind.
type BiometryType string

const (
	BiometryNone    BiometryType = "none"
	BiometryTouchID BiometryType = "touch-id"
	BiometryFaceID  BiometryType = "face-id"
)

// BiometryProvider reports the configured biometric authenticator and runs
// a biometric challenge.
type BiometryProvider interface {
	ConfiguredType() BiometryType
	Authenticate(ctx context.Context, reason string) error
}

// AppSettings is the keychain-backed settings the PIN flow reads and
// writes: the stored PIN (for biometric replay), the PIN key, and the
// pairing state.
type AppSettings interface {
	Pin() (model.Pin, bool)
	PinKey() (string, bool)
	SetPin(pin model.Pin)
	IsPairedWithWallet() bool
}

// CredentialsStore backs up or erases the cloud-stored wallet credentials.
type CredentialsStore interface {
	Backup(ctx context.Context, pinDecryptionKey string) error
	Erase(ctx context.Context) error
}

// Reachability answers the pre-flight connectivity check.
type Reachability interface {
	HasInternetConnection() bool
}
