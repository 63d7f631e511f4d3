package model

import (
	"time"

	"wallet-flows/internal/domain"

	"github.com/google/uuid"
)

// AttemptOutcome classifies how a single authentication attempt ended.
type AttemptOutcome string

const (
	AttemptSucceeded     AttemptOutcome = "succeeded"
	AttemptWrongPassword AttemptOutcome = "wrong-password"
	AttemptWrongCode     AttemptOutcome = "wrong-code"
	AttemptAccountLocked AttemptOutcome = "account-locked"
	AttemptErrored       AttemptOutcome = "errored"
)

// LoginAttempt is one audit row of the login trail.
type LoginAttempt struct {
	ID         string
	WalletGUID string
	Outcome    AttemptOutcome
	TwoFAType  domain.TwoFAType
	CreatedAt  time.Time
}

// NewLoginAttempt records an attempt against a wallet.
func NewLoginAttempt(walletGUID string, outcome AttemptOutcome, twoFA domain.TwoFAType) (*LoginAttempt, error) {
	if walletGUID == "" || outcome == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &LoginAttempt{
		ID:         uuid.NewString(),
		WalletGUID: walletGUID,
		Outcome:    outcome,
		TwoFAType:  twoFA,
		CreatedAt:  time.Now(),
	}, nil
}
