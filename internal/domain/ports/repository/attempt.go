package repository

import (
	"context"
	"time"

	"wallet-flows/internal/domain/model"
)

// LoginAttemptRepository is the audit trail of authentication attempts.
type LoginAttemptRepository interface {
	Record(ctx context.Context, attempt *model.LoginAttempt) error
	CountFailuresSince(ctx context.Context, walletGUID string, since time.Time) (int, error)
}
