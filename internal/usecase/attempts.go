package usecase

import (
	"context"
	"sync"

	"wallet-flows/internal/domain"
	"wallet-flows/internal/domain/model"
	"wallet-flows/internal/domain/ports/repository"
	"wallet-flows/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// DefaultMaxAttempts is the consecutive-failure budget before the tracker
// escalates from "retry" to "log out". The server enforces its own cap; this
// is the client-side mirror driving the forced-logout UI.
const DefaultMaxAttempts = 4

// AttemptRecorder tracks consecutive authentication failures for one
// screen session and escalates past the cap. Every attempt is also written
// to the audit repository; audit failures are logged, never surfaced, since
// the login outcome must not depend on the audit trail.
type AttemptRecorder struct {
	mu       sync.Mutex
	failures int
	max      int

	audit repository.LoginAttemptRepository
	log   *zerolog.Logger
}

func NewAttemptRecorder(max int, audit repository.LoginAttemptRepository, logger *zerolog.Logger) *AttemptRecorder {
	if max <= 0 {
		max = DefaultMaxAttempts
	}
	return &AttemptRecorder{max: max, audit: audit, log: logger}
}

// RecordFailure counts one failed attempt and reports how many remain and
// whether the user must now be logged out.
func (r *AttemptRecorder) RecordFailure(ctx context.Context, walletGUID string, outcome model.AttemptOutcome, twoFA domain.TwoFAType) (remaining int, forceLogout bool) {
	r.mu.Lock()
	r.failures++
	remaining = r.max - r.failures
	if remaining < 0 {
		remaining = 0
	}
	forceLogout = r.failures >= r.max
	r.mu.Unlock()

	metrics.IncAuthAttempt(string(outcome))
	r.persist(ctx, walletGUID, outcome, twoFA)
	return remaining, forceLogout
}

// RecordSuccess resets the consecutive-failure counter.
func (r *AttemptRecorder) RecordSuccess(ctx context.Context, walletGUID string) {
	r.mu.Lock()
	r.failures = 0
	r.mu.Unlock()

	metrics.IncAuthAttempt(string(model.AttemptSucceeded))
	r.persist(ctx, walletGUID, model.AttemptSucceeded, domain.TwoFANone)
}

// Failures returns the current consecutive-failure count.
func (r *AttemptRecorder) Failures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures
}

// Reset clears the counter without recording anything, e.g. when the screen
// disappears.
func (r *AttemptRecorder) Reset() {
	r.mu.Lock()
	r.failures = 0
	r.mu.Unlock()
}

func (r *AttemptRecorder) persist(ctx context.Context, walletGUID string, outcome model.AttemptOutcome, twoFA domain.TwoFAType) {
	if r.audit == nil || walletGUID == "" {
		return
	}
	attempt, err := model.NewLoginAttempt(walletGUID, outcome, twoFA)
	if err != nil {
		r.log.Error().Err(err).Msg("attempt recorder: build audit row")
		return
	}
	if err := r.audit.Record(ctx, attempt); err != nil {
		r.log.Error().Err(err).Str("wallet_guid", walletGUID).Msg("attempt recorder: persist audit row")
	}
}
