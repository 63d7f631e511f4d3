// File: internal/infra/metrics/auth.go
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(authAttemptsTotal, twoFARequiredTotal, lockoutsArmedTotal)
}

var authAttemptsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Authentication attempts by outcome.",
	},
	[]string{"outcome"}, // 'succeeded', 'wrong-password', 'wrong-code', 'account-locked', 'errored'
)

var twoFARequiredTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_two_fa_required_total",
		Help: "Second-factor demands by factor type.",
	},
	[]string{"type"}, // 'email', 'sms', 'google', 'yubikey', ...
)

var lockoutsArmedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "auth_lockouts_armed_total",
		Help: "PIN lockout countdowns armed from server backoff responses.",
	},
)

func IncAuthAttempt(outcome string) {
	authAttemptsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncTwoFARequired(twoFAType string) {
	twoFARequiredTotal.WithLabelValues(norm(twoFAType)).Inc()
}

func IncLockoutArmed() {
	lockoutsArmedTotal.Inc()
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
