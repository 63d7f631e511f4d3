package domain

// PinError is the taxonomy of PIN entry and verification failures. Each kind
// maps to exactly one UI behavior: an inline message, a modal alert, or a
// forced logout. Recovery, when non-nil, runs after the user dismisses the
// surfaced error.
type PinError struct {
	Kind                PinErrorKind
	Message             string
	RemainingLockSeconds int    // for KindIncorrectPin / KindBackoff
	Recovery             func() // for KindPinMismatch / KindNoInternetConnection
}

type PinErrorKind int

const (
	// KindInvalidPin - the entered PIN is not well formed.
	KindInvalidPin PinErrorKind = iota + 1
	// KindIdenticalToPrevious - change-PIN first entry equals the old PIN.
	KindIdenticalToPrevious
	// KindPinMismatch - second entry differs from the first. Recovery resets
	// the flow back to the first-entry step.
	KindPinMismatch
	// KindTooManyAttempts - server exhausted the attempt budget; the only
	// way out is a forced logout.
	KindTooManyAttempts
	// KindBackoff - server-enforced cool-down; the countdown must be armed
	// with RemainingLockSeconds.
	KindBackoff
	// KindIncorrectPin - wrong PIN, possibly with a residual lock time.
	KindIncorrectPin
	// KindNoInternetConnection - pre-flight reachability check failed.
	KindNoInternetConnection
	// KindServerMaintenance - backend is down for maintenance.
	KindServerMaintenance
	// KindServerError - any other backend failure.
	KindServerError
	// KindReceivedResponseWhileLoggedOut - stale response after logout;
	// silently ignored.
	KindReceivedResponseWhileLoggedOut
	// KindNullifiedPinKey - the locally stored pin key vanished.
	KindNullifiedPinKey
)

func (e *PinError) Error() string {
	if e.Message != "" {
		return "pin: " + e.Message
	}
	switch e.Kind {
	case KindInvalidPin:
		return "pin: invalid"
	case KindIdenticalToPrevious:
		return "pin: identical to previous"
	case KindPinMismatch:
		return "pin: mismatch"
	case KindTooManyAttempts:
		return "pin: too many attempts"
	case KindBackoff:
		return "pin: backoff"
	case KindIncorrectPin:
		return "pin: incorrect"
	case KindNoInternetConnection:
		return "pin: no internet connection"
	case KindServerMaintenance:
		return "pin: server maintenance"
	case KindServerError:
		return "pin: server error"
	case KindReceivedResponseWhileLoggedOut:
		return "pin: response while logged out"
	case KindNullifiedPinKey:
		return "pin: nullified pin key"
	}
	return "pin: unknown error"
}
