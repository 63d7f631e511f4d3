package model

import "strings"

// PinLength is the number of digits every PIN has.
const PinLength = 4

// Pin is a user PIN code.
type Pin string

// NewPin builds a Pin from raw digit-pad input. It does not validate; call
// IsValid before using the value.
func NewPin(s string) Pin { return Pin(s) }

// IsValid reports whether the PIN is well formed: exactly PinLength digits
// and not a single repeated digit.
func (p Pin) IsValid() bool {
	if len(p) != PinLength {
		return false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return false
		}
	}
	// "0000", "1111", ... are trivially guessable and rejected.
	return strings.Count(string(p), string(p[0])) != PinLength
}

func (p Pin) String() string { return string(p) }

// PinPayload couples a PIN code with the key it is stored under server-side.
type PinPayload struct {
	PinCode         string
	PinKey          string
	PersistsLocally bool
}
