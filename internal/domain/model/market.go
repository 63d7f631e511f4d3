package model

// SupportedPairs is the set of fiat/crypto pairs the user's currency can
// trade. The flow machine only ever asks whether it is empty.
type SupportedPairs struct {
	Pairs []string
}

// IsFiatSupported reports whether any pair exists for the user's currency.
func (p SupportedPairs) IsFiatSupported() bool { return len(p.Pairs) > 0 }

// KYCTiers is the user's verification standing.
type KYCTiers struct {
	IsTier2Approved bool
}
