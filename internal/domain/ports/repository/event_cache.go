package repository

import "context"

// EventCacheKey names a one-time UI milestone.
type EventCacheKey string

const (
	// HasShownIntroScreen - the buy-flow intro was displayed at least once.
	HasShownIntroScreen EventCacheKey = "has-shown-intro-screen"
	// HasShownBuyScreen - the enter-amount screen was displayed at least once.
	HasShownBuyScreen EventCacheKey = "has-shown-buy-screen"
)

// EventCache is a small persisted key-value store of one-time milestones.
// It survives process restarts and is the only state genuinely shared
// across flow instances, so implementations must make each per-key write
// atomic.
type EventCache interface {
	Get(ctx context.Context, key EventCacheKey) (bool, error)
	Set(ctx context.Context, key EventCacheKey, value bool) error
}
