package usecase

import (
	"context"
	"sync"
)

// Stable cancellation keys. Starting a new operation under a key first
// cancels any in-flight one of the same kind, so stale results from a
// superseded attempt can never clobber fresher state.
const (
	cancelKeyPollingTimer   = "wallet-identifier-polling-timer"
	cancelKeyPollingRequest = "wallet-identifier-polling-request"
	cancelKeyAuthentication = "authentication-request"
)

// canceler maps stable keys to cancellation handles for in-flight
// asynchronous operations.
type canceler struct {
	mu sync.Mutex
	m  map[string]context.CancelFunc
}

func newCanceler() *canceler {
	return &canceler{m: make(map[string]context.CancelFunc)}
}

// Start cancels any operation already running under key and returns a fresh
// child context registered under it.
func (c *canceler) Start(parent context.Context, key string) context.Context {
	ctx, cancel := context.WithCancel(parent)
	c.mu.Lock()
	if prev, ok := c.m[key]; ok {
		prev()
	}
	c.m[key] = cancel
	c.mu.Unlock()
	return ctx
}

// Cancel stops the operation under key, if any.
func (c *canceler) Cancel(key string) {
	c.mu.Lock()
	if cancel, ok := c.m[key]; ok {
		cancel()
		delete(c.m, key)
	}
	c.mu.Unlock()
}

// CancelAll stops every registered operation.
func (c *canceler) CancelAll() {
	c.mu.Lock()
	for key, cancel := range c.m {
		cancel()
		delete(c.m, key)
	}
	c.mu.Unlock()
}
