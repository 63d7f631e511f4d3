// Package device holds the device-side collaborators: biometrics,
// reachability, the decryption hand-off, and the alert surface. The real
// implementations live in the mobile shell; these stand in for local/dev
// runs and tests.
package device

import (
	"context"

	"wallet-flows/internal/domain/ports/service"
)

var _ service.BiometryProvider = (*NoopBiometry)(nil)

// NoopBiometry implements service.BiometryProvider for local/dev runs. It
// reports whatever type it was constructed with and approves every
// challenge.
type NoopBiometry struct {
	kind service.BiometryType
}

func NewNoopBiometry(kind service.BiometryType) *NoopBiometry {
	return &NoopBiometry{kind: kind}
}

func (b *NoopBiometry) ConfiguredType() service.BiometryType { return b.kind }

func (b *NoopBiometry) Authenticate(ctx context.Context, reason string) error {
	return ctx.Err()
}
