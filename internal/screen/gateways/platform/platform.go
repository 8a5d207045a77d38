// Package platform adapts host-platform queries (role state, device identity)
// for the system-state classifier.
package platform

import (
	"errors"

	"github.com/haukened/callscreen/internal/screen/domain"
)

// ErrRoleUnsupported is reported by hosts that have no call-screening role.
var ErrRoleUnsupported = errors.New("call-screening role not supported on this platform")

// StaticRole reports a fixed role state, as supplied by the host process.
type StaticRole struct {
	Held bool
}

// CallScreeningRoleHeld reports Held.
func (r StaticRole) CallScreeningRoleHeld() (bool, error) { return r.Held, nil }

// UnsupportedRole is used where the platform has no role concept.
type UnsupportedRole struct{}

// CallScreeningRoleHeld always fails with ErrRoleUnsupported.
func (UnsupportedRole) CallScreeningRoleHeld() (bool, error) { return false, ErrRoleUnsupported }

// Identity is a fixed vendor and SDK tier.
type Identity domain.Platform

// NewIdentity returns the identity of a vendor at an SDK level.
func NewIdentity(vendor string, sdk int) Identity {
	return Identity{Vendor: vendor, SDKVersion: sdk}
}

// Platform returns the identity as a domain.Platform.
func (i Identity) Platform() domain.Platform { return domain.Platform(i) }
