// Package sysstate classifies whether the host platform is configured and
// likely able to enforce screening.
package sysstate

import (
	"strings"

	"github.com/haukened/callscreen/internal/screen/common/log"
	"github.com/haukened/callscreen/internal/screen/domain"
)

const (
	// suppressingVendor is the vendor known to silently drop third-party
	// call screening from SuppressingSDK onward.
	suppressingVendor = "samsung"
	// SuppressingSDK is the first SDK level at which the vendor drops screening.
	SuppressingSDK    = 31
)

// RoleChecker asks the platform whether the call-screening role is held.
// Platforms without the concept report false.
type RoleChecker interface {
	CallScreeningRoleHeld() (bool, error)
}

// InvocationFlag exposes the persisted "screening entry point has fired" latch.
type InvocationFlag interface {
	ServiceEverInvoked() bool
}

// PlatformIdentity reports vendor and version tier.
type PlatformIdentity interface {
	Platform() domain.Platform
}

// Options wires a Classifier. A nil Roles or Invoked reads as false.
type Options struct {
	Roles    RoleChecker
	Invoked  InvocationFlag
	Platform PlatformIdentity
	Logger   log.Logger
}

// Classifier gathers the three inputs and hands them to Classify.
type Classifier struct {
	roles    RoleChecker
	invoked  InvocationFlag
	platform PlatformIdentity
	logger   log.Logger
}

// New returns a Classifier over opts.
func New(opts Options) *Classifier {
	return &Classifier{
		roles:    opts.Roles,
		invoked:  opts.Invoked,
		platform: opts.Platform,
		logger:   log.OrNoop(opts.Logger),
	}
}

// State reads the current inputs and classifies them. A failing or missing
// role query counts as "not granted".
func (c *Classifier) State() domain.SystemState {
	granted := c.roleGranted()
	if !granted {
		return domain.NotConfigured
	}
	invoked := c.invoked != nil && c.invoked.ServiceEverInvoked()
	var p domain.Platform
	if c.platform != nil {
		p = c.platform.Platform()
	}
	st := Classify(granted, invoked, p)
	c.logger.Debug(map[string]any{
		"state":   st.String(),
		"invoked": invoked,
		"vendor":  p.Vendor,
		"sdk":     p.SDKVersion,
	}, "system_state_classified")
	return st
}

func (c *Classifier) roleGranted() bool {
	if c.roles == nil {
		return false
	}
	held, err := c.roles.CallScreeningRoleHeld()
	if err != nil {
		c.logger.Warn(map[string]any{"error": err}, "role_query_failed")
		return false
	}
	return held
}

// Classify is the state machine, first match wins:
//  1. role not granted: NotConfigured
//  2. never invoked on a suppressing platform: PotentiallyIncompatible
//  3. otherwise: ProtectionActive
//
// Once the entry point has fired, the vendor heuristic no longer applies.
// IncompleteSetup is never produced.
func Classify(roleGranted, serviceInvoked bool, p domain.Platform) domain.SystemState {
	if !roleGranted {
		return domain.NotConfigured
	}
	if !serviceInvoked && IsSuppressingPlatform(p) {
		return domain.PotentiallyIncompatible
	}
	return domain.ProtectionActive
}

// IsSuppressingPlatform is a best-effort heuristic and can be wrong both ways.
func IsSuppressingPlatform(p domain.Platform) bool {
	return strings.ToLower(strings.TrimSpace(p.Vendor)) == suppressingVendor && p.SDKVersion >= SuppressingSDK
}
