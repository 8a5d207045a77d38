package domain

import (
	"fmt"
	"strings"
)

// SystemState classifies whether the host platform can currently enforce screening.
type SystemState uint8

const (
	NotConfigured SystemState = iota
	// IncompleteSetup is part of the presentation vocabulary but no
	// classifier transition produces it.
	IncompleteSetup
	ProtectionActive
	PotentiallyIncompatible
)

var systemStateNames = [...]string{
	NotConfigured:           "NOT_CONFIGURED",
	IncompleteSetup:         "INCOMPLETE_SETUP",
	ProtectionActive:        "PROTECTION_ACTIVE",
	PotentiallyIncompatible: "POTENTIALLY_INCOMPATIBLE",
}

// String returns the stable upper-case name of the state.
func (s SystemState) String() string {
	if int(s) < len(systemStateNames) {
		return systemStateNames[s]
	}
	return fmt.Sprintf("SystemState(%d)", s)
}

// ParseSystemState converts a state name into a SystemState (case-insensitive).
func ParseSystemState(s string) (SystemState, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range systemStateNames {
		if name == want {
			return SystemState(i), nil
		}
	}
	return 0, fmt.Errorf("unsupported SystemState: %q", s)
}

// Platform identifies the host OS build for the compatibility heuristic.
type Platform struct {
	Vendor     string
	SDKVersion int
}
