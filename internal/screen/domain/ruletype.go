package domain

import (
	"fmt"
	"strings"
)

// RuleType is the closed set of rule kinds the engine knows how to evaluate.
// Adding a kind requires a new evaluation branch in the engine.
type RuleType uint8

const (
	// RuleBlockDigitCount rejects numbers with exactly N digit characters.
	RuleBlockDigitCount RuleType = iota
	// RuleBlockFromList rejects numbers present in the user's block list.
	RuleBlockFromList
	// RuleBlockRegex rejects numbers containing a match of a user pattern.
	RuleBlockRegex
	// RuleBlockAll rejects every call.
	RuleBlockAll
)

var ruleTypeNames = map[RuleType]string{
	RuleBlockDigitCount: "BLOCK_DIGIT_COUNT",
	RuleBlockFromList:   "BLOCK_FROM_LIST",
	RuleBlockRegex:      "BLOCK_REGEX",
	RuleBlockAll:        "BLOCK_ALL",
}

// AllRuleTypes lists every rule kind in declaration order.
func AllRuleTypes() []RuleType {
	return []RuleType{RuleBlockDigitCount, RuleBlockFromList, RuleBlockRegex, RuleBlockAll}
}

// String returns the stable persisted name of the rule type.
func (t RuleType) String() string {
	if s, ok := ruleTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("RuleType(%d)", t)
}

// IsValid reports whether t is one of the declared rule kinds.
func (t RuleType) IsValid() bool {
	_, ok := ruleTypeNames[t]
	return ok
}

// ParseRuleType converts a persisted name into a RuleType (case-insensitive).
func ParseRuleType(s string) (RuleType, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for t, name := range ruleTypeNames {
		if name == want {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unsupported RuleType: %q", s)
}

// MarshalText encodes the type by name so persisted data survives reordering.
func (t RuleType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("unsupported RuleType: %d", t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a persisted type name.
func (t *RuleType) UnmarshalText(b []byte) error {
	parsed, err := ParseRuleType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ExpectedConfigKind reports which RuleConfig variant a rule of type t carries.
func (t RuleType) ExpectedConfigKind() ConfigKind {
	switch t {
	case RuleBlockDigitCount:
		return ConfigDigitCount
	case RuleBlockRegex:
		return ConfigRegexPattern
	default:
		return ConfigNone
	}
}
