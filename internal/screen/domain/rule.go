package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrConfigMismatch is returned when a config variant does not fit the rule type.
var ErrConfigMismatch = errors.New("rule config does not match rule type")

// Rule is a user-configurable screening condition. ID is unique within a rule
// set and stable across edits; rules are mutated in place, never deleted.
type Rule struct {
	ID      string
	Type    RuleType
	Enabled bool
	Config  RuleConfig
}

// NewRule constructs a Rule and checks that cfg is the variant t expects.
// A nil cfg is taken as NoConfig.
func NewRule(id string, t RuleType, enabled bool, cfg RuleConfig) (Rule, error) {
	if cfg == nil {
		cfg = NoConfig{}
	}
	r := Rule{ID: strings.TrimSpace(id), Type: t, Enabled: enabled, Config: cfg}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// Validate checks identity, kind and the type/config pairing.
func (r Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule id must not be empty")
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("unsupported RuleType: %d", r.Type)
	}
	if !r.ConfigMatchesType() {
		return fmt.Errorf("%w: %s carries %s", ErrConfigMismatch, r.Type, r.configKind())
	}
	if dc, ok := r.Config.(DigitCount); ok && dc.Count < 0 {
		return fmt.Errorf("digit count must be non-negative, got %d", dc.Count)
	}
	return nil
}

// ConfigMatchesType reports whether the config variant is the one the rule
// type expects. BLOCK_ALL accepts any payload since it ignores it.
func (r Rule) ConfigMatchesType() bool {
	if r.Type == RuleBlockAll {
		return true
	}
	return r.configKind() == r.Type.ExpectedConfigKind()
}

func (r Rule) configKind() ConfigKind {
	if r.Config == nil {
		return ConfigNone
	}
	return r.Config.Kind()
}

// WithEnabled returns a copy of r with the enabled flag replaced.
func (r Rule) WithEnabled(enabled bool) Rule {
	r.Enabled = enabled
	return r
}

// WithConfig returns a copy of r with the config replaced.
func (r Rule) WithConfig(cfg RuleConfig) Rule {
	r.Config = cfg
	return r
}

type ruleWire struct {
	ID      *string         `json:"id"`
	Type    *RuleType       `json:"type"`
	Enabled *bool           `json:"enabled"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// MarshalJSON encodes the rule with a tagged config envelope.
func (r Rule) MarshalJSON() ([]byte, error) {
	cw, err := encodeConfig(r.Config)
	if err != nil {
		return nil, err
	}
	cfg, err := json.Marshal(cw)
	if err != nil {
		return nil, err
	}
	id, t, enabled := r.ID, r.Type, r.Enabled
	return json.Marshal(ruleWire{ID: &id, Type: &t, Enabled: &enabled, Config: cfg})
}

// UnmarshalJSON decodes a persisted rule. id, type and enabled are required;
// a missing config decodes as NoConfig. A config that does not fit the type
// is kept as-is: it is not a decode error, the rule simply never matches.
func (r *Rule) UnmarshalJSON(b []byte) error {
	var w ruleWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch {
	case w.ID == nil:
		return fmt.Errorf("rule missing id")
	case w.Type == nil:
		return fmt.Errorf("rule %q missing type", *w.ID)
	case w.Enabled == nil:
		return fmt.Errorf("rule %q missing enabled", *w.ID)
	}
	cfg, err := decodeConfig(w.Config)
	if err != nil {
		return fmt.Errorf("rule %q: %w", *w.ID, err)
	}
	*r = Rule{ID: *w.ID, Type: *w.Type, Enabled: *w.Enabled, Config: cfg}
	return nil
}
