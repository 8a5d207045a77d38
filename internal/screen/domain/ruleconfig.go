package domain

import (
	"encoding/json"
	"fmt"
)

// ConfigKind tags the RuleConfig variants.
type ConfigKind string

const (
	ConfigNone         ConfigKind = "none"
	ConfigDigitCount   ConfigKind = "digit_count"
	ConfigRegexPattern ConfigKind = "regex_pattern"
)

// RuleConfig is the per-kind parameter payload of a Rule. It is a closed sum
// type: the only implementations are NoConfig, DigitCount and RegexPattern.
// Configs are immutable values and are replaced wholesale on edit.
type RuleConfig interface {
	Kind() ConfigKind
	isRuleConfig()
}

// NoConfig is the payload of rule kinds without parameters.
type NoConfig struct{}

// DigitCount parameterizes BLOCK_DIGIT_COUNT.
type DigitCount struct {
	Count int
}

// RegexPattern parameterizes BLOCK_REGEX. Pattern may be blank or invalid;
// such a rule never matches.
type RegexPattern struct {
	Pattern string
}

// Kind reports the variant of each config type.
func (NoConfig) Kind() ConfigKind     { return ConfigNone }
func (DigitCount) Kind() ConfigKind   { return ConfigDigitCount }
func (RegexPattern) Kind() ConfigKind { return ConfigRegexPattern }

func (NoConfig) isRuleConfig()     {}
func (DigitCount) isRuleConfig()   {}
func (RegexPattern) isRuleConfig() {}

// configWire is the persisted envelope of a RuleConfig.
type configWire struct {
	Kind    ConfigKind `json:"kind"`
	Count   *int       `json:"count,omitempty"`
	Pattern *string    `json:"pattern,omitempty"`
}

func encodeConfig(c RuleConfig) (configWire, error) {
	switch v := c.(type) {
	case nil, NoConfig:
		return configWire{Kind: ConfigNone}, nil
	case DigitCount:
		n := v.Count
		return configWire{Kind: ConfigDigitCount, Count: &n}, nil
	case RegexPattern:
		p := v.Pattern
		return configWire{Kind: ConfigRegexPattern, Pattern: &p}, nil
	default:
		return configWire{}, fmt.Errorf("unsupported RuleConfig %T", c)
	}
}

func decodeConfig(raw json.RawMessage) (RuleConfig, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return NoConfig{}, nil
	}
	var w configWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode rule config: %w", err)
	}
	switch w.Kind {
	case ConfigNone:
		return NoConfig{}, nil
	case ConfigDigitCount:
		if w.Count == nil {
			return nil, fmt.Errorf("digit_count config missing count")
		}
		return DigitCount{Count: *w.Count}, nil
	case ConfigRegexPattern:
		if w.Pattern == nil {
			return nil, fmt.Errorf("regex_pattern config missing pattern")
		}
		return RegexPattern{Pattern: *w.Pattern}, nil
	default:
		return nil, fmt.Errorf("unsupported rule config kind %q", w.Kind)
	}
}
