// Package rules persists the ordered rule set under the "rules" key.
package rules

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/haukened/callscreen/internal/screen/common/log"
	"github.com/haukened/callscreen/internal/screen/domain"
	"github.com/haukened/callscreen/internal/screen/repos/kv"
)

// Key is the persisted key holding the serialized rule set.
const Key = "rules"

// Default rule ids.
const (
	IDDigitCount = "block_digit_count"
	IDFromList   = "block_from_list"
	IDRegex      = "block_regex"
	IDAll        = "block_all"
)

var (
	// ErrInvalidPattern is returned when an edit supplies a pattern that does not compile.
	ErrInvalidPattern = errors.New("invalid regex pattern")
	// ErrUnknownRule is returned by the explicit edit helpers when no rule has the id.
	ErrUnknownRule = errors.New("unknown rule id")
)

// DefaultRules returns the rule set used when nothing valid is persisted.
// A fresh slice is returned on every call.
func DefaultRules() []domain.Rule {
	return []domain.Rule{
		{ID: IDDigitCount, Type: domain.RuleBlockDigitCount, Enabled: true, Config: domain.DigitCount{Count: 8}},
		{ID: IDFromList, Type: domain.RuleBlockFromList, Enabled: true, Config: domain.NoConfig{}},
		{ID: IDRegex, Type: domain.RuleBlockRegex, Enabled: false, Config: domain.RegexPattern{Pattern: ""}},
		{ID: IDAll, Type: domain.RuleBlockAll, Enabled: false, Config: domain.NoConfig{}},
	}
}

// Store reads and writes the rule set. Reads never fail: missing or corrupt
// data yields DefaultRules. The defaults are not written back until an edit.
type Store struct {
	kv     kv.Store
	logger log.Logger
}

// New returns a rule Store over the given key space.
func New(store kv.Store, logger log.Logger) *Store {
	return &Store{kv: store, logger: log.OrNoop(logger)}
}

// GetRules returns the persisted rule set in order, or the defaults.
func (s *Store) GetRules() []domain.Rule {
	raw, ok, err := s.kv.Get(Key)
	if err != nil {
		s.logger.Warn(map[string]any{"key": Key, "error": err}, "rule_store_read_failed")
		return DefaultRules()
	}
	return s.decodeOrDefault(raw, ok)
}

// SaveRules persists the full set, replacing whatever was stored.
func (s *Store) SaveRules(rules []domain.Rule) error {
	b, err := encodeRules(rules)
	if err != nil {
		return err
	}
	if err := s.kv.Put(Key, b); err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	return nil
}

// UpdateRule applies transform to the rule with the given id and persists the
// full set. An unknown id leaves the set unchanged and is not an error.
func (s *Store) UpdateRule(id string, transform func(domain.Rule) domain.Rule) error {
	_, err := s.update(id, func(r domain.Rule) (domain.Rule, error) { return transform(r), nil })
	return err
}

// SetRuleEnabled toggles a rule by id.
func (s *Store) SetRuleEnabled(id string, enabled bool) error {
	return s.UpdateRule(id, func(r domain.Rule) domain.Rule { return r.WithEnabled(enabled) })
}

// SetDigitCount replaces the digit-count config of a BLOCK_DIGIT_COUNT rule.
func (s *Store) SetDigitCount(id string, count int) error {
	if count < 0 {
		return fmt.Errorf("digit count must be non-negative, got %d", count)
	}
	return s.replaceConfig(id, domain.DigitCount{Count: count})
}

// SetRegexPattern replaces the pattern of a BLOCK_REGEX rule. Non-blank
// patterns must compile; a blank pattern disables matching.
func (s *Store) SetRegexPattern(id, pattern string) error {
	if err := domain.ValidatePattern(pattern); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return s.replaceConfig(id, domain.RegexPattern{Pattern: pattern})
}

func (s *Store) replaceConfig(id string, cfg domain.RuleConfig) error {
	found, err := s.update(id, func(r domain.Rule) (domain.Rule, error) {
		next := r.WithConfig(cfg)
		if !next.ConfigMatchesType() {
			return r, fmt.Errorf("%w: %s cannot carry %s", domain.ErrConfigMismatch, r.Type, cfg.Kind())
		}
		return next, nil
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownRule, id)
	}
	return nil
}

// update is the single read-modify-write path for edits. It runs inside the
// key-value store's atomic update so concurrent edits cannot lose each other.
func (s *Store) update(id string, fn func(domain.Rule) (domain.Rule, error)) (bool, error) {
	found := false
	err := s.kv.Update(Key, func(cur []byte, ok bool) ([]byte, error) {
		rules := s.decodeOrDefault(cur, ok)
		for i := range rules {
			if rules[i].ID != id {
				continue
			}
			next, err := fn(rules[i])
			if err != nil {
				return nil, err
			}
			rules[i] = next
			found = true
		}
		if !found {
			return nil, nil
		}
		return encodeRules(rules)
	})
	if err != nil {
		return false, fmt.Errorf("update rule %q: %w", id, err)
	}
	return found, nil
}

func (s *Store) decodeOrDefault(raw []byte, ok bool) []domain.Rule {
	if !ok {
		return DefaultRules()
	}
	rules, err := decodeRules(raw)
	if err != nil {
		s.logger.Warn(map[string]any{"key": Key, "error": err}, "rule_store_corrupt_using_defaults")
		return DefaultRules()
	}
	return rules
}

func decodeRules(raw []byte) ([]domain.Rule, error) {
	var rules []domain.Rule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, err
	}
	if rules == nil {
		return nil, errors.New("rule set is null")
	}
	return rules, nil
}

func encodeRules(rules []domain.Rule) ([]byte, error) {
	if rules == nil {
		rules = []domain.Rule{}
	}
	b, err := json.Marshal(rules)
	if err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}
	return b, nil
}
