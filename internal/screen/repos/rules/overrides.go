package rules

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/haukened/callscreen/internal/screen/domain"
)

// Override is a partial edit of one rule, read from an overrides file:
//
//	block_digit_count:
//	  enabled: true
//	  digits: 9
//	block_regex:
//	  enabled: true
//	  pattern: "^\\+1900"
//
// Unset fields leave the rule as it is.
type Override struct {
	ID      string  `validate:"required"`
	Enabled *bool   `koanf:"enabled"`
	Digits  *int    `koanf:"digits" validate:"omitempty,gte=0"`
	Pattern *string `koanf:"pattern"`
}

var overrideValidator = validator.New(validator.WithRequiredStructEnabled())

// LoadOverrides reads a YAML, JSON or TOML overrides file, chosen by extension.
// Entries are returned sorted by rule id.
func LoadOverrides(path string) ([]Override, error) {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	case ".toml":
		parser = toml.Parser()
	default:
		return nil, fmt.Errorf("unsupported overrides file type: %s", path)
	}

	// rule ids never contain "/", so it is a safe koanf delimiter
	k := koanf.New("/")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load overrides file %s: %w", path, err)
	}

	var specs map[string]Override
	if err := k.Unmarshal("", &specs); err != nil {
		return nil, fmt.Errorf("invalid overrides file %s: %w", path, err)
	}

	out := make([]Override, 0, len(specs))
	for id, o := range specs {
		o.ID = strings.TrimSpace(id)
		if err := overrideValidator.Struct(o); err != nil {
			return nil, fmt.Errorf("invalid override for %q: %w", id, err)
		}
		if o.Pattern != nil {
			if err := domain.ValidatePattern(*o.Pattern); err != nil {
				return nil, fmt.Errorf("override for %q: %w: %v", id, ErrInvalidPattern, err)
			}
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Apply returns r with the override's fields applied. A digits or pattern
// field that does not fit the rule's type is reported as a mismatch.
func (o Override) Apply(r domain.Rule) (domain.Rule, error) {
	if o.Enabled != nil {
		r = r.WithEnabled(*o.Enabled)
	}
	if o.Digits != nil {
		if r.Type != domain.RuleBlockDigitCount {
			return r, fmt.Errorf("%w: digits on %s", domain.ErrConfigMismatch, r.Type)
		}
		r = r.WithConfig(domain.DigitCount{Count: *o.Digits})
	}
	if o.Pattern != nil {
		if r.Type != domain.RuleBlockRegex {
			return r, fmt.Errorf("%w: pattern on %s", domain.ErrConfigMismatch, r.Type)
		}
		r = r.WithConfig(domain.RegexPattern{Pattern: *o.Pattern})
	}
	return r, nil
}

// ApplyOverrides applies each override to the stored rule set. Ids that do
// not exist are returned in skipped; the first failing edit aborts.
func (s *Store) ApplyOverrides(overrides []Override) (applied int, skipped []string, err error) {
	for _, o := range overrides {
		found, err := s.update(o.ID, o.Apply)
		if err != nil {
			return applied, skipped, err
		}
		if !found {
			s.logger.Warn(map[string]any{"rule": o.ID}, "override_unknown_rule_skipped")
			skipped = append(skipped, o.ID)
			continue
		}
		applied++
	}
	return applied, skipped, nil
}
