// Package engine turns a phone number and an ordered rule set into a verdict.
package engine

import (
	"fmt"
	"unicode"

	"github.com/haukened/callscreen/internal/screen/common/log"
	"github.com/haukened/callscreen/internal/screen/domain"
)

// Lookup reports whether a number is on the user's block list. It receives
// the number exactly as it arrived.
type Lookup func(number string) bool

// Options configures an Engine.
type Options struct {
	// Lookup backs BLOCK_FROM_LIST. A nil Lookup never matches.
	Lookup Lookup
	// PatternCacheSize bounds the compiled-pattern cache; <= 0 disables it.
	PatternCacheSize int
	Logger           log.Logger
}

// Engine evaluates rules. Apart from the injected Lookup it has no inputs
// besides its arguments, so the same inputs always give the same verdict.
type Engine struct {
	lookup   Lookup
	patterns *patternCache
	logger   log.Logger
}

// New builds an Engine.
func New(opts Options) (*Engine, error) {
	pc, err := newPatternCache(opts.PatternCacheSize)
	if err != nil {
		return nil, fmt.Errorf("pattern cache: %w", err)
	}
	lookup := opts.Lookup
	if lookup == nil {
		lookup = func(string) bool { return false }
	}
	return &Engine{lookup: lookup, patterns: pc, logger: log.OrNoop(opts.Logger)}, nil
}

// Evaluate returns Reject if any enabled rule matches number, else Allow.
func (e *Engine) Evaluate(number string, rules []domain.Rule) domain.Verdict {
	return e.Explain(number, rules).Verdict
}

// Explain evaluates enabled rules in order and stops at the first match,
// reporting which rule was responsible. Order never changes the verdict.
func (e *Engine) Explain(number string, rules []domain.Rule) domain.Decision {
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		if e.matches(number, r) {
			return domain.Decision{Verdict: domain.Reject, MatchedRule: r.ID, Type: r.Type}
		}
	}
	return domain.AllowDecision()
}

// PatternStats exposes compiled-pattern cache counters.
func (e *Engine) PatternStats() PatternStats { return e.patterns.stats() }

func (e *Engine) matches(number string, r domain.Rule) bool {
	switch r.Type {
	case domain.RuleBlockDigitCount:
		return matchesDigitCount(number, r.Config)
	case domain.RuleBlockFromList:
		return e.lookup(number)
	case domain.RuleBlockRegex:
		return e.matchesRegex(number, r)
	case domain.RuleBlockAll:
		return true
	default:
		e.logger.Debug(map[string]any{"rule": r.ID, "type": r.Type.String()}, "unknown_rule_type_ignored")
		return false
	}
}

func matchesDigitCount(number string, cfg domain.RuleConfig) bool {
	dc, ok := cfg.(domain.DigitCount)
	if !ok {
		return false
	}
	return countDigits(number) == dc.Count
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// matchesRegex reports whether the pattern matches anywhere in number.
// Blank and uncompilable patterns never match.
func (e *Engine) matchesRegex(number string, r domain.Rule) bool {
	rp, ok := r.Config.(domain.RegexPattern)
	if !ok || domain.IsBlankPattern(rp.Pattern) {
		return false
	}
	re := e.patterns.compile(rp.Pattern)
	if re == nil {
		e.logger.Debug(map[string]any{"rule": r.ID}, "regex_rule_invalid_pattern")
		return false
	}
	return re.MatchString(number)
}
