package domain

import "fmt"

// Verdict is the binary outcome of rule evaluation.
type Verdict uint8

const (
	// Allow lets the call ring through.
	Allow Verdict = iota
	// Reject blocks the call.
	Reject
)

// String returns "ALLOW" or "REJECT".
func (v Verdict) String() string {
	switch v {
	case Allow:
		return "ALLOW"
	case Reject:
		return "REJECT"
	default:
		return fmt.Sprintf("Verdict(%d)", v)
	}
}

// Decision records a verdict together with the first rule that matched.
// MatchedRule and Type are set only when Verdict is Reject; on Allow Type
// holds its zero value, which is a real rule kind. Read them through Matched.
type Decision struct {
	Verdict     Verdict
	MatchedRule string
	Type        RuleType
}

// IsReject is a convenience accessor.
func (d Decision) IsReject() bool { return d.Verdict == Reject }

// Matched returns the responsible rule id and kind. ok is false for Allow.
func (d Decision) Matched() (id string, t RuleType, ok bool) {
	if d.Verdict != Reject {
		return "", 0, false
	}
	return d.MatchedRule, d.Type, true
}

// AllowDecision returns the decision produced when no enabled rule matches.
func AllowDecision() Decision { return Decision{Verdict: Allow} }
