// Package screening handles one inbound call: it records the invocation,
// evaluates the persisted rules and decides the platform response.
package screening

import (
	"fmt"

	"github.com/haukened/callscreen/internal/screen/common/log"
	"github.com/haukened/callscreen/internal/screen/domain"
)

// RuleSource supplies the ordered rule set. It must not fail; storage
// problems surface as the default rules.
type RuleSource interface {
	GetRules() []domain.Rule
}

// Evaluator decides a verdict and names the rule responsible.
type Evaluator interface {
	Explain(number string, rules []domain.Rule) domain.Decision
}

// Preferences is the subset of the preference store the coordinator touches.
type Preferences interface {
	MarkServiceInvoked() error
	NotificationsEnabled() bool
}

// Notifier presents a "call blocked" notification. Fire-and-forget.
type Notifier interface {
	Present(number string)
}

// Options wires a Coordinator. Notifier and Logger may be nil.
type Options struct {
	Rules       RuleSource
	Engine      Evaluator
	Preferences Preferences
	Notifier    Notifier
	Logger      log.Logger
}

// Coordinator is the per-call entry point.
type Coordinator struct {
	rules    RuleSource
	engine   Evaluator
	prefs    Preferences
	notifier Notifier
	logger   log.Logger
}

// New returns a Coordinator over opts.
func New(opts Options) *Coordinator {
	return &Coordinator{
		rules:    opts.Rules,
		engine:   opts.Engine,
		prefs:    opts.Preferences,
		notifier: opts.Notifier,
		logger:   log.OrNoop(opts.Logger),
	}
}

// OnIncomingCall is invoked once per inbound call. It never fails: any
// internal failure degrades to letting the call through.
func (c *Coordinator) OnIncomingCall(number string) (resp domain.ScreeningResponse) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(map[string]any{"number": number, "panic": fmt.Sprint(r)}, "screening_panic_allowing_call")
			resp = domain.AllowResponse()
		}
	}()

	if err := c.prefs.MarkServiceInvoked(); err != nil {
		c.logger.Warn(map[string]any{"error": err}, "mark_service_invoked_failed")
	}

	rules := c.rules.GetRules()
	c.logger.Debug(map[string]any{"number": number, "enabled": enabledTypes(rules)}, "screening_call")

	d := c.engine.Explain(number, rules)
	if !d.IsReject() {
		c.logger.Debug(map[string]any{"number": number}, "call_allowed")
		return domain.AllowResponse()
	}

	c.logger.Info(map[string]any{
		"number": number,
		"rule":   d.MatchedRule,
		"type":   d.Type.String(),
	}, "call_rejected")
	if c.prefs.NotificationsEnabled() {
		c.notify(number)
	}
	return domain.RejectResponse()
}

// notify swallows notifier panics; the rejection stands.
func (c *Coordinator) notify(number string) {
	if c.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error(map[string]any{"number": number, "panic": fmt.Sprint(r)}, "notifier_panic")
		}
	}()
	c.notifier.Present(number)
}

func enabledTypes(rules []domain.Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			out = append(out, r.Type.String())
		}
	}
	return out
}
