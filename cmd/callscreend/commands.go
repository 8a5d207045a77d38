package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haukened/callscreen/internal/screen/common/log"
	"github.com/haukened/callscreen/internal/screen/domain"
	"github.com/haukened/callscreen/internal/screen/gateways/platform"
	"github.com/haukened/callscreen/internal/screen/repos/blocked/parsers"
	"github.com/haukened/callscreen/internal/screen/repos/rules"
	"github.com/haukened/callscreen/internal/screen/services/sysstate"
)

func (c *cli) screenCmd() *cobra.Command {
	var explain bool
	cmd := &cobra.Command{
		Use:   "screen <number>",
		Short: "Screen one inbound call and print the platform response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number := args[0]
			resp := c.app.coordinator.OnIncomingCall(number)
			verdict := domain.Allow
			if resp.Reject {
				verdict = domain.Reject
			}
			fmt.Fprintf(c.out, "%s %s disallow=%t reject=%t skip_call_log=%t skip_notification=%t\n",
				verdict, number, resp.Disallow, resp.Reject, resp.SkipCallLog, resp.SkipNotification)
			if explain && resp.Reject {
				d := c.app.engine.Explain(number, c.app.rules.GetRules())
				if id, typ, ok := d.Matched(); ok {
					fmt.Fprintf(c.out, "matched %s (%s)\n", id, typ)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "print the rule responsible for a rejection")
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	var (
		roleGranted bool
		vendor      string
		sdk         int
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Classify whether screening is configured and likely enforced",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("vendor") {
				vendor = c.cfg.Platform.Vendor
			}
			if !cmd.Flags().Changed("sdk") {
				sdk = c.cfg.Platform.SDK
			}
			classifier := sysstate.New(sysstate.Options{
				Roles:    platform.StaticRole{Held: roleGranted},
				Invoked:  c.app.prefs,
				Platform: platform.NewIdentity(vendor, sdk),
			})
			fmt.Fprintln(c.out, classifier.State())
			return nil
		},
	}
	cmd.Flags().BoolVar(&roleGranted, "role-granted", false, "the call-screening role is held by this application")
	cmd.Flags().StringVar(&vendor, "vendor", "", "device vendor (default from CALLSCREEN_PLATFORM_VENDOR)")
	cmd.Flags().IntVar(&sdk, "sdk", 0, "platform SDK level (default from CALLSCREEN_PLATFORM_SDK)")
	return cmd
}

func (c *cli) rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and edit screening rules",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tENABLED\tCONFIG")
			for _, r := range c.app.rules.GetRules() {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", r.ID, r.Type, r.Enabled, describeConfig(r.Config))
			}
			return tw.Flush()
		},
	}

	toggle := func(use string, enabled bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: use + " a rule",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.requireRule(args[0]); err != nil {
					return err
				}
				return c.app.rules.SetRuleEnabled(args[0], enabled)
			},
		}
	}

	digits := &cobra.Command{
		Use:   "digits <id> <count>",
		Short: "Set the digit count of a digit-count rule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid digit count %q: %w", args[1], err)
			}
			return c.app.rules.SetDigitCount(args[0], n)
		},
	}

	pattern := &cobra.Command{
		Use:   "pattern <id> <regex>",
		Short: "Set the pattern of a regex rule; an empty pattern never matches",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.rules.SetRegexPattern(args[0], args[1])
		},
	}

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Apply a YAML, JSON or TOML rule overrides file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := rules.LoadOverrides(args[0])
			if err != nil {
				return err
			}
			applied, skipped, err := c.app.rules.ApplyOverrides(overrides)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "applied %d, skipped %d\n", applied, len(skipped))
			for _, id := range skipped {
				fmt.Fprintf(c.out, "unknown rule %s\n", id)
			}
			return nil
		},
	}

	cmd.AddCommand(list, toggle("enable", true), toggle("disable", false), digits, pattern, imp)
	return cmd
}

func (c *cli) requireRule(id string) error {
	for _, r := range c.app.rules.GetRules() {
		if r.ID == id {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", rules.ErrUnknownRule, id)
}

func describeConfig(cfg domain.RuleConfig) string {
	switch v := cfg.(type) {
	case domain.DigitCount:
		return fmt.Sprintf("digits=%d", v.Count)
	case domain.RegexPattern:
		return fmt.Sprintf("pattern=%q", v.Pattern)
	default:
		return "-"
	}
}

func (c *cli) blockedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocked",
		Short: "Manage the block list",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List blocked numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNUMBER\tADDED")
			for _, b := range c.app.blocked.GetBlockedNumbers() {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", b.ID, b.Number, b.AddedTimestamp)
			}
			return tw.Flush()
		},
	}

	add := &cobra.Command{
		Use:   "add <number>",
		Short: "Block a number (exact match)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, added, err := c.app.blocked.AddNumber(args[0])
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintf(c.out, "unchanged %q\n", args[0])
				return nil
			}
			fmt.Fprintf(c.out, "added %s %s\n", entry.ID, entry.Number)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Unblock an entry by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := c.app.blocked.RemoveNumber(args[0])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(c.out, "no entry %s\n", args[0])
				return nil
			}
			fmt.Fprintf(c.out, "removed %s\n", args[0])
			return nil
		},
	}

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Block every number in a plain list (one per line, # comments)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			numbers, err := parsers.ParsePlainList(f, args[0], log.GetLogger())
			if err != nil {
				return err
			}
			added := 0
			for _, n := range numbers {
				_, ok, err := c.app.blocked.AddNumber(n)
				if err != nil {
					return err
				}
				if ok {
					added++
				}
			}
			fmt.Fprintf(c.out, "imported %d of %d\n", added, len(numbers))
			return nil
		},
	}

	cmd.AddCommand(list, add, remove, imp)
	return cmd
}

func (c *cli) prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show and change preferences",
	}

	notifications := &cobra.Command{
		Use:       "notifications <on|off>",
		Short:     "Toggle the call-blocked notification",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "on":
				return c.app.prefs.SetNotificationsEnabled(true)
			case "off":
				return c.app.prefs.SetNotificationsEnabled(false)
			default:
				return errors.New(`expected "on" or "off"`)
			}
		},
	}

	onboarding := &cobra.Command{
		Use:   "onboarding",
		Short: "Onboarding state",
	}
	onboarding.AddCommand(&cobra.Command{
		Use:   "complete",
		Short: "Mark onboarding complete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.prefs.CompleteOnboarding()
		},
	})

	show := &cobra.Command{
		Use:   "show",
		Short: "Print every preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := c.app.prefs.Snapshot()
			fmt.Fprintf(c.out, "notifications_enabled=%t\n", s.NotificationsEnabled)
			fmt.Fprintf(c.out, "onboarding_completed=%t\n", s.OnboardingCompleted)
			fmt.Fprintf(c.out, "service_ever_invoked=%t\n", s.ServiceEverInvoked)
			return nil
		},
	}

	cmd.AddCommand(notifications, onboarding, show)
	return cmd
}
