package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/haukened/callscreen/internal/screen/common/log"
	"github.com/haukened/callscreen/internal/screen/config"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "callscreend"
)

// cli carries the loaded application between cobra hooks and commands.
type cli struct {
	out    io.Writer
	dbPath string
	cfg    *config.AppConfig
	app    *Application
}

func main() {
	os.Exit(report(os.Stderr, run(os.Stdout, os.Args[1:])))
}

// report prints err to w and returns the process exit status.
func report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return 1
}

// run executes one command line and always releases the store afterwards,
// including when the command fails. Errors are returned, not printed; a
// failed close is joined onto the command error.
func run(out io.Writer, args []string) error {
	c := &cli{out: out}
	root := c.rootCmd()
	root.SetArgs(args)
	err := root.Execute()
	if cerr := c.app.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close store: %w", cerr))
	}
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Call-screening decision engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}
	root.SetOut(c.out)
	root.SetErr(c.out)
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "store file (overrides CALLSCREEN_STORE_PATH)")

	root.AddCommand(
		c.screenCmd(),
		c.statusCmd(),
		c.rulesCmd(),
		c.blockedCmd(),
		c.prefsCmd(),
	)
	return root
}

// setup loads configuration, configures logging and builds the application.
func (c *cli) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if c.dbPath != "" {
		cfg.Store.Path = c.dbPath
	}

	if err := log.Configure(cfg.Env, cfg.Log.Level); err != nil {
		return fmt.Errorf("logging configuration error: %w", err)
	}

	log.Debug(map[string]any{
		"version":       version,
		"env":           cfg.Env,
		"log_level":     cfg.Log.Level,
		"store":         cfg.Store.Path,
		"pattern_cache": cfg.Engine.PatternCache,
		"fp_rate":       cfg.Blocklist.FPRate,
	}, "Starting callscreend")

	app, err := buildApplication(cfg)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.app = app
	return nil
}
