package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"tock/internal/classify"
	"tock/internal/config"
	"tock/internal/engine"
	"tock/internal/logging"
	"tock/internal/store/sqlite"
)

// isTTY checks if the current environment has a TTY available.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Color definitions for command output.
var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func errorStyle(msg string) string   { return red("✗ " + msg) }
func okStyle(msg string) string      { return green("✓ " + msg) }
func warnStyle(msg string) string    { return yellow("! " + msg) }
func runningStyle(msg string) string { return cyan(msg) }

// app holds the per-invocation wiring: config, store and engine.
type app struct {
	cfg    config.Config
	store  *sqlite.Store
	engine *engine.Engine
}

func (a *app) init(cmd *cobra.Command) error {
	if !isTTY() {
		color.NoColor = true
	}

	cfg, err := config.Load(
		config.WithOverride(func(c *config.Config) {
			if v := viper.GetString("data_dir"); v != "" {
				c.DataDir = v
			}
			if v := viper.GetInt("micro_threshold_seconds"); v > 0 {
				c.MicroThresholdSeconds = v
			}
		}),
	)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logging.Configure(cfg.LogPath(), cfg.LogLevel); err != nil {
		// A broken log file should never take the tool down.
		fmt.Fprintln(cmd.ErrOrStderr(), warnStyle("logging disabled: "+err.Error()))
	}

	table, err := classify.TableWithOverrides(cfg.Classification)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.DBPath())
	if err != nil {
		return err
	}
	if err := store.EnsureSchema(cmd.Context()); err != nil {
		_ = store.Close()
		return err
	}
	a.store = store
	a.engine = engine.New(store,
		engine.WithMicroThreshold(cfg.MicroThreshold()),
		engine.WithTable(table),
	)
	return nil
}

func (a *app) shutdown() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "tock",
		Short: "A queue-driven personal task and time tracker",
		Long: `tock keeps a single prioritized queue of work, times sessions
against it, and tracks tasks handed off to other people. Every state change
is one atomic transaction against a local SQLite store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.shutdown()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("data-dir", "", "data directory (default ~/.tock)")
	flags.Int("micro-threshold", 0, "micro-session boundary in seconds (default 30)")
	_ = viper.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = viper.BindPFlag("micro_threshold_seconds", flags.Lookup("micro-threshold"))
	viper.SetEnvPrefix("TOCK")
	viper.AutomaticEnv()

	rootCmd.AddCommand(
		newAddCommand(a),
		newModifyCommand(a),
		newAnnotateCommand(a),
		newDoneCommand(a),
		newCancelCommand(a),
		newQueueCommand(a),
		newStartCommand(a),
		newStopCommand(a),
		newIntervalCommand(a),
		newDropCommand(a),
		newSendCommand(a),
		newRecallCommand(a),
		newStatusCommand(a),
		newListCommand(a),
		newLogCommand(a),
	)
	return rootCmd
}

// parseWhen resolves a --at style flag value; empty means now. Only
// absolute RFC 3339 timestamps are accepted here; richer date expressions
// belong to a parsing layer outside the core.
func parseWhen(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q (want RFC 3339): %w", s, err)
	}
	return t, nil
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(cmd.OutOrStdout(), warnStyle(w))
	}
}
