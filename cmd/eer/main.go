// Command eer computes Equal Error Rates for spoof detection scores at
// utterance, segment and millisecond granularity.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-eer"
	"github.com/jamesainslie/go-eer/internal/config"
	"github.com/jamesainslie/go-eer/internal/logging"
	"github.com/jamesainslie/go-eer/internal/store"
)

// Set via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand once flags are parsed.
type app struct {
	cfgPath   string
	logLevel  string
	logFormat string
	database  string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "eer",
		Short:         "Histogram-based Equal Error Rate for spoof detection scores",
		Version:       fmt.Sprintf("%s (%s, %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "config file (.toml, .yaml or .json; default $"+config.EnvConfig+")")
	pf.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	pf.StringVar(&a.logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&a.database, "db", "", "SQLite run registry to record runs in")

	root.AddCommand(
		newComputeCmd(a),
		newMseerCmd(a),
		newAccuracyCmd(a),
		newCombineCmd(a),
		newRunsCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("db") {
		cfg.Database = a.database
	}

	lc, err := cfg.Logging()
	if err != nil {
		return err
	}
	lc.Output = cmd.ErrOrStderr()
	a.cfg = cfg
	a.logger = logging.New(lc)
	return nil
}

// eerOptions translates the configuration into computation options.
func (a *app) eerOptions() []eer.Option {
	opts := []eer.Option{
		eer.WithBounds(a.cfg.Minval, a.cfg.Maxval),
		eer.WithWorkers(a.cfg.Workers),
		eer.WithTolerance(a.cfg.Tolerance),
		eer.WithLogger(a.logger),
	}
	if a.cfg.Resolution > 0 {
		opts = append(opts, eer.WithResolution(a.cfg.Resolution))
	}
	if a.cfg.NegativeClass {
		opts = append(opts, eer.WithNegativeClass())
	}
	if a.cfg.StrictLengths {
		opts = append(opts, eer.WithStrictLengths())
	}
	return opts
}

// openStore opens the run registry, or returns nil when none is configured.
func (a *app) openStore() (*store.Store, error) {
	if a.cfg.Database == "" {
		return nil, nil
	}
	return store.Open(a.cfg.Database)
}
