package main

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/gitrdm/gokanterm/internal/config"
	"github.com/gitrdm/gokanterm/internal/logging"
	"github.com/gitrdm/gokanterm/internal/metrics"
	"github.com/gitrdm/gokanterm/pkg/dtree"
	"github.com/gitrdm/gokanterm/pkg/index"
	"github.com/gitrdm/gokanterm/pkg/unif"
)

var tracer = otel.Tracer("gokanterm.termindex")

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	dumpMetric bool

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "termindex",
		Short:         "Index first-order clauses and query them",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.Metrics.Dump {
				return nil
			}
			return metrics.WriteText(cmd.OutOrStdout(), prometheus.DefaultGatherer)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "override log format (text, json)")
	root.PersistentFlags().BoolVar(&a.dumpMetric, "metrics", false, "print metrics after the command")

	root.AddCommand(newQueryCmd(a), newUnifyCmd(a), newVersionCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.dumpMetric {
		cfg.Metrics.Dump = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	lc := cfg.Logging("termindex")
	lc.Output = cmd.ErrOrStderr()
	a.logger = logging.New(lc)
	return nil
}

// engine returns a unification engine with a fresh budget.
func (a *app) engine() unif.Engine {
	if a.cfg.Unification.Fuel <= 0 {
		return unif.Engine{}
	}
	return unif.Engine{Fuel: unif.NewFuel(a.cfg.Unification.Fuel)}
}

func parseMode(s string) (dtree.Mode, error) {
	for _, m := range []dtree.Mode{dtree.Unifiable, dtree.Generalization, dtree.Specialization} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q (want unifiable, generalization or specialization)", s)
}

func parseKind(s string) (index.Kind, error) {
	switch s {
	case "root":
		return index.RootIndex, nil
	case "unit", "unit_root":
		return index.UnitRootIndex, nil
	case "subterm":
		return index.SubtermIndex, nil
	}
	return 0, fmt.Errorf("unknown index %q (want root, unit or subterm)", s)
}
