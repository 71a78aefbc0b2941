package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sarchlab/spadverify/accel"
	"github.com/sarchlab/spadverify/api"
	"github.com/sarchlab/spadverify/config"
	"github.com/sarchlab/spadverify/gate"
	"github.com/sarchlab/spadverify/harness"
	"github.com/sarchlab/spadverify/verify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type app struct {
	cfg      config.Config
	cfgPath  string
	logLevel string
	lint     bool
	exit     func(int)
}

func newRootCmd(exit func(int)) *cobra.Command {
	a := &app{cfg: config.Default(), exit: exit}

	cmd := &cobra.Command{
		Use:          "bbmatmul",
		Short:        "Check a scratchpad matrix multiply against a host reference",
		SilenceUsage: true,
		RunE:         a.run,
	}

	f := cmd.Flags()
	f.StringVar(&a.cfgPath, "config", "", "YAML configuration file")
	f.IntVar(&a.cfg.Dim, "dim", a.cfg.Dim, "matrix dimension")
	f.Int64Var(&a.cfg.WeightSeed, "weight-seed", a.cfg.WeightSeed,
		"seed of the weight matrix")
	f.Int64Var(&a.cfg.InputSeed, "input-seed", a.cfg.InputSeed,
		"seed of the input matrix")
	f.StringVar(&a.cfg.Scenario, "scenario", a.cfg.Scenario,
		"operand fill: seeded or zero")
	f.BoolVar(&a.cfg.Multicore, "multicore", a.cfg.Multicore,
		"gate the scratchpad to a single execution unit")
	f.IntVar(&a.cfg.Units, "units", a.cfg.Units,
		"number of execution units in multicore mode")
	f.IntVar(&a.cfg.DesignatedUnit, "hart", a.cfg.DesignatedUnit,
		"execution unit that runs the test in multicore mode")
	f.BoolVar(&a.cfg.Monitor, "monitor", a.cfg.Monitor,
		"serve the akita monitor while simulating")
	f.BoolVar(&a.cfg.Dump, "dump", a.cfg.Dump,
		"print the matrices to stderr")
	f.BoolVar(&a.lint, "lint", false,
		"record the offload sequence and print a hazard report to stderr")
	f.StringVar(&a.logLevel, "log-level", "warn",
		"trace, debug, info, warn, or error")

	return cmd
}

func (a *app) run(cmd *cobra.Command, _ []string) error {
	if err := a.setupLogging(cmd.ErrOrStderr()); err != nil {
		return err
	}

	if err := a.loadConfig(cmd); err != nil {
		return err
	}

	p := config.MakePlatformBuilder().
		WithConfig(a.cfg).
		WithMonitor(a.cfg.Monitor).
		Build("Platform")

	if p.Monitor != nil {
		p.Monitor.StartServer()
	}

	var port api.Port = p.Driver
	var rec *verify.Recorder
	if a.lint {
		rec = verify.NewRecorder(p.Driver)
		port = rec
	}

	var (
		r   *harness.Result
		err error
	)
	if a.cfg.Multicore {
		r, err = a.runUnits(cmd.Context(), port)
	} else {
		r, err = harness.Run(port, a.cfg.HarnessOptions())
	}
	if err != nil {
		return err
	}

	if a.cfg.Dump {
		r.Dump(cmd.ErrOrStderr())
	}

	if rec != nil {
		verify.WriteReport(cmd.ErrOrStderr(), rec.Commands(),
			verify.RunLint(rec.Commands()))
	}

	if err := r.WriteReport(cmd.OutOrStdout()); err != nil {
		return err
	}

	if a.cfg.Multicore {
		a.exit(0)
	}

	return nil
}

// runUnits starts every execution unit. The gate admits only the
// designated one; the others stay parked until it has finished.
func (a *app) runUnits(
	ctx context.Context,
	port api.Port,
) (*harness.Result, error) {
	g := gate.New(true, a.cfg.DesignatedUnit)

	ctx, finished := context.WithCancel(ctx)
	defer finished()

	eg, ctx := errgroup.WithContext(ctx)

	var result *harness.Result
	for unit := 0; unit < a.cfg.Units; unit++ {
		eg.Go(func() error {
			r, err := harness.RunUnit(ctx, g, unit, port, a.cfg.HarnessOptions())
			switch {
			case errors.Is(err, gate.ErrExcluded):
				slog.Debug("Unit parked", "unit", unit)
				return nil
			case err != nil:
				return fmt.Errorf("unit %d: %w", unit, err)
			}

			result = r
			finished()

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	if a.cfgPath == "" {
		return a.cfg.Validate()
	}

	fromFile, err := config.ReadFile(a.cfgPath)
	if err != nil {
		return err
	}

	flags := a.cfg
	a.cfg = fromFile

	f := cmd.Flags()
	override := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}

	override("dim", func() { a.cfg.Dim = flags.Dim })
	override("weight-seed", func() { a.cfg.WeightSeed = flags.WeightSeed })
	override("input-seed", func() { a.cfg.InputSeed = flags.InputSeed })
	override("scenario", func() { a.cfg.Scenario = flags.Scenario })
	override("multicore", func() { a.cfg.Multicore = flags.Multicore })
	override("units", func() { a.cfg.Units = flags.Units })
	override("hart", func() { a.cfg.DesignatedUnit = flags.DesignatedUnit })
	override("monitor", func() { a.cfg.Monitor = flags.Monitor })
	override("dump", func() { a.cfg.Dump = flags.Dump })

	return a.cfg.Validate()
}

func (a *app) setupLogging(w io.Writer) error {
	level, err := parseLevel(a.logLevel)
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})))

	return nil
}

func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "trace":
		return min(accel.LevelTrace, slog.LevelInfo), nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}
