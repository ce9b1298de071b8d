package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/greenhouse-core/internal/forecast"
	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/config"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/database"
	"github.com/nerrad567/greenhouse-core/internal/infrastructure/logging"
	"github.com/nerrad567/greenhouse-core/internal/simulation"
)

// simulateOptions are the flags shared by the simulate subcommands.
type simulateOptions struct {
	seedFile string
	publish  bool
	window   int
}

func newSimulateCmd(configPath *string) *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay stored readings through the validator and controller",
		Long: `Simulate one day or a run of days over the readings in the catalog
database, printing the report as JSON. With --seed the simulation runs on
an in-memory catalog built from the seed file instead.`,
	}
	cmd.PersistentFlags().StringVar(&opts.seedFile, "seed", "", "simulate against this seed file in memory")
	cmd.PersistentFlags().BoolVar(&opts.publish, "publish", false, "store and publish each day report")
	cmd.PersistentFlags().IntVar(&opts.window, "window", 0, "forecast window in hourly steps (default from config)")

	cmd.AddCommand(newSimulateDayCmd(configPath, opts), newSimulateWeekCmd(configPath, opts))
	return cmd
}

func newSimulateDayCmd(configPath *string, opts *simulateOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "day <YYYY-MM-DD>",
		Short: "Simulate a single day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := greenhouse.ParseDay(args[0])
			if err != nil {
				return err
			}
			return simulate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), *configPath, opts, day, 1, false)
		},
	}
}

func newSimulateWeekCmd(configPath *string, opts *simulateOptions) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "week <from YYYY-MM-DD>",
		Short: "Simulate consecutive days and aggregate them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := greenhouse.ParseDay(args[0])
			if err != nil {
				return err
			}
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}
			return simulate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), *configPath, opts, from, days, true)
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of days to simulate")
	return cmd
}

// simulate runs n days from start and writes the report to w, logging to
// logTo. A single day prints a DayReport unless week is set.
func simulate(ctx context.Context, w, logTo io.Writer, configPath string, opts *simulateOptions, start time.Time, n int, week bool) error {
	cfg, log, err := loadConfig(configPath, true, logTo)
	if err != nil {
		return err
	}

	dbCfg := cfg.Database
	if opts.seedFile != "" {
		dbCfg = config.DatabaseConfig{Path: database.MemoryPath, BusyTimeout: cfg.Database.BusyTimeout}
	}
	st, err := openStore(ctx, dbCfg, opts.seedFile, log)
	if err != nil {
		return err
	}
	defer st.close(log)

	window := opts.window
	if window <= 0 {
		window = cfg.Control.ForecastWindow
	}
	orchestrator := simulation.New(forecast.NewEngine(),
		simulation.WithForecastWindow(window),
		simulation.WithLogger(log.Component("simulation")),
	)

	end := start.AddDate(0, 0, n).Add(-time.Nanosecond)
	readings, err := st.repo.ReadingsBetween(ctx, start, end)
	if err != nil {
		return fmt.Errorf("loading readings: %w", err)
	}
	log.Info("readings loaded", "from", greenhouse.FormatDay(start), "days", n, "count", len(readings))

	ds := st.registry.Dataset()
	var report any
	var perDay []simulation.DayReport
	if week {
		wr, err := orchestrator.SimulateWeek(ctx, greenhouse.Days(start, n), readings, ds)
		if err != nil {
			return fmt.Errorf("simulating week: %w", err)
		}
		report, perDay = wr, wr.PerDay
	} else {
		dr, err := orchestrator.SimulateDay(ctx, start, readings, ds)
		if err != nil {
			return fmt.Errorf("simulating day: %w", err)
		}
		report, perDay = dr, []simulation.DayReport{dr}
	}

	if opts.publish {
		if err := publishReports(ctx, cfg, st, perDay, log); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func publishReports(ctx context.Context, cfg *config.Config, st *store, reports []simulation.DayReport, log *logging.Logger) error {
	out, err := connectSinks(cfg, log)
	if err != nil {
		return err
	}
	defer out.close(log)

	p := out.publisher(st.repo)
	for _, r := range reports {
		if err := p.PublishDay(ctx, r); err != nil {
			return fmt.Errorf("publishing report %s: %w", r.Date, err)
		}
		log.Info("report published", "date", r.Date, "alerts", r.Summary.TotalAlerts)
	}
	return nil
}
