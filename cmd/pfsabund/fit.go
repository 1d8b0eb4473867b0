package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-abund/abund"
	"github.com/cwbudde/algo-abund/grid"
	"github.com/cwbudde/algo-abund/internal/batch"
	"github.com/cwbudde/algo-abund/internal/metrics"
	"github.com/cwbudde/algo-abund/spectrum"
	"github.com/cwbudde/algo-abund/stellar"
)

func newFitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit [flags] spectrum.json ...",
		Short: "Fit Teff, logg, [Fe/H] and [alpha/Fe] of spectra",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFit(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}

	defaults := abund.DefaultConfig(stellar.ModeMedium)
	fs := cmd.Flags()
	fs.String("db", "grid.sqlite", "SQLite grid database")
	fs.String("grid-blue", defaults.BluePath, "grid path of the blue arm")
	fs.String("grid-red", defaults.RedPath, "grid path of the red arm")
	fs.Float64("dm", defaults.DistanceModulus, "distance modulus")
	fs.Float64("ddm", defaults.DistanceModulusErr, "distance modulus uncertainty")
	fs.Bool("fit-logg", false, "fit logg instead of fixing it to the photometric value")
	fs.Float64("key-quantum", 0, "round synthetic cache keys to this step (0 keeps exact keys)")
	fs.Int("workers", 0, "concurrent fits (0 uses all CPUs)")
	fs.String("output", "", "directory receiving the fitted spectra")
	fs.String("metrics-out", "", "write Prometheus text metrics to this file")
	a.bind(fs, map[string]string{
		"grid.db":       "db",
		"grid.blue":     "grid-blue",
		"grid.red":      "grid-red",
		"dm":            "dm",
		"ddm":           "ddm",
		"fit-logg":      "fit-logg",
		"cache.quantum": "key-quantum",
		"workers":       "workers",
		"output":        "output",
		"metrics.out":   "metrics-out",
	})
	return cmd
}

// solverConfig assembles the solve configuration from the bound settings.
func (a *app) solverConfig() (abund.Config, error) {
	mode, err := a.mode()
	if err != nil {
		return abund.Config{}, err
	}
	v := a.v
	cfg := abund.DefaultConfig(mode)
	cfg.Root = v.GetString("root")
	cfg.BluePath = v.GetString("grid.blue")
	cfg.RedPath = v.GetString("grid.red")
	cfg.DistanceModulus = v.GetFloat64("dm")
	cfg.DistanceModulusErr = v.GetFloat64("ddm")
	cfg.FitLogg = v.GetBool("fit-logg")
	cfg.KeyQuantum = v.GetFloat64("cache.quantum")
	return cfg, cfg.Validate()
}

func (a *app) runFit(ctx context.Context, w io.Writer, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := a.solverConfig()
	if err != nil {
		return err
	}

	specs := make([]*spectrum.Spectrum, len(files))
	for i, f := range files {
		if specs[i], err = spectrum.Read(f); err != nil {
			return err
		}
	}

	store, closeDB, err := openGrid(a.v.GetString("grid.db"))
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()

	solver, err := abund.NewSolver(cfg, grid.NewInterpolator(store), abund.WithLogger(a.logger.WithName("solver")))
	if err != nil {
		return err
	}
	rec := metrics.NewRecorder()
	runner, err := batch.New(solver,
		batch.WithWorkers(a.v.GetInt("workers")),
		batch.WithLogger(a.logger),
		batch.WithRecorder(rec),
		batch.WithApply(true),
	)
	if err != nil {
		return err
	}

	outcomes, runErr := runner.Run(ctx, specs)

	if dir := a.v.GetString("output"); dir != "" {
		if err := writeOutcomes(dir, files, outcomes); err != nil {
			return err
		}
	}
	if path := a.v.GetString("metrics.out"); path != "" {
		if err := rec.WriteTextfile(path); err != nil {
			return err
		}
	}
	if err := printOutcomes(w, outcomes); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d spectra failed", failed, len(outcomes))
	}
	return nil
}

func writeOutcomes(dir string, files []string, outcomes []batch.Outcome) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	for i, o := range outcomes {
		if o.Err != nil {
			continue
		}
		if err := spectrum.Write(filepath.Join(dir, filepath.Base(files[i])), o.Spectrum); err != nil {
			return err
		}
	}
	return nil
}

func printOutcomes(w io.Writer, outcomes []batch.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Spectrum\tTeff\tlogg\t[Fe/H]\t[a/Fe]\tConverged\tIterations\tError\n")
	fmt.Fprintf(tw, "--------\t----\t----\t------\t------\t---------\t----------\t-----\n")
	for _, o := range outcomes {
		id := o.JobID
		if o.Spectrum != nil && o.Spectrum.ID != "" {
			id = o.Spectrum.ID
		}
		if o.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t-\t%v\n", id, o.Err)
			continue
		}
		p, e := o.Result.Params, o.Result.Uncertainties
		fmt.Fprintf(tw, "%s\t%.0f±%.0f\t%.2f±%.2f\t%.2f±%.2f\t%.2f±%.2f\t%t\t%d\t\n",
			id, p.Teff, e.Teff, p.Logg, e.Logg, p.FeH, e.FeH, p.AlphaFe, e.AlphaFe,
			o.Result.Converged, o.Result.Iterations)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}
