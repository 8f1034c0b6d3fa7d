package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"psyphy/adapters/excel"
	"psyphy/adapters/fit"
	"psyphy/adapters/memory"
	"psyphy/app"
	"psyphy/domain/core"
	"psyphy/domain/psychometric"
	"psyphy/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "psyphy-analyze",
		Short: "Offline threshold estimation from trial tables",
	}

	rootCmd.AddCommand(newFitCmd(), newSigmaCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newFitCmd() *cobra.Command {
	var (
		exportPath string
		lapse      float64
		guess      float64
		freeAsym   bool
	)

	c := &cobra.Command{
		Use:   "fit [trial-table]",
		Short: "Fit psychometric functions to an xlsx or csv trial table",
		Long: `Fit every sigmoid family to a trial table and print the per-family
threshold estimates.

Example: psyphy-analyze fit trials.xlsx --export report.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			obs, err := excel.NewTrialTableReader(args[0]).Read()
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			svc := app.NewAnalysisService(fit.NewLeastSquares(), memory.NewTrialLedger(), cfg.Fitter)
			opts := psychometric.DefaultFitOptions()
			opts.Guess = guess
			opts.Lapse = lapse
			opts.FreeAsymptotes = freeAsym

			ctx := c.Context()
			estimate, err := svc.EstimateFromObservations(ctx, obs, opts)
			if err != nil {
				return err
			}

			printEstimate(estimate, len(obs))

			if exportPath != "" {
				return exportEstimate(ctx, estimate, obs, exportPath)
			}
			return nil
		},
	}

	c.Flags().StringVar(&exportPath, "export", "", "write an xlsx report to this path")
	c.Flags().Float64Var(&guess, "guess", 0, "fixed guess rate gamma")
	c.Flags().Float64Var(&lapse, "lapse", psychometric.DefaultLapse, "fixed lapse rate lambda")
	c.Flags().BoolVar(&freeAsym, "free-asymptotes", false, "estimate gamma and lambda from the data")
	return c
}

func newSigmaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sigma [intensity...]",
		Short: "Print the blur sigma for display intensities",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			svc := app.NewStimulusService(cfg.Stimulus)

			for _, arg := range args {
				var intensity float64
				if _, err := fmt.Sscanf(arg, "%g", &intensity); err != nil {
					return fmt.Errorf("intensity %q is not numeric", arg)
				}
				clamped, sigma := svc.SigmaFor(intensity)
				fmt.Printf("intensity %6.2f -> sigma %6.3f\n", clamped.Float(), sigma)
			}
			return nil
		},
	}
}

func printEstimate(estimate *app.ThresholdEstimate, trialCount int) {
	fmt.Printf("Fitted %d observations\n\n", trialCount)
	for name, res := range estimate.Results {
		fmt.Printf("%-20s threshold=%7.3f scale=%7.3f R2=%.4f iterations=%d\n",
			name, res.Threshold(), res.Params.Scale, res.RSquared, res.Iterations)
	}
	for name, msg := range estimate.Failures {
		fmt.Printf("%-20s failed: %s\n", name, msg)
	}
	fmt.Printf("\nBest fit %s, threshold %.3f (spread %.1f%%)\n",
		estimate.Best, estimate.Threshold, estimate.Spread*100)
}

func exportEstimate(ctx context.Context, estimate *app.ThresholdEstimate,
	obs []psychometric.TrialObservation, path string) error {

	session := &psychometric.Session{
		ID:          core.SessionID(core.NewID()),
		Participant: "offline",
		StartedAt:   core.Timestamp(time.Now()),
	}
	results := make([]*psychometric.FitResult, 0, len(estimate.Results))
	for _, res := range estimate.Results {
		results = append(results, res)
	}

	if err := excel.NewResultsExporter().Export(ctx, session, obs, results, path); err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", path)
	return nil
}
