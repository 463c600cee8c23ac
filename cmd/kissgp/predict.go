// SPDX-License-Identifier: MIT

package main

import (
	"math"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/katalvlaran/kissgp/config"
	"github.com/katalvlaran/kissgp/gp"
	"github.com/katalvlaran/kissgp/logging"
)

func newPredictCmd() *cobra.Command {
	var (
		model      string
		input      string
		fast       bool
		noise      bool
		withTarget bool
		z          float64
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict at the points of a CSV with a fitted snapshot",
		Long: `Predict restores a snapshot written by fit and writes, for every input
row, the posterior mean, variance and the band mean ± z·sd as CSV on
standard output.

With --with-target the last input column is a known target; the mean
absolute and root mean squared errors are logged.`,
		Example: "  kissgp predict --model model.yaml --input test.csv --fast-variance --z 2",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := logging.FromContext(ctx)

			snap, err := config.ReadSnapshot(model)
			if err != nil {
				return err
			}
			m, err := snap.Restore(gp.WithLogger(logger.Desugar()))
			if err != nil {
				return err
			}
			x, target, err := readCSV(input, withTarget)
			if err != nil {
				return err
			}

			opts := snap.Config.PredictOptions()
			if fast {
				opts = append(opts, gp.WithFastVariance())
			}
			if noise {
				opts = append(opts, gp.WithObservationNoise())
			}
			p, err := m.Predict(ctx, x, opts...)
			if err != nil {
				return err
			}
			if withTarget {
				abs := make([]float64, len(target))
				sq := make([]float64, len(target))
				for i, t := range target {
					abs[i] = math.Abs(p.Mean[i] - t)
					sq[i] = abs[i] * abs[i]
				}
				logger.Infow("prediction error",
					"snapshot", snap.ID,
					"rows", len(target),
					"mae", stat.Mean(abs, nil),
					"rmse", math.Sqrt(stat.Mean(sq, nil)))
			}
			lower, upper := p.ConfidenceRegion(z)

			return writePredictions(cmd.OutOrStdout(), x, p, lower, upper)
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "model.yaml", "snapshot written by fit")
	cmd.Flags().StringVar(&input, "input", "", "CSV of test inputs")
	cmd.Flags().BoolVar(&fast, "fast-variance", false, "LOVE variances instead of exact solves")
	cmd.Flags().BoolVar(&noise, "observation-noise", false, "include σ² in the variance")
	cmd.Flags().BoolVar(&withTarget, "with-target", false, "the last input column is a known target")
	cmd.Flags().Float64Var(&z, "z", 2, "band half-width in standard deviations")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
