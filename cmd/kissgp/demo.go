// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"math"
	"math/rand"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kissgp/config"
	"github.com/katalvlaran/kissgp/gp"
	"github.com/katalvlaran/kissgp/logging"
	"github.com/katalvlaran/kissgp/optim"
)

// demoNoise is the standard deviation of the noise added to the demo targets.
const demoNoise = 0.05

func newDemoCmd(a *app) *cobra.Command {
	var (
		points     int
		iterations int
		horizon    float64
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Fit a spectral mixture to a noisy sine and extrapolate",
		Long: `Demo draws points of sin(2πx) on [0, 1] with Gaussian noise, trains a
spectral-mixture kernel with Adam and prints the posterior on [0, horizon].
Kernel options other than the kernel itself come from the configuration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := logging.FromContext(ctx)
			cfg := *a.cfg
			cfg.Kernel = config.KernelSpectralMixture
			cfg.GridSize, cfg.FeatureDims, cfg.ExtractorHidden = 0, 0, nil
			cfg.Inference = config.InferenceExact
			if cmd.Flags().Changed("iterations") {
				cfg.Iterations = iterations
			}
			if points < 2 || !(horizon > 0) {
				return fmt.Errorf("demo: %w: need at least 2 points and a positive horizon", gp.ErrConfiguration)
			}

			rng := rand.New(rand.NewSource(cfg.Seed))
			x := mat.NewDense(points, 1, nil)
			y := make([]float64, points)
			for i := range y {
				v := float64(i) / float64(points-1)
				x.Set(i, 0, v)
				y[i] = math.Sin(2*math.Pi*v) + demoNoise*rng.NormFloat64()
			}

			m, err := config.Build(&cfg, x, y, gp.WithLogger(logger.Desugar()))
			if err != nil {
				return err
			}
			trace, err := optim.Run(ctx, gp.NewMarginalLogLikelihood(m), optim.NewAdam(cfg.LearningRate), cfg.Iterations,
				optim.WithLogger(logger.Desugar()), optim.WithLogEvery(logEvery))
			if err != nil {
				return fmt.Errorf("training: %w", err)
			}
			logger.Infow("demo trained", "loss_first", trace.First(), "loss_last", trace.Last())

			m.Eval()
			steps := int(math.Round(horizon*10)) + 1
			xs := mat.NewDense(steps, 1, nil)
			for i := 0; i < steps; i++ {
				xs.Set(i, 0, horizon*float64(i)/float64(steps-1))
			}
			p, err := m.Predict(ctx, xs, cfg.PredictOptions()...)
			if err != nil {
				return err
			}
			lower, upper := p.ConfidenceRegion(2)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "x\ttruth\tmean\tlower\tupper\t")
			for i := 0; i < steps; i++ {
				v := xs.At(i, 0)
				fmt.Fprintf(tw, "%.2f\t%.3f\t%.3f\t%.3f\t%.3f\t\n", v, math.Sin(2*math.Pi*v), p.Mean[i], lower[i], upper[i])
			}

			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&points, "points", 50, "training points on [0, 1]")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "training iterations; overrides the config")
	cmd.Flags().Float64Var(&horizon, "horizon", 2, "right end of the prediction range")

	return cmd
}
