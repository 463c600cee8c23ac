// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/katalvlaran/kissgp/config"
	"github.com/katalvlaran/kissgp/gp"
	"github.com/katalvlaran/kissgp/logging"
	"github.com/katalvlaran/kissgp/optim"
)

// logEvery is the training log cadence of the CLI.
const logEvery = 10

// ErrLBFGSNeedsExact rejects L-BFGS on the stochastic iterative objective.
var ErrLBFGSNeedsExact = errors.New("kissgp: --lbfgs needs exact inference")

func newFitCmd(a *app) *cobra.Command {
	var (
		train      string
		out        string
		iterations int
		lbfgs      bool
	)
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit hyperparameters to a training CSV and write a snapshot",
		Long: `Fit reads a CSV whose last column is the target, maximises the marginal
log likelihood and writes the fitted model as a YAML snapshot.

Adam is used by default. --lbfgs switches to L-BFGS, which needs the
deterministic exact objective.`,
		Example: "  kissgp fit --train train.csv --out model.yaml\n  kissgp fit -c ski.yaml --train big.csv --out ski-model.yaml --iterations 200",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := logging.FromContext(ctx)
			cfg := *a.cfg
			if cmd.Flags().Changed("iterations") {
				cfg.Iterations = iterations
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if lbfgs && cfg.Inference != config.InferenceExact {
				return ErrLBFGSNeedsExact
			}

			x, y, err := readCSV(train, true)
			if err != nil {
				return err
			}
			n, d := x.Dims()
			mu, sd := stat.MeanStdDev(y, nil)
			logger.Infow("training data", "path", train, "rows", n, "dims", d, "target_mean", mu, "target_sd", sd)

			m, err := config.Build(&cfg, x, y, gp.WithLogger(logger.Desugar()))
			if err != nil {
				return err
			}
			mll := gp.NewMarginalLogLikelihood(m)
			loopOpts := []optim.Option{optim.WithLogger(logger.Desugar()), optim.WithLogEvery(logEvery)}
			var trace *optim.Trace
			if lbfgs {
				trace, err = optim.LBFGS(ctx, mll, optim.LBFGSOptions{MaxIterations: cfg.Iterations}, loopOpts...)
			} else {
				trace, err = optim.Run(ctx, mll, optim.NewAdam(cfg.LearningRate), cfg.Iterations, loopOpts...)
			}
			if err != nil {
				return fmt.Errorf("training: %w", err)
			}

			snap := config.NewSnapshot(&cfg, m)
			snap.Loss = trace.Last()
			if err := config.WriteSnapshot(out, snap); err != nil {
				return err
			}
			logger.Infow("snapshot written",
				"path", out,
				"id", snap.ID,
				"loss", snap.Loss,
				"noise", m.Likelihood().Noise())
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.6f\n", snap.ID, out, snap.Loss)

			return nil
		},
	}
	cmd.Flags().StringVar(&train, "train", "", "training CSV, target in the last column")
	cmd.Flags().StringVarP(&out, "out", "o", "model.yaml", "snapshot path")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "training iterations; overrides the config")
	cmd.Flags().BoolVar(&lbfgs, "lbfgs", false, "train with L-BFGS instead of Adam")
	_ = cmd.MarkFlagRequired("train")

	return cmd
}
