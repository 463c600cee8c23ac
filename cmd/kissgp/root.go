// SPDX-License-Identifier: MIT

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/kissgp/config"
	"github.com/katalvlaran/kissgp/logging"
)

// app is the state shared by the subcommands once the root has run.
type app struct {
	configPath  string
	logLevel    string
	development bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "kissgp",
		Short: "Scalable Gaussian process regression",
		Long: `kissgp fits exact Gaussian process regression models with structured
kernel interpolation, conjugate gradients and stochastic Lanczos quadrature.

Configuration is read from KISSGP_* environment variables, then from the
file given with --config.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the config")
	root.PersistentFlags().BoolVar(&a.development, "dev", false, "human-readable console logs")

	root.AddCommand(newFitCmd(a), newPredictCmd(), newDemoCmd(a))

	return root
}

// setup loads the configuration and puts a logger in the command context.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.New(cfg.LogLevel, a.development)
	cmd.SetContext(logging.WithLogger(ctx, logger))

	return nil
}
