// SPDX-License-Identifier: MIT

// Command kissgp fits Gaussian process regression models to CSV data, stores
// them as YAML snapshots and queries them.
//
//	kissgp fit --train train.csv --out model.yaml
//	kissgp predict --model model.yaml --input test.csv --fast-variance
//	kissgp demo
//
// Model options come from KISSGP_* environment variables and an optional
// --config YAML file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
