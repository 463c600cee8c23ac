// SPDX-License-Identifier: MIT

// Package config is the declarative surface of a kissgp model: which kernel,
// whether to interpolate on a grid, solver budgets, the feature extractor and
// the training schedule.
//
// ⚙️ Sources, later wins:
//
//	defaults     struct tags (default:"...")
//	environment  KISSGP_* variables, through envconfig
//	YAML file    keys present in the file
//
// 🚀 Usage:
//
//	cfg, err := config.Load("model.yaml")
//	m, err := config.Build(cfg, x, y, gp.WithLogger(logger))
//	snap := config.NewSnapshot(cfg, m)
//	err = config.WriteSnapshot("fitted.yaml", snap)
//
// ❗ Validate wraps every problem with gp.ErrConfiguration so callers handle
// a bad file the same way as a bad option.
package config
