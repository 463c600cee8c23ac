// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/kissgp/gp"
)

// Param is one named raw parameter value.
type Param struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

// Snapshot is a fitted model at rest: the config that builds it, the raw
// parameters and the training data. Restoring rebuilds the model from the
// config and data, then sets the parameters.
type Snapshot struct {
	ID        string      `yaml:"id"`
	CreatedAt time.Time   `yaml:"created_at"`
	Config    Config      `yaml:"config"`
	Loss      float64     `yaml:"loss,omitempty"`
	Params    []Param     `yaml:"params"`
	Inputs    [][]float64 `yaml:"inputs,flow"`
	Targets   []float64   `yaml:"targets,flow"`
}

// NewSnapshot captures m, built from c, under a fresh id.
func NewSnapshot(c *Config, m *gp.Model) *Snapshot {
	names := m.Params().Names()
	theta := m.Parameters()
	params := make([]Param, len(theta))
	for i := range theta {
		params[i] = Param{Name: names[i], Value: theta[i]}
	}
	x := m.TrainingInputs()
	n, _ := x.Dims()
	inputs := make([][]float64, n)
	for i := range inputs {
		inputs[i] = append([]float64(nil), x.RawRowView(i)...)
	}

	return &Snapshot{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Config:    *c,
		Params:    params,
		Inputs:    inputs,
		Targets:   m.Targets(),
	}
}

// Restore rebuilds the model, checks the parameter names line up and sets the
// stored values. The model is returned in EVAL mode.
func (s *Snapshot) Restore(extra ...gp.Option) (*gp.Model, error) {
	if len(s.Inputs) == 0 {
		return nil, configErrorf(opRestore, fmt.Errorf("%w: no training data", ErrSnapshot))
	}
	d := len(s.Inputs[0])
	x := mat.NewDense(len(s.Inputs), d, nil)
	for i, row := range s.Inputs {
		if len(row) != d {
			return nil, configErrorf(opRestore, fmt.Errorf("%w: ragged inputs at row %d", ErrSnapshot, i))
		}
		x.SetRow(i, row)
	}
	cfg := s.Config
	m, err := Build(&cfg, x, s.Targets, extra...)
	if err != nil {
		return nil, configErrorf(opRestore, err)
	}

	names := m.Params().Names()
	if len(names) != len(s.Params) {
		return nil, configErrorf(opRestore, fmt.Errorf("%w: %d parameters stored, model has %d", ErrSnapshot, len(s.Params), len(names)))
	}
	theta := make([]float64, len(names))
	for i, p := range s.Params {
		if p.Name != names[i] {
			return nil, configErrorf(opRestore, fmt.Errorf("%w: parameter %d is %q, model expects %q", ErrSnapshot, i, p.Name, names[i]))
		}
		theta[i] = p.Value
	}
	if err := m.SetParameters(theta); err != nil {
		return nil, configErrorf(opRestore, err)
	}
	m.Eval()

	return m, nil
}

// WriteSnapshot stores s as YAML at path.
func WriteSnapshot(path string, s *Snapshot) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return configErrorf(opWrite, fmt.Errorf("marshaling snapshot: %w", err))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return configErrorf(opWrite, fmt.Errorf("writing snapshot: %w", err))
	}

	return nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configErrorf(opRead, fmt.Errorf("reading snapshot: %w", err))
	}
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, configErrorf(opRead, fmt.Errorf("parsing snapshot: %w", err))
	}

	return &s, nil
}
