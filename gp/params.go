// SPDX-License-Identifier: MIT
// Package: gp
//
// Purpose:
//   - One flat parameter vector over heterogeneous components (kernel, mean,
//     likelihood, feature extractor) plus the record of which slice belongs
//     to which component.

package gp

import "fmt"

// component is anything owning raw parameters.
type component interface {
	NumParams() int
	Params() []float64
	SetParams(raw []float64) error
	ParamNames() []string
}

// Block names one component's slice of the flat vector.
type Block struct {
	Name   string
	Offset int
	Len    int
}

// ParamSet maps a flat vector onto the model's components.
type ParamSet struct {
	blocks []Block
	comps  []component
	size   int
}

func newParamSet(names []string, comps []component) *ParamSet {
	ps := &ParamSet{comps: comps}
	for i, c := range comps {
		ps.blocks = append(ps.blocks, Block{Name: names[i], Offset: ps.size, Len: c.NumParams()})
		ps.size += c.NumParams()
	}

	return ps
}

// Len returns the total parameter count.
func (ps *ParamSet) Len() int { return ps.size }

// Blocks returns the component slices in vector order.
func (ps *ParamSet) Blocks() []Block { return append([]Block(nil), ps.blocks...) }

// Block returns the slice record named name.
func (ps *ParamSet) Block(name string) (Block, bool) {
	for _, b := range ps.blocks {
		if b.Name == name {
			return b, true
		}
	}

	return Block{}, false
}

// Vector returns the current raw parameters.
func (ps *ParamSet) Vector() []float64 {
	v := make([]float64, 0, ps.size)
	for _, c := range ps.comps {
		v = append(v, c.Params()...)
	}

	return v
}

// SetVector distributes v back to the components.
func (ps *ParamSet) SetVector(v []float64) error {
	if len(v) != ps.size {
		return configErrorf(opSetParameters, ErrParamCount)
	}
	for i, b := range ps.blocks {
		if err := ps.comps[i].SetParams(v[b.Offset : b.Offset+b.Len]); err != nil {
			return configErrorf(opSetParameters, err)
		}
	}

	return nil
}

// Names returns "<block>.<parameter>" for every entry of the vector.
func (ps *ParamSet) Names() []string {
	out := make([]string, 0, ps.size)
	for i, b := range ps.blocks {
		for _, n := range ps.comps[i].ParamNames() {
			out = append(out, fmt.Sprintf("%s.%s", b.Name, n))
		}
	}

	return out
}

// slice returns the part of a gradient-sized vector that belongs to block i.
func (ps *ParamSet) slice(v []float64, i int) []float64 {
	b := ps.blocks[i]

	return v[b.Offset : b.Offset+b.Len]
}
