// SPDX-License-Identifier: MIT

// Package grid implements structured kernel interpolation (SKI / KISS-GP).
//
// A Grid is a Cartesian product of evenly spaced axes that covers the
// expected input box plus a small padding. Inputs are tied to the grid by a
// sparse interpolation matrix W (cubic convolution, 4 neighbours per
// dimension, or linear, 2 neighbours). Kernel wraps a separable base kernel
// and exposes the implicit covariance W·K_grid·Wᵀ, where K_grid is a
// (sum of) Kronecker product(s) of Toeplitz matrices.
//
// The layer never rescales inputs: points outside the supported range are
// rejected with ErrOutOfBounds. Grids are immutable; a new resolution needs a
// new Grid and a new model.
//
// Beyond 3–4 dimensions the grid size Π_d m_d explodes; compress inputs first
// (see package feature).
package grid
