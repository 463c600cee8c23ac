// SPDX-License-Identifier: MIT

package linalg

// Sparse is a row-sparse matrix with the same number of stored entries in
// every row. Interpolation matrices have exactly this shape: each row holds
// the weights of a fixed number of grid neighbours.
type Sparse struct {
	rows, cols, stride int
	idx                []int
	val                []float64
}

// NewSparse allocates a rows×cols matrix with stride stored entries per row.
// Panics on non-positive sizes (programmer error).
func NewSparse(rows, cols, stride int) *Sparse {
	if rows < 0 || cols <= 0 || stride <= 0 {
		panic("linalg: NewSparse: sizes must be positive")
	}

	return &Sparse{
		rows:   rows,
		cols:   cols,
		stride: stride,
		idx:    make([]int, rows*stride),
		val:    make([]float64, rows*stride),
	}
}

// Rows returns the row count.
func (s *Sparse) Rows() int { return s.rows }

// Cols returns the column count.
func (s *Sparse) Cols() int { return s.cols }

// Stride returns the number of stored entries per row.
func (s *Sparse) Stride() int { return s.stride }

// Set stores column col with value v into the given slot of row i.
func (s *Sparse) Set(i, slot, col int, v float64) {
	k := i*s.stride + slot
	s.idx[k] = col
	s.val[k] = v
}

// Row returns views of the column indices and values of row i.
func (s *Sparse) Row(i int) ([]int, []float64) {
	lo, hi := i*s.stride, (i+1)*s.stride

	return s.idx[lo:hi], s.val[lo:hi]
}

// RowDot returns row i · v, where v has length Cols().
func (s *Sparse) RowDot(i int, v []float64) float64 {
	idx, val := s.Row(i)
	sum := 0.0
	for k, j := range idx {
		sum += val[k] * v[j]
	}

	return sum
}

// MulVecTo computes dst = S·x (len(dst)=Rows, len(x)=Cols).
func (s *Sparse) MulVecTo(dst, x []float64) {
	for i := 0; i < s.rows; i++ {
		dst[i] = s.RowDot(i, x)
	}
}

// TMulVecTo computes dst = Sᵀ·y (len(dst)=Cols, len(y)=Rows).
func (s *Sparse) TMulVecTo(dst, y []float64) {
	for j := range dst {
		dst[j] = 0
	}
	for i := 0; i < s.rows; i++ {
		idx, val := s.Row(i)
		for k, j := range idx {
			dst[j] += val[k] * y[i]
		}
	}
}
