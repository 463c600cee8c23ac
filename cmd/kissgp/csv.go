// SPDX-License-Identifier: MIT

package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/kissgp/gp"
)

var (
	// ErrNoRows indicates a CSV file without data rows.
	ErrNoRows = errors.New("kissgp: no data rows")

	// ErrColumns indicates a CSV file with too few columns.
	ErrColumns = errors.New("kissgp: too few columns")
)

// readCSV loads a numeric table. With withTarget the last column is returned
// as the target vector. A first row that does not parse is taken as a header.
func readCSV(path string, withTarget bool) (*mat.Dense, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	x, y, err := parseCSV(f, withTarget)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	return x, y, nil
}

func parseCSV(r io.Reader, withTarget bool) (*mat.Dense, []float64, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) > 0 {
		if _, err := parseRow(records[0]); err != nil {
			records = records[1:]
		}
	}
	if len(records) == 0 {
		return nil, nil, ErrNoRows
	}

	cols := len(records[0])
	minCols := 1
	if withTarget {
		minCols = 2
	}
	if cols < minCols {
		return nil, nil, ErrColumns
	}
	d := cols
	if withTarget {
		d--
	}

	x := mat.NewDense(len(records), d, nil)
	var y []float64
	if withTarget {
		y = make([]float64, len(records))
	}
	for i, rec := range records {
		row, err := parseRow(rec)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		x.SetRow(i, row[:d])
		if withTarget {
			y[i] = row[d]
		}
	}

	return x, y, nil
}

func parseRow(rec []string) ([]float64, error) {
	row := make([]float64, len(rec))
	for j, field := range rec {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, err
		}
		row[j] = v
	}

	return row, nil
}

// writePredictions writes one row per test point: the inputs, then mean,
// variance and the confidence band.
func writePredictions(w io.Writer, x *mat.Dense, p *gp.Prediction, lower, upper []float64) error {
	n, d := x.Dims()
	cw := csv.NewWriter(w)
	header := make([]string, 0, d+4)
	for j := 0; j < d; j++ {
		header = append(header, fmt.Sprintf("x%d", j))
	}
	header = append(header, "mean", "variance", "lower", "upper")
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, d+4)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			rec[j] = formatFloat(x.At(i, j))
		}
		rec[d] = formatFloat(p.Mean[i])
		rec[d+1] = formatFloat(p.Variance[i])
		rec[d+2] = formatFloat(lower[i])
		rec[d+3] = formatFloat(upper[i])
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()

	return cw.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', 10, 64) }
