// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wavegrid

import (
	"math/big"

	"github.com/pkg/errors"
)

// CycleValues is a dense matrix of sampled values. Rows are cycles and columns
// are signals in the order they were requested.
//
type CycleValues struct {
	rows, cols int
	data       []big.Int
}

// NewCycleValues returns a zeroed matrix of the given dimensions.
//
func NewCycleValues(cycles, signals int) *CycleValues {
	if cycles < 0 || signals < 0 {
		panic("wavegrid: negative CycleValues dimension")
	}
	return &CycleValues{rows: cycles, cols: signals, data: make([]big.Int, cycles*signals)}
}

// Dims returns the number of cycles (rows) and signals (columns) in v.
//
func (v *CycleValues) Dims() (cycles, signals int) {
	return v.rows, v.cols
}

// At returns the value for the given row and column. The returned value is
// owned by v and may be modified in place.
//
func (v *CycleValues) At(cycle, signal int) *big.Int {
	if cycle < 0 || cycle >= v.rows || signal < 0 || signal >= v.cols {
		panic("wavegrid: CycleValues index out of range")
	}
	return &v.data[cycle*v.cols+signal]
}

// checkDims returns an ErrInternal error if v is not of the expected shape.
func (v *CycleValues) checkDims(cycles, signals int) error {
	if v.rows != cycles || v.cols != signals {
		return errors.Wrapf(ErrInternal, "got %dx%d values, expected %dx%d", v.rows, v.cols, cycles, signals)
	}
	return nil
}
