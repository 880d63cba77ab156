// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wavegrid

import (
	"math/big"
)

// A Slice holds the values of a range of signals over a range of cycles.
//
// Signal and cycle arguments to Slice methods are absolute (wave) indices. The
// name and format tables are shared with the Wave the slice came from.
//
type Slice struct {
	data    *CycleValues
	names   []string
	formats []Format

	Signals Span
	Cycles  Span
}

// Value returns the value of signal at cycle, or nil if either is outside the
// slice.
//
func (s *Slice) Value(signal, cycle int) *big.Int {
	if !s.Signals.Contains(signal) || !s.Cycles.Contains(cycle) {
		return nil
	}
	return s.data.At(cycle-s.Cycles.Start, signal-s.Signals.Start)
}

// FormattedValue returns the value of signal at cycle rendered with the
// signal's format.
//
func (s *Slice) FormattedValue(signal, cycle int) (string, bool) {
	v := s.Value(signal, cycle)
	if v == nil {
		return "", false
	}
	return FormatValue(v, s.formats[signal]), true
}

// Name returns the name of a signal.
//
func (s *Slice) Name(signal int) string { return s.names[signal] }

// Formatter returns the format of a signal.
//
func (s *Slice) Formatter(signal int) Format { return s.formats[signal] }

// Column returns the values of a single signal over the slice's cycles.
//
func (s *Slice) Column(signal int) ([]*big.Int, error) {
	if !s.Signals.Contains(signal) {
		return nil, idOutOfRange(signal, s.Signals.End)
	}
	col := make([]*big.Int, s.Cycles.Len())
	for i := range col {
		col[i] = s.data.At(i, signal-s.Signals.Start)
	}
	return col, nil
}

// NextTransition returns the first cycle in the slice after start where the
// value of signal differs from its value at start.
//
func (s *Slice) NextTransition(signal, start int) (int, bool) {
	ref := s.Value(signal, start)
	if ref == nil {
		return 0, false
	}
	return s.nextDiff(signal, start, ref)
}

// PrevTransition returns the last cycle in the slice before start where the
// value of signal differs from its value at start.
//
func (s *Slice) PrevTransition(signal, start int) (int, bool) {
	ref := s.Value(signal, start)
	if ref == nil {
		return 0, false
	}
	return s.prevDiff(signal, start, ref)
}

func (s *Slice) nextDiff(signal, from int, ref *big.Int) (int, bool) {
	if !s.Signals.Contains(signal) {
		return 0, false
	}
	col := signal - s.Signals.Start
	for c := max(from, s.Cycles.Start); c < s.Cycles.End; c++ {
		if s.data.At(c-s.Cycles.Start, col).Cmp(ref) != 0 {
			return c, true
		}
	}
	return 0, false
}

func (s *Slice) prevDiff(signal, from int, ref *big.Int) (int, bool) {
	if !s.Signals.Contains(signal) {
		return 0, false
	}
	col := signal - s.Signals.Start
	for c := min(from, s.Cycles.End-1); c >= s.Cycles.Start; c-- {
		if s.data.At(c-s.Cycles.Start, col).Cmp(ref) != 0 {
			return c, true
		}
	}
	return 0, false
}
