// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package wavetest provides utility functions for testing sources, filters and
// waves.
//
package wavetest

import (
	"github.com/db47h/wavegrid"
	"github.com/db47h/wavegrid/simtime"
	"github.com/pkg/errors"
)

// FuncSource is a function based wavegrid.Source. Signal values are computed
// on demand by calling Value with the signal's pipeline id and a cycle.
//
type FuncSource struct {
	Names []string
	// Formats defaults to Bit for all signals.
	Formats []wavegrid.Format
	Cycles  int
	// CycleTime defaults to 1ns.
	CycleTime simtime.Time
	Value     func(id, cycle int) int64

	// Samples counts the calls to Sample.
	Samples int
}

func (s *FuncSource) cycle() simtime.Time {
	if s.CycleTime.IsZero() {
		return simtime.New(1, simtime.NS)
	}
	return s.CycleTime
}

func (s *FuncSource) format(id int) wavegrid.Format {
	if s.Formats == nil {
		return wavegrid.BitFormat
	}
	return s.Formats[id]
}

// Signals implements wavegrid.Source.
func (s *FuncSource) Signals() ([]wavegrid.Signal[string], error) {
	out := make([]wavegrid.Signal[string], len(s.Names))
	for i, n := range s.Names {
		out[i] = wavegrid.Signal[string]{ID: n, Name: n, Format: s.format(i)}
	}
	return out, nil
}

// TimeRange implements wavegrid.Source.
func (s *FuncSource) TimeRange() (simtime.Range, error) {
	return simtime.Range{Start: s.Time(0), Stop: s.Time(s.Cycles)}, nil
}

// Time implements wavegrid.Source.
func (s *FuncSource) Time(cycle int) simtime.Time { return s.cycle().MustScale(uint64(cycle)) }

// CycleCount implements wavegrid.Source.
func (s *FuncSource) CycleCount() int { return s.Cycles }

// LookupID implements wavegrid.Source.
func (s *FuncSource) LookupID(name string) (int, error) {
	for i, n := range s.Names {
		if n == name {
			return i, nil
		}
	}
	return 0, errors.Wrapf(wavegrid.ErrNotFound, "%q", name)
}

// RevLookupID implements wavegrid.Source.
func (s *FuncSource) RevLookupID(id int) (string, error) {
	if id < 0 || id >= len(s.Names) {
		return "", errors.Wrapf(wavegrid.ErrIDOutOfRange, "id %d not in [0, %d)", id, len(s.Names))
	}
	return s.Names[id], nil
}

// Sample implements wavegrid.Source.
func (s *FuncSource) Sample(names []string, times simtime.Range) (*wavegrid.CycleValues, error) {
	s.Samples++
	start := int(simtime.Div(times.Start, s.cycle()))
	stop := int(simtime.Div(times.Stop, s.cycle()))
	if start > stop || stop > s.Cycles {
		return nil, errors.Wrapf(wavegrid.ErrInvalidRange, "cycles [%d, %d) not within [0, %d)", start, stop, s.Cycles)
	}
	ids := make([]int, len(names))
	for i, n := range names {
		id, err := s.LookupID(n)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	out := wavegrid.NewCycleValues(stop-start, len(names))
	for c := start; c < stop; c++ {
		for i, id := range ids {
			if s.format(id).IsComment() {
				continue
			}
			out.At(c-start, i).SetInt64(s.Value(id, c))
		}
	}
	return out, nil
}
