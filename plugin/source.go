// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package plugin adapts externally provided trace loaders to wavegrid.Source.
//
// A loader reports signal declarations and a cycle count, and answers
// sampling requests with big-endian byte strings that Source converts to
// integers. Discovery of loaders is left to the caller.
//
package plugin

import (
	"log/slog"

	"github.com/db47h/wavegrid"
	"github.com/db47h/wavegrid/simtime"
	"github.com/pkg/errors"
)

// Spec is a signal declaration reported by a Loader.
//
type Spec struct {
	Name   string
	Format wavegrid.Format
}

// BitMatrix holds the reply to a Load request.
//
type BitMatrix interface {
	// Get returns the value of the given column (request order) at the given
	// row (relative cycle) as big-endian bytes.
	Get(column, row int) []byte
}

// Loader is a trace loader. Cycles are counted in units of the cycle time the
// loader was opened with.
//
type Loader interface {
	Signals() ([]Spec, error)
	CycleCount() (int, error)
	// Load returns the values of the named signals over cycles [start, stop).
	Load(names []string, start, stop int) (BitMatrix, error)
}

// Opener opens a loader for input, with a cycle time expressed in picoseconds.
//
type Opener func(input string, cycleTimePS uint64) (Loader, error)

// Source is a wavegrid.Source backed by a Loader.
//
type Source struct {
	loader  Loader
	signals []Spec
	ids     map[string]int
	cycle   simtime.Time
	cycles  int
	log     *slog.Logger
}

// Open opens input with open and returns a Source over the resulting loader.
// The cycle time must be a whole number of picoseconds. logger may be nil.
//
func Open(open Opener, input string, cycle simtime.Time, logger *slog.Logger) (*Source, error) {
	ps, ok := cycle.In(simtime.PS)
	if !ok || ps == 0 {
		return nil, errors.Wrapf(simtime.ErrInvalidTime, "cycle time %v is not representable in ps", cycle)
	}
	l, err := open(input, ps)
	if err != nil {
		return nil, errors.Wrapf(err, "open %q", input)
	}
	return New(l, cycle, logger)
}

// New returns a Source over an already opened loader.
//
func New(l Loader, cycle simtime.Time, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sigs, err := l.Signals()
	if err != nil {
		return nil, errors.Wrap(err, "list signals")
	}
	n, err := l.CycleCount()
	if err != nil {
		return nil, errors.Wrap(err, "count cycles")
	}
	s := &Source{
		loader:  l,
		signals: sigs,
		ids:     make(map[string]int, len(sigs)),
		cycle:   cycle,
		cycles:  n,
		log:     logger.With(slog.String("component", "plugin")),
	}
	for i, sig := range sigs {
		s.ids[sig.Name] = i
	}
	s.log.Debug("open loader", slog.Int("signals", len(sigs)), slog.Int("cycles", n))
	return s, nil
}

// Signals implements wavegrid.Source.
func (s *Source) Signals() ([]wavegrid.Signal[string], error) {
	out := make([]wavegrid.Signal[string], len(s.signals))
	for i, sig := range s.signals {
		out[i] = wavegrid.Signal[string]{ID: sig.Name, Name: sig.Name, Format: sig.Format}
	}
	return out, nil
}

// TimeRange implements wavegrid.Source.
func (s *Source) TimeRange() (simtime.Range, error) {
	stop, err := s.cycle.Scale(uint64(s.cycles))
	if err != nil {
		return simtime.Range{}, err
	}
	return simtime.Range{Start: s.cycle.MustScale(0), Stop: stop}, nil
}

// Time implements wavegrid.Source.
func (s *Source) Time(cycle int) simtime.Time { return s.cycle.MustScale(uint64(cycle)) }

// CycleCount implements wavegrid.Source.
func (s *Source) CycleCount() int { return s.cycles }

// LookupID implements wavegrid.Source.
func (s *Source) LookupID(name string) (int, error) {
	if id, ok := s.ids[name]; ok {
		return id, nil
	}
	return 0, errors.Wrapf(wavegrid.ErrNotFound, "%q", name)
}

// RevLookupID implements wavegrid.Source.
func (s *Source) RevLookupID(id int) (string, error) {
	if id < 0 || id >= len(s.signals) {
		return "", errors.Wrapf(wavegrid.ErrIDOutOfRange, "id %d not in [0, %d)", id, len(s.signals))
	}
	return s.signals[id].Name, nil
}

// Sample implements wavegrid.Source.
func (s *Source) Sample(names []string, times simtime.Range) (*wavegrid.CycleValues, error) {
	start := int(simtime.Div(times.Start, s.cycle))
	stop := int(simtime.Div(times.Stop, s.cycle))
	if start > stop || stop > s.cycles {
		return nil, errors.Wrapf(wavegrid.ErrInvalidRange, "cycles [%d, %d) not within [0, %d)", start, stop, s.cycles)
	}
	for _, n := range names {
		if _, err := s.LookupID(n); err != nil {
			return nil, err
		}
	}
	out := wavegrid.NewCycleValues(stop-start, len(names))
	if start == stop || len(names) == 0 {
		return out, nil
	}
	m, err := s.loader.Load(names, start, stop)
	if err != nil {
		return nil, errors.Wrapf(err, "load cycles [%d, %d)", start, stop)
	}
	for r := 0; r < stop-start; r++ {
		for c := range names {
			out.At(r, c).SetBytes(m.Get(c, r))
		}
	}
	return out, nil
}
