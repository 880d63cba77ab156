// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wavegrid

import (
	"github.com/db47h/wavegrid/simtime"
	"github.com/pkg/errors"
)

// A Stage is one link in a pipeline chain. A chain has exactly one source
// stage at its root and a linear sequence of filter stages above it.
//
// A source stage has a nil prev and a nil filter. A filter stage owns the
// previous stage and its filter.
//
type Stage struct {
	src    Source
	prev   *Stage
	filter Filter
}

// NewStage returns a source stage for src.
//
func NewStage(src Source) *Stage {
	if src == nil {
		panic("wavegrid: nil source")
	}
	return &Stage{src: src}
}

// Push returns a new filter stage wrapping s. s must not be used afterwards
// other than through the returned stage.
//
func (s *Stage) Push(f Filter) *Stage {
	return &Stage{src: s.src, prev: s, filter: f}
}

// Pop removes the outermost filter stage and returns the previous stage along
// with the removed filter. On a source stage, Pop returns s and a nil Filter.
//
func (s *Stage) Pop() (*Stage, Filter) {
	if s.prev == nil {
		return s, nil
	}
	return s.prev, s.filter
}

// IsSource reports whether s is the root source stage.
//
func (s *Stage) IsSource() bool { return s.prev == nil }

// Depth returns the number of filter stages in the chain ending at s.
//
func (s *Stage) Depth() int {
	n := 0
	for st := s; st.prev != nil; st = st.prev {
		n++
	}
	return n
}

// Source returns the source at the root of the chain.
//
func (s *Stage) Source() Source { return s.src }

// Signals returns the signal list as seen at this stage, tagged with pipeline
// ids.
//
func (s *Stage) Signals() ([]Signal[int], error) {
	if s.prev != nil {
		sigs, err := s.prev.Signals()
		if err != nil {
			return nil, err
		}
		return s.filter.TranslateSignals(sigs)
	}

	src, err := s.src.Signals()
	if err != nil {
		return nil, err
	}
	out := make([]Signal[int], len(src))
	for i, sig := range src {
		id, err := s.src.LookupID(sig.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "declared signal %q", sig.Name)
		}
		out[i] = Signal[int]{ID: id, Name: sig.Name, Format: sig.Format}
	}
	return out, nil
}

// Sample samples the given pipeline ids over times, applying each filter's
// id translation and value transform on the way.
//
func (s *Stage) Sample(ids []int, times simtime.Range) (*CycleValues, error) {
	if s.prev != nil {
		tids, err := s.filter.RevTranslateIDs(ids)
		if err != nil {
			return nil, err
		}
		vals, err := s.prev.Sample(tids, times)
		if err != nil {
			return nil, err
		}
		s.filter.Transform(vals)
		return vals, nil
	}

	names := make([]string, len(ids))
	for i, id := range ids {
		n, err := s.src.RevLookupID(id)
		if err != nil {
			return nil, err
		}
		names[i] = n
	}
	return s.src.Sample(names, times)
}

// Configure passes cfg to every filter from s down to the source.
//
func (s *Stage) Configure(cfg *PipelineConfig) error {
	for st := s; st.prev != nil; st = st.prev {
		if err := st.filter.Configure(cfg); err != nil {
			return err
		}
	}
	return nil
}

// TimeRange returns the source's time range. Filters never alter timing.
//
func (s *Stage) TimeRange() (simtime.Range, error) { return s.src.TimeRange() }

// Time returns the source's start time for cycle.
//
func (s *Stage) Time(cycle int) simtime.Time { return s.src.Time(cycle) }

// CycleCount returns the source's cycle count.
//
func (s *Stage) CycleCount() int { return s.src.CycleCount() }
