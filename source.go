// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wavegrid

import (
	"github.com/db47h/wavegrid/simtime"
	"github.com/pkg/errors"
)

// A Source enumerates the signals of a concrete trace and samples their values.
//
// Native signal ids are signal names. Each signal is also assigned an integer
// pipeline id at load time, available through LookupID and RevLookupID.
//
type Source interface {
	// Signals returns the signal declarations in trace order, including
	// Comment pseudo-signals. No sample data is loaded.
	Signals() ([]Signal[string], error)
	// TimeRange returns the time extent of the trace.
	TimeRange() (simtime.Range, error)
	// Time returns the start time of the given cycle.
	Time(cycle int) simtime.Time
	// CycleCount returns the number of cycles in the trace.
	CycleCount() int
	// LookupID returns the pipeline id of the named signal or ErrNotFound.
	LookupID(name string) (int, error)
	// RevLookupID returns the name of the signal with the given pipeline
	// id or ErrIDOutOfRange.
	RevLookupID(id int) (string, error)
	// Sample returns one row per cycle in [times.Start/cycle,
	// times.Stop/cycle) and one column per requested id, in request order.
	Sample(ids []string, times simtime.Range) (*CycleValues, error)
}

// A Sampler samples values by integer signal id. Stage and Dense implement
// Sampler, the Cache loads its tiles through it.
//
type Sampler interface {
	Time(cycle int) simtime.Time
	Sample(ids []int, times simtime.Range) (*CycleValues, error)
}

// EmptySource is a Source with no signals and an empty time range.
//
type EmptySource struct{}

// Signals implements Source.
func (EmptySource) Signals() ([]Signal[string], error) { return nil, nil }

// TimeRange implements Source.
func (EmptySource) TimeRange() (simtime.Range, error) {
	return simtime.Range{Start: simtime.Zero(), Stop: simtime.Zero()}, nil
}

// Time implements Source.
func (EmptySource) Time(int) simtime.Time { return simtime.Zero() }

// CycleCount implements Source.
func (EmptySource) CycleCount() int { return 0 }

// LookupID implements Source.
func (EmptySource) LookupID(name string) (int, error) {
	return 0, errors.Wrapf(ErrNotFound, "%q", name)
}

// RevLookupID implements Source.
func (EmptySource) RevLookupID(id int) (string, error) {
	return "", idOutOfRange(id, 0)
}

// Sample implements Source.
func (EmptySource) Sample(ids []string, _ simtime.Range) (*CycleValues, error) {
	if len(ids) > 0 {
		return nil, errors.Wrapf(ErrNotFound, "%q", ids[0])
	}
	return NewCycleValues(0, 0), nil
}
