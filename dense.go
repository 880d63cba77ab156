// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wavegrid

import (
	"github.com/db47h/wavegrid/simtime"
	"github.com/pkg/errors"
)

// Dense adapts a pipeline chain to a contiguous id space 0..N, regardless of
// how sparse or reordered the chain's pipeline ids are.
//
// A Dense is only valid for the chain shape it was built from. Build a new one
// after any push, pop or configure that may change the chain's signal list.
//
type Dense struct {
	pipe *Stage
	// idmap[i] is the pipeline id of dense id i.
	idmap []int
}

// NewDense returns a Dense adapter over pipe. It queries pipe's signal list
// once to build the identifier map.
//
func NewDense(pipe *Stage) (*Dense, error) {
	sigs, err := pipe.Signals()
	if err != nil {
		return nil, errors.Wrap(err, "init dense ids")
	}
	idmap := make([]int, len(sigs))
	for i, s := range sigs {
		idmap[i] = s.ID
	}
	return &Dense{pipe: pipe, idmap: idmap}, nil
}

// Stage returns the adapted chain.
//
func (d *Dense) Stage() *Stage { return d.pipe }

// Len returns the number of dense ids.
//
func (d *Dense) Len() int { return len(d.idmap) }

// Signals returns the chain's signals tagged with their dense id.
//
func (d *Dense) Signals() ([]Signal[int], error) {
	sigs, err := d.pipe.Signals()
	if err != nil {
		return nil, err
	}
	for i := range sigs {
		sigs[i].ID = i
	}
	return sigs, nil
}

// Sample samples dense ids over times. Dense ids with no entry in the
// identifier map are dropped from the request.
//
func (d *Dense) Sample(ids []int, times simtime.Range) (*CycleValues, error) {
	mapped := make([]int, 0, len(ids))
	for _, id := range ids {
		if id >= 0 && id < len(d.idmap) {
			mapped = append(mapped, d.idmap[id])
		}
	}
	return d.pipe.Sample(mapped, times)
}

// RevLookupDense returns the pipeline id for a dense id.
//
func (d *Dense) RevLookupDense(id int) (int, error) {
	if id < 0 || id >= len(d.idmap) {
		return 0, idOutOfRange(id, len(d.idmap))
	}
	return d.idmap[id], nil
}

// LookupDense returns the dense id for a pipeline id, or ErrNotFound if the
// signal is not visible at the head of the chain.
//
func (d *Dense) LookupDense(pipeID int) (int, error) {
	for i, id := range d.idmap {
		if id == pipeID {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrNotFound, "pipeline id %d", pipeID)
}

// Configure configures the adapted chain. The adapter must be rebuilt
// afterwards.
//
func (d *Dense) Configure(cfg *PipelineConfig) error { return d.pipe.Configure(cfg) }

// Time implements Sampler.
//
func (d *Dense) Time(cycle int) simtime.Time { return d.pipe.Time(cycle) }

// CycleCount returns the chain's cycle count.
//
func (d *Dense) CycleCount() int { return d.pipe.CycleCount() }
