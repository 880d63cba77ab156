// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vcd

import (
	"github.com/db47h/wavegrid/simtime"
	"github.com/pkg/errors"
)

// clock tracks the cycle boundaries crossed by the timestamps of a trace.
//
// Times are kept in native units of the current timescale. step is the number
// of native units per cycle. The cycle time must be an exact multiple of every
// timescale of the trace.
//
type clock struct {
	ts     simtime.Time
	period simtime.Time
	step   uint64
	now    uint64
	// number of cycle boundaries at or before now.
	cycle int
}

func newClock(ts, period simtime.Time) (*clock, error) {
	c := &clock{period: period}
	if err := c.setTimescale(ts); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *clock) setTimescale(ts simtime.Time) error {
	step := simtime.Div(c.period, ts)
	if step == 0 {
		return errors.Wrapf(simtime.ErrInvalidTime, "cycle time %v is finer than timescale %v", c.period, ts)
	}
	if back, err := ts.Scale(step); err != nil || back.Cmp(c.period) != 0 {
		return errors.Wrapf(simtime.ErrInvalidTime, "cycle time %v is not a multiple of timescale %v", c.period, ts)
	}
	c.ts, c.step = ts, step
	return nil
}

// rescale switches to a new timescale, rebasing the current time.
func (c *clock) rescale(ts simtime.Time) error {
	abs, err := c.ts.Scale(c.now)
	if err != nil {
		return err
	}
	if err = c.setTimescale(ts); err != nil {
		return err
	}
	c.now = simtime.Div(abs, ts)
	return nil
}

// cycleAt returns the number of cycle boundaries at or before t, with t in
// native units. It never goes backwards.
func (c *clock) cycleAt(t uint64) int {
	return max(c.cycle, int(t/c.step))
}

// advance moves the clock to t. Timestamps going backwards are ignored.
func (c *clock) advance(t uint64) {
	if t < c.now {
		return
	}
	c.cycle = c.cycleAt(t)
	c.now = t
}
