// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package vcd provides a wavegrid.Source over Value Change Dump files.
//
// The loader never keeps sample data in memory. Opening a trace reads its
// declarations and counts cycles, and every call to Sample re-parses the file
// up to the end of the requested window.
//
package vcd

import (
	"io"
	"log/slog"
	"math/big"
	"os"
	"time"

	"github.com/db47h/wavegrid"
	"github.com/db47h/wavegrid/internal/vcdparse"
	"github.com/db47h/wavegrid/simtime"
	"github.com/pkg/errors"
)

// DefaultTimescale is the timescale of traces without a $timescale
// declaration.
var DefaultTimescale = simtime.New(1, simtime.PS)

// Options configures a Loader.
//
type Options struct {
	// CycleTime is the duration of one cycle. If zero, it defaults to the
	// trace timescale.
	CycleTime simtime.Time
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// variable is a flattened declaration. Comments have an empty code.
type variable struct {
	name   string
	code   string
	width  int
	format wavegrid.Format
}

// Loader is a wavegrid.Source reading a VCD file.
//
type Loader struct {
	path      string
	cycle     simtime.Time
	timescale simtime.Time
	vars      []variable
	ids       map[string]int
	cycles    int
	log       *slog.Logger
}

// Open reads the declarations of the trace at path and counts its cycles.
//
func Open(path string, opts Options) (*Loader, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	l := &Loader{
		path: path,
		ids:  make(map[string]int),
		log:  opts.Logger.With(slog.String("component", "vcd"), slog.String("file", path)),
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open trace")
	}
	defer f.Close()

	p := vcdparse.NewParser(f)
	h, err := p.ParseHeader()
	if err != nil {
		return nil, errors.Wrapf(err, "%s: parse header", path)
	}
	l.timescale = DefaultTimescale
	if h.HasTimescale {
		l.timescale = h.Timescale
	}
	l.cycle = opts.CycleTime
	if l.cycle.IsZero() {
		l.cycle = l.timescale
	}
	l.flatten("", h.Items)

	clk, err := newClock(l.timescale, l.cycle)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	for {
		cmd, err := p.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "%s: count cycles", path)
		}
		switch cmd.Kind {
		case vcdparse.Timestamp:
			clk.advance(cmd.Time)
		case vcdparse.Timescale:
			if err = clk.rescale(cmd.Timescale); err != nil {
				return nil, errors.Wrap(err, path)
			}
		}
	}
	l.cycles = clk.cycle

	l.log.Debug("open trace", slog.Int("signals", len(l.vars)), slog.Int("cycles", l.cycles),
		slog.String("timescale", l.timescale.String()), slog.String("cycle_time", l.cycle.String()))
	return l, nil
}

func (l *Loader) flatten(prefix string, items []vcdparse.Item) {
	for _, it := range items {
		switch it.Kind {
		case vcdparse.ItemVar:
			v := variable{
				name:   prefix + it.Var.Reference,
				code:   it.Var.Code,
				width:  it.Var.Size,
				format: wavegrid.VectorFormat(it.Var.Size),
			}
			if v.width == 1 {
				v.format = wavegrid.BitFormat
			}
			l.add(v)
		case vcdparse.ItemComment:
			scope := prefix
			if scope != "" {
				scope = scope[:len(scope)-1]
			}
			l.add(variable{name: "-- " + scope + ": " + it.Comment, format: wavegrid.CommentFormat})
		case vcdparse.ItemScope:
			l.flatten(prefix+it.Scope.Name+".", it.Scope.Items)
		}
	}
}

func (l *Loader) add(v variable) {
	if _, ok := l.ids[v.name]; ok {
		l.log.Warn("duplicate signal name", slog.String("name", v.name))
		return
	}
	l.ids[v.name] = len(l.vars)
	l.vars = append(l.vars, v)
}

// CycleTime returns the duration of a cycle.
//
func (l *Loader) CycleTime() simtime.Time { return l.cycle }

// Timescale returns the trace's initial timescale.
//
func (l *Loader) Timescale() simtime.Time { return l.timescale }

// Signals implements wavegrid.Source.
//
func (l *Loader) Signals() ([]wavegrid.Signal[string], error) {
	out := make([]wavegrid.Signal[string], len(l.vars))
	for i, v := range l.vars {
		out[i] = wavegrid.Signal[string]{ID: v.name, Name: v.name, Format: v.format}
	}
	return out, nil
}

// TimeRange implements wavegrid.Source.
//
func (l *Loader) TimeRange() (simtime.Range, error) {
	stop, err := l.cycle.Scale(uint64(l.cycles))
	if err != nil {
		return simtime.Range{}, err
	}
	return simtime.Range{Start: l.cycle.MustScale(0), Stop: stop}, nil
}

// Time implements wavegrid.Source.
//
func (l *Loader) Time(cycle int) simtime.Time { return l.cycle.MustScale(uint64(cycle)) }

// CycleCount implements wavegrid.Source.
//
func (l *Loader) CycleCount() int { return l.cycles }

// LookupID implements wavegrid.Source.
//
func (l *Loader) LookupID(name string) (int, error) {
	id, ok := l.ids[name]
	if !ok {
		return 0, errors.Wrapf(wavegrid.ErrNotFound, "%q", name)
	}
	return id, nil
}

// RevLookupID implements wavegrid.Source.
//
func (l *Loader) RevLookupID(id int) (string, error) {
	if id < 0 || id >= len(l.vars) {
		return "", errors.Wrapf(wavegrid.ErrIDOutOfRange, "id %d not in [0, %d)", id, len(l.vars))
	}
	return l.vars[id].name, nil
}

// Sample implements wavegrid.Source. The returned rows cover the cycles
// [times.Start/cycle, times.Stop/cycle).
//
func (l *Loader) Sample(names []string, times simtime.Range) (*wavegrid.CycleValues, error) {
	start := int(simtime.Div(times.Start, l.cycle))
	stop := int(simtime.Div(times.Stop, l.cycle))
	if start > stop || stop > l.cycles {
		return nil, errors.Wrapf(wavegrid.ErrInvalidRange, "cycles [%d, %d) not within [0, %d)", start, stop, l.cycles)
	}

	// columns by code. Several columns may share a code.
	cols := make(map[string][]int, len(names))
	width := make([]int, len(names))
	for i, n := range names {
		id, err := l.LookupID(n)
		if err != nil {
			return nil, err
		}
		v := l.vars[id]
		width[i] = v.width
		if v.code != "" {
			cols[v.code] = append(cols[v.code], i)
		}
	}

	out := wavegrid.NewCycleValues(stop-start, len(names))
	if start == stop || len(cols) == 0 {
		return out, nil
	}

	began := time.Now()
	f, err := os.Open(l.path)
	if err != nil {
		return nil, errors.Wrap(err, "open trace")
	}
	defer f.Close()

	p := vcdparse.NewParser(f)
	h, err := p.ParseHeader()
	if err != nil {
		return nil, errors.Wrapf(err, "%s: parse header", l.path)
	}
	ts := DefaultTimescale
	if h.HasTimescale {
		ts = h.Timescale
	}
	clk, err := newClock(ts, l.cycle)
	if err != nil {
		return nil, errors.Wrap(err, l.path)
	}

	cur := make([]big.Int, len(names))
	// emit copies the current values into the rows of all cycles completed
	// since the last call.
	emit := func(upto int) {
		for c := max(clk.cycle, start); c < min(upto, stop); c++ {
			for i := range cur {
				out.At(c-start, i).Set(&cur[i])
			}
		}
	}

loop:
	for {
		cmd, err := p.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "%s: sample", l.path)
		}
		switch cmd.Kind {
		case vcdparse.Timestamp:
			if cmd.Time < clk.now {
				continue
			}
			emit(clk.cycleAt(cmd.Time))
			clk.advance(cmd.Time)
			if clk.cycle >= stop {
				break loop
			}
		case vcdparse.Timescale:
			if err = clk.rescale(cmd.Timescale); err != nil {
				return nil, errors.Wrap(err, l.path)
			}
		case vcdparse.ChangeScalar:
			for _, i := range cols[cmd.Code] {
				cur[i].SetInt64(0)
				if cmd.Value == "1" {
					cur[i].SetInt64(1)
				}
			}
		case vcdparse.ChangeVector:
			for _, i := range cols[cmd.Code] {
				setVector(&cur[i], cmd.Value, width[i])
			}
		}
	}
	emit(stop)

	l.log.Debug("sample", slog.Int("signals", len(names)), slog.Int("start", start), slog.Int("stop", stop),
		slog.Duration("elapsed", time.Since(began)))
	return out, nil
}

// setVector sets v from the MSB-first digits s. Unknown states read as 0 and
// bits beyond width are dropped.
func setVector(v *big.Int, s string, width int) {
	v.SetInt64(0)
	for i := 0; i < len(s); i++ {
		bit := len(s) - 1 - i
		if s[i] == '1' && bit < width {
			v.SetBit(v, bit, 1)
		}
	}
}
