// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wavegrid_test

import (
	"strings"
	"testing"

	"github.com/db47h/wavegrid"
	"github.com/db47h/wavegrid/filter"
	"github.com/db47h/wavegrid/simtime"
	"github.com/db47h/wavegrid/vcd"
	"github.com/db47h/wavegrid/wavetest"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadVCD(t *testing.T, name string, opts wavegrid.Options) *wavegrid.Wave {
	t.Helper()
	src, err := vcd.Open(wavetest.Fixture(t, name), vcd.Options{CycleTime: simtime.New(1, simtime.NS)})
	wavetest.Trace(t, err)
	w, err := wavegrid.Load(src, opts)
	wavetest.Trace(t, err)
	return w
}

func counterOracle(name string, c int) int64 {
	switch name {
	case "top.clk":
		return int64(c % 2)
	case "top.count[7:0]":
		return int64(c / 4)
	case "top.sub.en":
		if c >= 10 {
			return 1
		}
	}
	return 0
}

func TestWave_counter(t *testing.T) {
	w := loadVCD(t, "counter.vcd", wavegrid.Options{Cache: wavegrid.CacheConfig{Capacity: 2, SignalsPerTile: 2, CyclesPerTile: 3}})
	require.Equal(t, 16, w.NumCycles())
	require.Equal(t, []string{"top.clk", "top.count[7:0]", "-- top: clock domain a", "top.sub.en"}, w.Names())
	assert.Equal(t, wavegrid.BitFormat, w.Formatter(0))
	assert.Equal(t, wavegrid.VectorFormat(8), w.Formatter(1))
	assert.True(t, w.Formatter(2).IsComment())

	wavetest.CompareColumns(t, w, 100, counterOracle)

	s, err := w.CachedSlice(wavegrid.Span{Start: 0, End: 2}, wavegrid.Span{Start: 8, End: 12})
	require.NoError(t, err)
	col, err := s.Column(1)
	require.NoError(t, err)
	require.Len(t, col, 4)
	for _, v := range col {
		assert.EqualValues(t, 2, v.Int64())
	}
	_, err = s.Column(3)
	assert.True(t, errors.Is(err, wavegrid.ErrIDOutOfRange))
	assert.Nil(t, s.Value(0, 12))
	assert.Equal(t, "top.count[7:0]", s.Name(1))

	v, err := w.FormattedValue(1, 15)
	require.NoError(t, err)
	assert.Equal(t, "3", v)
	v, err = w.FormattedValue(2, 15)
	require.NoError(t, err)
	assert.Equal(t, "", v)

	_, err = w.Value(0, 16)
	assert.True(t, errors.Is(err, wavegrid.ErrCycleOutOfRange))
	_, err = w.CachedSlice(wavegrid.Span{Start: 0, End: 5}, wavegrid.Span{Start: 0, End: 1})
	assert.True(t, errors.Is(err, wavegrid.ErrInvalidRange))
	_, err = w.CachedSlice(wavegrid.Span{Start: 0, End: 1}, wavegrid.Span{Start: 0, End: 17})
	assert.True(t, errors.Is(err, wavegrid.ErrInvalidRange))
}

func TestWave_transitions(t *testing.T) {
	w := loadVCD(t, "step.vcd", wavegrid.Options{})
	require.Equal(t, 3000, w.NumCycles())
	require.Equal(t, []string{"top.step", "top.edge", "top.slow[3:0]", "top.level"}, w.Names())

	const (
		step = iota
		edge
		slow
		level
	)
	td := []struct {
		name   string
		next   bool
		sig    int
		start  int
		result int
		err    error
	}{
		{"step_next0", true, step, 0, 1, nil},
		{"step_next1", true, step, 1, 41, nil},
		{"step_next41", true, step, 41, 0, wavegrid.ErrNoTransition},
		{"step_prev40", false, step, 40, 0, nil},
		{"step_prev41", false, step, 41, 40, nil},
		{"step_prev0", false, step, 0, 0, wavegrid.ErrNoTransition},
		{"edge_next0", true, edge, 0, 1024, nil},
		{"edge_next1023", true, edge, 1023, 1024, nil},
		{"edge_prev2000", false, edge, 2000, 1023, nil},
		{"edge_prev2999", false, edge, 2999, 1023, nil},
		{"slow_next0", true, slow, 0, 2500, nil},
		{"slow_prev2999", false, slow, 2999, 2499, nil},
		{"level", true, level, 0, 0, wavegrid.ErrNoTransition},
		{"last", true, edge, 2999, 0, wavegrid.ErrNoTransition},
		{"out_of_range", true, edge, 3000, 0, wavegrid.ErrCycleOutOfRange},
		{"negative", false, edge, -1, 0, wavegrid.ErrCycleOutOfRange},
		{"bad_signal", true, 4, 0, 0, wavegrid.ErrIDOutOfRange},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			var (
				c   int
				err error
			)
			if d.next {
				c, err = w.NextTransition(d.sig, d.start)
			} else {
				c, err = w.PrevTransition(d.sig, d.start)
			}
			if d.err != nil {
				if !errors.Is(err, d.err) {
					t.Fatalf("expected %v, got %v", d.err, err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, d.result, c)
		})
	}
}

func TestWave_smallHorizon(t *testing.T) {
	w := loadVCD(t, "step.vcd", wavegrid.Options{SearchHorizon: 7})
	c, err := w.NextTransition(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1024, c)
	c, err = w.PrevTransition(1, 2999)
	require.NoError(t, err)
	assert.Equal(t, 1023, c)
}

func TestSlice_transitions(t *testing.T) {
	w := loadVCD(t, "counter.vcd", wavegrid.Options{})
	s, err := w.CachedSlice(wavegrid.Span{Start: 1, End: 4}, wavegrid.Span{Start: 2, End: 14})
	require.NoError(t, err)

	c, ok := s.NextTransition(1, 2)
	require.True(t, ok)
	assert.Equal(t, 4, c)
	c, ok = s.PrevTransition(1, 13)
	require.True(t, ok)
	assert.Equal(t, 11, c)
	c, ok = s.NextTransition(3, 5)
	require.True(t, ok)
	assert.Equal(t, 10, c)
	_, ok = s.NextTransition(1, 12)
	assert.False(t, ok)
	_, ok = s.NextTransition(0, 2)
	assert.False(t, ok, "signal outside slice")
}

func TestWave_filters(t *testing.T) {
	w := loadVCD(t, "counter.vcd", wavegrid.Options{Cache: wavegrid.CacheConfig{SignalsPerTile: 1, CyclesPerTile: 4}})

	g, err := filter.NewGrep(`count|en$`)
	require.NoError(t, err)
	w, err = w.PushFilter(g)
	require.NoError(t, err)
	assert.Equal(t, []string{"top.count[7:0]", "-- top: clock domain a", "top.sub.en"}, w.Names())
	assert.Zero(t, w.Cache().Len(), "rebuild starts with an empty cache")
	wavetest.CompareColumns(t, w, 50, counterOracle)

	w, err = w.PushFilter(&filter.ReplacePrefix{Prefix: "top.", Replacement: "t/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t/count[7:0]", "-- top: clock domain a", "t/sub.en"}, w.Names())
	assert.Equal(t, 2, w.Filters())

	w, f, err := w.PopFilter()
	require.NoError(t, err)
	assert.IsType(t, &filter.ReplacePrefix{}, f)
	w, f, err = w.PopFilter()
	require.NoError(t, err)
	assert.Same(t, g, f)
	assert.Equal(t, 4, w.NumSignals())
	_, f, err = w.PopFilter()
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestWave_popSource(t *testing.T) {
	w := loadVCD(t, "counter.vcd", wavegrid.Options{Cache: wavegrid.CacheConfig{CyclesPerTile: 4}})
	_, err := w.CachedSlice(wavegrid.Span{Start: 0, End: 4}, wavegrid.Span{Start: 0, End: 8})
	require.NoError(t, err)
	require.Equal(t, 2, w.Cache().Len())

	nw, f, err := w.PopFilter()
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Same(t, w, nw)
	assert.Equal(t, 2, nw.Cache().Len(), "cache is kept")
}

func TestWave_sliceBounds(t *testing.T) {
	empty, err := wavegrid.Load(wavegrid.EmptySource{}, wavegrid.Options{})
	require.NoError(t, err)
	w := loadVCD(t, "counter.vcd", wavegrid.Options{})

	td := []struct {
		name    string
		w       *wavegrid.Wave
		signals wavegrid.Span
		cycles  wavegrid.Span
		err     error
	}{
		{"empty_ok", empty, wavegrid.Span{}, wavegrid.Span{}, nil},
		{"empty_negative", empty, wavegrid.Span{}, wavegrid.Span{Start: -5, End: 100}, wavegrid.ErrInvalidRange},
		{"no_signals_past_end", w, wavegrid.Span{Start: 1, End: 1}, wavegrid.Span{Start: 10, End: 17}, wavegrid.ErrInvalidRange},
		{"reversed", w, wavegrid.Span{Start: 0, End: 1}, wavegrid.Span{Start: 5, End: 4}, wavegrid.ErrInvalidRange},
		{"signals", w, wavegrid.Span{Start: 0, End: 5}, wavegrid.Span{Start: 0, End: 1}, wavegrid.ErrInvalidRange},
		{"full", w, wavegrid.Span{Start: 0, End: 4}, wavegrid.Span{Start: 0, End: 16}, nil},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			_, err := d.w.CachedSlice(d.signals, d.cycles)
			if d.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, d.err), "got %v", err)
		})
	}
}

func TestWave_reconfigure(t *testing.T) {
	w := loadVCD(t, "counter.vcd", wavegrid.Options{})
	w, err := w.PushFilter(filter.NewSignalList(nil))
	require.NoError(t, err)
	// enabled with an empty list: only comments survive
	assert.Equal(t, []string{"-- top: clock domain a"}, w.Names())

	cfg := w.PipelineConfig()
	cfg.NameList = []string{"top.sub.en", "top.clk"}
	cfg.EnableFilterList = true
	w, err = w.Reconfigure()
	require.NoError(t, err)
	assert.Equal(t, []string{"top.sub.en", "top.clk", "-- top: clock domain a"}, w.Names())
	wavetest.CompareColumns(t, w, 20, counterOracle)

	w.PipelineConfig().EnableFilterList = false
	w, err = w.Reconfigure()
	require.NoError(t, err)
	assert.Equal(t, 4, w.NumSignals())

	// reload keeps the configured chain as is
	w, err = w.Reload()
	require.NoError(t, err)
	assert.Equal(t, 4, w.NumSignals())
}

func TestWave_formatter(t *testing.T) {
	w := loadVCD(t, "counter.vcd", wavegrid.Options{})
	w.SetFormatter(1, wavegrid.BitVectorFormat(8))
	v, err := w.FormattedValue(1, 13)
	require.NoError(t, err)
	assert.Equal(t, "00000011", v)

	a, err := filter.NewAnalog([]string{`count`}, 0, 255)
	require.NoError(t, err)
	w, err = w.PushFilter(a)
	require.NoError(t, err)
	assert.Equal(t, wavegrid.AnalogFormat(8, 0, 255), w.Formatter(1))
	assert.Equal(t, wavegrid.BitFormat, w.Formatter(0))
	name, ok := w.Name(1)
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(name, "top.count"))
	_, ok = w.Name(4)
	assert.False(t, ok)
}

func TestWave_metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	w := loadVCD(t, "counter.vcd", wavegrid.Options{
		Registerer: reg,
		Cache:      wavegrid.CacheConfig{Capacity: 1, SignalsPerTile: 4, CyclesPerTile: 8},
	})
	_, err := w.CachedSlice(wavegrid.Span{Start: 0, End: 4}, wavegrid.Span{Start: 0, End: 16})
	require.NoError(t, err)

	// rebuilds must reuse the registered collectors
	w, err = w.Reload()
	require.NoError(t, err)
	_, err = w.Value(0, 0)
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "wavegrid_cache_misses_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, mf := range mfs {
		m := mf.GetMetric()[0]
		if c := m.GetCounter(); c != nil {
			got[mf.GetName()] = c.GetValue()
		} else {
			got[mf.GetName()] = m.GetGauge().GetValue()
		}
	}
	// each of the 4 signals spans 2 cycle tiles and only one tile fits: every
	// lookup misses.
	assert.Equal(t, 9.0, got["wavegrid_cache_misses_total"])
	assert.Equal(t, 0.0, got["wavegrid_cache_hits_total"])
	assert.Equal(t, 7.0, got["wavegrid_cache_evictions_total"])
	assert.Equal(t, 1.0, got["wavegrid_cache_resident_tiles"])
}
