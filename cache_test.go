// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wavegrid_test

import (
	"math/rand"
	"testing"

	"github.com/db47h/wavegrid"
	"github.com/db47h/wavegrid/simtime"
	"github.com/db47h/wavegrid/wavetest"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridSource(signals, cycles int) *wavetest.FuncSource {
	names := make([]string, signals)
	formats := make([]wavegrid.Format, signals)
	for i := range names {
		names[i] = "s" + string(rune('a'+i%26)) + string(rune('0'+i/26))
		formats[i] = wavegrid.VectorFormat(32)
	}
	return &wavetest.FuncSource{
		Names:   names,
		Formats: formats,
		Cycles:  cycles,
		Value:   func(id, c int) int64 { return int64(id<<16 | c) },
	}
}

func newCache(t *testing.T, src *wavetest.FuncSource, cfg wavegrid.CacheConfig, m *wavegrid.CacheMetrics) (*wavegrid.Cache, *wavegrid.Dense) {
	t.Helper()
	d, err := wavegrid.NewDense(wavegrid.NewStage(src))
	require.NoError(t, err)
	c, err := wavegrid.NewCache(cfg, d.Len(), d.CycleCount(), m, nil)
	require.NoError(t, err)
	return c, d
}

func TestCache_Get(t *testing.T) {
	src := gridSource(10, 100)
	c, d := newCache(t, src, wavegrid.CacheConfig{Capacity: 4, SignalsPerTile: 3, CyclesPerTile: 7}, nil)

	td := []struct {
		id     int
		cycles wavegrid.Span
	}{
		{0, wavegrid.Span{Start: 0, End: 100}},
		{9, wavegrid.Span{Start: 93, End: 100}},
		{4, wavegrid.Span{Start: 6, End: 8}},
		{5, wavegrid.Span{Start: 13, End: 14}},
		{2, wavegrid.Span{Start: 50, End: 50}},
		{7, wavegrid.Span{Start: 20, End: 97}},
	}
	for _, d0 := range td {
		col, err := c.Get(d, d0.id, d0.cycles)
		require.NoError(t, err)
		require.Len(t, col, d0.cycles.Len())
		for i := range col {
			assert.EqualValues(t, d0.id<<16|(d0.cycles.Start+i), col[i].Int64())
		}
	}
	assert.LessOrEqual(t, c.Len(), 4)
}

// TestCache_oracle checks that the cache returns the same values whatever the
// order of the requests and the cache geometry.
func TestCache_oracle(t *testing.T) {
	geoms := []wavegrid.CacheConfig{
		{Capacity: 1, SignalsPerTile: 1, CyclesPerTile: 1},
		{Capacity: 2, SignalsPerTile: 4, CyclesPerTile: 16},
		{Capacity: 3, SignalsPerTile: 5, CyclesPerTile: 33},
		{},
	}
	for _, g := range geoms {
		src := gridSource(13, 300)
		c, d := newCache(t, src, g, nil)
		rnd := rand.New(rand.NewSource(int64(g.Capacity)))
		for i := 0; i < 200; i++ {
			id := rnd.Intn(13)
			start := rnd.Intn(300)
			span := wavegrid.Span{Start: start, End: start + rnd.Intn(300-start+1)}
			col, err := c.Get(d, id, span)
			require.NoError(t, err)
			for j := range col {
				if col[j].Int64() != int64(id<<16|(span.Start+j)) {
					t.Fatalf("%+v: Get(%d, %v)[%d] = %v", g, id, span, j, &col[j])
				}
			}
			if g.Capacity > 0 {
				require.LessOrEqual(t, c.Len(), g.Capacity)
			}
		}
	}
}

func TestCache_eviction(t *testing.T) {
	src := gridSource(4, 16)
	c, d := newCache(t, src, wavegrid.CacheConfig{Capacity: 2, SignalsPerTile: 2, CyclesPerTile: 4}, nil)
	get := func(id, start, end int) {
		t.Helper()
		_, err := c.Get(d, id, wavegrid.Span{Start: start, End: end})
		require.NoError(t, err)
	}

	get(0, 0, 4) // tile 0,0
	get(1, 4, 8) // tile 0,1
	assert.True(t, c.Resident(wavegrid.TileKey{Signal: 0, Cycle: 0}))
	assert.True(t, c.Resident(wavegrid.TileKey{Signal: 0, Cycle: 1}))
	assert.Equal(t, 2, src.Samples)

	get(0, 0, 1) // touch 0,0
	assert.Equal(t, 2, src.Samples)

	get(3, 0, 1) // tile 1,0 evicts 0,1
	assert.Equal(t, 2, c.Len())
	assert.True(t, c.Resident(wavegrid.TileKey{Signal: 0, Cycle: 0}))
	assert.False(t, c.Resident(wavegrid.TileKey{Signal: 0, Cycle: 1}))
	assert.True(t, c.Resident(wavegrid.TileKey{Signal: 1, Cycle: 0}))

	assert.Equal(t, wavegrid.CacheStats{Hits: 1, Misses: 3, Evictions: 1}, c.Stats())
	assert.Equal(t, wavegrid.TileKey{Signal: 1, Cycle: 3}, c.Key(3, 15))
}

func TestCache_sampleCalls(t *testing.T) {
	src := gridSource(3, 16)
	reg := prometheus.NewRegistry()
	m := wavegrid.NewCacheMetrics(reg)
	c, d := newCache(t, src, wavegrid.CacheConfig{Capacity: 8, SignalsPerTile: 4, CyclesPerTile: 4}, m)

	_, err := c.Get(d, 0, wavegrid.Span{Start: 0, End: 16})
	require.NoError(t, err)
	assert.Equal(t, 4, src.Samples, "one Sample call per tile")

	// same tiles, other signals
	for id := 0; id < 3; id++ {
		_, err = c.Get(d, id, wavegrid.Span{Start: 0, End: 16})
		require.NoError(t, err)
	}
	assert.Equal(t, 4, src.Samples)

	assert.Equal(t, 12.0, testutil.ToFloat64(m.Hits))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Misses))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Evictions))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Resident))

	n, err := testutil.GatherAndCount(reg, "wavegrid_cache_hits_total", "wavegrid_cache_resident_tiles")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCache_errors(t *testing.T) {
	src := gridSource(3, 16)
	c, d := newCache(t, src, wavegrid.CacheConfig{}, nil)

	td := []struct {
		name   string
		id     int
		cycles wavegrid.Span
		err    error
	}{
		{"id_neg", -1, wavegrid.Span{Start: 0, End: 1}, wavegrid.ErrIDOutOfRange},
		{"id_high", 3, wavegrid.Span{Start: 0, End: 1}, wavegrid.ErrIDOutOfRange},
		{"past_end", 0, wavegrid.Span{Start: 10, End: 17}, wavegrid.ErrInvalidRange},
		{"reversed", 0, wavegrid.Span{Start: 5, End: 4}, wavegrid.ErrInvalidRange},
		{"neg_start", 0, wavegrid.Span{Start: -1, End: 4}, wavegrid.ErrInvalidRange},
	}
	for _, d0 := range td {
		t.Run(d0.name, func(t *testing.T) {
			_, err := c.Get(d, d0.id, d0.cycles)
			if !errors.Is(err, d0.err) {
				t.Fatalf("expected %v, got %v", d0.err, err)
			}
		})
	}
	assert.Zero(t, src.Samples)
}

// badSampler returns matrices of the wrong shape.
type badSampler struct {
	*wavegrid.Dense
}

func (b badSampler) Sample(ids []int, _ simtime.Range) (*wavegrid.CycleValues, error) {
	return wavegrid.NewCycleValues(1, len(ids)+1), nil
}

func TestCache_badShape(t *testing.T) {
	src := gridSource(3, 16)
	c, d := newCache(t, src, wavegrid.CacheConfig{}, nil)
	_, err := c.Get(badSampler{d}, 0, wavegrid.Span{Start: 0, End: 4})
	assert.True(t, errors.Is(err, wavegrid.ErrInternal), "got %v", err)
	assert.Zero(t, c.Len())
}
