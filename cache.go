// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wavegrid

import (
	"log/slog"
	"math/big"

	"github.com/db47h/wavegrid/simtime"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default cache geometry.
const (
	DefaultCacheCapacity  = 128
	DefaultSignalsPerTile = 128
	DefaultCyclesPerTile  = 1024
)

// TileKey identifies a cache tile by its signal tile index and cycle tile
// index.
//
type TileKey struct {
	Signal int
	Cycle  int
}

// a tile is immutable once loaded.
type tile struct {
	data *CycleValues
}

// CacheConfig sets the geometry of a Cache. Zero values are replaced by the
// defaults.
//
type CacheConfig struct {
	// Capacity is the maximum number of resident tiles.
	Capacity int
	// SignalsPerTile and CyclesPerTile set the tile size.
	SignalsPerTile int
	CyclesPerTile  int
}

func (c CacheConfig) withDefaults() CacheConfig {
	if c.Capacity <= 0 {
		c.Capacity = DefaultCacheCapacity
	}
	if c.SignalsPerTile <= 0 {
		c.SignalsPerTile = DefaultSignalsPerTile
	}
	if c.CyclesPerTile <= 0 {
		c.CyclesPerTile = DefaultCyclesPerTile
	}
	return c
}

// CacheMetrics holds the cache's prometheus collectors.
//
type CacheMetrics struct {
	Hits      prometheus.Counter
	Misses    prometheus.Counter
	Evictions prometheus.Counter
	Resident  prometheus.Gauge
}

// NewCacheMetrics creates cache collectors and registers them with reg. If reg
// is nil, the collectors are not registered.
//
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	f := promauto.With(reg)
	return &CacheMetrics{
		Hits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "wavegrid",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Number of tile lookups served from the cache.",
		}),
		Misses: f.NewCounter(prometheus.CounterOpts{
			Namespace: "wavegrid",
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Number of tiles sampled from the pipeline.",
		}),
		Evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: "wavegrid",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Number of tiles evicted.",
		}),
		Resident: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "wavegrid",
			Subsystem: "cache",
			Name:      "resident_tiles",
			Help:      "Number of tiles currently held by the cache.",
		}),
	}
}

// CacheStats are the counters of a single Cache instance.
//
type CacheStats struct {
	Hits, Misses, Evictions int
}

// Cache memoizes tiles of the dense (signal × cycle) value plane under a
// strict least-recently-used policy.
//
// A Cache is only valid for the Dense adapter it was created for. It is not
// safe for concurrent use.
//
type Cache struct {
	tiles          *simplelru.LRU[TileKey, *tile]
	signalsPerTile int
	cyclesPerTile  int
	numSignals     int
	numCycles      int
	stats          CacheStats
	metrics        *CacheMetrics
	log            *slog.Logger
}

// NewCache returns a new cache for a data extent of numSignals × numCycles.
// metrics and logger may be nil.
//
func NewCache(cfg CacheConfig, numSignals, numCycles int, metrics *CacheMetrics, logger *slog.Logger) (*Cache, error) {
	cfg = cfg.withDefaults()
	if metrics == nil {
		metrics = NewCacheMetrics(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{
		signalsPerTile: cfg.SignalsPerTile,
		cyclesPerTile:  cfg.CyclesPerTile,
		numSignals:     numSignals,
		numCycles:      numCycles,
		metrics:        metrics,
		log:            logger.With(slog.String("component", "cache")),
	}
	lru, err := simplelru.NewLRU[TileKey, *tile](cfg.Capacity, c.evicted)
	if err != nil {
		return nil, errors.Wrap(err, "create tile cache")
	}
	c.tiles = lru
	metrics.Resident.Set(0)
	return c, nil
}

func (c *Cache) evicted(k TileKey, _ *tile) {
	c.stats.Evictions++
	c.metrics.Evictions.Inc()
	c.log.Debug("evict tile", slog.Int("signal_tile", k.Signal), slog.Int("cycle_tile", k.Cycle))
}

// Len returns the number of resident tiles.
//
func (c *Cache) Len() int { return c.tiles.Len() }

// Resident reports whether the tile k is resident, without updating its
// recency.
//
func (c *Cache) Resident(k TileKey) bool { return c.tiles.Contains(k) }

// Stats returns the hit, miss and eviction counts of c.
//
func (c *Cache) Stats() CacheStats { return c.stats }

// Key returns the key of the tile holding the given signal and cycle.
//
func (c *Cache) Key(id, cycle int) TileKey {
	return TileKey{Signal: id / c.signalsPerTile, Cycle: cycle / c.cyclesPerTile}
}

// tile returns the tile for k, sampling it from pipe on a miss.
func (c *Cache) tile(pipe Sampler, k TileKey) (*tile, error) {
	if t, ok := c.tiles.Get(k); ok {
		c.stats.Hits++
		c.metrics.Hits.Inc()
		return t, nil
	}
	c.stats.Misses++
	c.metrics.Misses.Inc()

	cycles := Span{k.Cycle * c.cyclesPerTile, min((k.Cycle+1)*c.cyclesPerTile, c.numCycles)}
	sigs := Span{k.Signal * c.signalsPerTile, min((k.Signal+1)*c.signalsPerTile, c.numSignals)}
	ids := make([]int, 0, sigs.Len())
	for id := sigs.Start; id < sigs.End; id++ {
		ids = append(ids, id)
	}
	c.log.Debug("load tile", slog.Int("signal_tile", k.Signal), slog.Int("cycle_tile", k.Cycle),
		slog.String("signals", sigs.String()), slog.String("cycles", cycles.String()))

	data, err := pipe.Sample(ids, simtime.Range{Start: pipe.Time(cycles.Start), Stop: pipe.Time(cycles.End)})
	if err != nil {
		return nil, errors.Wrapf(err, "load tile %d,%d", k.Signal, k.Cycle)
	}
	if err = data.checkDims(cycles.Len(), sigs.Len()); err != nil {
		return nil, errors.Wrapf(err, "load tile %d,%d", k.Signal, k.Cycle)
	}
	t := &tile{data: data}
	c.tiles.Add(k, t)
	c.metrics.Resident.Set(float64(c.tiles.Len()))
	return t, nil
}

// Get returns the values of signal id over the given cycles. Tiles missing
// from the cache are sampled from pipe, one Sample call per tile.
//
// id and cycles must lie within the data extent the cache was created for,
// otherwise Get returns ErrIDOutOfRange or ErrInvalidRange.
//
func (c *Cache) Get(pipe Sampler, id int, cycles Span) ([]big.Int, error) {
	if id < 0 || id >= c.numSignals {
		return nil, idOutOfRange(id, c.numSignals)
	}
	if cycles.Start < 0 || cycles.End < cycles.Start || cycles.End > c.numCycles {
		return nil, invalidRange(cycles, c.numCycles)
	}

	out := make([]big.Int, cycles.Len())
	col := id % c.signalsPerTile
	for cur := cycles.Start; cur < cycles.End; {
		k := c.Key(id, cur)
		t, err := c.tile(pipe, k)
		if err != nil {
			return nil, err
		}
		base := k.Cycle * c.cyclesPerTile
		end := min(base+c.cyclesPerTile, cycles.End)
		for cyc := cur; cyc < end; cyc++ {
			out[cyc-cycles.Start].Set(t.data.At(cyc-base, col))
		}
		cur = end
	}
	return out, nil
}
