// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wavegrid

import (
	"log/slog"
	"math/big"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultSearchHorizon is the default window size, in cycles, of transition
// searches.
const DefaultSearchHorizon = 1024

// Options configures a Wave. Zero values are replaced by defaults.
//
type Options struct {
	// Cache geometry.
	Cache CacheConfig
	// SearchHorizon is the number of cycles fetched per step of a
	// transition search.
	SearchHorizon int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Registerer receives the cache metrics. If nil, metrics are not
	// registered.
	Registerer prometheus.Registerer
}

// Wave is the cycle-indexed view of a pipeline. It owns a Dense adapter over
// the pipeline and a tile cache.
//
// Any change to the pipeline's shape produces a new Wave: PushFilter,
// PopFilter, Reconfigure and Reload all return a fresh Wave and the receiver
// must not be used afterwards. PopFilter on a chain without filters is a
// no-op.
//
// A Wave is not safe for concurrent use.
//
type Wave struct {
	names   []string
	formats []Format
	pipe    *Dense
	cache   *Cache
	config  PipelineConfig
	opts    Options
	metrics *CacheMetrics
	log     *slog.Logger
}

// Load builds a Wave over src with no filters.
//
func Load(src Source, opts Options) (*Wave, error) {
	if opts.SearchHorizon <= 0 {
		opts.SearchHorizon = DefaultSearchHorizon
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return build(NewStage(src), PipelineConfig{}, opts, NewCacheMetrics(opts.Registerer))
}

func build(pipe *Stage, cfg PipelineConfig, opts Options, metrics *CacheMetrics) (*Wave, error) {
	log := opts.Logger.With(slog.String("component", "wave"))
	d, err := NewDense(pipe)
	if err != nil {
		return nil, err
	}
	sigs, err := d.Signals()
	if err != nil {
		return nil, err
	}
	w := &Wave{
		names:   make([]string, len(sigs)),
		formats: make([]Format, len(sigs)),
		pipe:    d,
		config:  cfg,
		opts:    opts,
		metrics: metrics,
		log:     log,
	}
	for i, s := range sigs {
		w.names[i] = s.Name
		w.formats[i] = s.Format
	}
	w.cache, err = NewCache(opts.Cache, len(sigs), d.CycleCount(), metrics, opts.Logger)
	if err != nil {
		return nil, err
	}
	log.Debug("build wave", slog.Int("signals", len(sigs)), slog.Int("cycles", d.CycleCount()),
		slog.Int("filters", pipe.Depth()))
	return w, nil
}

func (w *Wave) rebuild(pipe *Stage) (*Wave, error) {
	return build(pipe, w.config, w.opts, w.metrics)
}

// NumCycles returns the number of cycles in the trace.
//
func (w *Wave) NumCycles() int { return w.pipe.CycleCount() }

// NumSignals returns the number of visible signals.
//
func (w *Wave) NumSignals() int { return len(w.names) }

// Cache returns the wave's tile cache.
//
func (w *Wave) Cache() *Cache { return w.cache }

// CachedSlice returns the values of the given signals over the given cycles,
// served from the tile cache.
//
func (w *Wave) CachedSlice(signals, cycles Span) (*Slice, error) {
	if signals.Start < 0 || signals.End < signals.Start || signals.End > len(w.names) {
		return nil, invalidRange(signals, len(w.names))
	}
	if cycles.Start < 0 || cycles.End < cycles.Start || cycles.End > w.NumCycles() {
		return nil, invalidRange(cycles, w.NumCycles())
	}
	data := NewCycleValues(cycles.Len(), signals.Len())
	for id := signals.Start; id < signals.End; id++ {
		col, err := w.cache.Get(w.pipe, id, cycles)
		if err != nil {
			return nil, err
		}
		for r := range col {
			data.At(r, id-signals.Start).Set(&col[r])
		}
	}
	return &Slice{
		data:    data,
		names:   w.names,
		formats: w.formats,
		Signals: signals,
		Cycles:  cycles,
	}, nil
}

// Value returns the value of a signal at a given cycle.
//
func (w *Wave) Value(signal, cycle int) (*big.Int, error) {
	if cycle < 0 || cycle >= w.NumCycles() {
		return nil, errors.Wrapf(ErrCycleOutOfRange, "cycle %d not in [0, %d)", cycle, w.NumCycles())
	}
	s, err := w.CachedSlice(Span{signal, signal + 1}, Span{cycle, cycle + 1})
	if err != nil {
		return nil, err
	}
	return s.Value(signal, cycle), nil
}

// FormattedValue returns the value of a signal at a given cycle, rendered
// with the signal's current format.
//
func (w *Wave) FormattedValue(signal, cycle int) (string, error) {
	v, err := w.Value(signal, cycle)
	if err != nil {
		return "", err
	}
	return FormatValue(v, w.formats[signal]), nil
}

// Name returns the name of a signal.
//
func (w *Wave) Name(signal int) (string, bool) {
	if signal < 0 || signal >= len(w.names) {
		return "", false
	}
	return w.names[signal], true
}

// Names returns the names of all visible signals. The returned slice must not
// be modified.
//
func (w *Wave) Names() []string { return w.names }

// Formatter returns the display format of a signal.
//
func (w *Wave) Formatter(signal int) Format { return w.formats[signal] }

// SetFormatter overrides the display format of a signal. This is purely
// cosmetic and does not invalidate the cache.
//
func (w *Wave) SetFormatter(signal int, f Format) { w.formats[signal] = f }

// PushFilter returns a new Wave with f appended to the pipeline.
//
func (w *Wave) PushFilter(f Filter) (*Wave, error) {
	return w.rebuild(w.pipe.Stage().Push(f))
}

// PopFilter returns a new Wave without the outermost filter, along with the
// removed filter. If the pipeline has no filters, PopFilter returns w itself
// and a nil Filter.
//
func (w *Wave) PopFilter() (*Wave, Filter, error) {
	pipe, f := w.pipe.Stage().Pop()
	if f == nil {
		return w, nil, nil
	}
	nw, err := w.rebuild(pipe)
	if err != nil {
		return nil, nil, err
	}
	return nw, f, nil
}

// Filters returns the number of filters in the pipeline.
//
func (w *Wave) Filters() int { return w.pipe.Stage().Depth() }

// PipelineConfig returns the pipeline configuration. Changes take effect on
// the next call to Reconfigure.
//
func (w *Wave) PipelineConfig() *PipelineConfig { return &w.config }

// Reconfigure passes the current PipelineConfig down the pipeline and returns
// a rebuilt Wave.
//
func (w *Wave) Reconfigure() (*Wave, error) {
	if err := w.pipe.Configure(&w.config); err != nil {
		return nil, errors.Wrap(err, "configure pipeline")
	}
	return w.Reload()
}

// Reload returns a Wave rebuilt from the current pipeline.
//
func (w *Wave) Reload() (*Wave, error) {
	return w.rebuild(w.pipe.Stage())
}

func (w *Wave) checkSearch(signal, start int) error {
	if signal < 0 || signal >= len(w.names) {
		return idOutOfRange(signal, len(w.names))
	}
	if start < 0 || start >= w.NumCycles() {
		return errors.Wrapf(ErrCycleOutOfRange, "cycle %d not in [0, %d)", start, w.NumCycles())
	}
	return nil
}

// NextTransition returns the first cycle after start where the value of signal
// differs from its value at start. It returns ErrNoTransition if there is none.
//
// The search fetches windows of Options.SearchHorizon cycles through the
// cache until the end of the data.
//
func (w *Wave) NextTransition(signal, start int) (int, error) {
	if err := w.checkSearch(signal, start); err != nil {
		return 0, err
	}
	n, h := w.NumCycles(), w.opts.SearchHorizon
	var ref *big.Int
	for lo := start; lo < n; lo += h {
		s, err := w.CachedSlice(Span{signal, signal + 1}, Span{lo, min(lo+h, n)})
		if err != nil {
			return 0, err
		}
		if ref == nil {
			ref = new(big.Int).Set(s.Value(signal, start))
		}
		if c, ok := s.nextDiff(signal, lo, ref); ok {
			return c, nil
		}
	}
	return 0, ErrNoTransition
}

// PrevTransition returns the last cycle before start where the value of signal
// differs from its value at start. It returns ErrNoTransition if there is none.
//
func (w *Wave) PrevTransition(signal, start int) (int, error) {
	if err := w.checkSearch(signal, start); err != nil {
		return 0, err
	}
	h := w.opts.SearchHorizon
	var ref *big.Int
	for hi := start + 1; hi > 0; {
		lo := max(hi-h, 0)
		s, err := w.CachedSlice(Span{signal, signal + 1}, Span{lo, hi})
		if err != nil {
			return 0, err
		}
		if ref == nil {
			ref = new(big.Int).Set(s.Value(signal, start))
		}
		if c, ok := s.prevDiff(signal, hi-1, ref); ok {
			return c, nil
		}
		hi = lo
	}
	return 0, ErrNoTransition
}
