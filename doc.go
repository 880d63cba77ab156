/*
Package wavegrid turns simulation traces into cycle-aligned grids of signal
values for waveform viewers.

A Source (see the vcd and plugin packages) reports the signals of a trace and
samples their values over a time range. Sources are wrapped in a Stage, a
chain of Filters that hide, rename, reorder or reformat signals. Dense maps
the filtered signal ids to a contiguous 0..N-1 range, and a Wave serves
rectangular windows of values out of an LRU cache of fixed-size tiles:

	src, err := vcd.Open("cpu.vcd", vcd.Options{CycleTime: simtime.New(10, simtime.NS)})
	if err != nil {
		// handle error
	}
	w, err := wavegrid.Load(src, wavegrid.Options{})
	if err != nil {
		// handle error
	}
	s, err := w.CachedSlice(wavegrid.Span{Start: 0, End: w.NumSignals()}, wavegrid.Span{Start: 0, End: 100})

Values are arbitrary precision unsigned integers (*big.Int). Unknown and high
impedance states read as 0.

Pipeline changes (PushFilter, PopFilter, Reconfigure, Reload) return a new
Wave with a fresh cache. The previous Wave must not be used afterwards.
Popping a chain that has no filters returns the same Wave, cache included.
*/
package wavegrid
