// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wavetest

import (
	"embed"
	"fmt"
	"math/big"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/db47h/wavegrid"
	"github.com/pkg/errors"
)

//go:embed testdata/*.vcd
var fixtures embed.FS

// Fixture writes the named VCD fixture to a temporary directory and returns
// its path.
//
//	counter.vcd  1ns timescale, top.clk = cycle%2, top.count[7:0] = cycle/4
//	             for cycles 0..15, a comment in top and a nested scope top.sub
//	step.vcd     1ns timescale, 3000 cycles of sparse changes
//	rescale.vcd  timescale switching from 1ns to 100ps at #4
//
func Fixture(t testing.TB, name string) string {
	t.Helper()
	b, err := fixtures.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(t.TempDir(), name)
	if err = os.WriteFile(p, b, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// Trace fails the test with err and its stack trace if err is not nil.
//
func Trace(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		return
	}
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
	t.Fatal(err)
}

// CompareColumns queries random windows of w through its cache and compares
// every value against the oracle, called with the signal's name and a cycle.
// Comment signals are expected to read as 0.
//
func CompareColumns(t *testing.T, w *wavegrid.Wave, iter int, oracle func(name string, cycle int) int64) {
	t.Helper()

	n, m := w.NumSignals(), w.NumCycles()
	if n == 0 || m == 0 {
		return
	}
	seed := time.Now().UnixNano()
	rnd := rand.New(rand.NewSource(seed))

	errString := func(sig, cyc int, ex int64, got *big.Int) string {
		name, _ := w.Name(sig)
		return fmt.Sprintf("seed %d: %s @%d: expected %d, got %v", seed, name, cyc, ex, got)
	}

	check := func(sigs, cycles wavegrid.Span) {
		s, err := w.CachedSlice(sigs, cycles)
		Trace(t, err)
		for sig := sigs.Start; sig < sigs.End; sig++ {
			name, _ := w.Name(sig)
			for c := cycles.Start; c < cycles.End; c++ {
				var ex int64
				if !w.Formatter(sig).IsComment() {
					ex = oracle(name, c)
				}
				if got := s.Value(sig, c); got.Cmp(big.NewInt(ex)) != 0 {
					t.Fatal(errString(sig, c, ex, got))
				}
			}
		}
	}

	// whole grid
	check(wavegrid.Span{Start: 0, End: n}, wavegrid.Span{Start: 0, End: m})

	start := time.Now()
	for i := 0; i < iter; i++ {
		s0 := rnd.Intn(n)
		c0 := rnd.Intn(m)
		check(wavegrid.Span{Start: s0, End: s0 + 1 + rnd.Intn(n-s0)},
			wavegrid.Span{Start: c0, End: c0 + 1 + rnd.Intn(m-c0)})
	}
	st := w.Cache().Stats()
	t.Logf("%d windows in %v. %d hits, %d misses, %d evictions", iter, time.Since(start), st.Hits, st.Misses, st.Evictions)
}
