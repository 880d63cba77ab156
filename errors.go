// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wavegrid

import (
	"github.com/db47h/wavegrid/simtime"
	"github.com/pkg/errors"
)

// Lookup errors
var (
	// ErrNotFound indicates that a signal name has no matching signal.
	ErrNotFound = errors.New("signal not found")

	// ErrIDOutOfRange indicates that a signal id is outside a stage's universe.
	ErrIDOutOfRange = errors.New("id out of range")
)

// Range errors. These indicate a caller bug or a stale adapter and are never
// silently clamped.
var (
	// ErrCycleOutOfRange indicates that a cycle is outside the trace.
	ErrCycleOutOfRange = errors.New("cycle out of range")

	// ErrInvalidRange indicates that a window lies outside the data extent.
	ErrInvalidRange = errors.New("invalid range")
)

// ErrInvalidTime indicates a malformed time or time unit.
var ErrInvalidTime = simtime.ErrInvalidTime

// ErrInternal indicates a broken invariant (should not happen).
var ErrInternal = errors.New("internal error")

// ErrNoTransition is returned by transition searches that reach the end of
// the data without finding a different value.
var ErrNoTransition = errors.New("no transition found")

func idOutOfRange(id, n int) error {
	return errors.Wrapf(ErrIDOutOfRange, "id %d not in [0, %d)", id, n)
}

func invalidRange(s Span, n int) error {
	return errors.Wrapf(ErrInvalidRange, "%v not within [0, %d)", s, n)
}
