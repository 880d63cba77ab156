// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simtime implements fixed-point simulation timestamps.
//
// A Time is an unsigned magnitude in a physical unit. Arithmetic between times
// of different units is carried out on arbitrary precision integers expressed
// in femtoseconds, so that dividing seconds by femtoseconds never overflows.
//
package simtime

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// ErrInvalidTime is returned when a string cannot be interpreted as a time or
// time unit.
//
var ErrInvalidTime = errors.New("invalid time")

// ErrOverflow is returned when scaling a Time would overflow its magnitude.
//
var ErrOverflow = errors.New("time overflow")

// Unit is a physical time unit. Units are totally ordered, FS being the
// smallest.
//
type Unit int

// Time units.
const (
	FS Unit = iota
	PS
	NS
	US
	MS
	S
)

var unitNames = [...]string{"fs", "ps", "ns", "us", "ms", "s"}

// multiplier returns the number of femtoseconds in one u.
func (u Unit) multiplier() uint64 {
	m := uint64(1)
	for i := FS; i < u; i++ {
		m *= 1000
	}
	return m
}

func (u Unit) String() string {
	if u < FS || u > S {
		return "Unit(" + strconv.Itoa(int(u)) + ")"
	}
	return unitNames[u]
}

// ParseUnit parses a case-insensitive unit name among s, ms, us, ns, ps and fs.
//
func ParseUnit(s string) (Unit, error) {
	ls := strings.ToLower(strings.TrimSpace(s))
	for i, n := range unitNames {
		if ls == n {
			return Unit(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidTime, "unknown unit %q", s)
}

// Time is a simulation timestamp.
//
type Time struct {
	Value uint64
	Unit  Unit
}

// New returns a Time of v units u.
//
func New(v uint64, u Unit) Time {
	return Time{Value: v, Unit: u}
}

// Zero returns the zero Time.
//
func Zero() Time {
	return Time{Unit: S}
}

// Parse parses a time like "100ps" or "1 ns". The magnitude defaults to 1 when
// omitted ("ns").
//
func Parse(s string) (Time, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if i < 0 {
		return Time{}, errors.Wrapf(ErrInvalidTime, "missing unit in %q", s)
	}
	v := uint64(1)
	if i > 0 {
		var err error
		v, err = strconv.ParseUint(s[:i], 10, 64)
		if err != nil {
			return Time{}, errors.Wrapf(ErrInvalidTime, "bad magnitude in %q", s)
		}
	}
	u, err := ParseUnit(s[i:])
	if err != nil {
		return Time{}, err
	}
	return New(v, u), nil
}

// IsZero reports whether t has a zero magnitude.
//
func (t Time) IsZero() bool {
	return t.Value == 0
}

// Femtoseconds returns t expressed in femtoseconds.
//
func (t Time) Femtoseconds() *big.Int {
	b := new(big.Int).SetUint64(t.Value)
	return b.Mul(b, new(big.Int).SetUint64(t.Unit.multiplier()))
}

// In returns t expressed in unit u. The boolean is false if t is not an exact
// multiple of u or the result does not fit in an uint64.
//
func (t Time) In(u Unit) (uint64, bool) {
	q, r := new(big.Int).QuoRem(t.Femtoseconds(), new(big.Int).SetUint64(u.multiplier()), new(big.Int))
	if r.Sign() != 0 || !q.IsUint64() {
		return 0, false
	}
	return q.Uint64(), true
}

// Scale returns t multiplied by n, keeping its unit.
//
func (t Time) Scale(n uint64) (Time, error) {
	if n != 0 && t.Value > math.MaxUint64/n {
		return Time{}, errors.Wrapf(ErrOverflow, "%v * %d", t, n)
	}
	return Time{Value: t.Value * n, Unit: t.Unit}, nil
}

// MustScale is like Scale but panics on overflow.
//
func (t Time) MustScale(n uint64) Time {
	s, err := t.Scale(n)
	if err != nil {
		panic(err)
	}
	return s
}

// Cmp compares t and o and returns -1, 0 or +1.
//
func (t Time) Cmp(o Time) int {
	return t.Femtoseconds().Cmp(o.Femtoseconds())
}

func (t Time) String() string {
	return strconv.FormatUint(t.Value, 10) + t.Unit.String()
}

// Div returns the floored ratio a / b.
//
// Div panics if b is zero or if the quotient does not fit in an uint64.
//
func Div(a, b Time) uint64 {
	d := b.Femtoseconds()
	if d.Sign() == 0 {
		panic("simtime: division by zero time")
	}
	// both operands are non-negative: truncation is flooring.
	q := new(big.Int).Quo(a.Femtoseconds(), d)
	if !q.IsUint64() {
		panic("simtime: quotient overflow in " + a.String() + " / " + b.String())
	}
	return q.Uint64()
}

// Range is a half-open time interval [Start, Stop).
//
type Range struct {
	Start Time
	Stop  Time
}
