// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wavegrid

import (
	"strconv"
)

// FormatKind is the display class of a signal.
//
type FormatKind int

// Display classes.
const (
	Bit FormatKind = iota
	Vector
	BitVector
	Analog
	Comment
)

var kindNames = [...]string{"Bit", "Vector", "BitVector", "Analog", "Comment"}

func (k FormatKind) String() string {
	if k < Bit || k > Comment {
		return "FormatKind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Format is the display format tag carried by each signal. It is never
// interpreted by the sampling path.
//
// Width is meaningful for Vector, BitVector and Analog, Min and Max for Analog
// only.
//
type Format struct {
	Kind  FormatKind
	Width int
	Min   float64
	Max   float64
}

// Common formats.
var (
	BitFormat     = Format{Kind: Bit, Width: 1}
	CommentFormat = Format{Kind: Comment}
)

// VectorFormat returns a Vector format of the given width.
func VectorFormat(width int) Format { return Format{Kind: Vector, Width: width} }

// BitVectorFormat returns a BitVector format of the given width.
func BitVectorFormat(width int) Format { return Format{Kind: BitVector, Width: width} }

// AnalogFormat returns an Analog format.
func AnalogFormat(width int, min, max float64) Format {
	return Format{Kind: Analog, Width: width, Min: min, Max: max}
}

// IsComment reports whether f marks an annotation pseudo-signal.
func (f Format) IsComment() bool { return f.Kind == Comment }

func (f Format) String() string {
	switch f.Kind {
	case Vector, BitVector:
		return f.Kind.String() + "(" + strconv.Itoa(f.Width) + ")"
	case Analog:
		return "Analog(" + strconv.Itoa(f.Width) + ", " +
			strconv.FormatFloat(f.Min, 'g', -1, 64) + ", " +
			strconv.FormatFloat(f.Max, 'g', -1, 64) + ")"
	}
	return f.Kind.String()
}

// Signal is a signal declaration tagged with an identifier of type ID.
//
// The same signal carries a different ID type at each level: a Source's
// native id (its name), the pipeline id assigned by the Source at load time,
// or the dense id exposed by a Dense adapter.
//
type Signal[ID any] struct {
	ID     ID
	Name   string
	Format Format
}

// PipelineConfig is the external steering state passed to filters through
// Configure.
//
type PipelineConfig struct {
	NameList         []string
	EnableFilterList bool
}

// Span is a half-open range [Start, End) of signal ids or cycles.
//
type Span struct {
	Start, End int
}

// Len returns the number of elements in s.
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Contains reports whether i is in s.
func (s Span) Contains(i int) bool {
	return s.Start <= i && i < s.End
}

func (s Span) String() string {
	return "[" + strconv.Itoa(s.Start) + ", " + strconv.Itoa(s.End) + ")"
}
