// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package filter provides the reference pipeline filters.
//
// All filters here preserve pipeline ids and sample values: they only
// reorder, hide, rename or reclassify signals. Comment signals survive every
// filter but RemoveComments.
//
package filter

import (
	"regexp"
	"strings"

	"github.com/db47h/wavegrid"
	"github.com/pkg/errors"
)

// patternSet matches a name against any of a set of regular expressions.
type patternSet []*regexp.Regexp

func compile(patterns []string) (patternSet, error) {
	s := make(patternSet, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %q", p)
		}
		s = append(s, re)
	}
	return s, nil
}

func (s patternSet) match(name string) bool {
	for _, re := range s {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// keep returns the signals for which f returns true. Comments are always kept.
func keep(signals []wavegrid.Signal[int], f func(name string) bool) []wavegrid.Signal[int] {
	out := make([]wavegrid.Signal[int], 0, len(signals))
	for _, s := range signals {
		if s.Format.IsComment() || f(s.Name) {
			out = append(out, s)
		}
	}
	return out
}

// Grep keeps the signals whose name matches a regular expression.
//
type Grep struct {
	wavegrid.FilterBase
	re *regexp.Regexp
}

// NewGrep returns a Grep filter for the given pattern.
//
func NewGrep(pattern string) (*Grep, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "grep pattern %q", pattern)
	}
	return &Grep{re: re}, nil
}

// TranslateSignals implements wavegrid.Filter.
func (g *Grep) TranslateSignals(signals []wavegrid.Signal[int]) ([]wavegrid.Signal[int], error) {
	return keep(signals, g.re.MatchString), nil
}

// Ignore hides the signals matching any deny pattern, unless they also match
// an allow pattern.
//
type Ignore struct {
	wavegrid.FilterBase
	allow, deny patternSet
}

// NewIgnore returns a new Ignore filter.
//
func NewIgnore(allow, deny []string) (*Ignore, error) {
	a, err := compile(allow)
	if err != nil {
		return nil, errors.Wrap(err, "allow")
	}
	d, err := compile(deny)
	if err != nil {
		return nil, errors.Wrap(err, "deny")
	}
	return &Ignore{allow: a, deny: d}, nil
}

// TranslateSignals implements wavegrid.Filter.
func (f *Ignore) TranslateSignals(signals []wavegrid.Signal[int]) ([]wavegrid.Signal[int], error) {
	return keep(signals, func(n string) bool {
		return f.allow.match(n) || !f.deny.match(n)
	}), nil
}

// RemoveComments hides all Comment signals.
//
type RemoveComments struct {
	wavegrid.FilterBase
}

// TranslateSignals implements wavegrid.Filter.
func (RemoveComments) TranslateSignals(signals []wavegrid.Signal[int]) ([]wavegrid.Signal[int], error) {
	out := make([]wavegrid.Signal[int], 0, len(signals))
	for _, s := range signals {
		if !s.Format.IsComment() {
			out = append(out, s)
		}
	}
	return out, nil
}

// ReplacePrefix renames signals starting with Prefix, replacing that prefix
// with Replacement.
//
type ReplacePrefix struct {
	wavegrid.FilterBase
	Prefix      string
	Replacement string
}

// TranslateSignals implements wavegrid.Filter.
func (f *ReplacePrefix) TranslateSignals(signals []wavegrid.Signal[int]) ([]wavegrid.Signal[int], error) {
	out := make([]wavegrid.Signal[int], len(signals))
	for i, s := range signals {
		if rest, ok := strings.CutPrefix(s.Name, f.Prefix); ok {
			s.Name = f.Replacement + rest
		}
		out[i] = s
	}
	return out, nil
}

// Analog displays the Vector and BitVector signals whose name matches any of
// a set of patterns as analog values in [min, max].
//
type Analog struct {
	wavegrid.FilterBase
	patterns patternSet
	min, max float64
}

// NewAnalog returns a new Analog filter.
//
func NewAnalog(patterns []string, min, max float64) (*Analog, error) {
	p, err := compile(patterns)
	if err != nil {
		return nil, errors.Wrap(err, "analog")
	}
	return &Analog{patterns: p, min: min, max: max}, nil
}

// TranslateSignals implements wavegrid.Filter.
func (f *Analog) TranslateSignals(signals []wavegrid.Signal[int]) ([]wavegrid.Signal[int], error) {
	out := make([]wavegrid.Signal[int], len(signals))
	for i, s := range signals {
		switch s.Format.Kind {
		case wavegrid.Vector, wavegrid.BitVector:
			if f.patterns.match(s.Name) {
				s.Format = wavegrid.AnalogFormat(s.Format.Width, f.min, f.max)
			}
		}
		out[i] = s
	}
	return out, nil
}
