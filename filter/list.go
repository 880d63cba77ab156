// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package filter

import (
	"sort"

	"github.com/db47h/wavegrid"
)

// SignalList keeps the signals named in an ordered list, in list order.
//
// Comments are kept and sort right after the closest preceding listed signal
// in input order, or first if there is none. When disabled, SignalList passes
// its input through.
//
// The list and the enabled state are updated by Configure from
// PipelineConfig.NameList and PipelineConfig.EnableFilterList.
//
type SignalList struct {
	wavegrid.FilterBase
	keys    map[string]int
	enabled bool
}

// NewSignalList returns an enabled SignalList filter for the given names.
//
func NewSignalList(names []string) *SignalList {
	l := &SignalList{enabled: true}
	l.setNames(names)
	return l
}

func (l *SignalList) setNames(names []string) {
	l.keys = make(map[string]int, len(names))
	for i, n := range names {
		l.keys[n] = i
	}
}

// Enabled reports whether the filter is enabled.
//
func (l *SignalList) Enabled() bool { return l.enabled }

// TranslateSignals implements wavegrid.Filter.
func (l *SignalList) TranslateSignals(signals []wavegrid.Signal[int]) ([]wavegrid.Signal[int], error) {
	if !l.enabled {
		return signals, nil
	}
	type keyed struct {
		key int
		sig wavegrid.Signal[int]
	}
	var (
		out []keyed
		key int
	)
	for _, s := range signals {
		if k, ok := l.keys[s.Name]; ok {
			key = k
			out = append(out, keyed{k, s})
		} else if s.Format.IsComment() {
			out = append(out, keyed{key, s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].key < out[j].key })

	sigs := make([]wavegrid.Signal[int], len(out))
	for i := range out {
		sigs[i] = out[i].sig
	}
	return sigs, nil
}

// Configure implements wavegrid.Filter.
func (l *SignalList) Configure(cfg *wavegrid.PipelineConfig) error {
	l.setNames(cfg.NameList)
	l.enabled = cfg.EnableFilterList
	return nil
}
