// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wavegrid

// A Filter transforms the signal list of the previous stage in a pipeline and
// optionally the values sampled through it.
//
// Filters must keep Comment signals unless removing them is their purpose.
// TranslateSignals must be a pure function of its input and of the filter's
// own state.
//
// Custom filters should embed FilterBase and override what they need.
//
type Filter interface {
	// TranslateSignals returns a new signal list (reordered, renamed,
	// hidden or reclassified) from the previous stage's list.
	TranslateSignals(signals []Signal[int]) ([]Signal[int], error)
	// RevTranslateIDs returns the ids to request from the previous stage
	// given ids requested at this stage.
	RevTranslateIDs(ids []int) ([]int, error)
	// Transform updates values sampled from the previous stage in place.
	Transform(values *CycleValues)
	// Configure updates the filter's state from cfg. Configure must be
	// idempotent.
	Configure(cfg *PipelineConfig) error
}

// FilterBase provides the default implementations of the optional Filter
// capabilities: identity id translation, no value transform and no
// configuration.
//
type FilterBase struct{}

// RevTranslateIDs returns ids unchanged.
func (FilterBase) RevTranslateIDs(ids []int) ([]int, error) { return ids, nil }

// Transform does nothing.
func (FilterBase) Transform(*CycleValues) {}

// Configure does nothing.
func (FilterBase) Configure(*PipelineConfig) error { return nil }
