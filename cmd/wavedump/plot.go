// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"math/big"

	"github.com/db47h/wavegrid"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// lane is the vertical space given to each signal in a plot.
const lane = 1.5

// traces returns one stepped line per non-comment signal of s. Values are
// scaled to [0, 1] within the window and stacked, first signal on top.
func traces(s *wavegrid.Slice) ([]string, []plotter.XYs) {
	var (
		names []string
		lines []plotter.XYs
	)
	n := s.Signals.Len()
	for id := s.Signals.Start; id < s.Signals.End; id++ {
		if s.Formatter(id).IsComment() {
			continue
		}
		col, err := s.Column(id)
		if err != nil {
			continue
		}
		vs := make([]float64, len(col))
		hi := 0.0
		for i := range col {
			vs[i] = toFloat(col[i])
			hi = max(hi, vs[i])
		}
		if hi == 0 {
			hi = 1
		}
		base := lane * float64(n-(id-s.Signals.Start)-1)
		xy := make(plotter.XYs, len(vs))
		for i, v := range vs {
			xy[i].X = float64(s.Cycles.Start + i)
			xy[i].Y = base + v/hi
		}
		names = append(names, s.Name(id))
		lines = append(lines, xy)
	}
	return names, lines
}

func toFloat(v *big.Int) float64 {
	if v.IsInt64() {
		return float64(v.Int64())
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

func plotSlice(path string, s *wavegrid.Slice) error {
	p := plot.New()
	p.Title.Text = "wavedump"
	p.X.Label.Text = "cycle"
	p.Y.Tick.Marker = plot.ConstantTicks(nil)

	names, lines := traces(s)
	for i, xy := range lines {
		l, err := plotter.NewLine(xy)
		if err != nil {
			return errors.Wrapf(err, "plot %s", names[i])
		}
		l.StepStyle = plotter.PostStep
		l.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(names[i], l)
	}
	p.Legend.Top = true

	h := vg.Length(max(len(lines), 2)) * vg.Inch / 2
	return errors.Wrap(p.Save(10*vg.Inch, h, path), "save plot")
}
