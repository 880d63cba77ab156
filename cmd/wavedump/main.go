// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command wavedump prints a window of a VCD trace as a grid of cycle-aligned
// values.
//
//	wavedump [flags] trace.vcd
//
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/db47h/wavegrid"
	"github.com/db47h/wavegrid/filter"
	"github.com/db47h/wavegrid/simtime"
	"github.com/db47h/wavegrid/vcd"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89B4FA"))
	nameStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	commentStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#6C7086"))
)

type config struct {
	cycle   string
	from    int
	count   int
	grep    string
	ignore  string
	list    string
	analog  string
	plot    string
	stats   bool
	cache   int
	verbose bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.cycle, "cycle", "", "cycle time, e.g. 10ns (default: trace timescale)")
	flag.IntVar(&cfg.from, "from", 0, "first cycle to print")
	flag.IntVar(&cfg.count, "n", 32, "number of cycles to print")
	flag.StringVar(&cfg.grep, "grep", "", "only show signals matching this regular expression")
	flag.StringVar(&cfg.ignore, "ignore", "", "comma separated regular expressions of signals to hide")
	flag.StringVar(&cfg.list, "list", "", "file listing the signals to show, one per line, in display order")
	flag.StringVar(&cfg.analog, "analog", "", "comma separated regular expressions of vectors to display as analog values")
	flag.StringVar(&cfg.plot, "plot", "", "also plot the window to this PNG file")
	flag.BoolVar(&cfg.stats, "stats", false, "print cache metrics on exit")
	flag.IntVar(&cfg.cache, "cache", wavegrid.DefaultCacheCapacity, "tile cache capacity")
	flag.BoolVar(&cfg.verbose, "v", false, "debug logging")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: wavedump [flags] trace.vcd")
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	reg := prometheus.NewRegistry()
	if err := run(os.Stdout, flag.Arg(0), &cfg, reg); err != nil {
		fmt.Fprintf(os.Stderr, "wavedump: %v\n", err)
		os.Exit(1)
	}
	if cfg.stats {
		if err := printStats(os.Stdout, reg); err != nil {
			fmt.Fprintf(os.Stderr, "wavedump: %v\n", err)
			os.Exit(1)
		}
	}
}

func run(out io.Writer, path string, cfg *config, reg prometheus.Registerer) error {
	var opts vcd.Options
	if cfg.cycle != "" {
		ct, err := simtime.Parse(cfg.cycle)
		if err != nil {
			return errors.Wrap(err, "-cycle")
		}
		opts.CycleTime = ct
	}
	src, err := vcd.Open(path, opts)
	if err != nil {
		return err
	}
	w, err := wavegrid.Load(src, wavegrid.Options{
		Cache:      wavegrid.CacheConfig{Capacity: cfg.cache},
		Registerer: reg,
	})
	if err != nil {
		return err
	}
	if w, err = pipeline(w, cfg); err != nil {
		return err
	}

	cycles := wavegrid.Span{Start: cfg.from, End: min(cfg.from+cfg.count, w.NumCycles())}
	if cycles.Start < 0 || cycles.Start >= w.NumCycles() {
		return errors.Wrapf(wavegrid.ErrCycleOutOfRange, "-from %d, trace has %d cycles", cfg.from, w.NumCycles())
	}
	s, err := w.CachedSlice(wavegrid.Span{Start: 0, End: w.NumSignals()}, cycles)
	if err != nil {
		return err
	}
	render(out, s)
	if cfg.plot != "" {
		return plotSlice(cfg.plot, s)
	}
	return nil
}

// pipeline pushes the filters selected by cfg.
func pipeline(w *wavegrid.Wave, cfg *config) (*wavegrid.Wave, error) {
	if cfg.grep != "" {
		g, err := filter.NewGrep(cfg.grep)
		if err != nil {
			return nil, errors.Wrap(err, "-grep")
		}
		if w, err = w.PushFilter(g); err != nil {
			return nil, err
		}
	}
	if cfg.ignore != "" {
		f, err := filter.NewIgnore(nil, strings.Split(cfg.ignore, ","))
		if err != nil {
			return nil, errors.Wrap(err, "-ignore")
		}
		if w, err = w.PushFilter(f); err != nil {
			return nil, err
		}
	}
	if cfg.analog != "" {
		f, err := filter.NewAnalog(strings.Split(cfg.analog, ","), 0, 1)
		if err != nil {
			return nil, errors.Wrap(err, "-analog")
		}
		if w, err = w.PushFilter(f); err != nil {
			return nil, err
		}
	}
	if cfg.list != "" {
		names, err := readList(cfg.list)
		if err != nil {
			return nil, err
		}
		if w, err = w.PushFilter(filter.NewSignalList(nil)); err != nil {
			return nil, err
		}
		pc := w.PipelineConfig()
		pc.NameList = names
		pc.EnableFilterList = true
		if w, err = w.Reconfigure(); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// readList reads a signal list file. Blank lines and lines starting with '#'
// are skipped.
func readList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "-list")
	}
	defer f.Close()
	var names []string
	s := bufio.NewScanner(f)
	for s.Scan() {
		l := strings.TrimSpace(s.Text())
		if l == "" || l[0] == '#' {
			continue
		}
		names = append(names, l)
	}
	return names, errors.Wrapf(s.Err(), "read %s", path)
}

func render(out io.Writer, s *wavegrid.Slice) {
	width := 0
	for id := s.Signals.Start; id < s.Signals.End; id++ {
		width = max(width, len(s.Name(id)))
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-*s", width, "cycle")))
	for c := s.Cycles.Start; c < s.Cycles.End; c++ {
		fmt.Fprintf(&b, " %s", headerStyle.Render(fmt.Sprint(c)))
	}
	fmt.Fprintln(out, b.String())

	for id := s.Signals.Start; id < s.Signals.End; id++ {
		b.Reset()
		name := fmt.Sprintf("%-*s", width, s.Name(id))
		if s.Formatter(id).IsComment() {
			fmt.Fprintln(out, commentStyle.Render(name))
			continue
		}
		b.WriteString(nameStyle.Render(name))
		for c := s.Cycles.Start; c < s.Cycles.End; c++ {
			v, _ := s.FormattedValue(id, c)
			fmt.Fprintf(&b, " %*s", len(fmt.Sprint(c)), v)
		}
		fmt.Fprintln(out, b.String())
	}
}

func printStats(out io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	sort.Slice(mfs, func(i, j int) bool { return mfs[i].GetName() < mfs[j].GetName() })
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			v := m.GetGauge().GetValue()
			if c := m.GetCounter(); c != nil {
				v = c.GetValue()
			}
			fmt.Fprintf(out, "%s %g\n", mf.GetName(), v)
		}
	}
	return nil
}
