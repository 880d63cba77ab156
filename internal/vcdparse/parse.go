// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package vcdparse implements a streaming parser for Value Change Dump files.
//
// The parser is split in two phases: ParseHeader reads the declarations up to
// $enddefinitions, then Next returns the simulation commands one by one.
//
package vcdparse

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/db47h/wavegrid/simtime"
	"github.com/pkg/errors"
)

// ErrSyntax indicates a malformed trace.
var ErrSyntax = errors.New("vcd syntax error")

const maxToken = 64 << 20

// ItemKind is the kind of a scope item.
//
type ItemKind int

// Scope item kinds.
const (
	ItemVar ItemKind = iota
	ItemScope
	ItemComment
)

// Var is a $var declaration.
//
type Var struct {
	Type      string
	Size      int
	Code      string
	Reference string
}

// Scope is a $scope declaration and its items.
//
type Scope struct {
	Type  string
	Name  string
	Items []Item
}

// Item is one entry in a scope, in declaration order.
//
type Item struct {
	Kind    ItemKind
	Var     *Var
	Scope   *Scope
	Comment string
}

// Header holds the declaration section of a trace.
//
type Header struct {
	Date    string
	Version string
	// Comment holds the top-level $comment sections, which are not tied to
	// any scope.
	Comment      string
	Timescale    simtime.Time
	HasTimescale bool
	// Items holds the top-level declarations.
	Items []Item
}

// CommandKind is the kind of a simulation command.
//
type CommandKind int

// Command kinds.
const (
	Timestamp CommandKind = iota
	ChangeScalar
	ChangeVector
	ChangeReal
	Timescale
)

var cmdNames = [...]string{"Timestamp", "ChangeScalar", "ChangeVector", "ChangeReal", "Timescale"}

func (k CommandKind) String() string {
	if k < Timestamp || k > Timescale {
		return "CommandKind(" + strconv.Itoa(int(k)) + ")"
	}
	return cmdNames[k]
}

// Command is a simulation command.
//
//	Timestamp     Time
//	ChangeScalar  Code, Value (a single state character)
//	ChangeVector  Code, Value (digits, MSB first)
//	ChangeReal    Code, Value (the number as written)
//	Timescale     Timescale
//
type Command struct {
	Kind      CommandKind
	Time      uint64
	Code      string
	Value     string
	Timescale simtime.Time
}

// Parser reads a trace from an io.Reader.
//
type Parser struct {
	s   *bufio.Scanner
	tok int
}

// NewParser returns a new parser reading from r.
//
func NewParser(r io.Reader) *Parser {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxToken)
	s.Split(bufio.ScanWords)
	return &Parser{s: s}
}

func (p *Parser) next() (string, error) {
	if !p.s.Scan() {
		if err := p.s.Err(); err != nil {
			return "", errors.Wrap(err, "read trace")
		}
		return "", io.EOF
	}
	p.tok++
	return p.s.Text(), nil
}

// mustNext is like next but treats EOF as a syntax error.
func (p *Parser) mustNext(what string) (string, error) {
	t, err := p.next()
	if err == io.EOF {
		return "", p.errorf("unexpected end of file, expected %s", what)
	}
	return t, err
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrSyntax, "token %d: "+format, append([]interface{}{p.tok}, args...)...)
}

// section returns the words up to the next $end.
func (p *Parser) section(kw string) ([]string, error) {
	var words []string
	for {
		t, err := p.mustNext("$end after " + kw)
		if err != nil {
			return nil, err
		}
		if t == "$end" {
			return words, nil
		}
		words = append(words, t)
	}
}

func (p *Parser) text(kw string) (string, error) {
	w, err := p.section(kw)
	return strings.Join(w, " "), err
}

func (p *Parser) timescale() (simtime.Time, error) {
	w, err := p.section("$timescale")
	if err != nil {
		return simtime.Time{}, err
	}
	ts, err := simtime.Parse(strings.Join(w, ""))
	if err != nil {
		return simtime.Time{}, errors.Wrapf(err, "token %d", p.tok)
	}
	if ts.IsZero() {
		return simtime.Time{}, p.errorf("zero timescale")
	}
	return ts, nil
}

func (p *Parser) variable() (*Var, error) {
	w, err := p.section("$var")
	if err != nil {
		return nil, err
	}
	if len(w) < 4 {
		return nil, p.errorf("malformed $var: %q", strings.Join(w, " "))
	}
	size, err := strconv.Atoi(w[1])
	if err != nil || size <= 0 {
		return nil, p.errorf("invalid $var size %q", w[1])
	}
	// the bit select, if any, may be written apart from the reference
	return &Var{Type: w[0], Size: size, Code: w[2], Reference: strings.Join(w[3:], "")}, nil
}

// ParseHeader reads the declaration section up to and including
// $enddefinitions.
//
func (p *Parser) ParseHeader() (*Header, error) {
	h := new(Header)
	var stack []*Scope

	add := func(it Item) {
		if len(stack) == 0 {
			h.Items = append(h.Items, it)
			return
		}
		s := stack[len(stack)-1]
		s.Items = append(s.Items, it)
	}

	for {
		t, err := p.mustNext("$enddefinitions")
		if err != nil {
			return nil, err
		}
		switch t {
		case "$date":
			if h.Date, err = p.text(t); err != nil {
				return nil, err
			}
		case "$version":
			if h.Version, err = p.text(t); err != nil {
				return nil, err
			}
		case "$comment":
			c, err := p.text(t)
			if err != nil {
				return nil, err
			}
			if len(stack) == 0 {
				if h.Comment != "" {
					h.Comment += "\n"
				}
				h.Comment += c
				break
			}
			add(Item{Kind: ItemComment, Comment: c})
		case "$timescale":
			if h.Timescale, err = p.timescale(); err != nil {
				return nil, err
			}
			h.HasTimescale = true
		case "$scope":
			w, err := p.section(t)
			if err != nil {
				return nil, err
			}
			if len(w) != 2 {
				return nil, p.errorf("malformed $scope: %q", strings.Join(w, " "))
			}
			s := &Scope{Type: w[0], Name: w[1]}
			add(Item{Kind: ItemScope, Scope: s})
			stack = append(stack, s)
		case "$upscope":
			if _, err = p.section(t); err != nil {
				return nil, err
			}
			if len(stack) == 0 {
				return nil, p.errorf("$upscope without $scope")
			}
			stack = stack[:len(stack)-1]
		case "$var":
			v, err := p.variable()
			if err != nil {
				return nil, err
			}
			add(Item{Kind: ItemVar, Var: v})
		case "$enddefinitions":
			if _, err = p.section(t); err != nil {
				return nil, err
			}
			return h, nil
		default:
			if strings.HasPrefix(t, "$") {
				// unknown declaration
				if _, err = p.section(t); err != nil {
					return nil, err
				}
				break
			}
			return nil, p.errorf("unexpected %q in header", t)
		}
	}
}

// Next returns the next simulation command. It returns io.EOF at the end of
// the trace.
//
// $dumpvars, $dumpall, $dumpon and $dumpoff are transparent: the value
// changes they enclose are returned as regular changes. $comment sections are
// skipped.
//
func (p *Parser) Next() (Command, error) {
	for {
		t, err := p.next()
		if err != nil {
			return Command{}, err
		}
		switch c := t[0]; {
		case c == '#':
			v, err := strconv.ParseUint(t[1:], 10, 64)
			if err != nil {
				return Command{}, p.errorf("invalid timestamp %q", t)
			}
			return Command{Kind: Timestamp, Time: v}, nil
		case c == '$':
			switch t {
			case "$comment":
				if _, err = p.section(t); err != nil {
					return Command{}, err
				}
			case "$timescale":
				ts, err := p.timescale()
				if err != nil {
					return Command{}, err
				}
				return Command{Kind: Timescale, Timescale: ts}, nil
			}
			// $dumpvars, $end and friends
		case c == 'b' || c == 'B':
			code, err := p.mustNext("identifier code")
			if err != nil {
				return Command{}, err
			}
			return Command{Kind: ChangeVector, Code: code, Value: t[1:]}, nil
		case c == 'r' || c == 'R':
			code, err := p.mustNext("identifier code")
			if err != nil {
				return Command{}, err
			}
			return Command{Kind: ChangeReal, Code: code, Value: t[1:]}, nil
		case strings.IndexByte("01xXzZuUwWlLhH-", c) >= 0:
			if len(t) < 2 {
				return Command{}, p.errorf("missing identifier code after %q", t)
			}
			return Command{Kind: ChangeScalar, Code: t[1:], Value: t[:1]}, nil
		default:
			return Command{}, p.errorf("unexpected %q", t)
		}
	}
}
