// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package modetab holds the mode name table that the distilled spec
// reduces to "Linear/AM/FM," restoring the concrete mode list and its
// per-mode filter/AGC defaults from original_source/modes.c's readmodes
// and its Demodtab. A mode (e.g. "usb") selects both a demodulator kind
// and the parameters that configure it: passband edges, a post-detection
// shift, AGC attack/recovery/hang, and the ISB/flat/square/PLL/mono
// option flags modes.c parses from trailing whitespace-separated words.
package modetab

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Kind identifies which of the three demodulators a mode selects,
// mirroring original_source/radio.h's enum demod_type.
type Kind int

const (
	KindLinear Kind = iota
	KindAM
	KindFM
)

// String names k the way original_source/modes.c's Demodtab does.
func (k Kind) String() string {
	switch k {
	case KindLinear:
		return "Linear"
	case KindAM:
		return "AM"
	case KindFM:
		return "FM"
	default:
		return "unknown"
	}
}

// Entry is one mode table row: a name plus the demodulator kind and
// defaults it selects.
type Entry struct {
	Name  string
	Demod Kind

	Low, High float64 // filter passband edges, Hz
	Shift     float64 // post-detection frequency shift, Hz

	AttackRate    float64 // AGC attack rate, negative dB/block
	RecoveryRate  float64 // AGC recovery rate, positive dB/s
	HangTime      float64 // AGC hang time, seconds

	Channels int // 1 (mono) or 2 (stereo)
	ISB      bool
	Flat     bool // FM only: disable de-emphasis
	Square   bool // Linear only: implies PLL
	PLL      bool // Linear only
}

// Default reproduces the mode list shipped with the original program
// (usb, lsb, cwu, cwl, am, fm, wfm, iq, dsb), the feature the distilled
// spec drops in favor of naming only the three demodulator kinds.
var Default = []Entry{
	{Name: "usb", Demod: KindLinear, Low: 50, High: 3000, Channels: 1, PLL: false,
		AttackRate: -50, RecoveryRate: 20, HangTime: 1.1},
	{Name: "lsb", Demod: KindLinear, Low: -3000, High: -50, Channels: 1,
		AttackRate: -50, RecoveryRate: 20, HangTime: 1.1},
	{Name: "cwu", Demod: KindLinear, Low: 300, High: 700, Shift: -500, Channels: 1, PLL: true,
		AttackRate: -50, RecoveryRate: 20, HangTime: 1.1},
	{Name: "cwl", Demod: KindLinear, Low: -700, High: -300, Shift: 500, Channels: 1, PLL: true,
		AttackRate: -50, RecoveryRate: 20, HangTime: 1.1},
	{Name: "am", Demod: KindAM, Low: -5000, High: 5000, Channels: 1,
		AttackRate: -50, RecoveryRate: 20, HangTime: 1.1},
	{Name: "fm", Demod: KindFM, Low: -5000, High: 5000, Channels: 1},
	{Name: "wfm", Demod: KindFM, Low: -75000, High: 75000, Channels: 2},
	{Name: "iq", Demod: KindLinear, Low: -5000, High: 5000, Channels: 2, ISB: true,
		AttackRate: -50, RecoveryRate: 20, HangTime: 1.1},
	{Name: "dsb", Demod: KindLinear, Low: -5000, High: 5000, Channels: 2, PLL: true,
		AttackRate: -50, RecoveryRate: 20, HangTime: 1.1},
}

// Table is a mode name to Entry lookup.
type Table struct {
	entries map[string]Entry
	order   []string
}

// NewTable builds a Table from entries, keyed case-insensitively by name.
func NewTable(entries []Entry) *Table {
	t := &Table{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		key := strings.ToLower(e.Name)
		if _, exists := t.entries[key]; !exists {
			t.order = append(t.order, key)
		}
		t.entries[key] = e
	}
	return t
}

// NewDefaultTable builds a Table from Default.
func NewDefaultTable() *Table { return NewTable(Default) }

// Lookup returns the Entry for name, case-insensitively.
func (t *Table) Lookup(name string) (Entry, bool) {
	e, ok := t.entries[strings.ToLower(name)]
	return e, ok
}

// Names returns the mode names in the order they were added.
func (t *Table) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// demodByName resolves a demodulator name the same prefix-insensitive way
// readmodes does: strncasecmp(demod_name, dtp->name, strlen(dtp->name)).
func demodByName(name string) (Kind, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "linear"):
		return KindLinear, true
	case strings.HasPrefix(lower, "am"):
		return KindAM, true
	case strings.HasPrefix(lower, "fm"):
		return KindFM, true
	default:
		return 0, false
	}
}

// ParseFile reads a mode table text file in the format readmodes parses:
// one mode per line, "#" starts a trailing comment, fields are
// "name demod low high shift attack recovery hangtime [options...]",
// options being any of isb/conj, flat, square, coherent/pll, mono,
// stereo. Blank lines and lines with too few fields are skipped.
func ParseFile(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		kind, ok := demodByName(fields[1])
		if !ok {
			continue
		}
		e := Entry{Name: fields[0], Demod: kind, Channels: 2}
		nums := fields[2:]
		vals := make([]float64, 0, 6)
		consumed := 0
		for _, f := range nums {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				break
			}
			vals = append(vals, v)
			consumed++
			if len(vals) == 6 {
				break
			}
		}
		if len(vals) >= 2 {
			low, high := vals[0], vals[1]
			if high < low {
				low, high = high, low
			}
			e.Low, e.High = low, high
		}
		if len(vals) >= 3 {
			e.Shift = vals[2]
		}
		if len(vals) >= 4 {
			e.AttackRate = -absf(vals[3])
		}
		if len(vals) >= 5 {
			e.RecoveryRate = absf(vals[4])
		}
		if len(vals) >= 6 {
			e.HangTime = absf(vals[5])
		}
		for _, opt := range nums[consumed:] {
			switch strings.ToLower(opt) {
			case "isb", "conj":
				e.ISB = true
			case "flat":
				e.Flat = true
			case "square":
				e.Square = true
				e.PLL = true
			case "coherent", "pll":
				e.PLL = true
			case "mono":
				e.Channels = 1
			case "stereo":
				e.Channels = 2
			}
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("modetab: %w", err)
	}
	return entries, nil
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
