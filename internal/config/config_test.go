// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"strings"
	"testing"
)

func TestLoadStateFileAppliesNamedKeys(t *testing.T) {
	const data = `
# a comment
Frequency 7030000
Mode usb
Filter low 100
Filter high 2800
Kaiser Beta 2.5
Blocksize 480
Impulse len 480
TTL 5
`
	c := Default()
	if err := LoadStateFile(&c, strings.NewReader(data)); err != nil {
		t.Fatalf("LoadStateFile: %v", err)
	}
	if c.Frequency != 7030000 {
		t.Errorf("Frequency = %v, want 7030000", c.Frequency)
	}
	if c.Mode != "usb" {
		t.Errorf("Mode = %q, want usb", c.Mode)
	}
	if c.FilterLow != 100 || c.FilterHigh != 2800 {
		t.Errorf("FilterLow/High = %v/%v, want 100/2800", c.FilterLow, c.FilterHigh)
	}
	if c.KaiserBeta != 2.5 {
		t.Errorf("KaiserBeta = %v, want 2.5", c.KaiserBeta)
	}
	if c.Blocksize != 480 || c.ImpulseLen != 480 {
		t.Errorf("Blocksize/ImpulseLen = %d/%d, want 480/480", c.Blocksize, c.ImpulseLen)
	}
	if c.TTL != 5 {
		t.Errorf("TTL = %d, want 5", c.TTL)
	}
}

func TestLoadStateFileIgnoresUnknownKeys(t *testing.T) {
	c := Default()
	if err := LoadStateFile(&c, strings.NewReader("Bogus 1\n")); err != nil {
		t.Fatalf("LoadStateFile: %v", err)
	}
	if c != Default() {
		t.Fatal("unknown key should not mutate Config")
	}
}

func TestLoadStatePathMissingFileIsNotError(t *testing.T) {
	c := Default()
	if err := LoadStatePath(&c, "/nonexistent/path/to/state"); err != nil {
		t.Fatalf("LoadStatePath: %v", err)
	}
}

func TestParseFrequencySuffixes(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1.42G", 1.42e9},
		{"14.074M", 14.074e6},
		{"7030k", 7030e3},
		{"100", 100},
	}
	for _, c := range cases {
		got, err := ParseFrequency(c.in)
		if err != nil {
			t.Errorf("ParseFrequency(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseFrequency(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseFlagsOverridesStateFileValues(t *testing.T) {
	c := Default()
	c.Frequency = 7030000 // as if loaded from a state file

	if err := ParseFlags(&c, []string{"-freq", "14.074M", "-mode", "am"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if c.Frequency != 14.074e6 {
		t.Errorf("Frequency = %v, want 14.074e6", c.Frequency)
	}
	if c.Mode != "am" {
		t.Errorf("Mode = %q, want am", c.Mode)
	}
}

func TestParseFlagsLeavesFrequencyAloneWhenUnset(t *testing.T) {
	c := Default()
	c.Frequency = 7030000
	if err := ParseFlags(&c, nil); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if c.Frequency != 7030000 {
		t.Errorf("Frequency = %v, want unchanged 7030000", c.Frequency)
	}
}
