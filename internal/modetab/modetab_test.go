// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package modetab

import (
	"strings"
	"testing"
)

func TestDefaultTableLookupIsCaseInsensitive(t *testing.T) {
	tbl := NewDefaultTable()
	e, ok := tbl.Lookup("USB")
	if !ok {
		t.Fatal("expected usb to be found")
	}
	if e.Demod != KindLinear {
		t.Fatalf("Demod = %v, want KindLinear", e.Demod)
	}
}

func TestDefaultTableCoversNamedModes(t *testing.T) {
	tbl := NewDefaultTable()
	for _, name := range []string{"usb", "lsb", "cwu", "cwl", "am", "fm", "wfm", "iq", "dsb"} {
		if _, ok := tbl.Lookup(name); !ok {
			t.Errorf("missing default mode %q", name)
		}
	}
}

func TestUnknownModeNotFound(t *testing.T) {
	tbl := NewDefaultTable()
	if _, ok := tbl.Lookup("bogus"); ok {
		t.Fatal("expected bogus mode to be absent")
	}
}

func TestParseFileBasicLine(t *testing.T) {
	const data = "usb linear 50 3000 0 50 20 1.1 mono\n"
	entries, err := ParseFile(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Name != "usb" || e.Demod != KindLinear {
		t.Fatalf("entry = %+v", e)
	}
	if e.Low != 50 || e.High != 3000 {
		t.Fatalf("Low/High = %v/%v, want 50/3000", e.Low, e.High)
	}
	if e.Channels != 1 {
		t.Fatalf("Channels = %d, want 1 (mono option)", e.Channels)
	}
}

func TestParseFileSwapsInvertedEdges(t *testing.T) {
	const data = "lsb linear 3000 50 0 50 20 1.1\n"
	entries, err := ParseFile(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if entries[0].Low != 50 || entries[0].High != 3000 {
		t.Fatalf("Low/High = %v/%v, want swapped to 50/3000", entries[0].Low, entries[0].High)
	}
}

func TestParseFileSkipsCommentsAndBlankLines(t *testing.T) {
	const data = "# a comment\n\nusb linear 50 3000\n"
	entries, err := ParseFile(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
}

func TestParseFileSkipsUnknownDemod(t *testing.T) {
	const data = "bogus nonsense 50 3000\n"
	entries, err := ParseFile(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("len(entries) = %d, want 0", len(entries))
	}
}

func TestParseFileSquareImpliesPLL(t *testing.T) {
	const data = "dsb linear 50 3000 0 50 20 1.1 square\n"
	entries, err := ParseFile(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if !entries[0].Square || !entries[0].PLL {
		t.Fatalf("entry = %+v, want Square and PLL both true", entries[0])
	}
}
