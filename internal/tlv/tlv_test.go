// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tlv

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestIntRoundTripSuppressesLeadingZeroes(t *testing.T) {
	e := NewEncoder()
	e.Int(InputSSRC, 0x1234)
	e.End()
	records, err := Decode(e.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	r := records[0]
	if r.Type != InputSSRC {
		t.Fatalf("Type = %v, want %v", r.Type, InputSSRC)
	}
	if len(r.Value) != 2 {
		t.Fatalf("len(Value) = %d, want 2 (leading zero bytes suppressed)", len(r.Value))
	}
	if got := r.Uint(); got != 0x1234 {
		t.Fatalf("Uint() = %#x, want 0x1234", got)
	}
}

func TestFloatRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.Float(KaiserBeta, 3.5)
	e.End()
	records, err := Decode(e.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := records[0].Float32(); got != 3.5 {
		t.Fatalf("Float32() = %v, want 3.5", got)
	}
}

func TestDoubleRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.Double(GPSTime, 12345.6789)
	e.End()
	records, err := Decode(e.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := records[0].Float64(); got != 12345.6789 {
		t.Fatalf("Float64() = %v, want 12345.6789", got)
	}
}

func TestStringRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.String(RadioMode, "usb")
	e.End()
	records, err := Decode(e.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := records[0].String(); got != "usb" {
		t.Fatalf("String() = %q, want %q", got, "usb")
	}
}

func TestEOLTerminatesEarly(t *testing.T) {
	e := NewEncoder()
	e.Int(InputSSRC, 1)
	e.End()
	e.Int(OutputSSRC, 2) // appended after EOL, must not be decoded
	records, err := Decode(e.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
}

func TestDecodeRejectsTruncatedRecord(t *testing.T) {
	buf := []byte{byte(InputSSRC), 4, 0x01, 0x02} // declares 4 bytes, only 2 present
	if _, err := Decode(buf); err == nil {
		t.Fatal("expected error for truncated record")
	}
}

func TestCacheCompactOmitsUnchangedRecords(t *testing.T) {
	c := NewCache()
	e := NewEncoder()
	e.Int(InputSSRC, 42)
	e.Float(KaiserBeta, 3.0)
	e.End()
	records, _ := Decode(e.Bytes())

	first := c.Compact(0, records, false)
	second := c.Compact(0, records, false)

	if len(second) != 2 || second[1] != byte(EOL) {
		t.Fatalf("second Compact() should carry only the lead byte and EOL, got %v", second)
	}
	if len(first) <= 1 {
		t.Fatalf("first Compact() should carry every record, got %v", first)
	}
}

func TestCacheCompactForceResendsEverything(t *testing.T) {
	c := NewCache()
	e := NewEncoder()
	e.Int(InputSSRC, 42)
	e.End()
	records, _ := Decode(e.Bytes())

	c.Compact(0, records, false)
	forced := c.Compact(0, records, true)
	if len(forced) <= 1 {
		t.Fatalf("forced Compact() should resend every record, got %v", forced)
	}
}

func TestIntRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := rapid.Uint64().Draw(rt, "x")
		e := NewEncoder()
		e.Int(InputSamples, x)
		e.End()
		records, err := Decode(e.Bytes())
		if err != nil {
			rt.Fatalf("Decode: %v", err)
		}
		if got := records[0].Uint(); got != x {
			rt.Fatalf("Uint() = %d, want %d", got, x)
		}
	})
}

func TestFloatRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := float32(rapid.Float64Range(-1e6, 1e6).Draw(rt, "x"))
		e := NewEncoder()
		e.Float(KaiserBeta, x)
		e.End()
		records, err := Decode(e.Bytes())
		if err != nil {
			rt.Fatalf("Decode: %v", err)
		}
		got := records[0].Float32()
		if math.Abs(float64(got-x)) > 1e-3 {
			rt.Fatalf("Float32() = %v, want %v", got, x)
		}
	})
}
