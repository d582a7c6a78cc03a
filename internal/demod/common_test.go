// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package demod

import (
	"math"
	"testing"
)

func TestDBVoltageRoundTrip(t *testing.T) {
	for _, db := range []float64{-20, 0, 3, 6, 80, 100} {
		v := DBToVoltage(db)
		if got := VoltageToDB(v); math.Abs(got-db) > 1e-9 {
			t.Errorf("VoltageToDB(DBToVoltage(%v)) = %v, want %v", db, got, db)
		}
	}
}

func TestComputeN0FlatNoiseFloor(t *testing.T) {
	const n = 256
	spectrum := make([]complex64, n)
	for i := range spectrum {
		spectrum[i] = complex(1, 0)
	}
	n0 := ComputeN0(spectrum, 48000, 100, 3000)
	if math.IsNaN(n0) || n0 <= 0 {
		t.Fatalf("ComputeN0 = %v, want positive finite value", n0)
	}
}

func TestComputeN0IgnoresPassbandSpike(t *testing.T) {
	const n = 256
	spectrum := make([]complex64, n)
	for i := range spectrum {
		spectrum[i] = complex(1, 0)
	}
	// A strong in-band carrier should not move the noise estimate much,
	// since bins within [low, high] are excluded from the average.
	spectrum[2] = complex(1000, 0)
	n0 := ComputeN0(spectrum, 48000, 0, 48000/float64(n)*4)
	if math.IsNaN(n0) {
		t.Fatal("ComputeN0 returned NaN")
	}
	if n0 > 0.01 {
		t.Fatalf("ComputeN0 = %v, in-band spike leaked into noise estimate", n0)
	}
}
