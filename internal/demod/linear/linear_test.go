// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package linear

import (
	"context"
	"math"
	"testing"

	"github.com/n5tnl/radiod/internal/filter"
	"github.com/n5tnl/radiod/internal/osc"
)

func newTestDemod(t *testing.T, pll bool) (*filter.Master, *Demodulator) {
	t.Helper()
	master := filter.NewMaster(256, 65, filter.TypeComplex)
	d, err := New(master, Config{
		RFSampleRate: 48000,
		Decimate:     1,
		Low:          100,
		High:         3000,
		KaiserBeta:   filter.DefaultKaiserBeta,
		Headroom:     math.Pow(10, -10.0/20),
		RecoveryRate: 20,
		HangTime:     1.1,
		PLL:          pll,
		LoopBW:       1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return master, d
}

func TestLinearGainInitialization(t *testing.T) {
	_, d := newTestDemod(t, false)
	want := math.Pow(10, 100.0/20)
	if math.Abs(d.Snapshot().Gain-want) > 1e-6 {
		t.Fatalf("initial gain = %v, want %v", d.Snapshot().Gain, want)
	}
}

func TestLinearSSBPassthrough(t *testing.T) {
	master, d := newTestDemod(t, false)
	for block := 0; block < 10; block++ {
		in := master.InputComplex()
		phase := 0.0
		step := 2 * math.Pi * 1500 / 48000
		for i := range in {
			in[i] = complex(float32(math.Cos(phase)), float32(math.Sin(phase)))
			phase += step
		}
		master.Execute()
		out, err := d.Execute(context.Background())
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if len(out) != master.BlockSize() {
			t.Fatalf("len(out) = %d, want %d", len(out), master.BlockSize())
		}
	}
	state := d.Snapshot()
	if math.IsNaN(state.BBPower) || state.BBPower < 0 {
		t.Fatalf("bb power = %v", state.BBPower)
	}
}

func TestLinearPostDetectionShift(t *testing.T) {
	master, d := newTestDemod(t, false)
	shift := osc.New()
	shift.Set(0.1, 0)
	d.cfg.ShiftOsc = shift

	in := master.InputComplex()
	for i := range in {
		in[i] = complex(1, 0)
	}
	master.Execute()
	out, err := d.Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("empty output")
	}
}
