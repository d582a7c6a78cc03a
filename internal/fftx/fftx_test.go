// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fftx

import (
	"math"
	"math/rand"
	"testing"
)

func maxAbsErr(a, b []complex64) float64 {
	var m float64
	for i := range a {
		d := complex128(a[i]) - complex128(b[i])
		if mag := math.Hypot(real(d), imag(d)); mag > m {
			m = mag
		}
	}
	return m
}

func testRoundTrip(t *testing.T, n int) {
	t.Helper()
	tr := New(n)
	if tr.Len() != n {
		t.Fatalf("Len() = %d, want %d", tr.Len(), n)
	}
	rng := rand.New(rand.NewSource(int64(n)))
	in := make([]complex64, n)
	for i := range in {
		in[i] = complex(float32(rng.NormFloat64()), float32(rng.NormFloat64()))
	}
	freq := make([]complex64, n)
	tr.Forward(freq, in)
	back := make([]complex64, n)
	tr.Inverse(back, freq)
	scaled := make([]complex64, n)
	for i, v := range back {
		scaled[i] = v / complex(float32(n), 0)
	}
	if err := maxAbsErr(scaled, in); err > 1e-3 {
		t.Fatalf("round trip error %v too large for n=%d", err, n)
	}
}

func TestRadix2RoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 4, 8, 16, 64, 1024} {
		testRoundTrip(t, n)
	}
}

func TestBluesteinRoundTrip(t *testing.T) {
	for _, n := range []int{3, 5, 6, 7, 100, 257, 1000} {
		testRoundTrip(t, n)
	}
}

func TestRealRoundTrip(t *testing.T) {
	for _, n := range []int{8, 16, 100, 257} {
		tr := New(n)
		rng := rand.New(rand.NewSource(int64(n) + 1))
		in := make([]float32, n)
		for i := range in {
			in[i] = float32(rng.NormFloat64())
		}
		freq := make([]complex64, n/2+1)
		tr.RealForward(freq, in)
		back := make([]float32, n)
		tr.RealInverse(back, freq)
		var maxErr float64
		for i := range back {
			d := float64(back[i]/float32(n) - in[i])
			if d < 0 {
				d = -d
			}
			if d > maxErr {
				maxErr = d
			}
		}
		if maxErr > 1e-3 {
			t.Fatalf("real round trip error %v too large for n=%d", maxErr, n)
		}
	}
}

// TestForwardLinearity checks that Forward is linear, a property the
// overlap-save filter's superposition of input blocks depends on.
func TestForwardLinearity(t *testing.T) {
	const n = 32
	tr := New(n)
	rng := rand.New(rand.NewSource(42))
	a := make([]complex64, n)
	b := make([]complex64, n)
	for i := range a {
		a[i] = complex(float32(rng.NormFloat64()), float32(rng.NormFloat64()))
		b[i] = complex(float32(rng.NormFloat64()), float32(rng.NormFloat64()))
	}
	sum := make([]complex64, n)
	for i := range sum {
		sum[i] = a[i] + b[i]
	}
	fa := make([]complex64, n)
	fb := make([]complex64, n)
	fsum := make([]complex64, n)
	tr.Forward(fa, a)
	tr.Forward(fb, b)
	tr.Forward(fsum, sum)
	combined := make([]complex64, n)
	for i := range combined {
		combined[i] = fa[i] + fb[i]
	}
	if err := maxAbsErr(combined, fsum); err > 1e-3 {
		t.Fatalf("linearity error %v too large", err)
	}
}
