// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build cgo

package fftx

import (
	"github.com/bemasher/fftw"
)

// fftwReal is a Transformer whose RealForward/RealInverse paths are
// backed by github.com/bemasher/fftw's half-complex real transform
// (fftw.HCDFT1DPlan), the one FFT library present anywhere in the
// example pack. Its complex-to-complex Forward/Inverse are delegated to
// the pure-Go implementation, since the library's only demonstrated
// surface is the real/half-complex transform, not a general
// complex-to-complex one (see DESIGN.md).
type fftwReal struct {
	n       int
	complex Transformer
	fwd     fftw.HCDFT1DPlan
	inv     fftw.HCDFT1DPlan
}

// NewFFTWReal builds a Transformer for length n whose real-valued paths
// use FFTW via bemasher/fftw. It is built only with cgo and has no caller
// in this module: the FM PL-tone analyzer and the Kaiser-window
// filter-response designer both use New.
func NewFFTWReal(n int) Transformer {
	t := &fftwReal{n: n, complex: New(n)}
	t.fwd = fftw.NewHCDFT1D(n, nil, nil, fftw.Forward, fftw.InPlace, fftw.Estimate)
	t.inv = fftw.NewHCDFT1D(n, t.fwd.Real, t.fwd.Complex, fftw.Backward, fftw.PreAlloc, fftw.Estimate)
	return t
}

func (t *fftwReal) Len() int { return t.n }

func (t *fftwReal) Forward(out, in []complex64) { t.complex.Forward(out, in) }
func (t *fftwReal) Inverse(out, in []complex64) { t.complex.Inverse(out, in) }

// halfComplexToBins unpacks FFTW's r2hc-format real array (hc[0]=DC,
// hc[1..n/2]=real parts ascending, hc[n-1..n/2+1]=imag parts descending)
// into the N/2+1 non-redundant complex bins used by the Transformer
// interface.
func halfComplexToBins(hc []float64, n int) []complex64 {
	out := make([]complex64, n/2+1)
	out[0] = complex(float32(hc[0]), 0)
	for k := 1; k < n/2+1; k++ {
		re := hc[k]
		var im float64
		if k != n-k && n-k < len(hc) {
			im = -hc[n-k]
		}
		out[k] = complex(float32(re), float32(im))
	}
	return out
}

func binsToHalfComplex(bins []complex64, n int) []float64 {
	hc := make([]float64, n)
	hc[0] = real(bins[0])
	for k := 1; k < n/2+1; k++ {
		hc[k] = float64(real(bins[k]))
		if k != n-k {
			hc[n-k] = -float64(imag(bins[k]))
		}
	}
	return hc
}

func (t *fftwReal) RealForward(out []complex64, in []float32) {
	for i, v := range in {
		t.fwd.Real[i] = float64(v)
	}
	t.fwd.Execute()
	copy(out, halfComplexToBins(t.fwd.Real, t.n))
}

func (t *fftwReal) RealInverse(out []float32, in []complex64) {
	copy(t.inv.Real, binsToHalfComplex(in, t.n))
	t.inv.Execute()
	for i := range out {
		out[i] = float32(t.inv.Complex[i%len(t.inv.Complex)])
	}
}
