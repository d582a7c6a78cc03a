// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package filter

import (
	"math"

	"github.com/n5tnl/radiod/internal/fftx"
)

// DefaultKaiserBeta is the shape factor used when a caller does not
// specify one. The transition bandwidth is approximately
// sqrt(1+beta^2) times the bin spacing.
const DefaultKaiserBeta = 3.0

// besselI0 evaluates the modified Bessel function of the first kind,
// order 0, by series expansion. Used to build the Kaiser window.
func besselI0(x float64) float64 {
	t := 0.25 * x * x
	sum := 1 + t
	term := t
	for k := 2; k < 40; k++ {
		term *= t / float64(k*k)
		sum += term
		if term < 1e-12*sum {
			break
		}
	}
	return sum
}

// MakeKaiser fills window (length M) with a Kaiser window of shape beta.
func MakeKaiser(window []float32, beta float64) {
	m := len(window)
	if m == 0 {
		return
	}
	numc := math.Pi * beta
	invDenom := 1 / besselI0(numc)
	pc := 2.0 / float64(m-1)
	for n := 0; n < m/2; n++ {
		p := pc*float64(n) - 1
		v := float32(besselI0(numc*math.Sqrt(1-p*p)) * invDenom)
		window[n] = v
		window[m-1-n] = v
	}
	if m&1 == 1 {
		window[(m-1)/2] = 1
	}
}

// WindowFilter applies a centered Kaiser window of length M to a
// complex frequency response of length N = L+M-1, limiting its impulse
// response to the first M time-domain samples and restoring it to the
// frequency domain. response is modified in place.
func WindowFilter(L, M int, response []complex64, beta float64) {
	n := L + M - 1
	fft := fftx.New(n)

	buf := make([]complex64, n)
	copy(buf, response)
	fft.Inverse(buf, buf)

	kw := make([]float32, M)
	MakeKaiser(kw, beta)

	gain := float32(1.0 / float64(n))
	shifted := make([]complex64, n)
	for i := 0; i < M; i++ {
		src := ((i - M/2) + n) % n
		shifted[i] = buf[src] * complex(kw[i]*gain, 0)
	}
	// shifted[M:] is already zero.

	fft.Forward(shifted, shifted)
	copy(response, shifted)
}

// WindowRFilter is the real-output counterpart of WindowFilter: response
// holds only the N/2+1 non-negative-frequency bins of a Hermitian
// spectrum, L and M refer to the decimated output length.
func WindowRFilter(L, M int, response []complex64, beta float64) {
	n := L + M - 1
	fft := fftx.New(n)

	timebuf := make([]float32, n)
	fft.RealInverse(timebuf, response)

	kw := make([]float32, M)
	MakeKaiser(kw, beta)

	gain := float32(1.0 / float64(n))
	shifted := make([]float32, n)
	for i := 0; i < M; i++ {
		src := ((i - M/2) + n) % n
		shifted[i] = timebuf[src] * kw[i] * gain
	}

	out := make([]complex64, n/2+1)
	fft.RealForward(out, shifted)
	copy(response, out)
}
