// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fftx

import "math"

// bluestein computes an arbitrary-length DFT via Bluestein's chirp-z
// transform, expressing it as a convolution that a power-of-two radix2
// FFT can perform. Used whenever the requested length is not itself a
// power of two (the common case for the overlap-save filter, whose
// N = L+M-1 is chosen by block-size/impulse-length configuration, not
// constrained to a power of two).
type bluestein struct {
	n     int
	chirp []complex128 // w[k] = exp(-i*pi*k^2/n), k=0..n-1
	bFreq []complex128 // FFT (length m) of the padded chirp-conjugate kernel
	fft   *radix2
	m     int
}

func newBluestein(n int) *bluestein {
	m := 1
	for m < 2*n-1 {
		m <<= 1
	}
	bs := &bluestein{
		n:     n,
		chirp: make([]complex128, n),
		fft:   newRadix2(m),
		m:     m,
	}
	for k := 0; k < n; k++ {
		// Use k^2 mod 2n to keep the angle argument bounded for large k.
		kk := (k * k) % (2 * n)
		angle := -math.Pi * float64(kk) / float64(n)
		s, c := math.Sincos(angle)
		bs.chirp[k] = complex(c, s)
	}
	b := make([]complex64, m)
	for k := 0; k < n; k++ {
		b[k] = complex64(conj(bs.chirp[k]))
	}
	for k := 1; k < n; k++ {
		b[m-k] = complex64(conj(bs.chirp[k]))
	}
	bFreq := make([]complex64, m)
	bs.fft.Forward(bFreq, b)
	bs.bFreq = make([]complex128, m)
	for i, v := range bFreq {
		bs.bFreq[i] = complex128(v)
	}
	return bs
}

func conj(x complex128) complex128 { return complex(real(x), -imag(x)) }

func (bs *bluestein) Len() int { return bs.n }

func (bs *bluestein) Forward(out, in []complex64) {
	n, m := bs.n, bs.m
	a := make([]complex64, m)
	for k := 0; k < n; k++ {
		a[k] = complex64(complex128(in[k]) * bs.chirp[k])
	}
	A := make([]complex64, m)
	bs.fft.Forward(A, a)
	C := make([]complex64, m)
	for i := range C {
		C[i] = complex64(complex128(A[i]) * bs.bFreq[i])
	}
	c := make([]complex64, m)
	bs.fft.Inverse(c, C)
	for k := 0; k < n; k++ {
		out[k] = complex64(complex128(c[k]) / complex(float64(m), 0) * bs.chirp[k])
	}
}

func (bs *bluestein) Inverse(out, in []complex64) {
	n := bs.n
	cin := make([]complex64, n)
	for i, v := range in {
		cin[i] = complex64(conj(complex128(v)))
	}
	tmp := make([]complex64, n)
	bs.Forward(tmp, cin)
	for i, v := range tmp {
		out[i] = complex64(conj(complex128(v)))
	}
}

func (bs *bluestein) RealForward(out []complex64, in []float32) {
	n := bs.n
	cin := make([]complex64, n)
	for i, v := range in {
		cin[i] = complex(v, 0)
	}
	full := make([]complex64, n)
	bs.Forward(full, cin)
	copy(out, full[:n/2+1])
}

func (bs *bluestein) RealInverse(out []float32, in []complex64) {
	n := bs.n
	full := make([]complex64, n)
	copy(full, in[:n/2+1])
	for k := n/2 + 1; k < n; k++ {
		full[k] = complex64(complex(real(full[n-k]), -imag(full[n-k])))
	}
	cout := make([]complex64, n)
	bs.Inverse(cout, full)
	for i, v := range cout {
		out[i] = real(v)
	}
}
