// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fftx

import "math"

// radix2 is an iterative, in-place, decimation-in-time Cooley-Tukey FFT
// for power-of-two lengths, computed in complex128 for accuracy and
// converted to/from complex64 at the Transformer boundary.
type radix2 struct {
	n       int
	twFwd   []complex128 // precomputed twiddle factors, forward (negative angle)
	twInv   []complex128 // precomputed twiddle factors, inverse (positive angle)
	bitrev  []int
	scratch []complex128
}

func newRadix2(n int) *radix2 {
	r := &radix2{
		n:       n,
		twFwd:   make([]complex128, n/2),
		twInv:   make([]complex128, n/2),
		bitrev:  make([]int, n),
		scratch: make([]complex128, n),
	}
	for i := 0; i < n/2; i++ {
		angle := -2 * math.Pi * float64(i) / float64(n)
		s, c := math.Sincos(angle)
		r.twFwd[i] = complex(c, s)
		r.twInv[i] = complex(c, -s)
	}
	bits := 0
	for (1 << bits) < n {
		bits++
	}
	for i := 0; i < n; i++ {
		r.bitrev[i] = reverseBits(i, bits)
	}
	return r
}

func reverseBits(x, bits int) int {
	r := 0
	for i := 0; i < bits; i++ {
		r = (r << 1) | (x & 1)
		x >>= 1
	}
	return r
}

func (r *radix2) Len() int { return r.n }

func (r *radix2) transform(out, in []complex64, tw []complex128) {
	n := r.n
	buf := r.scratch
	for i, j := range r.bitrev {
		buf[i] = complex128(in[j])
	}
	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		step := n / size
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				w := tw[k*step]
				a := buf[start+k]
				b := buf[start+k+half] * w
				buf[start+k] = a + b
				buf[start+k+half] = a - b
			}
		}
	}
	for i, v := range buf {
		out[i] = complex64(v)
	}
}

func (r *radix2) Forward(out, in []complex64) { r.transform(out, in, r.twFwd) }
func (r *radix2) Inverse(out, in []complex64) { r.transform(out, in, r.twInv) }

func (r *radix2) RealForward(out []complex64, in []float32) {
	n := r.n
	cin := make([]complex64, n)
	for i, v := range in {
		cin[i] = complex(v, 0)
	}
	full := make([]complex64, n)
	r.Forward(full, cin)
	copy(out, full[:n/2+1])
}

func (r *radix2) RealInverse(out []float32, in []complex64) {
	n := r.n
	full := make([]complex64, n)
	copy(full, in[:n/2+1])
	for k := n/2 + 1; k < n; k++ {
		full[k] = complex64(complex(real(full[n-k]), -imag(full[n-k])))
	}
	cout := make([]complex64, n)
	r.Inverse(cout, full)
	for i, v := range cout {
		out[i] = real(v)
	}
}
