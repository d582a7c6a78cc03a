// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package osc implements the complex numeric oscillator used to
// frequency-translate a sample stream in software. An Oscillator holds a
// unit-magnitude phasor that is advanced one step at a time; its step
// itself can be swept at a constant rate to implement chirped (Doppler)
// tuning.
package osc

import (
	"math"
	"math/cmplx"
	"sync"
)

// RenormRate is the number of steps between phasor renormalizations,
// which keeps accumulated floating point error from growing the phasor's
// magnitude away from 1.
const RenormRate = 16384

// Oscillator is a complex numeric oscillator: a phasor of magnitude 1,
// stepped by multiplying by phasor_step, itself swept by multiplying by
// phasor_step_step to support a constant-rate frequency ramp (e.g.
// Doppler tracking).
//
// Parameters are changed under mu; Step and Renorm are called by the
// oscillator's single owning goroutine and also hold mu while they run.
type Oscillator struct {
	mu sync.Mutex

	freq float64
	rate float64

	phasor         complex128
	phasorStep     complex128
	phasorStepStep complex128
	steps          int
}

// New creates an Oscillator with phasor magnitude 1 and zero frequency
// and sweep rate.
func New() *Oscillator {
	o := &Oscillator{
		phasor:         1,
		phasorStep:     1,
		phasorStepStep: 1,
	}
	return o
}

// isPhasorInit reports whether x looks like a valid, normalized phasor.
func isPhasorInit(x complex128) bool {
	if math.IsNaN(real(x)) || math.IsNaN(imag(x)) {
		return false
	}
	n := real(x)*real(x) + imag(x)*imag(x)
	return n >= 0.9
}

// sincospi returns exp(i*pi*x) without intermediate precision loss,
// mirroring the C library's csincospi used by the original oscillator.
func sincospi(x float64) complex128 {
	s, c := math.Sincos(math.Pi * x)
	return complex(c, s)
}

// Set configures the oscillator's frequency f and sweep rate r, both in
// cycles/sample and cycles/sample^2 respectively. If the phasor does not
// look initialized (NaN or badly denormalized), it is reset to 1
// (magnitude 1, phase 0); otherwise the existing phase is preserved
// across a frequency change.
func (o *Oscillator) Set(f, r float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !isPhasorInit(o.phasor) {
		o.phasor = 1
		o.steps = 0
	}
	o.freq = f
	o.rate = r
	o.phasorStep = sincospi(2 * o.freq)
	if o.rate != 0 {
		o.phasorStepStep = sincospi(2 * o.rate)
	} else {
		o.phasorStepStep = 1
	}
}

// Freq returns the oscillator's current configured frequency.
func (o *Oscillator) Freq() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.freq
}

// Rate returns the oscillator's current configured sweep rate.
func (o *Oscillator) Rate() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rate
}

// Step advances the oscillator by one sample and returns the phasor
// value at the start of the step (i.e. before advancing), matching the
// original step_osc() semantics. Must be called only by the owning
// thread.
func (o *Oscillator) Step() complex128 {
	o.mu.Lock()
	freq := o.freq
	rate := o.rate
	r := o.phasor
	if freq != 0 {
		o.phasor *= o.phasorStep
		if rate != 0 {
			o.phasorStep *= o.phasorStepStep
		}
	}
	o.steps++
	if o.steps == RenormRate {
		o.renormLocked()
	}
	o.mu.Unlock()
	return r
}

// StepN advances the oscillator by n samples, equivalent to calling Step
// n times, used to keep oscillator phase continuous across a run of
// zero-filled samples inserted for a lost packet.
func (o *Oscillator) StepN(n int) {
	for i := 0; i < n; i++ {
		o.Step()
	}
}

// renormLocked resets the step counter and rescales the phasor and its
// step to unit magnitude. Callers must hold mu.
func (o *Oscillator) renormLocked() {
	o.steps = 0
	if m := cmplx.Abs(o.phasor); m != 0 {
		o.phasor /= complex(m, 0)
	}
	if o.rate != 0 {
		if m := cmplx.Abs(o.phasorStep); m != 0 {
			o.phasorStep /= complex(m, 0)
		}
	}
}

// Renorm forces an immediate renormalization, exposed mainly for tests.
func (o *Oscillator) Renorm() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.renormLocked()
}

// Phasor returns the current phasor value without stepping.
func (o *Oscillator) Phasor() complex128 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phasor
}
