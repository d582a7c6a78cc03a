// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package frontend holds the tuner front-end status and the I/Q
// correction state (DC offset, amplitude imbalance, phase skew) that the
// sample processor estimates and applies on the fly, per spec.md §3/§4.2.
package frontend

import (
	"math"
	"sync"
)

// Status is the tuner front-end state shared between the sample
// processor and the status publisher: one of the four cross-thread
// mutex-guarded resources named in the concurrency model.
type Status struct {
	mu sync.Mutex

	TimestampNs int64 // nanoseconds since the GPS epoch
	TunerFreqHz float64
	SampleRate  float64
	LNAGain     uint8
	MixerGain   uint8
	IFGain      uint8
	SecondLOHz  float64 // software second LO frequency
}

// Snapshot returns a copy of the current status.
func (s *Status) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s
	cp.mu = sync.Mutex{}
	return cp
}

// Set replaces the front-end status atomically.
func (s *Status) Set(fn func(*Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// ReceiverFreq returns tuner_freq - second_LO_freq, the final receiver
// center frequency, per spec.md §3.
func (s *Status) ReceiverFreq() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.TunerFreqHz - s.SecondLOHz
}

// GainNormalization returns 10^(-(LNA+mixer+IF)/20), the linear-scale
// factor that cancels the combined analog gain of the three tuner gain
// stages, per spec.md §4.2 step 4.
func (s *Status) GainNormalization() float64 {
	s.mu.Lock()
	lna, mix, ifg := s.LNAGain, s.MixerGain, s.IFGain
	s.mu.Unlock()
	total := float64(lna) + float64(mix) + float64(ifg)
	return math.Pow(10, -total/20)
}

// Correction holds the exponentially-smoothed I/Q imperfection estimates
// applied to every incoming sample before it enters the filter, per
// spec.md §3/§4.2.
type Correction struct {
	DCI       float64 // smoothed DC mean, I
	DCQ       float64 // smoothed DC mean, Q
	SinPhi    float64 // smoothed sin(phase skew)
	Imbalance float64 // smoothed ratio of I power to Q power
}

// NewCorrection returns a Correction with the values that make the
// front-end correction chain a no-op: zero DC, zero phase skew, unity
// imbalance.
func NewCorrection() Correction {
	return Correction{Imbalance: 1}
}

// Apply applies DC removal, imbalance equalization, and phase-skew
// rotation to one I/Q sample pair, in the order spec.md §4.2 specifies,
// and returns the corrected complex sample (I, Q as real, imag).
func (c *Correction) Apply(i, q float64) complex128 {
	i -= c.DCI
	q -= c.DCQ

	// Step 2: equalize I/Q power.
	imb := c.Imbalance
	if imb <= 0 {
		imb = 1
	}
	i *= math.Sqrt((1 + imb) / 2)
	q *= math.Sqrt((1 + 1/imb) / 2)

	// Step 3: orthogonalize the axes.
	// cos(phi) = sqrt(1 - sin(phi)^2), clamped for numerical safety.
	sinPhi := c.SinPhi
	cosPhi := math.Sqrt(math.Max(0, 1-sinPhi*sinPhi))
	if cosPhi < 1e-6 {
		cosPhi = 1e-6
	}
	secPhi := 1 / cosPhi
	tanPhi := sinPhi / cosPhi
	qOrth := secPhi*q - tanPhi*i

	return complex(i, qOrth)
}

// Stats accumulates the per-pair statistics (sum of I, Q, I^2, Q^2,
// I*Q) that, once a full filter-input block has been processed, feed the
// first-order IIR updates to DCI, DCQ, SinPhi, and Imbalance below.
type Stats struct {
	SumI, SumQ     float64
	SumI2, SumQ2   float64
	SumIQ          float64
	N              int
}

// Add accumulates one uncorrected sample pair (I/Q as decoded off the
// wire) into the running statistics.
func (s *Stats) Add(i, q float64) {
	s.SumI += i
	s.SumQ += q
	s.SumI2 += i * i
	s.SumQ2 += q * q
	s.SumIQ += i * q
	s.N++
}

// Reset zeros the accumulators, done once per filled filter-input block.
func (s *Stats) Reset() {
	*s = Stats{}
}

// DCTimeConstant and PhaseTimeConstant are the IIR smoothing rates
// (expressed as a fraction applied per block) used to update Correction
// from a Stats block. They are conservative defaults; radiod exposes
// them as constants rather than a command-settable parameter since
// spec.md does not list them among the TLV-settable fields.
const (
	DCTimeConstant    = 1.0 / 1024
	PhaseTimeConstant = 1.0 / 1024
)

// UpdateFrom folds one block's worth of Stats into the smoothed
// correction estimates using first-order IIR recursions, per spec.md
// §3's "I/Q correction state" invariant.
func (c *Correction) UpdateFrom(s Stats) {
	if s.N == 0 {
		return
	}
	n := float64(s.N)
	meanI := s.SumI / n
	meanQ := s.SumQ / n
	c.DCI += DCTimeConstant * (meanI - c.DCI)
	c.DCQ += DCTimeConstant * (meanQ - c.DCQ)

	powI := s.SumI2/n - meanI*meanI
	powQ := s.SumQ2/n - meanQ*meanQ
	if powQ > 0 {
		imbalance := powI / powQ
		c.Imbalance += PhaseTimeConstant * (imbalance - c.Imbalance)
	}

	// sin(phi) estimate from the normalized cross-correlation of I
	// and Q, which vanishes when the two are orthogonal.
	denom := math.Sqrt(math.Max(powI*powQ, 1e-30))
	covIQ := s.SumIQ/n - meanI*meanQ
	sinPhi := covIQ / denom
	if sinPhi > 1 {
		sinPhi = 1
	} else if sinPhi < -1 {
		sinPhi = -1
	}
	c.SinPhi += PhaseTimeConstant * (sinPhi - c.SinPhi)
}
