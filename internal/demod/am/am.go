// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package am implements the AM envelope demodulator: a complex detection
// filter followed by envelope detection, DC removal and single-knee AGC
// with hang and recovery.
package am

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/n5tnl/radiod/internal/demod"
	"github.com/n5tnl/radiod/internal/filter"
)

// Config holds the parameters of one AM demodulator instance.
type Config struct {
	// RFSampleRate is the master filter's input sample rate in Hz,
	// used to scale the noise-floor estimate.
	RFSampleRate float64
	Decimate     int
	Low, High    float64 // passband edges in Hz
	KaiserBeta   float64

	Headroom float64 // linear voltage target for the detected envelope

	// RecoveryRate is the AGC gain ramp-up rate in dB/s once the hang
	// timer has expired.
	RecoveryRate float64
	// HangTime is how long, in seconds, the AGC holds its gain after a
	// gain reduction before resuming recovery.
	HangTime float64
}

// DCFilterCoeff sets the time constant of the envelope's DC removal
// filter; matches the original demodulator's empirical value.
const DCFilterCoeff = 0.0001

// N0SmoothingCoeff sets the update rate of the running noise estimate.
const N0SmoothingCoeff = 0.001

// State is the demodulator's externally observable condition.
type State struct {
	Gain     float64
	DCFilter float64
	N0       float64
	BBPower  float64
}

// Demodulator is an AM envelope detector attached to a master filter.
type Demodulator struct {
	cfg    Config
	master *filter.Master
	slave  *filter.Slave

	samptime float64 // seconds per decimated sample

	recoveryFactor float64
	hangmax        int
	hangcount      int

	mu       sync.Mutex
	gain     float64
	dcFilter float64
	n0       float64
	bbPower  float64
}

// New attaches an AM demodulator to master.
func New(master *filter.Master, cfg Config) (*Demodulator, error) {
	slave, err := filter.NewSlave(master, cfg.Decimate, filter.TypeComplex)
	if err != nil {
		return nil, fmt.Errorf("demod/am: %w", err)
	}
	sampRate := cfg.RFSampleRate / float64(cfg.Decimate)
	filter.SetFilter(slave, sampRate, cfg.Low, cfg.High, cfg.KaiserBeta)

	samptime := float64(cfg.Decimate) / cfg.RFSampleRate
	d := &Demodulator{
		cfg:            cfg,
		master:         master,
		slave:          slave,
		samptime:       samptime,
		recoveryFactor: demod.DBToVoltage(cfg.RecoveryRate * samptime),
		hangmax:        int(cfg.HangTime / samptime),
		gain:           demod.DBToVoltage(80),
		n0:             math.NaN(),
	}
	return d, nil
}

// Snapshot returns the demodulator's current state.
func (d *Demodulator) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return State{Gain: d.gain, DCFilter: d.dcFilter, N0: d.n0, BBPower: d.bbPower}
}

// Execute waits for, detects and AGCs one decimated block, returning the
// mono audio samples. The returned slice aliases the demodulator's
// internal output buffer and is only valid until the next call.
func (d *Demodulator) Execute(ctx context.Context) ([]float32, error) {
	if err := d.slave.Execute(ctx); err != nil {
		return nil, err
	}

	out := d.slave.OutputComplex()
	samples := make([]float32, len(out))

	d.mu.Lock()
	defer d.mu.Unlock()

	n0 := demod.ComputeN0(d.master.Spectrum(), d.cfg.RFSampleRate, d.cfg.Low, d.cfg.High)

	if math.IsNaN(d.n0) {
		d.n0 = n0
	} else {
		d.n0 += N0SmoothingCoeff * (n0 - d.n0)
	}

	var signal float64
	for i, c := range out {
		sampSq := cnrm(c)
		signal += sampSq
		samp := math.Sqrt(sampSq)

		d.dcFilter += DCFilterCoeff * (samp - d.dcFilter)

		if math.IsNaN(d.gain) || d.gain <= 0 {
			d.gain = demod.DBToVoltage(80)
		}
		switch {
		case d.gain*d.dcFilter > d.cfg.Headroom:
			d.gain = d.cfg.Headroom / d.dcFilter
			d.hangcount = d.hangmax
		case d.hangcount != 0:
			d.hangcount--
		default:
			d.gain *= d.recoveryFactor
		}
		samples[i] = float32((samp - d.dcFilter) * d.gain)
	}
	if len(out) > 0 {
		d.bbPower = signal / (2 * float64(len(out)))
	}
	return samples, nil
}

// SetFilter installs a new passband response on the live slave filter,
// letting a commanded filter-edge or Kaiser-beta change take effect
// without restarting the demodulator.
func (d *Demodulator) SetFilter(low, high, kaiserBeta float64) {
	d.mu.Lock()
	d.cfg.Low, d.cfg.High, d.cfg.KaiserBeta = low, high, kaiserBeta
	d.mu.Unlock()
	sampRate := d.cfg.RFSampleRate / float64(d.cfg.Decimate)
	filter.SetFilter(d.slave, sampRate, low, high, kaiserBeta)
}

func cnrm(c complex64) float64 {
	r, i := float64(real(c)), float64(imag(c))
	return r*r + i*i
}
