// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package linear implements the general-purpose linear demodulator used
// for USB/LSB/CW/IQ/DSB and ISB modes: optional coherent carrier
// tracking with an FFT-assisted acquisition sweep and a second-order
// Gardner loop filter, followed by manual AGC and an optional
// post-detection frequency shift.
package linear

import (
	"context"
	"fmt"
	"math"

	"github.com/n5tnl/radiod/internal/demod"
	"github.com/n5tnl/radiod/internal/fftx"
	"github.com/n5tnl/radiod/internal/filter"
	"github.com/n5tnl/radiod/internal/osc"
)

// Config holds the parameters of one linear demodulator instance.
type Config struct {
	RFSampleRate float64
	Decimate     int
	Low, High    float64
	KaiserBeta   float64

	Headroom     float64
	RecoveryRate float64
	HangTime     float64

	// PLL enables coherent carrier tracking; without it the detector is
	// simply the raw (filtered) baseband signal.
	PLL bool
	// Square enables a squaring loop ahead of the carrier search and
	// phase detector, to recover a suppressed carrier from BPSK/DSB.
	Square bool
	// ISB selects independent sideband output (cross-conjugate filter
	// output) instead of plain complex output.
	ISB bool
	// LoopBW is the PLL's natural loop bandwidth in Hz.
	LoopBW float64
	// Stereo requests I-on-left/Q-on-right stereo output instead of
	// mono (I channel only).
	Stereo bool

	// ShiftOsc, if non-nil, applies an additional frequency shift after
	// demodulation and AGC, e.g. to recenter a CW note.
	ShiftOsc *osc.Oscillator
}

const (
	snrThreshDB  = 3
	fftSize      = 1 << 16
	damping      = math.Sqrt2 / 2
	lockTimeSec  = 1
	searchLowHz  = -300
	searchHighHz = 300
	vcoGain      = 2 * math.Pi
	pdGain       = 1
)

// State is the demodulator's externally observable condition.
type State struct {
	N0         float64
	BBPower    float64
	SNR        float64
	Locked     bool
	FreqOffset float64
	CarrierPhase float64
	Gain       float64
}

// Demodulator is a linear (coherent or non-coherent) detector attached
// to a master filter.
type Demodulator struct {
	cfg Config

	master *filter.Master
	predet *filter.Slave

	samptime, blocktime float64

	fft      fftx.Transformer
	fftIn    []complex64
	fftOut   []complex64
	fftPtr   int
	fftSamps int

	lowLimit, highLimit int
	binSize             float64
	lockLimit           int
	snrThresh           float64

	natFreq, tau1, integratorGain, tau2, propGain float64

	coarse *osc.Oscillator
	fine   *osc.Oscillator

	integrator float64
	deltaF     float64
	ramp       float64
	lockCount  int
	locked     bool

	recoveryFactor float64
	hangmax        int
	hangcount      int
	gain           float64

	n0      float64
	bbPower float64
	snr     float64
	cphase  float64
	foffset float64
}

// New attaches a linear demodulator to master.
func New(master *filter.Master, cfg Config) (*Demodulator, error) {
	outType := filter.TypeComplex
	if cfg.ISB {
		outType = filter.TypeCrossConj
	}
	predet, err := filter.NewSlave(master, cfg.Decimate, outType)
	if err != nil {
		return nil, fmt.Errorf("demod/linear: %w", err)
	}
	samptime := float64(cfg.Decimate) / cfg.RFSampleRate
	filter.SetFilter(predet, 1/samptime, cfg.Low, cfg.High, cfg.KaiserBeta)
	blocktime := samptime * float64(master.BlockSize())

	binSize := 1 / (fftSize * samptime)
	searchMul := 1.0
	if cfg.Square {
		searchMul = 2
	}
	lowLimit := int(math.Round(searchMul * searchLowHz / binSize))
	highLimit := int(math.Round(searchMul * searchHighHz / binSize))
	lockLimit := int(math.Round(lockTimeSec / samptime))
	snrThresh := math.Pow(10, snrThreshDB/10.0)

	loopBW := cfg.LoopBW
	if loopBW <= 0 {
		loopBW = 1
	}
	natFreq := loopBW * 2 * math.Pi
	tau1 := vcoGain * pdGain / (natFreq * natFreq)
	integratorGain := 1 / tau1
	tau2 := 2 * damping / natFreq
	propGain := tau2 / tau1

	d := &Demodulator{
		cfg:            cfg,
		master:         master,
		predet:         predet,
		samptime:       samptime,
		blocktime:      blocktime,
		fft:            fftx.New(fftSize),
		fftIn:          make([]complex64, fftSize),
		fftOut:         make([]complex64, fftSize),
		lowLimit:       lowLimit,
		highLimit:      highLimit,
		binSize:        binSize,
		lockLimit:      lockLimit,
		snrThresh:      snrThresh,
		natFreq:        natFreq,
		tau1:           tau1,
		integratorGain: integratorGain,
		tau2:           tau2,
		propGain:       propGain,
		coarse:         osc.New(),
		fine:           osc.New(),
		recoveryFactor: demod.DBToVoltage(cfg.RecoveryRate * samptime),
		hangmax:        int(cfg.HangTime / samptime),
		gain:           demod.DBToVoltage(100),
		n0:             math.NaN(),
		foffset:        math.NaN(),
	}
	return d, nil
}

// Snapshot returns the demodulator's current state.
func (d *Demodulator) Snapshot() State {
	return State{
		N0:           d.n0,
		BBPower:      d.bbPower,
		SNR:          d.snr,
		Locked:       d.locked,
		FreqOffset:   d.foffset,
		CarrierPhase: d.cphase,
		Gain:         d.gain,
	}
}

// Execute waits for, optionally carrier-tracks, and AGCs one decimated
// block, returning complex baseband samples (I on real, Q on imag). The
// returned slice aliases internal state and is only valid until the
// next call.
func (d *Demodulator) Execute(ctx context.Context) ([]complex64, error) {
	if err := d.predet.Execute(ctx); err != nil {
		return nil, err
	}

	n0 := demod.ComputeN0(d.master.Spectrum(), d.cfg.RFSampleRate, d.cfg.Low, d.cfg.High)
	if math.IsNaN(d.n0) {
		d.n0 = n0
	} else {
		d.n0 += 0.001 * (n0 - d.n0)
	}

	out := d.predet.OutputComplex()
	olen := len(out)

	if d.cfg.PLL {
		d.trackCarrier(out)
	}

	var signal, noise float64
	for n := range out {
		s := complex128(out[n])
		rp := real(s) * real(s)
		ip := imag(s) * imag(s)
		signal += rp
		noise += ip
		amplitude := math.Sqrt(rp + ip)

		switch {
		case math.IsNaN(d.gain):
			d.gain = d.cfg.Headroom / amplitude
		case amplitude*d.gain > d.cfg.Headroom:
			d.gain = d.cfg.Headroom / amplitude
			d.hangcount = d.hangmax
		case d.hangcount != 0:
			d.hangcount--
		default:
			d.gain *= d.recoveryFactor
		}
		out[n] = complex64(s * complex(d.gain, 0))
	}

	if d.cfg.ShiftOsc != nil {
		for n := range out {
			shift := d.cfg.ShiftOsc.Step()
			out[n] = complex64(complex128(out[n]) * shift)
		}
	}

	d.bbPower = (signal + noise) / (2 * float64(olen))
	if noise != 0 && d.cfg.PLL {
		snr := signal/noise - 1
		if snr < 0 {
			snr = 0
		}
		d.snr = snr
	} else {
		d.snr = math.NaN()
	}

	return out, nil
}

// SetFilter installs a new passband response on the live predetection
// filter, letting a commanded filter-edge or Kaiser-beta change take
// effect without restarting the demodulator.
func (d *Demodulator) SetFilter(low, high, kaiserBeta float64) {
	d.cfg.Low, d.cfg.High, d.cfg.KaiserBeta = low, high, kaiserBeta
	filter.SetFilter(d.predet, 1/d.samptime, low, high, kaiserBeta)
}

// trackCarrier runs the FFT acquisition sweep (when unlocked) and the
// second-order PLL loop filter on the current block, spinning samples in
// out down by the coarse and fine oscillators.
func (d *Demodulator) trackCarrier(out []complex64) {
	olen := len(out)

	d.fftSamps += olen
	if d.fftSamps > fftSize {
		d.fftSamps = fftSize
	}
	for i := 0; i < olen; i++ {
		v := complex128(out[i])
		if d.cfg.Square {
			v *= v
		}
		d.fftIn[d.fftPtr] = complex64(v)
		d.fftPtr++
		if d.fftPtr >= fftSize {
			d.fftPtr -= fftSize
		}
	}

	if d.snr < d.snrThresh {
		d.lockCount -= olen
	} else {
		d.lockCount += olen
	}
	if d.lockCount >= d.lockLimit {
		d.lockCount = d.lockLimit
		d.locked = true
	}
	if d.lockCount <= -d.lockLimit {
		d.lockCount = -d.lockLimit
		d.locked = false
	}

	if !d.locked {
		if d.fftSamps > fftSize/2 {
			d.fftSamps = 0
			d.fft.Forward(d.fftOut, d.fftIn)
			maxBin := 0
			var maxEnergy float64
			for n := d.lowLimit; n <= d.highLimit; n++ {
				idx := n
				if idx < 0 {
					idx += fftSize
				}
				c := d.fftOut[idx]
				e := float64(real(c))*float64(real(c)) + float64(imag(c))*float64(imag(c))
				if e > maxEnergy {
					maxEnergy = e
					maxBin = n
				}
			}
			if maxEnergy > 0 {
				newDeltaF := d.binSize * float64(maxBin)
				if d.cfg.Square {
					newDeltaF /= 2
				}
				if newDeltaF != d.deltaF {
					d.deltaF = newDeltaF
					d.integrator = 0
					d.coarse.Set(-d.samptime*d.deltaF, 0)
				}
			}
		}
		if d.ramp == 0 {
			d.ramp = 0 // acquisition sweep disabled, mirrors original's ramprate=0
		}
	} else {
		d.ramp = 0
	}

	var accum complex128
	for n := range out {
		spin := d.coarse.Step() * d.fine.Step()
		out[n] = complex64(complex128(out[n]) * spin)
		ss := complex128(out[n])
		if d.cfg.Square {
			ss *= ss
		}
		accum += ss
	}
	cphase := math.Atan2(imag(accum), real(accum))
	if math.IsNaN(cphase) {
		cphase = 0
	}
	if d.cfg.Square {
		cphase /= 2
	}
	d.cphase = cphase

	d.integrator += cphase*d.blocktime + d.ramp
	feedback := d.integratorGain*d.integrator + d.propGain*cphase
	d.fine.Set(-feedback*d.samptime, 0)

	if math.IsNaN(d.foffset) {
		d.foffset = feedback + d.deltaF
	} else {
		d.foffset += 0.001 * (feedback + d.deltaF - d.foffset)
	}
}
