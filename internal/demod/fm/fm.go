// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package fm implements the FM phase-discriminator demodulator with
// Rayleigh/Rician SNR squelch, 0.55*amplitude threshold extension, a
// two-stage post-detection audio filter (de-emphasis unless flat), and a
// PL-tone frequency analyzer running on a slow slave filter.
package fm

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/n5tnl/radiod/internal/demod"
	"github.com/n5tnl/radiod/internal/filter"
)

// Config holds the parameters of one FM demodulator instance.
type Config struct {
	RFSampleRate float64
	Decimate     int
	Low, High    float64
	KaiserBeta   float64
	Headroom     float64
	// Flat disables the post-detection de-emphasis/PL-notch audio
	// filter, passing the raw discriminator output straight through.
	Flat bool
}

// SquelchThreshold is the SNR (linear ratio, not dB) above which the
// squelch is considered open.
const SquelchThreshold = 2

// SquelchHangBlocks is how many blocks the squelch stays open after SNR
// falls below threshold before muting, and the cap the hang counter is
// held to while continuously below threshold.
const SquelchHangBlocks = 1000

// ThresholdExtensionFactor scales average amplitude to get the minimum
// sample amplitude accepted by threshold extension; squared to avoid a
// square root in the sample loop.
const ThresholdExtensionFactor = 0.55

// N0SmoothingCoeff sets the running noise-estimate update rate.
const N0SmoothingCoeff = 0.01

// State is the demodulator's externally observable condition.
type State struct {
	N0          float64
	BBPower     float64
	SNR         float64
	FreqOffset  float64
	Deviation   float64
	PLFrequency float64 // NaN if no PL tone detected
	SquelchOpen bool
}

// Demodulator is an FM phase discriminator attached to a master filter.
type Demodulator struct {
	cfg Config

	master      *filter.Master
	predet      *filter.Slave
	audioMaster *filter.Master
	audioFilter *filter.Slave // nil in flat mode
	pl          *plAnalyzer

	dsamprate float64
	gain      float64

	mu               sync.Mutex
	state            complex128
	n0               float64
	bbPower          float64
	snr              float64
	snrBelowThresh   int
	lastAudio        float32
	foffset          float64
	pdeviation       float64
	squelchOpen      bool
}

// New attaches an FM demodulator to master.
func New(master *filter.Master, cfg Config) (*Demodulator, error) {
	predet, err := filter.NewSlave(master, cfg.Decimate, filter.TypeComplex)
	if err != nil {
		return nil, fmt.Errorf("demod/fm: %w", err)
	}
	dsamprate := cfg.RFSampleRate / float64(cfg.Decimate)
	filter.SetFilter(predet, dsamprate, cfg.Low, cfg.High, cfg.KaiserBeta)

	al := master.BlockSize() / cfg.Decimate
	am := (master.Len()-master.BlockSize())/cfg.Decimate + 1
	audioMaster := filter.NewMaster(al, am, filter.TypeReal)

	an := al + am - 1
	filterGain := 10.0 / float64(an)

	d := &Demodulator{
		cfg:         cfg,
		master:      master,
		predet:      predet,
		audioMaster: audioMaster,
		dsamprate:   dsamprate,
		gain:        (cfg.Headroom * (1 / math.Pi) * dsamprate) / math.Abs(cfg.Low-cfg.High),
		state:       1,
		n0:          math.NaN(),
		pdeviation:  0,
		foffset:     0,
	}

	if !cfg.Flat {
		aresponse := make([]complex64, an/2+1)
		for j := 0; j <= an/2; j++ {
			f := float64(j) * dsamprate / float64(an)
			if f >= 300 && f <= 6000 {
				aresponse[j] = complex(float32(filterGain*300/f), 0)
			}
		}
		filter.WindowRFilter(al, am, aresponse, cfg.KaiserBeta)
		audioFilter, err := filter.NewSlave(audioMaster, 1, filter.TypeReal)
		if err != nil {
			return nil, fmt.Errorf("demod/fm: audio filter: %w", err)
		}
		audioFilter.SetResponse(aresponse)
		d.audioFilter = audioFilter
	}

	pl, err := newPLAnalyzer(audioMaster, dsamprate)
	if err != nil {
		return nil, fmt.Errorf("demod/fm: %w", err)
	}
	d.pl = pl

	return d, nil
}

// Snapshot returns the demodulator's current state.
func (d *Demodulator) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return State{
		N0:          d.n0,
		BBPower:     d.bbPower,
		SNR:         d.snr,
		FreqOffset:  d.foffset,
		Deviation:   d.pdeviation,
		PLFrequency: d.pl.frequency(),
		SquelchOpen: d.squelchOpen,
	}
}

// RunPL runs the PL-tone analyzer until ctx is cancelled. It should be
// launched as its own goroutine alongside Execute.
func (d *Demodulator) RunPL(ctx context.Context) error {
	for {
		if err := d.pl.step(ctx); err != nil {
			return err
		}
	}
}

// Execute waits for, discriminates and squelches one decimated block,
// returning mono audio samples. The returned slice aliases internal
// state and is only valid until the next call.
func (d *Demodulator) Execute(ctx context.Context) ([]float32, error) {
	if err := d.predet.Execute(ctx); err != nil {
		return nil, err
	}

	out := d.predet.OutputComplex()
	olen := len(out)

	d.mu.Lock()
	n0 := demod.ComputeN0(d.master.Spectrum(), d.cfg.RFSampleRate, d.cfg.Low, d.cfg.High)
	if math.IsNaN(d.n0) {
		d.n0 = n0
	} else {
		d.n0 += N0SmoothingCoeff * (n0 - d.n0)
	}

	var bbPower, avgAmp float64
	for _, c := range out {
		t := cnrm(c)
		bbPower += t
		avgAmp += math.Sqrt(t)
	}
	bbPower /= 2 * float64(olen)
	avgAmp /= math.Sqrt2 * float64(olen)
	fmVariance := bbPower - avgAmp*avgAmp
	snr := avgAmp*avgAmp/(2*fmVariance) - 1
	if snr < 0 {
		snr = 0
	}
	d.bbPower = bbPower
	d.snr = snr

	if snr > SquelchThreshold {
		d.snrBelowThresh = 0
	} else {
		d.snrBelowThresh++
		if d.snrBelowThresh > SquelchHangBlocks {
			d.snrBelowThresh = SquelchHangBlocks
		}
	}
	d.squelchOpen = d.snrBelowThresh < SquelchHangBlocks

	samples := make([]float32, olen)
	audioIn := d.audioMaster.InputReal()

	if d.squelchOpen {
		minAmpl := ThresholdExtensionFactor * ThresholdExtensionFactor * avgAmp * avgAmp
		var pdevPos, pdevNeg, avgF float64
		state := d.state
		for n, samp := range out {
			var lastAudio float32
			if cnrm(samp) > minAmpl {
				phase := float32(math.Atan2(
					imag(complex128(samp)*state),
					real(complex128(samp)*state),
				))
				lastAudio = phase
				d.lastAudio = phase
				state = conj128(complex128(samp))
				if n == 0 {
					pdevPos, pdevNeg = float64(lastAudio), float64(lastAudio)
				} else if float64(lastAudio) > pdevPos {
					pdevPos = float64(lastAudio)
				} else if float64(lastAudio) < pdevNeg {
					pdevNeg = float64(lastAudio)
				}
			} else {
				lastAudio = d.lastAudio
			}
			samples[n] = lastAudio
			audioIn[n] = lastAudio
			avgF += float64(lastAudio)
		}
		d.state = state
		avgF /= float64(olen)
		if d.snrBelowThresh < 1 {
			d.foffset = d.dsamprate * avgF / (2 * math.Pi)
			pdevPos -= avgF
			pdevNeg -= avgF
			d.pdeviation = d.dsamprate * math.Max(pdevPos, -pdevNeg) / (2 * math.Pi)
		}
	} else {
		d.state = 0
		d.lastAudio = 0
		for n := range samples {
			samples[n] = 0
			audioIn[n] = 0
		}
	}
	d.mu.Unlock()

	d.audioMaster.Execute()

	if d.audioFilter != nil {
		if err := d.audioFilter.Execute(ctx); err != nil {
			return nil, err
		}
		filtered := d.audioFilter.OutputReal()
		gain := float32(d.gain)
		for n := range samples {
			samples[n] = filtered[n] * gain
		}
	}
	return samples, nil
}

// SetFilter installs a new passband response on the live predetection
// filter, letting a commanded filter-edge or Kaiser-beta change take
// effect without restarting the demodulator. It does not touch the
// post-detection audio filter, whose response is fixed at construction
// and unrelated to the RF passband.
func (d *Demodulator) SetFilter(low, high, kaiserBeta float64) {
	d.mu.Lock()
	d.cfg.Low, d.cfg.High, d.cfg.KaiserBeta = low, high, kaiserBeta
	d.mu.Unlock()
	filter.SetFilter(d.predet, d.dsamprate, low, high, kaiserBeta)
}

func cnrm(c complex64) float64 {
	r, i := float64(real(c)), float64(imag(c))
	return r*r + i*i
}

func conj128(x complex128) complex128 { return complex(real(x), -imag(x)) }
