// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package fm

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/n5tnl/radiod/internal/fftx"
	"github.com/n5tnl/radiod/internal/filter"
)

// plDecimate is the audio-master-to-PL-analyzer decimation ratio: 48 kHz
// audio in, 1500 Hz PL analysis rate out.
const plDecimate = 32

// plFFTSize is the length of the long FFT used to resolve the PL tone to
// well under 0.1 Hz, at the PL analyzer's own (decimated) sample rate.
const plFFTSize = (1 << 19) / plDecimate

// plUpdateSamples is how many new PL-rate samples must accumulate before
// the FFT is re-run: 512 samples at 1500 Hz is about 0.34 s.
const plUpdateSamples = 512

const (
	plLowHz      = 300
	plMinToneHz  = 67
	plMaxToneHz  = 255
	plEnergyFrac = 0.01
	plKaiserBeta = 2.0
)

// plAnalyzer is the PL-tone frequency analyzer: a real low-pass slave
// filter feeding a ring buffer that a long FFT periodically consumes.
type plAnalyzer struct {
	slave *filter.Slave
	fft   fftx.Transformer

	sampRate float64

	ring    []float32
	fftPtr  int
	lastFFT int

	mu   sync.Mutex
	freq float64
}

func newPLAnalyzer(audioMaster *filter.Master, dsamprate float64) (*plAnalyzer, error) {
	an := audioMaster.Len()
	al := audioMaster.BlockSize()

	plSampRate := dsamprate / plDecimate
	plN := an / plDecimate
	plL := al / plDecimate
	plM := plN - plL + 1
	if plM < 1 {
		plM = 1
	}

	response := make([]complex64, plN/2+1)
	for j := 0; j <= plN/2; j++ {
		f := float64(j) * dsamprate / float64(an)
		if f > 0 && f < plLowHz {
			response[j] = 1
		}
	}
	filter.WindowRFilter(plL, plM, response, plKaiserBeta)

	slave, err := filter.NewSlave(audioMaster, plDecimate, filter.TypeReal)
	if err != nil {
		return nil, fmt.Errorf("pl analyzer: %w", err)
	}
	slave.SetResponse(response)

	return &plAnalyzer{
		slave:    slave,
		fft:      fftx.New(plFFTSize),
		sampRate: plSampRate,
		ring:     make([]float32, plFFTSize),
		freq:     math.NaN(),
	}, nil
}

func (p *plAnalyzer) frequency() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.freq
}

// step waits for, ring-buffers and (every plUpdateSamples samples)
// spectrally analyzes one block of PL-rate audio.
func (p *plAnalyzer) step(ctx context.Context) error {
	if err := p.slave.Execute(ctx); err != nil {
		return err
	}
	data := p.slave.OutputReal()
	p.lastFFT += len(data)

	remain := len(data)
	for remain != 0 {
		chunk := remain
		if plFFTSize-p.fftPtr < chunk {
			chunk = plFFTSize - p.fftPtr
		}
		copy(p.ring[p.fftPtr:p.fftPtr+chunk], data[len(data)-remain:len(data)-remain+chunk])
		p.fftPtr += chunk
		remain -= chunk
		if p.fftPtr >= plFFTSize {
			p.fftPtr -= plFFTSize
		}
	}

	if p.lastFFT >= plUpdateSamples {
		p.lastFFT = 0
		p.analyze()
	}
	return nil
}

func (p *plAnalyzer) analyze() {
	spectrum := make([]complex64, plFFTSize/2+1)
	p.fft.RealForward(spectrum, p.ring)

	peakBin := -1
	var peakEnergy, totEnergy float64
	for n := 1; n < plFFTSize/2; n++ {
		r, im := float64(real(spectrum[n])), float64(imag(spectrum[n]))
		energy := r*r + im*im
		totEnergy += energy
		if energy > peakEnergy {
			peakEnergy = energy
			peakBin = n
		}
	}

	freq := math.NaN()
	if peakBin > 0 && peakEnergy > plEnergyFrac*totEnergy {
		f := float64(peakBin) * p.sampRate / float64(plFFTSize)
		if f > plMinToneHz && f < plMaxToneHz {
			freq = f
		}
	}
	p.mu.Lock()
	p.freq = freq
	p.mu.Unlock()
}
