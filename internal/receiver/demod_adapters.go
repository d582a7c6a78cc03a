// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package receiver

import (
	"context"

	"github.com/n5tnl/radiod/internal/demod/am"
	"github.com/n5tnl/radiod/internal/demod/fm"
	"github.com/n5tnl/radiod/internal/demod/linear"
	"github.com/n5tnl/radiod/internal/pcm"
	"github.com/n5tnl/radiod/internal/tlv"
)

// amAdapter wires an am.Demodulator's block loop into the shared
// demodulator interface: pull one decimated block, AGC it, and frame it
// as mono PCM.
type amAdapter struct {
	d   *am.Demodulator
	pcm *pcm.Session
}

func (a *amAdapter) run(ctx context.Context) error {
	for {
		samples, err := a.d.Execute(ctx)
		if err != nil {
			return err
		}
		if err := a.pcm.WriteMono(samples); err != nil {
			return err
		}
	}
}

func (a *amAdapter) setFilter(low, high, kaiserBeta float64) {
	a.d.SetFilter(low, high, kaiserBeta)
}

func (a *amAdapter) records() []tlv.Record {
	st := a.d.Snapshot()
	e := tlv.NewEncoder()
	e.Double(tlv.DemodGain, st.Gain)
	e.Double(tlv.NoiseDensity, st.N0)
	e.Double(tlv.BasebandPower, st.BBPower)
	recs, _ := tlv.Decode(e.Bytes())
	return recs
}

// fmAdapter wires an fm.Demodulator's block loop (plus its PL-tone
// analyzer, run as a second goroutine sharing the same sub-context)
// into the shared demodulator interface.
type fmAdapter struct {
	d   *fm.Demodulator
	pcm *pcm.Session
}

func (a *fmAdapter) run(ctx context.Context) error {
	plErr := make(chan error, 1)
	go func() { plErr <- a.d.RunPL(ctx) }()

	for {
		samples, err := a.d.Execute(ctx)
		if err != nil {
			<-plErr
			return err
		}
		if err := a.pcm.WriteMono(samples); err != nil {
			<-plErr
			return err
		}
	}
}

func (a *fmAdapter) setFilter(low, high, kaiserBeta float64) {
	a.d.SetFilter(low, high, kaiserBeta)
}

func (a *fmAdapter) records() []tlv.Record {
	st := a.d.Snapshot()
	e := tlv.NewEncoder()
	e.Double(tlv.DemodSNR, st.SNR)
	e.Double(tlv.NoiseDensity, st.N0)
	e.Double(tlv.BasebandPower, st.BBPower)
	e.Double(tlv.FreqOffset, st.FreqOffset)
	e.Double(tlv.PeakDeviation, st.Deviation)
	if st.PLFrequency == st.PLFrequency { // not NaN
		e.Double(tlv.PLTone, st.PLFrequency)
	}
	recs, _ := tlv.Decode(e.Bytes())
	return recs
}

// linearAdapter wires a linear.Demodulator's block loop into the shared
// demodulator interface. Execute returns a complex block (I on real, Q
// on imag); stereo modes frame both channels, mono modes frame only I.
type linearAdapter struct {
	d      *linear.Demodulator
	pcm    *pcm.Session
	stereo bool
}

func (a *linearAdapter) run(ctx context.Context) error {
	for {
		out, err := a.d.Execute(ctx)
		if err != nil {
			return err
		}
		if a.stereo {
			i := make([]float32, len(out))
			q := make([]float32, len(out))
			for k, c := range out {
				i[k] = real(c)
				q[k] = imag(c)
			}
			if err := a.pcm.WriteStereo(i, q); err != nil {
				return err
			}
			continue
		}
		i := make([]float32, len(out))
		for k, c := range out {
			i[k] = real(c)
		}
		if err := a.pcm.WriteMono(i); err != nil {
			return err
		}
	}
}

func (a *linearAdapter) setFilter(low, high, kaiserBeta float64) {
	a.d.SetFilter(low, high, kaiserBeta)
}

func (a *linearAdapter) records() []tlv.Record {
	st := a.d.Snapshot()
	e := tlv.NewEncoder()
	e.Double(tlv.DemodSNR, st.SNR)
	e.Double(tlv.NoiseDensity, st.N0)
	e.Double(tlv.BasebandPower, st.BBPower)
	e.Double(tlv.DemodGain, st.Gain)
	e.Double(tlv.FreqOffset, st.FreqOffset)
	e.Double(tlv.PLLPhase, st.CarrierPhase)
	if st.Locked {
		e.Byte(tlv.PLLLock, 1)
	} else {
		e.Byte(tlv.PLLLock, 0)
	}
	recs, _ := tlv.Decode(e.Bytes())
	return recs
}
