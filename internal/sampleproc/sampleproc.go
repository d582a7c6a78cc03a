// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sampleproc implements the sample processor thread described in
// spec.md §4.2/§5: it dequeues RTP I/Q packets in sequence order, fills
// gaps left by lost packets with zero samples while keeping the second-LO
// and Doppler oscillators advancing in step, converts and corrects each
// I/Q pair, frequency-translates it, and hands completed blocks to the
// filter's Master input.
package sampleproc

import (
	"encoding/binary"
	"fmt"

	"github.com/n5tnl/radiod/internal/frontend"
	"github.com/n5tnl/radiod/internal/logging"
	"github.com/n5tnl/radiod/internal/osc"
	"github.com/n5tnl/radiod/internal/pqueue"
	"github.com/n5tnl/radiod/internal/rtpio"
)

// MaxGapSamples is the largest timestamp gap, in samples, that is filled
// with zeros rather than treated as a discontinuity too large to bridge.
// A larger gap discards the packet that revealed it and jumps the
// expected timestamp forward instead, per spec.md §4.2.
const MaxGapSamples = 192000

// sampleScale16 and sampleScale8 convert a signed wire sample to the
// nominal ±1 range. 32767 (not 32768) is the scale spec.md §8 scenario 1
// uses: a {1,0} 16-bit sample pair reaches the filter input at real part
// 1/32767.
const (
	sampleScale16 = 1.0 / 32767
	sampleScale8  = 1.0 / 127
)

// Sink is the block destination a Processor feeds: the user-writable
// portion of a complex-input filter.Master's overlap-save buffer. It is
// satisfied by *filter.Master without either package importing the
// other.
type Sink interface {
	InputComplex() []complex64
	BlockSize() int
	Execute()
}

// Option configures a Processor at construction.
type Option func(*Processor)

// WithDoppler attaches a Doppler-tracking oscillator whose phasor is
// multiplied into every sample alongside the second LO, and advanced in
// lockstep during gap fill.
func WithDoppler(o *osc.Oscillator) Option {
	return func(p *Processor) { p.doppler = o }
}

// WithLogger attaches a logger used to report dropped malformed packets.
// Without one, dropped packets are silent.
func WithLogger(l logging.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// Processor is the sample processor thread's state. It owns none of its
// dependencies' locks; Session, Status, and Corr are the cross-thread
// shared resources spec.md §5 names. LO2, Sink and Doppler are stepped
// and written only by the processor's own goroutine, though other
// goroutines set the oscillators' frequencies under their own locks.
type Processor struct {
	Queue   *pqueue.Queue
	Session *rtpio.SessionState
	Status  *frontend.Status
	Corr    *frontend.Correction
	LO2     *osc.Oscillator
	Sink    Sink

	doppler *osc.Oscillator
	logger  logging.Logger

	stats    frontend.Stats
	blockPos int
	primed   bool
}

// New creates a Processor. queue supplies packets, session tracks
// sequence/timestamp state, status and corr are the front-end tuner
// status and I/Q correction state, lo2 is the second-LO oscillator, and
// sink is the filter input the processed blocks are written to.
func New(queue *pqueue.Queue, session *rtpio.SessionState, status *frontend.Status, corr *frontend.Correction, lo2 *osc.Oscillator, sink Sink, opts ...Option) *Processor {
	p := &Processor{
		Queue:   queue,
		Session: session,
		Status:  status,
		Corr:    corr,
		LO2:     lo2,
		Sink:    sink,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run dequeues and processes packets until the queue is closed, at which
// point it returns nil. Malformed or unsupported packets are dropped and
// logged rather than ending the loop.
func (p *Processor) Run() error {
	for {
		pkt, ok := p.Queue.Dequeue()
		if !ok {
			return nil
		}
		if err := p.process(pkt); err != nil {
			p.logf("sampleproc: dropping packet: %v", err)
		}
	}
}

// process handles one dequeued packet: sequence classification, gap
// fill, and per-sample correction/translation/block dispatch.
func (p *Processor) process(pkt *pqueue.Packet) error {
	hdr, payload, err := rtpio.ParseHeader(pkt.Data)
	if err != nil {
		return err
	}

	outcome, _ := p.Session.Observe(hdr.SSRC, hdr.SequenceNumber, len(payload))
	if outcome == rtpio.SeqDuplicate {
		return nil
	}
	if outcome == rtpio.SeqReset {
		p.primed = false
	}

	samples, err := decodeSamples(hdr.PayloadType, payload)
	if err != nil {
		return err
	}

	if p.primed {
		gap := p.Session.TimestampGap(hdr.Timestamp)
		if gap > 0 {
			if int(gap) > MaxGapSamples {
				p.Session.SetLastTimestamp(hdr.Timestamp)
				return fmt.Errorf("sampleproc: timestamp gap %d exceeds %d, discarding packet", gap, MaxGapSamples)
			}
			p.fillGap(int(gap))
		}
	}

	for _, iq := range samples {
		p.processSample(iq.i, iq.q)
	}
	p.Session.SetLastTimestamp(hdr.Timestamp + uint32(len(samples)))
	p.primed = true
	return nil
}

// fillGap injects n zero samples, keeping the second-LO and Doppler
// oscillators advancing through the gap so their phase stays continuous
// with the samples that follow, per spec.md §4.2.
func (p *Processor) fillGap(n int) {
	for i := 0; i < n; i++ {
		p.LO2.Step()
		if p.doppler != nil {
			p.doppler.Step()
		}
		p.emit(0)
	}
}

// processSample applies the front-end correction, cancels the analog
// gain stages, frequency-translates by the second LO (and Doppler
// oscillator, if attached), accumulates statistics, and emits the
// resulting complex sample, in the order spec.md §4.2 specifies.
func (p *Processor) processSample(i, q float64) {
	corrected := p.Corr.Apply(i, q)
	corrected *= complex(p.Status.GainNormalization(), 0)

	phasor := p.LO2.Step()
	if p.doppler != nil {
		phasor *= p.doppler.Step()
	}
	corrected *= phasor

	p.stats.Add(i, q)
	p.emit(complex64(corrected))
}

// emit writes s into the sink's input buffer, dispatching a completed
// block (and folding the accumulated statistics into Corr) whenever the
// buffer fills.
func (p *Processor) emit(s complex64) {
	buf := p.Sink.InputComplex()
	buf[p.blockPos] = s
	p.blockPos++
	if p.blockPos == p.Sink.BlockSize() {
		p.Corr.UpdateFrom(p.stats)
		p.stats.Reset()
		p.Sink.Execute()
		p.blockPos = 0
	}
}

func (p *Processor) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}

// iqPair is one decoded, pre-correction I/Q sample pair.
type iqPair struct {
	i, q float64
}

// decodeSamples converts an RTP payload into a slice of scaled I/Q
// pairs, per the wire format rtpio.IQPT/IQPT8 describe.
func decodeSamples(payloadType uint8, payload []byte) ([]iqPair, error) {
	switch payloadType {
	case rtpio.IQPT:
		if len(payload)%4 != 0 {
			return nil, fmt.Errorf("sampleproc: IQPT payload length %d not a multiple of 4", len(payload))
		}
		n := len(payload) / 4
		out := make([]iqPair, n)
		for k := 0; k < n; k++ {
			iRaw := int16(binary.LittleEndian.Uint16(payload[k*4:]))
			qRaw := int16(binary.LittleEndian.Uint16(payload[k*4+2:]))
			out[k] = iqPair{i: float64(iRaw) * sampleScale16, q: float64(qRaw) * sampleScale16}
		}
		return out, nil
	case rtpio.IQPT8:
		if len(payload)%2 != 0 {
			return nil, fmt.Errorf("sampleproc: IQPT8 payload length %d not a multiple of 2", len(payload))
		}
		n := len(payload) / 2
		out := make([]iqPair, n)
		for k := 0; k < n; k++ {
			iRaw := int8(payload[k*2])
			qRaw := int8(payload[k*2+1])
			out[k] = iqPair{i: float64(iRaw) * sampleScale8, q: float64(qRaw) * sampleScale8}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("sampleproc: unsupported payload type %d", payloadType)
	}
}
