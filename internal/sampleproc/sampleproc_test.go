// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package sampleproc

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/pion/rtp"

	"github.com/n5tnl/radiod/internal/frontend"
	"github.com/n5tnl/radiod/internal/osc"
	"github.com/n5tnl/radiod/internal/pqueue"
	"github.com/n5tnl/radiod/internal/rtpio"
)

// fakeSink is a Sink that records how many times Execute was called
// without running any real transform, so tests can inspect the raw
// samples a Processor writes.
type fakeSink struct {
	buf        []complex64
	executions int
}

func newFakeSink(n int) *fakeSink {
	return &fakeSink{buf: make([]complex64, n)}
}

func (f *fakeSink) InputComplex() []complex64 { return f.buf }
func (f *fakeSink) BlockSize() int            { return len(f.buf) }
func (f *fakeSink) Execute()                  { f.executions++ }

// buildPacket constructs an RTP packet carrying 16-bit interleaved I/Q
// pairs, wrapped in a pqueue.Packet the way the receive loop would.
func buildPacket(t *testing.T, seq uint16, timestamp uint32, pt uint8, pairs [][2]int16) *pqueue.Packet {
	t.Helper()
	h := &rtp.Header{Version: 2, PayloadType: pt, SequenceNumber: seq, Timestamp: timestamp, SSRC: 1}
	buf, err := rtpio.MarshalHeader(h, len(pairs)*4)
	if err != nil {
		t.Fatalf("MarshalHeader: %v", err)
	}
	hn := len(buf) - len(pairs)*4
	for k, pair := range pairs {
		binary.LittleEndian.PutUint16(buf[hn+k*4:], uint16(pair[0]))
		binary.LittleEndian.PutUint16(buf[hn+k*4+2:], uint16(pair[1]))
	}
	return &pqueue.Packet{Seq: seq, Data: buf}
}

func newTestProcessor(sink Sink) (*Processor, *rtpio.SessionState) {
	session := rtpio.NewSessionState()
	status := &frontend.Status{}
	corr := frontend.NewCorrection()
	lo2 := osc.New()
	return New(pqueue.New(), session, status, &corr, lo2, sink), session
}

// Scenario 1: a single packet of 240 {1,0} pairs at default correction
// and zero gain should reach the filter input at real part ~= 1/32767,
// with the session counting one packet and zero drops.
func TestScenario1SinglePacketReachesFilterInput(t *testing.T) {
	sink := newFakeSink(240)
	proc, session := newTestProcessor(sink)

	pairs := make([][2]int16, 240)
	for i := range pairs {
		pairs[i] = [2]int16{1, 0}
	}
	pkt := buildPacket(t, 1000, 0, rtpio.IQPT, pairs)

	if err := proc.process(pkt); err != nil {
		t.Fatalf("process: %v", err)
	}

	const want = 1.0 / 32767
	for i, s := range sink.buf {
		if math.Abs(float64(real(s))-want) > 1e-9 {
			t.Fatalf("sample %d real = %v, want %v", i, real(s), want)
		}
		if imag(s) != 0 {
			t.Fatalf("sample %d imag = %v, want 0", i, imag(s))
		}
	}

	stats := session.Snapshot()
	if stats.Packets != 1 || stats.Drops != 0 {
		t.Fatalf("stats = %+v, want Packets=1 Drops=0", stats)
	}
	if sink.executions != 1 {
		t.Fatalf("executions = %d, want 1 (block size == sample count)", sink.executions)
	}
}

// Scenario 2: a 2-packet sequence gap (seq 1000 then 1002, timestamps
// 480 samples apart at a 240-sample-per-packet rate) should record one
// drop and inject exactly 240 zero samples between the two packets'
// payloads.
func TestScenario2GapFillsZerosBetweenPackets(t *testing.T) {
	sink := newFakeSink(1000)
	proc, session := newTestProcessor(sink)

	zeroPairs := make([][2]int16, 240)
	pkt1 := buildPacket(t, 1000, 0, rtpio.IQPT, zeroPairs)
	if err := proc.process(pkt1); err != nil {
		t.Fatalf("process pkt1: %v", err)
	}
	pkt2 := buildPacket(t, 1002, 480, rtpio.IQPT, zeroPairs)
	if err := proc.process(pkt2); err != nil {
		t.Fatalf("process pkt2: %v", err)
	}

	stats := session.Snapshot()
	if stats.Drops != 1 {
		t.Fatalf("Drops = %d, want 1", stats.Drops)
	}
	const want = 240 + 240 + 240 // pkt1 + gap fill + pkt2
	if proc.blockPos != want {
		t.Fatalf("blockPos = %d, want %d", proc.blockPos, want)
	}
}

// fillGap in isolation must advance the second-LO oscillator by exactly
// the requested number of steps, independent of anything else process
// does.
func TestFillGapAdvancesOscillatorByGapCount(t *testing.T) {
	sink := newFakeSink(1000)
	lo2 := osc.New()
	lo2.Set(0.01, 0)
	proc := &Processor{LO2: lo2, Sink: sink}

	ref := osc.New()
	ref.Set(0.01, 0)
	ref.StepN(240)

	proc.fillGap(240)

	if got, want := lo2.Phasor(), ref.Phasor(); got != want {
		t.Fatalf("phasor = %v, want %v", got, want)
	}
}

func TestDuplicatePacketIsDroppedWithoutAdvancingState(t *testing.T) {
	sink := newFakeSink(1000)
	proc, session := newTestProcessor(sink)

	pairs := make([][2]int16, 240)
	if err := proc.process(buildPacket(t, 1000, 0, rtpio.IQPT, pairs)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := proc.process(buildPacket(t, 999, 0, rtpio.IQPT, pairs)); err != nil {
		t.Fatalf("process duplicate: %v", err)
	}

	stats := session.Snapshot()
	if stats.Dupes != 1 {
		t.Fatalf("Dupes = %d, want 1", stats.Dupes)
	}
	if proc.blockPos != 240 {
		t.Fatalf("blockPos = %d, want 240 (duplicate must not emit samples)", proc.blockPos)
	}
}

func TestExcessiveGapDiscardsPacketAndJumpsTimestamp(t *testing.T) {
	sink := newFakeSink(1000)
	proc, session := newTestProcessor(sink)

	pairs := make([][2]int16, 240)
	if err := proc.process(buildPacket(t, 1000, 0, rtpio.IQPT, pairs)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := proc.process(buildPacket(t, 1001, 300000, rtpio.IQPT, pairs)); err == nil {
		t.Fatal("expected an error discarding the oversized gap")
	}
	if proc.blockPos != 240 {
		t.Fatalf("blockPos = %d, want 240 (discarded packet must not emit samples)", proc.blockPos)
	}

	// The next packet's timestamp matches the jumped expected timestamp
	// exactly, so it should see a zero gap and emit no filler samples.
	if err := proc.process(buildPacket(t, 1002, 300000, rtpio.IQPT, pairs)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if proc.blockPos != 480 {
		t.Fatalf("blockPos = %d, want 480 (no gap fill expected)", proc.blockPos)
	}
	_ = session
}

func TestDecodeSamplesRejectsUnsupportedPayloadType(t *testing.T) {
	if _, err := decodeSamples(rtpio.AX25PT, make([]byte, 8)); err == nil {
		t.Fatal("expected an error for an unsupported payload type")
	}
}

func TestDecodeSamples8Bit(t *testing.T) {
	payload := []byte{127, 0xFF} // I=127 (+1 scaled), Q=-1 (raw int8 -1)
	samples, err := decodeSamples(rtpio.IQPT8, payload)
	if err != nil {
		t.Fatalf("decodeSamples: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("len(samples) = %d, want 1", len(samples))
	}
	if math.Abs(samples[0].i-1.0) > 1e-9 {
		t.Fatalf("i = %v, want ~1.0", samples[0].i)
	}
	if math.Abs(samples[0].q-(-1.0/127)) > 1e-9 {
		t.Fatalf("q = %v, want ~-1/127", samples[0].q)
	}
}
