// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pcm frames demodulated audio into outbound RTP PCM packets:
// mono or stereo 16-bit big-endian samples, with silence suppression and
// marker-on-resume, mirroring the original program's send_mono_output /
// send_stereo_output.
package pcm

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pion/rtp"

	"github.com/n5tnl/radiod/internal/rtpio"
)

// MaxWords is the largest number of 16-bit words placed in one packet
// (fits comfortably under a standard Ethernet MTU).
const MaxWords = 480

// Session frames one outbound PCM audio stream.
type Session struct {
	w       io.Writer
	ssrc    uint32
	seq     uint16
	ts      uint32
	stereo  bool
	silence bool

	Packets uint64
	Bytes   uint64
}

// NewSession creates a PCM framer writing to w. stereo selects payload
// type 10 (I on left, Q on right); mono selects payload type 11.
func NewSession(w io.Writer, ssrc uint32, stereo bool) *Session {
	return &Session{w: w, ssrc: ssrc, stereo: stereo, silence: true}
}

// SSRC returns the session's output SSRC, for wiring into the RTCP
// sender report emitter.
func (s *Session) SSRC() uint32 { return s.ssrc }

// RTPTimestamp returns the current outbound RTP timestamp, for wiring
// into the RTCP sender report emitter's rtcpsr.Source interface.
func (s *Session) RTPTimestamp() uint32 { return s.ts }

// Counts returns the cumulative packet and byte counts, for the RTCP
// sender report emitter's rtcpsr.Source interface.
func (s *Session) Counts() (packets, octets uint32) {
	return uint32(s.Packets), uint32(s.Bytes)
}

// WriteMono frames a block of mono float32 samples, clipped to +/-1.0.
func (s *Session) WriteMono(samples []float32) error {
	if s.stereo {
		return fmt.Errorf("pcm: WriteMono called on a stereo session")
	}
	return s.write(samples, nil)
}

// WriteStereo frames a block of interleave-ready I/Q float32 samples: i
// and q must be the same length, placed on the left and right channels
// respectively.
func (s *Session) WriteStereo(i, q []float32) error {
	if !s.stereo {
		return fmt.Errorf("pcm: WriteStereo called on a mono session")
	}
	if len(i) != len(q) {
		return fmt.Errorf("pcm: WriteStereo: len(i)=%d != len(q)=%d", len(i), len(q))
	}
	return s.write(i, q)
}

// write frames one block. If q is non-nil the output is interleaved
// I/Q stereo; otherwise mono.
func (s *Session) write(i, q []float32) error {
	n := len(i)
	words := n
	if q != nil {
		words = n * 2
	}
	if words > MaxWords {
		return fmt.Errorf("pcm: block of %d words exceeds MaxWords=%d", words, MaxWords)
	}

	payload := make([]byte, words*2)
	allZero := true
	for n2 := 0; n2 < n; n2++ {
		v := clipToInt16(i[n2])
		if v != 0 {
			allZero = false
		}
		if q == nil {
			binary.BigEndian.PutUint16(payload[n2*2:], uint16(v))
			continue
		}
		binary.BigEndian.PutUint16(payload[n2*4:], uint16(v))
		vq := clipToInt16(q[n2])
		if vq != 0 {
			allZero = false
		}
		binary.BigEndian.PutUint16(payload[n2*4+2:], uint16(vq))
	}

	if allZero {
		s.ts += uint32(n)
		s.silence = true
		return nil
	}

	pt := uint8(rtpio.PCMMonoPT)
	if s.stereo {
		pt = rtpio.PCMStereoPT
	}
	h := &rtp.Header{
		Version:        rtpio.RTPVersion,
		Marker:         s.silence,
		PayloadType:    pt,
		SequenceNumber: s.seq,
		Timestamp:      s.ts,
		SSRC:           s.ssrc,
	}
	hdr, err := rtpio.MarshalHeader(h, len(payload))
	if err != nil {
		return fmt.Errorf("pcm: %w", err)
	}
	if _, err := s.w.Write(append(hdr, payload...)); err != nil {
		return fmt.Errorf("pcm: write: %w", err)
	}

	s.seq++
	s.ts += uint32(n)
	s.silence = false
	s.Packets++
	s.Bytes += uint64(len(hdr) + len(payload))
	return nil
}

func clipToInt16(f float32) int16 {
	if f > 1 {
		f = 1
	} else if f < -1 {
		f = -1
	}
	return int16(f * 32767)
}
