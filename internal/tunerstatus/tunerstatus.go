// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tunerstatus encodes and decodes the 24-byte little-endian
// status/command structure exchanged with the tuner front-end process,
// grounded on original_source/sdr.h's "struct status" and its
// ntoh_status/hton_status helpers. Unlike the rest of the wire protocol,
// this structure is copied directly between host-order memory and the
// network stream rather than byte-swapped, since the tuner process and
// radiod share a byte order by convention; Size is a multiple of 8 so the
// embedded double and int64 fields never straddle an alignment boundary.
package tunerstatus

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Size is the wire length of a Status structure, in bytes.
const Size = 24

// GainUnchanged is the gain-byte sentinel meaning "leave this gain stage
// as it is," used when sending a command that only changes some fields.
const GainUnchanged = 0xFF

// Status mirrors struct status from sdr.h: a front-end status report, or,
// when used as an outbound command, a requested front-end configuration.
type Status struct {
	TimestampNs int64   // nanoseconds since the GPS epoch
	Frequency   float64 // tuner center frequency, Hz
	SampleRate  uint32  // ADC sample rate, Hz
	LNAGain     uint8
	MixerGain   uint8
	IFGain      uint8
	// byte 23 is padding, always zero on the wire
}

// Marshal encodes s into a Size-byte little-endian buffer.
func Marshal(s Status) []byte {
	buf := make([]byte, Size)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(s.TimestampNs))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(s.Frequency))
	binary.LittleEndian.PutUint32(buf[16:20], s.SampleRate)
	buf[20] = s.LNAGain
	buf[21] = s.MixerGain
	buf[22] = s.IFGain
	return buf
}

// Unmarshal decodes a Size-byte little-endian buffer into a Status.
func Unmarshal(buf []byte) (Status, error) {
	if len(buf) < Size {
		return Status{}, fmt.Errorf("tunerstatus: buffer of %d bytes shorter than %d", len(buf), Size)
	}
	return Status{
		TimestampNs: int64(binary.LittleEndian.Uint64(buf[0:8])),
		Frequency:   math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16])),
		SampleRate:  binary.LittleEndian.Uint32(buf[16:20]),
		LNAGain:     buf[20],
		MixerGain:   buf[21],
		IFGain:      buf[22],
	}, nil
}

// ApplyCommand merges a command Status c into a current Status cur,
// leaving any gain field set to GainUnchanged untouched. Frequency and
// SampleRate in c always take effect (the structure has no analogous
// sentinel for them).
func ApplyCommand(cur Status, c Status) Status {
	out := cur
	out.TimestampNs = c.TimestampNs
	out.Frequency = c.Frequency
	out.SampleRate = c.SampleRate
	if c.LNAGain != GainUnchanged {
		out.LNAGain = c.LNAGain
	}
	if c.MixerGain != GainUnchanged {
		out.MixerGain = c.MixerGain
	}
	if c.IFGain != GainUnchanged {
		out.IFGain = c.IFGain
	}
	return out
}
