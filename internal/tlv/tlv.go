// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tlv implements the type-length-value scalar encoding used by
// the status/command protocol: big-endian integers with suppressed
// leading zeroes, IEEE-754 bit patterns for float/double, raw byte
// strings, and an EOL terminator.
package tlv

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Type identifies one status/command record.
type Type byte

// Record types, in the protocol's fixed numeric order.
const (
	EOL Type = iota
	GPSTime
	Commands
	InputSourceSocket
	InputDestSocket
	InputSSRC
	InputSampleRate
	InputPackets
	InputSamples
	InputDrops
	InputDupes

	OutputDestSocket
	OutputSSRC
	OutputTTL
	OutputSampleRate
	OutputPackets

	RadioFrequency
	FirstLOFrequency
	SecondLOFrequency
	ShiftFrequency
	DopplerFrequency
	DopplerFrequencyRate

	Calibrate
	LNAGain
	MixerGain
	IFGain
	DCIOffset
	DCQOffset
	IQImbalance
	IQPhase

	LowEdge
	HighEdge
	KaiserBeta
	FilterBlocksize
	FilterFIRLength
	NoiseBandwidth

	IFPower
	BasebandPower
	NoiseDensity

	RadioMode
	DemodMode
	IndependentSideband
	DemodSNR
	DemodGain
	FreqOffset

	PeakDeviation
	PLTone

	PLLLock
	PLLSquare
	PLLPhase

	OutputChannels

	// PLLEnable and FlatAudio extend the restored original_source/status.h
	// enumeration: the original only exposes PLLSquare (squaring implies
	// PLL) and has no command field for FM's de-emphasis bypass at all.
	// Appended after OutputChannels so existing numeric values are
	// unaffected.
	PLLEnable
	FlatAudio
)

// MaxValueLen is the longest value a single TLV record can carry.
const MaxValueLen = 255

// Encoder appends TLV records to an internal buffer.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the bytes written so far, not including a terminating
// EOL (call End first if one is wanted).
func (e *Encoder) Bytes() []byte { return e.buf }

// End appends the EOL terminator.
func (e *Encoder) End() { e.buf = append(e.buf, byte(EOL)) }

// Int appends a big-endian integer with leading zero bytes suppressed.
func (e *Encoder) Int(t Type, x uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], x)
	n := 0
	for n < 7 && tmp[n] == 0 {
		n++
	}
	v := tmp[n:]
	e.buf = append(e.buf, byte(t), byte(len(v)))
	e.buf = append(e.buf, v...)
}

// Byte appends a single-byte value.
func (e *Encoder) Byte(t Type, x byte) {
	e.buf = append(e.buf, byte(t), 1, x)
}

// Float appends x as its 32-bit IEEE-754 bit pattern.
func (e *Encoder) Float(t Type, x float32) {
	e.Int(t, uint64(math.Float32bits(x)))
}

// Double appends x as its 64-bit IEEE-754 bit pattern.
func (e *Encoder) Double(t Type, x float64) {
	e.Int(t, math.Float64bits(x))
}

// String appends s as a raw, unswapped byte string, truncated to
// MaxValueLen.
func (e *Encoder) String(t Type, s string) {
	if len(s) > MaxValueLen {
		s = s[:MaxValueLen]
	}
	e.buf = append(e.buf, byte(t), byte(len(s)))
	e.buf = append(e.buf, s...)
}

// Raw appends b as a raw, unswapped byte string, truncated to
// MaxValueLen.
func (e *Encoder) Raw(t Type, b []byte) {
	if len(b) > MaxValueLen {
		b = b[:MaxValueLen]
	}
	e.buf = append(e.buf, byte(t), byte(len(b)))
	e.buf = append(e.buf, b...)
}

// Record is one decoded TLV entry.
type Record struct {
	Type  Type
	Value []byte
}

// Decode parses buf into a sequence of records, stopping at EOL or the
// end of buf. It returns an error if a record's declared length would
// run past the end of buf.
func Decode(buf []byte) ([]Record, error) {
	var records []Record
	for len(buf) > 0 {
		t := Type(buf[0])
		if t == EOL {
			break
		}
		if len(buf) < 2 {
			return records, fmt.Errorf("tlv: truncated record header for type %d", t)
		}
		length := int(buf[1])
		if len(buf) < 2+length {
			return records, fmt.Errorf("tlv: record type %d declares length %d beyond buffer", t, length)
		}
		records = append(records, Record{Type: t, Value: buf[2 : 2+length]})
		buf = buf[2+length:]
	}
	return records, nil
}

// Uint decodes r's value as a big-endian unsigned integer.
func (r Record) Uint() uint64 {
	var x uint64
	for _, b := range r.Value {
		x = (x << 8) | uint64(b)
	}
	return x
}

// Float32 decodes r's value as an IEEE-754 float, accepting either a
// 4-byte single or 8-byte double encoding.
func (r Record) Float32() float32 {
	if len(r.Value) == 8 {
		return float32(r.Float64())
	}
	return math.Float32frombits(uint32(r.Uint()))
}

// Float64 decodes r's value as an IEEE-754 double, accepting either an
// 8-byte double or 4-byte single encoding.
func (r Record) Float64() float64 {
	if len(r.Value) == 4 {
		return float64(r.Float32())
	}
	return math.Float64frombits(r.Uint())
}

// String decodes r's value as a raw byte string.
func (r Record) String() string { return string(r.Value) }
