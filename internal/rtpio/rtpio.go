// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rtpio implements the RTP-layer concerns shared by the I/Q
// input stream and the PCM output stream: header parsing, per-session
// sequence/timestamp tracking, and the private payload-type constants
// this deployment uses.
//
// The payload type numbers below are not IANA-assigned; they are
// private to this deployment, shared only between radiod and its
// front-end tuner daemon peers.
package rtpio

import (
	"github.com/pion/rtp"
)

// Payload types used on the wire. IQPT/IQPT8 arrive on the input stream;
// PCMMonoPT/PCMStereoPT are emitted on the output stream.
const (
	IQPT        = 97  // 16-bit interleaved I/Q, little-endian
	IQPT8       = 98  // 8-bit interleaved I/Q
	AX25PT      = 96  // raw AX.25 frames (not handled by this package)
	PCMStereoPT = 10
	PCMMonoPT   = 11
	OpusPT      = 111 // not handled by this package
)

// MinHeaderSize is the minimum size, in bytes, of a well-formed RTP
// packet (the fixed 12-byte header with no CSRC list).
const MinHeaderSize = 12

// RTPVersion is the only RTP version this deployment accepts.
const RTPVersion = 2

// ParseHeader validates and parses buf as an RTP packet, returning the
// parsed header and the payload slice (a sub-slice of buf, with any
// extension header skipped and any padding length trimmed off the end).
// It returns an error for anything shorter than MinHeaderSize, any
// version other than 2, or any malformed extension/padding.
func ParseHeader(buf []byte) (*rtp.Header, []byte, error) {
	if len(buf) < MinHeaderSize {
		return nil, nil, errShortPacket
	}
	var h rtp.Header
	n, err := h.Unmarshal(buf)
	if err != nil {
		return nil, nil, err
	}
	if int(h.Version) != RTPVersion {
		return nil, nil, errBadVersion
	}
	payload := buf[n:]
	if h.Padding {
		if len(payload) == 0 {
			return nil, nil, errBadPadding
		}
		padLen := int(payload[len(payload)-1])
		if padLen > len(payload) {
			return nil, nil, errBadPadding
		}
		payload = payload[:len(payload)-padLen]
	}
	return &h, payload, nil
}

// MarshalHeader encodes h into a new buffer sized for the header plus
// payloadLen bytes of payload, returning the full buffer with the
// payload region left zeroed for the caller to fill in.
func MarshalHeader(h *rtp.Header, payloadLen int) ([]byte, error) {
	hn := h.MarshalSize()
	buf := make([]byte, hn+payloadLen)
	if _, err := h.MarshalTo(buf[:hn]); err != nil {
		return nil, err
	}
	return buf, nil
}

type rtpError string

func (e rtpError) Error() string { return string(e) }

const (
	errShortPacket rtpError = "rtpio: packet shorter than RTP header"
	errBadVersion  rtpError = "rtpio: unsupported RTP version"
	errBadPadding  rtpError = "rtpio: invalid RTP padding"
)
