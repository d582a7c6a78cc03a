// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rtcpsr emits an RTCP sender report + source description
// compound packet once a second for the outbound PCM stream, mirroring
// original_source/main.c's rtcp_send thread. Unlike that thread, which
// hand-packs rtcp_sr/rtcp_sdes structures, this builds on
// github.com/pion/rtcp's typed packet model.
package rtcpsr

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pion/rtcp"
)

// NTPEpochOffset is the number of seconds between the NTP epoch
// (1900-01-01) and the Unix epoch (1970-01-01).
const NTPEpochOffset = 2208988800

// Source reports the counters a sender report needs at the moment it is
// generated.
type Source interface {
	// SSRC returns the output stream's synchronization source.
	SSRC() uint32
	// RTPTimestamp returns the RTP timestamp corresponding to now.
	RTPTimestamp() uint32
	// Counts returns the cumulative packet and octet counts sent so far.
	Counts() (packets, octets uint32)
}

// Sender periodically writes a compound SR+SDES packet to w.
type Sender struct {
	w        io.Writer
	src      Source
	period   time.Duration
	cname    string
	toolName string
}

// Option configures a Sender.
type Option func(*Sender)

// WithPeriod overrides the default 1-second report interval.
func WithPeriod(d time.Duration) Option {
	return func(s *Sender) { s.period = d }
}

// WithToolName overrides the default SDES TOOL item text.
func WithToolName(name string) Option {
	return func(s *Sender) { s.toolName = name }
}

// NewSender creates a Sender reporting on src's counters, writing to w.
// The CNAME item is built from the local hostname, matching
// rtcp_send's "radio@<hostname>" convention.
func NewSender(w io.Writer, src Source, opts ...Option) *Sender {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	s := &Sender{
		w:        w,
		src:      src,
		period:   time.Second,
		cname:    fmt.Sprintf("radio@%s", hostname),
		toolName: "radiod, a ka9q-radio-style SDR receiver",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run emits one compound packet per period until ctx is done.
func (s *Sender) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.sendOnce(time.Now()); err != nil {
				return err
			}
		}
	}
}

func (s *Sender) sendOnce(now time.Time) error {
	ssrc := s.src.SSRC()
	if ssrc == 0 {
		return nil
	}
	packets, octets := s.src.Counts()

	sr := &rtcp.SenderReport{
		SSRC:        ssrc,
		NTPTime:     toNTP(now),
		RTPTime:     s.src.RTPTimestamp(),
		PacketCount: packets,
		OctetCount:  octets,
	}
	sdes := &rtcp.SourceDescription{
		Chunks: []rtcp.SourceDescriptionChunk{
			{
				Source: ssrc,
				Items: []rtcp.SourceDescriptionItem{
					{Type: rtcp.SDESCNAME, Text: s.cname},
					{Type: rtcp.SDESTool, Text: s.toolName},
				},
			},
		},
	}

	compound := rtcp.CompoundPacket{sr, sdes}
	if err := compound.Validate(); err != nil {
		return fmt.Errorf("rtcpsr: %w", err)
	}
	buf, err := compound.Marshal()
	if err != nil {
		return fmt.Errorf("rtcpsr: marshal: %w", err)
	}
	if _, err := s.w.Write(buf); err != nil {
		return fmt.Errorf("rtcpsr: write: %w", err)
	}
	return nil
}

// toNTP converts t to a 64-bit NTP timestamp (32.32 fixed point seconds
// since the NTP epoch), mirroring rtcp_send's now_time construction.
func toNTP(t time.Time) uint64 {
	sec := uint64(t.Unix()+NTPEpochOffset) << 32
	frac := (uint64(t.Nanosecond()) << 32) / 1e9
	return sec + frac
}
