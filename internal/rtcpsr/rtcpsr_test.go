// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtcpsr

import (
	"bytes"
	"testing"
	"time"

	"github.com/pion/rtcp"
)

type fakeSource struct {
	ssrc            uint32
	packets, octets uint32
	rtpTimestamp    uint32
}

func (f fakeSource) SSRC() uint32             { return f.ssrc }
func (f fakeSource) RTPTimestamp() uint32     { return f.rtpTimestamp }
func (f fakeSource) Counts() (uint32, uint32) { return f.packets, f.octets }

func TestSendOnceSkipsWhenSSRCUnset(t *testing.T) {
	var buf bytes.Buffer
	s := NewSender(&buf, fakeSource{})
	if err := s.sendOnce(time.Now()); err != nil {
		t.Fatalf("sendOnce: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output while SSRC is 0, got %d bytes", buf.Len())
	}
}

func TestSendOnceEmitsValidCompoundPacket(t *testing.T) {
	var buf bytes.Buffer
	src := fakeSource{ssrc: 0xdeadbeef, packets: 42, octets: 4096, rtpTimestamp: 48000}
	s := NewSender(&buf, src)
	if err := s.sendOnce(time.Now()); err != nil {
		t.Fatalf("sendOnce: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected compound packet bytes to be written")
	}

	packets, err := rtcp.Unmarshal(buf.Bytes())
	if err != nil {
		t.Fatalf("rtcp.Unmarshal: %v", err)
	}
	if len(packets) != 2 {
		t.Fatalf("len(packets) = %d, want 2 (SR + SDES)", len(packets))
	}
	sr, ok := packets[0].(*rtcp.SenderReport)
	if !ok {
		t.Fatalf("packets[0] = %T, want *rtcp.SenderReport", packets[0])
	}
	if sr.SSRC != src.ssrc {
		t.Fatalf("SSRC = %#x, want %#x", sr.SSRC, src.ssrc)
	}
	if sr.PacketCount != src.packets {
		t.Fatalf("PacketCount = %d, want %d", sr.PacketCount, src.packets)
	}
	if _, ok := packets[1].(*rtcp.SourceDescription); !ok {
		t.Fatalf("packets[1] = %T, want *rtcp.SourceDescription", packets[1])
	}
}

func TestToNTPMonotonicAcrossSeconds(t *testing.T) {
	t0 := time.Unix(1700000000, 0)
	t1 := t0.Add(500 * time.Millisecond)
	if toNTP(t1) <= toNTP(t0) {
		t.Fatal("toNTP should increase with time")
	}
}
