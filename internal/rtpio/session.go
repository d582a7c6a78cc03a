// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rtpio

import "sync"

// SeqOutcome classifies an incoming sequence number against a
// SessionState's expectation, mirroring original_source/multicast.c's
// rtp_process().
type SeqOutcome int

const (
	// SeqForward is a non-negative forward step of magnitude <= 10.
	SeqForward SeqOutcome = iota
	// SeqDuplicate is a small reverse step (magnitude <= 10): a resent
	// or reordered duplicate, dropped.
	SeqDuplicate
	// SeqReset is a jump of magnitude > 10 in either direction: a new
	// source, the session state is reinitialized.
	SeqReset
)

// maxSmallJump is the largest forward or reverse sequence delta treated
// as an ordinary network reorder/duplicate rather than a new source.
const maxSmallJump = 10

// SessionState tracks one RTP receive session's sequence number,
// timestamp, and packet/byte/drop/duplicate counters. It is one of the
// four cross-thread-shared resources named in the concurrency model and
// is guarded by its own mutex.
type SessionState struct {
	mu sync.Mutex

	initialized bool
	ssrc        uint32
	lastSeq     uint16
	lastTS      uint32

	Packets uint64
	Bytes   uint64
	Drops   uint64
	Dupes   uint64
}

// NewSessionState creates an uninitialized SessionState.
func NewSessionState() *SessionState {
	return &SessionState{}
}

// Observe classifies an incoming (ssrc, seq) pair and updates the
// session's bookkeeping accordingly. On the first packet ever seen, or
// on an SSRC change, the session is (re)initialized and SeqForward is
// returned with a reported gap of zero; a sequence jump larger than
// maxSmallJump also reinitializes it but returns SeqReset.
//
// gap is the number of packets between the last accepted sequence
// number and seq, i.e. the number of forward steps taken (1 for the
// ordinary next-packet case); it is meaningful only when outcome is
// SeqForward.
func (s *SessionState) Observe(ssrc uint32, seq uint16, payloadLen int) (outcome SeqOutcome, gap int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized || ssrc != s.ssrc {
		s.initialized = true
		s.ssrc = ssrc
		s.lastSeq = seq
		s.Packets++
		s.Bytes += uint64(payloadLen)
		return SeqForward, 0
	}

	delta := int16(seq - s.lastSeq)
	switch {
	case delta > 0 && int(delta) <= maxSmallJump:
		s.lastSeq = seq
		s.Packets++
		s.Bytes += uint64(payloadLen)
		s.Drops += uint64(delta - 1)
		return SeqForward, int(delta)
	case delta <= 0 && int(-delta) <= maxSmallJump:
		s.Dupes++
		return SeqDuplicate, 0
	default:
		s.initialized = true
		s.ssrc = ssrc
		s.lastSeq = seq
		s.Packets++
		s.Bytes += uint64(payloadLen)
		return SeqReset, 0
	}
}

// ExpectedSeq returns one more than the last accepted sequence number,
// modulo 2^16, the invariant spec.md §8 requires after the first packet.
func (s *SessionState) ExpectedSeq() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeq + 1
}

// LastTimestamp returns the RTP timestamp of the last accepted packet
// and whether the session has seen any packet yet.
func (s *SessionState) LastTimestamp() (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTS, s.initialized
}

// SetLastTimestamp records the RTP timestamp of the most recently
// accepted packet. It does not check the ordering itself; callers use
// TimestampGap below to keep timestamps from moving backward.
func (s *SessionState) SetLastTimestamp(ts uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTS = ts
}

// TimestampGap returns ts - lastTS interpreted as a signed 32-bit delta,
// i.e. the number of samples by which ts is ahead of the last recorded
// timestamp. It does not mutate state.
func (s *SessionState) TimestampGap(ts uint32) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int32(ts - s.lastTS)
}

// Stats is a point-in-time snapshot of the session counters, used by the
// status publisher.
type Stats struct {
	Packets uint64
	Bytes   uint64
	Drops   uint64
	Dupes   uint64
}

// Snapshot returns the current counters.
func (s *SessionState) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Packets: s.Packets, Bytes: s.Bytes, Drops: s.Drops, Dupes: s.Dupes}
}
