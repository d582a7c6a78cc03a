// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package status implements the receiver's periodic status broadcast and
// its inbound command listener, built on top of internal/tlv. The
// publisher mirrors original_source/radio_status.c's send_status thread:
// a fixed-rate ticker, a per-type change cache so most packets carry only
// what changed, and a full dump every tenth tick. The listener mirrors
// decode_sdr_status/decode_status's per-record switch, but expressed as a
// caller-supplied handler table so it is not tied to any one demodulator.
package status

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/n5tnl/radiod/internal/tlv"
)

// FullDumpInterval is how many ticks elapse between forced full dumps.
const FullDumpInterval = 10

// ResponseByte and CommandByte are the leading command/response byte
// values used by the wire protocol (0 means "this is a status response",
// 1 means "this is a command").
const (
	ResponseByte = 0
	CommandByte  = 1
)

// Snapshotter produces the set of TLV records describing the receiver's
// current state. Implementations typically hold a reference to a
// receiver's Config/State and translate it into records on each call.
type Snapshotter interface {
	Snapshot() []tlv.Record
}

// SnapshotFunc adapts a plain function to a Snapshotter.
type SnapshotFunc func() []tlv.Record

// Snapshot calls f.
func (f SnapshotFunc) Snapshot() []tlv.Record { return f() }

// Publisher periodically writes a status packet to w.
type Publisher struct {
	w      io.Writer
	src    Snapshotter
	period time.Duration
	cache  *tlv.Cache
	count  int
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithPeriod overrides the default 100ms tick period.
func WithPeriod(d time.Duration) PublisherOption {
	return func(p *Publisher) { p.period = d }
}

// NewPublisher creates a Publisher that writes status packets built from
// src's snapshots to w.
func NewPublisher(w io.Writer, src Snapshotter, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		w:      w,
		src:    src,
		period: 100 * time.Millisecond,
		cache:  tlv.NewCache(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run ticks until ctx is done, writing one status packet per tick. Every
// FullDumpInterval-th packet is a forced full dump; the rest carry only
// changed fields.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.publishOnce(); err != nil {
				return err
			}
		}
	}
}

func (p *Publisher) publishOnce() error {
	records := p.src.Snapshot()
	force := p.count%FullDumpInterval == 0
	p.count++
	pkt := p.cache.Compact(ResponseByte, records, force)
	if _, err := p.w.Write(pkt); err != nil {
		return fmt.Errorf("status: publish: %w", err)
	}
	return nil
}

// Handler applies one decoded record to receiver state. It returns an
// error only to report a malformed value; an unrecognized Type is simply
// not dispatched to any handler and is not an error.
type Handler func(r tlv.Record) error

// Listener decodes inbound command packets and dispatches each record to
// a registered Handler, skipping unrecognized types and isolating
// per-record errors so one bad field cannot abort the rest of the packet.
type Listener struct {
	handlers map[tlv.Type]Handler
	onError  func(tlv.Type, error)
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithErrorHook installs a callback invoked whenever a Handler returns an
// error for a record; the record is still skipped. Primarily for logging.
func WithErrorHook(f func(tlv.Type, error)) ListenerOption {
	return func(l *Listener) { l.onError = f }
}

// NewListener creates a Listener with no registered handlers.
func NewListener(opts ...ListenerOption) *Listener {
	l := &Listener{handlers: make(map[tlv.Type]Handler)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Handle registers h to run for every decoded record of type t,
// overwriting any previously registered handler for t.
func (l *Listener) Handle(t tlv.Type, h Handler) {
	l.handlers[t] = h
}

// Apply decodes buf as a command-response packet and dispatches its
// records. If buf's leading byte is ResponseByte rather than CommandByte
// it is ignored, matching recv_sdr_status's "ignore responses" rule
// inverted for the command-receiving side (radiod only acts on commands).
func (l *Listener) Apply(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if buf[0] != CommandByte {
		return nil
	}
	records, err := tlv.Decode(buf[1:])
	if err != nil {
		return fmt.Errorf("status: decode: %w", err)
	}
	for _, r := range records {
		h, ok := l.handlers[r.Type]
		if !ok {
			continue
		}
		if err := h(r); err != nil && l.onError != nil {
			l.onError(r.Type, err)
		}
	}
	return nil
}

// Run reads command packets from r using read until ctx is done or read
// returns a non-nil error. read is typically a net.PacketConn.ReadFrom
// wrapper sized to the maximum UDP datagram the caller expects.
func (l *Listener) Run(ctx context.Context, read func([]byte) (int, error), bufSize int) error {
	buf := make([]byte, bufSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := read(buf)
		if err != nil {
			return fmt.Errorf("status: read: %w", err)
		}
		if err := l.Apply(buf[:n]); err != nil && l.onError != nil {
			l.onError(0, err)
		}
	}
}
