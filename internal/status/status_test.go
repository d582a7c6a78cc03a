// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package status

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/n5tnl/radiod/internal/tlv"
)

func TestPublisherForcesFullDumpOnTenthTick(t *testing.T) {
	var buf bytes.Buffer
	snap := SnapshotFunc(func() []tlv.Record {
		e := tlv.NewEncoder()
		e.Int(tlv.InputSSRC, 1)
		e.End()
		records, _ := tlv.Decode(e.Bytes())
		return records
	})
	p := NewPublisher(&buf, snap)

	for i := 0; i < 9; i++ {
		if err := p.publishOnce(); err != nil {
			t.Fatalf("publishOnce: %v", err)
		}
	}
	buf.Reset()
	// The force check uses count%10==0 before incrementing, and count
	// starts at 0, so the 10th call runs with count==9 and is not forced:
	// the unchanged record is omitted, leaving the lead byte and EOL.
	if err := p.publishOnce(); err != nil {
		t.Fatalf("publishOnce: %v", err)
	}
	if buf.Len() != 2 {
		t.Fatalf("10th packet is %d bytes, want 2 (lead byte + EOL)", buf.Len())
	}
	buf.Reset()
	// The 11th call lands on count==10, which is a forced full dump.
	if err := p.publishOnce(); err != nil {
		t.Fatalf("publishOnce: %v", err)
	}
	if buf.Len() <= 2 {
		t.Fatalf("11th packet is %d bytes, want the unchanged record resent", buf.Len())
	}
}

func TestPublisherRunRespectsContextCancellation(t *testing.T) {
	var buf bytes.Buffer
	snap := SnapshotFunc(func() []tlv.Record { return nil })
	p := NewPublisher(&buf, snap, WithPeriod(time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run returned %v, want context.DeadlineExceeded", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected at least one tick to have published")
	}
}

func TestListenerIgnoresResponsePackets(t *testing.T) {
	l := NewListener()
	called := false
	l.Handle(tlv.InputSSRC, func(r tlv.Record) error {
		called = true
		return nil
	})

	e := tlv.NewEncoder()
	e.Int(tlv.InputSSRC, 7)
	e.End()
	pkt := append([]byte{ResponseByte}, e.Bytes()...)

	if err := l.Apply(pkt); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if called {
		t.Fatal("handler should not run for a response-tagged packet")
	}
}

func TestListenerDispatchesRegisteredTypesOnly(t *testing.T) {
	l := NewListener()
	var got uint64
	l.Handle(tlv.RadioFrequency, func(r tlv.Record) error {
		got = r.Uint()
		return nil
	})

	e := tlv.NewEncoder()
	e.Int(tlv.RadioFrequency, 14250000)
	e.Int(tlv.InputSSRC, 99) // unregistered, must be silently skipped
	e.End()
	pkt := append([]byte{CommandByte}, e.Bytes()...)

	if err := l.Apply(pkt); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got != 14250000 {
		t.Fatalf("got = %d, want 14250000", got)
	}
}

func TestListenerIsolatesPerRecordErrors(t *testing.T) {
	l := NewListener()
	var errType tlv.Type
	l.onError = func(typ tlv.Type, err error) { errType = typ }

	secondRan := false
	l.Handle(tlv.LowEdge, func(r tlv.Record) error {
		return errors.New("boom")
	})
	l.Handle(tlv.HighEdge, func(r tlv.Record) error {
		secondRan = true
		return nil
	})

	e := tlv.NewEncoder()
	e.Float(tlv.LowEdge, 100.0)
	e.Float(tlv.HighEdge, 3000.0)
	e.End()
	pkt := append([]byte{CommandByte}, e.Bytes()...)

	if err := l.Apply(pkt); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !secondRan {
		t.Fatal("a failing handler for one record must not block later records")
	}
	if errType != tlv.LowEdge {
		t.Fatalf("onError hook saw type %v, want LowEdge", errType)
	}
}
