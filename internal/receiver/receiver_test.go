// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package receiver

import (
	"context"
	"testing"
	"time"

	"github.com/n5tnl/radiod/internal/config"
	"github.com/n5tnl/radiod/internal/filter"
	"github.com/n5tnl/radiod/internal/frontend"
	"github.com/n5tnl/radiod/internal/logging"
	"github.com/n5tnl/radiod/internal/modetab"
	"github.com/n5tnl/radiod/internal/rtpio"
	"github.com/n5tnl/radiod/internal/tlv"
)

// newTestReceiver builds a Receiver with its socket fields left nil: it
// exercises SetDemodulator's cancel/wake/join/replace sequence without
// needing real multicast sockets, since that sequence never touches the
// network.
func newTestReceiver(t *testing.T) *Receiver {
	t.Helper()
	cfg := config.Default()
	cfg.Blocksize = 960
	cfg.ImpulseLen = 960
	return &Receiver{
		cfg:     cfg,
		modes:   modetab.NewDefaultTable(),
		logger:  logging.Discard,
		session: rtpio.NewSessionState(),
		corr:    correctionPtr(frontend.NewCorrection()),
		feState: &frontend.Status{
			TunerFreqHz: cfg.Frequency,
			SampleRate:  DefaultSampleRate,
		},
		master: filter.NewMaster(cfg.Blocksize, cfg.ImpulseLen, filter.TypeComplex),
	}
}

func TestSetDemodulatorRejectsUnknownMode(t *testing.T) {
	r := newTestReceiver(t)
	if err := r.SetDemodulator(context.Background(), "not-a-mode"); err == nil {
		t.Fatal("expected an error for an unknown mode name")
	}
}

func TestSetDemodulatorStartsAndReplacesTheRunningDemodulator(t *testing.T) {
	r := newTestReceiver(t)
	ctx := context.Background()

	if err := r.SetDemodulator(ctx, "usb"); err != nil {
		t.Fatalf("SetDemodulator(usb): %v", err)
	}
	r.demodMu.Lock()
	if r.currentMode != "usb" {
		t.Fatalf("currentMode = %q, want usb", r.currentMode)
	}
	firstDone := r.demodDone
	r.demodMu.Unlock()

	if err := r.SetDemodulator(ctx, "am"); err != nil {
		t.Fatalf("SetDemodulator(am): %v", err)
	}

	select {
	case <-firstDone:
	default:
		t.Fatal("replacing the demodulator must join the previous goroutine before returning")
	}

	r.demodMu.Lock()
	if r.currentMode != "am" {
		t.Fatalf("currentMode = %q, want am", r.currentMode)
	}
	r.demodMu.Unlock()

	// Clean up the last running demodulator goroutine.
	r.demodMu.Lock()
	cancel := r.demodCancel
	done := r.demodDone
	r.demodMu.Unlock()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("demodulator goroutine did not exit after cancellation")
	}
}

func TestSnapshotReflectsCurrentModeAndSessionStats(t *testing.T) {
	r := newTestReceiver(t)
	ctx := context.Background()
	if err := r.SetDemodulator(ctx, "fm"); err != nil {
		t.Fatalf("SetDemodulator(fm): %v", err)
	}
	defer func() {
		r.demodMu.Lock()
		cancel := r.demodCancel
		r.demodMu.Unlock()
		cancel()
	}()

	records := r.snapshot()
	if len(records) == 0 {
		t.Fatal("snapshot returned no records")
	}
	var gotMode string
	sawPackets := false
	for _, rec := range records {
		switch rec.Type {
		case tlv.RadioMode:
			gotMode = rec.String()
		case tlv.InputPackets:
			sawPackets = true
			if got := rec.Uint(); got != 0 {
				t.Fatalf("InputPackets = %d, want 0", got)
			}
		}
	}
	if gotMode != "fm" {
		t.Fatalf("RadioMode = %q, want fm", gotMode)
	}
	if !sawPackets {
		t.Fatal("snapshot has no InputPackets record")
	}
}
