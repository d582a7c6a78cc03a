// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package doppler

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/n5tnl/radiod/internal/osc"
)

func TestApplyLineIgnoresMalformedFieldCount(t *testing.T) {
	o := osc.New()
	tr := &Tracker{Osc: o, Freq: func() float64 { return 14250000 }}
	tr.applyLine("1 2 3")
	if f, r := o.Freq(), o.Rate(); f != 0 || r != 0 {
		t.Fatalf("oscillator changed on malformed line: freq=%v rate=%v", f, r)
	}
}

func TestApplyLineSkipsPastEvents(t *testing.T) {
	o := osc.New()
	tr := &Tracker{Osc: o, Freq: func() float64 { return 14250000 }}
	past := float64(time.Now().Add(-time.Hour).UnixNano()) / 1e9
	tr.applyLine(mkLine(past, 1000, 10))
	if f := o.Freq(); f != 0 {
		t.Fatalf("frequency = %v, want 0 for a past-dated event", f)
	}
}

func TestApplyLineSetsDopplerFromRangeRate(t *testing.T) {
	o := osc.New()
	freq := 14250000.0
	tr := &Tracker{Osc: o, Freq: func() float64 { return freq }}
	// applyLine skips events already in the past, so stamp this one
	// slightly in the future; applyLine waits for it to arrive.
	when := float64(time.Now().Add(50*time.Millisecond).UnixNano()) / 1e9
	rangeRate := 1000.0
	tr.applyLine(mkLine(when, rangeRate, 0))

	want := freq * -rangeRate / SpeedOfLight
	if got := o.Freq(); got != want {
		t.Fatalf("Frequency() = %v, want %v", got, want)
	}
}

func TestRunReturnsImmediatelyWithNoCommand(t *testing.T) {
	tr := &Tracker{Osc: osc.New(), Freq: func() float64 { return 0 }}
	if err := tr.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

// mkLine builds a "t az azrate el elrate range rangerate rangeraterate"
// line with only the fields the tests care about set to nonzero values.
func mkLine(eventTime, rangeRate, rangeRateRate float64) string {
	fields := []float64{eventTime, 0, 0, 0, 0, 0, rangeRate, rangeRateRate}
	parts := make([]string, len(fields))
	for i, v := range fields {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, " ")
}
