// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package doppler reads the stdout of an external tracking command and
// steers a Doppler oscillator to match, mirroring
// original_source/doppler.c: the tracking algorithm itself (orbit
// propagation, antenna pointing) lives entirely in the child process,
// radiod only consumes its output.
package doppler

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/n5tnl/radiod/internal/logging"
	"github.com/n5tnl/radiod/internal/osc"
)

// SpeedOfLight is c in meters/second, used to convert range rate into a
// Doppler frequency shift.
const SpeedOfLight = 299792458

// FreqFunc returns the receiver's current tuned frequency, needed to
// scale a range rate into a Doppler shift in Hz.
type FreqFunc func() float64

// Tracker execs Command once, feeds its stdout lines to the Doppler
// oscillator, and respawns the command if it exits, matching doppler.c's
// outer popen-retry loop.
type Tracker struct {
	Command string
	Osc     *osc.Oscillator
	Freq    FreqFunc
	Logger  logging.Logger
}

// Run execs t.Command repeatedly until ctx is done. If Command is empty,
// Run returns nil immediately: no doppler command means no tracking,
// matching doppler.c's "demod->doppler_command == NULL" early return.
func (t *Tracker) Run(ctx context.Context) error {
	if t.Command == "" {
		return nil
	}
	t.Osc.Set(0, 0)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.runOnce(ctx); err != nil {
			t.logf("doppler: %v", err)
		}
		t.Osc.Set(0, 0)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func (t *Tracker) runOnce(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", t.Command)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer cmd.Wait()

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		t.applyLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("read: %w", err)
	}
	return nil
}

// applyLine parses one line of "t az azrate el elrate range rangerate
// rangeraterate" and, once its timestamp has arrived, updates the
// oscillator. Lines that don't parse to exactly 8 fields are ignored,
// matching doppler.c's sscanf field-count check.
func (t *Tracker) applyLine(line string) {
	fields := strings.Fields(line)
	if len(fields) != 8 {
		return
	}
	values := make([]float64, 8)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return
		}
		values[i] = v
	}
	eventTime := values[0]
	rangeRate := values[6]
	rangeRateRate := values[7]

	now := float64(time.Now().UnixNano()) / 1e9
	if eventTime < now {
		return
	}
	if wait := eventTime - now; wait > 0 {
		time.Sleep(time.Duration(wait * float64(time.Second)))
	}

	freq := t.Freq()
	t.Osc.Set(freq*-rangeRate/SpeedOfLight, freq*-rangeRateRate/SpeedOfLight)
}

func (t *Tracker) logf(format string, args ...any) {
	if t.Logger != nil {
		t.Logger.Printf(format, args...)
	}
}
