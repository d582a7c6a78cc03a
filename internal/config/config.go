// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config builds the frozen receiver Config from three layered
// sources, in precedence order: built-in defaults, an optional persistent
// key/value state file, then CLI flags. Flag parsing follows
// cmd/rspudp/main.go's style (flag.NewFlagSet, per-flag help text blocks,
// a Usage func); frequency-with-suffix parsing follows
// helpers/parse/frequency.go's ParseFrequency.
package config

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Config is the set of parameters a Receiver is built from. It is not
// changed after loading, except that a Receiver updates KaiserBeta in its
// own copy on a Kaiser-β command; other runtime-variable state lives in
// the packages that own it (frontend.Status, receiver.Receiver, etc).
type Config struct {
	InputGroup  string // multicast group:port for the I/Q input stream
	OutputGroup string // multicast group:port for the PCM output stream
	StatusGroup string // multicast group:port for the status/command channel
	TTL         int

	Frequency  float64 // initial center frequency, Hz
	Mode       string  // initial mode table entry name
	Shift      float64 // post-detection frequency shift override, Hz
	FilterLow  float64
	FilterHigh float64
	KaiserBeta float64
	Blocksize  int
	ImpulseLen int
	TuneStep   float64

	Source  string // optional bind-to-source-address restriction
	Output  string
	Locale  string

	DopplerCommand string
	OutputSSRC     uint32
	UpdateInterval float64 // seconds between status ticks
}

// Default returns a Config populated with the program's built-in
// defaults, before any state file or CLI flags are applied.
func Default() Config {
	return Config{
		InputGroup:     "239.1.2.3:5004",
		OutputGroup:    "239.1.2.4:5004",
		StatusGroup:    "239.1.2.3:5005",
		TTL:            1,
		Frequency:      14074000,
		Mode:           "usb",
		FilterLow:      50,
		FilterHigh:     3000,
		KaiserBeta:     3.0,
		Blocksize:      960,
		ImpulseLen:     960,
		TuneStep:       10,
		UpdateInterval: 0.1,
	}
}

// stateKeys maps the persistent state file's "Key value" line names
// (spec.md §6) onto setter functions, mirroring original_source/main.c's
// fscanf-driven option table.
var stateKeys = map[string]func(*Config, string) error{
	"Frequency": func(c *Config, v string) error { return setFloat(&c.Frequency, v) },
	"Mode":      func(c *Config, v string) error { c.Mode = v; return nil },
	"Shift":     func(c *Config, v string) error { return setFloat(&c.Shift, v) },
	"Filter low":   func(c *Config, v string) error { return setFloat(&c.FilterLow, v) },
	"Filter high":  func(c *Config, v string) error { return setFloat(&c.FilterHigh, v) },
	"Kaiser Beta":  func(c *Config, v string) error { return setFloat(&c.KaiserBeta, v) },
	"Blocksize":    func(c *Config, v string) error { return setInt(&c.Blocksize, v) },
	"Impulse len":  func(c *Config, v string) error { return setInt(&c.ImpulseLen, v) },
	"Tunestep":     func(c *Config, v string) error { return setFloat(&c.TuneStep, v) },
	"Source":       func(c *Config, v string) error { c.Source = v; return nil },
	"Output":       func(c *Config, v string) error { c.Output = v; return nil },
	"TTL":          func(c *Config, v string) error { return setInt(&c.TTL, v) },
	"Locale":       func(c *Config, v string) error { c.Locale = v; return nil },
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

// LoadStateFile reads a persistent state file (one "Key value" pair per
// line, blank lines and "#"-led comments ignored) and applies it onto c.
// Unrecognized keys are ignored rather than treated as a fatal error,
// since the file format is meant to be forward-compatible.
func LoadStateFile(c *Config, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		setter, ok := stateKeys[key]
		if !ok {
			continue
		}
		if err := setter(c, value); err != nil {
			return fmt.Errorf("config: state file line %d (%q): %w", lineNum, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("config: reading state file: %w", err)
	}
	return nil
}

// splitKeyValue recognizes the two-word keys ("Filter low", "Kaiser
// Beta", "Impulse len") as well as single-word ones, matching the key
// list named in spec.md §6.
func splitKeyValue(line string) (key, value string, ok bool) {
	for k := range stateKeys {
		if strings.HasPrefix(line, k+" ") {
			return k, strings.TrimSpace(line[len(k):]), true
		}
	}
	return "", "", false
}

// LoadStatePath opens path and calls LoadStateFile; a missing file is not
// an error, since the state file is optional.
func LoadStatePath(c *Config, path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return LoadStateFile(c, f)
}

// ParseFrequency parses a frequency argument with an optional k/K/m/M/g/G
// suffix, matching helpers/parse/frequency.go's ParseFrequency exactly.
func ParseFrequency(arg string) (float64, error) {
	var mult float64 = 1
	arg = strings.ToLower(arg)
	switch {
	case arg == "":
	case strings.HasSuffix(arg, "k"):
		mult = 1000
		arg = strings.TrimSuffix(arg, "k")
	case strings.HasSuffix(arg, "m"):
		mult = 1000 * 1000
		arg = strings.TrimSuffix(arg, "m")
	case strings.HasSuffix(arg, "g"):
		mult = 1000 * 1000 * 1000
		arg = strings.TrimSuffix(arg, "g")
	}
	freq, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, err
	}
	return freq * mult, nil
}

// ParseFlags parses CLI flags following cmd/rspudp/main.go's FlagSet
// style and applies any that were set onto c, overriding both defaults
// and the state file per the documented precedence order.
func ParseFlags(c *Config, args []string) error {
	flags := flag.NewFlagSet("radiod", flag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), strings.TrimSpace(`
Usage: radiod [FLAGS]

radiod receives a multicast RTP I/Q stream, demodulates it per a
configurable mode and frequency, and sends the result to a multicast PCM
output stream.

Flags:
`))
		flags.PrintDefaults()
	}

	inputOpt := flags.String("input", c.InputGroup, "Input multicast group:port carrying the I/Q stream")
	outputOpt := flags.String("output", c.OutputGroup, "Output multicast group:port for the demodulated PCM stream")
	statusOpt := flags.String("status", c.StatusGroup, "Status/command multicast group:port")
	ttlOpt := flags.Int("ttl", c.TTL, "Multicast TTL for transmitted packets")
	freqOpt := flags.String("freq", "", strings.TrimSpace(`
Center frequency in Hz. Accepts a k/K/m/M/g/G suffix (e.g. 14.074M).`))
	modeOpt := flags.String("mode", c.Mode, "Initial mode table entry name (usb, lsb, am, fm, ...)")
	blocksizeOpt := flags.Int("blocksize", c.Blocksize, "Filter block size, in samples")
	implenOpt := flags.Int("implen", c.ImpulseLen, "Filter impulse response length, in samples")
	betaOpt := flags.Float64("beta", c.KaiserBeta, "Kaiser window beta parameter")
	dopplerOpt := flags.String("doppler", c.DopplerCommand, "Doppler tracking child command line")
	ssrcOpt := flags.Uint("ssrc", uint(c.OutputSSRC), "Output RTP SSRC (0 picks one at random)")
	intervalOpt := flags.Float64("interval", c.UpdateInterval, "Status update interval, in seconds")

	if err := flags.Parse(args); err != nil {
		return err
	}

	c.InputGroup = *inputOpt
	c.OutputGroup = *outputOpt
	c.StatusGroup = *statusOpt
	c.TTL = *ttlOpt
	c.Mode = *modeOpt
	c.Blocksize = *blocksizeOpt
	c.ImpulseLen = *implenOpt
	c.KaiserBeta = *betaOpt
	c.DopplerCommand = *dopplerOpt
	c.OutputSSRC = uint32(*ssrcOpt)
	c.UpdateInterval = *intervalOpt

	if *freqOpt != "" {
		freq, err := ParseFrequency(*freqOpt)
		if err != nil {
			return fmt.Errorf("config: -freq: %w", err)
		}
		c.Frequency = freq
	}

	return nil
}
