// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/n5tnl/radiod/internal/config"
	"github.com/n5tnl/radiod/internal/mcast"
	"github.com/n5tnl/radiod/internal/status"
	"github.com/n5tnl/radiod/internal/tlv"
)

// typeNames gives a human-readable label for the record types radioctl
// knows how to print; any type without an entry is printed numerically.
var typeNames = map[tlv.Type]string{
	tlv.GPSTime:            "GPSTime",
	tlv.InputSSRC:          "InputSSRC",
	tlv.InputSampleRate:    "InputSampleRate",
	tlv.InputPackets:       "InputPackets",
	tlv.InputDrops:         "InputDrops",
	tlv.InputDupes:         "InputDupes",
	tlv.OutputSSRC:         "OutputSSRC",
	tlv.OutputPackets:      "OutputPackets",
	tlv.RadioFrequency:     "RadioFrequency",
	tlv.SecondLOFrequency:  "SecondLOFrequency",
	tlv.LNAGain:            "LNAGain",
	tlv.MixerGain:          "MixerGain",
	tlv.IFGain:             "IFGain",
	tlv.LowEdge:            "LowEdge",
	tlv.HighEdge:           "HighEdge",
	tlv.KaiserBeta:         "KaiserBeta",
	tlv.FilterBlocksize:    "FilterBlocksize",
	tlv.FilterFIRLength:    "FilterFIRLength",
	tlv.BasebandPower:      "BasebandPower",
	tlv.NoiseDensity:       "NoiseDensity",
	tlv.RadioMode:          "RadioMode",
	tlv.DemodSNR:           "DemodSNR",
	tlv.DemodGain:          "DemodGain",
	tlv.FreqOffset:         "FreqOffset",
	tlv.PeakDeviation:      "PeakDeviation",
	tlv.PLTone:             "PLTone",
	tlv.PLLLock:            "PLLLock",
	tlv.PLLPhase:           "PLLPhase",
	tlv.IndependentSideband: "IndependentSideband",
	tlv.PLLSquare:           "PLLSquare",
	tlv.OutputChannels:      "OutputChannels",
	tlv.PLLEnable:           "PLLEnable",
	tlv.FlatAudio:           "FlatAudio",
}

func radioctl() error {
	cfg := config.Default()

	flags := flag.NewFlagSet("radioctl", flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), strings.TrimSpace(`
Usage: radioctl [FLAGS]

radioctl sends one command to a running radiod's status/command
multicast group and prints the next status packet it receives in
response. With no command flags set, it only listens and prints.

Flags:
`))
		flags.PrintDefaults()
	}

	statusOpt := flags.String("status", cfg.StatusGroup, "Status/command multicast group:port")
	freqOpt := flags.String("freq", "", "Set the radio frequency in Hz (accepts a k/K/m/M/g/G suffix)")
	modeOpt := flags.String("mode", "", "Set the demodulator mode by name")
	lnaOpt := flags.Int("lna", -1, "Set LNA gain, 0-255 (omit to leave unchanged)")
	mixerOpt := flags.Int("mixer", -1, "Set mixer gain, 0-255 (omit to leave unchanged)")
	ifOpt := flags.Int("if", -1, "Set IF gain, 0-255 (omit to leave unchanged)")
	timeoutOpt := flags.Duration("timeout", 2*time.Second, "How long to wait for a response packet")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	enc := tlv.NewEncoder()
	haveCommand := false
	if *freqOpt != "" {
		freq, err := config.ParseFrequency(*freqOpt)
		if err != nil {
			return fmt.Errorf("radioctl: -freq: %w", err)
		}
		enc.Double(tlv.RadioFrequency, freq)
		haveCommand = true
	}
	if *modeOpt != "" {
		enc.String(tlv.DemodMode, *modeOpt)
		haveCommand = true
	}
	if *lnaOpt >= 0 {
		enc.Byte(tlv.LNAGain, byte(*lnaOpt))
		haveCommand = true
	}
	if *mixerOpt >= 0 {
		enc.Byte(tlv.MixerGain, byte(*mixerOpt))
		haveCommand = true
	}
	if *ifOpt >= 0 {
		enc.Byte(tlv.IFGain, byte(*ifOpt))
		haveCommand = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutOpt)
	defer cancel()

	listenConn, err := mcast.ListenInput(ctx, *statusOpt, nil)
	if err != nil {
		return fmt.Errorf("radioctl: %w", err)
	}
	defer listenConn.Close()

	if haveCommand {
		enc.End()
		sendConn, err := mcast.DialOutput(*statusOpt, 1)
		if err != nil {
			return fmt.Errorf("radioctl: %w", err)
		}
		pkt := append([]byte{status.CommandByte}, enc.Bytes()...)
		if _, err := sendConn.Write(pkt); err != nil {
			sendConn.Close()
			return fmt.Errorf("radioctl: send command: %w", err)
		}
		sendConn.Close()
	}

	if err := listenConn.SetReadDeadline(time.Now().Add(*timeoutOpt)); err != nil {
		return fmt.Errorf("radioctl: %w", err)
	}
	buf := make([]byte, 4096)
	var pkt []byte
	for {
		n, _, err := listenConn.ReadFromUDP(buf)
		if err != nil {
			return fmt.Errorf("radioctl: no response: %w", err)
		}
		// Skip command packets on the same group, including our own.
		if n > 0 && buf[0] == status.ResponseByte {
			pkt = buf[:n]
			break
		}
	}
	records, err := tlv.Decode(pkt[1:])
	if err != nil {
		return fmt.Errorf("radioctl: decode response: %w", err)
	}

	for _, r := range records {
		printRecord(r)
	}
	return nil
}

// printRecord prints one decoded record. Without knowing a field's exact
// semantics there is no single right interpretation of its bytes, so
// fields with a registered name print an empty value as "(present)", a
// one-byte value as an integer, and a longer value as its raw bytes plus
// both an integer and a double; unregistered types print their raw value
// length only.
func printRecord(r tlv.Record) {
	name, ok := typeNames[r.Type]
	if !ok {
		fmt.Printf("type %-3d (%d bytes)\n", r.Type, len(r.Value))
		return
	}
	switch len(r.Value) {
	case 0:
		fmt.Printf("%-20s (present)\n", name)
	case 1:
		fmt.Printf("%-20s %d\n", name, r.Value[0])
	default:
		fmt.Printf("%-20s %v (uint=%d, float=%g)\n", name, r.Value, r.Uint(), r.Float64())
	}
}

func main() {
	if err := radioctl(); err != nil {
		log.Fatal(err)
	}
}
