// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/n5tnl/radiod/internal/config"
	"github.com/n5tnl/radiod/internal/modetab"
	"github.com/n5tnl/radiod/internal/receiver"
)

// StatePath is the conventional location of radiod's persistent state
// file (spec.md §6); a missing file is not an error, matching
// original_source/main.c's first-run behavior.
const StatePath = "/var/lib/radiod/state"

// ModesPath, if present, overrides the built-in mode table (modetab.Default).
const ModesPath = "/etc/radiod/modes"

func radiod() error {
	cfg := config.Default()

	if err := config.LoadStatePath(&cfg, StatePath); err != nil {
		return fmt.Errorf("radiod: %w", err)
	}
	if err := config.ParseFlags(&cfg, os.Args[1:]); err != nil {
		return err
	}

	modes := modetab.NewDefaultTable()
	if f, err := os.Open(ModesPath); err == nil {
		entries, perr := modetab.ParseFile(f)
		f.Close()
		if perr != nil {
			return fmt.Errorf("radiod: mode table: %w", perr)
		}
		modes = modetab.NewTable(entries)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		v, ok := <-sig
		if ok {
			log.Printf("signal; got %v", v)
			cancel()
		}
	}()

	logger := log.New(os.Stderr, "radiod: ", log.LstdFlags)

	r, err := receiver.New(ctx, cfg, modes, logger)
	if err != nil {
		return fmt.Errorf("radiod: %w", err)
	}
	defer r.Close()

	logger.Printf("listening on %s, tuned to %.0f Hz, mode %s", cfg.InputGroup, cfg.Frequency, cfg.Mode)

	err = r.Run(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		logger.Println("clean exit")
		return nil
	default:
		return fmt.Errorf("radiod: %w", err)
	}
}

func main() {
	if err := radiod(); err != nil {
		log.Fatal(err)
	}
}
