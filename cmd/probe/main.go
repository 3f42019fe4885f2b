// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command probe reads an HTU21D directly and prints the values, without
// touching the hub. Useful for checking wiring.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/climate_agent/internal/app"
	"github.com/relabs-tech/climate_agent/internal/measure"
	"github.com/relabs-tech/climate_agent/internal/sensors/htu21d"
)

func main() {
	bus := flag.String("bus", "", "I2C bus name (empty opens the first bus)")
	addr := flag.Uint("addr", uint(htu21d.DefaultAddress), "device address")
	unit := flag.String("unit", "fahrenheit", "temperature unit: celsius or fahrenheit")
	interval := flag.Duration("interval", 5*time.Second, "time between reads")
	count := flag.Int("n", 0, "number of reads (0 = until interrupted)")
	simulate := flag.Bool("sim", false, "read a simulated device instead of the bus")
	flag.Parse()

	u, err := measure.ParseTemperatureUnit(*unit)
	if err != nil {
		log.Fatalf("invalid -unit: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := app.ProbeOptions{
		Bus:      *bus,
		Address:  uint16(*addr),
		Unit:     u,
		Interval: *interval,
		Count:    *count,
		Simulate: *simulate,
	}
	if err := app.RunProbe(ctx, opts, os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
