// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/climate_agent/internal/measure"
	"github.com/relabs-tech/climate_agent/internal/sensors/htu21d"
	"github.com/relabs-tech/climate_agent/internal/sim"
)

// ProbeOptions configures the stand-alone HTU21D read loop.
type ProbeOptions struct {
	Bus      string
	Address  uint16
	Unit     measure.TemperatureUnit
	Interval time.Duration
	Count    int  // 0 reads until ctx is done
	Simulate bool // read a simulated device instead of the bus
}

type sensorReader interface {
	ReadSensors() (htu21d.Reading, error)
}

// RunProbe reads one HTU21D directly and prints each reading to out. No hub
// connection is made.
func RunProbe(ctx context.Context, opts ProbeOptions, out io.Writer) error {
	var bus i2c.BusCloser
	if opts.Simulate {
		s := sim.NewHTU21D()
		if opts.Address != 0 {
			s.Addr = opts.Address
		}
		bus = s
	} else {
		if _, err := host.Init(); err != nil {
			return fmt.Errorf("periph host init: %w", err)
		}
		b, err := i2creg.Open(opts.Bus)
		if err != nil {
			return fmt.Errorf("i2c open %q: %w", opts.Bus, err)
		}
		bus = b
	}
	defer bus.Close()

	dev, err := htu21d.New(bus, &htu21d.Opts{Addr: opts.Address, Unit: opts.Unit})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "probing %s every %v\n", dev, opts.Interval)
	return probeLoop(ctx, dev, opts.Interval, opts.Count, out)
}

func probeLoop(ctx context.Context, dev sensorReader, interval time.Duration, count int, out io.Writer) error {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 0; count == 0 || n < count; n++ {
		if n > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
		r, err := dev.ReadSensors()
		if err != nil {
			fmt.Fprintf(out, "read error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "Temperature: %s\n", r.Temperature)
		fmt.Fprintf(out, "Humidity: %s\n", r.Humidity)
	}
	return nil
}
