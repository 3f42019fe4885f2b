// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/climate_agent/internal/app"
	"github.com/relabs-tech/climate_agent/internal/sensors/htu21d"
)

func main() {
	bus := flag.String("bus", "", "I2C bus name (empty opens the first bus)")
	addr := flag.Uint("addr", uint(htu21d.DefaultAddress), "device address")
	resolution := flag.String("resolution", "", "set RH/T resolution: 12/14, 8/12, 10/13 or 11/11")
	heater := flag.String("heater", "", "set heater: on or off")
	flag.Parse()

	log.Println("starting HTU21D register debug tool")

	opts := app.RegisterDebugOptions{Bus: *bus, Address: uint16(*addr)}
	if *resolution != "" {
		r, err := htu21d.ParseResolution(*resolution)
		if err != nil {
			log.Fatalf("invalid -resolution: %v", err)
		}
		opts.Resolution = &r
	}
	switch *heater {
	case "":
	case "on", "off":
		on := *heater == "on"
		opts.Heater = &on
	default:
		log.Fatalf("invalid -heater %q: want on or off", *heater)
	}

	if err := app.RunRegisterDebug(opts, os.Stdout); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
