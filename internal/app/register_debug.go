// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/climate_agent/internal/sensors/htu21d"
)

// RegisterDebugOptions selects the device and the changes to apply. Nil
// fields are left as they are.
type RegisterDebugOptions struct {
	Bus        string
	Address    uint16
	Resolution *htu21d.Resolution
	Heater     *bool
}

// RegisterResponse is the JSON report printed by the register tool.
type RegisterResponse struct {
	Device       string `json:"device"`
	Value        string `json:"value"`
	Resolution   string `json:"resolution"`
	Heater       bool   `json:"heater"`
	EndOfBattery bool   `json:"end_of_battery"`
	Written      bool   `json:"written"`
	Timestamp    string `json:"timestamp"`
}

// RunRegisterDebug reads the HTU21D user register, applies any requested
// change and prints the resulting register as JSON.
func RunRegisterDebug(opts RegisterDebugOptions, out io.Writer) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(opts.Bus)
	if err != nil {
		return fmt.Errorf("i2c open %q: %w", opts.Bus, err)
	}
	defer bus.Close()
	return registerDebug(bus, opts, out)
}

func registerDebug(bus i2c.Bus, opts RegisterDebugOptions, out io.Writer) error {
	dev, err := htu21d.New(bus, &htu21d.Opts{Addr: opts.Address})
	if err != nil {
		return err
	}

	reg, err := dev.ReadUserRegister()
	if err != nil {
		return err
	}

	want := reg
	if opts.Resolution != nil {
		want = want.WithResolution(*opts.Resolution)
	}
	if opts.Heater != nil {
		want = want.WithHeater(*opts.Heater)
	}
	written := false
	if want != reg {
		if err := dev.WriteUserRegister(want); err != nil {
			return err
		}
		if reg, err = dev.ReadUserRegister(); err != nil {
			return err
		}
		written = true
	}

	resp := RegisterResponse{
		Device:       dev.String(),
		Value:        fmt.Sprintf("0x%02X", byte(reg)),
		Resolution:   reg.Resolution().String(),
		Heater:       reg.HeaterOn(),
		EndOfBattery: reg.EndOfBattery(),
		Written:      written,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
