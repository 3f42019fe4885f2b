// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package htu21d drives the TE HTU21D(F) humidity and temperature sensor over
// I²C.
//
// Every read is one command write followed by a 3-byte frame read: a
// big-endian 16-bit signal code and its CRC-8. Frames that fail the CRC are
// rejected, never corrected. The driver is synchronous and owns its bus
// device exclusively; callers sharing a bus between sensors must serialize.
package htu21d

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/climate_agent/internal/measure"
)

// DefaultAddress is the fixed I²C address of the device.
const DefaultAddress uint16 = 0x40

// Commands understood by the device.
const (
	CmdSoftReset       byte = 0xFE
	CmdReadTemperature byte = 0xE3 // hold master
	CmdReadHumidity    byte = 0xE5 // hold master
)

const (
	frameLen = 3
	// resetDelay is the datasheet soft-reset time.
	resetDelay = 15 * time.Millisecond
)

// Opts holds the driver configuration.
type Opts struct {
	Addr uint16
	Unit measure.TemperatureUnit
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Addr: DefaultAddress,
	Unit: measure.Celsius,
}

// Dev is a handle to an HTU21D(F).
type Dev struct {
	c    i2c.Dev
	unit measure.TemperatureUnit
	now  func() time.Time
}

// New soft-resets the device on bus b and returns a handle to it. The unit
// in opts is used for every temperature the handle returns.
func New(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddress
	}
	d := &Dev{
		c:    i2c.Dev{Bus: b, Addr: addr},
		unit: opts.Unit,
		now:  time.Now,
	}
	if err := d.c.Tx([]byte{CmdSoftReset}, nil); err != nil {
		return nil, &TransportError{Op: "reset", Err: err}
	}
	time.Sleep(resetDelay)
	return d, nil
}

// Unit returns the temperature unit this handle reports in.
func (d *Dev) Unit() measure.TemperatureUnit {
	return d.unit
}

// ReadTemperature measures the temperature in the handle's unit.
func (d *Dev) ReadTemperature() (measure.Temperature, error) {
	signal, err := d.measure(CmdReadTemperature)
	if err != nil {
		return measure.Temperature{}, err
	}
	// Calibration always yields Celsius; convert from there.
	t := measure.NewCelsius(TemperatureFromSignal(float64(signal)))
	t.ConvertTo(d.unit)
	return t, nil
}

// ReadHumidity measures the relative humidity.
func (d *Dev) ReadHumidity() (measure.Humidity, error) {
	signal, err := d.measure(CmdReadHumidity)
	if err != nil {
		return measure.Humidity{}, err
	}
	return measure.NewRelative(HumidityFromSignal(float64(signal))), nil
}

// ReadSensors measures temperature then humidity. The timestamp marks the
// start of acquisition. If either read fails no Reading is returned.
func (d *Dev) ReadSensors() (Reading, error) {
	ts := d.now().UTC()
	t, err := d.ReadTemperature()
	if err != nil {
		return Reading{}, err
	}
	h, err := d.ReadHumidity()
	if err != nil {
		return Reading{}, err
	}
	return Reading{Temperature: t, Humidity: h, Timestamp: ts}, nil
}

// Halt implements conn.Resource. The device has nothing to stop between reads.
func (d *Dev) Halt() error {
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("HTU21D{%s}", &d.c)
}

// measure issues cmd and returns the validated signal code.
func (d *Dev) measure(cmd byte) (uint16, error) {
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return 0, &TransportError{Op: "write command", Err: err}
	}
	var frame [frameLen]byte
	if err := d.c.Tx(nil, frame[:]); err != nil {
		return 0, &TransportError{Op: "read frame", Err: err}
	}
	signal := [2]byte{frame[0], frame[1]}
	if err := Validate(signal, frame[2]); err != nil {
		return 0, err
	}
	return uint16(frame[0])<<8 | uint16(frame[1]), nil
}

// Reading is one complete acquisition.
type Reading struct {
	Temperature measure.Temperature `json:"temperature"`
	Humidity    measure.Humidity    `json:"humidity"`
	Timestamp   time.Time           `json:"timestamp"`
}

func (r Reading) String() string {
	return fmt.Sprintf("[%s] Temperature: %s\tHumidity: %s",
		r.Timestamp.Format(time.RFC3339), r.Temperature, r.Humidity)
}
