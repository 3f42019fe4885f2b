// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package bmx280 exposes the Bosch BMP280/BME280 as a pollable sensor on top
// of periph's bmxx80 driver.
package bmx280

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"

	"github.com/relabs-tech/climate_agent/internal/env"
	"github.com/relabs-tech/climate_agent/internal/measure"
)

// DefaultAddress is the I²C address with SDO tied low.
const DefaultAddress uint16 = 0x76

// ErrHumidityUnsupported is returned when humidity is polled on a BMP280.
var ErrHumidityUnsupported = errors.New("bmx280: humidity requires a BME280")

// Sensor is the part of bmxx80.Dev the poller uses.
type Sensor interface {
	Sense(e *physic.Env) error
	Halt() error
	String() string
}

var _ Sensor = (*bmxx80.Dev)(nil)

// Dev polls one BMP280 or BME280.
type Dev struct {
	s    Sensor
	unit measure.TemperatureUnit
	now  func() time.Time
}

// New wraps an already initialised sensor.
func New(s Sensor, unit measure.TemperatureUnit) *Dev {
	return &Dev{s: s, unit: unit, now: time.Now}
}

// OpenI2C initialises the chip at addr on bus b with bmxx80's default
// oversampling.
func OpenI2C(b i2c.Bus, addr uint16, unit measure.TemperatureUnit) (*Dev, error) {
	if addr == 0 {
		addr = DefaultAddress
	}
	d, err := bmxx80.NewI2C(b, addr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("bmx280 init at 0x%02X: %w", addr, err)
	}
	return New(d, unit), nil
}

// HasHumidity reports whether the chip is a BME280.
func (d *Dev) HasHumidity() bool {
	return strings.HasPrefix(d.s.String(), "BME280")
}

// Read takes one forced measurement of every channel.
func (d *Dev) Read() (env.Sample, error) {
	ts := d.now().UTC()
	var e physic.Env
	if err := d.s.Sense(&e); err != nil {
		return env.Sample{}, fmt.Errorf("bmx280 sense: %w", err)
	}
	return env.FromPhysic(d.s.String(), e, d.unit, ts), nil
}

// Halt stops the underlying device.
func (d *Dev) Halt() error {
	return d.s.Halt()
}

func (d *Dev) String() string {
	return d.s.String()
}
