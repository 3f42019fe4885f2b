// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package htu21d

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/physic"
)

var _ physic.SenseEnv = (*Dev)(nil)

// ErrContinuousUnsupported is returned by SenseContinuous; the driver runs no
// goroutines of its own.
var ErrContinuousUnsupported = errors.New("htu21d: continuous sensing not supported")

// Sense fills temperature and humidity of e. Pressure is left at zero.
func (d *Dev) Sense(e *physic.Env) error {
	r, err := d.ReadSensors()
	if err != nil {
		return err
	}
	c := r.Temperature.InCelsius()
	e.Temperature = physic.ZeroCelsius + physic.Temperature(c.Value*float64(physic.Kelvin))
	e.Humidity = physic.RelativeHumidity(r.Humidity.Relative * float64(physic.PercentRH))
	e.Pressure = 0
	return nil
}

// SenseContinuous implements physic.SenseEnv.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	return nil, ErrContinuousUnsupported
}

// Precision implements physic.SenseEnv. Resolutions are for the default
// 14-bit temperature / 12-bit humidity mode.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = 10 * physic.MilliKelvin
	e.Humidity = 4 * physic.PercentRH / 100
	e.Pressure = 0
}
