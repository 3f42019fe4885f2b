// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package env holds environmental samples decoded from periph's physic.Env.
package env

import (
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/climate_agent/internal/measure"
)

// Sample represents a single environmental measurement.
type Sample struct {
	Source string `json:"source"` // device description

	Temperature measure.Temperature `json:"temperature"`
	PressurePa  float64             `json:"pressurePa"`
	PressureHPa float64             `json:"pressureHpa"` // same as mbar
	Humidity    measure.Humidity    `json:"humidity"`
	Timestamp   time.Time           `json:"timestamp"`
}

// FromPhysic converts e, reporting temperature in unit.
func FromPhysic(source string, e physic.Env, unit measure.TemperatureUnit, at time.Time) Sample {
	t := measure.NewCelsius(float64(e.Temperature-physic.ZeroCelsius) / float64(physic.Kelvin))
	t.ConvertTo(unit)

	pressurePa := float64(e.Pressure) / float64(physic.Pascal)
	return Sample{
		Source:      source,
		Temperature: t,
		PressurePa:  pressurePa,
		PressureHPa: pressurePa / 100.0, // 1 hPa = 100 Pa
		Humidity:    measure.NewRelative(float64(e.Humidity) / float64(physic.PercentRH)),
		Timestamp:   at,
	}
}
