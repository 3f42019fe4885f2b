// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package measure holds unit-aware physical values produced by the sensor drivers.
package measure

import (
	"fmt"
	"strings"
)

// TemperatureUnit tags the scale a Temperature value is expressed in.
type TemperatureUnit int

const (
	Celsius TemperatureUnit = iota
	Fahrenheit
)

func (u TemperatureUnit) String() string {
	switch u {
	case Celsius:
		return "celsius"
	case Fahrenheit:
		return "fahrenheit"
	default:
		return fmt.Sprintf("TemperatureUnit(%d)", int(u))
	}
}

// Symbol returns the display glyph for the unit.
func (u TemperatureUnit) Symbol() string {
	if u == Fahrenheit {
		return "°F"
	}
	return "°C"
}

// MarshalText implements encoding.TextMarshaler.
func (u TemperatureUnit) MarshalText() ([]byte, error) {
	switch u {
	case Celsius, Fahrenheit:
		return []byte(u.String()), nil
	default:
		return nil, fmt.Errorf("measure: unknown temperature unit %d", int(u))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *TemperatureUnit) UnmarshalText(b []byte) error {
	parsed, err := ParseTemperatureUnit(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// ParseTemperatureUnit accepts "celsius"/"c" and "fahrenheit"/"f", case-insensitive.
func ParseTemperatureUnit(s string) (TemperatureUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "celsius", "c":
		return Celsius, nil
	case "fahrenheit", "f":
		return Fahrenheit, nil
	default:
		return Celsius, fmt.Errorf("measure: unknown temperature unit %q", s)
	}
}

// CelsiusToFahrenheit applies 32 + C×9/5.
func CelsiusToFahrenheit(c float64) float64 {
	return 32.0 + (9.0/5.0)*c
}

// FahrenheitToCelsius applies (F−32)×5/9.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32.0) * (5.0 / 9.0)
}

// Temperature is a magnitude paired with its unit. Value and Unit only change
// together, through ConvertToCelsius and ConvertToFahrenheit.
type Temperature struct {
	Value float64         `json:"value"`
	Unit  TemperatureUnit `json:"unit"`
}

// NewCelsius returns a Celsius temperature.
func NewCelsius(v float64) Temperature {
	return Temperature{Value: v, Unit: Celsius}
}

// ConvertToCelsius rescales a Fahrenheit value in place. Celsius values are left untouched.
func (t *Temperature) ConvertToCelsius() {
	if t.Unit == Fahrenheit {
		t.Value = FahrenheitToCelsius(t.Value)
		t.Unit = Celsius
	}
}

// ConvertToFahrenheit rescales a Celsius value in place. Fahrenheit values are left untouched.
func (t *Temperature) ConvertToFahrenheit() {
	if t.Unit == Celsius {
		t.Value = CelsiusToFahrenheit(t.Value)
		t.Unit = Fahrenheit
	}
}

// ConvertTo converts in place to u.
func (t *Temperature) ConvertTo(u TemperatureUnit) {
	switch u {
	case Celsius:
		t.ConvertToCelsius()
	case Fahrenheit:
		t.ConvertToFahrenheit()
	}
}

// InCelsius returns a Celsius copy, leaving t as is.
func (t Temperature) InCelsius() Temperature {
	t.ConvertToCelsius()
	return t
}

func (t Temperature) String() string {
	return fmt.Sprintf("%.2f%s", t.Value, t.Unit.Symbol())
}
