// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package htu21d

// Datasheet conversion constants. The signal is normalised by 2^16.
const (
	signalScale = 65536.0

	tempOffset = -46.85
	tempSpan   = 175.72

	rhOffset = -6.0
	rhSpan   = 125.0
)

// TemperatureFromSignal converts a raw temperature code to °C.
func TemperatureFromSignal(signal float64) float64 {
	return tempOffset + tempSpan*(signal/signalScale)
}

// HumidityFromSignal converts a raw humidity code to %RH. The result is not
// clamped to 0..100.
func HumidityFromSignal(signal float64) float64 {
	return rhOffset + rhSpan*(signal/signalScale)
}
