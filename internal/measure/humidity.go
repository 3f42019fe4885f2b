// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package measure

import "fmt"

// Humidity is relative humidity in percent. Values outside 0..100 are kept
// as measured.
type Humidity struct {
	Relative float64 `json:"relative"`
}

// NewRelative returns a relative humidity value.
func NewRelative(pct float64) Humidity {
	return Humidity{Relative: pct}
}

func (h Humidity) String() string {
	return fmt.Sprintf("%.2f%%", h.Relative)
}
