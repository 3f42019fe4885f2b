// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sim emulates sensors on an in-process I²C bus so the agent and
// its tools can run without hardware.
package sim

import (
	"fmt"
	"math"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/climate_agent/internal/sensors/htu21d"
)

var _ i2c.BusCloser = (*HTU21D)(nil)

// HTU21D answers the HTU21D command set with smoothly changing values.
type HTU21D struct {
	Addr         uint16
	BaseCelsius  float64
	BaseHumidity float64

	mu      sync.Mutex
	start   time.Time
	now     func() time.Time
	pending byte
}

// NewHTU21D returns a simulated device at the default address.
func NewHTU21D() *HTU21D {
	return &HTU21D{
		Addr:         htu21d.DefaultAddress,
		BaseCelsius:  22,
		BaseHumidity: 45,
		start:        time.Now(),
		now:          time.Now,
	}
}

// Values returns what the device would measure right now.
func (h *HTU21D) Values() (celsius, humidity float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.values()
}

func (h *HTU21D) values() (float64, float64) {
	elapsed := h.now().Sub(h.start).Seconds()
	return h.BaseCelsius + 2*math.Sin(elapsed/60),
		h.BaseHumidity + 10*math.Cos(elapsed/90)
}

// Tx implements i2c.Bus.
func (h *HTU21D) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if addr != h.Addr {
		return fmt.Errorf("sim: no device at 0x%02X", addr)
	}
	if len(w) > 0 {
		switch w[0] {
		case htu21d.CmdSoftReset:
			h.pending = 0
		case htu21d.CmdReadTemperature, htu21d.CmdReadHumidity:
			h.pending = w[0]
		default:
			return fmt.Errorf("sim: unsupported command 0x%02X", w[0])
		}
	}
	if len(r) == 0 {
		return nil
	}
	if h.pending == 0 {
		return fmt.Errorf("sim: read without a pending command")
	}
	if len(r) != 3 {
		return fmt.Errorf("sim: read of %d bytes, device sends 3", len(r))
	}

	c, rh := h.values()
	var s uint16
	if h.pending == htu21d.CmdReadTemperature {
		s = toSignal((c + 46.85) / 175.72)
	} else {
		s = toSignal((rh + 6) / 125)
	}
	h.pending = 0
	r[0], r[1] = byte(s>>8), byte(s)
	r[2] = htu21d.Checksum(r[:2])
	return nil
}

func toSignal(frac float64) uint16 {
	return uint16(math.Max(0, math.Min(65535, math.Round(frac*65536))))
}

// SetSpeed implements i2c.Bus.
func (h *HTU21D) SetSpeed(physic.Frequency) error { return nil }

// Close implements io.Closer.
func (h *HTU21D) Close() error { return nil }

func (h *HTU21D) String() string { return "sim" }
