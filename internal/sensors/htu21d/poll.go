// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package htu21d

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/relabs-tech/climate_agent/internal/measure"
	"github.com/relabs-tech/climate_agent/internal/poll"
	"github.com/relabs-tech/climate_agent/internal/protocol"
)

var _ poll.Pollable[Selection, PollResult] = (*Dev)(nil)

// Selection is a bit set of the quantities to acquire.
type Selection uint8

const (
	SelectTemperature Selection = 1 << iota
	SelectHumidity

	SelectAll = SelectTemperature | SelectHumidity
)

// Empty reports whether no known quantity is selected.
func (s Selection) Empty() bool {
	return s&SelectAll == 0
}

// Has reports whether every bit of q is selected.
func (s Selection) Has(q Selection) bool {
	return s&q == q
}

func (s Selection) String() string {
	var parts []string
	if s.Has(SelectTemperature) {
		parts = append(parts, "temperature")
	}
	if s.Has(SelectHumidity) {
		parts = append(parts, "humidity")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// PollResult carries the quantities a poll acquired.
type PollResult struct {
	selection   Selection
	timestamp   time.Time
	temperature measure.Temperature
	humidity    measure.Humidity
}

// Selection returns what was polled.
func (r PollResult) Selection() Selection { return r.selection }

// Timestamp returns the acquisition start.
func (r PollResult) Timestamp() time.Time { return r.timestamp }

// Temperature returns the temperature and whether it was polled.
func (r PollResult) Temperature() (measure.Temperature, bool) {
	return r.temperature, r.selection.Has(SelectTemperature)
}

// Humidity returns the humidity and whether it was polled.
func (r PollResult) Humidity() (measure.Humidity, bool) {
	return r.humidity, r.selection.Has(SelectHumidity)
}

// MarshalJSON emits only the polled quantities.
func (r PollResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Temperature *measure.Temperature `json:"temperature,omitempty"`
		Humidity    *measure.Humidity    `json:"humidity,omitempty"`
		Timestamp   time.Time            `json:"timestamp"`
	}{Timestamp: r.timestamp}
	if t, ok := r.Temperature(); ok {
		out.Temperature = &t
	}
	if h, ok := r.Humidity(); ok {
		out.Humidity = &h
	}
	return json.Marshal(out)
}

// Payload implements poll.Result.
func (r PollResult) Payload() protocol.Payload {
	fields := make(map[string]any, 2)
	if t, ok := r.Temperature(); ok {
		fields["temperature_c"] = t.InCelsius().Value
	}
	if h, ok := r.Humidity(); ok {
		fields["humidity_rh"] = h.Relative
	}
	return protocol.Payload{
		Kind:   protocol.KindHTU21D,
		Data:   r,
		Fields: fields,
		Time:   r.timestamp,
	}
}

// Poll acquires the selected quantities, temperature first. Unselected
// quantities cost no bus traffic. On error nothing is returned.
func (d *Dev) Poll(sel Selection) (PollResult, error) {
	if sel.Empty() {
		return PollResult{}, poll.ErrEmptySelection
	}
	res := PollResult{selection: sel & SelectAll, timestamp: d.now().UTC()}
	if sel.Has(SelectTemperature) {
		t, err := d.ReadTemperature()
		if err != nil {
			return PollResult{}, err
		}
		res.temperature = t
	}
	if sel.Has(SelectHumidity) {
		h, err := d.ReadHumidity()
		if err != nil {
			return PollResult{}, err
		}
		res.humidity = h
	}
	return res, nil
}
