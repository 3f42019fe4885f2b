// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bmx280

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/relabs-tech/climate_agent/internal/env"
	"github.com/relabs-tech/climate_agent/internal/measure"
	"github.com/relabs-tech/climate_agent/internal/poll"
	"github.com/relabs-tech/climate_agent/internal/protocol"
)

var _ poll.Pollable[Selection, PollResult] = (*Dev)(nil)

// Selection is a bit set of channels to report.
type Selection uint8

const (
	SelectTemperature Selection = 1 << iota
	SelectPressure
	SelectHumidity

	SelectAll = SelectTemperature | SelectPressure | SelectHumidity
)

// Empty reports whether no known channel is selected.
func (s Selection) Empty() bool { return s&SelectAll == 0 }

// Has reports whether every bit of q is selected.
func (s Selection) Has(q Selection) bool { return s&q == q }

func (s Selection) String() string {
	var parts []string
	for _, c := range []struct {
		bit  Selection
		name string
	}{
		{SelectTemperature, "temperature"},
		{SelectPressure, "pressure"},
		{SelectHumidity, "humidity"},
	} {
		if s.Has(c.bit) {
			parts = append(parts, c.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// PollResult is a sample restricted to the polled channels.
type PollResult struct {
	selection Selection
	sample    env.Sample
}

// Selection returns what was polled.
func (r PollResult) Selection() Selection { return r.selection }

// Timestamp implements poll.Result.
func (r PollResult) Timestamp() time.Time { return r.sample.Timestamp }

// Temperature returns the temperature and whether it was polled.
func (r PollResult) Temperature() (measure.Temperature, bool) {
	return r.sample.Temperature, r.selection.Has(SelectTemperature)
}

// PressureHPa returns the pressure in hPa and whether it was polled.
func (r PollResult) PressureHPa() (float64, bool) {
	return r.sample.PressureHPa, r.selection.Has(SelectPressure)
}

// Humidity returns the humidity and whether it was polled.
func (r PollResult) Humidity() (measure.Humidity, bool) {
	return r.sample.Humidity, r.selection.Has(SelectHumidity)
}

// MarshalJSON emits only the polled channels.
func (r PollResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Source      string               `json:"source"`
		Temperature *measure.Temperature `json:"temperature,omitempty"`
		PressureHPa *float64             `json:"pressureHpa,omitempty"`
		Humidity    *measure.Humidity    `json:"humidity,omitempty"`
		Timestamp   time.Time            `json:"timestamp"`
	}{Source: r.sample.Source, Timestamp: r.sample.Timestamp}
	if t, ok := r.Temperature(); ok {
		out.Temperature = &t
	}
	if p, ok := r.PressureHPa(); ok {
		out.PressureHPa = &p
	}
	if h, ok := r.Humidity(); ok {
		out.Humidity = &h
	}
	return json.Marshal(out)
}

// Payload implements poll.Result.
func (r PollResult) Payload() protocol.Payload {
	fields := make(map[string]any, 3)
	if t, ok := r.Temperature(); ok {
		fields["temperature_c"] = t.InCelsius().Value
	}
	if p, ok := r.PressureHPa(); ok {
		fields["pressure_hpa"] = p
	}
	if h, ok := r.Humidity(); ok {
		fields["humidity_rh"] = h.Relative
	}
	return protocol.Payload{
		Kind:   protocol.KindBMX280,
		Data:   r,
		Fields: fields,
		Time:   r.sample.Timestamp,
	}
}

// Poll takes one measurement and keeps the selected channels. The chip
// samples all channels in one burst, so any non-empty selection costs the
// same bus traffic.
func (d *Dev) Poll(sel Selection) (PollResult, error) {
	if sel.Empty() {
		return PollResult{}, poll.ErrEmptySelection
	}
	if sel.Has(SelectHumidity) && !d.HasHumidity() {
		return PollResult{}, ErrHumidityUnsupported
	}
	s, err := d.Read()
	if err != nil {
		return PollResult{}, err
	}
	return PollResult{selection: sel & SelectAll, sample: s}, nil
}
