// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/climate_agent/internal/measure"
	"github.com/relabs-tech/climate_agent/internal/protocol"
)

// Reading is a decoded hub message of any sensor model. Quantities the
// sensor was not polled for are nil.
type Reading struct {
	Topic       string               `json:"topic"`
	Kind        string               `json:"kind"`
	Source      string               `json:"source,omitempty"`
	Temperature *measure.Temperature `json:"temperature,omitempty"`
	Humidity    *measure.Humidity    `json:"humidity,omitempty"`
	PressureHPa *float64             `json:"pressureHpa,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
	Received    time.Time            `json:"received"`
}

// DecodeReading parses a message received on topic.
func DecodeReading(topic string, b []byte) (Reading, error) {
	env, err := protocol.Decode(b)
	if err != nil {
		return Reading{}, err
	}
	switch env.Kind {
	case protocol.KindHTU21D, protocol.KindBMX280:
	default:
		return Reading{}, fmt.Errorf("unknown record kind %q", env.Kind)
	}

	var body struct {
		Source      string               `json:"source"`
		Temperature *measure.Temperature `json:"temperature"`
		Humidity    *measure.Humidity    `json:"humidity"`
		PressureHPa *float64             `json:"pressureHpa"`
		Timestamp   time.Time            `json:"timestamp"`
	}
	if err := json.Unmarshal(env.Data, &body); err != nil {
		return Reading{}, fmt.Errorf("%s: %w", env.Kind, err)
	}
	return Reading{
		Topic:       topic,
		Kind:        env.Kind,
		Source:      body.Source,
		Temperature: body.Temperature,
		Humidity:    body.Humidity,
		PressureHPa: body.PressureHPa,
		Timestamp:   body.Timestamp,
	}, nil
}

// Lines renders each present quantity on its own short line.
func (r Reading) Lines() []string {
	var lines []string
	if r.Temperature != nil {
		lines = append(lines, "T: "+r.Temperature.String())
	}
	if r.Humidity != nil {
		lines = append(lines, "H: "+r.Humidity.String())
	}
	if r.PressureHPa != nil {
		lines = append(lines, fmt.Sprintf("P: %.1fhPa", *r.PressureHPa))
	}
	return lines
}

func (r Reading) String() string {
	return fmt.Sprintf("[%s] %s %s  %s",
		r.Timestamp.Format(time.RFC3339), r.Topic, r.Kind, strings.Join(r.Lines(), "  "))
}

// Feed keeps the latest reading per topic and forwards new ones to
// listeners. Safe for concurrent use.
type Feed struct {
	mu        sync.RWMutex
	latest    map[string]Reading
	listeners map[chan Reading]struct{}
	now       func() time.Time
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{
		latest:    make(map[string]Reading),
		listeners: make(map[chan Reading]struct{}),
		now:       time.Now,
	}
}

// Handle decodes and stores one message. Slow listeners miss readings
// rather than block the caller.
func (f *Feed) Handle(topic string, payload []byte) (Reading, error) {
	r, err := DecodeReading(topic, payload)
	if err != nil {
		return Reading{}, err
	}
	r.Received = f.now().UTC()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest[topic] = r
	for ch := range f.listeners {
		select {
		case ch <- r:
		default:
		}
	}
	return r, nil
}

// Get returns the latest reading on topic.
func (f *Feed) Get(topic string) (Reading, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	r, ok := f.latest[topic]
	return r, ok
}

// Latest returns the newest reading of every topic, ordered by topic.
func (f *Feed) Latest() []Reading {
	f.mu.RLock()
	out := make([]Reading, 0, len(f.latest))
	for _, r := range f.latest {
		out = append(out, r)
	}
	f.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out
}

// Listen registers a listener with the given buffer. The returned function
// unregisters it and closes the channel.
func (f *Feed) Listen(buffer int) (<-chan Reading, func()) {
	ch := make(chan Reading, buffer)
	f.mu.Lock()
	f.listeners[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
}
