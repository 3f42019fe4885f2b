// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package poll

import (
	"fmt"
	"time"

	"github.com/relabs-tech/climate_agent/internal/protocol"
)

// Job is one scheduled poll target with its type parameters erased.
type Job struct {
	Name     string
	Topic    string
	Interval time.Duration

	run func() (protocol.Payload, error)
}

// NewJob binds a pollable and its selection to a topic and interval.
func NewJob[S Selection, R Result](topic string, interval time.Duration, p Pollable[S, R], sel S) (Job, error) {
	if topic == "" {
		return Job{}, fmt.Errorf("poll: job for %s has no topic", p)
	}
	if interval <= 0 {
		return Job{}, fmt.Errorf("poll: job for %s: interval must be > 0", p)
	}
	if sel.Empty() {
		return Job{}, fmt.Errorf("poll: job for %s: %w", p, ErrEmptySelection)
	}
	return Job{
		Name:     p.String(),
		Topic:    topic,
		Interval: interval,
		run: func() (protocol.Payload, error) {
			r, err := p.Poll(sel)
			if err != nil {
				return protocol.Payload{}, err
			}
			return r.Payload(), nil
		},
	}, nil
}

// Poll runs the job's poll once.
func (j Job) Poll() (protocol.Payload, error) {
	return j.run()
}
