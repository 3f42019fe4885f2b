// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package publish

import "errors"

// Sink is anything readings can be published to.
type Sink interface {
	CreatePublisher(topic string) error
	Publish(topic string, payload any) error
}

// Fanout forwards every call to all of its sinks in order. A failing sink
// does not stop the others; the errors are joined.
type Fanout struct {
	sinks []Sink
}

// NewFanout returns a Fanout over sinks, skipping nil entries.
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

func (f *Fanout) CreatePublisher(topic string) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.CreatePublisher(topic); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Publish(topic string, payload any) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Publish(topic, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
