// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package poll is the sensor-agnostic polling layer. Each sensor model
// implements Pollable once with its own Selection and Result types; the
// Scheduler drives any of them without knowing the concrete model.
package poll

import (
	"errors"
	"time"

	"github.com/relabs-tech/climate_agent/internal/protocol"
)

// ErrEmptySelection is returned by Poll when nothing was selected. No bus
// traffic happens in that case.
var ErrEmptySelection = errors.New("poll: empty selection")

// Selection names which quantities a poll should acquire.
type Selection interface {
	comparable
	Empty() bool
}

// Result is what a poll produced. Concrete result types add accessors for
// the values they carry.
type Result interface {
	// Timestamp is the acquisition start of the poll.
	Timestamp() time.Time
	// Payload is the publishable record for this result.
	Payload() protocol.Payload
}

// Pollable is a sensor that can be polled for a selection of quantities.
//
// Poll performs only the bus transactions the selection needs and keeps no
// state from a failed call.
type Pollable[S Selection, R Result] interface {
	Poll(sel S) (R, error)
	String() string
}
