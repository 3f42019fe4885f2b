// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package protocol defines the records published on the hub.
//
// Every message is a single-key JSON object whose key names the record kind:
//
//	{"htu21dData": {"temperature": {...}, "humidity": {...}, "timestamp": "..."}}
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Record kinds.
const (
	KindHTU21D = "htu21dData"
	KindBMX280 = "bmx280Data"
)

// Payload is one tagged record. Only Kind and Data go on the wire; Fields and
// Time feed time-series sinks.
type Payload struct {
	Kind string
	Data any

	Fields map[string]any
	Time   time.Time
}

// MarshalJSON renders {"<kind>": data}.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.Kind == "" {
		return nil, errors.New("protocol: payload kind is empty")
	}
	return json.Marshal(map[string]any{p.Kind: p.Data})
}

// Envelope is the decoded form of a received payload; Data is left raw so the
// receiver can pick the concrete type from Kind.
type Envelope struct {
	Kind string
	Data json.RawMessage
}

// Decode splits a received message into its kind and raw body.
func Decode(b []byte) (Envelope, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return Envelope{}, fmt.Errorf("protocol: decode: %w", err)
	}
	if len(m) != 1 {
		return Envelope{}, fmt.Errorf("protocol: expected exactly one record, got %d", len(m))
	}
	for k, v := range m {
		return Envelope{Kind: k, Data: v}, nil
	}
	return Envelope{}, nil
}
