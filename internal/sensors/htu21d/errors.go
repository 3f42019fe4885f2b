// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package htu21d

import "fmt"

// TransportError wraps any failure of the underlying bus.
type TransportError struct {
	Op  string // "reset", "write command", "read frame"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("htu21d: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ChecksumMismatchError is returned when a frame fails its CRC.
type ChecksumMismatchError struct {
	Computed byte
	Received byte
	Data     [2]byte
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("htu21d: checksum mismatch: computed 0x%02X, received 0x%02X for [0x%02X 0x%02X]",
		e.Computed, e.Received, e.Data[0], e.Data[1])
}
