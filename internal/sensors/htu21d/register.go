// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package htu21d

import (
	"fmt"
	"strings"
)

const (
	cmdWriteUserRegister byte = 0xE6
	cmdReadUserRegister  byte = 0xE7
)

// User register bits. Bits 3-5 are reserved and written back unchanged.
const (
	regResolutionLow  = 1 << 0
	regOTPReloadOff   = 1 << 1
	regHeater         = 1 << 2
	regEndOfBattery   = 1 << 6
	regResolutionHigh = 1 << 7

	regReserved = 0x38
	// DefaultUserRegister is the register content after power-on.
	DefaultUserRegister UserRegister = 0x02
)

// Resolution is the measurement resolution pair, humidity/temperature bits.
type Resolution uint8

const (
	Res12RH14T Resolution = iota // power-on default
	Res8RH12T
	Res10RH13T
	Res11RH11T
)

func (r Resolution) String() string {
	switch r {
	case Res12RH14T:
		return "12/14"
	case Res8RH12T:
		return "8/12"
	case Res10RH13T:
		return "10/13"
	case Res11RH11T:
		return "11/11"
	default:
		return fmt.Sprintf("Resolution(%d)", uint8(r))
	}
}

// ParseResolution accepts the "RH/T" form used by String.
func ParseResolution(s string) (Resolution, error) {
	for r := Res12RH14T; r <= Res11RH11T; r++ {
		if s == r.String() {
			return r, nil
		}
	}
	return 0, fmt.Errorf("htu21d: unknown resolution %q (want 12/14, 8/12, 10/13 or 11/11)", s)
}

// UserRegister is the raw user register.
type UserRegister byte

// Resolution decodes bits 7 and 0.
func (u UserRegister) Resolution() Resolution {
	var r Resolution
	if u&regResolutionHigh != 0 {
		r |= 2
	}
	if u&regResolutionLow != 0 {
		r |= 1
	}
	return r
}

// WithResolution returns u with the resolution bits set to r.
func (u UserRegister) WithResolution(r Resolution) UserRegister {
	u &^= regResolutionHigh | regResolutionLow
	if r&2 != 0 {
		u |= regResolutionHigh
	}
	if r&1 != 0 {
		u |= regResolutionLow
	}
	return u
}

// EndOfBattery reports a supply below 2.25 V.
func (u UserRegister) EndOfBattery() bool { return u&regEndOfBattery != 0 }

// HeaterOn reports whether the on-chip heater is enabled.
func (u UserRegister) HeaterOn() bool { return u&regHeater != 0 }

// WithHeater returns u with the heater bit set to on.
func (u UserRegister) WithHeater(on bool) UserRegister {
	if on {
		return u | regHeater
	}
	return u &^ regHeater
}

// OTPReloadDisabled reports bit 1.
func (u UserRegister) OTPReloadDisabled() bool { return u&regOTPReloadOff != 0 }

func (u UserRegister) String() string {
	flags := []string{"resolution=" + u.Resolution().String()}
	if u.HeaterOn() {
		flags = append(flags, "heater")
	}
	if u.EndOfBattery() {
		flags = append(flags, "end-of-battery")
	}
	if !u.OTPReloadDisabled() {
		flags = append(flags, "otp-reload")
	}
	return fmt.Sprintf("0x%02X{%s}", byte(u), strings.Join(flags, " "))
}

// ReadUserRegister reads the user register.
func (d *Dev) ReadUserRegister() (UserRegister, error) {
	var b [1]byte
	if err := d.c.Tx([]byte{cmdReadUserRegister}, b[:]); err != nil {
		return 0, &TransportError{Op: "read user register", Err: err}
	}
	return UserRegister(b[0]), nil
}

// WriteUserRegister writes the writable bits of u, keeping the reserved
// bits as the device reports them. End-of-battery is read-only.
func (d *Dev) WriteUserRegister(u UserRegister) error {
	cur, err := d.ReadUserRegister()
	if err != nil {
		return err
	}
	v := cur&(regReserved|regEndOfBattery) | u&^(regReserved|regEndOfBattery)
	if err := d.c.Tx([]byte{cmdWriteUserRegister, byte(v)}, nil); err != nil {
		return &TransportError{Op: "write user register", Err: err}
	}
	return nil
}
