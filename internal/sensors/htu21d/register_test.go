// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package htu21d

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/relabs-tech/climate_agent/internal/measure"
)

func TestUserRegisterBits(t *testing.T) {
	tests := []struct {
		reg     UserRegister
		res     Resolution
		heater  bool
		battery bool
		str     string
	}{
		{DefaultUserRegister, Res12RH14T, false, false, "0x02{resolution=12/14}"},
		{0x03, Res8RH12T, false, false, "0x03{resolution=8/12}"},
		{0x82, Res10RH13T, false, false, "0x82{resolution=10/13}"},
		{0x87, Res11RH11T, true, false, "0x87{resolution=11/11 heater}"},
		{0x40, Res12RH14T, false, true, "0x40{resolution=12/14 end-of-battery otp-reload}"},
	}
	for _, tt := range tests {
		if got := tt.reg.Resolution(); got != tt.res {
			t.Errorf("%#x.Resolution() = %v, want %v", byte(tt.reg), got, tt.res)
		}
		if tt.reg.HeaterOn() != tt.heater || tt.reg.EndOfBattery() != tt.battery {
			t.Errorf("%#x flags: heater %v battery %v", byte(tt.reg), tt.reg.HeaterOn(), tt.reg.EndOfBattery())
		}
		if got := tt.reg.String(); got != tt.str {
			t.Errorf("%#x.String() = %q, want %q", byte(tt.reg), got, tt.str)
		}
	}

	u := DefaultUserRegister.WithResolution(Res11RH11T).WithHeater(true)
	if u != 0x87 {
		t.Errorf("WithResolution/WithHeater = %#x, want 0x87", byte(u))
	}
	if u.WithResolution(Res12RH14T).WithHeater(false) != DefaultUserRegister {
		t.Errorf("clearing bits did not restore the default")
	}
}

func TestParseResolution(t *testing.T) {
	for r := Res12RH14T; r <= Res11RH11T; r++ {
		got, err := ParseResolution(r.String())
		if err != nil || got != r {
			t.Errorf("ParseResolution(%q) = %v, %v", r.String(), got, err)
		}
	}
	if _, err := ParseResolution("16/16"); err == nil {
		t.Error("ParseResolution(16/16) succeeded")
	}
}

func TestReadUserRegister(t *testing.T) {
	d, bus := newTestDev(t, measure.Celsius,
		i2ctest.IO{Addr: DefaultAddress, W: []byte{cmdReadUserRegister}, R: []byte{0x3A}},
	)
	u, err := d.ReadUserRegister()
	if err != nil {
		t.Fatalf("ReadUserRegister() error = %v", err)
	}
	if u != 0x3A {
		t.Errorf("ReadUserRegister() = %#x", byte(u))
	}
	if err := bus.Close(); err != nil {
		t.Error(err)
	}
}

func TestWriteUserRegisterKeepsReservedBits(t *testing.T) {
	// Device reports reserved bits 0x38 set and end-of-battery set; the
	// caller asks for 11/11 with heater and tries to clear everything else.
	d, bus := newTestDev(t, measure.Celsius,
		i2ctest.IO{Addr: DefaultAddress, W: []byte{cmdReadUserRegister}, R: []byte{0x7A}},
		i2ctest.IO{Addr: DefaultAddress, W: []byte{cmdWriteUserRegister, 0xFD}},
	)
	if err := d.WriteUserRegister(0x85); err != nil {
		t.Fatalf("WriteUserRegister() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("unexpected bus traffic: %v", err)
	}
}

func TestWriteUserRegisterReadFails(t *testing.T) {
	d, _ := newTestDev(t, measure.Celsius)
	var te *TransportError
	if err := d.WriteUserRegister(DefaultUserRegister); !errors.As(err, &te) || te.Op != "read user register" {
		t.Fatalf("WriteUserRegister() error = %v", err)
	}
}
