// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package htu21d

// crcPolynomial is x^8 + x^5 + x^4 + 1 (0x131) with the x^8 term implicit.
const crcPolynomial byte = 0x31

// Checksum computes the device CRC-8 over data: init 0x00, MSB first,
// polynomial 0x131. All arithmetic stays in 8 bits.
func Checksum(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for bit := 0; bit < 8; bit++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// Validate checks a 2-byte signal against the checksum the device sent.
func Validate(signal [2]byte, expected byte) error {
	computed := Checksum(signal[:])
	if computed != expected {
		return &ChecksumMismatchError{
			Computed: computed,
			Received: expected,
			Data:     signal,
		}
	}
	return nil
}
