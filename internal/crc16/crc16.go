// =============================================================================
// PayNow QR Generator - CRC16 Checksum
// =============================================================================
//
// This package computes the CRC that terminates every EMV merchant-presented
// QR payload (field 63).
//
// PARAMETERS OF THE ALGORITHM (CRC-16/CCITT-FALSE):
//   Polynomial:  0x1021
//   Initial:     0xFFFF
//   Reflection:  none (input and output)
//   XOR on exit: 0x0000
//   Check value: 0x29B1 for the ASCII bytes "123456789"
//
// All functions are pure and safe for concurrent use.
//
// =============================================================================

package crc16

import "fmt"

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// Polynomial is the CCITT generator polynomial (x^16 + x^12 + x^5 + 1).
	Polynomial uint16 = 0x1021

	// Init is the register value before any byte is processed.
	// It is also the checksum of the empty input.
	Init uint16 = 0xFFFF
)

// table is the precomputed MSB-first lookup table for Polynomial.
var table = makeTable(Polynomial)

func makeTable(poly uint16) [256]uint16 {
	var t [256]uint16
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

// =============================================================================
// CHECKSUM FUNCTIONS
// =============================================================================

// Checksum returns the CRC-16/CCITT-FALSE of data.
func Checksum(data []byte) uint16 {
	return Update(Init, data)
}

// Update continues a running checksum with more bytes.
// Checksum(append(a, b...)) == Update(Checksum(a), b).
func Update(crc uint16, data []byte) uint16 {
	for _, b := range data {
		crc = (crc << 8) ^ table[byte(crc>>8)^b]
	}
	return crc
}

// Format renders a checksum the way EMV QR payloads carry it:
// exactly four upper-case hexadecimal digits, zero-padded on the left.
func Format(sum uint16) string {
	return fmt.Sprintf("%04X", sum)
}
