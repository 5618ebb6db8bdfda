// tinyhci
// Copyright (c) 2026 The tinyhci Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of tinyhci.
//
// tinyhci is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// tinyhci is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with tinyhci; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package frame provides wire-format constants and length helpers for the
// CC3000 HCI protocol
package frame

// SPI bus opcodes - the first byte of every bus transaction
const (
	OpWrite = 0x01 // Host to chip transfer
	OpRead  = 0x03 // Chip to host transfer
)

// HCI message types
const (
	TypeCommand = 0x01
	TypeData    = 0x02
	TypePatch   = 0x03
	TypeEvent   = 0x04
)

// Header geometry
const (
	// TrailerLength is the fixed HCI trailer transmitted after the SPI
	// header: type, opcode low, opcode high, argument size.
	TrailerLength = 4

	// ReadHeaderLength is the read opcode plus the two busy bytes the host
	// clocks out before the chip answers with the payload length.
	ReadHeaderLength = 3

	// WriteHeaderLength is the write opcode, the 16-bit length field and the
	// two busy bytes that precede every outbound payload.
	WriteHeaderLength = 5
)

// CommandPad reports whether a command payload of the given argument size
// requires a trailing pad byte. The command path pads when the argument size
// is even; the data path (DataPad) pads when the combined size is odd. The
// asymmetry is what the chip expects and must not be "corrected".
func CommandPad(argsSize int) bool {
	return argsSize&1 == 0
}

// DataPad reports whether a data payload of the given combined
// arguments+buffer size requires a trailing pad byte.
func DataPad(totalSize int) bool {
	return totalSize&1 != 0
}

// PayloadLength returns the value of the 16-bit length field for a payload of
// the given size with or without a pad byte: the 4-byte trailer plus the
// payload plus the pad. On the command path the result is always odd, so the
// complete packet including the 5-byte write header lands on a 16-bit
// boundary.
func PayloadLength(size int, pad bool) int {
	n := TrailerLength + size
	if pad {
		n++
	}
	return n
}
