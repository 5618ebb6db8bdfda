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

package tinyhci

// Transport defines the hardware access the driver core needs: a synchronous
// full-duplex byte exchange plus the chip-select, enable and interrupt lines.
// The SPI implementation lives in transport/spi; tests use the simulated chip
// in this package.
//
// The driver owns all sequencing. A Transport implementation must not buffer,
// retry or reorder transfers: the protocol has no checksum, and any byte-level
// retransmission desynchronizes the chip's frame state machine.
type Transport interface {
	// Transfer exchanges one byte on the bus, full duplex.
	Transfer(out byte) (byte, error)

	// SetChipSelect drives the chip-select line. true asserts the line
	// (electrically low on the real chip).
	SetChipSelect(assert bool)

	// SetEnable drives the chip's power-enable line.
	SetEnable(on bool)

	// IRQAsserted reports whether the interrupt line is asserted (low).
	// Used directly only where the protocol polls the line outside the
	// dispatcher: first-command detection and frame-close deassertion.
	IRQAsserted() bool

	// AttachInterrupt registers fn to be invoked once per falling edge of
	// the interrupt line. The driver attaches its dispatcher here at the
	// precise point init requires; fn runs on the transport's watcher
	// goroutine and must be the only caller touching the bus while a
	// received frame is open.
	AttachInterrupt(fn func()) error

	// Close releases the bus and the lines.
	Close() error

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportSPI represents the SPI bus transport.
	TransportSPI TransportType = "spi"
	// TransportMock represents a simulated transport for testing
	TransportMock TransportType = "mock"
)
