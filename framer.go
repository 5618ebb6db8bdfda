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

// framer reads and writes payload bytes within the budget established by the
// current frame header. Reads past the budget return zero and writes past it
// are dropped, in both cases without touching the bus. That clamp is the only
// thing standing between a bad length field and a desynchronized bus, so no
// payload byte may bypass it.
//
// Multi-byte values are little-endian on the wire. Bus faults are sticky: the
// first transfer error is retained and later calls degrade to the same
// zero-fill/drop behavior as an exhausted budget, so the frame state machine
// still runs to completion and the fault surfaces once, at frame close.
//
// The framer is not self-synchronized. The bus is owned by exactly one
// context at a time (the dispatcher while it holds an open inbound frame, the
// calling goroutine otherwise), which is what makes the unguarded budget
// counter safe.
type framer struct {
	tr     Transport
	err    error
	budget uint16
}

// transfer exchanges one raw byte, bypassing the budget. Used only for frame
// headers and the trailing pad byte.
func (f *framer) transfer(out byte) byte {
	if f.err != nil {
		return 0
	}
	in, err := f.tr.Transfer(out)
	if err != nil {
		f.err = err
		return 0
	}
	return in
}

// takeErr returns and clears the sticky bus fault.
func (f *framer) takeErr() error {
	err := f.err
	f.err = nil
	return err
}

func (f *framer) readU8() byte {
	if f.budget == 0 {
		return 0
	}
	f.budget--
	return f.transfer(0)
}

func (f *framer) readU16() uint16 {
	b0 := f.readU8()
	b1 := f.readU8()
	return uint16(b0) | uint16(b1)<<8
}

func (f *framer) readU32() uint32 {
	b0 := f.readU8()
	b1 := f.readU8()
	b2 := f.readU8()
	b3 := f.readU8()
	return uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16 | uint32(b3)<<24
}

func (f *framer) readBytes(dst []byte) {
	for i := range dst {
		dst[i] = f.readU8()
	}
}

func (f *framer) writeU8(v byte) {
	if f.budget == 0 {
		return
	}
	f.budget--
	f.transfer(v)
}

func (f *framer) writeU16(v uint16) {
	f.writeU8(byte(v))
	f.writeU8(byte(v >> 8))
}

func (f *framer) writeU32(v uint32) {
	f.writeU8(byte(v))
	f.writeU8(byte(v >> 8))
	f.writeU8(byte(v >> 16))
	f.writeU8(byte(v >> 24))
}

func (f *framer) writeBytes(src []byte) {
	for _, b := range src {
		f.writeU8(b)
	}
}

// drain consumes and discards the unread remainder of the budget. Bounded by
// the budget, so it always terminates.
func (f *framer) drain() {
	for f.budget > 0 {
		f.readU8()
	}
}
