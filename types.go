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

import (
	"fmt"
	"time"
)

// IPv4 is an IPv4 address in conventional a.b.c.d octet order.
type IPv4 [4]byte

// String implements fmt.Stringer
func (ip IPv4) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", ip[0], ip[1], ip[2], ip[3])
}

// ipv4FromWire converts the 32-bit value the chip returns, whose most
// significant byte is the first address octet.
func ipv4FromWire(v uint32) IPv4 {
	return IPv4{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

// sockAddrLength is the address size the chip expects on the wire,
// regardless of what a caller supplies.
const sockAddrLength = 8

// SockAddr is the 8-byte IPv4 endpoint in the chip's sockaddr_in layout:
// little-endian family, network-order port, then the four address octets.
type SockAddr struct {
	Family uint16
	Port   uint16
	Addr   IPv4
}

// NewSockAddr builds an AF_INET endpoint.
func NewSockAddr(addr IPv4, port uint16) *SockAddr {
	return &SockAddr{Family: AFInet, Port: port, Addr: addr}
}

func (a *SockAddr) marshal() [sockAddrLength]byte {
	var b [sockAddrLength]byte
	b[0] = byte(a.Family)
	b[1] = byte(a.Family >> 8)
	b[2] = byte(a.Port >> 8)
	b[3] = byte(a.Port)
	copy(b[4:], a.Addr[:])
	return b
}

func unmarshalSockAddr(b []byte) SockAddr {
	var a SockAddr
	a.Family = uint16(b[0]) | uint16(b[1])<<8
	a.Port = uint16(b[2])<<8 | uint16(b[3])
	copy(a.Addr[:], b[4:8])
	return a
}

// FdSet is a descriptor set for Select, one bit per descriptor. The chip
// supports at most eight sockets, so a single 32-bit word covers the set.
type FdSet uint32

// Set adds a descriptor to the set.
func (s *FdSet) Set(sd int) { *s |= 1 << uint(sd) }

// Clear removes a descriptor from the set.
func (s *FdSet) Clear(sd int) { *s &^= 1 << uint(sd) }

// IsSet reports whether a descriptor is in the set.
func (s *FdSet) IsSet(sd int) bool { return *s&(1<<uint(sd)) != 0 }

// Zero empties the set.
func (s *FdSet) Zero() { *s = 0 }

// Timeval is the BSD select timeout. A zero-valued Timeval (under 5ms total)
// is clamped to 5ms on the wire: the chip misbehaves on a true zero poll.
type Timeval struct {
	Sec  uint32
	Usec uint32
}

// TimevalFromDuration converts a duration to the chip's timeout layout.
func TimevalFromDuration(t time.Duration) Timeval {
	return Timeval{
		Sec:  uint32(t / time.Second),
		Usec: uint32((t % time.Second) / time.Microsecond),
	}
}
