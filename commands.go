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
	"time"
)

// Per-command response deadlines, matching the chip's documented worst cases.
const (
	shortCommandTimeout = time.Second
	recvCommandTimeout  = 5 * time.Second
	sendCommandTimeout  = 5 * time.Second
	longCommandTimeout  = 10 * time.Second
)

// Socket opens a socket on the chip. Domain, type and protocol take the
// AFInet/SockStream/IPProtoTCP families of constants. The returned descriptor
// is non-negative; a negative value is the chip's error code.
func (d *Device) Socket(domain, sockType, protocol uint32) (int, error) {
	if err := d.beginCommand(cmdSocket, 12); err != nil {
		return -1, err
	}
	d.fr.writeU32(domain)
	d.fr.writeU32(sockType)
	d.fr.writeU32(protocol)

	result, err := d.receiveU32Result(cmdSocket, shortCommandTimeout)
	if err != nil {
		return -1, err
	}
	return int(int32(result)), nil
}

// Bind binds a socket to a local endpoint. A nil address or zero length
// fails immediately without a bus round trip. The address length on the wire
// is always 8, irrespective of the caller's addrlen.
func (d *Device) Bind(sd int, addr *SockAddr, addrlen int) (int, error) {
	if addr == nil || addrlen == 0 {
		return -1, newHCIError("bind", ErrInvalidParameter)
	}

	if err := d.beginCommand(cmdBind, 20); err != nil {
		return -1, err
	}
	raw := addr.marshal()
	d.fr.writeU32(uint32(sd))
	d.fr.writeU32(sockAddrLength)
	d.fr.writeU32(sockAddrLength)
	d.fr.writeBytes(raw[:])

	result, err := d.receiveU32Result(cmdBind, shortCommandTimeout)
	if err != nil {
		return -1, err
	}
	return int(int32(result)), nil
}

// Listen marks a socket as passive.
func (d *Device) Listen(sd, backlog int) (int, error) {
	if err := d.beginCommand(cmdListen, 8); err != nil {
		return -1, err
	}
	d.fr.writeU32(uint32(sd))
	d.fr.writeU32(uint32(backlog))

	result, err := d.receiveU32Result(cmdListen, shortCommandTimeout)
	if err != nil {
		return -1, err
	}
	return int(int32(result)), nil
}

// Accept takes the next connection on a listening socket, returning the new
// descriptor and the peer address. The response carries two descriptor-like
// fields; the first is misleading and the second is the real socket id. Any
// decoded descriptor outside [0, 8) is a failure and returns -1 with a nil
// address and no error, per the chip's negative-result convention.
func (d *Device) Accept(sd int) (int, *SockAddr, error) {
	if err := d.beginCommand(cmdAccept, 4); err != nil {
		return -1, nil, err
	}
	d.fr.writeU32(uint32(sd))

	if err := d.endCommandBeginReceive(cmdAccept, shortCommandTimeout); err != nil {
		if closeErr := d.endReceive(); closeErr != nil {
			d.log.Error("close after failed accept", "err", closeErr)
		}
		return -1, nil, err
	}

	d.fr.readU8()  // status
	d.fr.readU32() // leading descriptor field, not the real one
	newSd := int(int32(d.fr.readU32()))

	var raw [sockAddrLength]byte
	d.fr.readBytes(raw[:])

	if err := d.endReceive(); err != nil {
		return -1, nil, err
	}

	if newSd < 0 || newSd >= maxSocketDescriptor {
		return -1, nil, nil
	}
	peer := unmarshalSockAddr(raw[:])
	return newSd, &peer, nil
}

// Connect connects a socket to a remote endpoint. A nil address fails
// immediately without a bus round trip. The address length on the wire is
// always 8, irrespective of the caller's addrlen.
func (d *Device) Connect(sd int, addr *SockAddr, addrlen int) (int, error) {
	if addr == nil || addrlen == 0 {
		return -1, newHCIError("connect", ErrInvalidParameter)
	}
	addrlen = sockAddrLength // the chip admits nothing else

	if err := d.beginCommand(cmdConnect, 12+addrlen); err != nil {
		return -1, err
	}
	raw := addr.marshal()
	d.fr.writeU32(uint32(sd))
	d.fr.writeU32(sockAddrLength)
	d.fr.writeU32(uint32(addrlen))
	d.fr.writeBytes(raw[:])

	result, err := d.receiveU32Result(cmdConnect, longCommandTimeout)
	if err != nil {
		return -1, err
	}
	return int(int32(result)), nil
}

// Send transmits buf on a connected socket. A transmit buffer credit must be
// held before the data leaves the host; Send blocks up to the configured
// SendTimeout for one, then uses the data path rather than the command path.
//
// The returned count echoes len(buf): the chip's acknowledgment carries no
// accepted-byte count, so a short accept is not observable here. TI's
// reference driver behaves identically.
func (d *Device) Send(sd int, buf []byte, flags uint32) (int, error) {
	if err := d.takeCredit(); err != nil {
		return -1, err
	}

	if err := d.beginData(dataOpSend, 16, len(buf)); err != nil {
		d.returnCredit()
		return -1, err
	}
	d.fr.writeU32(uint32(sd))
	d.fr.writeU32(12) // offset to the payload within the data arguments
	d.fr.writeU32(uint32(len(buf)))
	d.fr.writeU32(flags)
	d.fr.writeBytes(buf)

	if err := d.endCommandBeginReceive(EvntSend, sendCommandTimeout); err != nil {
		if closeErr := d.endReceive(); closeErr != nil {
			d.log.Error("close after failed send", "err", closeErr)
		}
		return -1, err
	}
	if err := d.endReceive(); err != nil {
		return -1, err
	}
	return len(buf), nil
}

// takeCredit consumes one transmit buffer credit, blocking while the pool is
// empty. Credit replenishment arrives through unsolicited free-buffer events.
func (d *Device) takeCredit() error {
	deadline := time.Now().Add(d.cfg.SendTimeout)
	d.mu.Lock()
	for d.availableBuffers == 0 {
		if !d.condWait(deadline) {
			d.mu.Unlock()
			return newHCIError("send", ErrNoCredits)
		}
	}
	d.availableBuffers--
	d.mu.Unlock()
	return nil
}

// returnCredit undoes takeCredit when the send never reached the chip.
func (d *Device) returnCredit() {
	d.mu.Lock()
	if d.availableBuffers < d.bufferCount {
		d.availableBuffers++
	}
	d.cond.Broadcast()
	d.mu.Unlock()
}

// Recv reads from a socket into buf. The command round trip reports how many
// bytes the chip holds; when that is positive the body follows in a separate
// data message, awaited and then read directly off the bus, clamped to
// len(buf). The chip drops the unread remainder when the frame closes. A
// reported length of zero or less returns immediately with no data wait.
func (d *Device) Recv(sd int, buf []byte, flags uint32) (int, error) {
	if err := d.beginCommand(cmdRecv, 12); err != nil {
		return -1, err
	}
	d.fr.writeU32(uint32(sd))
	d.fr.writeU32(uint32(len(buf)))
	d.fr.writeU32(flags)

	if err := d.endCommandBeginReceive(cmdRecv, recvCommandTimeout); err != nil {
		if closeErr := d.endReceive(); closeErr != nil {
			d.log.Error("close after failed recv", "err", closeErr)
		}
		return -1, err
	}

	d.fr.readU8()  // status
	d.fr.readU32() // descriptor echo
	length := int(int32(d.fr.readU32()))
	d.fr.readU32() // flags echo

	if err := d.endReceive(); err != nil {
		return -1, err
	}

	if length <= 0 {
		return length, nil
	}

	if err := d.waitData(d.cfg.DataTimeout); err != nil {
		return -1, err
	}

	if length > len(buf) {
		length = len(buf)
	}
	for i := 0; i < length; i++ {
		buf[i] = d.fr.readU8()
	}

	if err := d.endReceive(); err != nil {
		return -1, err
	}
	return length, nil
}

// selectWidthMarker is the fixed fd-set width field repeated four times in
// the select arguments.
const selectWidthMarker = 0x14

// selectMinTimeout is the floor applied to near-zero select timeouts.
const selectMinTimeout = 5000 * time.Microsecond

// Select waits for readiness on up to three descriptor sets. A nil set is
// not watched; watched sets are updated in place with the ready descriptors.
// A nil timeout blocks on the chip indefinitely. A timeout below 5ms with a
// zero seconds field is raised to 5ms on the wire.
func (d *Device) Select(nfds int, readSet, writeSet, exceptSet *FdSet, timeout *Timeval) (int, error) {
	if err := d.beginCommand(cmdSelect, 44); err != nil {
		return -1, err
	}

	d.fr.writeU32(uint32(nfds))
	d.fr.writeU32(selectWidthMarker)
	d.fr.writeU32(selectWidthMarker)
	d.fr.writeU32(selectWidthMarker)
	d.fr.writeU32(selectWidthMarker)

	blocking := uint32(0)
	if timeout != nil {
		blocking = 1
	}
	d.fr.writeU32(blocking)

	d.fr.writeU32(fdSetWord(readSet))
	d.fr.writeU32(fdSetWord(writeSet))
	d.fr.writeU32(fdSetWord(exceptSet))

	if timeout != nil {
		sec, usec := timeout.Sec, timeout.Usec
		if sec == 0 && time.Duration(usec)*time.Microsecond < selectMinTimeout {
			usec = uint32(selectMinTimeout / time.Microsecond)
		}
		d.fr.writeU32(sec)
		d.fr.writeU32(usec)
	} else {
		d.fr.writeU32(0)
		d.fr.writeU32(0)
	}

	if err := d.endCommandBeginReceive(cmdSelect, longCommandTimeout); err != nil {
		if closeErr := d.endReceive(); closeErr != nil {
			d.log.Error("close after failed select", "err", closeErr)
		}
		return -1, err
	}

	d.fr.readU8() // status
	result := int(int32(d.fr.readU32()))

	readReady := FdSet(d.fr.readU32())
	writeReady := FdSet(d.fr.readU32())
	exceptReady := FdSet(d.fr.readU32())

	if err := d.endReceive(); err != nil {
		return -1, err
	}

	if readSet != nil {
		*readSet = readReady
	}
	if writeSet != nil {
		*writeSet = writeReady
	}
	if exceptSet != nil {
		*exceptSet = exceptReady
	}
	return result, nil
}

func fdSetWord(s *FdSet) uint32 {
	if s == nil {
		return 0
	}
	return uint32(*s)
}

// SetSockOpt sets a socket option. The option value is variable length,
// appended after the fixed header.
func (d *Device) SetSockOpt(sd int, level, optname uint32, optval []byte) (int, error) {
	if err := d.beginCommand(cmdSetSockOpt, 20+len(optval)); err != nil {
		return -1, err
	}
	d.fr.writeU32(uint32(sd))
	d.fr.writeU32(level)
	d.fr.writeU32(optname)
	d.fr.writeU32(8) // offset to the option value
	d.fr.writeU32(uint32(len(optval)))
	d.fr.writeBytes(optval)

	result, err := d.receiveU32Result(cmdSetSockOpt, shortCommandTimeout)
	if err != nil {
		return -1, err
	}
	return int(int32(result)), nil
}

// CloseSocket closes a socket. The close command is not issued until every
// transmit buffer credit has been returned by the chip, bounded by the
// configured DrainTimeout; in-flight sends completing after the close would
// otherwise leak their buffers chip-side.
func (d *Device) CloseSocket(sd int) (int, error) {
	deadline := time.Now().Add(d.cfg.DrainTimeout)
	d.mu.Lock()
	for d.availableBuffers != d.bufferCount {
		if !d.condWait(deadline) {
			d.mu.Unlock()
			return -1, newHCIError("close socket", ErrCreditsOutstanding)
		}
	}
	d.mu.Unlock()

	if err := d.beginCommand(cmdCloseSocket, 4); err != nil {
		return -1, err
	}
	d.fr.writeU32(uint32(sd))

	result, err := d.receiveU32Result(cmdCloseSocket, shortCommandTimeout)
	if err != nil {
		return -1, err
	}
	return int(int32(result)), nil
}

// GetHostByName resolves a hostname to an IPv4 address through the chip's
// resolver. The name length is validated against the chip's limit before any
// traffic is generated. The returned status follows the chip's convention:
// zero or positive for success, negative for resolver failure.
func (d *Device) GetHostByName(hostname string) (int, IPv4, error) {
	if err := validateHostname(hostname); err != nil {
		return -1, IPv4{}, err
	}

	if err := d.beginCommand(cmdGetHostByName, 8+len(hostname)); err != nil {
		return -1, IPv4{}, err
	}
	d.fr.writeU32(8) // offset to the name
	d.fr.writeU32(uint32(len(hostname)))
	d.fr.writeBytes([]byte(hostname))

	if err := d.endCommandBeginReceive(cmdGetHostByName, longCommandTimeout); err != nil {
		if closeErr := d.endReceive(); closeErr != nil {
			d.log.Error("close after failed resolve", "err", closeErr)
		}
		return -1, IPv4{}, err
	}

	d.fr.readU8() // status
	result := int(int32(d.fr.readU32()))
	addr := ipv4FromWire(d.fr.readU32())

	if err := d.endReceive(); err != nil {
		return -1, IPv4{}, err
	}
	return result, addr, nil
}
