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

// HCI command opcodes. The chip answers each command with an event carrying
// the same code, so these double as the expected-event values for the
// correlator.
const (
	cmdWlanConnect         = 0x0001
	cmdWlanDisconnect      = 0x0002
	cmdSetConnectionPolicy = 0x0004
	cmdEventMask           = 0x0008

	cmdSocket        = 0x1001
	cmdBind          = 0x1002
	cmdRecv          = 0x1004
	cmdAccept        = 0x1005
	cmdListen        = 0x1006
	cmdConnect       = 0x1007
	cmdSelect        = 0x1008
	cmdSetSockOpt    = 0x1009
	cmdCloseSocket   = 0x100B
	cmdGetHostByName = 0x1010
	cmdMDNSAdvertise = 0x1011

	cmdNetappSetTimers = 0x2009

	cmdSimpleLinkStart = 0x4000
	cmdReadBufferSize  = 0x400B
)

// HCI data opcodes, a single byte on the data path.
const (
	dataOpSend     = 0x81
	dataOpSendTo   = 0x83
	dataOpRecvFrom = 0x84
	dataOpRecv     = 0x85
	dataOpNvmem    = 0x91
)

// Event codes delivered to the user callback. The unsolicited codes come from
// the chip; EvntLocked is synthesized by the host when a response deadline
// expires.
const (
	// EvntSend acknowledges a data-path send.
	EvntSend = 0x1003

	// EvntDataUnsolFreeBuff reports transmit buffers returned by the chip.
	EvntDataUnsolFreeBuff = 0x4100

	// EvntWlanUnsolConnect signals association with an access point.
	EvntWlanUnsolConnect = 0x8001
	// EvntWlanUnsolDisconnect signals loss of association.
	EvntWlanUnsolDisconnect = 0x8002
	// EvntWlanUnsolInit signals chip-side initialization completion.
	EvntWlanUnsolInit = 0x8004
	// EvntWlanTxComplete signals a completed transmission.
	EvntWlanTxComplete = 0x8008
	// EvntWlanUnsolDHCP carries the DHCP-assigned IPv4 address.
	EvntWlanUnsolDHCP = 0x8010
	// EvntWlanAsyncPingReport carries ping results.
	EvntWlanAsyncPingReport = 0x8040
	// EvntWlanAsyncSimpleConfigDone signals SmartConfig completion.
	EvntWlanAsyncSimpleConfigDone = 0x8080
	// EvntWlanKeepalive is the chip's periodic liveness event.
	EvntWlanKeepalive = 0x8200
	// EvntWlanUnsolTCPCloseWait signals a remote half-close; the callback
	// argument is the affected socket descriptor.
	EvntWlanUnsolTCPCloseWait = 0x8800

	// EvntLocked is delivered to the callback when a command response does
	// not arrive before its deadline. Host-synthesized, never on the wire.
	EvntLocked = 0xFF00
)

// eventNone marks an empty pending-request slot.
const eventNone = 0xFFFF

// EventCallback receives every unsolicited event, with the event code and its
// first 32-bit argument (zero when the event carries none). It also receives
// EvntLocked with a zero argument when a response deadline expires. The
// callback runs on the interrupt watcher goroutine: it must not issue driver
// calls and should return quickly.
type EventCallback func(event uint16, arg uint32)

// Socket address families, types and protocols understood by the chip.
const (
	AFInet = 2

	SockStream = 1
	SockDgram  = 2
	SockRaw    = 3

	IPProtoTCP = 6
	IPProtoUDP = 17
	IPProtoRaw = 255
)

// WLAN security modes accepted by WlanConnect.
const (
	SecUnsecured = 0
	SecWEP       = 1
	SecWPA       = 2
	SecWPA2      = 3
)

// maxSocketDescriptor bounds the descriptors the chip can hand out. Accept
// results outside [0, maxSocketDescriptor) are failures.
const maxSocketDescriptor = 8

// hostnameMaxLength is the chip-side limit on GetHostByName names.
const hostnameMaxLength = 32

// mdnsServiceNameMaxLength is the chip-side limit on MDNSAdvertise names.
const mdnsServiceNameMaxLength = 32
