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

/*
Package tinyhci is a host-side driver for the TI CC3000 WiFi co-processor,
exposing BSD-socket-style networking over the chip's Host Controller
Interface (HCI) protocol on a synchronous SPI bus with a single interrupt
line.

Features:
  - Full socket shim: Socket, Bind, Listen, Accept, Connect, Send, Recv,
    Select, SetSockOpt, CloseSocket, GetHostByName
  - WLAN management: association, disconnect, connection policy, network
    timers, mDNS advertisement
  - Transmit flow control through the chip's buffer credit pool
  - Unsolicited event delivery (association, DHCP, TCP half-close) through
    a user callback
  - Every wait bounded by a configurable deadline and surfaced as a typed
    error instead of a hang
  - periph.io SPI/GPIO transport and an in-package simulated chip for tests

Basic Usage:

	import (
	    "github.com/Sweet-Peas/tinyhci"
	    "github.com/Sweet-Peas/tinyhci/transport/spi"
	)

	transport, err := spi.New("SPI0.0", spi.Pins{
	    ChipSelect: "GPIO6",
	    Interrupt:  "GPIO7",
	    Enable:     "GPIO5",
	})
	if err != nil {
	    log.Fatal(err)
	}
	defer transport.Close()

	device, err := tinyhci.New(transport)
	if err != nil {
	    log.Fatal(err)
	}
	if err := device.Init(); err != nil {
	    log.Fatal(err)
	}

	if _, err := device.WlanConnect(tinyhci.SecWPA2, "ssid", nil, []byte("passphrase")); err != nil {
	    log.Fatal(err)
	}

	sd, err := device.Socket(tinyhci.AFInet, tinyhci.SockStream, tinyhci.IPProtoTCP)
	if err != nil {
	    log.Fatal(err)
	}
	device.Connect(sd, tinyhci.NewSockAddr(tinyhci.IPv4{93, 184, 216, 34}, 80), 8)

Concurrency:

The driver is built for exactly two contexts: one synchronous caller and the
transport's interrupt watcher goroutine running the dispatcher. Commands are
strictly one-at-a-time; issuing a command while the previous receive cycle is
open fails with ErrRequestPending. There is no queueing or retry layer.

Error Handling:

Transport and protocol-state failures are Go errors that can be inspected:

	if errors.Is(err, tinyhci.ErrResponseTimeout) {
	    // the frame has still been closed; the bus remains usable
	}

Chip-reported failures (a negative descriptor from Socket, -1 from Accept)
keep the chip's negative-result convention and return a nil error.

Known Limitations:

The HCI framing layer has no checksum or error code: a desynchronized bus is
not detectable and manifests as garbage on subsequent reads. A data message
arriving when no caller is waiting for one is misinterpreted as the awaited
body; the chip does not send unsolicited data under the operations this
driver issues, but the window exists. Send reports the requested byte count,
not a chip-confirmed count, because the acknowledgment event carries none.
*/
package tinyhci
