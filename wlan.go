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

// Power sequencing settle times. The chip needs the enable line held low
// before power-up and a settle period after.
const (
	powerDownSettle = 500 * time.Millisecond
	powerUpSettle   = 100 * time.Millisecond
)

// wlanConnectTimeout allows for a full scan/join/auth cycle.
const wlanConnectTimeout = 60 * time.Second

// Init brings the chip out of reset and readies it for socket traffic: power
// cycle, the first command (which has its own handshake), transmit buffer
// negotiation and the unsolicited event mask.
//
// The interrupt dispatcher is attached between writing the first command's
// body and waiting for its response, exactly where the handshake requires it:
// earlier and the dispatcher would consume the power-on readiness signal,
// later and the response could be missed.
func (d *Device) Init() error {
	d.transport.SetEnable(false)
	time.Sleep(powerDownSettle)

	d.transport.SetChipSelect(false)
	d.transport.SetEnable(true)
	time.Sleep(powerUpSettle)

	// Bus clock mode, bit order and divider are the transport's concern
	// and are configured before this point.
	time.Sleep(powerUpSettle)

	if err := d.beginFirstCommand(cmdSimpleLinkStart, 1); err != nil {
		return err
	}
	d.fr.writeU8(0) // no patches requested

	if err := d.transport.AttachInterrupt(d.serviceIRQ); err != nil {
		return newHCIError("attach interrupt", err)
	}

	if err := d.endCommandBeginReceive(cmdSimpleLinkStart, shortCommandTimeout); err != nil {
		if closeErr := d.endReceive(); closeErr != nil {
			d.log.Error("close after failed start", "err", closeErr)
		}
		return err
	}
	if err := d.endReceive(); err != nil {
		return err
	}

	if err := d.readBufferSize(); err != nil {
		return err
	}

	if err := d.setEventMask(EvntWlanKeepalive | EvntWlanUnsolInit); err != nil {
		return err
	}

	d.log.Info("chip initialized",
		"buffers", d.bufferCount, "buffer_size", d.bufferSize)
	return nil
}

// readBufferSize negotiates the transmit buffer pool: the chip reports how
// many buffers it has and how large each is, and the pool starts full.
func (d *Device) readBufferSize() error {
	if err := d.beginCommand(cmdReadBufferSize, 0); err != nil {
		return err
	}
	if err := d.endCommandBeginReceive(cmdReadBufferSize, shortCommandTimeout); err != nil {
		if closeErr := d.endReceive(); closeErr != nil {
			d.log.Error("close after failed negotiation", "err", closeErr)
		}
		return err
	}

	d.fr.readU8() // status
	count := d.fr.readU8()
	size := d.fr.readU16()

	if err := d.endReceive(); err != nil {
		return err
	}

	d.mu.Lock()
	d.bufferCount = count
	d.availableBuffers = count
	d.bufferSize = size
	d.mu.Unlock()
	return nil
}

// setEventMask tells the chip which unsolicited events to suppress.
func (d *Device) setEventMask(mask uint32) error {
	if err := d.beginCommand(cmdEventMask, 4); err != nil {
		return err
	}
	d.fr.writeU32(mask)

	if err := d.endCommandBeginReceive(cmdEventMask, shortCommandTimeout); err != nil {
		if closeErr := d.endReceive(); closeErr != nil {
			d.log.Error("close after failed event mask", "err", closeErr)
		}
		return err
	}
	return d.endReceive()
}

// WlanConnect associates with an access point. Security is one of the Sec*
// constants; bssid may be nil to match any BSSID, key carries the passphrase
// or WEP key and may be empty for open networks. Association outcome arrives
// separately as unsolicited connect/DHCP events; the returned value is the
// chip's immediate status.
func (d *Device) WlanConnect(security uint32, ssid string, bssid []byte, key []byte) (int, error) {
	if ssid == "" {
		return -1, newHCIError("wlan connect", ErrInvalidParameter)
	}
	if bssid != nil && len(bssid) != 6 {
		return -1, newHCIError("wlan connect", ErrInvalidParameter)
	}

	if err := d.beginCommand(cmdWlanConnect, 28+len(ssid)+len(key)); err != nil {
		return -1, err
	}
	d.fr.writeU32(0x1c)
	d.fr.writeU32(uint32(len(ssid)))
	d.fr.writeU32(security)
	d.fr.writeU32(uint32(16 + len(ssid)))
	d.fr.writeU32(uint32(len(key)))
	d.fr.writeU16(0)
	if bssid != nil {
		d.fr.writeBytes(bssid)
	} else {
		d.fr.writeBytes(make([]byte, 6))
	}
	d.fr.writeBytes([]byte(ssid))
	d.fr.writeBytes(key)

	result, err := d.receiveU32Result(cmdWlanConnect, wlanConnectTimeout)
	if err != nil {
		return -1, err
	}
	return int(int32(result)), nil
}

// WlanDisconnect drops the current association. Disassociation is also
// reported through the unsolicited disconnect event.
func (d *Device) WlanDisconnect() (int, error) {
	if err := d.beginCommand(cmdWlanDisconnect, 0); err != nil {
		return -1, err
	}

	result, err := d.receiveU32Result(cmdWlanDisconnect, shortCommandTimeout)
	if err != nil {
		return -1, err
	}
	return int(int32(result)), nil
}

// SetConnectionPolicy configures the chip's automatic connection behavior.
func (d *Device) SetConnectionPolicy(openAP, fastConnect, useProfiles bool) (int, error) {
	if err := d.beginCommand(cmdSetConnectionPolicy, 12); err != nil {
		return -1, err
	}
	d.fr.writeU32(boolWord(openAP))
	d.fr.writeU32(boolWord(fastConnect))
	d.fr.writeU32(boolWord(useProfiles))

	result, err := d.receiveU32Result(cmdSetConnectionPolicy, shortCommandTimeout)
	if err != nil {
		return -1, err
	}
	return int(int32(result)), nil
}

// minNetworkTimer is the chip's floor for the network timer values; non-zero
// values below it are raised.
const minNetworkTimer = 20

// SetNetworkTimeouts configures the chip's DHCP lease renew, ARP refresh,
// keepalive and socket inactivity timers, all in seconds. Zero disables a
// timer; non-zero values below 20 seconds are raised to 20.
func (d *Device) SetNetworkTimeouts(dhcp, arp, keepalive, inactivity uint32) (int, error) {
	if err := d.beginCommand(cmdNetappSetTimers, 16); err != nil {
		return -1, err
	}
	d.fr.writeU32(clampTimer(dhcp))
	d.fr.writeU32(clampTimer(arp))
	d.fr.writeU32(clampTimer(keepalive))
	d.fr.writeU32(clampTimer(inactivity))

	result, err := d.receiveU32Result(cmdNetappSetTimers, shortCommandTimeout)
	if err != nil {
		return -1, err
	}
	return int(int32(result)), nil
}

// MDNSAdvertise enables or disables mDNS advertisement of a service name.
// Chip firmware 1.32 and later dropped this command; on those modules the
// advertisement has to be produced host-side instead.
func (d *Device) MDNSAdvertise(enable bool, serviceName string) (int, error) {
	if len(serviceName) > mdnsServiceNameMaxLength {
		return -1, newHCIError("mdns advertise", ErrInvalidParameter)
	}

	if err := d.beginCommand(cmdMDNSAdvertise, 12+len(serviceName)); err != nil {
		return -1, err
	}
	d.fr.writeU32(boolWord(enable))
	d.fr.writeU32(8) // offset to the name
	d.fr.writeU32(uint32(len(serviceName)))
	d.fr.writeBytes([]byte(serviceName))

	result, err := d.receiveU32Result(cmdMDNSAdvertise, sendCommandTimeout)
	if err != nil {
		return -1, err
	}
	return int(int32(result)), nil
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func clampTimer(v uint32) uint32 {
	if v != 0 && v < minNetworkTimer {
		return minNetworkTimer
	}
	return v
}
