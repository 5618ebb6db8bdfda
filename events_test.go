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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnsolicited_ConnectAndDisconnect(t *testing.T) {
	t.Parallel()

	device, chip, rec := newTestDevice(t)
	assert.False(t, device.Connected())

	chip.InjectEvent(EvntWlanUnsolConnect, nil)
	waitFor(t, "association", device.Connected)
	assert.True(t, rec.has(EvntWlanUnsolConnect))

	chip.InjectEvent(EvntWlanUnsolDisconnect, nil)
	waitFor(t, "disassociation", func() bool { return !device.Connected() })
	assert.False(t, device.DHCPComplete())
	assert.True(t, rec.has(EvntWlanUnsolDisconnect))
}

func TestUnsolicited_DHCPLease(t *testing.T) {
	t.Parallel()

	device, chip, _ := newTestDevice(t)

	// The address octets arrive in reverse order.
	chip.InjectEvent(EvntWlanUnsolDHCP, []byte{0, 20, 1, 168, 192})
	waitFor(t, "dhcp lease", device.DHCPComplete)
	assert.Equal(t, "192.168.1.20", device.IPAddr().String())
}

func TestUnsolicited_DisconnectClearsLease(t *testing.T) {
	t.Parallel()

	device, chip, _ := newTestDevice(t)

	chip.InjectEvent(EvntWlanUnsolConnect, nil)
	chip.InjectEvent(EvntWlanUnsolDHCP, []byte{0, 1, 0, 0, 10})
	waitFor(t, "dhcp lease", device.DHCPComplete)

	chip.InjectEvent(EvntWlanUnsolDisconnect, nil)
	waitFor(t, "lease cleared", func() bool { return !device.DHCPComplete() })
}

func TestUnsolicited_TCPCloseWait(t *testing.T) {
	t.Parallel()

	_, chip, rec := newTestDevice(t)

	// The callback argument is the affected socket descriptor.
	chip.InjectEvent(EvntWlanUnsolTCPCloseWait, append([]byte{0}, u32LE(3)...))
	waitFor(t, "close-wait delivery", func() bool {
		return rec.has(EvntWlanUnsolTCPCloseWait)
	})

	for _, e := range rec.recorded() {
		if e.code == EvntWlanUnsolTCPCloseWait {
			assert.Equal(t, uint32(3), e.arg)
		}
	}
}

func TestUnsolicited_FreeBufferAccumulation(t *testing.T) {
	t.Parallel()

	device, chip, _ := newTestDevice(t)

	// Consume two credits without any replenishment.
	chip.RespondDataAck(dataOpSend, EvntSend, []byte{0})
	for i := 0; i < 2; i++ {
		_, err := device.Send(1, []byte("x"), 0)
		assert.NoError(t, err)
	}
	available, total := device.BufferCredits()
	assert.Equal(t, total-2, available)

	// A single event can return several pool entries at once.
	chip.InjectEvent(EvntDataUnsolFreeBuff, []byte{
		0,    // status
		2, 0, // two entries follow
		0, 0, 1, 0,
		0, 0, 1, 0,
	})
	waitFor(t, "credits restored", func() bool {
		available, total := device.BufferCredits()
		return available == total
	})
}

func TestUnsolicited_CreditOverflowClamped(t *testing.T) {
	t.Parallel()

	device, chip, _ := newTestDevice(t)

	// A chip reporting more freed buffers than the pool holds must not
	// inflate the credit count.
	chip.InjectEvent(EvntDataUnsolFreeBuff, []byte{0, 1, 0, 0, 0, 9, 0})
	waitFor(t, "event processed", func() bool { return chip.PendingMessages() == 0 })

	available, total := device.BufferCredits()
	assert.Equal(t, total, available)
	assert.Equal(t, testBufferCount, total)
}

func TestUnsolicited_KeepaliveReachesCallback(t *testing.T) {
	t.Parallel()

	_, chip, rec := newTestDevice(t)

	chip.InjectEvent(EvntWlanKeepalive, nil)
	waitFor(t, "keepalive delivery", func() bool { return rec.has(EvntWlanKeepalive) })
}
