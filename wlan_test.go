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
	"github.com/stretchr/testify/require"
)

func TestWlanConnect_Encoding(t *testing.T) {
	t.Parallel()

	device, chip, _ := newTestDevice(t)
	chip.RespondStatusU32(cmdWlanConnect, 0, 0)

	result, err := device.WlanConnect(SecWPA2, "net", nil, []byte("pass"))
	require.NoError(t, err)
	assert.Equal(t, 0, result)

	f := chip.LastFrame()
	require.NotNil(t, f)
	assert.Equal(t, uint16(cmdWlanConnect), f.Opcode)
	assert.Equal(t, 28+3+4, f.ArgsSize)

	var want []byte
	want = append(want, u32LE(0x1C)...)
	want = append(want, u32LE(3)...)       // ssid length
	want = append(want, u32LE(SecWPA2)...) // security mode
	want = append(want, u32LE(16+3)...)    // offset to the key
	want = append(want, u32LE(4)...)       // key length
	want = append(want, 0, 0)
	want = append(want, make([]byte, 6)...) // wildcard bssid
	want = append(want, []byte("net")...)
	want = append(want, []byte("pass")...)
	assert.Equal(t, want, f.Args)
}

func TestWlanConnect_ExplicitBSSID(t *testing.T) {
	t.Parallel()

	device, chip, _ := newTestDevice(t)
	chip.RespondStatusU32(cmdWlanConnect, 0, 0)

	bssid := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01}
	_, err := device.WlanConnect(SecUnsecured, "open-net", bssid, nil)
	require.NoError(t, err)

	f := chip.LastFrame()
	require.NotNil(t, f)
	assert.Equal(t, bssid, f.Args[22:28])
}

func TestWlanConnect_Validation(t *testing.T) {
	t.Parallel()

	device, chip, _ := newTestDevice(t)
	framesBefore := len(chip.Frames())

	_, err := device.WlanConnect(SecWPA2, "", nil, []byte("pass"))
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = device.WlanConnect(SecWPA2, "net", []byte{1, 2, 3}, []byte("pass"))
	require.ErrorIs(t, err, ErrInvalidParameter)

	assert.Len(t, chip.Frames(), framesBefore)
}

func TestWlanDisconnect(t *testing.T) {
	t.Parallel()

	device, chip, _ := newTestDevice(t)
	chip.RespondStatusU32(cmdWlanDisconnect, 0, 0)

	result, err := device.WlanDisconnect()
	require.NoError(t, err)
	assert.Equal(t, 0, result)

	f := chip.LastFrame()
	require.NotNil(t, f)
	assert.Equal(t, 0, f.ArgsSize)
	assert.True(t, f.Pad)
}

func TestSetConnectionPolicy(t *testing.T) {
	t.Parallel()

	device, chip, _ := newTestDevice(t)
	chip.RespondStatusU32(cmdSetConnectionPolicy, 0, 0)

	_, err := device.SetConnectionPolicy(false, true, false)
	require.NoError(t, err)

	var want []byte
	want = append(want, u32LE(0)...)
	want = append(want, u32LE(1)...)
	want = append(want, u32LE(0)...)
	assert.Equal(t, want, chip.LastFrame().Args)
}

func TestSetNetworkTimeouts_ClampsToFloor(t *testing.T) {
	t.Parallel()

	device, chip, _ := newTestDevice(t)
	chip.RespondStatusU32(cmdNetappSetTimers, 0, 0)

	// Zero disables a timer; non-zero values below 20 seconds are raised.
	_, err := device.SetNetworkTimeouts(5, 0, 30, 19)
	require.NoError(t, err)

	var want []byte
	want = append(want, u32LE(20)...)
	want = append(want, u32LE(0)...)
	want = append(want, u32LE(30)...)
	want = append(want, u32LE(20)...)
	assert.Equal(t, want, chip.LastFrame().Args)
}

func TestMDNSAdvertise(t *testing.T) {
	t.Parallel()

	device, chip, _ := newTestDevice(t)
	chip.RespondStatusU32(cmdMDNSAdvertise, 0, 0)

	name := "myservice"
	result, err := device.MDNSAdvertise(true, name)
	require.NoError(t, err)
	assert.Equal(t, 0, result)

	f := chip.LastFrame()
	require.NotNil(t, f)
	assert.Equal(t, 12+len(name), f.ArgsSize)

	var want []byte
	want = append(want, u32LE(1)...)
	want = append(want, u32LE(8)...) // offset to the name
	want = append(want, u32LE(uint32(len(name)))...)
	want = append(want, []byte(name)...)
	assert.Equal(t, want, f.Args)
}

func TestMDNSAdvertise_NameTooLong(t *testing.T) {
	t.Parallel()

	device, chip, _ := newTestDevice(t)
	framesBefore := len(chip.Frames())

	long := make([]byte, mdnsServiceNameMaxLength+1)
	for i := range long {
		long[i] = 's'
	}
	_, err := device.MDNSAdvertise(true, string(long))
	require.ErrorIs(t, err, ErrInvalidParameter)
	assert.Len(t, chip.Frames(), framesBefore)
}
