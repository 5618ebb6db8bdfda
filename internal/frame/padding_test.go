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

package frame

import "testing"

func TestCommandPad(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		argsSize int
		want     bool
	}{
		{
			name:     "zero args pads",
			argsSize: 0,
			want:     true,
		},
		{
			name:     "odd args does not pad",
			argsSize: 1,
			want:     false,
		},
		{
			name:     "even args pads",
			argsSize: 12,
			want:     true,
		},
		{
			name:     "large odd args does not pad",
			argsSize: 41,
			want:     false,
		},
	}

	for _, tt := range tests {
		tt := tt // capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CommandPad(tt.argsSize); got != tt.want {
				t.Errorf("CommandPad(%d) = %v, want %v", tt.argsSize, got, tt.want)
			}
		})
	}
}

func TestDataPad(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		totalSize int
		want      bool
	}{
		{
			name:      "zero total does not pad",
			totalSize: 0,
			want:      false,
		},
		{
			name:      "odd total pads",
			totalSize: 17,
			want:      true,
		},
		{
			name:      "even total does not pad",
			totalSize: 16,
			want:      false,
		},
	}

	for _, tt := range tests {
		tt := tt // capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DataPad(tt.totalSize); got != tt.want {
				t.Errorf("DataPad(%d) = %v, want %v", tt.totalSize, got, tt.want)
			}
		})
	}
}

// The chip requires each command packet, 5-byte write header included, to be
// 16-bit aligned. The data path uses the opposite parity; both rules are kept
// exactly as the chip expects them.
func TestCommandPacketAlignment(t *testing.T) {
	t.Parallel()
	for args := 0; args < 64; args++ {
		n := WriteHeaderLength + PayloadLength(args, CommandPad(args))
		if n%2 != 0 {
			t.Errorf("command packet for args=%d not 16-bit aligned: %d bytes", args, n)
		}
	}
}
