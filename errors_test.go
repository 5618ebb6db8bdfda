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
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "response timeout retryable",
			err:  ErrResponseTimeout,
			want: true,
		},
		{
			name: "ready timeout retryable",
			err:  ErrReadyTimeout,
			want: true,
		},
		{
			name: "data timeout retryable",
			err:  ErrDataTimeout,
			want: true,
		},
		{
			name: "no credits retryable",
			err:  ErrNoCredits,
			want: true,
		},
		{
			name: "credits outstanding retryable",
			err:  ErrCreditsOutstanding,
			want: true,
		},
		{
			name: "bus fault retryable",
			err:  ErrBusFault,
			want: true,
		},
		{
			name: "chip not found not retryable",
			err:  ErrChipNotFound,
			want: false,
		},
		{
			name: "stuck interrupt line not retryable",
			err:  ErrIRQStuck,
			want: false,
		},
		{
			name: "request pending not retryable",
			err:  ErrRequestPending,
			want: false,
		},
		{
			name: "invalid parameter not retryable",
			err:  ErrInvalidParameter,
			want: false,
		},
		{
			name: "hostname too long not retryable",
			err:  ErrHostnameTooLong,
			want: false,
		},
		{
			name: "wrapped response timeout retryable",
			err:  fmt.Errorf("outer: %w", ErrResponseTimeout),
			want: true,
		},
		{
			name: "hci error wrapping sentinel",
			err:  newHCIError("command", ErrResponseTimeout),
			want: true,
		},
		{
			name: "hci error wrapping fatal sentinel",
			err:  newHCIError("detect", ErrChipNotFound),
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := IsRetryable(tt.err)
			if got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetErrorType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want ErrorType
	}{
		{
			name: "chip not found is fatal",
			err:  ErrChipNotFound,
			want: ErrorTypeFatal,
		},
		{
			name: "stuck interrupt line is fatal",
			err:  ErrIRQStuck,
			want: ErrorTypeFatal,
		},
		{
			name: "request pending is permanent",
			err:  ErrRequestPending,
			want: ErrorTypePermanent,
		},
		{
			name: "invalid parameter is permanent",
			err:  ErrInvalidParameter,
			want: ErrorTypePermanent,
		},
		{
			name: "hostname too long is permanent",
			err:  ErrHostnameTooLong,
			want: ErrorTypePermanent,
		},
		{
			name: "response timeout is transient",
			err:  ErrResponseTimeout,
			want: ErrorTypeTransient,
		},
		{
			name: "hci error carries its own classification",
			err:  &HCIError{Op: "test", Err: errors.New("x"), Type: ErrorTypeFatal},
			want: ErrorTypeFatal,
		},
		{
			name: "unknown error is permanent",
			err:  errors.New("something else"),
			want: ErrorTypePermanent,
		},
		{
			name: "nil is permanent",
			err:  nil,
			want: ErrorTypePermanent,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := GetErrorType(tt.err)
			if got != tt.want {
				t.Errorf("GetErrorType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHCIError_Format(t *testing.T) {
	t.Parallel()

	err := newHCIError("bind", ErrInvalidParameter)

	if got, want := err.Error(), "bind: invalid parameter"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidParameter) {
		t.Error("errors.Is() did not match the wrapped sentinel")
	}

	var hciErr *HCIError
	if !errors.As(err, &hciErr) {
		t.Fatal("errors.As() did not extract *HCIError")
	}
	if hciErr.Op != "bind" {
		t.Errorf("Op = %q, want %q", hciErr.Op, "bind")
	}
}
