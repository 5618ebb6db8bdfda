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
)

// Sentinel errors returned by driver operations. The wire protocol itself has
// no checksum or error code at the framing layer: a desynchronized bus does
// not surface here, it manifests as garbage on subsequent reads. These errors
// cover everything the host side can observe.
var (
	// ErrChipNotFound means the chip never pulled the interrupt line low
	// after power-on. Almost always a wiring problem; never retryable.
	ErrChipNotFound = errors.New("wifi chip not detected")

	// ErrResponseTimeout means a command's solicited event did not arrive
	// before its deadline.
	ErrResponseTimeout = errors.New("response timeout")

	// ErrReadyTimeout means the chip did not assert the interrupt line to
	// acknowledge a pending write.
	ErrReadyTimeout = errors.New("chip not ready for write")

	// ErrIRQStuck means the interrupt line stayed asserted after a frame was
	// closed. TI's reference driver waited forever here; the deadline turns a
	// silent hang into a reportable fault.
	ErrIRQStuck = errors.New("interrupt line stuck asserted")

	// ErrDataTimeout means a data message announced by a recv response never
	// arrived on the bus.
	ErrDataTimeout = errors.New("data not available")

	// ErrNoCredits means no transmit buffer credit became available before
	// the send deadline.
	ErrNoCredits = errors.New("no buffer credits available")

	// ErrCreditsOutstanding means buffer credits were still held by the chip
	// when a close deadline expired.
	ErrCreditsOutstanding = errors.New("buffer credits not reclaimed")

	// ErrRequestPending means a command was issued while the previous
	// command's receive cycle had not been closed. The protocol supports
	// exactly one outstanding request; this is a caller bug.
	ErrRequestPending = errors.New("request already pending")

	// ErrBusFault wraps a transport-level transfer failure.
	ErrBusFault = errors.New("bus transfer failed")

	// ErrInvalidParameter is returned for arguments rejected before any bus
	// traffic happens.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrHostnameTooLong is returned by GetHostByName for names over the
	// chip's limit.
	ErrHostnameTooLong = errors.New("hostname too long")
)

// ErrorType classifies an error for retry decisions
type ErrorType int

const (
	// ErrorTypeTransient errors may succeed if the operation is repeated.
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent errors will not improve with repetition.
	ErrorTypePermanent
	// ErrorTypeFatal errors indicate the chip or wiring is unusable.
	ErrorTypeFatal
)

// HCIError wraps a driver error with the operation that produced it
type HCIError struct {
	Err  error
	Op   string
	Type ErrorType
}

// Error implements the error interface
func (e *HCIError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *HCIError) Unwrap() error {
	return e.Err
}

// newHCIError builds an HCIError, classifying the underlying sentinel
func newHCIError(op string, err error) *HCIError {
	return &HCIError{Op: op, Err: err, Type: classify(err)}
}

func classify(err error) ErrorType {
	switch {
	case errors.Is(err, ErrChipNotFound), errors.Is(err, ErrIRQStuck):
		return ErrorTypeFatal
	case errors.Is(err, ErrResponseTimeout), errors.Is(err, ErrReadyTimeout),
		errors.Is(err, ErrDataTimeout), errors.Is(err, ErrNoCredits),
		errors.Is(err, ErrCreditsOutstanding), errors.Is(err, ErrBusFault):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}

// GetErrorType returns the classification of err, looking through wrapping.
// Unrecognized errors are reported as permanent.
func GetErrorType(err error) ErrorType {
	var hciErr *HCIError
	if errors.As(err, &hciErr) {
		return hciErr.Type
	}
	if err == nil {
		return ErrorTypePermanent
	}
	return classify(err)
}

// IsRetryable reports whether repeating the operation could reasonably
// succeed. Timeouts are retryable because the chip may simply have been busy;
// wiring and contract violations are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return GetErrorType(err) == ErrorTypeTransient
}
