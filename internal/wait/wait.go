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

// Package wait provides deadline-bounded polling helpers
package wait

import (
	"errors"
	"time"
)

// ErrDeadline is returned when a polled condition does not hold before the
// deadline. Callers wrap it with operation context.
var ErrDeadline = errors.New("condition not met before deadline")

// pollInterval is the sleep between condition checks. The interrupt and
// chip-select lines settle in microseconds, so a millisecond poll trades a
// little latency for not spinning a core.
const pollInterval = time.Millisecond

// Until polls cond every millisecond until it reports true or the timeout
// elapses. A timeout of zero or less means a single check with no waiting.
func Until(timeout time.Duration, cond func() bool) error {
	deadline := time.Now().Add(timeout)

	for {
		if cond() {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrDeadline
		}
		time.Sleep(pollInterval)
	}
}
