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

package wait

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestUntilImmediate(t *testing.T) {
	t.Parallel()
	if err := Until(0, func() bool { return true }); err != nil {
		t.Errorf("Until() with true condition = %v, want nil", err)
	}
}

func TestUntilDeadline(t *testing.T) {
	t.Parallel()
	start := time.Now()
	err := Until(10*time.Millisecond, func() bool { return false })
	if !errors.Is(err, ErrDeadline) {
		t.Errorf("Until() = %v, want ErrDeadline", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("Until() returned before the deadline")
	}
}

func TestUntilEventuallyTrue(t *testing.T) {
	t.Parallel()
	var flag atomic.Bool
	time.AfterFunc(5*time.Millisecond, func() { flag.Store(true) })

	if err := Until(time.Second, flag.Load); err != nil {
		t.Errorf("Until() = %v, want nil once condition holds", err)
	}
}
