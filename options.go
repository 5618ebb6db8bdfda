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

	"golang.org/x/exp/slog"
)

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithConfig replaces the whole timeout configuration.
func WithConfig(cfg *Config) Option {
	return func(d *Device) error {
		if cfg == nil {
			return newHCIError("config", ErrInvalidParameter)
		}
		d.cfg = cfg
		return nil
	}
}

// WithEventCallback registers the callback invoked on every unsolicited
// event and on response timeout (EvntLocked).
func WithEventCallback(cb EventCallback) Option {
	return func(d *Device) error {
		d.callback = cb
		return nil
	}
}

// WithLogger sets the structured logger for driver diagnostics. Byte-level
// traffic is logged at Debug level.
func WithLogger(log *slog.Logger) Option {
	return func(d *Device) error {
		if log == nil {
			return newHCIError("logger", ErrInvalidParameter)
		}
		d.log = log
		return nil
	}
}

// WithStartupTimeout bounds power-on chip detection.
func WithStartupTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		d.cfg.StartupTimeout = timeout
		return nil
	}
}

// WithReadyTimeout bounds the write-readiness handshake.
func WithReadyTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		d.cfg.ReadyTimeout = timeout
		return nil
	}
}

// WithReleaseTimeout bounds interrupt-line deassertion at frame close.
func WithReleaseTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		d.cfg.ReleaseTimeout = timeout
		return nil
	}
}

// WithDataTimeout bounds the wait for an announced data message.
func WithDataTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		d.cfg.DataTimeout = timeout
		return nil
	}
}

// WithSendTimeout bounds the wait for a transmit buffer credit.
func WithSendTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		d.cfg.SendTimeout = timeout
		return nil
	}
}

// WithDrainTimeout bounds CloseSocket's wait for credit reclamation.
func WithDrainTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		d.cfg.DrainTimeout = timeout
		return nil
	}
}
