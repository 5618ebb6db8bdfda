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
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slog"
)

// Config contains the deadlines for every wait the protocol performs. TI's
// reference driver bounded only response waits and power-on detection and spun
// forever everywhere else; every wait here has an explicit, configurable
// deadline that converts a hung chip into a reported error.
type Config struct {
	// StartupTimeout bounds the power-on wait for the chip to pull the
	// interrupt line low. Expiry means the chip is absent (ErrChipNotFound).
	StartupTimeout time.Duration
	// ReadyTimeout bounds the wait for the chip's readiness interrupt after
	// chip select is asserted for a write.
	ReadyTimeout time.Duration
	// ReleaseTimeout bounds the wait for interrupt-line deassertion when a
	// frame is closed.
	ReleaseTimeout time.Duration
	// DataTimeout bounds the wait for a data message announced by a recv
	// response.
	DataTimeout time.Duration
	// SendTimeout bounds the wait for a free transmit buffer credit.
	SendTimeout time.Duration
	// DrainTimeout bounds CloseSocket's wait for all credits to return.
	DrainTimeout time.Duration
}

// DefaultConfig returns the default deadlines
func DefaultConfig() *Config {
	return &Config{
		StartupTimeout: 5 * time.Second,
		ReadyTimeout:   time.Second,
		ReleaseTimeout: time.Second,
		DataTimeout:    5 * time.Second,
		SendTimeout:    10 * time.Second,
		DrainTimeout:   10 * time.Second,
	}
}

// Transport states coordinating command issuance with the chip's readiness
// interrupt.
const (
	hciStateIdle = iota
	hciStateWaitAssert
)

// Device is a CC3000 WiFi co-processor behind a synchronous bus.
//
// Concurrency model: exactly two contexts touch a Device - the single
// synchronous caller issuing commands, and the transport's interrupt watcher
// goroutine running the dispatcher. All shared flags and counters live behind
// mu; waits park on cond instead of spinning. Commands are strictly
// one-at-a-time: a new command must not be issued until the previous one's
// receive cycle has been closed. The driver rejects violations with
// ErrRequestPending but does not queue.
type Device struct {
	transport Transport
	cfg       *Config
	log       *slog.Logger
	callback  EventCallback

	mu   sync.Mutex
	cond *sync.Cond

	// state is the write handshake: WaitAssert between asserting chip
	// select and the chip's readiness interrupt, Idle otherwise.
	state int

	// Pending request slot: at most one outstanding command.
	pendingEvent   uint16
	pendingActive  bool
	pendingArrived bool

	// dataAvailable is raised by the dispatcher once a data message's
	// header has been consumed and its body is ready on the bus.
	dataAvailable bool

	// Buffer credit pool, learned from the chip at init. availableBuffers
	// stays in [0, bufferCount]: consumed by Send, replenished by
	// unsolicited free-buffer events.
	bufferSize       uint16
	bufferCount      uint8
	availableBuffers uint8

	// Connection state, mutated only by the dispatcher.
	wlanConnected bool
	dhcpComplete  bool
	ipAddr        IPv4

	// pad records whether the currently open outbound frame needs a
	// trailing pad byte.
	pad bool

	fr framer
}

// New creates a driver for the chip behind the given transport. The chip is
// not touched until Init is called.
func New(transport Transport, opts ...Option) (*Device, error) {
	d := &Device{
		transport:    transport,
		cfg:          DefaultConfig(),
		log:          slog.Default(),
		pendingEvent: eventNone,
		fr:           framer{tr: transport},
	}
	d.cond = sync.NewCond(&d.mu)

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Close releases the transport.
func (d *Device) Close() error {
	if err := d.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}

// Connected reports whether the chip is associated with an access point.
// Updated only by unsolicited events.
func (d *Device) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wlanConnected
}

// DHCPComplete reports whether the chip holds a DHCP lease.
func (d *Device) DHCPComplete() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dhcpComplete
}

// IPAddr returns the DHCP-assigned IPv4 address, zero until a DHCP event has
// been received.
func (d *Device) IPAddr() IPv4 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ipAddr
}

// BufferCredits returns the transmit buffer pool as (available, total). Total
// is zero before Init.
func (d *Device) BufferCredits() (available, total int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int(d.availableBuffers), int(d.bufferCount)
}

// notify delivers an event to the user callback, if one is registered.
func (d *Device) notify(event uint16, arg uint32) {
	if d.callback != nil {
		d.callback(event, arg)
	}
}

// condWait parks on d.cond until a broadcast or the deadline. Must be called
// with mu held; returns false once the deadline has passed. Wakeups can be
// spurious, so callers re-check their predicate in a loop.
func (d *Device) condWait(deadline time.Time) bool {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false
	}
	timer := time.AfterFunc(remaining, d.cond.Broadcast)
	d.cond.Wait()
	timer.Stop()
	return true
}
