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

// Package spi provides the SPI transport implementation for the WiFi
// module. Chip select is driven from a plain GPIO rather than the
// controller's hardware chip select, because the handshake requires
// holding the line asserted across several separate byte exchanges.
package spi

import (
	"fmt"
	"sync"
	"time"

	tinyhci "github.com/Sweet-Peas/tinyhci"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	pspi "periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Max clock frequency (4 MHz). The chip samples on the falling edge and
// shifts out on the rising edge, which is SPI mode 1.
const (
	maxClockFreq = 4 * physic.MegaHertz
	spiMode      = pspi.Mode1

	// Edge wait slice so the watcher goroutine can notice shutdown.
	edgeWaitSlice = 500 * time.Millisecond
)

// Pins names the GPIO lines wired to the module besides the SPI bus
// itself. All three are required.
type Pins struct {
	// ChipSelect is the active-low chip select line.
	ChipSelect string
	// Interrupt is the active-low interrupt line from the chip.
	Interrupt string
	// Enable is the power enable line.
	Enable string
}

// Transport implements the tinyhci.Transport interface for SPI
// communication.
type Transport struct {
	port     pspi.PortCloser
	conn     pspi.Conn
	cs       gpio.PinIO
	irq      gpio.PinIO
	enable   gpio.PinIO
	portName string

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
}

// New creates a new SPI transport on the named port with the given GPIO
// wiring.
func New(portName string, pins Pins) (*Transport, error) {
	// Initialize host
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", portName, err)
	}

	conn, err := port.Connect(maxClockFreq, spiMode, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to configure SPI port %s: %w", portName, err)
	}

	cs, err := openPin(pins.ChipSelect, "chip select")
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	enable, err := openPin(pins.Enable, "enable")
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	irq, err := openPin(pins.Interrupt, "interrupt")
	if err != nil {
		_ = port.Close()
		return nil, err
	}

	// Start deasserted and powered down.
	if err := cs.Out(gpio.High); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to drive chip select %s: %w", pins.ChipSelect, err)
	}
	if err := enable.Out(gpio.Low); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to drive enable %s: %w", pins.Enable, err)
	}
	if err := irq.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to configure interrupt %s: %w", pins.Interrupt, err)
	}

	return &Transport{
		port:     port,
		conn:     conn,
		cs:       cs,
		irq:      irq,
		enable:   enable,
		portName: portName,
	}, nil
}

func openPin(name, role string) (gpio.PinIO, error) {
	if name == "" {
		return nil, fmt.Errorf("no %s pin configured", role)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("failed to find %s pin %s", role, name)
	}
	return pin, nil
}

// Transfer exchanges a single byte on the bus.
func (t *Transport) Transfer(out byte) (byte, error) {
	var in [1]byte
	if err := t.conn.Tx([]byte{out}, in[:]); err != nil {
		return 0, fmt.Errorf("SPI transfer on %s failed: %w", t.portName, err)
	}
	return in[0], nil
}

// SetChipSelect drives the active-low chip select line.
func (t *Transport) SetChipSelect(assert bool) {
	level := gpio.High
	if assert {
		level = gpio.Low
	}
	_ = t.cs.Out(level)
}

// SetEnable drives the power enable line.
func (t *Transport) SetEnable(on bool) {
	level := gpio.Low
	if on {
		level = gpio.High
	}
	_ = t.enable.Out(level)
}

// IRQAsserted reports whether the active-low interrupt line is low.
func (t *Transport) IRQAsserted() bool {
	return t.irq.Read() == gpio.Low
}

// AttachInterrupt starts the edge watcher goroutine. fn is invoked once
// per falling edge, on the watcher goroutine.
func (t *Transport) AttachInterrupt(fn func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return fmt.Errorf("interrupt handler already attached on %s", t.portName)
	}
	t.stop = make(chan struct{})
	t.stopped = make(chan struct{})
	go t.watchEdges(fn, t.stop, t.stopped)
	return nil
}

func (t *Transport) watchEdges(fn func(), stop, stopped chan struct{}) {
	defer close(stopped)
	for {
		select {
		case <-stop:
			return
		default:
		}
		if !t.irq.WaitForEdge(edgeWaitSlice) {
			continue
		}
		select {
		case <-stop:
			return
		default:
		}
		fn()
	}
}

// Close stops the edge watcher, powers the chip down and releases the
// SPI port.
func (t *Transport) Close() error {
	t.mu.Lock()
	stop, stopped := t.stop, t.stopped
	t.stop, t.stopped = nil, nil
	t.mu.Unlock()

	if stop != nil {
		close(stop)
		_ = t.irq.Halt()
		<-stopped
	}
	t.SetEnable(false)
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close SPI port %s: %w", t.portName, err)
	}
	return nil
}

// Type returns the transport type.
func (*Transport) Type() tinyhci.TransportType {
	return tinyhci.TransportSPI
}

// Ensure Transport implements tinyhci.Transport
var _ tinyhci.Transport = (*Transport)(nil)
