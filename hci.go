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

	"github.com/Sweet-Peas/tinyhci/internal/frame"
	"github.com/Sweet-Peas/tinyhci/internal/wait"
)

// firstCommandSettle is the delay the chip requires twice during the first
// write after power-on: once after chip select, once mid-header.
const firstCommandSettle = 50 * time.Millisecond

// writeHeader transmits the 5-byte write header and 4-byte trailer for an
// outbound command payload, then opens the write budget for the arguments.
// The 16-bit length field is split high byte first - the one big-endian value
// in an otherwise little-endian protocol.
func (d *Device) writeHeader(msgType byte, opcode uint16, argsSize int) {
	length := frame.PayloadLength(argsSize, d.pad)
	d.fr.transfer(frame.OpWrite)
	d.fr.transfer(byte(length >> 8))
	d.fr.transfer(byte(length))
	d.fr.transfer(0)
	d.fr.transfer(0)

	d.fr.transfer(msgType)
	d.fr.transfer(byte(opcode))
	d.fr.transfer(byte(opcode >> 8))
	d.fr.transfer(byte(argsSize))
	d.fr.budget = uint16(argsSize)
}

// beginFirstCommand opens the first command after power-on. The chip signals
// readiness after power-up by pulling the interrupt line low; the line is
// polled directly because no dispatcher is attached yet. A chip that never
// asserts within the startup deadline is absent, which is the one unrecoverable
// startup failure this driver reports.
func (d *Device) beginFirstCommand(opcode uint16, argsSize int) error {
	if err := wait.Until(d.cfg.StartupTimeout, d.transport.IRQAsserted); err != nil {
		return newHCIError("detect", ErrChipNotFound)
	}

	d.transport.SetChipSelect(true)
	time.Sleep(firstCommandSettle)

	// The first write splits the header around a second settle delay.
	d.pad = frame.CommandPad(argsSize)
	length := frame.PayloadLength(argsSize, d.pad)
	d.fr.transfer(frame.OpWrite)
	d.fr.transfer(byte(length >> 8))
	d.fr.transfer(byte(length))
	d.fr.transfer(0)

	time.Sleep(firstCommandSettle)

	d.fr.transfer(0)
	d.fr.transfer(frame.TypeCommand)
	d.fr.transfer(byte(opcode))
	d.fr.transfer(byte(opcode >> 8))
	d.fr.transfer(byte(argsSize))
	d.fr.budget = uint16(argsSize)

	if err := d.fr.takeErr(); err != nil {
		return newHCIError("first command", ErrBusFault)
	}
	return nil
}

// awaitReady asserts chip select and waits for the dispatcher to observe the
// chip's readiness interrupt and flip the transport state back to idle.
func (d *Device) awaitReady(op string) error {
	d.mu.Lock()
	d.state = hciStateWaitAssert
	d.mu.Unlock()

	d.transport.SetChipSelect(true)

	deadline := time.Now().Add(d.cfg.ReadyTimeout)
	d.mu.Lock()
	for d.state != hciStateIdle {
		if !d.condWait(deadline) {
			d.state = hciStateIdle
			d.mu.Unlock()
			d.transport.SetChipSelect(false)
			return newHCIError(op, ErrReadyTimeout)
		}
	}
	d.mu.Unlock()
	return nil
}

// beginCommand opens a command frame: readiness handshake, write header,
// trailer. The caller writes argsSize bytes of arguments through the framer
// and finishes with endCommandBeginReceive.
func (d *Device) beginCommand(opcode uint16, argsSize int) error {
	d.log.Debug("hci command", "opcode", opcode, "args", argsSize)

	if err := d.awaitReady("command"); err != nil {
		return err
	}

	d.pad = frame.CommandPad(argsSize)
	d.writeHeader(frame.TypeCommand, opcode, argsSize)
	return nil
}

// beginData opens a data frame. Data frames carry a one-byte opcode, the
// argument size and the combined argument+buffer length, and pad on the
// opposite parity from commands.
func (d *Device) beginData(opcode byte, argsSize, bufferSize int) error {
	d.log.Debug("hci data", "opcode", opcode, "args", argsSize, "buffer", bufferSize)

	if err := d.awaitReady("data"); err != nil {
		return err
	}

	total := argsSize + bufferSize
	d.pad = frame.DataPad(total)
	length := frame.PayloadLength(total, d.pad)
	d.fr.transfer(frame.OpWrite)
	d.fr.transfer(byte(length >> 8))
	d.fr.transfer(byte(length))
	d.fr.transfer(0)
	d.fr.transfer(0)

	d.fr.transfer(frame.TypeData)
	d.fr.transfer(opcode)
	d.fr.transfer(byte(argsSize))
	d.fr.transfer(byte(total))
	d.fr.transfer(byte(total >> 8))
	d.fr.budget = uint16(total)
	return nil
}

// endCommandBeginReceive finishes sending a command and waits for its
// response event.
//
// Arming the pending-request slot, writing the pad byte and releasing chip
// select are fused in this order so that no window exists in which the chip
// could respond before the slot is armed. On timeout the user callback
// receives EvntLocked and the call returns ErrResponseTimeout; the response
// has not been consumed, and the caller must still close the frame with
// endReceive to keep the protocol state machine consistent.
func (d *Device) endCommandBeginReceive(event uint16, timeout time.Duration) error {
	d.mu.Lock()
	if d.pendingActive {
		d.mu.Unlock()
		return newHCIError("arm", ErrRequestPending)
	}
	d.pendingEvent = event
	d.pendingActive = true
	d.pendingArrived = false
	d.dataAvailable = false
	d.mu.Unlock()

	if d.pad {
		d.fr.transfer(0)
	}
	d.transport.SetChipSelect(false)

	if err := d.fr.takeErr(); err != nil {
		d.log.Error("bus fault finishing command", "err", err)
		return newHCIError("command", ErrBusFault)
	}

	deadline := time.Now().Add(timeout)
	d.mu.Lock()
	for !d.pendingArrived {
		if !d.condWait(deadline) {
			break
		}
	}
	arrived := d.pendingArrived
	d.mu.Unlock()

	if !arrived {
		d.log.Warn("response timeout", "event", event)
		d.notify(EvntLocked, 0)
		return newHCIError("response", ErrResponseTimeout)
	}
	return nil
}

// closeReceive drains the unread remainder of the open frame, releases chip
// select and waits for the chip to deassert the interrupt line. Used by the
// dispatcher; command callers go through endReceive, which also retires the
// pending-request slot.
func (d *Device) closeReceive() error {
	d.fr.drain()
	d.transport.SetChipSelect(false)

	busErr := d.fr.takeErr()

	err := wait.Until(d.cfg.ReleaseTimeout, func() bool {
		return !d.transport.IRQAsserted()
	})
	if err != nil {
		return newHCIError("frame close", ErrIRQStuck)
	}
	if busErr != nil {
		return newHCIError("frame close", ErrBusFault)
	}
	return nil
}

// endReceive closes the current receive frame and retires the pending-request
// slot, ending the command's receive cycle.
func (d *Device) endReceive() error {
	err := d.closeReceive()

	d.mu.Lock()
	d.pendingActive = false
	d.pendingEvent = eventNone
	d.mu.Unlock()

	return err
}

// waitData blocks until the dispatcher flags an incoming data message as
// ready for synchronous retrieval.
func (d *Device) waitData(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	d.mu.Lock()
	for !d.dataAvailable {
		if !d.condWait(deadline) {
			d.mu.Unlock()
			return newHCIError("data wait", ErrDataTimeout)
		}
	}
	d.mu.Unlock()
	return nil
}

// receiveU32Result is the common receive pattern: wait for the response
// event, discard the status byte, read one 32-bit result, close the frame.
func (d *Device) receiveU32Result(event uint16, timeout time.Duration) (uint32, error) {
	if err := d.endCommandBeginReceive(event, timeout); err != nil {
		// The frame must still be closed after a timeout or subsequent
		// traffic is framed from the wrong offset.
		if closeErr := d.endReceive(); closeErr != nil {
			d.log.Error("close after failed receive", "err", closeErr)
		}
		return 0, err
	}

	d.fr.readU8() // status, not surfaced by the chip's API
	result := d.fr.readU32()

	if err := d.endReceive(); err != nil {
		return 0, err
	}
	return result, nil
}

// serviceIRQ is the single entry point for falling edges on the interrupt
// line, invoked from the transport's watcher goroutine. In the WaitAssert
// state the edge is the write-readiness handshake and no bytes are read;
// otherwise an incoming message is on the bus and is dispatched by type.
func (d *Device) serviceIRQ() {
	d.mu.Lock()
	if d.state == hciStateWaitAssert {
		d.state = hciStateIdle
		d.cond.Broadcast()
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	d.beginReceive()
	switch msgType := d.fr.readU8(); msgType {
	case frame.TypeEvent:
		d.dispatchEvent()
	case frame.TypeData:
		d.dispatchData()
	default:
		d.log.Warn("unknown message type", "type", msgType)
		if err := d.closeReceive(); err != nil {
			d.log.Error("close of unknown message", "err", err)
		}
	}
}

// beginReceive reads the header of an incoming message and establishes the
// payload budget. The length arrives high byte first.
func (d *Device) beginReceive() {
	d.transport.SetChipSelect(true)

	d.fr.transfer(frame.OpRead)
	d.fr.transfer(0)
	d.fr.transfer(0)

	p0 := d.fr.transfer(0)
	p1 := d.fr.transfer(0)
	d.fr.budget = uint16(p0)<<8 | uint16(p1)
}

// dispatchEvent routes an incoming event. A solicited event (the one the
// pending-request slot expects) is only flagged: the frame stays open and the
// waiting caller retrieves the body itself. Unsolicited events are handled
// and closed entirely here, inside the interrupt context.
func (d *Device) dispatchEvent() {
	code := d.fr.readU16()
	argsSize := d.fr.readU8()
	d.log.Debug("hci event", "code", code, "args", argsSize)

	d.mu.Lock()
	if d.pendingActive && code == d.pendingEvent {
		d.pendingArrived = true
		d.cond.Broadcast()
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	var arg uint32
	switch code {
	case EvntWlanUnsolConnect:
		d.mu.Lock()
		d.wlanConnected = true
		d.mu.Unlock()

	case EvntWlanUnsolDisconnect:
		d.mu.Lock()
		d.wlanConnected = false
		d.dhcpComplete = false
		d.mu.Unlock()

	case EvntWlanUnsolDHCP:
		d.fr.readU8() // status
		var addr IPv4
		// The address arrives in reverse octet order.
		addr[3] = d.fr.readU8()
		addr[2] = d.fr.readU8()
		addr[1] = d.fr.readU8()
		addr[0] = d.fr.readU8()
		d.mu.Lock()
		d.dhcpComplete = true
		d.ipAddr = addr
		d.mu.Unlock()
		d.log.Info("dhcp lease", "addr", addr)

	case EvntWlanUnsolTCPCloseWait:
		d.fr.readU8() // status
		arg = d.fr.readU32()

	case EvntDataUnsolFreeBuff:
		d.fr.readU8() // status
		count := d.fr.readU16()
		var freed uint16
		for i := uint16(0); i < count; i++ {
			d.fr.readU16() // flags, unused
			freed += d.fr.readU16()
		}
		d.replenishCredits(freed)
	}

	d.notify(code, arg)

	if err := d.closeReceive(); err != nil {
		d.log.Error("close of unsolicited event", "code", code, "err", err)
	}
}

// replenishCredits returns freed transmit buffers to the pool, clamped to the
// negotiated total.
func (d *Device) replenishCredits(freed uint16) {
	d.mu.Lock()
	avail := uint16(d.availableBuffers) + freed
	if avail > uint16(d.bufferCount) {
		d.log.Warn("credit overflow from chip",
			"freed", freed, "total", d.bufferCount)
		avail = uint16(d.bufferCount)
	}
	d.availableBuffers = uint8(avail)
	d.cond.Broadcast()
	d.mu.Unlock()
}

// dispatchData consumes the header of an incoming data message, skips its
// arguments and flags the body as available. The body itself is left on the
// bus for the caller that issued the receive command.
//
// A data message arriving while no caller awaits one is misinterpreted as the
// awaited body. TI's reference driver shares this limitation; see the package
// documentation.
func (d *Device) dispatchData() {
	dataType := d.fr.readU8()
	argsSize := d.fr.readU8()
	payloadSize := d.fr.readU16()
	d.log.Debug("hci data message", "type", dataType, "args", argsSize, "payload", payloadSize)

	for i := 0; i < int(argsSize); i++ {
		d.fr.readU8()
	}

	d.mu.Lock()
	d.dataAvailable = true
	d.cond.Broadcast()
	d.mu.Unlock()
}
