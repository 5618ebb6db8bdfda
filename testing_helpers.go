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
	"sync"
	"time"
)

// deliveryDelay separates chip-select release from the next interrupt
// assertion, so a frame-close deassertion poll observes the line high before
// the next message is announced.
const deliveryDelay = 5 * time.Millisecond

// WrittenFrame is one complete outbound frame captured by the simulated
// chip, parsed for assertions.
type WrittenFrame struct {
	Raw      []byte
	Args     []byte
	Payload  []byte
	Opcode   uint16
	Type     byte
	ArgsSize int
	Pad      bool
}

// SimChip is a byte-level simulation of the chip side of the HCI handshake:
// readiness interrupt on chip-select assertion, frame parsing on release,
// scripted solicited responses and unsolicited injection. It implements
// Transport and drives the attached dispatcher the way the real interrupt
// line would, from its own delivery goroutine.
type SimChip struct {
	mu sync.Mutex

	handler func()

	powered     bool
	csAsserted  bool
	irqAsserted bool
	closed      bool

	// Write capture for the current chip-select window.
	wr []byte

	// Read serving state for the message currently on the bus.
	reading    bool
	delivering bool
	rd         []byte
	rdCount    int

	outbox          [][]byte
	deliveryPending bool

	responders map[uint16]func(args []byte) [][]byte
	frames     []WrittenFrame
}

// NewSimChip creates a powered-off simulated chip with no scripted
// responses. Commands without a registered responder get no reply, which is
// how response-timeout behavior is exercised.
func NewSimChip() *SimChip {
	return &SimChip{
		responders: make(map[uint16]func(args []byte) [][]byte),
	}
}

// Transfer implements Transport.
func (s *SimChip) Transfer(out byte) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.powered || !s.csAsserted {
		return 0, nil
	}

	if s.reading {
		idx := s.rdCount - 3 // read opcode and two busy bytes first
		s.rdCount++
		if idx < 0 || idx >= len(s.rd) {
			return 0, nil
		}
		return s.rd[idx], nil
	}

	s.wr = append(s.wr, out)
	return 0, nil
}

// SetChipSelect implements Transport. Asserting chip select while a message
// is being delivered starts the read transaction; otherwise the chip raises
// its readiness interrupt for an inbound write. Releasing it completes
// whichever transaction was open.
func (s *SimChip) SetChipSelect(assert bool) {
	s.mu.Lock()
	if !s.powered || assert == s.csAsserted {
		s.mu.Unlock()
		return
	}

	if assert {
		s.csAsserted = true
		if s.delivering {
			s.reading = true
			s.rd = s.outbox[0]
			s.rdCount = 0
			s.mu.Unlock()
			return
		}
		// Host write beginning: signal readiness.
		s.wr = nil
		s.irqAsserted = true
		h := s.handler
		s.mu.Unlock()
		if h != nil {
			h()
		}
		return
	}

	s.csAsserted = false
	if s.reading {
		s.reading = false
		s.delivering = false
		s.outbox = s.outbox[1:]
		s.irqAsserted = false
		s.scheduleDelivery()
		s.mu.Unlock()
		return
	}

	wr := s.wr
	s.wr = nil
	s.irqAsserted = false
	if f := parseWrittenFrame(wr); f != nil {
		s.frames = append(s.frames, *f)
		if responder := s.responders[f.Opcode]; responder != nil {
			s.outbox = append(s.outbox, responder(f.Args)...)
		}
	}
	s.scheduleDelivery()
	s.mu.Unlock()
}

// scheduleDelivery arms the delivery goroutine for the next queued message.
// Must be called with mu held.
func (s *SimChip) scheduleDelivery() {
	if s.deliveryPending || len(s.outbox) == 0 || s.closed {
		return
	}
	s.deliveryPending = true
	go s.deliver()
}

func (s *SimChip) deliver() {
	time.Sleep(deliveryDelay)

	s.mu.Lock()
	s.deliveryPending = false
	if s.closed || len(s.outbox) == 0 {
		s.mu.Unlock()
		return
	}
	if s.csAsserted || s.delivering {
		// Bus busy; try again once the current transaction closes.
		s.scheduleDelivery()
		s.mu.Unlock()
		return
	}
	s.delivering = true
	s.irqAsserted = true
	h := s.handler
	s.mu.Unlock()

	if h != nil {
		h()
	}
}

// SetEnable implements Transport. Power-up asserts the interrupt line, the
// chip's post-boot readiness signal; power-down resets everything.
func (s *SimChip) SetEnable(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.powered = on
	s.irqAsserted = on
	if !on {
		s.csAsserted = false
		s.reading = false
		s.delivering = false
		s.wr = nil
		s.outbox = nil
	}
}

// IRQAsserted implements Transport.
func (s *SimChip) IRQAsserted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.irqAsserted
}

// AttachInterrupt implements Transport.
func (s *SimChip) AttachInterrupt(fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = fn
	return nil
}

// Close implements Transport.
func (s *SimChip) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Type implements Transport.
func (*SimChip) Type() TransportType {
	return TransportMock
}

// RespondStatusU32 scripts the common response shape: an event with the
// command's code carrying a status byte and one 32-bit result.
func (s *SimChip) RespondStatusU32(opcode uint16, status byte, result uint32) {
	args := []byte{
		status,
		byte(result), byte(result >> 8), byte(result >> 16), byte(result >> 24),
	}
	s.RespondEvent(opcode, args)
}

// RespondEvent scripts a response event with the given argument bytes.
func (s *SimChip) RespondEvent(opcode uint16, args []byte) {
	s.RespondFunc(opcode, func([]byte) [][]byte {
		return [][]byte{simEventStream(opcode, args)}
	})
}

// RespondDataAck scripts the acknowledgment for a data-path frame: the
// responder is keyed on the one-byte data opcode, but the chip answers with
// an event carrying its own code (a send is acknowledged by EvntSend, not by
// an event named after the data opcode).
func (s *SimChip) RespondDataAck(dataOp byte, event uint16, args []byte) {
	s.RespondFunc(uint16(dataOp), func([]byte) [][]byte {
		return [][]byte{simEventStream(event, args)}
	})
}

// RespondFunc scripts a responder producing any sequence of read streams for
// a command. Data-path frames are keyed by their one-byte opcode.
func (s *SimChip) RespondFunc(opcode uint16, fn func(args []byte) [][]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responders[opcode] = fn
}

// RespondInitDefaults scripts the three commands Init issues, negotiating
// the given buffer pool.
func (s *SimChip) RespondInitDefaults(bufferCount uint8, bufferSize uint16) {
	s.RespondEvent(cmdSimpleLinkStart, []byte{0})
	s.RespondEvent(cmdReadBufferSize, []byte{
		0, bufferCount, byte(bufferSize), byte(bufferSize >> 8),
	})
	s.RespondEvent(cmdEventMask, []byte{0})
}

// InjectEvent queues an unsolicited event for delivery as soon as the bus is
// free.
func (s *SimChip) InjectEvent(code uint16, args []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, simEventStream(code, args))
	s.scheduleDelivery()
}

// InjectRaw queues an arbitrary read stream: two big-endian length bytes
// followed by the payload. For malformed-traffic tests.
func (s *SimChip) InjectRaw(stream []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, stream)
	s.scheduleDelivery()
}

// InjectData queues a data message.
func (s *SimChip) InjectData(dataType byte, args, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, simDataStream(dataType, args, payload))
	s.scheduleDelivery()
}

// PendingMessages reports how many queued read streams have not yet been
// consumed by the host.
func (s *SimChip) PendingMessages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outbox)
}

// Frames returns the outbound frames captured so far.
func (s *SimChip) Frames() []WrittenFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WrittenFrame, len(s.frames))
	copy(out, s.frames)
	return out
}

// LastFrame returns the most recent outbound frame, or nil.
func (s *SimChip) LastFrame() *WrittenFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	f := s.frames[len(s.frames)-1]
	return &f
}

// simEventStream builds the read-transaction byte stream for an event: the
// big-endian payload length, then type, code, argument size and arguments.
func simEventStream(code uint16, args []byte) []byte {
	payload := []byte{0x04, byte(code), byte(code >> 8), byte(len(args))}
	payload = append(payload, args...)
	stream := []byte{byte(len(payload) >> 8), byte(len(payload))}
	return append(stream, payload...)
}

// simDataStream builds the read stream for a data message: type, data
// opcode, argument size, little-endian payload length, arguments, body.
func simDataStream(dataType byte, args, payload []byte) []byte {
	p := []byte{0x02, dataType, byte(len(args)), byte(len(payload)), byte(len(payload) >> 8)}
	p = append(p, args...)
	p = append(p, payload...)
	stream := []byte{byte(len(p) >> 8), byte(len(p))}
	return append(stream, p...)
}

// parseWrittenFrame decodes a captured write transaction. Returns nil for
// anything that is not a well-formed write.
func parseWrittenFrame(raw []byte) *WrittenFrame {
	if len(raw) < 9 || raw[0] != 0x01 {
		return nil
	}
	f := &WrittenFrame{Raw: raw, Type: raw[5]}

	switch f.Type {
	case 0x01: // command
		f.Opcode = uint16(raw[6]) | uint16(raw[7])<<8
		f.ArgsSize = int(raw[8])
		if len(raw) >= 9+f.ArgsSize {
			f.Args = raw[9 : 9+f.ArgsSize]
			f.Pad = len(raw) > 9+f.ArgsSize
		}
	case 0x02: // data
		if len(raw) < 10 {
			return nil
		}
		f.Opcode = uint16(raw[6])
		f.ArgsSize = int(raw[7])
		total := int(raw[8]) | int(raw[9])<<8
		if len(raw) >= 10+total {
			f.Args = raw[10 : 10+f.ArgsSize]
			f.Payload = raw[10 : 10+total]
			f.Pad = len(raw) > 10+total
		}
	default:
		return nil
	}
	return f
}
