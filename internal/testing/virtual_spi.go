// go-pn532spi
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-pn532spi.
//
// go-pn532spi is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-pn532spi is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-pn532spi; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package testing provides test utilities including a wire-level PN532 SPI simulator.
//
// VirtualSPI implements the spi.Bus capability and behaves like a PN532 on the
// other end of the bus: it answers status reads, decodes written frames,
// acknowledges them and clocks out queued responses byte by byte.
package testing

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZaparooProject/go-pn532spi/internal/frame"
)

// SPI request bytes sent first in every transaction
const (
	StatusRead = 0x02
	DataWrite  = 0x01
	DataRead   = 0x03
)

// ErrBusProtocol reports that the host used the bus in a way a PN532 would not accept
var ErrBusProtocol = errors.New("virtual SPI protocol violation")

type transaction int

const (
	txIdle transaction = iota
	txStatus
	txWrite
	txRead
)

// Responder returns the payload answering cmd. Returning false sends no response.
type Responder func(cmd []byte) ([]byte, bool)

// VirtualSPI simulates a PN532 at the SPI wire level
type VirtualSPI struct {
	readErr     error
	writeErr    error
	responder   Responder
	ack         *[frame.AckLength]byte
	outgoing    []byte
	written     []byte
	commands    [][]byte
	badFrames   []error
	state       transaction
	notReady    int
	statusPolls int
	selects     int
	deselects   int
	underflows  int
	mu          sync.Mutex
	neverReady  bool
	selected    bool
}

// NewVirtualSPI creates a simulator that acknowledges every valid frame and
// answers through responder (which may be nil)
func NewVirtualSPI(responder Responder) *VirtualSPI {
	return &VirtualSPI{responder: responder}
}

// NewEchoSPI creates a simulator that answers every command with its own arguments
func NewEchoSPI() *VirtualSPI {
	return NewVirtualSPI(func(cmd []byte) ([]byte, bool) {
		return cmd[1:], true
	})
}

// Select asserts chip select
func (v *VirtualSPI) Select() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selected {
		return fmt.Errorf("%w: chip select asserted twice", ErrBusProtocol)
	}
	v.selected = true
	v.state = txIdle
	v.selects++
	return nil
}

// Deselect releases chip select and completes the transaction
func (v *VirtualSPI) Deselect() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.selected {
		return fmt.Errorf("%w: chip select released while not asserted", ErrBusProtocol)
	}
	if v.state == txWrite {
		v.receiveFrame()
	}
	v.selected = false
	v.state = txIdle
	v.deselects++
	return nil
}

// WriteByte accepts one byte from the host
func (v *VirtualSPI) WriteByte(c byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.writeErr != nil {
		return v.writeErr
	}
	if !v.selected {
		return fmt.Errorf("%w: write without chip select", ErrBusProtocol)
	}

	switch v.state {
	case txIdle:
		switch c {
		case StatusRead:
			v.state = txStatus
			v.statusPolls++
		case DataWrite:
			v.state = txWrite
			v.written = v.written[:0]
		case DataRead:
			v.state = txRead
		default:
			return fmt.Errorf("%w: unknown request byte 0x%02X", ErrBusProtocol, c)
		}
	case txWrite:
		v.written = append(v.written, c)
	case txStatus, txRead:
		return fmt.Errorf("%w: write during read transaction", ErrBusProtocol)
	}
	return nil
}

// ReadByte clocks one byte out to the host
func (v *VirtualSPI) ReadByte() (byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.readErr != nil {
		return 0, v.readErr
	}
	if !v.selected {
		return 0, fmt.Errorf("%w: read without chip select", ErrBusProtocol)
	}

	switch v.state {
	case txStatus:
		return v.status(), nil
	case txRead:
		if len(v.outgoing) == 0 {
			v.underflows++
			return 0x00, nil
		}
		b := v.outgoing[0]
		v.outgoing = v.outgoing[1:]
		return b, nil
	case txIdle, txWrite:
		return 0, fmt.Errorf("%w: read without read request", ErrBusProtocol)
	}
	return 0, nil
}

// status answers a status read; the first notReady polls report busy
func (v *VirtualSPI) status() byte {
	if v.neverReady {
		return 0x00
	}
	if v.notReady > 0 {
		v.notReady--
		return 0x00
	}
	if len(v.outgoing) == 0 {
		return 0x00
	}
	return 0x01
}

// receiveFrame decodes the bytes written in the finished transaction
func (v *VirtualSPI) receiveFrame() {
	var buf [frame.MaxPayloadLength]byte
	n, err := frame.Decode(bytes.NewReader(v.written), buf[:], frame.HostToPn532)
	if err == nil && n == 0 {
		err = errors.New("empty command")
	}
	if err != nil {
		v.badFrames = append(v.badFrames, err)
		return
	}

	cmd := append([]byte(nil), buf[:n]...)
	v.commands = append(v.commands, cmd)

	if v.ack != nil {
		v.outgoing = append(v.outgoing, v.ack[:]...)
	} else {
		v.outgoing = append(v.outgoing, frame.AckFrame[:]...)
	}

	if v.responder == nil {
		return
	}
	payload, ok := v.responder(cmd)
	if !ok {
		return
	}
	v.outgoing = append(v.outgoing, BuildResponseFrame(cmd[0], payload)...)
}

// QueueRaw appends bytes the device will clock out next
func (v *VirtualSPI) QueueRaw(data ...byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.outgoing = append(v.outgoing, data...)
}

// SetAck replaces the acknowledgment sent for every following command
func (v *VirtualSPI) SetAck(ack [frame.AckLength]byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ack = &ack
}

// SetResponder replaces the responder
func (v *VirtualSPI) SetResponder(responder Responder) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.responder = responder
}

// SetNotReady makes the next n status reads report busy
func (v *VirtualSPI) SetNotReady(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notReady = n
}

// SetNeverReady makes every status read report busy
func (v *VirtualSPI) SetNeverReady(never bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.neverReady = never
}

// SetReadError makes every ReadByte fail with err until cleared with nil
func (v *VirtualSPI) SetReadError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.readErr = err
}

// SetWriteError makes every WriteByte fail with err until cleared with nil
func (v *VirtualSPI) SetWriteError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.writeErr = err
}

// Commands returns the decoded commands received so far
func (v *VirtualSPI) Commands() [][]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([][]byte, len(v.commands))
	copy(out, v.commands)
	return out
}

// BadFrames returns decode errors for frames the simulator rejected
func (v *VirtualSPI) BadFrames() []error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]error(nil), v.badFrames...)
}

// Pending returns how many bytes are waiting to be clocked out
func (v *VirtualSPI) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.outgoing)
}

// StatusPolls returns how many status reads the host made
func (v *VirtualSPI) StatusPolls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.statusPolls
}

// Selects returns how many times chip select was asserted
func (v *VirtualSPI) Selects() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selects
}

// Deselects returns how many times chip select was released
func (v *VirtualSPI) Deselects() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.deselects
}

// Selected reports whether chip select is currently asserted
func (v *VirtualSPI) Selected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected
}

// Underflows returns how many bytes were read with nothing queued
func (v *VirtualSPI) Underflows() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.underflows
}

// SleepCounter is a Sleeper that records delays without blocking
type SleepCounter struct {
	calls int
	total time.Duration
	mu    sync.Mutex
}

// Sleep records d
func (s *SleepCounter) Sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.total += d
}

// Calls returns how many times Sleep was called
func (s *SleepCounter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Total returns the sum of all requested delays
func (s *SleepCounter) Total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}
