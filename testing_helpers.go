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

package pn532

import (
	"sync"
	"time"
)

// MockTransport is a command-level Transport for tests of code built on top of the
// framing layer. Responses are keyed by opcode; errors can be queued per call.
type MockTransport struct {
	responses   map[byte][]byte
	writeErrors []error
	readErrors  []error
	commands    [][]byte
	mu          sync.Mutex
	lastCmd     byte
	pending     bool
	closed      bool
	wakeups     int
}

// NewMockTransport creates an empty mock
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[byte][]byte),
	}
}

// SetResponse configures the payload returned for opcode cmd
func (m *MockTransport) SetResponse(cmd byte, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cmd] = append([]byte(nil), payload...)
}

// QueueWriteError makes the next WriteCommand calls fail, one error per call
func (m *MockTransport) QueueWriteError(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErrors = append(m.writeErrors, errs...)
}

// QueueReadError makes the next ReadResponse calls fail, one error per call
func (m *MockTransport) QueueReadError(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErrors = append(m.readErrors, errs...)
}

// Commands returns every command written so far
func (m *MockTransport) Commands() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.commands))
	copy(out, m.commands)
	return out
}

// Wakeups returns how many times Wakeup was called
func (m *MockTransport) Wakeups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wakeups
}

// WriteCommand records cmd
func (m *MockTransport) WriteCommand(cmd []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrTransportClosed
	}
	if len(cmd) == 0 {
		return NewInvalidParameterError("WriteCommand", "mock", "empty command")
	}
	m.commands = append(m.commands, append([]byte(nil), cmd...))
	if len(m.writeErrors) > 0 {
		err := m.writeErrors[0]
		m.writeErrors = m.writeErrors[1:]
		if err != nil {
			m.pending = false
			return err
		}
	}
	m.lastCmd = cmd[0]
	m.pending = true
	return nil
}

// ReadResponse copies the configured payload for the last opcode into buf
func (m *MockTransport) ReadResponse(buf []byte, _ time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrTransportClosed
	}
	if len(m.readErrors) > 0 {
		err := m.readErrors[0]
		m.readErrors = m.readErrors[1:]
		if err != nil {
			return 0, err
		}
	}
	if !m.pending {
		return 0, NewTimeoutError("ReadResponse", "mock")
	}
	m.pending = false

	payload, ok := m.responses[m.lastCmd]
	if !ok {
		return 0, NewTimeoutError("ReadResponse", "mock")
	}
	if len(payload) > len(buf) {
		return 0, NewBufferTooSmallError("ReadResponse", "mock", nil)
	}
	return copy(buf, payload), nil
}

// Wakeup counts wake-up calls
func (m *MockTransport) Wakeup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wakeups++
	return nil
}

// Close marks the mock closed
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}
