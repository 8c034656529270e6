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
	"context"
	"fmt"
	"time"
)

// MaxResponseLength is the largest payload a normal information frame can carry
// back to the host: 255 LEN minus the TFI and the response code.
const MaxResponseLength = 253

// Transport defines the framing layer a PN532 is driven through.
// Implementations are not safe for concurrent use; a command must be followed by
// its ReadResponse before the next WriteCommand.
type Transport interface {
	// WriteCommand frames and sends cmd, then waits for the device to acknowledge it.
	// cmd[0] is the opcode the following response is matched against.
	WriteCommand(cmd []byte) error

	// ReadResponse waits up to timeout (0 waits forever) for the response to the
	// last command and copies its payload into buf, returning the payload length.
	ReadResponse(buf []byte, timeout time.Duration) (int, error)

	// Wakeup brings the device out of power down
	Wakeup() error

	// Close releases the bus
	Close() error

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportSPI represents SPI bus transport.
	TransportSPI TransportType = "spi"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// SendCommand writes cmd followed by args and returns the response payload
func SendCommand(t Transport, cmd byte, args []byte, timeout time.Duration) ([]byte, error) {
	if err := t.WriteCommand(buildCommand(cmd, args)); err != nil {
		return nil, err
	}

	var buf [MaxResponseLength]byte
	n, err := t.ReadResponse(buf[:], timeout)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), buf[:n]...), nil
}

// SendCommandContext is SendCommand bounded by ctx. The response budget is the time
// left until the context deadline, or unbounded when there is none.
func SendCommandContext(ctx context.Context, t Transport, cmd byte, args []byte) ([]byte, error) {
	return sendCommandContext(ctx, t, cmd, args, 0)
}

func sendCommandContext(ctx context.Context, t Transport, cmd byte, args []byte, timeout time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled before sending command: %w", err)
	}
	tc := AsTransportContext(t)
	if err := tc.WriteCommand(buildCommand(cmd, args)); err != nil {
		return nil, err
	}

	var buf [MaxResponseLength]byte
	n, err := tc.ReadResponseContext(ctx, buf[:], timeout)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), buf[:n]...), nil
}

func buildCommand(cmd byte, args []byte) []byte {
	out := make([]byte, 0, len(args)+1)
	out = append(out, cmd)
	return append(out, args...)
}

// TransportWithRetry wraps a Transport with retry capabilities.
// Only whole exchanges are retried; WriteCommand and ReadResponse pass straight through.
type TransportWithRetry struct {
	transport Transport
	config    *RetryConfig
}

// NewTransportWithRetry creates a new transport wrapper with retry logic
func NewTransportWithRetry(transport Transport, config *RetryConfig) *TransportWithRetry {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &TransportWithRetry{
		transport: transport,
		config:    config,
	}
}

// SendCommand runs a full command/response exchange, repeating it on retryable errors
func (t *TransportWithRetry) SendCommand(cmd byte, args []byte, timeout time.Duration) ([]byte, error) {
	var result []byte
	err := RetryWithConfig(context.Background(), t.config, func() error {
		var err error
		result, err = SendCommand(t.transport, cmd, args, timeout)
		return err
	})
	return result, err
}

// SendCommandContext is SendCommand bounded by ctx. Each attempt waits at most
// timeout for its response (0 leaves only the context deadline); cancellation
// stops both the backoff between attempts and the wait for a response.
func (t *TransportWithRetry) SendCommandContext(
	ctx context.Context, cmd byte, args []byte, timeout time.Duration,
) ([]byte, error) {
	var result []byte
	err := RetryWithConfig(ctx, t.config, func() error {
		var err error
		result, err = sendCommandContext(ctx, t.transport, cmd, args, timeout)
		return err
	})
	return result, err
}

// WriteCommand forwards to the underlying transport
func (t *TransportWithRetry) WriteCommand(cmd []byte) error {
	if err := t.transport.WriteCommand(cmd); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// ReadResponse forwards to the underlying transport
func (t *TransportWithRetry) ReadResponse(buf []byte, timeout time.Duration) (int, error) {
	n, err := t.transport.ReadResponse(buf, timeout)
	if err != nil {
		return n, fmt.Errorf("read response: %w", err)
	}
	return n, nil
}

// Wakeup forwards to the underlying transport
func (t *TransportWithRetry) Wakeup() error {
	if err := t.transport.Wakeup(); err != nil {
		return fmt.Errorf("failed to wake underlying transport: %w", err)
	}
	return nil
}

// Close closes the transport connection
func (t *TransportWithRetry) Close() error {
	if err := t.transport.Close(); err != nil {
		return fmt.Errorf("failed to close underlying transport: %w", err)
	}
	return nil
}

// Type returns the transport type
func (t *TransportWithRetry) Type() TransportType {
	return t.transport.Type()
}

// SetRetryConfig updates the retry configuration
func (t *TransportWithRetry) SetRetryConfig(config *RetryConfig) {
	t.config = config
}
