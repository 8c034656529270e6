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
	"errors"
	"fmt"
)

// Sentinel errors returned by transports. Callers branch on these with errors.Is.
var (
	// ErrTransportTimeout means the device never signalled ready within the budget
	ErrTransportTimeout = errors.New("transport timeout")
	// ErrTransportRead means a byte could not be clocked in from the bus
	ErrTransportRead = errors.New("transport read failed")
	// ErrTransportWrite means a byte could not be clocked out to the bus
	ErrTransportWrite = errors.New("transport write failed")
	// ErrCommunicationFailed is returned when a retried operation gives up
	ErrCommunicationFailed = errors.New("communication failed")

	// ErrInvalidACK means the acknowledgment frame did not match 00 00 FF 00 FF 00
	ErrInvalidACK = errors.New("invalid ACK frame")
	// ErrFrameCorrupted means a response frame failed header, length or opcode validation
	ErrFrameCorrupted = errors.New("frame corrupted")
	// ErrChecksumMismatch is the payload checksum flavour of ErrFrameCorrupted
	ErrChecksumMismatch = fmt.Errorf("%w: checksum mismatch", ErrFrameCorrupted)
	// ErrBufferTooSmall means a well-formed response did not fit the caller's buffer
	ErrBufferTooSmall = errors.New("response larger than buffer")

	// ErrDataTooLarge means a command does not fit in a normal information frame
	ErrDataTooLarge = errors.New("data too large")
	// ErrInvalidParameter means the caller passed an unusable argument
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrTransportClosed is returned by operations on a closed transport
	ErrTransportClosed = errors.New("transport closed")
)

// ErrorType classifies errors for retry decisions
type ErrorType int

const (
	// ErrorTypePermanent errors will not go away by repeating the operation
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors may succeed on a new attempt
	ErrorTypeTransient
	// ErrorTypeTimeout errors are transient errors caused by an exhausted wait
	ErrorTypeTimeout
)

// String returns a readable name for the error type
func (t ErrorType) String() string {
	switch t {
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// TransportError carries the operation and port an error happened on
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError whose retryability follows its type
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError reports that the device never became ready
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewInvalidACKError reports an acknowledgment mismatch
func NewInvalidACKError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrInvalidACK, ErrorTypePermanent)
}

// NewFrameCorruptedError wraps a frame validation failure. err must wrap ErrFrameCorrupted;
// a nil err is replaced by ErrFrameCorrupted itself.
func NewFrameCorruptedError(op, port string, err error) *TransportError {
	if err == nil {
		err = ErrFrameCorrupted
	}
	return NewTransportError(op, port, err, ErrorTypeTransient)
}

// NewBufferTooSmallError reports a response that did not fit
func NewBufferTooSmallError(op, port string, err error) *TransportError {
	if err == nil {
		err = ErrBufferTooSmall
	}
	return NewTransportError(op, port, err, ErrorTypePermanent)
}

// NewTransportReadError wraps a bus read failure
func NewTransportReadError(op, port string, err error) *TransportError {
	return NewTransportError(op, port, joinSentinel(ErrTransportRead, err), ErrorTypeTransient)
}

// NewTransportWriteError wraps a bus write failure
func NewTransportWriteError(op, port string, err error) *TransportError {
	return NewTransportError(op, port, joinSentinel(ErrTransportWrite, err), ErrorTypeTransient)
}

// NewDataTooLargeError reports a command that cannot be framed
func NewDataTooLargeError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrDataTooLarge, ErrorTypePermanent)
}

// NewInvalidParameterError reports an unusable argument
func NewInvalidParameterError(op, port, detail string) *TransportError {
	return NewTransportError(op, port, fmt.Errorf("%w: %s", ErrInvalidParameter, detail), ErrorTypePermanent)
}

func joinSentinel(sentinel, err error) error {
	switch {
	case err == nil:
		return sentinel
	case errors.Is(err, sentinel):
		return err
	default:
		return fmt.Errorf("%w: %w", sentinel, err)
	}
}

// IsRetryable reports whether repeating the failed exchange may succeed
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrCommunicationFailed),
		errors.Is(err, ErrFrameCorrupted):
		return true
	default:
		return false
	}
}

// GetErrorType returns the classification of err
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrCommunicationFailed),
		errors.Is(err, ErrFrameCorrupted):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
