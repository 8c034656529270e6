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

// Package spi provides SPI transport implementation for PN532
package spi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	pn532 "github.com/ZaparooProject/go-pn532spi"
	"github.com/ZaparooProject/go-pn532spi/internal/frame"
	"github.com/ZaparooProject/go-pn532spi/internal/transport"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

const (
	// SPI protocol constants
	spiStatRead  = 0x02
	spiDataWrite = 0x01
	spiDataRead  = 0x03
	spiReady     = 0x01

	traceCapacity = 16
)

// Transport implements the pn532.Transport interface for SPI communication.
// It is not safe for concurrent use.
type Transport struct {
	bus          Bus
	clock        Sleeper
	currentTrace *pn532.TraceBuffer // Trace buffer for current operation (error-only)
	logger       zerolog.Logger
	portName     string
	config       Config
	command      byte // opcode of the last command written
	closed       bool
}

// New creates a transport on an already configured bus
func New(bus Bus, opts ...Option) (*Transport, error) {
	if bus == nil {
		return nil, pn532.NewInvalidParameterError("New", "", "nil bus")
	}

	t := &Transport{
		bus:      bus,
		clock:    clockwork.NewRealClock(),
		logger:   zerolog.Nop(),
		portName: "spi",
		config:   DefaultConfig(),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Wakeup holds chip select low briefly, which brings the PN532 out of power down
func (t *Transport) Wakeup() error {
	if t.closed {
		return pn532.ErrTransportClosed
	}
	if err := t.bus.Select(); err != nil {
		return pn532.NewTransportWriteError("Wakeup", t.portName, err)
	}
	t.clock.Sleep(t.config.WakeDelay)
	return t.deselect("Wakeup")
}

// WriteCommand sends cmd in a normal information frame and waits for the ACK.
// cmd[0] is remembered as the opcode the next response must answer.
func (t *Transport) WriteCommand(cmd []byte) error {
	if t.closed {
		return pn532.ErrTransportClosed
	}
	if len(cmd) == 0 {
		return pn532.NewInvalidParameterError("WriteCommand", t.portName, "empty command")
	}

	t.currentTrace = pn532.NewTraceBuffer("SPI", t.portName, traceCapacity)
	defer func() { t.currentTrace = nil }()

	var buf [frame.MaxFrameLength]byte
	envelope, err := frame.AppendFrame(buf[:0], frame.HostToPn532, cmd)
	if err != nil {
		return t.fail("WriteCommand", pn532.NewDataTooLargeError("WriteCommand", t.portName))
	}

	t.command = cmd[0]
	if err := t.writeFrame(envelope); err != nil {
		return t.fail("WriteCommand", err)
	}

	if err := t.waitAck(); err != nil {
		return t.fail("WriteCommand", err)
	}
	return nil
}

// ReadResponse reads the response to the last command into buf and returns the
// payload length. timeout bounds the wait for the device to become ready; zero
// waits forever.
func (t *Transport) ReadResponse(buf []byte, timeout time.Duration) (int, error) {
	return t.ReadResponseContext(context.Background(), buf, timeout)
}

// ReadResponseContext is ReadResponse that also stops waiting when ctx is done.
// A context deadline shortens the budget and expires as a timeout; cancellation
// is only checked between status polls.
func (t *Transport) ReadResponseContext(ctx context.Context, buf []byte, timeout time.Duration) (int, error) {
	if t.closed {
		return 0, pn532.ErrTransportClosed
	}

	t.currentTrace = pn532.NewTraceBuffer("SPI", t.portName, traceCapacity)
	defer func() { t.currentTrace = nil }()

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.traceTimeout("Deadline passed before response")
			return 0, t.fail("ReadResponse", pn532.NewTimeoutError("ReadResponse", t.portName))
		}
		if timeout == 0 || remaining < timeout {
			timeout = remaining
		}
	}

	cfg := t.pollConfig("ReadResponse", 0, "Device not ready for response")
	if _, err := transport.TimeoutRetry(ctx, cfg, timeout, t.pollReady); err != nil {
		// the deadline can expire in wall time before the charged poll budget does
		if hasDeadline && errors.Is(err, context.DeadlineExceeded) {
			t.traceTimeout("Device not ready for response")
			err = pn532.NewTimeoutError("ReadResponse", t.portName)
		}
		return 0, t.fail("ReadResponse", err)
	}

	n, err := t.readFrame(buf)
	if err != nil {
		return 0, t.fail("ReadResponse", err)
	}
	return n, nil
}

// Close closes the transport and the bus if it can be closed
func (t *Transport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	if closer, ok := t.bus.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("SPI close failed: %w", err)
		}
	}
	return nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportSPI
}

// isReady asks the device for its status byte
func (t *Transport) isReady() (bool, error) {
	if err := t.bus.Select(); err != nil {
		return false, pn532.NewTransportWriteError("isReady", t.portName, err)
	}

	var status byte
	err := t.bus.WriteByte(spiStatRead)
	if err != nil {
		err = pn532.NewTransportWriteError("isReady", t.portName, err)
	} else if status, err = t.bus.ReadByte(); err != nil {
		err = pn532.NewTransportReadError("isReady", t.portName, err)
	}

	if dErr := t.deselect("isReady"); err == nil {
		err = dErr
	}
	if err != nil {
		return false, err
	}
	return status&spiReady == spiReady, nil
}

func (t *Transport) pollReady() (struct{}, bool, error) {
	ready, err := t.isReady()
	return struct{}{}, !ready, err
}

// pollConfig describes a readiness wait; note is recorded in the trace when it
// runs out
func (t *Transport) pollConfig(op string, maxRetries int, note string) transport.RetryConfig {
	return transport.RetryConfig{
		Clock:       t.clock,
		Description: op,
		Port:        t.portName,
		MaxRetries:  maxRetries,
		RetryDelay:  t.config.PollInterval,
		OnRetry: func() error {
			t.logger.Trace().Str("port", t.portName).Str("op", op).Msg("pn532 spi: device busy")
			return nil
		},
		OnRetryFailed: func() error {
			t.traceTimeout(note)
			return nil
		},
	}
}

// writeFrame clocks a complete envelope out after the data write request
func (t *Transport) writeFrame(envelope []byte) error {
	t.traceTX(envelope, fmt.Sprintf("Cmd 0x%02X", t.command))
	t.logger.Debug().Str("port", t.portName).Uint8("cmd", t.command).Hex("tx", envelope).Msg("pn532 spi: write frame")

	if err := t.bus.Select(); err != nil {
		return pn532.NewTransportWriteError("writeFrame", t.portName, err)
	}
	t.clock.Sleep(t.config.WakeDelay) // wake up PN532

	err := t.bus.WriteByte(spiDataWrite)
	for i := 0; err == nil && i < len(envelope); i++ {
		err = t.bus.WriteByte(envelope[i])
	}
	if err != nil {
		err = pn532.NewTransportWriteError("writeFrame", t.portName, err)
	}

	if dErr := t.deselect("writeFrame"); err == nil {
		err = dErr
	}
	return err
}

// waitAck polls for readiness and then checks the acknowledgment frame
func (t *Transport) waitAck() error {
	cfg := t.pollConfig("waitAck", t.config.AckRetries, "Device not ready for ACK")
	if _, err := transport.WithRetry(cfg, t.pollReady); err != nil {
		return err
	}

	ack, err := t.readAck()
	if err != nil {
		return err
	}

	switch ack {
	case frame.AckFrame:
		t.traceRX(ack[:], "ACK")
		return nil
	case frame.NackFrame:
		t.traceRX(ack[:], "NACK")
		return pn532.NewTransportError("waitAck", t.portName,
			fmt.Errorf("%w: NACK received", pn532.ErrInvalidACK), pn532.ErrorTypePermanent)
	default:
		t.traceRX(ack[:], "Invalid ACK")
		return pn532.NewInvalidACKError("waitAck", t.portName)
	}
}

// readAck reads the six acknowledgment bytes
func (t *Transport) readAck() ([frame.AckLength]byte, error) {
	var ack [frame.AckLength]byte

	if err := t.bus.Select(); err != nil {
		return ack, pn532.NewTransportWriteError("readAck", t.portName, err)
	}
	t.clock.Sleep(t.config.SettleDelay)

	err := t.bus.WriteByte(spiDataRead)
	if err != nil {
		err = pn532.NewTransportWriteError("readAck", t.portName, err)
	}
	for i := 0; err == nil && i < len(ack); i++ {
		if ack[i], err = t.bus.ReadByte(); err != nil {
			err = pn532.NewTransportReadError("readAck", t.portName, err)
		}
	}

	if dErr := t.deselect("readAck"); err == nil {
		err = dErr
	}
	return ack, err
}

// readFrame clocks in one response frame. Chip select is released exactly once
// whatever the outcome.
func (t *Transport) readFrame(buf []byte) (n int, err error) {
	if err := t.bus.Select(); err != nil {
		return 0, pn532.NewTransportWriteError("readFrame", t.portName, err)
	}
	defer func() {
		if dErr := t.deselect("readFrame"); err == nil && dErr != nil {
			n, err = 0, dErr
		}
	}()

	t.clock.Sleep(t.config.SettleDelay)
	if err := t.bus.WriteByte(spiDataRead); err != nil {
		return 0, pn532.NewTransportWriteError("readFrame", t.portName, err)
	}

	rec := &recordingReader{r: t.bus}
	n, err = frame.DecodeResponse(rec, buf, t.command)
	t.traceRX(rec.bytes(), "Response")
	t.logger.Debug().Str("port", t.portName).Hex("rx", rec.bytes()).Msg("pn532 spi: read frame")
	if err != nil {
		return 0, t.classify("readFrame", err)
	}
	return n, nil
}

// classify turns a codec error into a TransportError of the matching kind
func (t *Transport) classify(op string, err error) error {
	switch {
	case errors.Is(err, pn532.ErrBufferTooSmall):
		return pn532.NewBufferTooSmallError(op, t.portName, err)
	case errors.Is(err, pn532.ErrFrameCorrupted):
		return pn532.NewFrameCorruptedError(op, t.portName, err)
	case errors.Is(err, pn532.ErrTransportRead):
		return pn532.NewTransportReadError(op, t.portName, err)
	default:
		return pn532.NewTransportError(op, t.portName, err, pn532.ErrorTypeTransient)
	}
}

func (t *Transport) deselect(op string) error {
	if err := t.bus.Deselect(); err != nil {
		return pn532.NewTransportWriteError(op, t.portName, err)
	}
	return nil
}

// fail logs err and attaches the current trace to it
//
//nolint:wrapcheck // WrapError intentionally wraps errors with trace data
func (t *Transport) fail(op string, err error) error {
	t.logger.Debug().Err(err).Str("port", t.portName).Str("op", op).Msg("pn532 spi: operation failed")
	return t.currentTrace.WrapError(err)
}

// traceTX records a TX operation if trace buffer is active
func (t *Transport) traceTX(data []byte, note string) {
	if t.currentTrace != nil {
		t.currentTrace.RecordTX(data, note)
	}
}

// traceRX records an RX operation if trace buffer is active
func (t *Transport) traceRX(data []byte, note string) {
	if t.currentTrace != nil {
		t.currentTrace.RecordRX(data, note)
	}
}

// traceTimeout records a timeout if trace buffer is active
func (t *Transport) traceTimeout(note string) {
	if t.currentTrace != nil {
		t.currentTrace.RecordTimeout(note)
	}
}

// recordingReader keeps a copy of every byte read for traces and logs
type recordingReader struct {
	r   io.ByteReader
	buf [frame.MaxFrameLength]byte
	n   int
}

func (rr *recordingReader) ReadByte() (byte, error) {
	b, err := rr.r.ReadByte()
	if err == nil && rr.n < len(rr.buf) {
		rr.buf[rr.n] = b
		rr.n++
	}
	return b, err
}

func (rr *recordingReader) bytes() []byte {
	return rr.buf[:rr.n]
}

// Ensure Transport implements pn532.TransportContext
var _ pn532.TransportContext = (*Transport)(nil)
