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
	"strings"
	"time"
)

// TraceDirection identifies what a trace entry recorded
type TraceDirection string

const (
	TraceTX      TraceDirection = "TX"
	TraceRX      TraceDirection = "RX"
	TraceTimeout TraceDirection = "TIMEOUT"
)

// TraceEntry is one recorded bus event
type TraceEntry struct {
	Timestamp time.Time
	Direction TraceDirection
	Note      string
	Data      []byte
}

// TraceBuffer keeps the last few bus events of a command so they can be attached
// to an error. It is only read when something fails.
type TraceBuffer struct {
	transport string
	port      string
	entries   []TraceEntry
	capacity  int
}

// NewTraceBuffer creates a ring of at most capacity entries
func NewTraceBuffer(transport, port string, capacity int) *TraceBuffer {
	if capacity <= 0 {
		capacity = 16
	}
	return &TraceBuffer{
		transport: transport,
		port:      port,
		capacity:  capacity,
		entries:   make([]TraceEntry, 0, capacity),
	}
}

// RecordTX records bytes sent to the device
func (tb *TraceBuffer) RecordTX(data []byte, note string) {
	tb.record(TraceTX, data, note)
}

// RecordRX records bytes received from the device
func (tb *TraceBuffer) RecordRX(data []byte, note string) {
	tb.record(TraceRX, data, note)
}

// RecordTimeout records an exhausted wait
func (tb *TraceBuffer) RecordTimeout(note string) {
	tb.record(TraceTimeout, nil, note)
}

func (tb *TraceBuffer) record(dir TraceDirection, data []byte, note string) {
	if tb == nil {
		return
	}
	if len(tb.entries) == tb.capacity {
		copy(tb.entries, tb.entries[1:])
		tb.entries = tb.entries[:len(tb.entries)-1]
	}
	tb.entries = append(tb.entries, TraceEntry{
		Timestamp: time.Now(),
		Direction: dir,
		Note:      note,
		Data:      append([]byte(nil), data...),
	})
}

// Entries returns a copy of the recorded entries, oldest first
func (tb *TraceBuffer) Entries() []TraceEntry {
	if tb == nil {
		return nil
	}
	out := make([]TraceEntry, len(tb.entries))
	copy(out, tb.entries)
	return out
}

// WrapError attaches the trace to err. A nil err stays nil.
func (tb *TraceBuffer) WrapError(err error) error {
	if err == nil || tb == nil {
		return err
	}
	var existing *TraceError
	if errors.As(err, &existing) {
		return err
	}
	return &TraceError{
		Err:       err,
		Transport: tb.transport,
		Port:      tb.port,
		Trace:     tb.Entries(),
	}
}

// TraceError is an error carrying the bus events leading up to it
type TraceError struct {
	Err       error
	Transport string
	Port      string
	Trace     []TraceEntry
}

// Error implements the error interface. The trace itself is only in FormatTrace.
func (e *TraceError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *TraceError) Unwrap() error {
	return e.Err
}

// FormatTrace renders the trace as one line per entry
func (e *TraceError) FormatTrace() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "%s trace for %s:\n", e.Transport, e.Port)
	for _, entry := range e.Trace {
		_, _ = fmt.Fprintf(&sb, "  %s %-7s % X", entry.Timestamp.Format("15:04:05.000"), entry.Direction, entry.Data)
		if entry.Note != "" {
			_, _ = fmt.Fprintf(&sb, " (%s)", entry.Note)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// GetTrace returns the trace attached to err, if any
func GetTrace(err error) []TraceEntry {
	var te *TraceError
	if errors.As(err, &te) {
		return te.Trace
	}
	return nil
}
