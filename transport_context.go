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

// TransportContext defines a Transport whose response wait can be cancelled.
// Cancellation is only observed between ready polls; a frame that has started
// clocking out is always read to the end.
type TransportContext interface {
	Transport

	// ReadResponseContext is ReadResponse bounded by ctx as well as timeout
	ReadResponseContext(ctx context.Context, buf []byte, timeout time.Duration) (int, error)
}

// transportContextAdapter wraps a Transport to provide context support
type transportContextAdapter struct {
	Transport
}

// ReadResponseContext implements TransportContext by folding the context deadline
// into the response budget
func (t *transportContextAdapter) ReadResponseContext(
	ctx context.Context, buf []byte, timeout time.Duration,
) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("context cancelled before reading response: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, fmt.Errorf("context cancelled before reading response: %w", context.DeadlineExceeded)
		}
		if timeout == 0 || remaining < timeout {
			timeout = remaining
		}
	}

	return t.ReadResponse(buf, timeout)
}

// AsTransportContext converts a Transport to TransportContext
func AsTransportContext(t Transport) TransportContext {
	if tc, ok := t.(TransportContext); ok {
		return tc
	}
	return &transportContextAdapter{Transport: t}
}
