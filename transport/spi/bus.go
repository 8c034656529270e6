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

package spi

import (
	"io"
	"time"
)

// Bus is the byte-level SPI capability the transport drives. Select and Deselect
// drive the chip-select line; bytes are exchanged in PN532 bit order, so an
// implementation on an MSB-first controller must reverse them.
type Bus interface {
	io.ByteReader
	io.ByteWriter

	// Select asserts chip select (drives it low)
	Select() error

	// Deselect releases chip select
	Deselect() error
}

// Sleeper is the delay capability used while waiting on the device.
// clockwork.Clock satisfies it.
type Sleeper interface {
	Sleep(d time.Duration)
}
