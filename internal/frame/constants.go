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

// Package frame provides frame manipulation and protocol constants for PN532 communication
package frame

// Frame direction constants - these indicate the direction of data flow
const (
	HostToPn532 = 0xD4 // Commands from host to PN532
	Pn532ToHost = 0xD5 // Responses from PN532 to host
)

// Frame markers and control bytes
const (
	Preamble   = 0x00 // Frame preamble byte
	StartCode1 = 0x00 // Start code byte 1
	StartCode2 = 0xFF // Start code byte 2
	Postamble  = 0x00 // Frame postamble byte
)

// Frame size limits for normal information frames
const (
	MaxDataLength    = 255               // Largest LEN value (TFI + payload)
	MaxPayloadLength = MaxDataLength - 1 // Payload bytes after the TFI
	Overhead         = 7                 // preamble, start codes, len, lcs, dcs, postamble
	MaxFrameLength   = MaxDataLength + Overhead
	AckLength        = 6
)

// ACK and NACK frames - these are used for flow control
var (
	AckFrame  = [AckLength]byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}
	NackFrame = [AckLength]byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00}
)
