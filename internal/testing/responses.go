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

package testing

import (
	"github.com/ZaparooProject/go-pn532spi/internal/frame"
)

// Command bytes for reference
const (
	CmdDiagnose            = 0x00
	CmdGetFirmwareVersion  = 0x02
	CmdSAMConfiguration    = 0x14
	CmdInDataExchange      = 0x40
	CmdInListPassiveTarget = 0x4A
)

// Byte offsets inside a normal information frame
const (
	OffsetPreamble     = 0
	OffsetStartCode1   = 1
	OffsetStartCode2   = 2
	OffsetLength       = 3
	OffsetLengthCheck  = 4
	OffsetTFI          = 5
	OffsetResponseCode = 6
	OffsetPayload      = 7
)

// FirmwareVersionPayload is a GetFirmwareVersion answer: IC, Ver, Rev, Support
var FirmwareVersionPayload = []byte{0x32, 0x01, 0x06, 0x07}

// BuildResponseFrame returns the wire bytes of a well-formed response to cmd
func BuildResponseFrame(cmd byte, payload []byte) []byte {
	data := make([]byte, 0, len(payload)+1)
	data = append(data, cmd+1)
	data = append(data, payload...)
	out, err := frame.AppendFrame(nil, frame.Pn532ToHost, data)
	if err != nil {
		panic(err)
	}
	return out
}

// BuildCommandFrame returns the wire bytes the host sends for cmd
func BuildCommandFrame(cmd []byte) []byte {
	out, err := frame.AppendFrame(nil, frame.HostToPn532, cmd)
	if err != nil {
		panic(err)
	}
	return out
}

// DataChecksumOffset returns the offset of the DCS byte in a frame
func DataChecksumOffset(f []byte) int {
	return len(f) - 2
}

// Corrupt returns a copy of f with the byte at offset changed to a different value
func Corrupt(f []byte, offset int) []byte {
	out := append([]byte(nil), f...)
	out[offset] ^= 0x5A
	return out
}
