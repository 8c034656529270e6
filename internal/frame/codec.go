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

package frame

import (
	"errors"
	"fmt"
	"io"

	pn532 "github.com/ZaparooProject/go-pn532spi"
)

// AppendFrame appends the normal information frame carrying tfi and data to dst
// and returns the extended slice. dst is returned unchanged if data does not fit
// in an 8-bit LEN field.
func AppendFrame(dst []byte, tfi byte, data []byte) ([]byte, error) {
	if len(data) > MaxPayloadLength {
		return dst, fmt.Errorf("%w: %d bytes, max %d", pn532.ErrDataTooLarge, len(data), MaxPayloadLength)
	}

	length := byte(len(data) + 1) // TFI + data
	dst = append(dst, Preamble, StartCode1, StartCode2, length, CalculateLengthChecksum(length), tfi)
	dst = append(dst, data...)
	return append(dst, CalculateDataChecksum(tfi, data), Postamble), nil
}

// Decode reads one normal information frame from r. The data field must begin
// with header (the TFI, optionally followed by the response code); the remaining
// data bytes are copied into buf and their count is returned.
//
// Once LEN has been read the frame is consumed up to and including the postamble
// even when it is rejected, so the next read starts on a frame boundary.
func Decode(r io.ByteReader, buf []byte, header ...byte) (int, error) {
	if err := expectStart(r); err != nil {
		return 0, err
	}

	length, err := readByte(r)
	if err != nil {
		return 0, err
	}
	lcs, err := readByte(r)
	if err != nil {
		return 0, err
	}
	if length+lcs != 0 {
		return 0, fmt.Errorf("%w: length 0x%02X with checksum 0x%02X", pn532.ErrFrameCorrupted, length, lcs)
	}

	var sum byte
	mismatch := -1
	var got byte
	for i, want := range header {
		b, err := readByte(r)
		if err != nil {
			return 0, err
		}
		sum += b
		if b != want && mismatch < 0 {
			mismatch, got = i, b
		}
	}

	// Payload bytes left after the header. LEN is only protected by LCS, so a
	// short LEN simply yields an empty payload.
	n := int(length) - len(header)
	if n < 0 {
		n = 0
	}

	if mismatch >= 0 {
		if err := drain(r, n+2); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w: header byte %d is 0x%02X, want 0x%02X",
			pn532.ErrFrameCorrupted, mismatch, got, header[mismatch])
	}

	if n > len(buf) {
		if err := drain(r, n+2); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %d byte payload, %d byte buffer", pn532.ErrBufferTooSmall, n, len(buf))
	}

	for i := range n {
		b, err := readByte(r)
		if err != nil {
			return 0, err
		}
		buf[i] = b
		sum += b
	}

	dcs, err := readByte(r)
	if err != nil {
		return 0, err
	}
	if _, err := readByte(r); err != nil { // postamble
		return 0, err
	}
	if sum+dcs != 0 {
		return 0, fmt.Errorf("%w: data checksum 0x%02X", pn532.ErrChecksumMismatch, dcs)
	}

	return n, nil
}

// DecodeResponse reads the device's response to the command with opcode cmd
func DecodeResponse(r io.ByteReader, buf []byte, cmd byte) (int, error) {
	return Decode(r, buf, Pn532ToHost, cmd+1)
}

func expectStart(r io.ByteReader) error {
	for i, want := range [...]byte{Preamble, StartCode1, StartCode2} {
		b, err := readByte(r)
		if err != nil {
			return err
		}
		if b != want {
			return fmt.Errorf("%w: start byte %d is 0x%02X, want 0x%02X", pn532.ErrFrameCorrupted, i, b, want)
		}
	}
	return nil
}

func drain(r io.ByteReader, n int) error {
	for range n {
		if _, err := readByte(r); err != nil {
			return err
		}
	}
	return nil
}

func readByte(r io.ByteReader) (byte, error) {
	b, err := r.ReadByte()
	if err == nil {
		return b, nil
	}
	if errors.Is(err, pn532.ErrTransportRead) {
		return 0, err
	}
	return 0, fmt.Errorf("%w: %w", pn532.ErrTransportRead, err)
}
