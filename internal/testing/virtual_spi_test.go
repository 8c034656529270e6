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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-pn532spi/internal/frame"
)

func writeFrame(t *testing.T, v *VirtualSPI, f []byte) {
	t.Helper()
	require.NoError(t, v.Select())
	require.NoError(t, v.WriteByte(DataWrite))
	for _, b := range f {
		require.NoError(t, v.WriteByte(b))
	}
	require.NoError(t, v.Deselect())
}

func readBytes(t *testing.T, v *VirtualSPI, n int) []byte {
	t.Helper()
	require.NoError(t, v.Select())
	require.NoError(t, v.WriteByte(DataRead))
	out := make([]byte, n)
	for i := range out {
		b, err := v.ReadByte()
		require.NoError(t, err)
		out[i] = b
	}
	require.NoError(t, v.Deselect())
	return out
}

func status(t *testing.T, v *VirtualSPI) byte {
	t.Helper()
	require.NoError(t, v.Select())
	require.NoError(t, v.WriteByte(StatusRead))
	b, err := v.ReadByte()
	require.NoError(t, err)
	require.NoError(t, v.Deselect())
	return b
}

func TestVirtualSPI_Exchange(t *testing.T) {
	t.Parallel()

	v := NewEchoSPI()
	assert.Equal(t, byte(0x00), status(t, v), "idle device is not ready")

	writeFrame(t, v, BuildCommandFrame([]byte{CmdDiagnose, 0xAB}))
	assert.Equal(t, [][]byte{{CmdDiagnose, 0xAB}}, v.Commands())
	assert.Equal(t, byte(0x01), status(t, v))

	assert.Equal(t, frame.AckFrame[:], readBytes(t, v, frame.AckLength))

	resp := BuildResponseFrame(CmdDiagnose, []byte{0xAB})
	assert.Equal(t, resp, readBytes(t, v, len(resp)))
	assert.Zero(t, v.Pending())
	assert.Equal(t, byte(0x00), status(t, v))
}

func TestVirtualSPI_BadFrame(t *testing.T) {
	t.Parallel()

	v := NewEchoSPI()
	writeFrame(t, v, Corrupt(BuildCommandFrame([]byte{CmdGetFirmwareVersion}), 7))
	assert.Empty(t, v.Commands())
	assert.Len(t, v.BadFrames(), 1)
	assert.Zero(t, v.Pending(), "a rejected frame is not acknowledged")
}

func TestVirtualSPI_ProtocolViolations(t *testing.T) {
	t.Parallel()

	v := NewVirtualSPI(nil)
	require.ErrorIs(t, v.WriteByte(StatusRead), ErrBusProtocol)
	_, err := v.ReadByte()
	require.ErrorIs(t, err, ErrBusProtocol)
	require.ErrorIs(t, v.Deselect(), ErrBusProtocol)

	require.NoError(t, v.Select())
	require.ErrorIs(t, v.Select(), ErrBusProtocol)
	require.ErrorIs(t, v.WriteByte(0x7F), ErrBusProtocol)
	require.NoError(t, v.Deselect())
}

func TestVirtualSPI_NotReady(t *testing.T) {
	t.Parallel()

	v := NewEchoSPI()
	v.SetNotReady(2)
	writeFrame(t, v, BuildCommandFrame([]byte{CmdGetFirmwareVersion}))

	assert.Equal(t, byte(0x00), status(t, v))
	assert.Equal(t, byte(0x00), status(t, v))
	assert.Equal(t, byte(0x01), status(t, v))
	assert.Equal(t, 3, v.StatusPolls())
}

func TestVirtualSPI_Underflow(t *testing.T) {
	t.Parallel()

	v := NewVirtualSPI(nil)
	assert.Equal(t, []byte{0x00, 0x00}, readBytes(t, v, 2))
	assert.Equal(t, 2, v.Underflows())
}

func TestCorrupt(t *testing.T) {
	t.Parallel()

	f := BuildResponseFrame(CmdGetFirmwareVersion, FirmwareVersionPayload)
	c := Corrupt(f, OffsetResponseCode)
	assert.NotEqual(t, f[OffsetResponseCode], c[OffsetResponseCode])
	assert.Equal(t, byte(CmdGetFirmwareVersion+1), f[OffsetResponseCode], "original untouched")
	assert.Equal(t, len(f)-2, DataChecksumOffset(f))
}
