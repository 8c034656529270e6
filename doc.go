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

/*
Package pn532 drives the framing layer of a PN532 NFC controller.

The root package defines the Transport contract, the error taxonomy shared by
all transports, retry helpers and the trace buffers attached to failures. The
SPI transport itself lives in transport/spi; detection finds candidate spidev
nodes.

Every exchange is a command followed by its response:

	bus, err := spi.OpenPeriphBus(spi.BusConfig{Port: "/dev/spidev0.0", ChipSelect: "GPIO8"})
	if err != nil {
	    log.Fatal(err)
	}
	t, err := spi.New(bus)
	if err != nil {
	    log.Fatal(err)
	}
	defer t.Close()

	// GetFirmwareVersion
	payload, err := pn532.SendCommand(t, 0x02, nil, time.Second)
	var traceErr *pn532.TraceError
	if errors.As(err, &traceErr) {
	    log.Print(traceErr.FormatTrace())
	}
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Printf("% X\n", payload)

Commands are written as normal information frames (00 00 FF LEN LCS D4 data DCS
00) and must be acknowledged with 00 00 FF 00 FF 00. Responses are matched to
the command by opcode and their payload is returned without the TFI and
response code.

Wrap a transport in TransportWithRetry to repeat transient failures with
exponential backoff. Errors carry a TransportError with the operation and port,
and can be classified with IsRetryable and GetErrorType.
*/
package pn532
