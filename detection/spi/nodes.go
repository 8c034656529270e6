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
	"fmt"
	"path/filepath"
)

// parseNodeName extracts bus and chip select from a spidevB.C path
func parseNodeName(path string) (node, bool) {
	n := node{Path: path}
	var rest string
	count, _ := fmt.Sscanf(filepath.Base(path), "spidev%d.%d%s", &n.Bus, &n.ChipSelect, &rest)
	if count != 2 || n.Bus < 0 || n.ChipSelect < 0 {
		return node{}, false
	}
	return n, true
}
