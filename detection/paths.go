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

package detection

import (
	"path/filepath"
	"strings"
)

// IsPathIgnored reports whether devicePath matches one of ignorePaths, either
// exactly or after cleaning and case folding. Spidev nodes are matched on the
// whole path, so "/dev/spidev0.1" does not ignore "/dev/spidev0.0".
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}

	want := canonicalPath(devicePath)
	for _, p := range ignorePaths {
		if p == "" {
			continue
		}
		if p == devicePath || canonicalPath(p) == want {
			return true
		}
	}
	return false
}

func canonicalPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
