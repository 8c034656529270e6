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
	"testing"
)

func TestIsPathIgnored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		devicePath  string
		ignorePaths []string
		expected    bool
	}{
		{name: "empty ignore list", devicePath: "/dev/spidev0.0", ignorePaths: []string{}, expected: false},
		{name: "nil ignore list", devicePath: "/dev/spidev0.0", expected: false},
		{name: "empty device path", devicePath: "", ignorePaths: []string{"/dev/spidev0.0"}, expected: false},
		{name: "exact match", devicePath: "/dev/spidev0.0", ignorePaths: []string{"/dev/spidev0.0"}, expected: true},
		{name: "other chip select", devicePath: "/dev/spidev0.0", ignorePaths: []string{"/dev/spidev0.1"}, expected: false},
		{name: "periph port name", devicePath: "SPI0.0", ignorePaths: []string{"spi0.0"}, expected: true},
		{name: "case insensitive", devicePath: "/dev/spidev1.0", ignorePaths: []string{"/DEV/SPIDEV1.0"}, expected: true},
		{name: "relative components", devicePath: "/dev/../dev/spidev0.0", ignorePaths: []string{"/dev/spidev0.0"}, expected: true},
		{name: "trailing slash", devicePath: "/dev/spidev0.0/", ignorePaths: []string{"/dev/spidev0.0"}, expected: true},
		{
			name:        "empty strings in ignore list",
			devicePath:  "/dev/spidev0.0",
			ignorePaths: []string{"", "/dev/spidev0.0", ""},
			expected:    true,
		},
		{
			name:        "multiple paths no match",
			devicePath:  "/dev/spidev2.0",
			ignorePaths: []string{"/dev/spidev0.0", "/dev/spidev1.0"},
			expected:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := IsPathIgnored(tt.devicePath, tt.ignorePaths)
			if result != tt.expected {
				t.Errorf("IsPathIgnored(%q, %v) = %v, want %v",
					tt.devicePath, tt.ignorePaths, result, tt.expected)
			}
		})
	}
}

func TestOptionsWithIgnorePaths(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if opts.IgnorePaths != nil {
		t.Errorf("DefaultOptions().IgnorePaths should be nil, got %v", opts.IgnorePaths)
	}
	if opts.Mode != Safe {
		t.Errorf("DefaultOptions().Mode = %v, want safe", opts.Mode)
	}
}
