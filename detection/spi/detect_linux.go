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

//go:build linux

package spi

import (
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"
)

// spidev ioctl requests, _IOR('k', nr, size)
const (
	spiIocRdMaxSpeed = 0x80046b04
	spiIocRdMode32   = 0x80046b05
)

const spidevGlob = "/dev/spidev*"

// listNodes finds /dev/spidevB.C nodes, ordered by bus then chip select
func listNodes() ([]node, error) {
	matches, err := filepath.Glob(spidevGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for SPI devices: %w", err)
	}

	nodes := make([]node, 0, len(matches))
	for _, path := range matches {
		n, ok := parseNodeName(path)
		if ok {
			nodes = append(nodes, n)
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Bus != nodes[j].Bus {
			return nodes[i].Bus < nodes[j].Bus
		}
		return nodes[i].ChipSelect < nodes[j].ChipSelect
	})
	return nodes, nil
}

// queryNode opens a spidev node and reads its current mode and clock.
// Nothing is clocked out on the bus.
func queryNode(path string) (map[string]string, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = unix.Close(fd) }()

	mode, err := unix.IoctlGetUint32(fd, spiIocRdMode32)
	if err != nil {
		return nil, fmt.Errorf("read SPI mode of %s: %w", path, err)
	}
	speed, err := unix.IoctlGetUint32(fd, spiIocRdMaxSpeed)
	if err != nil {
		return nil, fmt.Errorf("read max speed of %s: %w", path, err)
	}

	return map[string]string{
		"mode":         fmt.Sprintf("0x%02X", mode),
		"max_speed_hz": fmt.Sprint(speed),
	}, nil
}
