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

// Package spi detects PN532 readers on Linux spidev buses.
//
// Importing the package registers the detector with the detection package.
package spi

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	pn532 "github.com/ZaparooProject/go-pn532spi"
	"github.com/ZaparooProject/go-pn532spi/detection"
	pn532spi "github.com/ZaparooProject/go-pn532spi/transport/spi"
)

const (
	transportName = "spi"

	cmdGetFirmwareVersion = 0x02
	pn532ICVersion        = 0x32

	probeTimeout = time.Second
)

var errNotPN532 = errors.New("device did not identify as a PN532")

// node is one spidev character device
type node struct {
	Path       string
	Bus        int
	ChipSelect int
}

type detector struct {
	list  func() ([]node, error)
	query func(path string) (map[string]string, error)
	open  func(path string, opts *detection.Options) (pn532.Transport, error)
}

// New creates a detector for the current platform
func New() detection.Detector {
	return &detector{
		list:  listNodes,
		query: queryNode,
		open:  openTransport,
	}
}

func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return transportName
}

// Detect lists spidev nodes and, depending on opts.Mode, checks them with the
// kernel driver and with a GetFirmwareVersion exchange
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	nodes, err := d.list()
	if err != nil {
		return nil, err
	}

	devices := make([]detection.DeviceInfo, 0, len(nodes))
	for _, n := range nodes {
		if ctx.Err() != nil {
			return devices, detection.ErrDetectionTimeout
		}
		if detection.IsPathIgnored(n.Path, opts.IgnorePaths) {
			continue
		}
		if dev, ok := d.inspect(ctx, n, opts); ok {
			devices = append(devices, dev)
		}
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

func (d *detector) inspect(ctx context.Context, n node, opts *detection.Options) (detection.DeviceInfo, bool) {
	dev := detection.DeviceInfo{
		Transport:  transportName,
		Path:       n.Path,
		Name:       fmt.Sprintf("SPI bus %d chip select %d", n.Bus, n.ChipSelect),
		Confidence: detection.Low,
		Metadata: map[string]string{
			"bus":         fmt.Sprint(n.Bus),
			"chip_select": fmt.Sprint(n.ChipSelect),
			"os":          runtime.GOOS,
		},
	}
	if opts.Mode == detection.Passive {
		return dev, true
	}

	info, err := d.query(n.Path)
	if err != nil {
		// no driver behind the node
		return detection.DeviceInfo{}, false
	}
	merge(dev.Metadata, info)
	dev.Confidence = detection.Medium

	// a GPIO chip select is needed to hold the PN532 selected across bytes
	if opts.Mode != detection.Full || opts.ChipSelect == "" {
		return dev, true
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	info, err = d.probeFirmware(probeCtx, n.Path, opts)
	if err != nil {
		return detection.DeviceInfo{}, false
	}
	merge(dev.Metadata, info)
	dev.Confidence = detection.High
	dev.Name = "PN532 on " + dev.Name
	return dev, true
}

func openTransport(path string, opts *detection.Options) (pn532.Transport, error) {
	t, err := pn532spi.Open(pn532spi.BusConfig{Port: path, ChipSelect: opts.ChipSelect})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// probeFirmware opens the node and asks the reader for its firmware version
func (d *detector) probeFirmware(ctx context.Context, path string, opts *detection.Options) (map[string]string, error) {
	t, err := d.open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = t.Close() }()

	resp, err := pn532.SendCommandContext(ctx, t, cmdGetFirmwareVersion, nil)
	if err != nil {
		return nil, fmt.Errorf("firmware version: %w", err)
	}
	return parseFirmwareVersion(resp)
}

// parseFirmwareVersion checks a GetFirmwareVersion payload (IC, Ver, Rev, Support)
func parseFirmwareVersion(resp []byte) (map[string]string, error) {
	if len(resp) < 4 {
		return nil, fmt.Errorf("%w: %d byte firmware response", errNotPN532, len(resp))
	}
	if resp[0] != pn532ICVersion {
		return nil, fmt.Errorf("%w: IC 0x%02X", errNotPN532, resp[0])
	}
	return map[string]string{
		"ic":       fmt.Sprintf("0x%02X", resp[0]),
		"firmware": fmt.Sprintf("%d.%d", resp[1], resp[2]),
		"support":  fmt.Sprintf("0x%02X", resp[3]),
	}, nil
}

func merge(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}
