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

// Package detection finds PN532 readers attached to the host.
//
// Detectors for each bus register themselves on import; DetectAll runs every
// registered detector and merges what they report.
package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNoDevicesFound is returned when no detector reported a device
	ErrNoDevicesFound = errors.New("no PN532 devices found")
	// ErrDetectionTimeout is returned when the search ran out of time
	ErrDetectionTimeout = errors.New("device detection timed out")
	// ErrUnsupportedPlatform is returned by detectors that cannot run on this OS
	ErrUnsupportedPlatform = errors.New("detection not supported on this platform")
)

// Mode controls how intrusive detection is allowed to be
type Mode int

const (
	// Passive only looks at device nodes, nothing is opened
	Passive Mode = iota
	// Safe opens device nodes and queries the kernel driver, but never talks to the reader
	Safe
	// Full sends a GetFirmwareVersion command to confirm a PN532 is present
	Full
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case Passive:
		return "passive"
	case Safe:
		return "safe"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Confidence rates how sure a detector is that a device is a PN532
type Confidence int

const (
	Low Confidence = iota
	Medium
	High
)

// String returns the confidence level name
func (c Confidence) String() string {
	switch c {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return fmt.Sprintf("Confidence(%d)", int(c))
	}
}

// DeviceInfo describes a candidate reader
type DeviceInfo struct {
	Metadata   map[string]string
	Transport  string
	Path       string
	Name       string
	Confidence Confidence
}

// String returns a one line description of the device
func (d DeviceInfo) String() string {
	return fmt.Sprintf("%s:%s (%s confidence)", d.Transport, d.Path, d.Confidence)
}

// Options configures a detection run
type Options struct {
	// ChipSelect names the GPIO used as chip select when Full mode probes a reader
	ChipSelect  string
	IgnorePaths []string
	Timeout     time.Duration
	Mode        Mode
}

// DefaultOptions returns the options used when none are given
func DefaultOptions() Options {
	return Options{
		Mode:    Safe,
		Timeout: 5 * time.Second,
	}
}

// Detector finds devices on one kind of bus
type Detector interface {
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
	Transport() string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Detector)
)

// RegisterDetector adds d to the set DetectAll runs. A later registration for
// the same transport replaces the earlier one.
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Transport()] = d
}

// Detectors returns the registered detectors ordered by transport name
func Detectors() []Detector {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Detector, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Transport() < out[j].Transport() })
	return out
}

// DetectAll runs every registered detector with opts (nil means DefaultOptions)
func DetectAll(opts *Options) ([]DeviceInfo, error) {
	return DetectAllContext(context.Background(), opts)
}

// DetectAllContext is DetectAll bounded by ctx as well as opts.Timeout.
// Detectors that fail or are unsupported on this platform are skipped.
func DetectAllContext(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	return detectWith(ctx, Detectors(), opts)
}

func detectWith(ctx context.Context, detectors []Detector, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var devices []DeviceInfo
	for _, d := range detectors {
		if ctx.Err() != nil {
			if len(devices) > 0 {
				return devices, nil
			}
			return nil, ErrDetectionTimeout
		}

		found, err := d.Detect(ctx, opts)
		if err != nil {
			continue
		}
		for _, dev := range found {
			if !IsPathIgnored(dev.Path, opts.IgnorePaths) {
				devices = append(devices, dev)
			}
		}
	}

	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}

	sort.SliceStable(devices, func(i, j int) bool { return devices[i].Confidence > devices[j].Confidence })
	return devices, nil
}
