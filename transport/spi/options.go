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
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultAckRetries is how many status polls WriteCommand makes while waiting for the ACK
	DefaultAckRetries = 10
	// DefaultPollInterval is the spacing between status polls
	DefaultPollInterval = time.Millisecond
	// DefaultWakeDelay is how long chip select is held before a frame is written
	DefaultWakeDelay = 2 * time.Millisecond
	// DefaultSettleDelay is how long chip select is held before a frame is read
	DefaultSettleDelay = time.Millisecond
)

var errInvalidConfig = errors.New("invalid SPI transport config")

// Config holds the protocol timing of a Transport
type Config struct {
	AckRetries   int
	PollInterval time.Duration
	WakeDelay    time.Duration
	SettleDelay  time.Duration
}

// DefaultConfig returns the default protocol timing
func DefaultConfig() Config {
	return Config{
		AckRetries:   DefaultAckRetries,
		PollInterval: DefaultPollInterval,
		WakeDelay:    DefaultWakeDelay,
		SettleDelay:  DefaultSettleDelay,
	}
}

// Validate checks that the configuration is usable
func (c Config) Validate() error {
	if c.AckRetries < 1 {
		return fmt.Errorf("%w: ack retries must be at least 1, got %d", errInvalidConfig, c.AckRetries)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %v", errInvalidConfig, c.PollInterval)
	}
	if c.WakeDelay < 0 || c.SettleDelay < 0 {
		return fmt.Errorf("%w: delays must not be negative", errInvalidConfig)
	}
	return nil
}

// Option configures a Transport
type Option func(*Transport) error

// WithConfig replaces the whole timing configuration
func WithConfig(config Config) Option {
	return func(t *Transport) error {
		if err := config.Validate(); err != nil {
			return err
		}
		t.config = config
		return nil
	}
}

// WithAckRetries sets how many status polls are made while waiting for the ACK
func WithAckRetries(retries int) Option {
	return func(t *Transport) error {
		if retries < 1 {
			return fmt.Errorf("%w: ack retries must be at least 1, got %d", errInvalidConfig, retries)
		}
		t.config.AckRetries = retries
		return nil
	}
}

// WithPollInterval sets the spacing between status polls
func WithPollInterval(interval time.Duration) Option {
	return func(t *Transport) error {
		if interval <= 0 {
			return fmt.Errorf("%w: poll interval must be positive, got %v", errInvalidConfig, interval)
		}
		t.config.PollInterval = interval
		return nil
	}
}

// WithSleeper replaces the clock used for every delay
func WithSleeper(sleeper Sleeper) Option {
	return func(t *Transport) error {
		if sleeper == nil {
			return fmt.Errorf("%w: nil sleeper", errInvalidConfig)
		}
		t.clock = sleeper
		return nil
	}
}

// WithLogger sets the diagnostic logger. Frames are hex dumped at debug level.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Transport) error {
		t.logger = logger
		return nil
	}
}

// WithPortName sets the name used in errors and traces
func WithPortName(name string) Option {
	return func(t *Transport) error {
		t.portName = name
		return nil
	}
}
