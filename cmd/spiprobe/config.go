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

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"periph.io/x/conn/v3/physic"

	"github.com/ZaparooProject/go-pn532spi/transport/spi"
)

// Config is the probe configuration. Values come from the TOML file given with
// -config and are then overridden by any flags set on the command line.
type Config struct {
	Port             string `toml:"port"`
	ChipSelect       string `toml:"chip_select"`
	LogFile          string `toml:"log_file"`
	FrequencyHz      int64  `toml:"frequency_hz"`
	AckRetries       int    `toml:"ack_retries"`
	TimeoutMs        int    `toml:"timeout_ms"`
	Attempts         int    `toml:"attempts"`
	HardwareLSBFirst bool   `toml:"hardware_lsb_first"`
	Debug            bool   `toml:"debug"`
}

var errInvalidConfig = errors.New("invalid configuration")

// DefaultConfig returns the values used when neither file nor flags set them
func DefaultConfig() Config {
	return Config{
		FrequencyHz: int64(spi.DefaultFrequency / physic.Hertz),
		AckRetries:  spi.DefaultAckRetries,
		TimeoutMs:   1000,
		Attempts:    1,
	}
}

// LoadConfig reads path on top of the defaults. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings that the bus config does not
func (c Config) Validate() error {
	switch {
	case c.AckRetries < 1:
		return fmt.Errorf("%w: ack_retries must be at least 1", errInvalidConfig)
	case c.TimeoutMs < 0:
		return fmt.Errorf("%w: timeout_ms must not be negative", errInvalidConfig)
	case c.Attempts < 1:
		return fmt.Errorf("%w: attempts must be at least 1", errInvalidConfig)
	case c.FrequencyHz < 0:
		return fmt.Errorf("%w: frequency_hz must not be negative", errInvalidConfig)
	}
	return nil
}

// Timeout is the response budget; zero waits forever
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// BusConfig converts the settings for spi.Open
func (c Config) BusConfig() spi.BusConfig {
	return spi.BusConfig{
		Port:             c.Port,
		ChipSelect:       c.ChipSelect,
		Frequency:        physic.Frequency(c.FrequencyHz) * physic.Hertz,
		HardwareLSBFirst: c.HardwareLSBFirst,
	}
}
