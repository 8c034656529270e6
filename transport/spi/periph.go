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
	"math/bits"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// DefaultFrequency is the bus clock used unless configured otherwise
	DefaultFrequency = 2 * physic.MegaHertz
	// MaxFrequency is the fastest clock the PN532 accepts on SPI
	MaxFrequency = 5 * physic.MegaHertz
)

var errInvalidBusConfig = errors.New("invalid SPI bus config")

// BusConfig describes how to reach a PN532 through periph.io
type BusConfig struct {
	// Port is the periph SPI port name, e.g. "/dev/spidev0.0" or "SPI0.0"
	Port string
	// ChipSelect is the GPIO driven as chip select, e.g. "GPIO8". The PN532 needs
	// chip select held across several transfers, so the controller's own CS is
	// disabled.
	ChipSelect string
	Frequency  physic.Frequency
	// HardwareLSBFirst asks the controller to shift LSB first instead of
	// reversing bits in software. Many Linux spidev drivers reject it.
	HardwareLSBFirst bool
}

// Validate checks the bus parameters, filling in the default frequency
func (c *BusConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: port is required", errInvalidBusConfig)
	}
	if c.ChipSelect == "" {
		return fmt.Errorf("%w: chip select pin is required", errInvalidBusConfig)
	}
	if c.Frequency == 0 {
		c.Frequency = DefaultFrequency
	}
	if c.Frequency < 0 || c.Frequency > MaxFrequency {
		return fmt.Errorf("%w: frequency %s outside (0, %s]", errInvalidBusConfig, c.Frequency, MaxFrequency)
	}
	return nil
}

// mode returns the SPI mode flags for the config: mode 0, CS under our control
func (c *BusConfig) mode() spi.Mode {
	m := spi.Mode0 | spi.NoCS
	if c.HardwareLSBFirst {
		m |= spi.LSBFirst
	}
	return m
}

// PeriphBus is a Bus on a periph.io SPI port with a GPIO chip select
type PeriphBus struct {
	port    spi.PortCloser
	conn    spi.Conn
	cs      gpio.PinOut
	reverse bool
}

// OpenPeriphBus initialises periph, opens the port in mode 0 at the configured
// clock and parks chip select high
func OpenPeriphBus(cfg BusConfig) (*PeriphBus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	cs := gpioreg.ByName(cfg.ChipSelect)
	if cs == nil {
		return nil, fmt.Errorf("chip select pin %s not found", cfg.ChipSelect)
	}

	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", cfg.Port, err)
	}

	conn, err := port.Connect(cfg.Frequency, cfg.mode(), 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect SPI: %w", err)
	}

	if err := cs.Out(gpio.High); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to drive chip select %s: %w", cfg.ChipSelect, err)
	}

	return &PeriphBus{
		port:    port,
		conn:    conn,
		cs:      cs,
		reverse: !cfg.HardwareLSBFirst,
	}, nil
}

// Select drives chip select low
func (b *PeriphBus) Select() error {
	if err := b.cs.Out(gpio.Low); err != nil {
		return fmt.Errorf("chip select low: %w", err)
	}
	return nil
}

// Deselect drives chip select high
func (b *PeriphBus) Deselect() error {
	if err := b.cs.Out(gpio.High); err != nil {
		return fmt.Errorf("chip select high: %w", err)
	}
	return nil
}

// WriteByte clocks out one byte
func (b *PeriphBus) WriteByte(c byte) error {
	w := [1]byte{b.order(c)}
	if err := b.conn.Tx(w[:], nil); err != nil {
		return fmt.Errorf("SPI write: %w", err)
	}
	return nil
}

// ReadByte clocks in one byte while sending zero
func (b *PeriphBus) ReadByte() (byte, error) {
	var w, r [1]byte
	if err := b.conn.Tx(w[:], r[:]); err != nil {
		return 0, fmt.Errorf("SPI read: %w", err)
	}
	return b.order(r[0]), nil
}

// Close releases chip select and the port
func (b *PeriphBus) Close() error {
	_ = b.cs.Out(gpio.High)
	if err := b.port.Close(); err != nil {
		return fmt.Errorf("SPI port close: %w", err)
	}
	return nil
}

// order converts between PN532 (LSB first) and controller (MSB first) bit order
func (b *PeriphBus) order(c byte) byte {
	if b.reverse {
		return bits.Reverse8(c)
	}
	return c
}

// Open opens a periph bus, builds a transport on it and wakes the PN532
func Open(cfg BusConfig, opts ...Option) (*Transport, error) {
	bus, err := OpenPeriphBus(cfg)
	if err != nil {
		return nil, err
	}

	opts = append([]Option{WithPortName(cfg.Port)}, opts...)
	t, err := New(bus, opts...)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}

	if err := t.Wakeup(); err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("failed to wake PN532: %w", err)
	}
	return t, nil
}

// Ensure PeriphBus implements Bus
var _ Bus = (*PeriphBus)(nil)
