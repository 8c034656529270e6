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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/ZaparooProject/go-pn532spi/internal/testing"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero ack retries", mutate: func(c *Config) { c.AckRetries = 0 }, wantErr: true},
		{name: "zero poll interval", mutate: func(c *Config) { c.PollInterval = 0 }, wantErr: true},
		{name: "negative wake delay", mutate: func(c *Config) { c.WakeDelay = -time.Millisecond }, wantErr: true},
		{name: "negative settle delay", mutate: func(c *Config) { c.SettleDelay = -1 }, wantErr: true},
		{name: "no delays", mutate: func(c *Config) { c.WakeDelay, c.SettleDelay = 0, 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, errInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	cfg := Config{AckRetries: 4, PollInterval: 2 * time.Millisecond, WakeDelay: 0, SettleDelay: 0}
	sleeper := &testutil.SleepCounter{}

	tr, err := New(testutil.NewEchoSPI(),
		WithConfig(cfg),
		WithAckRetries(7),
		WithPollInterval(3*time.Millisecond),
		WithSleeper(sleeper),
		WithPortName("SPI1.0"),
	)
	require.NoError(t, err)

	assert.Equal(t, 7, tr.config.AckRetries)
	assert.Equal(t, 3*time.Millisecond, tr.config.PollInterval)
	assert.Zero(t, tr.config.WakeDelay)
	assert.Equal(t, "SPI1.0", tr.portName)
	assert.Same(t, sleeper, tr.clock)
}

func TestOptions_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		opt  Option
		name string
	}{
		{name: "invalid config", opt: WithConfig(Config{})},
		{name: "zero ack retries", opt: WithAckRetries(0)},
		{name: "negative poll interval", opt: WithPollInterval(-time.Millisecond)},
		{name: "nil sleeper", opt: WithSleeper(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(testutil.NewEchoSPI(), tt.opt)
			require.ErrorIs(t, err, errInvalidConfig)
		})
	}
}
