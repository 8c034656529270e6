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
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spiprobe.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, int64(2_000_000), cfg.FrequencyHz)
	assert.Equal(t, time.Second, cfg.Timeout())
}

func TestLoadConfig_File(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
port = "/dev/spidev0.1"
chip_select = "GPIO7"
frequency_hz = 1000000
timeout_ms = 0
debug = true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/spidev0.1", cfg.Port)
	assert.Equal(t, "GPIO7", cfg.ChipSelect)
	assert.Equal(t, int64(1_000_000), cfg.FrequencyHz)
	assert.Zero(t, cfg.Timeout())
	assert.True(t, cfg.Debug)
	// untouched keys keep their defaults
	assert.Equal(t, DefaultConfig().AckRetries, cfg.AckRetries)
	assert.Equal(t, 1, cfg.Attempts)

	bus := cfg.BusConfig()
	assert.Equal(t, physic.MegaHertz, bus.Frequency)
	assert.Equal(t, "GPIO7", bus.ChipSelect)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "port = [unterminated"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, `ack_retries = "ten"`))
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mutate func(*Config)
		name   string
	}{
		{name: "ack retries", mutate: func(c *Config) { c.AckRetries = 0 }},
		{name: "timeout", mutate: func(c *Config) { c.TimeoutMs = -1 }},
		{name: "attempts", mutate: func(c *Config) { c.Attempts = 0 }},
		{name: "frequency", mutate: func(c *Config) { c.FrequencyHz = -5 }},
	}

	require.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), errInvalidConfig)
		})
	}
}

func TestParseFlags_OverridesFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
port = "/dev/spidev0.0"
chip_select = "GPIO8"
timeout_ms = 250
attempts = 3
`)

	var stderr bytes.Buffer
	cfg, opts, err := parseFlags([]string{"-config", path, "-port", "/dev/spidev1.0", "-cmd", "4A 01 00"}, &stderr)
	require.NoError(t, err)

	assert.Equal(t, "/dev/spidev1.0", cfg.Port, "flag wins over file")
	assert.Equal(t, "GPIO8", cfg.ChipSelect, "file value kept when flag unset")
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout(), "flag default does not clobber file")
	assert.Equal(t, 3, cfg.Attempts)
	assert.Equal(t, "4A 01 00", opts.command)
	assert.False(t, opts.detect)
}

func TestParseFlags_Invalid(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	_, _, err := parseFlags([]string{"-ack-retries", "0"}, &stderr)
	require.ErrorIs(t, err, errInvalidConfig)

	_, _, err = parseFlags([]string{"-no-such-flag"}, &stderr)
	require.Error(t, err)
}

func TestParseHexCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    []byte
		wantErr bool
	}{
		{in: "02", want: []byte{0x02}},
		{in: "4A 01 00", want: []byte{0x4A, 0x01, 0x00}},
		{in: "4a:01:00", want: []byte{0x4A, 0x01, 0x00}},
		{in: "0x14 0x01", want: []byte{0x14, 0x01}},
		{in: "", wantErr: true},
		{in: "4", wantErr: true},
		{in: "zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseHexCommand(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger_File(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "spiprobe.log")
	var console bytes.Buffer
	logger, closer := newLogger(Config{LogFile: logPath, Debug: true}, &console)

	logger.Debug().Hex("tx", []byte{0xD4, 0x02}).Msg("frame")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tx":"d402"`)
	assert.Contains(t, console.String(), "frame")
}

func TestNewLogger_InfoByDefault(t *testing.T) {
	t.Parallel()

	var console bytes.Buffer
	logger, closer := newLogger(Config{}, &console)
	defer func() { _ = closer.Close() }()

	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
}
