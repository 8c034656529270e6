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

// Command spiprobe talks to a PN532 over SPI: it lists candidate readers or sends
// one command and prints the response payload.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"

	pn532 "github.com/ZaparooProject/go-pn532spi"
	"github.com/ZaparooProject/go-pn532spi/detection"
	// Import the SPI detector to register it
	_ "github.com/ZaparooProject/go-pn532spi/detection/spi"
	"github.com/ZaparooProject/go-pn532spi/transport/spi"
)

type options struct {
	configPath string
	command    string
	detect     bool
}

// parseFlags loads the config file named by -config and applies every flag the
// user actually set on top of it
func parseFlags(args []string, stderr io.Writer) (Config, options, error) {
	fs := flag.NewFlagSet("spiprobe", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	defaults := DefaultConfig()
	var flagCfg Config

	fs.StringVar(&opts.configPath, "config", "", "TOML config file")
	fs.StringVar(&opts.command, "cmd", "02", "command to send as hex, opcode first (02 = GetFirmwareVersion)")
	fs.BoolVar(&opts.detect, "detect", false, "list SPI readers instead of sending a command")
	fs.StringVar(&flagCfg.Port, "port", "", "SPI port, e.g. /dev/spidev0.0")
	fs.StringVar(&flagCfg.ChipSelect, "cs", "", "GPIO used as chip select, e.g. GPIO8")
	fs.Int64Var(&flagCfg.FrequencyHz, "freq", defaults.FrequencyHz, "SPI clock in Hz")
	fs.IntVar(&flagCfg.AckRetries, "ack-retries", defaults.AckRetries, "status polls while waiting for the ACK")
	fs.IntVar(&flagCfg.TimeoutMs, "timeout", defaults.TimeoutMs, "response timeout in milliseconds, 0 waits forever")
	fs.IntVar(&flagCfg.Attempts, "attempts", defaults.Attempts, "exchanges to try before giving up")
	fs.BoolVar(&flagCfg.HardwareLSBFirst, "hw-lsb", false, "let the controller shift LSB first")
	fs.StringVar(&flagCfg.LogFile, "log-file", "", "also write JSON logs to this file")
	fs.BoolVar(&flagCfg.Debug, "debug", false, "log every frame")

	if err := fs.Parse(args); err != nil {
		return Config{}, opts, fmt.Errorf("failed to parse flags: %w", err)
	}

	cfg, err := LoadConfig(opts.configPath)
	if err != nil {
		return Config{}, opts, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = flagCfg.Port
		case "cs":
			cfg.ChipSelect = flagCfg.ChipSelect
		case "freq":
			cfg.FrequencyHz = flagCfg.FrequencyHz
		case "ack-retries":
			cfg.AckRetries = flagCfg.AckRetries
		case "timeout":
			cfg.TimeoutMs = flagCfg.TimeoutMs
		case "attempts":
			cfg.Attempts = flagCfg.Attempts
		case "hw-lsb":
			cfg.HardwareLSBFirst = flagCfg.HardwareLSBFirst
		case "log-file":
			cfg.LogFile = flagCfg.LogFile
		case "debug":
			cfg.Debug = flagCfg.Debug
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, opts, err
	}
	return cfg, opts, nil
}

// parseHexCommand decodes "4A 01 00", "4a:01:00" or "4A0100"
func parseHexCommand(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "0x", "", "0X", "").Replace(s)
	cmd, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid command %q: %w", s, err)
	}
	if len(cmd) == 0 {
		return nil, fmt.Errorf("invalid command %q: empty", s)
	}
	return cmd, nil
}

func runDetect(ctx context.Context, cfg Config, logger zerolog.Logger, stdout io.Writer) error {
	opts := detection.DefaultOptions()
	opts.Timeout = 0
	opts.ChipSelect = cfg.ChipSelect
	if cfg.ChipSelect != "" {
		opts.Mode = detection.Full
	}
	logger.Debug().Str("mode", opts.Mode.String()).Msg("detecting readers")

	devices, err := detection.DetectAllContext(ctx, &opts)
	if err != nil {
		return fmt.Errorf("reader discovery failed: %w", err)
	}
	for _, d := range devices {
		_, _ = fmt.Fprintf(stdout, "%s\t%s\t%s\n", d.Path, d.Confidence, d.Name)
		if fw, ok := d.Metadata["firmware"]; ok {
			_, _ = fmt.Fprintf(stdout, "\tfirmware %s\n", fw)
		}
	}
	return nil
}

// exchange sends cmd through t and prints the response payload as hex. The
// configured timeout bounds each attempt; ctx bounds the whole exchange.
func exchange(
	ctx context.Context, t pn532.Transport, cfg Config, cmd []byte, logger zerolog.Logger, stdout io.Writer,
) error {
	retryCfg := pn532.DefaultRetryConfig()
	retryCfg.MaxAttempts = cfg.Attempts

	rt := pn532.NewTransportWithRetry(t, retryCfg)
	resp, err := rt.SendCommandContext(ctx, cmd[0], cmd[1:], cfg.Timeout())
	if err != nil {
		var traceErr *pn532.TraceError
		if errors.As(err, &traceErr) {
			logger.Debug().Msg(traceErr.FormatTrace())
		}
		return fmt.Errorf("command 0x%02X failed: %w", cmd[0], err)
	}

	logger.Info().Hex("response", resp).Int("length", len(resp)).Msgf("response to 0x%02X", cmd[0])
	_, _ = fmt.Fprintf(stdout, "% X\n", resp)
	return nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, opts, err := parseFlags(args, stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	logger, closer := newLogger(cfg, stderr)
	defer func() { _ = closer.Close() }()

	if opts.detect {
		if err := runDetect(ctx, cfg, logger, stdout); err != nil {
			logger.Error().Err(err).Msg("detection failed")
			return 1
		}
		return 0
	}

	cmd, err := parseHexCommand(opts.command)
	if err != nil {
		logger.Error().Err(err).Msg("bad command")
		return 2
	}

	t, err := spi.Open(cfg.BusConfig(), spi.WithLogger(logger), spi.WithAckRetries(cfg.AckRetries))
	if err != nil {
		logger.Error().Err(err).Str("port", cfg.Port).Msg("failed to open reader")
		return 1
	}
	defer func() { _ = t.Close() }()

	if err := exchange(ctx, t, cfg, cmd, logger, stdout); err != nil {
		logger.Error().Err(err).Msg("exchange failed")
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
