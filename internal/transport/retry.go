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

// Package transport provides internal transport utilities
package transport

import (
	"context"
	"fmt"
	"time"

	pn532 "github.com/ZaparooProject/go-pn532spi"
)

// Sleeper suspends the calling goroutine. clockwork.Clock satisfies it.
type Sleeper interface {
	Sleep(d time.Duration)
}

// RetryOperation represents a function that can be retried
// Returns: data, shouldRetry, error
// - data: the result if successful
// - shouldRetry: true if the operation should be retried
// - error: any permanent error that should stop retries
type RetryOperation[T any] func() (T, bool, error)

// RetryConfig configures retry behavior
type RetryConfig struct {
	Clock         Sleeper
	OnRetry       func() error
	OnRetryFailed func() error
	Description   string
	Port          string
	MaxRetries    int
	RetryDelay    time.Duration
}

// WithRetry runs operation at most MaxRetries times, sleeping RetryDelay between
// attempts. Exhausting the attempts is a timeout.
func WithRetry[T any](config RetryConfig, operation RetryOperation[T]) (T, error) {
	var zero T

	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}

		if !shouldRetry {
			return result, nil
		}

		if attempt == config.MaxRetries {
			break
		}

		if err := executeRetryCallback(config); err != nil {
			return zero, err
		}

		sleep(config)
	}

	return handleRetriesExhausted[T](config)
}

// TimeoutRetry runs operation until it stops asking for a retry. After every
// retry it sleeps RetryDelay and charges that delay against timeout; once the
// charged time exceeds timeout it gives up. A zero timeout never gives up.
// ctx is checked between attempts only.
func TimeoutRetry[T any](
	ctx context.Context, config RetryConfig, timeout time.Duration, operation RetryOperation[T],
) (T, error) {
	var zero T
	var elapsed time.Duration

	for {
		result, shouldRetry, err := operation()
		if err != nil {
			return zero, err
		}

		if !shouldRetry {
			return result, nil
		}

		sleep(config)
		elapsed += config.RetryDelay
		if timeout > 0 && elapsed > timeout {
			return handleRetriesExhausted[T](config)
		}

		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%s cancelled: %w", config.Description, err)
		}

		if err := executeRetryCallback(config); err != nil {
			return zero, err
		}
	}
}

// executeRetryCallback executes the retry callback if provided
func executeRetryCallback(config RetryConfig) error {
	if config.OnRetry != nil {
		return config.OnRetry()
	}
	return nil
}

func sleep(config RetryConfig) {
	if config.RetryDelay <= 0 {
		return
	}
	if config.Clock != nil {
		config.Clock.Sleep(config.RetryDelay)
		return
	}
	time.Sleep(config.RetryDelay)
}

// handleRetriesExhausted handles the case when all retries are exhausted
func handleRetriesExhausted[T any](config RetryConfig) (T, error) {
	var zero T

	if config.OnRetryFailed != nil {
		if failErr := config.OnRetryFailed(); failErr != nil {
			return zero, failErr
		}
	}

	return zero, pn532.NewTimeoutError(config.Description, config.Port)
}
