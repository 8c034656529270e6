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

package pn532

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    time.Microsecond, // Minimal delay for fast tests
		MaxBackoff:        10 * time.Microsecond,
		BackoffMultiplier: 2.0,
		RetryTimeout:      time.Second,
	}
}

// TestTransportWithRetry_NewTransportWithRetry tests the creation of TransportWithRetry wrapper
func TestTransportWithRetry_NewTransportWithRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		config   *RetryConfig
		expected *RetryConfig
		name     string
	}{
		{
			name:     "Default config when nil provided",
			config:   nil,
			expected: DefaultRetryConfig(),
		},
		{
			name:     "Custom config preserved",
			config:   fastRetryConfig(5),
			expected: fastRetryConfig(5),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockTransport := NewMockTransport()
			wrapper := NewTransportWithRetry(mockTransport, tt.config)

			assert.NotNil(t, wrapper)
			assert.Equal(t, mockTransport, wrapper.transport)
			assert.Equal(t, tt.expected, wrapper.config)
		})
	}
}

// TestTransportWithRetry_SendCommand tests the retry logic in SendCommand
func TestTransportWithRetry_SendCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr      error
		setupMock    func(*MockTransport)
		name         string
		args         []byte
		wantResult   []byte
		attempts     int
		wantCommands int
		cmd          byte
	}{
		{
			name: "Success on first attempt",
			setupMock: func(m *MockTransport) {
				m.SetResponse(0x02, []byte{0x32, 0x01, 0x06, 0x07})
			},
			attempts:     3,
			cmd:          0x02,
			wantResult:   []byte{0x32, 0x01, 0x06, 0x07},
			wantCommands: 1,
		},
		{
			name: "Success after transient read errors",
			setupMock: func(m *MockTransport) {
				m.SetResponse(0x4A, []byte{0x01})
				m.QueueReadError(NewFrameCorruptedError("readFrame", "mock", ErrChecksumMismatch),
					NewTimeoutError("ReadResponse", "mock"))
			},
			attempts:     3,
			cmd:          0x4A,
			args:         []byte{0x01, 0x00},
			wantResult:   []byte{0x01},
			wantCommands: 3,
		},
		{
			name: "Gives up after max attempts",
			setupMock: func(m *MockTransport) {
				m.QueueWriteError(NewTimeoutError("waitAck", "mock"), NewTimeoutError("waitAck", "mock"))
			},
			attempts:     2,
			cmd:          0x02,
			wantErr:      ErrCommunicationFailed,
			wantCommands: 2,
		},
		{
			name: "Permanent error is not retried",
			setupMock: func(m *MockTransport) {
				m.QueueWriteError(NewInvalidACKError("waitAck", "mock"))
			},
			attempts:     5,
			cmd:          0x02,
			wantErr:      ErrInvalidACK,
			wantCommands: 1,
		},
		{
			name: "No space is not retried",
			setupMock: func(m *MockTransport) {
				m.SetResponse(0x40, make([]byte, MaxResponseLength+1))
			},
			attempts:     5,
			cmd:          0x40,
			wantErr:      ErrBufferTooSmall,
			wantCommands: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockTransport := NewMockTransport()
			tt.setupMock(mockTransport)
			wrapper := NewTransportWithRetry(mockTransport, fastRetryConfig(tt.attempts))

			result, err := wrapper.SendCommand(tt.cmd, tt.args, 10*time.Millisecond)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantResult, result)
			}
			assert.Len(t, mockTransport.Commands(), tt.wantCommands)
		})
	}
}

func TestSendCommand_BuildsCommand(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetResponse(0x14, nil)

	resp, err := SendCommand(mock, 0x14, []byte{0x01, 0x14, 0x01}, time.Second)
	require.NoError(t, err)
	assert.Empty(t, resp)
	assert.Equal(t, [][]byte{{0x14, 0x01, 0x14, 0x01}}, mock.Commands())
}

func TestSendCommandContext(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetResponse(0x02, []byte{0x32})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	resp, err := SendCommandContext(ctx, mock, 0x02, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x32}, resp)

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err = SendCommandContext(cancelled, mock, 0x02, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, mock.Commands(), 1, "nothing should be sent once cancelled")
}

func TestTransportWithRetry_SendCommandContext(t *testing.T) {
	t.Parallel()

	inner := &budgetRecordingTransport{MockTransport: NewMockTransport()}
	inner.SetResponse(0x4A, []byte{0x01})
	inner.QueueReadError(NewTimeoutError("ReadResponse", "mock"))

	wrapper := NewTransportWithRetry(inner, fastRetryConfig(3))
	resp, err := wrapper.SendCommandContext(context.Background(), 0x4A, []byte{0x01, 0x00}, 25*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, resp)
	assert.Len(t, inner.Commands(), 2)
	assert.Equal(t, []time.Duration{25 * time.Millisecond, 25 * time.Millisecond}, inner.budgets)
}

func TestTransportWithRetry_SendCommandContextCancelled(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetResponse(0x02, []byte{0x32})
	wrapper := NewTransportWithRetry(mock, fastRetryConfig(3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := wrapper.SendCommandContext(ctx, 0x02, nil, 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrCommunicationFailed)
	assert.Empty(t, mock.Commands())
}

func TestTransportWithRetry_PassThrough(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetResponse(0x02, []byte{0x32})
	wrapper := NewTransportWithRetry(mock, nil)

	require.NoError(t, wrapper.Wakeup())
	assert.Equal(t, 1, mock.Wakeups())
	assert.Equal(t, TransportMock, wrapper.Type())

	require.NoError(t, wrapper.WriteCommand([]byte{0x02}))
	buf := make([]byte, 4)
	n, err := wrapper.ReadResponse(buf, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x32}, buf[:n])

	_, err = wrapper.ReadResponse(buf, time.Millisecond)
	require.ErrorIs(t, err, ErrTransportTimeout)

	err = wrapper.WriteCommand(nil)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestTransportWithRetry_SetRetryConfig(t *testing.T) {
	t.Parallel()

	wrapper := NewTransportWithRetry(NewMockTransport(), nil)
	cfg := fastRetryConfig(9)
	wrapper.SetRetryConfig(cfg)
	assert.Same(t, cfg, wrapper.config)
}

// TestTransportWithRetry_Close tests closing the wrapper
func TestTransportWithRetry_Close(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	wrapper := NewTransportWithRetry(mock, nil)

	require.NoError(t, wrapper.Close())
	err := wrapper.WriteCommand([]byte{0x02})
	require.ErrorIs(t, err, ErrTransportClosed)
	assert.False(t, IsRetryable(err))
}

func TestMockTransport_QueuedWriteErrorClearsPending(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.SetResponse(0x02, []byte{0x32})
	busErr := errors.New("bus gone")
	mock.QueueWriteError(busErr)

	require.ErrorIs(t, mock.WriteCommand([]byte{0x02}), busErr)
	_, err := mock.ReadResponse(make([]byte, 4), time.Millisecond)
	require.ErrorIs(t, err, ErrTransportTimeout)
}
