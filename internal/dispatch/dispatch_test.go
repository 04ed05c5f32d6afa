// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/surgical-scout/internal/logging"
	"github.com/pdiddy/surgical-scout/pkg/types"
)

func init() {
	retryDelay = time.Millisecond
}

func testConfig() types.DispatchConfig {
	return types.DispatchConfig{
		Host:        "smtp.gmail.com",
		Port:        587,
		Sender:      "scout@example.com",
		Password:    "app-password",
		Recipient:   "resident@example.com",
		MaxAttempts: 3,
	}
}

func testLog() *logging.RunLog {
	return logging.NewWriter(io.Discard, false)
}

func TestDispatchFirstAttemptSucceeds(t *testing.T) {
	calls := 0
	d := NewWithSender(testConfig(), testLog(), func(_ context.Context, subject, body string) error {
		calls++
		assert.Equal(t, "Digest", subject)
		assert.Contains(t, body, "<html>")
		return nil
	})

	err := d.Dispatch(context.Background(), "Digest", "<html></html>")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDispatchRetriesTransientFailures(t *testing.T) {
	calls := 0
	d := NewWithSender(testConfig(), testLog(), func(context.Context, string, string) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	err := d.Dispatch(context.Background(), "Digest", "<html></html>")
	require.NoError(t, err)
	assert.Equal(t, 3, calls, "fails twice then succeeds: exactly 3 attempts")
}

func TestDispatchExhaustsAttempts(t *testing.T) {
	calls := 0
	d := NewWithSender(testConfig(), testLog(), func(context.Context, string, string) error {
		calls++
		return errors.New("connection refused")
	})

	err := d.Dispatch(context.Background(), "Digest", "<html></html>")
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestDispatchAuthFailureNotRetried(t *testing.T) {
	calls := 0
	d := NewWithSender(testConfig(), testLog(), func(context.Context, string, string) error {
		calls++
		return fmt.Errorf("%w: bad credentials", ErrAuthFailed)
	})

	err := d.Dispatch(context.Background(), "Digest", "<html></html>")
	require.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, 1, calls, "auth rejections must not be retried")
}

func TestDispatchContextCancelledDuringBackoff(t *testing.T) {
	retryDelay = 50 * time.Millisecond
	defer func() { retryDelay = time.Millisecond }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	d := NewWithSender(testConfig(), testLog(), func(context.Context, string, string) error {
		return errors.New("connection refused")
	})

	err := d.Dispatch(ctx, "Digest", "<html></html>")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"wrapped 535", fmt.Errorf("smtp: %w", &textproto.Error{Code: 535, Msg: "authentication credentials invalid"}), true},
		{"wrapped 530", fmt.Errorf("smtp: %w", &textproto.Error{Code: 530, Msg: "authentication required"}), true},
		{"transient 421", fmt.Errorf("smtp: %w", &textproto.Error{Code: 421, Msg: "service not available"}), false},
		{"plain error", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isAuthError(tt.err))
		})
	}
}
