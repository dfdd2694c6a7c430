package waitqueue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/drtvd/waitqueue"
)

func TestWaitQueue(t *testing.T) {
	t.Parallel()

	t.Run("waits_for_next_interval", func(t *testing.T) {
		t.Parallel()

		interval := 300 * time.Millisecond
		wq := waitqueue.New(t.Context(), waitqueue.Limits{PerInterval: 2, Interval: interval, Gap: 0})
		defer wq.Close()

		start := time.Now()
		sent := 0
		for range 3 {
			err := wq.SendSingle(t.Context(), func() error {
				sent++
				return nil
			})
			require.NoError(t, err)
		}
		assert.Equal(t, 3, sent)
		assert.GreaterOrEqual(t, time.Since(start), interval-50*time.Millisecond)
	})

	t.Run("propagates_send_error", func(t *testing.T) {
		t.Parallel()

		wq := waitqueue.New(t.Context(), waitqueue.Limits{PerInterval: 2, Interval: time.Minute, Gap: 0})
		defer wq.Close()

		errSend := errors.New("send failed")
		err := wq.SendSingle(t.Context(), func() error { return errSend })
		require.ErrorIs(t, err, errSend)
	})

	t.Run("honors_context_while_full", func(t *testing.T) {
		t.Parallel()

		wq := waitqueue.New(t.Context(), waitqueue.Limits{PerInterval: 1, Interval: time.Hour, Gap: 0})
		defer wq.Close()

		require.NoError(t, wq.SendSingle(t.Context(), func() error { return nil }))

		ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
		defer cancel()
		err := wq.SendSingle(ctx, func() error { return nil })
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("rejects_oversized_batch", func(t *testing.T) {
		t.Parallel()

		wq := waitqueue.New(t.Context(), waitqueue.Limits{PerInterval: 1, Interval: time.Hour, Gap: 0})
		defer wq.Close()

		err := wq.SendMany(t.Context(), 2, func() error { return nil })
		require.ErrorIs(t, err, waitqueue.ErrExceedsInterval)
	})
}
