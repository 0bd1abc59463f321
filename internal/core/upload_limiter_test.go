package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadLimiter_Defaults(t *testing.T) {
	l := NewUploadLimiter(0, -time.Second)
	st := l.Status()
	assert.Equal(t, DefaultMaxConcurrentUploads, st.MaxConcurrent)
	assert.Equal(t, DefaultMaxConcurrentUploads, st.Available)
	assert.Equal(t, DefaultMaxWaitTime, l.maxWait)
}

func TestUploadLimiter_AcquireRelease(t *testing.T) {
	l := NewUploadLimiter(2, time.Second)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Acquire(ctx))
	assert.Equal(t, UploadLimiterStatus{Active: 2, Available: 0, MaxConcurrent: 2}, l.Status())

	l.Release()
	l.Release()
	assert.Equal(t, 0, l.ActiveCount())
}

func TestUploadLimiter_WaitBound(t *testing.T) {
	l := NewUploadLimiter(1, 30*time.Millisecond)
	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	start := time.Now()
	err := l.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrTooManyUploads)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
	assert.Equal(t, "UPL002", MapError(err).Code)
}

func TestUploadLimiter_CancelledContext(t *testing.T) {
	l := NewUploadLimiter(1, time.Minute)
	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	assert.ErrorIs(t, l.Acquire(ctx), context.Canceled)
}

func TestUploadLimiter_NeverExceedsSlots(t *testing.T) {
	const slots = 3
	l := NewUploadLimiter(slots, time.Second)

	var running, peak atomic.Int64
	var wg sync.WaitGroup
	for range 12 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				t.Error(err)
				return
			}
			defer l.Release()
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(slots))
	assert.Equal(t, 0, l.ActiveCount())
}

func TestUploadLimiter_Drain(t *testing.T) {
	l := NewUploadLimiter(2, time.Second)
	require.NoError(t, l.Acquire(context.Background()))

	done := make(chan error, 1)
	go func() { done <- l.Drain(context.Background()) }()

	select {
	case <-done:
		t.Fatal("Drain returned while a batch was running")
	case <-time.After(20 * time.Millisecond):
	}

	assert.Eventually(t, func() bool { return l.Status().Draining }, time.Second, time.Millisecond)
	assert.ErrorIs(t, l.Acquire(context.Background()), ErrTooManyUploads, "no new batches while draining")

	l.Release()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Drain did not return after the last release")
	}
}

func TestUploadLimiter_DrainTimeout(t *testing.T) {
	l := NewUploadLimiter(1, time.Second)
	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Drain(ctx), context.DeadlineExceeded)
}
