package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyUploads is returned when no batch slot frees up in time.
var ErrTooManyUploads = errors.New("too many concurrent uploads, please try again later")

const (
	DefaultMaxConcurrentUploads = 5
	DefaultMaxWaitTime          = 30 * time.Second
)

// UploadLimiter caps how many batches run at once. Files inside a batch are
// processed sequentially; the cap is across concurrent web users.
type UploadLimiter struct {
	sem     *semaphore.Weighted
	slots   int
	maxWait time.Duration

	mu     sync.Mutex
	held   int
	closed bool
}

// NewUploadLimiter returns a limiter with the given slot count and wait
// bound. Zero or negative values fall back to the package defaults.
func NewUploadLimiter(slots int, maxWait time.Duration) *UploadLimiter {
	if slots <= 0 {
		slots = DefaultMaxConcurrentUploads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &UploadLimiter{
		sem:     semaphore.NewWeighted(int64(slots)),
		slots:   slots,
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting at most maxWait. A cancelled ctx wins over
// the wait bound. Every successful Acquire must be paired with Release.
func (l *UploadLimiter) Acquire(ctx context.Context) error {
	if l.isClosed() {
		return fmt.Errorf("%w: shutting down", ErrTooManyUploads)
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()
	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyUploads
	}

	l.mu.Lock()
	l.held++
	l.mu.Unlock()
	return nil
}

// Release frees a slot.
func (l *UploadLimiter) Release() {
	l.mu.Lock()
	l.held--
	l.mu.Unlock()
	l.sem.Release(1)
}

// ActiveCount returns the number of batches currently running.
func (l *UploadLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

func (l *UploadLimiter) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Drain stops new batches from starting and waits until running ones
// finish or ctx ends.
func (l *UploadLimiter) Drain(ctx context.Context) error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	if err := l.sem.Acquire(ctx, int64(l.slots)); err != nil {
		return err
	}
	l.sem.Release(int64(l.slots))
	return nil
}

// UploadLimiterStatus is reported by the status endpoint.
type UploadLimiterStatus struct {
	Active        int  `json:"active"`
	Available     int  `json:"available"`
	MaxConcurrent int  `json:"max_concurrent"`
	Draining      bool `json:"draining"`
}

// Status returns a snapshot of slot usage.
func (l *UploadLimiter) Status() UploadLimiterStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return UploadLimiterStatus{
		Active:        l.held,
		Available:     l.slots - l.held,
		MaxConcurrent: l.slots,
		Draining:      l.closed,
	}
}
