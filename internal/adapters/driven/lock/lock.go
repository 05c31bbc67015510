// Package lock provides a cross-process rebuild lock backed by a lock file.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
)

// Ensure FileLock implements the interface.
var _ driven.RebuildLock = (*FileLock)(nil)

// DefaultRetryDelay is how often a held lock is polled while waiting.
const DefaultRetryDelay = 200 * time.Millisecond

// FileLock serialises rebuilds between processes sharing a data directory.
type FileLock struct {
	path       string
	wait       time.Duration
	retryDelay time.Duration
}

// New creates a lock on path. A zero wait fails fast when another process
// holds the lock; a positive wait polls until it is released or the wait
// expires.
func New(path string, wait time.Duration) (*FileLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	return &FileLock{path: path, wait: wait, retryDelay: DefaultRetryDelay}, nil
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire takes the lock. It returns domain.ErrRebuildInProgress when the
// lock stays held by someone else.
func (l *FileLock) Acquire(ctx context.Context) (func() error, error) {
	fl := flock.New(l.path)

	var locked bool
	var err error
	if l.wait <= 0 {
		locked, err = fl.TryLock()
	} else {
		waitCtx, cancel := context.WithTimeout(ctx, l.wait)
		locked, err = fl.TryLockContext(waitCtx, l.retryDelay)
		cancel()
		if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			err = nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", l.path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s is held by another process", domain.ErrRebuildInProgress, l.path)
	}

	return fl.Unlock, nil
}
