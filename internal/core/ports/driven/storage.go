package driven

import "context"

// BlobStore is durable storage for persisted index generations.
// Write must replace the blob at location atomically: a concurrent or
// later Read sees either the previous bytes or the new bytes in full.
type BlobStore interface {
	// Write stores data at location, replacing any previous blob.
	Write(ctx context.Context, location string, data []byte) error

	// Read returns the blob at location.
	// Returns domain.ErrNotFound if nothing was written there.
	Read(ctx context.Context, location string) ([]byte, error)

	// Delete removes the blob at location.
	// Returns domain.ErrNotFound if nothing was written there.
	Delete(ctx context.Context, location string) error
}

// RebuildLock serialises rebuilds of one destination across processes.
type RebuildLock interface {
	// Acquire blocks until the lock is held or ctx is done.
	// Returns domain.ErrRebuildInProgress if the lock could not be taken.
	Acquire(ctx context.Context) (release func() error, err error)
}
