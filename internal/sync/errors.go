package sync

import "errors"

// Domain-specific errors for sync operations.
var (
	// ErrSyncInProgress is returned when a sync is requested while
	// another run is still executing.
	ErrSyncInProgress = errors.New("sync: another sync is in progress")

	// ErrSnapshotFailed is returned when the registry snapshot could
	// not be fetched.
	ErrSnapshotFailed = errors.New("sync: registry snapshot failed")

	// ErrWriteFailed is returned when the managed output file could
	// not be written.
	ErrWriteFailed = errors.New("sync: output write failed")
)
