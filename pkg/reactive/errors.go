package reactive

import "errors"

var (
	// ErrGone is returned when the target component has been disposed.
	ErrGone = errors.New("reactive: component is gone")

	// ErrFrozen is returned once a user callback panicked and the runtime
	// stopped accepting work.
	ErrFrozen = errors.New("reactive: runtime frozen after panic")

	// ErrMountPoint is returned by Mount when the target element is missing.
	ErrMountPoint = errors.New("reactive: mount point not found")

	// ErrClosed is returned when the runtime has been closed.
	ErrClosed = errors.New("reactive: runtime closed")
)
