package framebuf

import (
	"errors"
	"fmt"
)

// Common errors returned by framebuf operations.
var (
	// ErrInvalidSpec is returned when a BufferSpec has non-positive
	// dimensions or an unknown format.
	ErrInvalidSpec = errors.New("framebuf: invalid buffer spec")

	// ErrAllocationFailed is returned when a storage factory fails.
	// Allocation failures are never retried internally.
	ErrAllocationFailed = errors.New("framebuf: allocation failed")

	// ErrEmptyBuffer is returned when a read view is requested from a
	// buffer that holds no storage. Reads never allocate.
	ErrEmptyBuffer = errors.New("framebuf: buffer holds no storage")

	// ErrAlreadyRegistered is returned when a factory or converter is
	// registered twice for the same key. Use the Replace variants for
	// intentional override.
	ErrAlreadyRegistered = errors.New("framebuf: provider already registered")

	// ErrTicketReleased is returned when a pool ticket is released or
	// retained after its refcount already reached zero.
	ErrTicketReleased = errors.New("framebuf: ticket already released")

	// ErrBufferReleased is returned when operating on a released buffer.
	ErrBufferReleased = errors.New("framebuf: buffer has been released")
)

// NoProviderError indicates that no existing storage, converter, or factory
// can serve the requested view type.
type NoProviderError struct {
	// View is the name of the requested view type.
	View string

	// Write reports whether the failed request was for a write view.
	Write bool
}

func (e *NoProviderError) Error() string {
	mode := "read"
	if e.Write {
		mode = "write"
	}
	return fmt.Sprintf("framebuf: no provider for %s view %s", mode, e.View)
}
