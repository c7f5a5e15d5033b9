package gpu

import "errors"

// Common errors returned by gpu operations.
var (
	// ErrContextClosed is returned when submitting work to a closed
	// context.
	ErrContextClosed = errors.New("gpu: context is closed")

	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("gpu: nil DeviceProvider")

	// ErrNoHALAccess is returned when a provider does not expose HAL
	// device and queue handles.
	ErrNoHALAccess = errors.New("gpu: provider does not expose HAL types")

	// ErrTextureReleased is returned when operating on a released
	// texture storage.
	ErrTextureReleased = errors.New("gpu: texture storage has been released")

	// ErrTextureSizeMismatch is returned when pixel data size does not
	// match the texture spec.
	ErrTextureSizeMismatch = errors.New("gpu: pixel data size does not match texture")

	// ErrUnsupportedTextureFormat is returned when a spec's format has
	// no texture representation.
	ErrUnsupportedTextureFormat = errors.New("gpu: unsupported texture format")
)
