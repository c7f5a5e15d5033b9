package framebuf

import (
	"fmt"
	"image"
)

// CPUStorage backs a buffer with plain process memory.
//
// CPUStorage serves CPUReadView, CPUWriteView, and (for byte-per-channel
// color formats) ImageReadView. It is the usual source and destination of
// converters to device-backed storages.
//
// A CPUStorage may be pooled: the pool installs a release hook so that
// Release returns the storage instead of destroying it.
type CPUStorage struct {
	spec BufferSpec
	data []byte

	// release, when set, sends the storage back to its pool.
	// When nil, Release destroys the storage.
	release func(*CPUStorage)
}

// NewCPUStorage allocates CPU memory for the given spec.
func NewCPUStorage(spec BufferSpec) (*CPUStorage, error) {
	if !spec.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSpec, spec)
	}
	return &CPUStorage{
		spec: spec,
		data: make([]byte, spec.ByteSize()),
	}, nil
}

// Spec returns the spec the storage backs.
func (s *CPUStorage) Spec() BufferSpec {
	return s.spec
}

// Bytes returns the raw contents. Callers must not mutate the slice.
func (s *CPUStorage) Bytes() []byte {
	return s.data
}

// WritableBytes returns the raw contents for mutation.
func (s *CPUStorage) WritableBytes() []byte {
	return s.data
}

// Image returns the contents as an image.Image sharing the storage's memory.
// Only meaningful for RGBA8 content.
func (s *CPUStorage) Image() image.Image {
	return s.rgba()
}

// Release returns the storage to its pool, or destroys it if unpooled.
func (s *CPUStorage) Release() {
	if s.release != nil {
		s.release(s)
		return
	}
	s.Destroy()
}

// Reuse prepares the storage for reissue from a pool. CPU memory carries no
// fences; content is left as-is since the next writer overwrites it.
func (s *CPUStorage) Reuse() {}

// Destroy frees the backing memory.
func (s *CPUStorage) Destroy() {
	s.data = nil
}

// SetReleaseFunc installs the hook Release uses to return the storage to
// its owner (typically a pool ticket). Passing nil makes Release destroy.
func (s *CPUStorage) SetReleaseFunc(release func(*CPUStorage)) {
	s.release = release
}

// Interface checks.
var (
	_ CPUReadView   = (*CPUStorage)(nil)
	_ CPUWriteView  = (*CPUStorage)(nil)
	_ ImageReadView = (*CPUStorage)(nil)
	_ Reusable      = (*CPUStorage)(nil)
)

// RegisterCPUStorage registers the CPU storage factory for the CPU and
// image view types. Call once while building the application's registry.
func RegisterCPUStorage(reg *Registry) error {
	factory := func(spec BufferSpec) (Storage, error) {
		return NewCPUStorage(spec)
	}
	if err := RegisterFactory[CPUReadView](reg, factory); err != nil {
		return err
	}
	if err := RegisterFactory[CPUWriteView](reg, factory); err != nil {
		return err
	}
	return RegisterFactory[ImageReadView](reg, factory)
}
