package framebuf

import (
	"image"
	"reflect"
)

// Storage is one concrete backing representation of a buffer's bytes on a
// specific device or API. A Storage owns exactly one backend resource
// (CPU block, texture handle, native buffer) and reports the spec it backs.
//
// Storages advertise the views they serve simply by implementing the view
// interfaces; Buffer resolves view requests with type assertions.
type Storage interface {
	// Spec returns the dimensions and format of the backed content.
	Spec() BufferSpec

	// Release gives the storage back to its owner: a pooled storage
	// returns to its pool, an unpooled one is destroyed. A storage whose
	// last GPU usage is still in flight may defer actual destruction.
	Release()
}

// Reusable is implemented by items managed by a Pool.
//
// Reuse runs when an item returns to the free list, before it can be handed
// out again; GPU-backed items use it to rearm internal fences. Reuse may
// require a specific execution context — the pool is context-agnostic and
// leaves that to the caller.
type Reusable interface {
	// Reuse prepares the item for the next Acquire.
	Reuse()

	// Destroy frees the item's backing resource.
	Destroy()
}

// Built-in view contracts served by CPUStorage.
//
// A view type is a capability: an interface a Storage may implement. The
// set of view types is closed at compile time per storage; the registry maps
// view types to factories and converters at runtime.
type (
	// CPUReadView exposes the buffer contents as raw bytes for reading.
	// Callers must not mutate the returned slice.
	CPUReadView interface {
		Storage
		Bytes() []byte
	}

	// CPUWriteView exposes the buffer contents as raw bytes for writing.
	CPUWriteView interface {
		Storage
		WritableBytes() []byte
	}

	// ImageReadView exposes the buffer contents as an image.Image.
	// Only meaningful for byte-per-channel color formats.
	ImageReadView interface {
		Storage
		Image() image.Image
	}

	// TensorReadView exposes the buffer contents as float32 data in
	// interleaved (HWC) order.
	TensorReadView interface {
		Storage
		Floats() []float32
	}

	// TensorWriteView exposes mutable float32 data in interleaved order.
	TensorWriteView interface {
		Storage
		WritableFloats() []float32
	}
)

// viewType returns the reflect.Type of the view interface V.
// Used as the registry key for factories and converters.
func viewType[V Storage]() reflect.Type {
	return reflect.TypeOf((*V)(nil)).Elem()
}
