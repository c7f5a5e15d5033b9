package framebuf

import "fmt"

// TensorStorage backs a buffer with float32 data in interleaved (HWC)
// order, the layout expected by inference runtimes consuming camera frames.
//
// TensorStorage serves TensorReadView and TensorWriteView. A converter from
// CPUStorage normalizes byte channels to [0,1] floats.
type TensorStorage struct {
	spec BufferSpec
	data []float32

	release func(*TensorStorage)
}

// NewTensorStorage allocates float storage for the given spec.
// The element count is Width*Height*Channels regardless of the byte format.
func NewTensorStorage(spec BufferSpec) (*TensorStorage, error) {
	if !spec.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSpec, spec)
	}
	return &TensorStorage{
		spec: spec,
		data: make([]float32, spec.Width*spec.Height*spec.Format.Channels()),
	}, nil
}

// Spec returns the spec the storage backs.
func (s *TensorStorage) Spec() BufferSpec {
	return s.spec
}

// Floats returns the tensor elements. Callers must not mutate the slice.
func (s *TensorStorage) Floats() []float32 {
	return s.data
}

// WritableFloats returns the tensor elements for mutation.
func (s *TensorStorage) WritableFloats() []float32 {
	return s.data
}

// Release returns the storage to its pool, or destroys it if unpooled.
func (s *TensorStorage) Release() {
	if s.release != nil {
		s.release(s)
		return
	}
	s.Destroy()
}

// Reuse prepares the storage for reissue from a pool.
func (s *TensorStorage) Reuse() {}

// Destroy frees the backing memory.
func (s *TensorStorage) Destroy() {
	s.data = nil
}

// SetReleaseFunc installs the hook Release uses to return the storage to
// its owner. Passing nil makes Release destroy.
func (s *TensorStorage) SetReleaseFunc(release func(*TensorStorage)) {
	s.release = release
}

// Interface checks.
var (
	_ TensorReadView  = (*TensorStorage)(nil)
	_ TensorWriteView = (*TensorStorage)(nil)
	_ Reusable        = (*TensorStorage)(nil)
)

// RegisterTensorStorage registers the tensor storage factory for the tensor
// view types and a converter from CPU storage that normalizes bytes to
// [0,1] floats. Call once while building the application's registry.
func RegisterTensorStorage(reg *Registry) error {
	factory := func(spec BufferSpec) (Storage, error) {
		return NewTensorStorage(spec)
	}
	if err := RegisterFactory[TensorReadView](reg, factory); err != nil {
		return err
	}
	if err := RegisterFactory[TensorWriteView](reg, factory); err != nil {
		return err
	}

	conv := func(src *CPUStorage) (Storage, error) {
		return tensorFromCPU(src)
	}
	if err := RegisterConverter[TensorReadView](reg, conv); err != nil {
		return err
	}
	return RegisterConverter[TensorWriteView](reg, conv)
}

// tensorFromCPU builds a float tensor from byte pixel data, mapping each
// channel byte b to float32(b)/255.
func tensorFromCPU(src *CPUStorage) (*TensorStorage, error) {
	ts, err := NewTensorStorage(src.Spec())
	if err != nil {
		return nil, err
	}
	bytes := src.Bytes()
	if len(bytes) != len(ts.data) {
		return nil, fmt.Errorf("%w: %s is not byte-per-channel",
			ErrInvalidSpec, src.Spec().Format)
	}
	for i, b := range bytes {
		ts.data[i] = float32(b) / 255
	}
	return ts, nil
}
