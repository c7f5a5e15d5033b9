package framebuf

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func testSpec() BufferSpec {
	return BufferSpec{Width: 4, Height: 4, Format: FormatRGBA8}
}

func testPixels(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i * 7)
	}
	return data
}

func TestBufferCPURoundTrip(t *testing.T) {
	reg := newTestRegistry(t)
	buf := New(reg, testSpec())
	defer buf.Release()

	w, err := WriteView[CPUWriteView](buf)
	if err != nil {
		t.Fatalf("WriteView: %v", err)
	}
	pixels := testPixels(len(w.WritableBytes()))
	copy(w.WritableBytes(), pixels)

	r, err := ReadView[CPUReadView](buf)
	if err != nil {
		t.Fatalf("ReadView: %v", err)
	}
	if !bytes.Equal(r.Bytes(), pixels) {
		t.Error("read bytes differ from written bytes")
	}
}

func TestBufferReadOnEmpty(t *testing.T) {
	reg := newTestRegistry(t)
	buf := New(reg, testSpec())
	defer buf.Release()

	if _, err := ReadView[CPUReadView](buf); !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("read on empty buffer: got %v, want ErrEmptyBuffer", err)
	}
}

func TestBufferWriteLeavesSingleStorage(t *testing.T) {
	reg := newTestRegistry(t)
	if err := RegisterTensorStorage(reg); err != nil {
		t.Fatalf("RegisterTensorStorage: %v", err)
	}
	buf := New(reg, testSpec())
	defer buf.Release()

	if _, err := WriteView[CPUWriteView](buf); err != nil {
		t.Fatalf("WriteView: %v", err)
	}
	// A read through a converter appends a second storage.
	if _, err := ReadView[TensorReadView](buf); err != nil {
		t.Fatalf("ReadView tensor: %v", err)
	}
	if got := buf.StorageCount(); got != 2 {
		t.Fatalf("after converted read: %d storages, want 2", got)
	}

	// Any write view discards all other storages.
	if _, err := WriteView[CPUWriteView](buf); err != nil {
		t.Fatalf("second WriteView: %v", err)
	}
	if got := buf.StorageCount(); got != 1 {
		t.Errorf("after write: %d storages, want exactly 1", got)
	}
}

func TestBufferNoProvider(t *testing.T) {
	reg := newTestRegistry(t) // CPU only, no tensor providers
	buf := New(reg, testSpec())
	defer buf.Release()

	if _, err := WriteView[CPUWriteView](buf); err != nil {
		t.Fatalf("WriteView: %v", err)
	}

	_, err := ReadView[TensorReadView](buf)
	var npe *NoProviderError
	if !errors.As(err, &npe) {
		t.Fatalf("got %v, want NoProviderError", err)
	}
	if npe.Write {
		t.Error("read failure reported as write")
	}

	_, err = WriteView[TensorWriteView](buf)
	if !errors.As(err, &npe) {
		t.Fatalf("got %v, want NoProviderError", err)
	}
	if !npe.Write {
		t.Error("write failure reported as read")
	}
}

func TestBufferTensorConversion(t *testing.T) {
	reg := newTestRegistry(t)
	if err := RegisterTensorStorage(reg); err != nil {
		t.Fatalf("RegisterTensorStorage: %v", err)
	}
	buf := New(reg, testSpec())
	defer buf.Release()

	w, err := WriteView[CPUWriteView](buf)
	if err != nil {
		t.Fatalf("WriteView: %v", err)
	}
	data := w.WritableBytes()
	data[0] = 255
	data[1] = 51

	tr, err := ReadView[TensorReadView](buf)
	if err != nil {
		t.Fatalf("ReadView tensor: %v", err)
	}
	floats := tr.Floats()
	if floats[0] != 1.0 {
		t.Errorf("floats[0] = %v, want 1.0", floats[0])
	}
	if floats[1] != 0.2 {
		t.Errorf("floats[1] = %v, want 0.2", floats[1])
	}
}

func TestBufferWriteAfterConvertKeepsContent(t *testing.T) {
	reg := newTestRegistry(t)
	if err := RegisterTensorStorage(reg); err != nil {
		t.Fatalf("RegisterTensorStorage: %v", err)
	}
	buf := New(reg, testSpec())
	defer buf.Release()

	if _, err := WriteView[CPUWriteView](buf); err != nil {
		t.Fatalf("WriteView: %v", err)
	}

	// A write view through a converter replaces the whole set with the
	// converted storage.
	tw, err := WriteView[TensorWriteView](buf)
	if err != nil {
		t.Fatalf("WriteView tensor: %v", err)
	}
	if got := buf.StorageCount(); got != 1 {
		t.Errorf("after converted write: %d storages, want 1", got)
	}
	tw.WritableFloats()[0] = 0.5

	tr, err := ReadView[TensorReadView](buf)
	if err != nil {
		t.Fatalf("ReadView tensor: %v", err)
	}
	if tr.Floats()[0] != 0.5 {
		t.Errorf("tensor content lost across views")
	}
}

func TestBufferReleased(t *testing.T) {
	reg := newTestRegistry(t)
	buf := New(reg, testSpec())
	buf.Release()
	buf.Release() // idempotent

	if _, err := ReadView[CPUReadView](buf); !errors.Is(err, ErrBufferReleased) {
		t.Errorf("read after release: got %v, want ErrBufferReleased", err)
	}
	if _, err := WriteView[CPUWriteView](buf); !errors.Is(err, ErrBufferReleased) {
		t.Errorf("write after release: got %v, want ErrBufferReleased", err)
	}
}

func TestBufferDebugString(t *testing.T) {
	reg := newTestRegistry(t)
	buf := New(reg, testSpec())
	defer buf.Release()

	if _, err := WriteView[CPUWriteView](buf); err != nil {
		t.Fatalf("WriteView: %v", err)
	}
	s := buf.DebugString()
	if !strings.Contains(s, "4x4/RGBA8") || !strings.Contains(s, "CPUStorage") {
		t.Errorf("DebugString = %q", s)
	}
}

func TestBufferFromStorage(t *testing.T) {
	reg := newTestRegistry(t)
	cs, err := NewCPUStorage(testSpec())
	if err != nil {
		t.Fatalf("NewCPUStorage: %v", err)
	}
	cs.WritableBytes()[3] = 42

	buf := NewFromStorage(reg, cs)
	defer buf.Release()

	r, err := ReadView[CPUReadView](buf)
	if err != nil {
		t.Fatalf("ReadView: %v", err)
	}
	if r.Bytes()[3] != 42 {
		t.Error("adopted storage content lost")
	}
}
