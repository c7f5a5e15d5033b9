package framebuf

import "testing"

func TestPixelFormatBytesPerPixel(t *testing.T) {
	tests := []struct {
		format PixelFormat
		want   int
	}{
		{FormatRGBA8, 4},
		{FormatBGRA8, 4},
		{FormatR8, 1},
		{FormatRGBAF32, 16},
		{FormatUnknown, 0},
	}
	for _, tt := range tests {
		if got := tt.format.BytesPerPixel(); got != tt.want {
			t.Errorf("%s: BytesPerPixel = %d, want %d", tt.format, got, tt.want)
		}
	}
}

func TestBufferSpecValid(t *testing.T) {
	tests := []struct {
		name string
		spec BufferSpec
		want bool
	}{
		{"ok", BufferSpec{Width: 640, Height: 480, Format: FormatRGBA8}, true},
		{"zero width", BufferSpec{Width: 0, Height: 480, Format: FormatRGBA8}, false},
		{"negative height", BufferSpec{Width: 640, Height: -1, Format: FormatRGBA8}, false},
		{"unknown format", BufferSpec{Width: 640, Height: 480, Format: FormatUnknown}, false},
	}
	for _, tt := range tests {
		if got := tt.spec.Valid(); got != tt.want {
			t.Errorf("%s: Valid = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBufferSpecByteSize(t *testing.T) {
	spec := BufferSpec{Width: 4, Height: 3, Format: FormatRGBA8}
	if got := spec.ByteSize(); got != 48 {
		t.Errorf("ByteSize = %d, want 48", got)
	}
}

func TestBufferSpecString(t *testing.T) {
	spec := BufferSpec{Width: 640, Height: 480, Format: FormatRGBA8}
	if got := spec.String(); got != "640x480/RGBA8" {
		t.Errorf("String = %q", got)
	}
}

func TestBufferSpecComparable(t *testing.T) {
	a := BufferSpec{Width: 10, Height: 10, Format: FormatR8}
	b := BufferSpec{Width: 10, Height: 10, Format: FormatR8}
	m := map[BufferSpec]int{a: 1}
	if m[b] != 1 {
		t.Error("equal specs must hash to the same map key")
	}
}
