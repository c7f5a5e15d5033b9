package framebuf

import "fmt"

// PixelFormat represents the pixel layout of a buffer.
type PixelFormat uint8

const (
	// FormatUnknown is the zero value and never valid for allocation.
	FormatUnknown PixelFormat = iota

	// FormatRGBA8 is the standard RGBA format with 8 bits per channel.
	FormatRGBA8

	// FormatBGRA8 is BGRA format, often used for surface presentation.
	FormatBGRA8

	// FormatR8 is single-channel 8-bit format, used for masks.
	FormatR8

	// FormatRGBAF32 is 32-bit float per channel, used for tensor data.
	FormatRGBAF32
)

// String returns a human-readable name for the format.
func (f PixelFormat) String() string {
	switch f {
	case FormatUnknown:
		return "Unknown"
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	case FormatR8:
		return "R8"
	case FormatRGBAF32:
		return "RGBAF32"
	default:
		return fmt.Sprintf("Invalid(%d)", uint8(f))
	}
}

// BytesPerPixel returns the number of bytes per pixel for the format.
// Returns 0 for unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA8, FormatBGRA8:
		return 4
	case FormatR8:
		return 1
	case FormatRGBAF32:
		return 16
	default:
		return 0
	}
}

// Channels returns the number of color channels in the format.
func (f PixelFormat) Channels() int {
	switch f {
	case FormatRGBA8, FormatBGRA8, FormatRGBAF32:
		return 4
	case FormatR8:
		return 1
	default:
		return 0
	}
}

// BufferSpec describes the dimensions and format of a buffer allocation.
// BufferSpec is a comparable value type and is used as the pool bucket key.
type BufferSpec struct {
	Width  int
	Height int
	Format PixelFormat
}

// Valid reports whether the spec describes an allocatable buffer.
func (s BufferSpec) Valid() bool {
	return s.Width > 0 && s.Height > 0 && s.Format.BytesPerPixel() > 0
}

// ByteSize returns the number of bytes needed to back the spec.
func (s BufferSpec) ByteSize() int {
	return s.Width * s.Height * s.Format.BytesPerPixel()
}

// String returns a compact description like "640x480/RGBA8".
func (s BufferSpec) String() string {
	return fmt.Sprintf("%dx%d/%s", s.Width, s.Height, s.Format)
}
