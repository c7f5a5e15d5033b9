package framebuf

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// CopyFromImage copies src into the storage, honoring the source stride and
// bounds. The source is clipped to the storage dimensions.
// The storage must be RGBA8.
func (s *CPUStorage) CopyFromImage(src image.Image) error {
	if s.spec.Format != FormatRGBA8 {
		return fmt.Errorf("%w: image copy requires RGBA8, have %s",
			ErrInvalidSpec, s.spec.Format)
	}

	dst := s.rgba()
	xdraw.Draw(dst, dst.Rect, src, src.Bounds().Min, xdraw.Src)
	return nil
}

// CopyFromImageScaled scales src to fill the whole storage using bilinear
// interpolation. The storage must be RGBA8.
func (s *CPUStorage) CopyFromImageScaled(src image.Image) error {
	if s.spec.Format != FormatRGBA8 {
		return fmt.Errorf("%w: image copy requires RGBA8, have %s",
			ErrInvalidSpec, s.spec.Format)
	}

	dst := s.rgba()
	xdraw.BiLinear.Scale(dst, dst.Rect, src, src.Bounds(), xdraw.Src, nil)
	return nil
}

// CopyToImage copies the storage contents into dst, clipped to dst bounds.
// The storage must be RGBA8.
func (s *CPUStorage) CopyToImage(dst xdraw.Image) error {
	if s.spec.Format != FormatRGBA8 {
		return fmt.Errorf("%w: image copy requires RGBA8, have %s",
			ErrInvalidSpec, s.spec.Format)
	}

	xdraw.Draw(dst, dst.Bounds(), s.rgba(), image.Point{}, xdraw.Src)
	return nil
}

// rgba wraps the storage memory as *image.RGBA without copying.
func (s *CPUStorage) rgba() *image.RGBA {
	return &image.RGBA{
		Pix:    s.data,
		Stride: s.spec.Width * 4,
		Rect:   image.Rect(0, 0, s.spec.Width, s.spec.Height),
	}
}
