package gpu

import "github.com/gogpu/framebuf"

// RegisterStorages registers texture storage factories and the CPU-texture
// converters for the given context into the registry. Call once per
// context while building the application's registry.
//
// Registered providers:
//   - factories for TextureReadView and TextureWriteView
//   - converter CPUStorage → TextureStorage (upload)
//   - converters TextureStorage → CPU read/write/image views (readback)
func RegisterStorages(reg *framebuf.Registry, ctx *Context) error {
	factory := func(spec framebuf.BufferSpec) (framebuf.Storage, error) {
		return NewTextureStorage(ctx, spec)
	}
	if err := framebuf.RegisterFactory[TextureReadView](reg, factory); err != nil {
		return err
	}
	if err := framebuf.RegisterFactory[TextureWriteView](reg, factory); err != nil {
		return err
	}

	toTexture := func(src *framebuf.CPUStorage) (framebuf.Storage, error) {
		return textureFromCPU(ctx, src)
	}
	if err := framebuf.RegisterConverter[TextureReadView](reg, toTexture); err != nil {
		return err
	}
	if err := framebuf.RegisterConverter[TextureWriteView](reg, toTexture); err != nil {
		return err
	}

	toCPU := func(src *TextureStorage) (framebuf.Storage, error) {
		return cpuFromTexture(src)
	}
	if err := framebuf.RegisterConverter[framebuf.CPUReadView](reg, toCPU); err != nil {
		return err
	}
	if err := framebuf.RegisterConverter[framebuf.CPUWriteView](reg, toCPU); err != nil {
		return err
	}
	return framebuf.RegisterConverter[framebuf.ImageReadView](reg, toCPU)
}

// textureFromCPU uploads CPU content into a fresh texture storage on ctx.
func textureFromCPU(ctx *Context, src *framebuf.CPUStorage) (*TextureStorage, error) {
	ts, err := NewTextureStorage(ctx, src.Spec())
	if err != nil {
		return nil, err
	}
	if err := ts.Upload(src.Bytes()); err != nil {
		ts.Destroy()
		return nil, err
	}
	return ts, nil
}

// cpuFromTexture reads a texture back into a fresh CPU storage.
func cpuFromTexture(src *TextureStorage) (*framebuf.CPUStorage, error) {
	data, err := src.Download()
	if err != nil {
		return nil, err
	}
	cs, err := framebuf.NewCPUStorage(src.Spec())
	if err != nil {
		return nil, err
	}
	copy(cs.WritableBytes(), data)
	return cs, nil
}
