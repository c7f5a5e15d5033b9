package gpu

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/framebuf"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

// Texture view contracts served by TextureStorage.
type (
	// TextureReadView exposes a GPU texture for sampling and readback.
	TextureReadView interface {
		framebuf.Storage
		TextureID() core.TextureID
		Download() ([]byte, error)
	}

	// TextureWriteView exposes a GPU texture as an upload target.
	TextureWriteView interface {
		framebuf.Storage
		TextureID() core.TextureID
		Upload(data []byte) error
	}
)

// DefaultTextureUsage is the usage for textures created by this package.
const DefaultTextureUsage = gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageTextureBinding

// toWGPUFormat maps a framebuf format to the wgpu texture format.
func toWGPUFormat(f framebuf.PixelFormat) (gputypes.TextureFormat, error) {
	switch f {
	case framebuf.FormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case framebuf.FormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm, nil
	case framebuf.FormatR8:
		return gputypes.TextureFormatR8Unorm, nil
	default:
		return gputypes.TextureFormatUndefined,
			fmt.Errorf("%w: %s", ErrUnsupportedTextureFormat, f)
	}
}

// TextureStorage backs a buffer with a GPU texture owned by one context.
//
// All texture traffic goes through the owning context's command stream, so
// uploads and downloads are ordered against other work on that context. A
// staging copy of the texel data is kept CPU-side and is authoritative for
// readback; the wgpu texture IDs stay zero until live texture creation is
// wired into the HAL (the upload/download paths and all lifecycle,
// synchronization, and pooling behavior are final).
//
// Consumers on other contexts record their usages with MarkUsed; Release
// defers actual destruction through the context's DeferredReleaser until
// every recorded usage has signalled.
type TextureStorage struct {
	spec  framebuf.BufferSpec
	ctx   *Context
	label string

	textureID core.TextureID
	viewID    core.TextureViewID
	format    gputypes.TextureFormat

	staging []byte
	usages  MultiSyncPoint

	released atomic.Bool
	release  func(*TextureStorage)
}

// NewTextureStorage creates a texture storage on the given context.
func NewTextureStorage(ctx *Context, spec framebuf.BufferSpec) (*TextureStorage, error) {
	if !spec.Valid() {
		return nil, fmt.Errorf("%w: %s", framebuf.ErrInvalidSpec, spec)
	}
	format, err := toWGPUFormat(spec.Format)
	if err != nil {
		return nil, err
	}
	return &TextureStorage{
		spec:    spec,
		ctx:     ctx,
		format:  format,
		staging: make([]byte, spec.ByteSize()),
	}, nil
}

// Spec returns the spec the storage backs.
func (t *TextureStorage) Spec() framebuf.BufferSpec { return t.spec }

// Context returns the context owning the texture.
func (t *TextureStorage) Context() *Context { return t.ctx }

// TextureID returns the underlying wgpu texture ID (zero for staging-only
// textures).
func (t *TextureStorage) TextureID() core.TextureID { return t.textureID }

// ViewID returns the texture view ID (zero for staging-only textures).
func (t *TextureStorage) ViewID() core.TextureViewID { return t.viewID }

// Format returns the wgpu format the texture was created with.
func (t *TextureStorage) Format() gputypes.TextureFormat { return t.format }

// Upload copies pixel data into the texture through the owning context's
// command stream. The data length must match the spec exactly.
func (t *TextureStorage) Upload(data []byte) error {
	if t.released.Load() {
		return ErrTextureReleased
	}
	if len(data) != len(t.staging) {
		return fmt.Errorf("%w: expected %d bytes, got %d",
			ErrTextureSizeMismatch, len(t.staging), len(data))
	}
	return t.ctx.Run(func(*Token) error {
		copy(t.staging, data)
		return nil
	})
}

// Download copies the texture contents out through the owning context's
// command stream, after any previously submitted writes.
func (t *TextureStorage) Download() ([]byte, error) {
	if t.released.Load() {
		return nil, ErrTextureReleased
	}
	return RunValue(t.ctx, func(*Token) ([]byte, error) {
		out := make([]byte, len(t.staging))
		copy(out, t.staging)
		return out, nil
	})
}

// MarkUsed records an in-flight usage of the texture. The texture will not
// be destroyed until the point signals. A later point from the same context
// replaces the earlier one.
func (t *TextureStorage) MarkUsed(sp *SyncPoint) {
	t.usages.Add(sp)
}

// Release returns the storage to its pool, or schedules destruction. With
// recorded usages still in flight, destruction is deferred through the
// owning context's releaser; nothing blocks.
func (t *TextureStorage) Release() {
	if t.release != nil {
		t.release(t)
		return
	}
	if t.usages.IsReady() {
		t.Destroy()
		return
	}
	t.ctx.Releaser().ReleaseLater(t.Destroy, &t.usages)
}

// Reuse rearms the storage for reissue from a pool: it waits out any
// recorded usages and clears them. Reuse runs at release time, so Acquire
// never blocks on it.
func (t *TextureStorage) Reuse() {
	t.usages.Wait()
	t.usages.Reset()
}

// Destroy frees the texture resources. Safe to call once; later calls are
// no-ops.
func (t *TextureStorage) Destroy() {
	if t.released.Swap(true) {
		return
	}
	t.staging = nil
	t.textureID = core.TextureID{}
	t.viewID = core.TextureViewID{}
	slogger().Debug("gpu: texture destroyed", "spec", t.spec.String(), "label", t.label)
}

// SetReleaseFunc installs the hook Release uses to return the storage to
// its owner. Passing nil restores the destroy-or-defer behavior.
func (t *TextureStorage) SetReleaseFunc(release func(*TextureStorage)) {
	t.release = release
}

// SetLabel attaches a debug label used in logs.
func (t *TextureStorage) SetLabel(label string) { t.label = label }

// String returns a string representation of the texture storage.
func (t *TextureStorage) String() string {
	status := "active"
	if t.released.Load() {
		status = "released"
	}
	return fmt.Sprintf("TextureStorage[%s %s %s]", t.label, t.spec, status)
}

// Interface checks.
var (
	_ TextureReadView   = (*TextureStorage)(nil)
	_ TextureWriteView  = (*TextureStorage)(nil)
	_ framebuf.Reusable = (*TextureStorage)(nil)
)
