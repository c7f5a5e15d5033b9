// Package framebuf provides a GPU/CPU buffer and tensor resource layer for
// real-time media pipelines.
//
// # Overview
//
// framebuf allocates, pools, and hands out image/tensor buffers that may be
// backed by CPU memory, GPU textures, or other device representations. Call
// sites request "a view of type V" without knowing which backend currently
// holds the data; the library resolves the request through existing storages,
// registered converters, and registered factories.
//
// # Quick Start
//
//	import "github.com/gogpu/framebuf"
//
//	reg := framebuf.NewRegistry()
//	framebuf.RegisterCPUStorage(reg)
//
//	spec := framebuf.BufferSpec{Width: 640, Height: 480, Format: framebuf.FormatRGBA8}
//	buf := framebuf.New(reg, spec)
//
//	w, _ := framebuf.WriteView[framebuf.CPUWriteView](buf)
//	copy(w.WritableBytes(), pixels)
//
//	r, _ := framebuf.ReadView[framebuf.CPUReadView](buf)
//	_ = r.Bytes()
//
// # Architecture
//
// The library is organized into:
//   - Public API: BufferSpec, Storage, Registry, Buffer, Pool, MultiPool
//   - Built-in storages: CPUStorage (bytes/images), TensorStorage (float32)
//   - GPU layer: framebuf/gpu (execution contexts, sync points, deferred
//     reclamation, texture storage)
//
// GPU-backed storages live in the gpu sub-package and are registered
// explicitly with RegisterStorages; framebuf itself never touches a GPU.
package framebuf
