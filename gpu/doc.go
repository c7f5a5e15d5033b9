// Package gpu provides execution contexts, cross-context synchronization,
// deferred reclamation, and GPU texture storage for framebuf.
//
// # Execution model
//
// Each Context optionally owns one dedicated OS thread; work submitted via
// Run or RunWithoutWaiting executes in strict submission order on that
// thread (or inline, serialized, when no dedicated thread exists). Task
// functions receive a Token proving they run on the context, so APIs that
// require context affinity take a Token instead of asserting at runtime.
//
// # Synchronization
//
// A SyncPoint marks "producer finished" on one context. Consumers either
// block a CPU thread (Wait), insert a wait into their own context's stream
// (WaitOnGpu), or poll (IsReady). Within one context commands execute in
// submission order; across contexts, ordering exists only through explicit
// sync points.
//
// # Reclamation
//
// DeferredReleaser batches resources whose last GPU usage is still in
// flight and sweeps them, without a background goroutine, once their sync
// points signal.
//
// Storage registration is explicit: call RegisterStorages with the
// application's framebuf.Registry during startup.
package gpu
