package gpu

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gogpu/wgpu/hal"
)

// Token proves that the holder is executing on a specific context.
//
// Tokens are created only by a context's executor and passed to task
// functions; APIs that must run on a context (WaitOnGpu, texture uploads)
// take a Token, so misuse is a compile-time error rather than a runtime
// thread assertion.
type Token struct {
	ctx *Context
}

// Context returns the context this token belongs to.
func (t *Token) Context() *Context { return t.ctx }

// ContextOptions configures a Context.
type ContextOptions struct {
	// Name is a debug label used in logs.
	Name string

	// DedicatedThread, when true, gives the context one locked OS thread
	// that executes all submitted work in order. When false, work runs
	// inline on the submitting goroutine, serialized by the context.
	DedicatedThread bool

	// Device and Queue are optional HAL handles. When present, sync
	// tokens insert real fences into the queue; when absent the context
	// still provides ordered execution and CPU-visible sync points.
	Device hal.Device
	Queue  hal.Queue

	// TaskQueueSize is the submission channel depth for dedicated-thread
	// contexts. Defaults to DefaultTaskQueueSize.
	TaskQueueSize int
}

// DefaultTaskQueueSize is the default submission queue depth.
const DefaultTaskQueueSize = 64

// Context is one GPU execution context.
//
// All work submitted to a context executes in strict submission order.
// Submission (Run, RunWithoutWaiting) is safe from multiple goroutines;
// Run blocks the caller until its unit of work completes on the context.
type Context struct {
	name   string
	device hal.Device
	queue  hal.Queue

	releaser DeferredReleaser

	// tasks is non-nil for dedicated-thread contexts.
	tasks  chan func(*Token)
	doneCh chan struct{}

	// inline serializes execution when there is no dedicated thread.
	inline sync.Mutex
	token  *Token

	// closeMu fences submissions against Close: submitters hold the read
	// side across the channel send, Close holds the write side while
	// closing the channel.
	closeMu sync.RWMutex
	closed  atomic.Bool
}

// current tracks the context whose work is executing, for diagnostics and
// as the default current-context lookup. Applications scheduling several
// dedicated contexts concurrently should install their own lookup with
// SetCurrentContextLookup.
var current atomic.Pointer[Context]

// currentLookup is the optional external current-context hook.
var currentLookup atomic.Pointer[func() *Context]

// SetCurrentContextLookup installs a lookup used by CurrentContext when the
// scheduling layer tracks context affinity itself. Pass nil to restore the
// built-in tracking.
func SetCurrentContextLookup(fn func() *Context) {
	if fn == nil {
		currentLookup.Store(nil)
		return
	}
	currentLookup.Store(&fn)
}

// CurrentContext returns the context whose work is currently executing, or
// nil if none. With a lookup installed, the lookup decides.
func CurrentContext() *Context {
	if fn := currentLookup.Load(); fn != nil {
		return (*fn)()
	}
	return current.Load()
}

// NewContext creates an execution context. Contexts with DedicatedThread
// start their worker immediately; Close releases it.
func NewContext(opts ContextOptions) *Context {
	c := &Context{
		name:   opts.Name,
		device: opts.Device,
		queue:  opts.Queue,
	}
	c.token = &Token{ctx: c}

	if opts.DedicatedThread {
		size := opts.TaskQueueSize
		if size <= 0 {
			size = DefaultTaskQueueSize
		}
		c.tasks = make(chan func(*Token), size)
		c.doneCh = make(chan struct{})
		go c.worker()
		slogger().Info("gpu: context started", "name", c.name, "dedicated", true)
	}
	return c
}

// Name returns the context's debug label.
func (c *Context) Name() string { return c.name }

// Releaser returns the context's deferred releaser.
func (c *Context) Releaser() *DeferredReleaser { return &c.releaser }

// worker executes submitted tasks in order on one locked OS thread.
// GPU APIs with thread-affine state require all calls for a context to
// come from the same OS thread.
func (c *Context) worker() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(c.doneCh)

	for fn := range c.tasks {
		c.execute(fn)
	}
}

// execute runs one task with this context made current, restoring the
// previous current context on every exit path.
func (c *Context) execute(fn func(*Token)) {
	prev := current.Swap(c)
	defer current.Store(prev)
	fn(c.token)
}

// Run submits fn and blocks until it has executed on the context, returning
// fn's error. Never call Run while holding a pool or registry lock if fn
// may wait on other contexts.
func (c *Context) Run(fn func(tok *Token) error) error {
	errc := make(chan error, 1)
	if err := c.submit(func(tok *Token) { errc <- fn(tok) }); err != nil {
		return err
	}
	return <-errc
}

// RunValue submits fn, blocks until it has executed on the context, and
// returns its typed result.
func RunValue[T any](c *Context, fn func(tok *Token) (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	resc := make(chan result, 1)
	if err := c.submit(func(tok *Token) {
		v, err := fn(tok)
		resc <- result{val: v, err: err}
	}); err != nil {
		var zero T
		return zero, err
	}
	res := <-resc
	return res.val, res.err
}

// RunWithoutWaiting submits fn for ordered execution and returns without
// waiting for it. Returns ErrContextClosed after Close.
func (c *Context) RunWithoutWaiting(fn func(tok *Token)) error {
	return c.submit(fn)
}

// submit enqueues fn on the dedicated thread, or runs it inline serialized
// when the context has none.
func (c *Context) submit(fn func(*Token)) error {
	if c.tasks == nil {
		if c.closed.Load() {
			return ErrContextClosed
		}
		c.inline.Lock()
		defer c.inline.Unlock()
		c.execute(fn)
		return nil
	}

	c.closeMu.RLock()
	defer c.closeMu.RUnlock()
	if c.closed.Load() {
		return ErrContextClosed
	}
	c.tasks <- fn
	return nil
}

// Close stops accepting work, drains already-submitted tasks, and joins the
// worker thread. Close is safe to call multiple times.
func (c *Context) Close() {
	if c.tasks == nil {
		c.closed.Store(true)
		return
	}

	c.closeMu.Lock()
	if !c.closed.CompareAndSwap(false, true) {
		c.closeMu.Unlock()
		return
	}
	close(c.tasks)
	c.closeMu.Unlock()

	<-c.doneCh
	slogger().Info("gpu: context closed", "name", c.name)
}
