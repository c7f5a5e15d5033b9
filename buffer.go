package framebuf

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Buffer is a logical image/tensor value backed by one or more
// content-equivalent Storages.
//
// A Buffer exclusively owns its storage set. A write to any view discards
// all other storages (at most one storage remains after a write); a read
// never allocates an empty storage — one must already exist.
//
// Buffer is safe for concurrent use, but the usual pattern is one producer
// writing, then any number of readers.
type Buffer struct {
	spec BufferSpec
	reg  *Registry

	mu       sync.Mutex
	storages []Storage
	released bool
}

// New creates an empty buffer for the given spec. The first view request
// must be a write view, which allocates the initial storage.
func New(reg *Registry, spec BufferSpec) *Buffer {
	return &Buffer{spec: spec, reg: reg}
}

// NewFromStorage creates a buffer adopting an existing storage. The buffer
// takes ownership: the storage is released with the buffer.
func NewFromStorage(reg *Registry, s Storage) *Buffer {
	return &Buffer{spec: s.Spec(), reg: reg, storages: []Storage{s}}
}

// Spec returns the buffer's allocation spec.
func (b *Buffer) Spec() BufferSpec {
	return b.spec
}

// Release releases all held storages. The buffer must not be used after
// Release. Release is safe to call multiple times.
func (b *Buffer) Release() {
	b.mu.Lock()
	storages := b.storages
	b.storages = nil
	b.released = true
	b.mu.Unlock()

	// Storage release may re-enter pools or defer to GPU reclamation;
	// never hold the buffer lock across it.
	for _, s := range storages {
		s.Release()
	}
}

// StorageCount returns the number of storages currently held.
func (b *Buffer) StorageCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.storages)
}

// DebugString lists the buffer spec and the held storage types, e.g.
// "Buffer[640x480/RGBA8 *framebuf.CPUStorage]".
func (b *Buffer) DebugString() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := make([]string, len(b.storages))
	for i, s := range b.storages {
		names[i] = storageType(s).String()
	}
	return fmt.Sprintf("Buffer[%s %s]", b.spec, strings.Join(names, ","))
}

// ReadView returns a view of type V over the buffer's current content.
//
// Resolution order:
//  1. An existing storage already serving V.
//  2. A registered converter from one of the existing storages' types to V;
//     the converted storage is appended to the set.
//
// Reads never allocate an empty storage: an empty buffer yields
// ErrEmptyBuffer, and factories are never consulted.
func ReadView[V Storage](b *Buffer) (V, error) {
	var zero V

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released {
		return zero, ErrBufferReleased
	}
	if len(b.storages) == 0 {
		return zero, ErrEmptyBuffer
	}

	// Existing storage already serves V.
	for _, s := range b.storages {
		if v, ok := s.(V); ok {
			return v, nil
		}
	}

	// Convert from an existing storage.
	target := viewType[V]()
	for _, s := range b.storages {
		conv, ok := b.reg.converter(target, storageType(s))
		if !ok {
			continue
		}
		ns, err := conv(s)
		if err != nil {
			return zero, fmt.Errorf("framebuf: convert %s to %s: %w",
				storageType(s), target, err)
		}
		b.storages = append(b.storages, ns)
		return ns.(V), nil
	}

	return zero, &NoProviderError{View: target.String()}
}

// WriteView returns a writable view of type V, making it the buffer's sole
// storage.
//
// Resolution order:
//  1. An existing storage already serving V: all other storages are
//     discarded first.
//  2. A registered converter from an existing storage's type to V: the
//     converted storage replaces the whole set.
//  3. The registered factory for V: a fresh storage replaces the whole set.
//
// After any successful WriteView the buffer holds exactly one storage.
func WriteView[V Storage](b *Buffer) (V, error) {
	var zero V

	b.mu.Lock()
	keep, err := resolveWrite[V](b)
	var discarded []Storage
	if err == nil {
		discarded = b.discardOthersLocked(keep)
	}
	b.mu.Unlock()

	// Discarded storages may re-enter pools or the deferred releaser;
	// release them only after the buffer lock is dropped.
	for _, s := range discarded {
		s.Release()
	}

	if err != nil {
		return zero, err
	}
	return keep.(V), nil
}

// resolveWrite finds or builds the storage that will serve the write view V.
// Caller must hold b.mu.
func resolveWrite[V Storage](b *Buffer) (Storage, error) {
	if b.released {
		return nil, ErrBufferReleased
	}

	// Existing storage already serves V.
	for _, s := range b.storages {
		if _, ok := s.(V); ok {
			return s, nil
		}
	}

	target := viewType[V]()

	// Convert from an existing storage.
	for _, s := range b.storages {
		conv, ok := b.reg.converter(target, storageType(s))
		if !ok {
			continue
		}
		ns, err := conv(s)
		if err != nil {
			return nil, fmt.Errorf("framebuf: convert %s to %s: %w",
				storageType(s), target, err)
		}
		b.storages = append(b.storages, ns)
		return ns, nil
	}

	// Allocate fresh via the factory.
	if f, ok := b.reg.factory(target); ok {
		ns, err := f(b.spec)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrAllocationFailed, target, err)
		}
		b.storages = append(b.storages, ns)
		return ns, nil
	}

	return nil, &NoProviderError{View: target.String(), Write: true}
}

// discardOthersLocked makes keep the sole storage and returns the storages
// that were dropped from the set. Caller must hold b.mu; the returned
// storages must be released after the lock is dropped.
func (b *Buffer) discardOthersLocked(keep Storage) []Storage {
	var discarded []Storage
	for _, s := range b.storages {
		if s != keep {
			discarded = append(discarded, s)
		}
	}
	b.storages = b.storages[:0]
	b.storages = append(b.storages, keep)
	return discarded
}

// storageType returns the dynamic type of a concrete storage.
func storageType(s Storage) reflect.Type {
	return reflect.TypeOf(s)
}
