package framebuf

import (
	"reflect"
	"sort"
	"sync"
)

// Factory creates a fresh Storage serving some view type for the given spec.
// Factories run only on write-view requests; reads never allocate.
type Factory func(spec BufferSpec) (Storage, error)

// Converter builds a new Storage serving a target view type from an existing
// source storage, preserving content.
type Converter func(src Storage) (Storage, error)

// converterKey identifies a converter by target view type and concrete
// source storage type.
type converterKey struct {
	target reflect.Type
	source reflect.Type
}

// Registry maps view types to storage factories and converters.
//
// A Registry is built explicitly during a defined startup step and passed
// into buffers and pools; there is no global instance and no init-order
// dependent self-registration. Each storage backend provides a Register
// function (RegisterCPUStorage, RegisterTensorStorage, gpu.RegisterStorages)
// that the application calls once.
//
// Duplicate registration for the same key is an error, not a silent
// override; use ReplaceFactory or ReplaceConverter for intentional override
// (logged at Warn level).
//
// Registry is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	factories  map[reflect.Type]Factory
	converters map[converterKey]Converter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories:  make(map[reflect.Type]Factory),
		converters: make(map[converterKey]Converter),
	}
}

// RegisterFactory registers a factory for the view type V.
// Returns ErrAlreadyRegistered if a factory for V exists.
func RegisterFactory[V Storage](r *Registry, f Factory) error {
	key := viewType[V]()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[key]; ok {
		return ErrAlreadyRegistered
	}
	r.factories[key] = f
	return nil
}

// ReplaceFactory registers a factory for the view type V, overriding any
// previous registration. The override is logged so it stays observable.
func ReplaceFactory[V Storage](r *Registry, f Factory) {
	key := viewType[V]()

	r.mu.Lock()
	_, replaced := r.factories[key]
	r.factories[key] = f
	r.mu.Unlock()

	if replaced {
		Logger().Warn("framebuf: factory replaced", "view", key.String())
	}
}

// RegisterConverter registers a converter producing the view type V from a
// source storage of concrete type S. Returns ErrAlreadyRegistered if a
// converter for the same (V, S) pair exists.
func RegisterConverter[V Storage, S Storage](r *Registry, conv func(src S) (Storage, error)) error {
	key := converterKey{
		target: viewType[V](),
		source: reflect.TypeOf((*S)(nil)).Elem(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.converters[key]; ok {
		return ErrAlreadyRegistered
	}
	r.converters[key] = func(src Storage) (Storage, error) {
		return conv(src.(S))
	}
	return nil
}

// ReplaceConverter registers a converter for (V, S), overriding any previous
// registration. The override is logged so it stays observable.
func ReplaceConverter[V Storage, S Storage](r *Registry, conv func(src S) (Storage, error)) {
	key := converterKey{
		target: viewType[V](),
		source: reflect.TypeOf((*S)(nil)).Elem(),
	}

	r.mu.Lock()
	_, replaced := r.converters[key]
	r.converters[key] = func(src Storage) (Storage, error) {
		return conv(src.(S))
	}
	r.mu.Unlock()

	if replaced {
		Logger().Warn("framebuf: converter replaced",
			"view", key.target.String(), "source", key.source.String())
	}
}

// factory returns the registered factory for a view type, if any.
func (r *Registry) factory(view reflect.Type) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[view]
	return f, ok
}

// converter returns the registered converter for a (target view, concrete
// source storage type) pair, if any.
func (r *Registry) converter(view, source reflect.Type) (Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.converters[converterKey{target: view, source: source}]
	return c, ok
}

// Views returns the names of all view types with a registered factory,
// sorted alphabetically. Intended for diagnostics.
func (r *Registry) Views() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for t := range r.factories {
		names = append(names, t.String())
	}
	sort.Strings(names)
	return names
}
