package framebuf

// NewCPUMultiPool creates a MultiPool of CPU storages.
func NewCPUMultiPool(opts PoolOptions) *MultiPool[*CPUStorage] {
	return NewMultiPool(opts, func(spec BufferSpec) (*CPUStorage, error) {
		return NewCPUStorage(spec)
	})
}

// RegisterPooledCPUStorage registers CPU storage factories that draw from
// the given multi-spec pool instead of allocating per buffer. Each storage
// handed out carries its pool ticket; releasing the storage releases the
// ticket, returning the memory to the pool.
func RegisterPooledCPUStorage(reg *Registry, mp *MultiPool[*CPUStorage]) error {
	factory := func(spec BufferSpec) (Storage, error) {
		ticket, err := mp.GetBuffer(spec)
		if err != nil {
			return nil, err
		}
		s := ticket.Item()
		// Rebind on every acquire: the previous lease's hook is stale.
		s.SetReleaseFunc(func(*CPUStorage) {
			s.SetReleaseFunc(nil)
			if rerr := ticket.Release(); rerr != nil {
				Logger().Warn("framebuf: pooled storage double release", "spec", spec.String())
			}
		})
		return s, nil
	}

	if err := RegisterFactory[CPUReadView](reg, factory); err != nil {
		return err
	}
	if err := RegisterFactory[CPUWriteView](reg, factory); err != nil {
		return err
	}
	return RegisterFactory[ImageReadView](reg, factory)
}
