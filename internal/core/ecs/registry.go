package ecs

// Registry tracks component stores and destroy hooks for bulk cleanup.
type Registry struct {
	stores []Removable
	hooks  []func(EntityID)
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Removable, 0, 16),
	}
}

// Register adds a component store to the registry.
func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

// OnDestroy registers fn to run for every destroyed entity, before its
// components are removed, so the hook can still read them.
func (r *Registry) OnDestroy(fn func(EntityID)) {
	r.hooks = append(r.hooks, fn)
}

// RemoveAll runs the destroy hooks for id and then clears it from every
// registered store.
func (r *Registry) RemoveAll(id EntityID) {
	for _, h := range r.hooks {
		h(id)
	}
	for _, s := range r.stores {
		s.Remove(id)
	}
}
