package state

// Entity is one monitored object (the server instance or one database)
// together with its working counter state for this run.
type Entity struct {
	key   string
	state Section
}

// Key returns the section key of the entity.
func (e *Entity) Key() string {
	return e.key
}

// State returns the working state. Collectors read previous values from it
// and store the values observed in this run.
func (e *Entity) State() Section {
	return e.state
}

// Registry owns the entities that take part in one run and mediates
// between them and the loaded Snapshot.
type Registry struct {
	loaded   Snapshot
	entities map[string]*Entity
	order    []string
}

// NewRegistry creates a registry on top of a loaded snapshot. The snapshot
// is not modified.
func NewRegistry(loaded Snapshot) *Registry {
	if loaded == nil {
		loaded = Snapshot{}
	}
	return &Registry{
		loaded:   loaded,
		entities: make(map[string]*Entity),
	}
}

// Register returns the entity for key, creating it on first use with a
// copy of its previously stored section. Registering a key twice returns
// the same entity.
func (r *Registry) Register(key string) *Entity {
	if e, ok := r.entities[key]; ok {
		return e
	}
	e := &Entity{key: key}
	if sec, ok := r.loaded[key]; ok {
		e.state = sec.Clone()
	} else {
		e.state = Section{}
	}
	r.entities[key] = e
	r.order = append(r.order, key)
	return e
}

// Entities returns the registered entities in registration order.
func (r *Registry) Entities() []*Entity {
	out := make([]*Entity, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.entities[k])
	}
	return out
}

// CollectAll returns the snapshot to persist: the loaded sections, with the
// section of every registered entity replaced by its working state.
// Sections of entities absent from this run are kept as they were.
func (r *Registry) CollectAll() Snapshot {
	out := r.loaded.Clone()
	for _, e := range r.Entities() {
		out[e.key] = e.state.Clone()
	}
	return out
}
