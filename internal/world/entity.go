package world

import "fmt"

// Entity is an opaque handle to a record in the store.
//
// The index is reused after despawn; the generation distinguishes a live
// entity from a stale handle to a despawned one. A zero Entity is never
// returned by Spawn and is always dead.
type Entity struct {
	Index uint32
	Gen   uint32
}

// String renders the handle as "e<index>v<gen>" for diagnostics.
func (e Entity) String() string {
	return fmt.Sprintf("e%dv%d", e.Index, e.Gen)
}

// entityMeta tracks where a live entity's row lives.
type entityMeta struct {
	gen   uint32
	alive bool
	chunk *Chunk
	row   int
}

// Spawn allocates a new entity with no attributes.
//
// Despawned indices are reused with a bumped generation, so stale handles
// to the old entity never resolve.
func (w *World) Spawn() Entity {
	var idx uint32
	if n := len(w.free); n > 0 {
		idx = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		w.meta = append(w.meta, entityMeta{})
		idx = uint32(len(w.meta) - 1)
	}

	m := &w.meta[idx]
	m.gen++
	m.alive = true

	e := Entity{Index: idx, Gen: m.gen}
	w.emptyChunk.pushRow(e, nil)
	m.chunk = w.emptyChunk
	m.row = len(w.emptyChunk.entities) - 1
	return e
}

// Despawn destroys an entity and fires remove hooks for each of its
// attributes. Despawning a dead or stale handle is a no-op.
func (w *World) Despawn(e Entity) {
	m := w.resolve(e)
	if m == nil {
		return
	}

	// Remove hooks observe the entity while its attributes still exist.
	for _, attr := range m.chunk.sig {
		w.fireRemove(e, attr)
	}

	w.removeRow(m)
	m.alive = false
	m.chunk = nil
	w.free = append(w.free, e.Index)
}

// Alive reports whether the handle refers to a live entity.
func (w *World) Alive(e Entity) bool {
	return w.resolve(e) != nil
}

// resolve returns the metadata for a live, current handle, or nil.
func (w *World) resolve(e Entity) *entityMeta {
	if int(e.Index) >= len(w.meta) {
		return nil
	}
	m := &w.meta[e.Index]
	if !m.alive || m.gen != e.Gen {
		return nil
	}
	return m
}
