package world

import "reflect"

// World is the reference host store.
//
// Thread-safety model: none. The world is mutated by one logical thread of
// control per step; hooks and deferred tasks are sequenced through the
// command queue rather than synchronized with locks.
type World struct {
	meta []entityMeta
	free []uint32

	attrs       []attrInfo
	attrsByName map[string]AttrID

	chunks     []*Chunk
	chunkByKey map[string]*Chunk
	emptyChunk *Chunk

	commands []func(*World)
	flushing bool

	systems systemRegistry

	resources map[reflect.Type]any
}

// NewWorld creates an empty world.
func NewWorld() *World {
	w := &World{
		attrsByName: make(map[string]AttrID),
		chunkByKey:  make(map[string]*Chunk),
		resources:   make(map[reflect.Type]any),
	}
	w.systems.init()
	w.emptyChunk = w.chunkFor(nil)
	return w
}

// Set adds or overwrites an attribute value on a live entity.
//
// First add migrates the entity to the chunk for its new attribute set and
// fires the attribute's add hooks. Overwriting an existing value updates
// the row in place and fires nothing. Set reports whether the entity was
// live.
func (w *World) Set(e Entity, a AttrID, value any) bool {
	m := w.resolve(e)
	if m == nil {
		return false
	}

	if i, ok := m.chunk.colIndex[a]; ok {
		m.chunk.cols[i][m.row] = value
		return true
	}

	values := m.chunk.rowValues(m.row)
	values[a] = value
	w.migrate(m, e, withAttr(m.chunk.sig, a), values)
	w.fireAdd(e, a)
	return true
}

// Get returns the attribute value on the entity, and whether it exists.
func (w *World) Get(e Entity, a AttrID) (any, bool) {
	m := w.resolve(e)
	if m == nil {
		return nil, false
	}
	i, ok := m.chunk.colIndex[a]
	if !ok {
		return nil, false
	}
	return m.chunk.cols[i][m.row], true
}

// Has reports whether the entity carries the attribute.
func (w *World) Has(e Entity, a AttrID) bool {
	_, ok := w.Get(e, a)
	return ok
}

// Remove removes an attribute from an entity, firing its remove hooks
// first. Removing an absent attribute is a no-op.
func (w *World) Remove(e Entity, a AttrID) bool {
	m := w.resolve(e)
	if m == nil {
		return false
	}
	if !m.chunk.Has(a) {
		return false
	}

	w.fireRemove(e, a)

	// Resolve again: a hook may not mutate directly, but be defensive about
	// despawn-via-command interleavings all the same.
	m = w.resolve(e)
	if m == nil || !m.chunk.Has(a) {
		return false
	}

	values := m.chunk.rowValues(m.row)
	delete(values, a)
	w.migrate(m, e, withoutAttr(m.chunk.sig, a), values)
	return true
}

// Chunks returns the live chunk list in creation order. Used by the query
// iterator; callers must not mutate the world while holding it.
func (w *World) Chunks() []*Chunk {
	return w.chunks
}

// chunkFor returns the chunk for the given sorted signature, creating it on
// first use.
func (w *World) chunkFor(sig []AttrID) *Chunk {
	key := sigKey(sig)
	if c, ok := w.chunkByKey[key]; ok {
		return c
	}
	c := newChunk(sig)
	w.chunks = append(w.chunks, c)
	w.chunkByKey[key] = c
	return c
}

// migrate moves an entity's row to the chunk matching the new signature.
func (w *World) migrate(m *entityMeta, e Entity, sig []AttrID, values map[AttrID]any) {
	w.removeRow(m)
	dest := w.chunkFor(sig)
	dest.pushRow(e, values)
	m.chunk = dest
	m.row = len(dest.entities) - 1
}

// removeRow detaches an entity's current row, repairing the row index of
// whichever entity the swap-remove relocated.
func (w *World) removeRow(m *entityMeta) {
	if moved, ok := m.chunk.swapRemove(m.row); ok {
		w.meta[moved.Index].row = m.row
	}
}
