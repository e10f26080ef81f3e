package world

// Commands is the command-deferral surface. Functions queued here run, in
// order, at the next FlushCommands call against the full mutable world.
//
// This is the only mutation path available from inside notification hooks:
// it turns "mutate from within a callback" into "mutate at the next safe
// point," keeping the single-writer discipline intact.
type Commands struct {
	w *World
}

// Queue appends a command to run at the next flush.
func (c Commands) Queue(fn func(*World)) {
	c.w.commands = append(c.w.commands, fn)
}

// Commands returns the world's command queue.
func (w *World) Commands() Commands {
	return Commands{w: w}
}

// FlushCommands runs all queued commands in order. Commands queued by a
// running command execute in the same flush, after the current batch.
// Nested flushes are no-ops; the outermost flush drains everything.
func (w *World) FlushCommands() {
	if w.flushing {
		return
	}
	w.flushing = true
	defer func() { w.flushing = false }()

	for len(w.commands) > 0 {
		cmd := w.commands[0]
		w.commands[0] = nil // release for GC
		w.commands = w.commands[1:]
		cmd(w)
	}
}

// PendingCommands returns the number of queued commands. Introspection for
// tests.
func (w *World) PendingCommands() int {
	return len(w.commands)
}

// DeferredWorld is the restricted world view passed to notification hooks.
// It allows reads and command queuing but no direct mutation.
type DeferredWorld struct {
	w *World
}

// Commands returns the command queue for scheduling mutation.
func (dw DeferredWorld) Commands() Commands {
	return dw.w.Commands()
}

// Get reads an attribute value.
func (dw DeferredWorld) Get(e Entity, a AttrID) (any, bool) {
	return dw.w.Get(e, a)
}

// Has reports attribute presence.
func (dw DeferredWorld) Has(e Entity, a AttrID) bool {
	return dw.w.Has(e, a)
}

// Alive reports whether the entity is live.
func (dw DeferredWorld) Alive(e Entity) bool {
	return dw.w.Alive(e)
}

// AttrName resolves an attribute handle to its registered name.
func (dw DeferredWorld) AttrName(a AttrID) string {
	return dw.w.AttrName(a)
}
