package world

import (
	"fmt"
	"reflect"
	"runtime"
)

// SystemFunc is a registered callable: it runs against the full mutable
// world with a per-invocation input value.
type SystemFunc func(w *World, input any) error

// SystemID is a reusable handle to a registered system.
type SystemID int

type systemEntry struct {
	name string
	fn   SystemFunc
}

// systemRegistry caches registration per distinct function identity, so
// repeat registrations of the same function reuse one handle.
type systemRegistry struct {
	byIdentity map[uintptr]SystemID
	entries    []systemEntry
}

func (r *systemRegistry) init() {
	r.byIdentity = make(map[uintptr]SystemID)
}

// RegisterSystem registers fn and returns its handle. Registration is
// cached by function identity: registering the same function again returns
// the existing handle.
//
// Distinct closures over the same function body share an identity; callers
// that need per-closure handles should register named top-level functions
// instead.
func (w *World) RegisterSystem(fn SystemFunc) SystemID {
	ptr := reflect.ValueOf(fn).Pointer()
	if id, ok := w.systems.byIdentity[ptr]; ok {
		return id
	}

	name := "anonymous"
	if f := runtime.FuncForPC(ptr); f != nil {
		name = f.Name()
	}

	id := SystemID(len(w.systems.entries))
	w.systems.entries = append(w.systems.entries, systemEntry{name: name, fn: fn})
	w.systems.byIdentity[ptr] = id
	return id
}

// RunSystem invokes a registered system with the given input. Returns an
// error if the handle is unknown or the system itself fails.
func (w *World) RunSystem(id SystemID, input any) error {
	if int(id) < 0 || int(id) >= len(w.systems.entries) {
		return fmt.Errorf("unknown system handle %d", id)
	}
	entry := w.systems.entries[id]
	if err := entry.fn(w, input); err != nil {
		return fmt.Errorf("system %s: %w", entry.name, err)
	}
	return nil
}

// SystemName returns the diagnostic name recorded for a system handle.
func (w *World) SystemName(id SystemID) string {
	if int(id) < 0 || int(id) >= len(w.systems.entries) {
		return fmt.Sprintf("system#%d", id)
	}
	return w.systems.entries[id].name
}

// RegisteredSystems returns the number of distinct registered systems.
// Introspection for tests.
func (w *World) RegisteredSystems() int {
	return len(w.systems.entries)
}
