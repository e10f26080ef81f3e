package world

import "reflect"

// Resources are world-scoped singleton values keyed by Go type. Subsystems
// (deferred task queues, the validation buffer) hang their process-wide
// state off the world through this slot so their lifetime matches the
// store's own.

// Resource returns the world's resource of type T, or nil if none was
// initialized.
func Resource[T any](w *World) *T {
	v, ok := w.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil
	}
	return v.(*T)
}

// InitResource returns the world's resource of type T, creating a zero
// value on first use.
func InitResource[T any](w *World) *T {
	key := reflect.TypeFor[T]()
	if v, ok := w.resources[key]; ok {
		return v.(*T)
	}
	v := new(T)
	w.resources[key] = v
	return v
}

// RemoveResource removes the resource of type T, returning it if present.
func RemoveResource[T any](w *World) (*T, bool) {
	key := reflect.TypeFor[T]()
	v, ok := w.resources[key]
	if !ok {
		return nil, false
	}
	delete(w.resources, key)
	return v.(*T), true
}
