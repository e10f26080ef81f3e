package world

import "fmt"

// AttrID identifies a registered attribute type. IDs are dense indices into
// the world's registry and are only meaningful within the world that issued
// them.
type AttrID int32

// HookContext identifies the entity and attribute a notification hook fires
// for.
type HookContext struct {
	Entity Entity
	Attr   AttrID
}

// Hook is an add/remove notification callback.
//
// Hooks run synchronously inside the mutation that triggered them, against
// a DeferredWorld: they may read, and they may queue commands, but they
// cannot mutate directly. Mutation scheduled from a hook runs at the next
// command flush.
type Hook func(dw DeferredWorld, ctx HookContext)

// attrInfo is the per-attribute registry entry.
type attrInfo struct {
	name     string
	onAdd    []Hook
	onRemove []Hook
}

// AttrOption configures an attribute at registration time.
type AttrOption func(*attrInfo)

// WithOnAdd attaches a hook fired after the attribute is first added to an
// entity. Overwriting an existing value does not fire it again.
func WithOnAdd(h Hook) AttrOption {
	return func(info *attrInfo) {
		info.onAdd = append(info.onAdd, h)
	}
}

// WithOnRemove attaches a hook fired before the attribute is removed from
// an entity, including removal by despawn.
func WithOnRemove(h Hook) AttrOption {
	return func(info *attrInfo) {
		info.onRemove = append(info.onRemove, h)
	}
}

// RegisterAttr registers an attribute type under a unique name and returns
// its handle. Registering the same name twice is an error.
func (w *World) RegisterAttr(name string, opts ...AttrOption) (AttrID, error) {
	if name == "" {
		return 0, fmt.Errorf("attribute name must not be empty")
	}
	if _, exists := w.attrsByName[name]; exists {
		return 0, fmt.Errorf("attribute %q already registered", name)
	}

	info := attrInfo{name: name}
	for _, opt := range opts {
		opt(&info)
	}

	id := AttrID(len(w.attrs))
	w.attrs = append(w.attrs, info)
	w.attrsByName[name] = id
	return id, nil
}

// AttrName returns the registered name for an attribute handle, or
// "attr#<id>" for an unknown handle.
func (w *World) AttrName(a AttrID) string {
	if int(a) < 0 || int(a) >= len(w.attrs) {
		return fmt.Sprintf("attr#%d", a)
	}
	return w.attrs[a].name
}

// AttrByName resolves a registered attribute name to its handle.
func (w *World) AttrByName(name string) (AttrID, bool) {
	id, ok := w.attrsByName[name]
	return id, ok
}

// AttrNames returns all registered attribute names in registration order.
func (w *World) AttrNames() []string {
	names := make([]string, len(w.attrs))
	for i, info := range w.attrs {
		names[i] = info.name
	}
	return names
}

func (w *World) fireAdd(e Entity, a AttrID) {
	for _, h := range w.attrs[a].onAdd {
		h(DeferredWorld{w: w}, HookContext{Entity: e, Attr: a})
	}
}

func (w *World) fireRemove(e Entity, a AttrID) {
	for _, h := range w.attrs[a].onRemove {
		h(DeferredWorld{w: w}, HookContext{Entity: e, Attr: a})
	}
}
