package expect

import (
	"github.com/rkellett/holdfast/internal/world"
)

// buffer is the world-scoped validation state: the suppression flags plus
// the per-entity lists of pending requirement checks.
//
// Entities are flushed in first-buffered order so global resolution is
// deterministic. Within one entity, checks run in declaration order.
type buffer struct {
	global     bool
	suppressed map[world.Entity]bool
	pending    map[world.Entity][]world.AttrID
	order      []world.Entity
}

func bufferFor(w *world.World) *buffer {
	b := world.InitResource[buffer](w)
	if b.suppressed == nil {
		b.suppressed = make(map[world.Entity]bool)
		b.pending = make(map[world.Entity][]world.AttrID)
	}
	return b
}

func (b *buffer) add(e world.Entity, attr world.AttrID) {
	if _, ok := b.pending[e]; !ok {
		b.order = append(b.order, e)
	}
	b.pending[e] = append(b.pending[e], attr)
}

// take removes and returns an entity's pending checks.
func (b *buffer) take(e world.Entity) []world.AttrID {
	attrs, ok := b.pending[e]
	if !ok {
		return nil
	}
	delete(b.pending, e)
	for i, other := range b.order {
		if other == e {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return attrs
}

// Require declares that entity e must carry attr. The active suppression
// scope routes the check: unsuppressed, the check runs now and panics with
// *ViolationError if the attribute is absent; suppressed, the check is
// buffered until the scope resolves.
//
// Requirements are normally declared indirectly, via attributes registered
// with Required, but Require may also be called directly.
func Require(w *world.World, e world.Entity, attr world.AttrID) {
	b := bufferFor(w)
	if b.global || b.suppressed[e] {
		b.add(e, attr)
		return
	}
	check(w, e, attr)
}

// check validates one requirement against the live world. A dead entity
// is a stale reference: dropped silently, never an error.
func check(w *world.World, e world.Entity, attr world.AttrID) {
	if !w.Alive(e) {
		return
	}
	if !w.Has(e, attr) {
		panic(&ViolationError{Attr: w.AttrName(attr), Entity: e})
	}
}

// flushEntity validates and clears one entity's buffered checks.
func flushEntity(w *world.World, b *buffer, e world.Entity) {
	attrs := b.take(e)
	if !w.Alive(e) {
		return
	}
	for _, attr := range attrs {
		check(w, e, attr)
	}
}

// Required returns an attribute registration option declaring that any
// entity the attribute is added to must also carry required.
//
// The add hook cannot validate in place — hooks run mid-mutation against a
// restricted world — so it routes the requirement through the command
// queue; the check (or its buffering) happens at the next flush point.
func Required(required world.AttrID) world.AttrOption {
	return world.WithOnAdd(func(dw world.DeferredWorld, ctx world.HookContext) {
		e := ctx.Entity
		dw.Commands().Queue(func(w *world.World) {
			Require(w, e, required)
		})
	})
}

// BufferedCount returns the total number of buffered checks across all
// entities. Introspection for tests.
func BufferedCount(w *world.World) int {
	b := bufferFor(w)
	n := 0
	for _, attrs := range b.pending {
		n += len(attrs)
	}
	return n
}
