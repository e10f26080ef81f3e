package expect

import "github.com/rkellett/holdfast/internal/world"

// Scope is an explicit suppression window. While a scope is open,
// requirement checks that would otherwise run immediately are buffered;
// Resolve ends the window and flushes the buffered checks.
//
// Resolve is idempotent: calling it again (directly, or via a defer after
// an explicit call on the success path) flushes nothing twice. Scopes are
// expected to be resolved by the opener, defer-style, so the flush happens
// exactly once even on early exit.
//
// PRECEDENCE: the global flag is authoritative. Resolving a per-entity
// scope while global suppression is active clears the entity's own flag
// but flushes nothing; those checks flush with the global resolve.
type Scope struct {
	w        *world.World
	entity   world.Entity
	global   bool
	resolved bool
}

// Suppress opens the global suppression window. All requirement checks on
// any entity buffer until the returned scope resolves.
//
// Global suppression is a single process-wide window: a second global
// scope opened while one is active shares the window, and whichever
// resolves first ends it.
func Suppress(w *world.World) *Scope {
	bufferFor(w).global = true
	return &Scope{w: w, global: true}
}

// SuppressEntity opens a suppression window for a single entity. Only that
// entity's requirement checks buffer; other entities validate immediately.
func SuppressEntity(w *world.World, e world.Entity) *Scope {
	bufferFor(w).suppressed[e] = true
	return &Scope{w: w, entity: e}
}

// Resolve ends the suppression window and validates the buffered checks,
// panicking with *ViolationError on the first failure. Buffered checks
// whose entity has been despawned are discarded without checking.
//
// A global resolve flushes the entire buffer, in first-buffered entity
// order, then clears the global flag. A per-entity resolve flushes only
// that entity's checks.
func (s *Scope) Resolve() {
	if s.resolved {
		return
	}
	s.resolved = true

	b := bufferFor(s.w)
	if s.global {
		b.global = false
		for len(b.order) > 0 {
			flushEntity(s.w, b, b.order[0])
		}
		return
	}

	delete(b.suppressed, s.entity)
	if b.global {
		return
	}
	flushEntity(s.w, b, s.entity)
}

// Resolved reports whether the scope has already been resolved.
func (s *Scope) Resolved() bool {
	return s.resolved
}
