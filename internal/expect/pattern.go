package expect

import "github.com/rkellett/holdfast/internal/world"

// Pattern is a query decorator which panics if its inner attribute does
// not match, instead of letting the store silently filter the row out.
//
// The store's default behavior for a pattern that misses a chunk's schema
// is to skip the chunk. For attributes that are contractually required to
// travel together that silence hides bugs: a query over (A, B) quietly
// ignores every A that lost its B. Wrapping the inner attribute —
// Query(world.Read(a), expect.New(b)) — turns the skip into an assertion.
//
// Per chunk, the decorator tests the inner attribute's membership before
// any row is fetched and caches the result for the chunk's lifetime. On
// fetch, a cached match delegates to the normal fetch; a cached miss
// panics with *ViolationError naming the attribute and the entity.
//
// The decorator still declares the inner attribute's read access, so the
// store's conflict detection stays sound even though mismatches are
// asserted rather than filtered.
type Pattern struct {
	attr    world.AttrID
	name    string
	matches map[*world.Chunk]bool
}

// New wraps an attribute in an expectation decorator for use as a query
// pattern. The name is resolved at query time from the world's registry.
func New(w *world.World, a world.AttrID) *Pattern {
	return &Pattern{
		attr:    a,
		name:    w.AttrName(a),
		matches: make(map[*world.Chunk]bool),
	}
}

// Access declares the inner attribute's read. Required for conflict
// detection even though the decorator never filters.
func (p *Pattern) Access(s *world.AccessSet) {
	s.AddRead(p.attr)
}

// MatchChunk caches the inner membership test and reports the chunk as
// matching unconditionally, so rows reach Fetch instead of being filtered.
func (p *Pattern) MatchChunk(c *world.Chunk) bool {
	if _, ok := p.matches[c]; !ok {
		p.matches[c] = c.Has(p.attr)
	}
	return true
}

// Fetch returns the inner attribute's value when the chunk matched, and
// panics with *ViolationError identifying the attribute and entity when it
// did not.
func (p *Pattern) Fetch(c *world.Chunk, row int) any {
	if p.matches[c] {
		return c.Value(p.attr, row)
	}
	panic(&ViolationError{Attr: p.name, Entity: c.EntityAt(row), Read: true})
}
