package world

// AccessSet accumulates the attribute reads and writes a query declares.
//
// The conflict-detection layer compares access sets to decide whether two
// queries may observe the world in the same step. Decorator patterns must
// still declare their inner access even when a mismatch is enforced as an
// assertion rather than a filter; otherwise the analysis would be unsound.
type AccessSet struct {
	reads  map[AttrID]struct{}
	writes map[AttrID]struct{}
}

// NewAccessSet creates an empty access set.
func NewAccessSet() *AccessSet {
	return &AccessSet{
		reads:  make(map[AttrID]struct{}),
		writes: make(map[AttrID]struct{}),
	}
}

// AddRead declares a read of the attribute.
func (s *AccessSet) AddRead(a AttrID) {
	s.reads[a] = struct{}{}
}

// AddWrite declares a write of the attribute. A write implies a read.
func (s *AccessSet) AddWrite(a AttrID) {
	s.writes[a] = struct{}{}
	s.reads[a] = struct{}{}
}

// HasRead reports whether the set declares a read of the attribute.
func (s *AccessSet) HasRead(a AttrID) bool {
	_, ok := s.reads[a]
	return ok
}

// HasWrite reports whether the set declares a write of the attribute.
func (s *AccessSet) HasWrite(a AttrID) bool {
	_, ok := s.writes[a]
	return ok
}

// ConflictsWith reports whether two access sets cannot run in the same
// step: any write in one overlapping any access in the other.
func (s *AccessSet) ConflictsWith(other *AccessSet) bool {
	for a := range s.writes {
		if other.HasRead(a) {
			return true
		}
	}
	for a := range other.writes {
		if s.HasRead(a) {
			return true
		}
	}
	return false
}

// Pattern is the store's native match-and-fetch query protocol.
//
// Per chunk, the iterator calls MatchChunk exactly once before any Fetch
// for that chunk. A false return filters the chunk out. Decorator patterns
// may report true unconditionally and enforce membership inside Fetch
// instead of filtering; the contract is only that MatchChunk runs first.
type Pattern interface {
	// Access declares the pattern's attribute access for conflict
	// detection.
	Access(*AccessSet)

	// MatchChunk tests the pattern against the chunk's schema before any
	// row of the chunk is fetched.
	MatchChunk(*Chunk) bool

	// Fetch materializes the pattern's value for one row.
	Fetch(c *Chunk, row int) any
}

// readPattern is the plain filtering pattern: chunks missing the attribute
// are skipped silently.
type readPattern struct {
	attr AttrID
}

// Read returns a pattern matching chunks that contain the attribute and
// fetching its value per row.
func Read(a AttrID) Pattern {
	return readPattern{attr: a}
}

func (p readPattern) Access(s *AccessSet) {
	s.AddRead(p.attr)
}

func (p readPattern) MatchChunk(c *Chunk) bool {
	return c.Has(p.attr)
}

func (p readPattern) Fetch(c *Chunk, row int) any {
	return c.Value(p.attr, row)
}

// Query iterates entities matching a set of patterns.
type Query struct {
	w        *World
	patterns []Pattern
	access   *AccessSet
}

// Query builds a query over the given patterns. The combined access set is
// computed eagerly so conflict detection can inspect it before iteration.
func (w *World) Query(patterns ...Pattern) *Query {
	access := NewAccessSet()
	for _, p := range patterns {
		p.Access(access)
	}
	return &Query{w: w, patterns: patterns, access: access}
}

// Access returns the query's declared attribute access.
func (q *Query) Access() *AccessSet {
	return q.access
}

// ForEach walks all chunks in creation order. For each chunk, every
// pattern's MatchChunk runs before any fetch; chunks any pattern rejects
// are skipped. For surviving chunks, fn receives each row's entity and the
// values fetched by each pattern, in pattern order.
func (q *Query) ForEach(fn func(e Entity, values []any)) {
	for _, c := range q.w.chunks {
		match := true
		for _, p := range q.patterns {
			if !p.MatchChunk(c) {
				match = false
			}
		}
		if !match || c.Len() == 0 {
			continue
		}
		for row := 0; row < c.Len(); row++ {
			values := make([]any, len(q.patterns))
			for i, p := range q.patterns {
				values[i] = p.Fetch(c, row)
			}
			fn(c.EntityAt(row), values)
		}
	}
}
