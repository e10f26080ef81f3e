package world

import (
	"sort"
	"strconv"
	"strings"
)

// Chunk is the storage unit for one archetype: every entity whose attribute
// set equals the chunk's signature lives here, one row per entity and one
// column per attribute.
//
// A Chunk pointer is stable for the lifetime of the world, which is what
// lets query patterns cache per-chunk match results.
type Chunk struct {
	sig      []AttrID // sorted attribute signature
	key      string
	colIndex map[AttrID]int
	entities []Entity
	cols     [][]any // parallel to sig
}

func newChunk(sig []AttrID) *Chunk {
	c := &Chunk{
		sig:      sig,
		key:      sigKey(sig),
		colIndex: make(map[AttrID]int, len(sig)),
		cols:     make([][]any, len(sig)),
	}
	for i, a := range sig {
		c.colIndex[a] = i
	}
	return c
}

// Has reports whether the chunk's schema contains the attribute. This is
// the membership test query patterns run before fetching rows.
func (c *Chunk) Has(a AttrID) bool {
	_, ok := c.colIndex[a]
	return ok
}

// Len returns the number of rows in the chunk.
func (c *Chunk) Len() int {
	return len(c.entities)
}

// EntityAt returns the entity occupying the given row.
func (c *Chunk) EntityAt(row int) Entity {
	return c.entities[row]
}

// Value returns the attribute value at the given row. The caller must have
// established membership via Has; fetching an absent column returns nil.
func (c *Chunk) Value(a AttrID, row int) any {
	i, ok := c.colIndex[a]
	if !ok {
		return nil
	}
	return c.cols[i][row]
}

// Signature returns the chunk's sorted attribute signature.
func (c *Chunk) Signature() []AttrID {
	out := make([]AttrID, len(c.sig))
	copy(out, c.sig)
	return out
}

// pushRow appends an entity with values keyed by attribute. Missing keys
// get nil columns; extra keys are ignored.
func (c *Chunk) pushRow(e Entity, values map[AttrID]any) {
	c.entities = append(c.entities, e)
	for i, a := range c.sig {
		c.cols[i] = append(c.cols[i], values[a])
	}
}

// swapRemove removes a row, moving the last row into its place. Returns the
// entity that was moved into the vacated row, if any, so the caller can fix
// its row index.
func (c *Chunk) swapRemove(row int) (moved Entity, ok bool) {
	last := len(c.entities) - 1
	if row != last {
		c.entities[row] = c.entities[last]
		for i := range c.cols {
			c.cols[i][row] = c.cols[i][last]
		}
		moved, ok = c.entities[row], true
	}
	c.entities = c.entities[:last]
	for i := range c.cols {
		c.cols[i][last] = nil // release for GC
		c.cols[i] = c.cols[i][:last]
	}
	return moved, ok
}

// rowValues captures a row as an attribute-keyed map, used during archetype
// migration.
func (c *Chunk) rowValues(row int) map[AttrID]any {
	values := make(map[AttrID]any, len(c.sig))
	for i, a := range c.sig {
		values[a] = c.cols[i][row]
	}
	return values
}

// sigKey builds the canonical map key for a sorted signature.
func sigKey(sig []AttrID) string {
	if len(sig) == 0 {
		return ""
	}
	var b strings.Builder
	for i, a := range sig {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(a)))
	}
	return b.String()
}

// withAttr returns sig plus a, sorted. Caller guarantees a is absent.
func withAttr(sig []AttrID, a AttrID) []AttrID {
	out := make([]AttrID, 0, len(sig)+1)
	out = append(out, sig...)
	out = append(out, a)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// withoutAttr returns sig minus a. Caller guarantees a is present.
func withoutAttr(sig []AttrID, a AttrID) []AttrID {
	out := make([]AttrID, 0, len(sig)-1)
	for _, x := range sig {
		if x != a {
			out = append(out, x)
		}
	}
	return out
}
