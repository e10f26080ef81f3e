package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/rkellett/holdfast/internal/world"
)

// entityRow and attrRow mirror the snapshot tables.
type entityRow struct {
	Idx uint32
	Gen uint32
}

type attrRow struct {
	EntityIdx uint32
	Attr      string
	Value     string // JSON-encoded
}

// Save writes the world's current state into the store, replacing any
// previous snapshot, and returns the new snapshot id.
func (s *Store) Save(w *world.World) (string, error) {
	entities, attrs, err := collect(w)
	if err != nil {
		return "", err
	}

	hash, err := contentHash(entities, attrs)
	if err != nil {
		return "", fmt.Errorf("failed to hash snapshot content: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// One snapshot per file: replace whatever was here.
	for _, stmt := range []string{
		`DELETE FROM attributes`,
		`DELETE FROM entities`,
		`DELETE FROM manifest`,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return "", fmt.Errorf("failed to clear previous snapshot: %w", err)
		}
	}

	for _, e := range entities {
		if _, err := tx.Exec(`INSERT INTO entities (idx, gen) VALUES (?, ?)`, e.Idx, e.Gen); err != nil {
			return "", fmt.Errorf("failed to write entity %d: %w", e.Idx, err)
		}
	}
	for _, a := range attrs {
		if _, err := tx.Exec(
			`INSERT INTO attributes (entity_idx, attr, value) VALUES (?, ?, ?)`,
			a.EntityIdx, a.Attr, a.Value,
		); err != nil {
			return "", fmt.Errorf("failed to write attribute %q of entity %d: %w", a.Attr, a.EntityIdx, err)
		}
	}

	id := uuid.Must(uuid.NewV7()).String()
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.Exec(
		`INSERT INTO manifest (id, created_at, content_hash) VALUES (?, ?, ?)`,
		id, createdAt, hash,
	); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return id, nil
}

// collect walks the world's chunks in creation order and captures every
// live entity and attribute value.
func collect(w *world.World) ([]entityRow, []attrRow, error) {
	var entities []entityRow
	var attrs []attrRow

	for _, c := range w.Chunks() {
		for row := 0; row < c.Len(); row++ {
			e := c.EntityAt(row)
			entities = append(entities, entityRow{Idx: e.Index, Gen: e.Gen})
			for _, a := range c.Signature() {
				encoded, err := json.Marshal(c.Value(a, row))
				if err != nil {
					return nil, nil, fmt.Errorf("attribute %q of %s is not serializable: %w", w.AttrName(a), e, err)
				}
				attrs = append(attrs, attrRow{
					EntityIdx: e.Index,
					Attr:      w.AttrName(a),
					Value:     string(encoded),
				})
			}
		}
	}
	return entities, attrs, nil
}

// contentHash computes the snapshot's canonical content hash.
//
// Entity indices are normalized to dense positions (sorted by index) and
// generations are excluded, so a restored world re-saves to the same hash
// even though its allocator assigned fresh handles.
func contentHash(entities []entityRow, attrs []attrRow) (string, error) {
	sortedEntities := make([]entityRow, len(entities))
	copy(sortedEntities, entities)
	sort.Slice(sortedEntities, func(i, j int) bool {
		return sortedEntities[i].Idx < sortedEntities[j].Idx
	})

	position := make(map[uint32]int, len(sortedEntities))
	for pos, e := range sortedEntities {
		position[e.Idx] = pos
	}

	sortedAttrs := make([]attrRow, len(attrs))
	copy(sortedAttrs, attrs)
	sort.Slice(sortedAttrs, func(i, j int) bool {
		if sortedAttrs[i].EntityIdx != sortedAttrs[j].EntityIdx {
			return sortedAttrs[i].EntityIdx < sortedAttrs[j].EntityIdx
		}
		return sortedAttrs[i].Attr < sortedAttrs[j].Attr
	})

	attrList := make([]any, len(sortedAttrs))
	for i, a := range sortedAttrs {
		attrList[i] = map[string]any{
			"entity": position[a.EntityIdx],
			"attr":   a.Attr,
			"value":  a.Value,
		}
	}

	doc := map[string]any{
		"entity_count": len(sortedEntities),
		"attributes":   attrList,
	}

	canonical, err := marshalCanonical(doc)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
