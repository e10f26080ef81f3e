package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/rkellett/holdfast/internal/expect"
	"github.com/rkellett/holdfast/internal/world"
)

// RestoreStats reports what a restore brought back.
type RestoreStats struct {
	SnapshotID string
	Entities   int
	Attributes int
}

// Restore loads the snapshot into the world.
//
// The content hash is verified against the manifest before any mutation.
// Attribute rows are applied in storage order (sorted by attribute name,
// then entity), which deliberately does not match declaration order; the
// whole insertion pass runs inside a global suppression scope so required-
// attribute checks flush once, after the batch completes. A genuine
// requirement violation in the snapshot panics with *expect.ViolationError
// at scope resolution.
//
// Every attribute name in the snapshot must already be registered on the
// target world.
func (s *Store) Restore(w *world.World) (RestoreStats, error) {
	id, _, wantHash, err := s.Manifest()
	if err != nil {
		return RestoreStats{}, err
	}

	entities, attrs, err := s.readRows()
	if err != nil {
		return RestoreStats{}, err
	}

	gotHash, err := contentHash(entities, attrs)
	if err != nil {
		return RestoreStats{}, fmt.Errorf("failed to hash snapshot content: %w", err)
	}
	if gotHash != wantHash {
		return RestoreStats{}, fmt.Errorf("snapshot %s content hash mismatch: manifest %s, computed %s", id, wantHash, gotHash)
	}

	// Resolve attribute names before touching the world, so a stale
	// snapshot fails cleanly instead of half-applying.
	attrIDs := make([]world.AttrID, len(attrs))
	for i, a := range attrs {
		attrID, ok := w.AttrByName(a.Attr)
		if !ok {
			return RestoreStats{}, fmt.Errorf("snapshot %s references unregistered attribute %q", id, a.Attr)
		}
		attrIDs[i] = attrID
	}

	byIdx := make(map[uint32]world.Entity, len(entities))
	for _, row := range entities {
		byIdx[row.Idx] = w.Spawn()
	}

	scope := expect.Suppress(w)
	defer scope.Resolve()

	for i, a := range attrs {
		var value any
		if err := json.Unmarshal([]byte(a.Value), &value); err != nil {
			return RestoreStats{}, fmt.Errorf("attribute %q of entity %d: %w", a.Attr, a.EntityIdx, err)
		}
		w.Set(byIdx[a.EntityIdx], attrIDs[i], value)
	}

	// Requirement declarations from add hooks are sitting in the command
	// queue; land them in the buffer before the scope resolves.
	w.FlushCommands()
	scope.Resolve()

	return RestoreStats{
		SnapshotID: id,
		Entities:   len(entities),
		Attributes: len(attrs),
	}, nil
}

// readRows loads the snapshot tables. Entities come back sorted by index;
// attributes sorted by name then entity, which is the storage order Restore
// applies them in.
func (s *Store) readRows() ([]entityRow, []attrRow, error) {
	rows, err := s.db.Query(`SELECT idx, gen FROM entities ORDER BY idx`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read entities: %w", err)
	}
	defer rows.Close()

	var entities []entityRow
	for rows.Next() {
		var e entityRow
		if err := rows.Scan(&e.Idx, &e.Gen); err != nil {
			return nil, nil, fmt.Errorf("failed to scan entity row: %w", err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read entities: %w", err)
	}

	arows, err := s.db.Query(`SELECT entity_idx, attr, value FROM attributes ORDER BY attr, entity_idx`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read attributes: %w", err)
	}
	defer arows.Close()

	var attrs []attrRow
	for arows.Next() {
		var a attrRow
		if err := arows.Scan(&a.EntityIdx, &a.Attr, &a.Value); err != nil {
			return nil, nil, fmt.Errorf("failed to scan attribute row: %w", err)
		}
		attrs = append(attrs, a)
	}
	if err := arows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read attributes: %w", err)
	}

	return entities, attrs, nil
}
