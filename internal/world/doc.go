// Package world implements the reference host store: a minimal in-memory
// entity/attribute runtime with archetype-based storage.
//
// The store exists to give the deferral subsystems (schedule, expect) a
// concrete host surface to collaborate with:
//
//   - Entity lifecycle: Spawn, Despawn, Alive
//   - Attribute registration with add/remove notification hooks
//   - Command deferral so hooks can schedule mutations safely
//   - A once-per-identity system registry with reusable handles
//   - The match-and-fetch query protocol (per-chunk schema membership
//     test, per-row fetch) with component-access declarations
//
// ARCHITECTURE:
//
// Single-Writer Model:
// All mutation happens on one logical thread of control. Hooks never mutate
// the world directly; they queue commands which run at the next flush point.
// This keeps mutation from inside notification callbacks safely sequenced
// rather than re-entrant.
//
// Archetype Layout:
// Entities with the same attribute set share a chunk: one column per
// attribute, one row per entity. Adding or removing an attribute migrates
// the entity between chunks. Chunk iteration order is creation order, which
// keeps query results deterministic.
//
// The store is designed for correctness and determinism, not throughput.
package world
