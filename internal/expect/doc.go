// Package expect enforces "attribute T must exist on entity E" contracts.
//
// A requirement is declared as a side effect of adding an attribute that
// was registered with Required: the add hook routes through the command
// queue and, at the next flush, either checks the requirement immediately
// or buffers it, depending on the active suppression scope.
//
// Suppression exists for bulk mutation windows — restoring many entities
// from a snapshot inserts attributes in storage order, not declaration
// order, so checking immediately would fail spuriously. Bracketing the
// restore in a scope defers every check until the batch completes:
//
//	scope := expect.Suppress(w)
//	defer scope.Resolve()
//	// ... bulk insertion ...
//
// Resolve flushes exactly once, even on early exit. A buffered requirement
// whose entity was despawned before the flush is dropped silently.
//
// A violation is a programming error, not a transient condition: checks
// panic with *ViolationError and are never retried.
//
// The package also provides New, a read-time query decorator that asserts
// attribute presence during iteration instead of letting the store silently
// filter non-matching rows.
package expect
