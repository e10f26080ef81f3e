package expect

import (
	"fmt"

	"github.com/rkellett/holdfast/internal/world"
)

// ViolationError reports a required attribute absent at check time. It is
// fatal by design: checks panic with it rather than returning it, because
// a missing required attribute is a programming error in the caller, not a
// condition to handle.
type ViolationError struct {
	// Attr is the registered name of the missing attribute.
	Attr string

	// Entity is the offending entity.
	Entity world.Entity

	// Read marks a read-time (query decorator) violation as opposed to a
	// write-time requirement check.
	Read bool
}

// Error implements the error interface.
func (e *ViolationError) Error() string {
	if e.Read {
		return fmt.Sprintf("expected attribute %q does not match entity %s", e.Attr, e.Entity)
	}
	return fmt.Sprintf("expected attribute %q does not exist on entity %s", e.Attr, e.Entity)
}
