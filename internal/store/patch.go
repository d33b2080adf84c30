package store

// PriorityOp distinguishes "leave priority unchanged" from "clear it" on
// update, since a bare `*int` can't express both "absent" and "explicitly
// null" (DESIGN.md Open Question Decision #2).
type PriorityOp int

const (
	// PriorityUnset leaves the record's current priority untouched.
	PriorityUnset PriorityOp = iota
	// PriorityClear removes the record's priority.
	PriorityClear
	// PrioritySet assigns PrioritySetValue as the new priority.
	PrioritySet
)

// Patch carries update's overlay inputs (spec.md §4.6): only fields the
// caller actually sets take effect, everything else is left unchanged on
// the loaded record before re-validation.
type Patch struct {
	Title    *string
	Body     *string
	Status   *string
	Priority PriorityOp
	// PrioritySetValue is read only when Priority == PrioritySet.
	PrioritySetValue int
	// Fields overlays only the named keys; a field absent from Fields is
	// left at its current value, per spec.md §4.6's overlay rule.
	Fields map[string]any
	// NewID renames a slug-identified record (equivalent to a move within
	// the same type directory). Rejected for UUID-identified types.
	NewID string
}
