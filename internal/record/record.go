// Package record implements the generic in-memory record shape (spec.md
// §3's Record entity) plus the coercion and validation rules create/update
// apply against a [schema.TypeSchema] (spec.md §4.4).
package record

import "time"

// Record is the generic in-memory item every schema-defined type shares.
//
// Fields present only when the owning schema enables the corresponding
// feature are represented as pointers (DisplayNumber, Priority) or an empty
// string/zero time (Status, DeletedAt) - see the comments on each field.
type Record struct {
	ID       string
	TypeName string

	// DisplayNumber is non-nil iff the schema has Features.DisplayNumber.
	DisplayNumber *uint64

	Title string
	Body  string

	// Status is non-empty iff the schema has Features.Status and a status
	// is set. Absent is represented as "".
	Status string

	// Priority is non-nil iff the schema has Features.Priority and a
	// priority is set.
	Priority *int

	CreatedAt time.Time
	UpdatedAt time.Time

	// DeletedAt is the zero time unless the record is soft-deleted.
	DeletedAt time.Time

	// Fields holds schema-declared field values, keyed by field name. Value
	// types: string (string/date/datetime/enum), []string (stringList),
	// float64 (number), bool (bool).
	Fields map[string]any

	// ExtraFields holds frontmatter keys present on disk that the current
	// schema no longer declares (e.g. the schema was edited after the file
	// was written). Preserved verbatim on the next write so concurrent
	// out-of-band schema edits never silently lose data. See SPEC_FULL.md §5.
	ExtraFields map[string]any
}

// IsDeleted reports whether the record is currently soft-deleted.
func (r *Record) IsDeleted() bool {
	return !r.DeletedAt.IsZero()
}

// Clone returns a deep copy of r, safe to mutate independently.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}

	out := *r

	if r.DisplayNumber != nil {
		dn := *r.DisplayNumber
		out.DisplayNumber = &dn
	}

	if r.Priority != nil {
		p := *r.Priority
		out.Priority = &p
	}

	out.Fields = cloneFieldMap(r.Fields)
	out.ExtraFields = cloneFieldMap(r.ExtraFields)

	return &out
}

func cloneFieldMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}

	out := make(map[string]any, len(m))

	for k, v := range m {
		if list, ok := v.([]string); ok {
			cp := make([]string, len(list))
			copy(cp, list)
			out[k] = cp

			continue
		}

		out[k] = v
	}

	return out
}
