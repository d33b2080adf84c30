// Package schema models the runtime type system Centy records are shaped by:
// a [TypeSchema] per record kind, discovered from per-type config.yaml files
// under the project's store directory, and served through a [Registry] that
// supports case-insensitive lookup by singular or plural name.
//
// Downstream components (internal/record, internal/allocator,
// internal/store) branch on TypeSchema.Features rather than on a compiled-in
// kind enum, so new record kinds never require a code change.
package schema

import (
	"fmt"
	"strings"
)

// Identifier distinguishes the two supported record ID strategies.
type Identifier string

// Identifier values enumerate the supported ID strategies.
const (
	IdentifierUUID Identifier = "uuid"
	IdentifierSlug Identifier = "slug"
)

// FieldType enumerates the supported schema field value types.
type FieldType string

// FieldType values enumerate the supported field types.
const (
	FieldString     FieldType = "string"
	FieldStringList FieldType = "stringList"
	FieldNumber     FieldType = "number"
	FieldBool       FieldType = "bool"
	FieldDate       FieldType = "date"
	FieldDatetime   FieldType = "datetime"
	FieldEnum       FieldType = "enum"
)

// Features toggles the optional engine capabilities a type participates in.
type Features struct {
	DisplayNumber bool
	Status        bool
	Priority      bool
	SoftDelete    bool
	Assets        bool
	Move          bool
	Duplicate     bool
	OrgSync       bool
}

// FieldDef describes one schema-defined record field.
type FieldDef struct {
	Type FieldType

	// Required means a value must be present (either supplied or via
	// Default) on create and update.
	Required bool

	// Default is the pre-coerced default value applied when no value is
	// supplied. Its Go type matches Type: string, []string, float64, bool,
	// or string (date/datetime/enum are stored as their string form).
	// Nil means no default.
	Default any

	// EnumValues is required and non-empty iff Type == FieldEnum.
	EnumValues []string
}

// IsEnumValue reports whether v is one of the field's declared enum values.
func (f FieldDef) IsEnumValue(v string) bool {
	for _, ev := range f.EnumValues {
		if ev == v {
			return true
		}
	}

	return false
}

// TypeSchema is the runtime definition of a record kind, loaded from a
// per-type config.yaml file (or one of the [Defaults] built-ins).
type TypeSchema struct {
	Name           string
	Plural         string
	Identifier     Identifier
	Features       Features
	Statuses       []string
	DefaultStatus  string
	PriorityLevels int

	// FieldOrder preserves config.yaml declaration order, used by the
	// frontmatter codec to emit schema-defined keys in that order.
	FieldOrder []string
	Fields     map[string]FieldDef

	// Defaults carries pre-coerced top-level defaults supplied via the
	// config file's top-level `defaults` map. Field-level defaults live on
	// FieldDef.Default. This map is parsed and kept, but record validation
	// does not read it: only FieldDef.Default is applied on create and
	// update.
	Defaults map[string]any

	fingerprint uint64
}

// Field returns the field definition for name, if declared.
func (s *TypeSchema) Field(name string) (FieldDef, bool) {
	f, ok := s.Fields[name]

	return f, ok
}

// HasStatus reports whether status is one of the schema's declared statuses.
func (s *TypeSchema) HasStatus(status string) bool {
	for _, st := range s.Statuses {
		if st == status {
			return true
		}
	}

	return false
}

// Fingerprint returns the FNV-1a hash of the config bytes the schema was
// parsed from (for the built-in [Defaults], of their [EncodeConfig]
// rendering), computed once at construction. Used by [Registry.Fingerprint] to
// cheaply detect out-of-band schema-file edits without a full re-parse.
func (s *TypeSchema) Fingerprint() uint64 {
	return s.fingerprint
}

func validateFieldDef(name string, f FieldDef) error {
	switch f.Type {
	case FieldString, FieldStringList, FieldNumber, FieldBool, FieldDate, FieldDatetime:
		if len(f.EnumValues) != 0 {
			return fmt.Errorf("field %q: enumValues only valid for type=enum", name)
		}
	case FieldEnum:
		if len(f.EnumValues) == 0 {
			return fmt.Errorf("field %q: type=enum requires non-empty enumValues", name)
		}
	default:
		return fmt.Errorf("field %q: unknown type %q", name, f.Type)
	}

	if f.Required && f.Default != nil {
		if f.Type == FieldEnum {
			def, ok := f.Default.(string)
			if !ok || !f.IsEnumValue(def) {
				return fmt.Errorf("field %q: default %v must be a declared enum value", name, f.Default)
			}
		}
	}

	return nil
}

// normalizeKey lower-cases a name for case-insensitive registry lookups.
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
