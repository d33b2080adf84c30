package schema

import (
	"fmt"
	"strings"
)

// EncodeConfig renders schema as a deterministic config.yaml document (the
// template the manifest's "restore" resolution writes back when a type
// config file has diverged from the engine's expectation, spec.md §4.8).
func EncodeConfig(s *TypeSchema) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "name: %s\n", s.Name)
	fmt.Fprintf(&b, "plural: %s\n", s.Plural)
	fmt.Fprintf(&b, "identifier: %s\n", s.Identifier)
	b.WriteString("features:\n")
	fmt.Fprintf(&b, "  displayNumber: %v\n", s.Features.DisplayNumber)
	fmt.Fprintf(&b, "  status: %v\n", s.Features.Status)
	fmt.Fprintf(&b, "  priority: %v\n", s.Features.Priority)
	fmt.Fprintf(&b, "  softDelete: %v\n", s.Features.SoftDelete)
	fmt.Fprintf(&b, "  assets: %v\n", s.Features.Assets)
	fmt.Fprintf(&b, "  move: %v\n", s.Features.Move)
	fmt.Fprintf(&b, "  duplicate: %v\n", s.Features.Duplicate)
	fmt.Fprintf(&b, "  orgSync: %v\n", s.Features.OrgSync)

	if len(s.Statuses) > 0 {
		fmt.Fprintf(&b, "statuses: [%s]\n", strings.Join(s.Statuses, ", "))
	} else {
		b.WriteString("statuses: []\n")
	}

	fmt.Fprintf(&b, "defaultStatus: %s\n", s.DefaultStatus)
	fmt.Fprintf(&b, "priorityLevels: %d\n", s.PriorityLevels)

	if len(s.FieldOrder) == 0 {
		b.WriteString("fields: {}\n")
	} else {
		b.WriteString("fields:\n")

		for _, name := range s.FieldOrder {
			def := s.Fields[name]
			fmt.Fprintf(&b, "  %s: { type: %s", name, def.Type)

			if def.Required {
				b.WriteString(", required: true")
			}

			if len(def.EnumValues) > 0 {
				fmt.Fprintf(&b, ", enumValues: [%s]", strings.Join(def.EnumValues, ", "))
			}

			if def.Default != nil {
				fmt.Fprintf(&b, ", default: %s", encodeScalarForConfig(def.Default))
			}

			b.WriteString(" }\n")
		}
	}

	b.WriteString("defaults: {}\n")

	return []byte(b.String())
}

func encodeScalarForConfig(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case bool:
		if typed {
			return "true"
		}

		return "false"
	case []string:
		return "[" + strings.Join(typed, ", ") + "]"
	case float64:
		return fmt.Sprintf("%g", typed)
	default:
		return fmt.Sprintf("%v", typed)
	}
}
