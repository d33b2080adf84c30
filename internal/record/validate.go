package record

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/schema"
)

const (
	dateLayout = "2006-01-02"
)

// CoerceFields validates and type-coerces a raw field-value map (as decoded
// off the wire: string, []string, []any of strings, JSON-encoded stringList
// strings, float64/int, bool) against s's declared fields, applying
// defaults and rejecting missing required fields, per spec.md §4.4 steps
// 1-3.
func CoerceFields(s *schema.TypeSchema, raw map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(s.Fields))

	for name, def := range s.Fields {
		value, supplied := raw[name]

		if !supplied {
			switch {
			case def.Default != nil:
				out[name] = def.Default

				continue
			case def.Required:
				return nil, coreerr.New(coreerr.CodeValidationFieldRequired, "record.CoerceFields", coreerr.WithID(name))
			default:
				continue
			}
		}

		coerced, err := coerceValue(def, value)
		if err != nil {
			return nil, coreerr.Wrap(err, coreerr.CodeValidationFieldType, "record.CoerceFields", coreerr.WithID(name))
		}

		out[name] = coerced
	}

	return out, nil
}

func coerceValue(def schema.FieldDef, raw any) (any, error) {
	switch def.Type {
	case schema.FieldString, schema.FieldEnum:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", raw)
		}

		if def.Type == schema.FieldEnum && !def.IsEnumValue(s) {
			return nil, coreerr.New(coreerr.CodeValidationEnum, "record.coerceValue", coreerr.WithID(s))
		}

		return s, nil

	case schema.FieldStringList:
		return coerceStringList(raw)

	case schema.FieldNumber:
		var n float64

		switch typed := raw.(type) {
		case float64:
			n = typed
		case int:
			n = float64(typed)
		case int64:
			n = float64(typed)
		default:
			return nil, fmt.Errorf("expected number, got %T", raw)
		}

		// The restricted frontmatter grammar this record codec writes to
		// (internal/frontmatter) has no float scalar kind - only string,
		// int, and bool - so number fields are whole numbers on disk.
		if math.Trunc(n) != n {
			return nil, fmt.Errorf("number field %v must be a whole number", n)
		}

		return n, nil

	case schema.FieldBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", raw)
		}

		return b, nil

	case schema.FieldDate:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected date string, got %T", raw)
		}

		_, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", s, err)
		}

		return s, nil

	case schema.FieldDatetime:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected datetime string, got %T", raw)
		}

		_, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("invalid datetime %q: %w", s, err)
		}

		return s, nil

	default:
		return nil, fmt.Errorf("unknown field type %q", def.Type)
	}
}

// coerceStringList accepts a []string, a []any of strings (as produced by
// generic JSON decoding), or a JSON-encoded string (as spec.md §4.4 step 3
// permits for wire callers that can't send a native array).
func coerceStringList(raw any) ([]string, error) {
	switch typed := raw.(type) {
	case []string:
		return typed, nil
	case []any:
		out := make([]string, 0, len(typed))

		for _, item := range typed {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("stringList item must be a string, got %T", item)
			}

			out = append(out, s)
		}

		return out, nil
	case string:
		var out []string

		err := json.Unmarshal([]byte(typed), &out)
		if err != nil {
			return nil, fmt.Errorf("invalid JSON-encoded stringList: %w", err)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("expected stringList, got %T", raw)
	}
}

// ValidateStatus resolves the effective status for a create/update call
// (spec.md §4.4 step 4): an explicitly supplied status must be one of s's
// declared statuses; an absent status falls back to s.DefaultStatus.
// Returns "" if the schema doesn't have the status feature enabled.
func ValidateStatus(s *schema.TypeSchema, supplied *string) (string, error) {
	if !s.Features.Status {
		return "", nil
	}

	if supplied == nil || *supplied == "" {
		return s.DefaultStatus, nil
	}

	if !s.HasStatus(*supplied) {
		return "", coreerr.New(coreerr.CodeValidationStatus, "record.ValidateStatus", coreerr.WithID(*supplied))
	}

	return *supplied, nil
}

// ValidatePriority resolves the effective priority for a create/update call
// (spec.md §4.4 step 5): a supplied priority must be within
// 1..=PriorityLevels; an absent priority yields nil (not zero). Returns nil
// if the schema doesn't have the priority feature enabled.
func ValidatePriority(s *schema.TypeSchema, supplied *int) (*int, error) {
	if !s.Features.Priority {
		return nil, nil
	}

	if supplied == nil {
		return nil, nil
	}

	if *supplied < 1 || *supplied > s.PriorityLevels {
		return nil, coreerr.New(coreerr.CodeValidationPriority, "record.ValidatePriority")
	}

	p := *supplied

	return &p, nil
}
