package record

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/frontmatter"
	"github.com/centy-dev/centy-core/internal/schema"
)

// wellKnownKeys is the fixed key-order prefix spec.md §4.1 requires on
// encode, ahead of schema-defined fields.
var wellKnownKeys = []string{"displayNumber", "status", "priority", "createdAt", "updatedAt", "deletedAt"}

// Encode renders r as a full on-disk record file: `---\n` delimited
// frontmatter (well-known keys, then schema fields in declaration order,
// then unknown keys last) followed by the body, per spec.md §4.1 and §6.
//
// For UUID-identified types the title is the body's leading ATX heading;
// for slug-identified types the title is stored as a frontmatter field.
func Encode(s *schema.TypeSchema, r *Record) ([]byte, error) {
	fm := make(frontmatter.Frontmatter)

	if r.DisplayNumber != nil {
		fm["displayNumber"] = frontmatter.IntValue(int64(*r.DisplayNumber))
	}

	if r.Status != "" {
		fm["status"] = frontmatter.StringValue(r.Status)
	}

	if r.Priority != nil {
		fm["priority"] = frontmatter.IntValue(int64(*r.Priority))
	}

	fm["createdAt"] = frontmatter.StringValue(r.CreatedAt.UTC().Format(time.RFC3339))
	fm["updatedAt"] = frontmatter.StringValue(r.UpdatedAt.UTC().Format(time.RFC3339))

	if !r.DeletedAt.IsZero() {
		fm["deletedAt"] = frontmatter.StringValue(r.DeletedAt.UTC().Format(time.RFC3339))
	}

	if s.Identifier == schema.IdentifierSlug {
		fm["title"] = frontmatter.StringValue(r.Title)
	}

	order := append([]string{}, wellKnownKeys...)
	if s.Identifier == schema.IdentifierSlug {
		order = append(order, "title")
	}

	for _, name := range s.FieldOrder {
		val, ok := r.Fields[name]
		if !ok {
			continue
		}

		fv, err := fieldValueToFrontmatter(s.Fields[name], val)
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", name, err)
		}

		fm[name] = fv
		order = append(order, name)
	}

	extraKeys := make([]string, 0, len(r.ExtraFields))
	for k := range r.ExtraFields {
		extraKeys = append(extraKeys, k)
	}

	sort.Strings(extraKeys)

	for _, k := range extraKeys {
		fv, err := anyToFrontmatter(r.ExtraFields[k])
		if err != nil {
			return nil, fmt.Errorf("encode extra field %q: %w", k, err)
		}

		fm[k] = fv
		order = append(order, k)
	}

	// WithKeyOrder requires every listed key be present; build from keys
	// actually set above so optional fields (no displayNumber, no status,
	// no priority, no deletedAt) don't break marshaling.
	present := make([]string, 0, len(order))

	for _, k := range order {
		if _, ok := fm[k]; ok {
			present = append(present, k)
		}
	}

	yamlText, err := fm.MarshalYAML(frontmatter.WithKeyOrder(present))
	if err != nil {
		return nil, fmt.Errorf("marshal frontmatter: %w", err)
	}

	var b strings.Builder

	b.WriteString(yamlText)

	if s.Identifier == schema.IdentifierUUID {
		b.WriteString("# ")
		b.WriteString(r.Title)
		b.WriteString("\n")

		if r.Body != "" {
			b.WriteString("\n")
			b.WriteString(r.Body)
		}
	} else {
		b.WriteString(r.Body)
	}

	return []byte(b.String()), nil
}

// Decode parses an on-disk record file's bytes into a [Record], tolerating
// frontmatter keys the current schema no longer declares by preserving them
// under ExtraFields (SPEC_FULL.md §5).
func Decode(s *schema.TypeSchema, id string, data []byte) (*Record, error) {
	fm, tail, err := frontmatter.ParseFrontmatter(data)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeFrontmatterMalformed, "record.Decode", coreerr.WithID(id))
	}

	r := &Record{ID: id, TypeName: s.Name}

	if dn, ok := fm.GetInt("displayNumber"); ok {
		u := uint64(dn)
		r.DisplayNumber = &u
	}

	if status, ok := fm.GetString("status"); ok {
		r.Status = status
	}

	if pr, ok := fm.GetInt("priority"); ok {
		p := int(pr)
		r.Priority = &p
	}

	r.CreatedAt, err = parseTimestamp(fm, "createdAt")
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeFrontmatterMalformed, "record.Decode", coreerr.WithID(id))
	}

	r.UpdatedAt, err = parseTimestamp(fm, "updatedAt")
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeFrontmatterMalformed, "record.Decode", coreerr.WithID(id))
	}

	if _, ok := fm["deletedAt"]; ok {
		r.DeletedAt, err = parseTimestamp(fm, "deletedAt")
		if err != nil {
			return nil, coreerr.Wrap(err, coreerr.CodeFrontmatterMalformed, "record.Decode", coreerr.WithID(id))
		}
	}

	body := string(tail)

	if s.Identifier == schema.IdentifierSlug {
		if title, ok := fm.GetString("title"); ok {
			r.Title = title
		}

		r.Body = body
	} else {
		r.Title, r.Body = splitHeading(body)
	}

	r.Fields = make(map[string]any)
	r.ExtraFields = make(map[string]any)

	known := map[string]bool{
		"displayNumber": true, "status": true, "priority": true,
		"createdAt": true, "updatedAt": true, "deletedAt": true, "title": true,
	}

	for key, val := range fm {
		if known[key] {
			continue
		}

		if def, ok := s.Fields[key]; ok {
			native, err := frontmatterToFieldValue(def, val)
			if err != nil {
				return nil, coreerr.Wrap(err, coreerr.CodeFrontmatterMalformed, "record.Decode",
					coreerr.WithID(id))
			}

			r.Fields[key] = native

			continue
		}

		r.ExtraFields[key] = frontmatterToAny(val)
	}

	return r, nil
}

func parseTimestamp(fm frontmatter.Frontmatter, key string) (time.Time, error) {
	s, ok := fm.GetString(key)
	if !ok {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", key, err)
	}

	return t.UTC(), nil
}

// splitHeading extracts the first ATX `# ` heading as the title for
// UUID-identified records, returning the remaining body with the heading
// and its trailing blank line removed.
func splitHeading(body string) (title, rest string) {
	lines := strings.SplitN(body, "\n", 2)

	first := lines[0]
	if !strings.HasPrefix(first, "# ") {
		return "", body
	}

	title = strings.TrimSpace(strings.TrimPrefix(first, "# "))

	if len(lines) == 1 {
		return title, ""
	}

	rest = strings.TrimPrefix(lines[1], "\n")

	return title, rest
}

func fieldValueToFrontmatter(def schema.FieldDef, v any) (frontmatter.Value, error) {
	switch def.Type {
	case schema.FieldStringList:
		list, ok := v.([]string)
		if !ok {
			return frontmatter.Value{}, fmt.Errorf("expected []string, got %T", v)
		}

		return frontmatter.ListValue(list), nil
	case schema.FieldNumber:
		n, ok := v.(float64)
		if !ok {
			return frontmatter.Value{}, fmt.Errorf("expected float64, got %T", v)
		}

		return frontmatter.IntValue(int64(n)), nil
	case schema.FieldBool:
		b, ok := v.(bool)
		if !ok {
			return frontmatter.Value{}, fmt.Errorf("expected bool, got %T", v)
		}

		return frontmatter.Value{Kind: frontmatter.ValueScalar, Scalar: frontmatter.Scalar{Kind: frontmatter.ScalarBool, Bool: b}}, nil
	default: // string, date, datetime, enum
		s, ok := v.(string)
		if !ok {
			return frontmatter.Value{}, fmt.Errorf("expected string, got %T", v)
		}

		return frontmatter.StringValue(s), nil
	}
}

func frontmatterToFieldValue(def schema.FieldDef, v frontmatter.Value) (any, error) {
	switch def.Type {
	case schema.FieldStringList:
		if v.Kind != frontmatter.ValueList {
			return nil, fmt.Errorf("expected list")
		}

		return v.List, nil
	case schema.FieldNumber:
		if v.Kind != frontmatter.ValueScalar || v.Scalar.Kind != frontmatter.ScalarInt {
			return nil, fmt.Errorf("expected int scalar")
		}

		return float64(v.Scalar.Int), nil
	case schema.FieldBool:
		if v.Kind != frontmatter.ValueScalar || v.Scalar.Kind != frontmatter.ScalarBool {
			return nil, fmt.Errorf("expected bool scalar")
		}

		return v.Scalar.Bool, nil
	default:
		if v.Kind != frontmatter.ValueScalar || v.Scalar.Kind != frontmatter.ScalarString {
			return nil, fmt.Errorf("expected string scalar")
		}

		return v.Scalar.String, nil
	}
}

// anyToFrontmatter converts an ExtraFields value (produced by
// frontmatterToAny, so only string/[]string/int64/bool) back to a
// frontmatter.Value for re-emission.
func anyToFrontmatter(v any) (frontmatter.Value, error) {
	switch typed := v.(type) {
	case string:
		return frontmatter.StringValue(typed), nil
	case []string:
		return frontmatter.ListValue(typed), nil
	case int64:
		return frontmatter.IntValue(typed), nil
	case bool:
		return frontmatter.Value{Kind: frontmatter.ValueScalar, Scalar: frontmatter.Scalar{Kind: frontmatter.ScalarBool, Bool: typed}}, nil
	default:
		return frontmatter.Value{}, fmt.Errorf("unsupported extra field type %T", v)
	}
}

func frontmatterToAny(v frontmatter.Value) any {
	switch v.Kind {
	case frontmatter.ValueList:
		return v.List
	case frontmatter.ValueScalar:
		switch v.Scalar.Kind {
		case frontmatter.ScalarInt:
			return v.Scalar.Int
		case frontmatter.ScalarBool:
			return v.Scalar.Bool
		default:
			return v.Scalar.String
		}
	default:
		return nil
	}
}
