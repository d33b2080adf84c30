package query

import (
	"strings"
	"time"

	"github.com/centy-dev/centy-core/internal/record"
	"github.com/centy-dev/centy-core/internal/schema"
)

// fieldValue is the normalized, comparable form of one addressed field
// value, carrying whether it was present at all (spec.md §4.7's `$exists`).
type fieldValue struct {
	exists bool
	str    string
	isStr  bool
	num    float64
	isNum  bool
	b      bool
	isBool bool
	t      time.Time
	isTime bool
	list   []string
	isList bool
}

// Eval evaluates the filter tree against r, per spec.md §4.7. Pure: no I/O,
// deterministic for a given (FilterExpr, Record) pair.
func (fe *FilterExpr) Eval(s *schema.TypeSchema, r *record.Record) bool {
	if fe == nil {
		return true
	}

	switch {
	case fe.and != nil:
		for _, sub := range fe.and {
			if !sub.Eval(s, r) {
				return false
			}
		}

		return true

	case fe.or != nil:
		for _, sub := range fe.or {
			if sub.Eval(s, r) {
				return true
			}
		}

		return len(fe.or) == 0

	case fe.not != nil:
		return !fe.not.Eval(s, r)

	default:
		for name, op := range fe.fields {
			if !op.eval(resolveField(s, r, name)) {
				return false
			}
		}

		return true
	}
}

func resolveField(s *schema.TypeSchema, r *record.Record, name string) fieldValue {
	switch name {
	case "id":
		return fieldValue{exists: true, str: r.ID, isStr: true}
	case "title":
		return fieldValue{exists: true, str: r.Title, isStr: true}
	case "body":
		return fieldValue{exists: true, str: r.Body, isStr: true}
	case "status":
		if r.Status == "" {
			return fieldValue{}
		}

		return fieldValue{exists: true, str: r.Status, isStr: true}
	case "priority":
		if r.Priority == nil {
			return fieldValue{}
		}

		return fieldValue{exists: true, num: float64(*r.Priority), isNum: true}
	case "displayNumber":
		if r.DisplayNumber == nil {
			return fieldValue{}
		}

		return fieldValue{exists: true, num: float64(*r.DisplayNumber), isNum: true}
	case "createdAt":
		return fieldValue{exists: true, t: r.CreatedAt, isTime: true}
	case "updatedAt":
		return fieldValue{exists: true, t: r.UpdatedAt, isTime: true}
	case "deletedAt":
		if !r.IsDeleted() {
			return fieldValue{}
		}

		return fieldValue{exists: true, t: r.DeletedAt, isTime: true}
	default:
		return resolveSchemaField(s, r, name)
	}
}

func resolveSchemaField(s *schema.TypeSchema, r *record.Record, name string) fieldValue {
	def, known := s.Fields[name]
	if !known {
		if v, ok := r.ExtraFields[name]; ok {
			return valueToFieldValue(v)
		}

		return fieldValue{}
	}

	v, ok := r.Fields[name]
	if !ok {
		return fieldValue{}
	}

	switch def.Type {
	case schema.FieldStringList:
		list, _ := v.([]string)

		return fieldValue{exists: true, list: list, isList: true}
	case schema.FieldNumber:
		n, _ := v.(float64)

		return fieldValue{exists: true, num: n, isNum: true}
	case schema.FieldBool:
		b, _ := v.(bool)

		return fieldValue{exists: true, b: b, isBool: true}
	case schema.FieldDate:
		str, _ := v.(string)

		t, err := time.Parse("2006-01-02", str)
		if err != nil {
			return fieldValue{exists: true, str: str, isStr: true}
		}

		return fieldValue{exists: true, t: t, isTime: true, str: str, isStr: true}
	case schema.FieldDatetime:
		str, _ := v.(string)

		t, err := time.Parse(time.RFC3339, str)
		if err != nil {
			return fieldValue{exists: true, str: str, isStr: true}
		}

		return fieldValue{exists: true, t: t, isTime: true, str: str, isStr: true}
	default: // string, enum
		str, _ := v.(string)

		return fieldValue{exists: true, str: str, isStr: true}
	}
}

func valueToFieldValue(v any) fieldValue {
	switch typed := v.(type) {
	case string:
		return fieldValue{exists: true, str: typed, isStr: true}
	case []string:
		return fieldValue{exists: true, list: typed, isList: true}
	case bool:
		return fieldValue{exists: true, b: typed, isBool: true}
	case int64:
		return fieldValue{exists: true, num: float64(typed), isNum: true}
	case float64:
		return fieldValue{exists: true, num: typed, isNum: true}
	default:
		return fieldValue{}
	}
}

func (op *fieldOperator) eval(fv fieldValue) bool {
	if op.hasExists && fv.exists != op.exists {
		return false
	}

	if op.hasEq && !matchesEq(fv, op.eq) {
		return false
	}

	if op.hasNe && matchesEq(fv, op.ne) {
		return false
	}

	if op.hasLt && compare(fv, op.lt) >= 0 {
		return false
	}

	if op.hasLte && compare(fv, op.lte) > 0 {
		return false
	}

	if op.hasGt && compare(fv, op.gt) <= 0 {
		return false
	}

	if op.hasGte && compare(fv, op.gte) < 0 {
		return false
	}

	if op.hasIn {
		matched := false

		for _, want := range op.in {
			if matchesEq(fv, want) {
				matched = true

				break
			}
		}

		if !matched {
			return false
		}
	}

	if op.hasNin {
		for _, want := range op.nin {
			if matchesEq(fv, want) {
				return false
			}
		}
	}

	if op.regex != nil {
		if !fv.exists || !fv.isStr || !op.regex.MatchString(fv.str) {
			return false
		}
	}

	if op.hasContains {
		if !containsMatch(fv, op.contains) {
			return false
		}
	}

	return true
}

// matchesEq reports whether fv equals operand, where operand is a raw JSON
// decode value (string, float64, bool, or nil).
func matchesEq(fv fieldValue, operand any) bool {
	if operand == nil {
		return !fv.exists
	}

	switch want := operand.(type) {
	case string:
		if fv.isTime {
			t, err := time.Parse(time.RFC3339, want)
			if err == nil {
				return fv.t.Equal(t)
			}

			t, err = time.Parse("2006-01-02", want)
			if err == nil {
				return fv.t.Equal(t)
			}
		}

		return fv.isStr && fv.str == want
	case float64:
		return fv.isNum && fv.num == want
	case bool:
		return fv.isBool && fv.b == want
	default:
		return false
	}
}

// compare returns -1/0/1 comparing fv to operand; an operand type mismatch
// (or absent field) sorts the field as "less than" so range operators fail
// closed rather than panicking.
func compare(fv fieldValue, operand any) int {
	if !fv.exists {
		return -1
	}

	switch want := operand.(type) {
	case string:
		if fv.isTime {
			if t, err := time.Parse(time.RFC3339, want); err == nil {
				return compareTime(fv.t, t)
			}

			if t, err := time.Parse("2006-01-02", want); err == nil {
				return compareTime(fv.t, t)
			}
		}

		if !fv.isStr {
			return -1
		}

		switch {
		case fv.str < want:
			return -1
		case fv.str > want:
			return 1
		default:
			return 0
		}
	case float64:
		if !fv.isNum {
			return -1
		}

		switch {
		case fv.num < want:
			return -1
		case fv.num > want:
			return 1
		default:
			return 0
		}
	default:
		return -1
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func containsMatch(fv fieldValue, needle string) bool {
	if fv.isList {
		for _, item := range fv.list {
			if item == needle {
				return true
			}
		}

		return false
	}

	if fv.isStr {
		return strings.Contains(fv.str, needle)
	}

	return false
}
