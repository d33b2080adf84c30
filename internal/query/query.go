// Package query implements the structured boolean filter document spec.md
// §4.7 describes: a JSON-decoded expression tree of field predicates and
// logical combinators, evaluated as a pure function over a decoded record
// (no I/O, no partial evaluation side effects).
package query

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/centy-dev/centy-core/internal/coreerr"
)

// FilterExpr is a parsed boolean filter tree. Exactly one of its modes is
// populated after [Parse]: logical (and/or/not) or field (implicit AND over
// field predicates).
type FilterExpr struct {
	and    []*FilterExpr
	or     []*FilterExpr
	not    *FilterExpr
	fields map[string]*fieldOperator
}

// fieldOperator is the parsed form of one field's Operator document.
type fieldOperator struct {
	hasEq  bool
	eq     any
	hasNe  bool
	ne     any
	hasLt  bool
	lt     any
	hasLte bool
	lte    any
	hasGt  bool
	gt     any
	hasGte bool
	gte    any
	in     []any
	hasIn  bool
	nin    []any
	hasNin bool

	hasExists bool
	exists    bool

	regex *regexp.Regexp

	hasContains bool
	contains    string
}

var operatorKeys = map[string]bool{
	"$eq": true, "$ne": true, "$lt": true, "$lte": true, "$gt": true, "$gte": true,
	"$in": true, "$nin": true, "$exists": true, "$regex": true, "$contains": true,
}

// Parse decodes a JSON filter document into a [FilterExpr], validating its
// shape and precompiling any `$regex` patterns so [FilterExpr.Eval] never
// needs to fail. Returns a [*coreerr.Error] with [coreerr.CodeFilterInvalid]
// on any malformed input.
func Parse(data []byte) (*FilterExpr, error) {
	var raw map[string]json.RawMessage

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeFilterInvalid, "query.Parse")
	}

	fe, err := parseExpr(raw)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeFilterInvalid, "query.Parse")
	}

	return fe, nil
}

func parseExpr(raw map[string]json.RawMessage) (*FilterExpr, error) {
	if len(raw) == 0 {
		return &FilterExpr{fields: map[string]*fieldOperator{}}, nil
	}

	if msg, ok := raw["$and"]; ok {
		if len(raw) != 1 {
			return nil, fmt.Errorf("$and must be the only key in its object")
		}

		return parseLogicalList(msg, func(list []*FilterExpr) *FilterExpr { return &FilterExpr{and: list} })
	}

	if msg, ok := raw["$or"]; ok {
		if len(raw) != 1 {
			return nil, fmt.Errorf("$or must be the only key in its object")
		}

		return parseLogicalList(msg, func(list []*FilterExpr) *FilterExpr { return &FilterExpr{or: list} })
	}

	if msg, ok := raw["$not"]; ok {
		if len(raw) != 1 {
			return nil, fmt.Errorf("$not must be the only key in its object")
		}

		var inner map[string]json.RawMessage

		if err := json.Unmarshal(msg, &inner); err != nil {
			return nil, fmt.Errorf("$not: %w", err)
		}

		sub, err := parseExpr(inner)
		if err != nil {
			return nil, err
		}

		return &FilterExpr{not: sub}, nil
	}

	fields := make(map[string]*fieldOperator, len(raw))

	for name, msg := range raw {
		op, err := parseFieldValue(msg)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}

		fields[name] = op
	}

	return &FilterExpr{fields: fields}, nil
}

func parseLogicalList(msg json.RawMessage, build func([]*FilterExpr) *FilterExpr) (*FilterExpr, error) {
	var rawList []map[string]json.RawMessage

	if err := json.Unmarshal(msg, &rawList); err != nil {
		return nil, err
	}

	list := make([]*FilterExpr, 0, len(rawList))

	for _, rawItem := range rawList {
		sub, err := parseExpr(rawItem)
		if err != nil {
			return nil, err
		}

		list = append(list, sub)
	}

	return build(list), nil
}

// parseFieldValue parses one field's predicate value: either a bare scalar
// (shorthand for $eq) or an operator object.
func parseFieldValue(msg json.RawMessage) (*fieldOperator, error) {
	var probe any

	if err := json.Unmarshal(msg, &probe); err != nil {
		return nil, err
	}

	obj, isObj := probe.(map[string]any)
	if !isObj {
		return &fieldOperator{hasEq: true, eq: probe}, nil
	}

	if !looksLikeOperatorObject(obj) {
		return nil, fmt.Errorf("object value must hold only recognized $-operators")
	}

	op := &fieldOperator{}

	for key, val := range obj {
		switch key {
		case "$eq":
			op.hasEq, op.eq = true, val
		case "$ne":
			op.hasNe, op.ne = true, val
		case "$lt":
			op.hasLt, op.lt = true, val
		case "$lte":
			op.hasLte, op.lte = true, val
		case "$gt":
			op.hasGt, op.gt = true, val
		case "$gte":
			op.hasGte, op.gte = true, val
		case "$in":
			list, ok := val.([]any)
			if !ok {
				return nil, fmt.Errorf("$in must be an array")
			}

			op.hasIn, op.in = true, list
		case "$nin":
			list, ok := val.([]any)
			if !ok {
				return nil, fmt.Errorf("$nin must be an array")
			}

			op.hasNin, op.nin = true, list
		case "$exists":
			b, ok := val.(bool)
			if !ok {
				return nil, fmt.Errorf("$exists must be a bool")
			}

			op.hasExists, op.exists = true, b
		case "$regex":
			pattern, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("$regex must be a string")
			}

			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("$regex: %w", err)
			}

			op.regex = re
		case "$contains":
			s, ok := val.(string)
			if !ok {
				return nil, fmt.Errorf("$contains must be a string")
			}

			op.hasContains, op.contains = true, s
		default:
			return nil, fmt.Errorf("unknown operator %q", key)
		}
	}

	return op, nil
}

// looksLikeOperatorObject reports whether obj's keys are all recognized
// `$`-prefixed operators, distinguishing an operator document from a
// literal object value (which this restricted filter grammar doesn't
// otherwise support as a field value, so any non-operator object is
// rejected upstream rather than silently misparsed).
func looksLikeOperatorObject(obj map[string]any) bool {
	if len(obj) == 0 {
		return false
	}

	for key := range obj {
		if !strings.HasPrefix(key, "$") || !operatorKeys[key] {
			return false
		}
	}

	return true
}
