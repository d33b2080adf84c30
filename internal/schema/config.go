package schema

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/centy-dev/centy-core/internal/coreerr"
)

// configFeatures mirrors the `features:` block of a type config.yaml.
type configFeatures struct {
	DisplayNumber bool `yaml:"displayNumber"`
	Status        bool `yaml:"status"`
	Priority      bool `yaml:"priority"`
	SoftDelete    bool `yaml:"softDelete"`
	Assets        bool `yaml:"assets"`
	Move          bool `yaml:"move"`
	Duplicate     bool `yaml:"duplicate"`
	OrgSync       bool `yaml:"orgSync"`
}

// configFile mirrors the on-disk YAML shape of spec.md §6's type config file.
// Fields and Defaults are kept as raw [yaml.Node] so field declaration order
// can be recovered (a plain Go map loses it).
type configFile struct {
	Name           string         `yaml:"name"`
	Plural         string         `yaml:"plural"`
	Identifier     string         `yaml:"identifier"`
	Features       configFeatures `yaml:"features"`
	Statuses       []string       `yaml:"statuses"`
	DefaultStatus  string         `yaml:"defaultStatus"`
	PriorityLevels int            `yaml:"priorityLevels"`
	Fields         yaml.Node      `yaml:"fields"`
	Defaults       yaml.Node      `yaml:"defaults"`
}

type configFieldDef struct {
	Type       string    `yaml:"type"`
	Default    yaml.Node `yaml:"default"`
	EnumValues []string  `yaml:"enumValues"`
}

// ParseConfig decodes a type config.yaml document (see spec.md §6) into a
// [TypeSchema], validating it against the invariants in spec.md §3/§4.3.
// dirName is the directory the config file was discovered under; a mismatch
// with the declared `plural` is rejected.
func ParseConfig(data []byte, dirName string) (*TypeSchema, error) {
	var cf configFile

	err := yaml.Unmarshal(data, &cf)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeSchemaInvalid, "schema.ParseConfig")
	}

	if cf.Name == "" {
		return nil, coreerr.New(coreerr.CodeSchemaInvalid, "schema.ParseConfig", coreerr.WithPath(dirName))
	}

	if cf.Plural == "" {
		return nil, coreerr.New(coreerr.CodeSchemaInvalid, "schema.ParseConfig", coreerr.WithPath(dirName))
	}

	if dirName != "" && cf.Plural != dirName {
		return nil, coreerr.New(coreerr.CodeSchemaInvalid, "schema.ParseConfig",
			coreerr.WithPath(dirName))
	}

	var identifier Identifier

	switch cf.Identifier {
	case string(IdentifierUUID):
		identifier = IdentifierUUID
	case string(IdentifierSlug):
		identifier = IdentifierSlug
	default:
		return nil, coreerr.New(coreerr.CodeSchemaInvalid, "schema.ParseConfig", coreerr.WithPath(dirName))
	}

	if cf.DefaultStatus != "" && !contains(cf.Statuses, cf.DefaultStatus) {
		return nil, coreerr.New(coreerr.CodeSchemaInvalid, "schema.ParseConfig", coreerr.WithPath(dirName))
	}

	order, fields, err := parseFields(&cf.Fields)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeSchemaInvalid, "schema.ParseConfig", coreerr.WithPath(dirName))
	}

	for name, def := range fields {
		if vErr := validateFieldDef(name, def); vErr != nil {
			return nil, coreerr.Wrap(vErr, coreerr.CodeSchemaInvalid, "schema.ParseConfig", coreerr.WithPath(dirName))
		}
	}

	defaults, err := parseDefaults(&cf.Defaults)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeSchemaInvalid, "schema.ParseConfig", coreerr.WithPath(dirName))
	}

	schema := &TypeSchema{
		Name:           cf.Name,
		Plural:         cf.Plural,
		Identifier:     identifier,
		Statuses:       cf.Statuses,
		DefaultStatus:  cf.DefaultStatus,
		PriorityLevels: cf.PriorityLevels,
		FieldOrder:     order,
		Fields:         fields,
		Defaults:       defaults,
		Features: Features{
			DisplayNumber: cf.Features.DisplayNumber,
			Status:        cf.Features.Status,
			Priority:      cf.Features.Priority,
			SoftDelete:    cf.Features.SoftDelete,
			Assets:        cf.Features.Assets,
			Move:          cf.Features.Move,
			Duplicate:     cf.Features.Duplicate,
			OrgSync:       cf.Features.OrgSync,
		},
	}

	schema.fingerprint = fnv1a(data)

	return schema, nil
}

// parseFields walks the `fields:` mapping node in document order so
// TypeSchema.FieldOrder matches the config file's declaration order.
func parseFields(node *yaml.Node) ([]string, map[string]FieldDef, error) {
	order := make([]string, 0)
	fields := make(map[string]FieldDef)

	if node.Kind == 0 {
		return order, fields, nil
	}

	if node.Kind != yaml.MappingNode {
		return nil, nil, fmt.Errorf("fields: expected mapping")
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]

		var fd configFieldDef

		err := valNode.Decode(&fd)
		if err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", keyNode.Value, err)
		}

		def := FieldDef{
			Type:       FieldType(fd.Type),
			EnumValues: fd.EnumValues,
		}

		if fd.Default.Kind != 0 {
			def.Default, err = coerceConfigValue(def.Type, &fd.Default)
			if err != nil {
				return nil, nil, fmt.Errorf("field %q: default: %w", keyNode.Value, err)
			}
		}

		// `required: true` isn't part of the documented per-type grammar in
		// spec.md §6's example but FieldDef carries it (§3); read it if the
		// config author supplied it.
		var extra struct {
			Required bool `yaml:"required"`
		}

		_ = valNode.Decode(&extra)
		def.Required = extra.Required

		fields[keyNode.Value] = def
		order = append(order, keyNode.Value)
	}

	return order, fields, nil
}

func parseDefaults(node *yaml.Node) (map[string]any, error) {
	out := make(map[string]any)

	if node.Kind == 0 {
		return out, nil
	}

	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("defaults: expected mapping")
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]

		val, err := coerceConfigValue(FieldString, valNode)
		if err != nil {
			return nil, fmt.Errorf("default %q: %w", keyNode.Value, err)
		}

		out[keyNode.Value] = val
	}

	return out, nil
}

// coerceConfigValue decodes a YAML scalar/sequence node into the Go-native
// shape matching ft, falling back to the node's natural type when ft isn't
// informative (e.g. top-level `defaults` entries).
func coerceConfigValue(ft FieldType, node *yaml.Node) (any, error) {
	switch ft {
	case FieldStringList:
		var list []string

		err := node.Decode(&list)
		if err != nil {
			return nil, err
		}

		return list, nil
	case FieldNumber:
		var f float64

		err := node.Decode(&f)
		if err != nil {
			return nil, err
		}

		return f, nil
	case FieldBool:
		var b bool

		err := node.Decode(&b)
		if err != nil {
			return nil, err
		}

		return b, nil
	default:
		// string, date, datetime, enum, and untyped top-level defaults all
		// decode as their literal scalar/list representation.
		if node.Kind == yaml.SequenceNode {
			var list []string

			err := node.Decode(&list)
			if err != nil {
				return nil, err
			}

			return list, nil
		}

		var s string

		err := node.Decode(&s)
		if err == nil {
			return s, nil
		}

		// Numeric/bool scalar under an untyped top-level default.
		if b, berr := strconv.ParseBool(node.Value); berr == nil {
			return b, nil
		}

		if f, ferr := strconv.ParseFloat(node.Value, 64); ferr == nil {
			return f, nil
		}

		return nil, err
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}

	return false
}

func fnv1a(data []byte) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)

	hash := uint64(offset64)
	for _, b := range data {
		hash ^= uint64(b)
		hash *= prime64
	}

	return hash
}
