package adapter

import "github.com/centy-dev/centy-core/internal/schema"

// FieldInfo is the wire-friendly projection of a [schema.FieldDef].
type FieldInfo struct {
	Type       string
	Required   bool
	Default    any
	EnumValues []string
}

// TypeInfo is the wire-friendly projection of a [schema.TypeSchema], used to
// let an RPC client discover what types and fields a project defines
// without parsing config.yaml itself.
type TypeInfo struct {
	Name           string
	Plural         string
	Identifier     string
	Features       schema.Features
	Statuses       []string
	DefaultStatus  string
	PriorityLevels int
	FieldOrder     []string
	Fields         map[string]FieldInfo
}

// ListTypes translates the project's discovered [schema.Registry] into
// wire-friendly [TypeInfo] values, ordered the way the registry discovered
// them (directory listing order).
func (a *Adapter) ListTypes(projectRoot string) ([]TypeInfo, error) {
	reg, err := a.engine.Registry(projectRoot)
	if err != nil {
		return nil, err
	}

	all := reg.All()
	out := make([]TypeInfo, len(all))

	for i, s := range all {
		fields := make(map[string]FieldInfo, len(s.Fields))

		for name, fd := range s.Fields {
			fields[name] = FieldInfo{
				Type:       string(fd.Type),
				Required:   fd.Required,
				Default:    fd.Default,
				EnumValues: fd.EnumValues,
			}
		}

		out[i] = TypeInfo{
			Name:           s.Name,
			Plural:         s.Plural,
			Identifier:     string(s.Identifier),
			Features:       s.Features,
			Statuses:       s.Statuses,
			DefaultStatus:  s.DefaultStatus,
			PriorityLevels: s.PriorityLevels,
			FieldOrder:     s.FieldOrder,
			Fields:         fields,
		}
	}

	return out, nil
}
