package schema

// Defaults returns the built-in `issue` and `doc` schemas used when a
// project is initialized without any per-type config files (spec.md §4.3).
func Defaults() []*TypeSchema {
	issue := &TypeSchema{
		Name:       "issue",
		Plural:     "issues",
		Identifier: IdentifierUUID,
		Features: Features{
			DisplayNumber: true,
			Status:        true,
			Priority:      true,
			SoftDelete:    true,
			Assets:        true,
		},
		Statuses:       []string{"open", "in-progress", "closed"},
		DefaultStatus:  "open",
		PriorityLevels: 3,
		Fields:         map[string]FieldDef{},
		Defaults:       map[string]any{},
	}
	issue.fingerprint = fnv1a(EncodeConfig(issue))

	doc := &TypeSchema{
		Name:       "doc",
		Plural:     "docs",
		Identifier: IdentifierSlug,
		Features: Features{
			SoftDelete: true,
		},
		Fields:   map[string]FieldDef{},
		Defaults: map[string]any{},
	}
	doc.fingerprint = fnv1a(EncodeConfig(doc))

	return []*TypeSchema{issue, doc}
}

// DefaultRegistry returns a [Registry] serving only the built-in schemas.
func DefaultRegistry() *Registry {
	r, err := newRegistry(Defaults())
	if err != nil {
		// Defaults() is a fixed, test-covered literal; a collision here
		// would be a programming error, not a runtime condition.
		panic(err)
	}

	return r
}
