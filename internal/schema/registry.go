package schema

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/fs"
)

// ConfigFileName is the per-type config file discovered under each
// <storeDir>/<plural>/ directory.
const ConfigFileName = "config.yaml"

// Registry serves [TypeSchema] lookups by singular or plural name.
// Immutable once constructed; safe for concurrent reads.
type Registry struct {
	byName   map[string]*TypeSchema
	byPlural map[string]*TypeSchema
	ordered  []*TypeSchema
}

// ByName looks up a schema by its singular name, case-insensitively.
func (r *Registry) ByName(name string) (*TypeSchema, error) {
	s, ok := r.byName[normalizeKey(name)]
	if !ok {
		return nil, coreerr.New(coreerr.CodeSchemaNotFound, "schema.Registry.ByName", coreerr.WithID(name))
	}

	return s, nil
}

// ByPlural looks up a schema by its storage directory name, case-insensitively.
func (r *Registry) ByPlural(plural string) (*TypeSchema, error) {
	s, ok := r.byPlural[normalizeKey(plural)]
	if !ok {
		return nil, coreerr.New(coreerr.CodeSchemaNotFound, "schema.Registry.ByPlural", coreerr.WithID(plural))
	}

	return s, nil
}

// Resolve looks up a schema by either its singular or plural name.
func (r *Registry) Resolve(name string) (*TypeSchema, error) {
	if s, ok := r.byName[normalizeKey(name)]; ok {
		return s, nil
	}

	if s, ok := r.byPlural[normalizeKey(name)]; ok {
		return s, nil
	}

	return nil, coreerr.New(coreerr.CodeSchemaNotFound, "schema.Registry.Resolve", coreerr.WithID(name))
}

// All returns every registered schema, ordered by plural name.
func (r *Registry) All() []*TypeSchema {
	return r.ordered
}

// Fingerprint returns the FNV-1a fingerprint of the named schema's config
// bytes at discovery time, and whether the schema was found.
func (r *Registry) Fingerprint(name string) (uint64, bool) {
	s, err := r.Resolve(name)
	if err != nil {
		return 0, false
	}

	return s.Fingerprint(), true
}

func newRegistry(schemas []*TypeSchema) (*Registry, error) {
	r := &Registry{
		byName:   make(map[string]*TypeSchema, len(schemas)),
		byPlural: make(map[string]*TypeSchema, len(schemas)),
	}

	for _, s := range schemas {
		nameKey := normalizeKey(s.Name)
		pluralKey := normalizeKey(s.Plural)

		if _, exists := r.byName[nameKey]; exists {
			return nil, coreerr.New(coreerr.CodeSchemaInvalid, "schema.Discover",
				coreerr.WithID(s.Name))
		}

		if _, exists := r.byPlural[pluralKey]; exists {
			return nil, coreerr.New(coreerr.CodeSchemaInvalid, "schema.Discover",
				coreerr.WithID(s.Plural))
		}

		// Singular and plural namespaces share one lookup table in Resolve,
		// so a plural colliding with another type's singular (or vice
		// versa) would make Resolve ambiguous.
		if _, exists := r.byPlural[nameKey]; exists {
			return nil, coreerr.New(coreerr.CodeSchemaInvalid, "schema.Discover", coreerr.WithID(s.Name))
		}

		if _, exists := r.byName[pluralKey]; exists {
			return nil, coreerr.New(coreerr.CodeSchemaInvalid, "schema.Discover", coreerr.WithID(s.Plural))
		}

		r.byName[nameKey] = s
		r.byPlural[pluralKey] = s
		r.ordered = append(r.ordered, s)
	}

	sort.Slice(r.ordered, func(i, j int) bool { return r.ordered[i].Plural < r.ordered[j].Plural })

	return r, nil
}

// Discover enumerates first-level subdirectories of storeDir, parsing any
// <plural>/config.yaml it finds into a [TypeSchema], per spec.md §4.3.
// Directories without a config.yaml are ignored (they may hold record files
// for a type discovered elsewhere, assets, or be unrelated).
func Discover(fsys fs.FS, storeDir string) (*Registry, error) {
	entries, err := fsys.ReadDir(storeDir)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "schema.Discover", coreerr.WithPath(storeDir))
	}

	var schemas []*TypeSchema

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		configPath := filepath.Join(storeDir, entry.Name(), ConfigFileName)

		exists, err := fsys.Exists(configPath)
		if err != nil {
			return nil, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "schema.Discover", coreerr.WithPath(configPath))
		}

		if !exists {
			continue
		}

		data, err := fsys.ReadFile(configPath)
		if err != nil {
			return nil, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "schema.Discover", coreerr.WithPath(configPath))
		}

		s, err := ParseConfig(data, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", configPath, err)
		}

		schemas = append(schemas, s)
	}

	return newRegistry(schemas)
}
