package store

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/manifest"
	"github.com/centy-dev/centy-core/internal/schema"
)

// InitOptions carries init's inputs (spec.md §4.9).
type InitOptions struct {
	// Title is accepted for parity with spec.md's init signature but does
	// not affect the README: its content must stay engine-version-
	// deterministic so reconciliation's canonical template always matches
	// what init wrote (see Engine.renderREADME).
	Title       string
	TypeSchemas []*schema.TypeSchema
	// Force makes init idempotent: only missing files are created, existing
	// ones are left alone, instead of failing when the store dir exists.
	Force bool
}

// Init creates the store directory, its manifest, a deterministic README,
// and one config.yaml per type (the supplied TypeSchemas, or the built-in
// defaults), per spec.md §4.9.
func (e *Engine) Init(projectRoot string, opts InitOptions) error {
	storeDir := e.storeDir(projectRoot)

	exists, err := e.fsys.Exists(storeDir)
	if err != nil {
		return coreerr.Wrap(err, coreerr.CodeIOReadFailed, "store.Init", coreerr.WithPath(storeDir))
	}

	if exists && !opts.Force {
		return coreerr.New(coreerr.CodeIDConflict, "store.Init", coreerr.WithPath(storeDir))
	}

	if err := e.fsys.MkdirAll(storeDir, 0o755); err != nil {
		return coreerr.Wrap(err, coreerr.CodeIOWriteFailed, "store.Init", coreerr.WithPath(storeDir))
	}

	schemas := opts.TypeSchemas
	if len(schemas) == 0 {
		schemas = schema.Defaults()
	}

	m, err := e.loadOrNewManifest(projectRoot)
	if err != nil {
		return err
	}

	readme := e.renderREADME()
	readmePath := filepath.Join(storeDir, "README.md")

	if err := e.writeIfMissing(readmePath, readme, m, "README.md", manifest.FileTypeReadme); err != nil {
		return err
	}

	for _, s := range schemas {
		typeDir := filepath.Join(storeDir, s.Plural)

		if err := e.fsys.MkdirAll(typeDir, 0o755); err != nil {
			return coreerr.Wrap(err, coreerr.CodeIOWriteFailed, "store.Init", coreerr.WithPath(typeDir))
		}

		configPath := filepath.Join(typeDir, schema.ConfigFileName)
		relPath := filepath.ToSlash(filepath.Join(s.Plural, schema.ConfigFileName))

		if err := e.writeIfMissing(configPath, schema.EncodeConfig(s), m, relPath, manifest.FileTypeConfig); err != nil {
			return err
		}
	}

	m.UpdatedAt = e.now().UTC()

	return manifest.Save(e.aw, storeDir, m)
}

func (e *Engine) writeIfMissing(path string, content []byte, m *manifest.Manifest, relPath string, fileType manifest.FileType) error {
	exists, err := e.fsys.Exists(path)
	if err != nil {
		return coreerr.Wrap(err, coreerr.CodeIOReadFailed, "store.Init", coreerr.WithPath(path))
	}

	if exists {
		return nil
	}

	if err := e.aw.WriteWithDefaults(path, bytes.NewReader(content)); err != nil {
		return coreerr.Wrap(err, coreerr.CodeIOWriteFailed, "store.Init", coreerr.WithPath(path))
	}

	m.Put(relPath, manifest.Hash(content), fileType)

	return nil
}

// renderREADME produces the store directory's deterministic README content,
// per spec.md §4.9: content depends only on the engine version, never on
// caller-supplied input, so reconciliation always has a stable canonical
// template to compare against.
func (e *Engine) renderREADME() []byte {
	return []byte(fmt.Sprintf(
		"# Centy project\n\nManaged by the Centy storage engine (version %s). Do not hand-edit "+
			"%s/%s; it is regenerated by reconciliation.\n",
		e.engineVersion, "."+e.storeDirName, manifest.FileName,
	))
}
