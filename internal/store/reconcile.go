package store

import (
	"path/filepath"

	"github.com/centy-dev/centy-core/internal/allocator"
	"github.com/centy-dev/centy-core/internal/manifest"
	"github.com/centy-dev/centy-core/internal/schema"
)

// GetPlan classifies every file the project's manifest references, or that
// is found under its store tree, into the disjoint sets spec.md §4.8
// describes. Requires the store directory to already exist.
func (e *Engine) GetPlan(projectRoot string) (*manifest.Plan, error) {
	lock, err := e.rLockProject(projectRoot)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	storeDir := e.storeDir(projectRoot)

	m, err := manifest.Load(e.fsys, storeDir)
	if err != nil {
		return nil, err
	}

	reg, regErr := schema.Discover(e.fsys, storeDir)

	templates, knownPlurals := e.templatesFor(reg, regErr)

	return manifest.GetPlan(e.fsys, storeDir, m, templates, knownPlurals)
}

// ExecutePlan applies decisions to plan (per spec.md §4.8) and persists the
// updated manifest.
func (e *Engine) ExecutePlan(projectRoot string, plan *manifest.Plan, decisions map[string]manifest.Decision) (*manifest.Outcome, error) {
	lock, err := e.lockProject(projectRoot)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	storeDir := e.storeDir(projectRoot)

	m, err := manifest.Load(e.fsys, storeDir)
	if err != nil {
		return nil, err
	}

	reg, regErr := schema.Discover(e.fsys, storeDir)

	templates, _ := e.templatesFor(reg, regErr)

	outcome, err := manifest.Execute(e.fsys, e.aw, storeDir, m, plan, templates, decisions)
	if err != nil {
		return nil, err
	}

	m.UpdatedAt = e.now().UTC()

	if err := manifest.Save(e.aw, storeDir, m); err != nil {
		return nil, err
	}

	return outcome, nil
}

// templatesFor builds the canonical-content map GetPlan/Execute use for
// restorable paths (README and, for each discoverable type, its
// config.yaml). Schema discovery errors are tolerated here: a project with
// a malformed type config still needs a plan so the divergence can surface
// as a needsDecision entry rather than failing getPlan outright.
func (e *Engine) templatesFor(reg *schema.Registry, regErr error) (map[string]manifest.Template, map[string]bool) {
	templates := map[string]manifest.Template{
		"README.md": {Content: e.renderREADME(), FileType: manifest.FileTypeReadme},
	}

	knownPlurals := map[string]bool{}

	if regErr != nil || reg == nil {
		return templates, knownPlurals
	}

	for _, s := range reg.All() {
		knownPlurals[s.Plural] = true

		relPath := filepath.ToSlash(filepath.Join(s.Plural, schema.ConfigFileName))
		templates[relPath] = manifest.Template{Content: schema.EncodeConfig(s), FileType: manifest.FileTypeConfig}
	}

	for _, s := range schema.Defaults() {
		knownPlurals[s.Plural] = true
	}

	return templates, knownPlurals
}

// ReconcileDisplayNumbers applies [allocator.Reconcile]'s assignments to
// typeName's records under the per-project write lock, per spec.md §4.5.
func (e *Engine) ReconcileDisplayNumbers(projectRoot, typeName string) ([]allocator.Assignment, error) {
	s, err := e.resolveSchema(projectRoot, typeName)
	if err != nil {
		return nil, err
	}

	lock, err := e.lockProject(projectRoot)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	typeDir := e.typeDir(projectRoot, s)

	assignments, err := allocator.Reconcile(e.fsys, s, typeDir)
	if err != nil {
		return nil, err
	}

	for _, a := range assignments {
		r, err := e.loadRecord(typeDir, s, a.ID)
		if err != nil {
			continue
		}

		dn := a.DisplayNumber
		r.DisplayNumber = &dn

		if err := e.writeRecord(projectRoot, s, r); err != nil {
			return assignments, err
		}
	}

	return assignments, nil
}
