package store

import (
	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/manifest"
	"github.com/centy-dev/centy-core/internal/record"
	"github.com/centy-dev/centy-core/internal/schema"
)

// Update loads the existing record, overlays only the fields Patch sets,
// re-validates the result, bumps updatedAt, and re-emits it, per spec.md
// §4.6. A slug-typed Patch.NewID renames the record; colliding with an
// existing id is rejected.
func (e *Engine) Update(projectRoot, typeName, id string, patch Patch) (*record.Record, error) {
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

	existing, err := e.loadRecord(typeDir, s, id)
	if err != nil {
		return nil, err
	}

	updated, err := applyPatch(s, existing, patch)
	if err != nil {
		return nil, err
	}

	newID := id

	if patch.NewID != "" && patch.NewID != id {
		if s.Identifier != schema.IdentifierSlug {
			return nil, coreerr.New(coreerr.CodeValidationFieldType, "store.Update", coreerr.WithID(id))
		}

		exists, err := recordExists(e.fsys, typeDir, patch.NewID)
		if err != nil {
			return nil, err
		}

		if exists {
			return nil, coreerr.New(coreerr.CodeIDConflict, "store.Update", coreerr.WithID(patch.NewID))
		}

		newID = patch.NewID
	}

	updated.ID = newID
	updated.UpdatedAt = e.now().UTC()

	if err := e.writeRecord(projectRoot, s, updated); err != nil {
		return nil, err
	}

	if newID != id {
		oldPath := recordPath(typeDir, id)

		if err := e.fsys.Remove(oldPath); err != nil {
			return nil, coreerr.Wrap(err, coreerr.CodeIODeleteFailed, "store.Update", coreerr.WithID(id), coreerr.WithPath(oldPath))
		}

		m, err := e.loadOrNewManifest(projectRoot)
		if err != nil {
			return nil, err
		}

		m.Remove(recordRelPath(s, id))

		if err := manifest.Save(e.aw, e.storeDir(projectRoot), m); err != nil {
			return nil, err
		}
	}

	return updated, nil
}

// applyPatch overlays patch onto a clone of existing and re-validates the
// result against s. Fields not named in patch (including Patch.Fields keys)
// keep their current value.
func applyPatch(s *schema.TypeSchema, existing *record.Record, patch Patch) (*record.Record, error) {
	out := existing.Clone()

	if patch.Title != nil {
		out.Title = *patch.Title
	}

	if patch.Body != nil {
		out.Body = *patch.Body
	}

	rawFields := make(map[string]any, len(out.Fields))

	for k, v := range out.Fields {
		rawFields[k] = v
	}

	for k, v := range patch.Fields {
		rawFields[k] = v
	}

	fields, err := record.CoerceFields(s, rawFields)
	if err != nil {
		return nil, err
	}

	out.Fields = fields

	status := out.Status
	if patch.Status != nil {
		status = *patch.Status
	}

	validatedStatus, err := record.ValidateStatus(s, &status)
	if err != nil {
		return nil, err
	}

	out.Status = validatedStatus

	switch patch.Priority {
	case PriorityClear:
		out.Priority = nil
	case PrioritySet:
		p := patch.PrioritySetValue

		validated, err := record.ValidatePriority(s, &p)
		if err != nil {
			return nil, err
		}

		out.Priority = validated
	case PriorityUnset:
		// leave out.Priority as cloned from existing
	}

	return out, nil
}
