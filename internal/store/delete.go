package store

import (
	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/manifest"
	"github.com/centy-dev/centy-core/internal/record"
)

// SoftDelete marks a record deleted without removing its file, per spec.md
// §4.6. Idempotent: re-soft-deleting an already-deleted record is a no-op
// that returns it unchanged.
func (e *Engine) SoftDelete(projectRoot, typeName, id string) (*record.Record, error) {
	s, err := e.resolveSchema(projectRoot, typeName)
	if err != nil {
		return nil, err
	}

	if !s.Features.SoftDelete {
		return nil, coreerr.New(coreerr.CodeFeatureDisabled, "store.SoftDelete", coreerr.WithID(id))
	}

	lock, err := e.lockProject(projectRoot)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	typeDir := e.typeDir(projectRoot, s)

	r, err := e.loadRecord(typeDir, s, id)
	if err != nil {
		return nil, err
	}

	if r.IsDeleted() {
		return r, nil
	}

	r.DeletedAt = e.now().UTC()
	r.UpdatedAt = r.DeletedAt

	if err := e.writeRecord(projectRoot, s, r); err != nil {
		return nil, err
	}

	return r, nil
}

// Restore clears a soft-deleted record's deletedAt, per spec.md §4.6.
// Returns CodeNotDeleted if the record is not currently soft-deleted.
func (e *Engine) Restore(projectRoot, typeName, id string) (*record.Record, error) {
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

	r, err := e.loadRecord(typeDir, s, id)
	if err != nil {
		return nil, err
	}

	if !r.IsDeleted() {
		return nil, coreerr.New(coreerr.CodeNotDeleted, "store.Restore", coreerr.WithID(id))
	}

	r.DeletedAt = zeroTime
	r.UpdatedAt = e.now().UTC()

	if err := e.writeRecord(projectRoot, s, r); err != nil {
		return nil, err
	}

	return r, nil
}

// Delete removes a record. Without force it is equivalent to [Engine.SoftDelete].
// With force it removes the file (and, when the type has Features.Assets,
// its co-located asset directory) and drops the manifest entry, per
// spec.md §4.6.
func (e *Engine) Delete(projectRoot, typeName, id string, force bool) error {
	if !force {
		_, err := e.SoftDelete(projectRoot, typeName, id)

		return err
	}

	s, err := e.resolveSchema(projectRoot, typeName)
	if err != nil {
		return err
	}

	lock, err := e.lockProject(projectRoot)
	if err != nil {
		return err
	}
	defer lock.release()

	typeDir := e.typeDir(projectRoot, s)
	path := recordPath(typeDir, id)

	exists, err := e.fsys.Exists(path)
	if err != nil {
		return coreerr.Wrap(err, coreerr.CodeIOReadFailed, "store.Delete", coreerr.WithPath(path))
	}

	if !exists {
		return coreerr.New(coreerr.CodeItemNotFound, "store.Delete", coreerr.WithID(id))
	}

	if err := e.fsys.Remove(path); err != nil {
		return coreerr.Wrap(err, coreerr.CodeIODeleteFailed, "store.Delete", coreerr.WithID(id), coreerr.WithPath(path))
	}

	if s.Features.Assets {
		assetDir := e.assetDir(projectRoot, s, id)

		if assetExists, _ := e.fsys.Exists(assetDir); assetExists {
			if err := e.fsys.RemoveAll(assetDir); err != nil {
				return coreerr.Wrap(err, coreerr.CodeIODeleteFailed, "store.Delete", coreerr.WithID(id), coreerr.WithPath(assetDir))
			}
		}
	}

	m, err := e.loadOrNewManifest(projectRoot)
	if err != nil {
		return err
	}

	m.Remove(recordRelPath(s, id))
	m.UpdatedAt = e.now().UTC()

	return manifest.Save(e.aw, e.storeDir(projectRoot), m)
}
