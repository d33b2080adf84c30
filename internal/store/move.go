package store

import (
	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/manifest"
	"github.com/centy-dev/centy-core/internal/record"
	"github.com/centy-dev/centy-core/internal/schema"
)

// MoveOptions carries move's optional id override (spec.md §4.6).
type MoveOptions struct {
	NewID string
}

// Move transfers a record from sourceProjectRoot to targetProjectRoot: it
// allocates a fresh display number in the target, writes the record there
// under its current id (or opts.NewID, for slug-identified types), then
// removes the source file and its source-manifest entry; the target manifest
// is updated by the write, per spec.md §4.6. An id already present in the
// target is rejected with [coreerr.CodeIDConflict].
// Requires the type's Features.Move. If the target write succeeds but the
// source cleanup fails, the error carries [coreerr.CodeMovePartial] and the
// caller must retry source cleanup rather than treat the move as failed —
// the target copy is already durable.
func (e *Engine) Move(sourceProjectRoot, targetProjectRoot, typeName, id string, opts MoveOptions) (*record.Record, error) {
	first, second, err := e.lockTwoProjects(sourceProjectRoot, targetProjectRoot)
	if err != nil {
		return nil, err
	}

	defer releasePair(first, second)

	srcSchema, err := e.resolveSchema(sourceProjectRoot, typeName)
	if err != nil {
		return nil, err
	}

	if !srcSchema.Features.Move {
		return nil, coreerr.New(coreerr.CodeFeatureDisabled, "store.Move", coreerr.WithID(id))
	}

	tgtSchema, err := e.resolveSchema(targetProjectRoot, typeName)
	if err != nil {
		return nil, err
	}

	srcTypeDir := e.typeDir(sourceProjectRoot, srcSchema)

	src, err := e.loadRecord(srcTypeDir, srcSchema, id)
	if err != nil {
		return nil, err
	}

	out, err := e.materializeCopy(targetProjectRoot, tgtSchema, src, opts.NewID, "")
	if err != nil {
		return nil, err
	}

	if opts.NewID == "" || tgtSchema.Identifier != schema.IdentifierSlug {
		exists, err := recordExists(e.fsys, e.typeDir(targetProjectRoot, tgtSchema), src.ID)
		if err != nil {
			return nil, err
		}

		if exists {
			return nil, coreerr.New(coreerr.CodeIDConflict, "store.Move", coreerr.WithID(src.ID))
		}

		out.ID = src.ID
	}

	// materializeCopy resets createdAt; a move should preserve the record's
	// original creation time, only bumping updatedAt.
	out.CreatedAt = src.CreatedAt
	out.UpdatedAt = e.now().UTC()

	if err := e.writeRecord(targetProjectRoot, tgtSchema, out); err != nil {
		return nil, err
	}

	srcPath := recordPath(srcTypeDir, id)

	if err := e.fsys.Remove(srcPath); err != nil {
		return out, coreerr.Wrap(err, coreerr.CodeMovePartial, "store.Move", coreerr.WithID(id), coreerr.WithPath(srcPath))
	}

	m, err := e.loadOrNewManifest(sourceProjectRoot)
	if err != nil {
		return out, coreerr.Wrap(err, coreerr.CodeMovePartial, "store.Move", coreerr.WithID(id))
	}

	m.Remove(recordRelPath(srcSchema, id))
	m.UpdatedAt = e.now().UTC()

	if err := manifest.Save(e.aw, e.storeDir(sourceProjectRoot), m); err != nil {
		return out, coreerr.Wrap(err, coreerr.CodeMovePartial, "store.Move", coreerr.WithID(id))
	}

	return out, nil
}
