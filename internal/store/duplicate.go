package store

import (
	"github.com/centy-dev/centy-core/internal/allocator"
	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/record"
	"github.com/centy-dev/centy-core/internal/schema"
)

// DuplicateOptions carries duplicate's optional overrides (spec.md §4.6).
type DuplicateOptions struct {
	NewID    string
	NewTitle string
}

// Duplicate copies a record from sourceProjectRoot to targetProjectRoot with
// a fresh id, fresh timestamps, a cleared deletedAt, and a fresh display
// number allocated against the target, per spec.md §4.6. Requires the
// type's Features.Duplicate.
func (e *Engine) Duplicate(sourceProjectRoot, typeName, id, targetProjectRoot string, opts DuplicateOptions) (*record.Record, error) {
	first, second, err := e.lockTwoProjects(sourceProjectRoot, targetProjectRoot)
	if err != nil {
		return nil, err
	}

	defer releasePair(first, second)

	srcSchema, err := e.resolveSchema(sourceProjectRoot, typeName)
	if err != nil {
		return nil, err
	}

	if !srcSchema.Features.Duplicate {
		return nil, coreerr.New(coreerr.CodeFeatureDisabled, "store.Duplicate", coreerr.WithID(id))
	}

	tgtSchema, err := e.resolveSchema(targetProjectRoot, typeName)
	if err != nil {
		return nil, err
	}

	src, err := e.loadRecord(e.typeDir(sourceProjectRoot, srcSchema), srcSchema, id)
	if err != nil {
		return nil, err
	}

	out, err := e.materializeCopy(targetProjectRoot, tgtSchema, src, opts.NewID, opts.NewTitle)
	if err != nil {
		return nil, err
	}

	if err := e.writeRecord(targetProjectRoot, tgtSchema, out); err != nil {
		return nil, err
	}

	return out, nil
}

// materializeCopy builds the copied record's new identity: fresh id (or
// newID, for slug types), fresh timestamps, cleared deletedAt, and a fresh
// display number allocated against the target type directory. Per
// DESIGN.md's Open Question Decision #1, title is NOT rewritten from newID;
// callers that want the title changed pass newTitle explicitly.
func (e *Engine) materializeCopy(targetProjectRoot string, tgtSchema *schema.TypeSchema, src *record.Record, newID, newTitle string) (*record.Record, error) {
	out := src.Clone()
	out.TypeName = tgtSchema.Name
	out.DeletedAt = zeroTime

	now := e.now().UTC()
	out.CreatedAt = now
	out.UpdatedAt = now

	if newTitle != "" {
		out.Title = newTitle
	}

	typeDir := e.typeDir(targetProjectRoot, tgtSchema)

	id, err := e.targetID(typeDir, tgtSchema, out.Title, newID)
	if err != nil {
		return nil, err
	}

	out.ID = id

	if tgtSchema.Features.DisplayNumber {
		next, err := allocator.Next(e.fsys, tgtSchema, typeDir)
		if err != nil {
			return nil, err
		}

		out.DisplayNumber = &next
	} else {
		out.DisplayNumber = nil
	}

	return out, nil
}

func (e *Engine) targetID(typeDir string, s *schema.TypeSchema, title, newID string) (string, error) {
	if s.Identifier == schema.IdentifierUUID {
		return newUUID(), nil
	}

	if newID != "" {
		exists, err := recordExists(e.fsys, typeDir, newID)
		if err != nil {
			return "", err
		}

		if exists {
			return "", coreerr.New(coreerr.CodeIDConflict, "store.Duplicate", coreerr.WithID(newID))
		}

		return newID, nil
	}

	return uniqueSlug(e.fsys, typeDir, title)
}

func releasePair(first, second *projectLock) {
	if first == second {
		first.release()

		return
	}

	second.release()
	first.release()
}
