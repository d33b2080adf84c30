// Package allocator implements the per-type display-number sequence (spec.md
// §4.5): a monotone counter re-derived from the type's directory rather than
// stored separately, so display numbers stay correct under out-of-band file
// edits and deletions.
package allocator

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/fs"
	"github.com/centy-dev/centy-core/internal/record"
	"github.com/centy-dev/centy-core/internal/schema"
)

// Next scans typeDir for existing record files and returns one past the
// highest display number found (treating a directory with none as 0), per
// spec.md §4.5.
func Next(fsys fs.FS, s *schema.TypeSchema, typeDir string) (uint64, error) {
	var maxN uint64

	err := forEachRecord(fsys, s, typeDir, func(_ string, r *record.Record) error {
		if r.DisplayNumber != nil && *r.DisplayNumber > maxN {
			maxN = *r.DisplayNumber
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return maxN + 1, nil
}

// Assignment describes a display-number correction [Reconcile] wants to
// apply to one record file.
type Assignment struct {
	ID            string
	DisplayNumber uint64
}

// Reconcile walks typeDir's records in ascending CreatedAt order (ties
// broken lexicographically by ID) and returns the [Assignment]s needed so
// that every record missing a display number gets one, and duplicate
// numbers are resolved by keeping the earlier-created record and renumbering
// the later one, per spec.md §4.5. It does not write anything; the caller
// (internal/store.Engine) applies the assignments under the per-type write
// lock.
func Reconcile(fsys fs.FS, s *schema.TypeSchema, typeDir string) ([]Assignment, error) {
	type entry struct {
		id  string
		rec *record.Record
	}

	var entries []entry

	err := forEachRecord(fsys, s, typeDir, func(id string, r *record.Record) error {
		entries = append(entries, entry{id: id, rec: r})

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		ti, tj := entries[i].rec.CreatedAt, entries[j].rec.CreatedAt
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}

		return entries[i].id < entries[j].id
	})

	var assignments []Assignment

	seen := make(map[uint64]bool)
	next := uint64(1)

	for _, e := range entries {
		if e.rec.DisplayNumber == nil || seen[*e.rec.DisplayNumber] {
			for seen[next] {
				next++
			}

			assignments = append(assignments, Assignment{ID: e.id, DisplayNumber: next})
			seen[next] = true
			next++

			continue
		}

		seen[*e.rec.DisplayNumber] = true

		if *e.rec.DisplayNumber >= next {
			next = *e.rec.DisplayNumber + 1
		}
	}

	return assignments, nil
}

// forEachRecord decodes every `*.md` file directly under typeDir and invokes
// fn with its id (filename without extension) and decoded record. Malformed
// files are skipped, matching the tolerant scan behavior spec.md §7
// mandates for list; the allocator only needs the display-number
// frontmatter key, not a fully valid record.
func forEachRecord(fsys fs.FS, s *schema.TypeSchema, typeDir string, fn func(id string, r *record.Record) error) error {
	exists, err := fsys.Exists(typeDir)
	if err != nil {
		return coreerr.Wrap(err, coreerr.CodeIOReadFailed, "allocator.forEachRecord", coreerr.WithPath(typeDir))
	}

	if !exists {
		return nil
	}

	entries, err := fsys.ReadDir(typeDir)
	if err != nil {
		return coreerr.Wrap(err, coreerr.CodeIOReadFailed, "allocator.forEachRecord", coreerr.WithPath(typeDir))
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}

		id := strings.TrimSuffix(e.Name(), ".md")
		path := filepath.Join(typeDir, e.Name())

		data, err := fsys.ReadFile(path)
		if err != nil {
			continue
		}

		r, err := record.Decode(s, id, data)
		if err != nil {
			continue
		}

		if err := fn(id, r); err != nil {
			return err
		}
	}

	return nil
}
