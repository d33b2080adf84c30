package manifest

import (
	"bytes"
	"path/filepath"

	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/fs"
)

// Decision is the resolution a caller picks for one [Entry] in
// Plan.NeedsDecision before calling [Execute].
type Decision string

// Decision values, per spec.md §4.8.
const (
	// DecisionRestore rewrites the file to the engine's canonical content
	// (the template, for config/readme entries) and re-adopts it into the
	// manifest.
	DecisionRestore Decision = "restore"
	// DecisionAdopt records the file's current on-disk content as the new
	// expected hash, without changing the file. Used for toReset entries
	// (unmanifested but parseable records) and for needsDecision entries the
	// caller chooses to trust as-is.
	DecisionAdopt Decision = "adopt"
	// DecisionSkip leaves the file and the manifest untouched.
	DecisionSkip Decision = "skip"
)

// FileError records a single entry's failure during [Execute]. A failure on
// one entry never aborts the rest of the batch (spec.md §4.8); every
// FileError here is an entry that was skipped because of it.
type FileError struct {
	RelPath string
	Err     error
}

// Error formats as "<relpath>: <cause>".
func (fe FileError) Error() string {
	return fe.RelPath + ": " + fe.Err.Error()
}

// Outcome summarizes what [Execute] did.
type Outcome struct {
	Restored []string
	Adopted  []string
	Skipped  []string
	Created  []string

	// Errors lists entries that failed and were left out of the manifest
	// update. The remaining entries are still processed.
	Errors []FileError
}

// Execute applies decisions to plan's entries and returns the updated
// manifest outcome. toCreate and toReset entries need no decision: a
// toCreate entry is written from its template (one without a template is
// left untouched and reported nowhere in the Outcome), and a toReset entry
// is recorded as-is; needsDecision entries require an explicit entry in
// decisions keyed by RelPath, defaulting to [DecisionSkip] when absent.
//
// An error on any single entry is recorded in Outcome.Errors rather than
// aborting the batch; every other entry is still attempted.
//
// m is mutated in place; the caller is responsible for calling [Save]
// afterward.
func Execute(fsys fs.FS, aw *fs.AtomicWriter, storeDir string, m *Manifest, plan *Plan, templates map[string]Template, decisions map[string]Decision) (*Outcome, error) {
	out := &Outcome{}

	for _, e := range plan.ToCreate {
		tmpl, ok := templates[e.RelPath]
		if !ok {
			continue
		}

		if err := writeTemplate(aw, storeDir, e.RelPath, tmpl); err != nil {
			out.Errors = append(out.Errors, FileError{RelPath: e.RelPath, Err: err})
			continue
		}

		m.Put(e.RelPath, Hash(tmpl.Content), tmpl.FileType)
		out.Created = append(out.Created, e.RelPath)
	}

	for _, e := range plan.ToReset {
		hash, err := currentHash(fsys, storeDir, e.RelPath)
		if err != nil {
			out.Errors = append(out.Errors, FileError{RelPath: e.RelPath, Err: err})
			continue
		}

		m.Put(e.RelPath, hash, e.FileType)
		out.Adopted = append(out.Adopted, e.RelPath)
	}

	for _, e := range plan.NeedsDecision {
		decision := decisions[e.RelPath]
		if decision == "" {
			decision = DecisionSkip
		}

		switch decision {
		case DecisionRestore:
			tmpl, ok := templates[e.RelPath]
			if !ok {
				out.Errors = append(out.Errors, FileError{
					RelPath: e.RelPath,
					Err:     coreerr.New(coreerr.CodeValidationFieldType, "manifest.Execute", coreerr.WithPath(e.RelPath)),
				})

				continue
			}

			if err := writeTemplate(aw, storeDir, e.RelPath, tmpl); err != nil {
				out.Errors = append(out.Errors, FileError{RelPath: e.RelPath, Err: err})
				continue
			}

			m.Put(e.RelPath, Hash(tmpl.Content), tmpl.FileType)
			out.Restored = append(out.Restored, e.RelPath)

		case DecisionAdopt:
			hash, err := currentHash(fsys, storeDir, e.RelPath)
			if err != nil {
				out.Errors = append(out.Errors, FileError{RelPath: e.RelPath, Err: err})
				continue
			}

			m.Put(e.RelPath, hash, e.FileType)
			out.Adopted = append(out.Adopted, e.RelPath)

		case DecisionSkip:
			out.Skipped = append(out.Skipped, e.RelPath)

		default:
			out.Errors = append(out.Errors, FileError{
				RelPath: e.RelPath,
				Err:     coreerr.New(coreerr.CodeValidationFieldType, "manifest.Execute", coreerr.WithPath(e.RelPath)),
			})
		}
	}

	return out, nil
}

func writeTemplate(aw *fs.AtomicWriter, storeDir, relPath string, tmpl Template) error {
	path := filepath.Join(storeDir, relPath)

	err := aw.Write(path, bytes.NewReader(tmpl.Content), aw.DefaultOptions())
	if err != nil {
		return coreerr.Wrap(err, coreerr.CodeIOWriteFailed, "manifest.Execute", coreerr.WithPath(path))
	}

	return nil
}

func currentHash(fsys fs.FS, storeDir, relPath string) (string, error) {
	path := filepath.Join(storeDir, relPath)

	data, err := fsys.ReadFile(path)
	if err != nil {
		return "", coreerr.Wrap(err, coreerr.CodeIOReadFailed, "manifest.Execute", coreerr.WithPath(path))
	}

	return Hash(data), nil
}
