package manifest

import (
	"path/filepath"
	"regexp"
	"sort"

	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/frontmatter"
	"github.com/centy-dev/centy-core/internal/fs"
)

// Template is the engine's canonical content for a managed file whose
// content it can deterministically regenerate (type configs, the README).
// Record files have no template: the engine cannot "restore" a record it
// didn't write, only classify it.
type Template struct {
	Content  []byte
	FileType FileType
}

// Entry is one classified path in a [Plan].
type Entry struct {
	RelPath  string
	FileType FileType
}

// Plan is the result of [GetPlan]: every path referenced by the manifest or
// the templates, plus the files found directly in the store directory and
// directly in known type directories, partitioned into disjoint sets.
// Other directories and nested subdirectories are not walked, so files in
// them appear in no set.
type Plan struct {
	ToCreate      []Entry
	UpToDate      []Entry
	NeedsDecision []Entry
	ToReset       []Entry
	UserFiles     []Entry
}

// NeedsDecisions reports whether any entry requires a user decision before
// [Execute] can make the tree fully consistent.
func (p *Plan) NeedsDecisions() bool {
	return len(p.NeedsDecision) > 0
}

// recordPathPattern matches `<plural>/<id>.md` one level deep, the only
// shape a freshly-created, unmanifested record file can have.
var recordPathPattern = regexp.MustCompile(`^([^/\\]+)[/\\]([^/\\]+)\.md$`)

// GetPlan walks storeDir and classifies every file the manifest references
// or that lives under a known type directory, per spec.md §4.8.
//
// templates supplies the canonical content for paths the engine can
// regenerate (type configs, README); knownPlurals lists the directory names
// discovery recognizes as record type directories, used to decide whether
// an unmanifested on-disk file is an adoptable record (toReset) or an
// unrelated user file.
func GetPlan(fsys fs.FS, storeDir string, m *Manifest, templates map[string]Template, knownPlurals map[string]bool) (*Plan, error) {
	plan := &Plan{}

	seen := make(map[string]bool)

	managed := make(map[string]bool, len(m.Files)+len(templates))
	for path := range m.Files {
		managed[path] = true
	}

	for path := range templates {
		managed[path] = true
	}

	var managedPaths []string
	for path := range managed {
		managedPaths = append(managedPaths, path)
	}

	sort.Strings(managedPaths)

	for _, relPath := range managedPaths {
		seen[relPath] = true

		entry, category, err := classifyManaged(fsys, storeDir, relPath, m, templates)
		if err != nil {
			return nil, err
		}

		appendTo(plan, category, entry)
	}

	extra, err := walkStoreDir(fsys, storeDir, seen, knownPlurals)
	if err != nil {
		return nil, err
	}

	for _, item := range extra {
		appendTo(plan, item.category, item.entry)
	}

	return plan, nil
}

type category int

const (
	categoryCreate category = iota
	categoryUpToDate
	categoryNeedsDecision
	categoryReset
	categoryUser
)

func appendTo(plan *Plan, c category, e Entry) {
	switch c {
	case categoryCreate:
		plan.ToCreate = append(plan.ToCreate, e)
	case categoryUpToDate:
		plan.UpToDate = append(plan.UpToDate, e)
	case categoryNeedsDecision:
		plan.NeedsDecision = append(plan.NeedsDecision, e)
	case categoryReset:
		plan.ToReset = append(plan.ToReset, e)
	case categoryUser:
		plan.UserFiles = append(plan.UserFiles, e)
	}
}

func classifyManaged(fsys fs.FS, storeDir, relPath string, m *Manifest, templates map[string]Template) (Entry, category, error) {
	fullPath := filepath.Join(storeDir, relPath)

	fileType := entryFileType(relPath, m, templates)
	entry := Entry{RelPath: relPath, FileType: fileType}

	exists, err := fsys.Exists(fullPath)
	if err != nil {
		return entry, categoryCreate, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "manifest.GetPlan", coreerr.WithPath(fullPath))
	}

	if !exists {
		return entry, categoryCreate, nil
	}

	data, err := fsys.ReadFile(fullPath)
	if err != nil {
		return entry, categoryCreate, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "manifest.GetPlan", coreerr.WithPath(fullPath))
	}

	diskHash := Hash(data)

	expected, hasManifestEntry := m.Files[relPath]
	if !hasManifestEntry {
		// Known-template path (config/README) not yet in the manifest: a
		// freshly initialized project whose init step hasn't run yet, or a
		// manifest predating this path. Treat like toCreate's sibling case
		// by comparing against the template directly.
		tmpl, hasTemplate := templates[relPath]
		if hasTemplate && Hash(tmpl.Content) == diskHash {
			return entry, categoryUpToDate, nil
		}

		return entry, categoryNeedsDecision, nil
	}

	if expected.Hash == diskHash {
		return entry, categoryUpToDate, nil
	}

	return entry, categoryNeedsDecision, nil
}

func entryFileType(relPath string, m *Manifest, templates map[string]Template) FileType {
	if e, ok := m.Files[relPath]; ok {
		return e.FileType
	}

	if t, ok := templates[relPath]; ok {
		return t.FileType
	}

	return FileTypeRecord
}

type planItem struct {
	entry    Entry
	category category
}

// walkStoreDir finds files present on disk that the manifest/templates
// don't already account for, classifying each as an adoptable record
// (toReset), a record-shaped file the engine can't parse (needsDecision,
// per DESIGN.md's Open Question decision #3), or an opaque user file.
func walkStoreDir(fsys fs.FS, storeDir string, seen map[string]bool, knownPlurals map[string]bool) ([]planItem, error) {
	var out []planItem

	topEntries, err := fsys.ReadDir(storeDir)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "manifest.GetPlan", coreerr.WithPath(storeDir))
	}

	for _, top := range topEntries {
		if !top.IsDir() || !knownPlurals[top.Name()] {
			if !top.IsDir() {
				relPath := top.Name()
				if !seen[relPath] {
					out = append(out, planItem{entry: Entry{RelPath: relPath, FileType: FileTypeRecord}, category: categoryUser})
				}
			}

			continue
		}

		plural := top.Name()

		children, err := fsys.ReadDir(filepath.Join(storeDir, plural))
		if err != nil {
			return nil, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "manifest.GetPlan", coreerr.WithPath(plural))
		}

		for _, child := range children {
			if child.IsDir() {
				continue
			}

			relPath := filepath.ToSlash(filepath.Join(plural, child.Name()))
			if seen[relPath] {
				continue
			}

			if !recordPathPattern.MatchString(relPath) {
				out = append(out, planItem{entry: Entry{RelPath: relPath, FileType: FileTypeRecord}, category: categoryUser})

				continue
			}

			data, err := fsys.ReadFile(filepath.Join(storeDir, plural, child.Name()))
			if err != nil {
				return nil, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "manifest.GetPlan", coreerr.WithPath(relPath))
			}

			_, _, parseErr := frontmatter.ParseFrontmatter(data)
			if parseErr != nil {
				out = append(out, planItem{entry: Entry{RelPath: relPath, FileType: FileTypeRecord}, category: categoryNeedsDecision})

				continue
			}

			out = append(out, planItem{entry: Entry{RelPath: relPath, FileType: FileTypeRecord}, category: categoryReset})
		}
	}

	return out, nil
}
