package manifest_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centy-dev/centy-core/internal/fs"
	"github.com/centy-dev/centy-core/internal/manifest"
)

func Test_Execute_WritesToCreateEntries_FromTemplate(t *testing.T) {
	t.Parallel()

	storeDir := setupStoreDir(t)
	fsys := fs.NewReal()
	aw := fs.NewAtomicWriter(fsys)

	m := manifest.New("0.1.0", time.Now())
	templates := map[string]manifest.Template{
		"README.md": {Content: []byte("# hi\n"), FileType: manifest.FileTypeReadme},
	}

	plan, err := manifest.GetPlan(fsys, storeDir, m, templates, map[string]bool{"issues": true})
	require.NoError(t, err)

	outcome, err := manifest.Execute(fsys, aw, storeDir, m, plan, templates, nil)
	require.NoError(t, err)
	assert.Contains(t, outcome.Created, "README.md")
	assert.Empty(t, outcome.Errors)

	got, err := os.ReadFile(filepath.Join(storeDir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# hi\n", string(got))
	assert.Contains(t, m.Files, "README.md")
}

func Test_Execute_AdoptsToResetEntries_WithoutRewriting(t *testing.T) {
	t.Parallel()

	storeDir := setupStoreDir(t)
	fsys := fs.NewReal()
	aw := fs.NewAtomicWriter(fsys)

	recordContent := []byte("---\ncreatedAt: 2024-01-01T00:00:00Z\nupdatedAt: 2024-01-01T00:00:00Z\n---\n# Title\n")
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, "issues", "abc.md"), recordContent, 0o644))

	m := manifest.New("0.1.0", time.Now())

	plan, err := manifest.GetPlan(fsys, storeDir, m, nil, map[string]bool{"issues": true})
	require.NoError(t, err)

	outcome, err := manifest.Execute(fsys, aw, storeDir, m, plan, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, outcome.Adopted, "issues/abc.md")
	assert.Equal(t, manifest.Hash(recordContent), m.Files["issues/abc.md"].Hash)
}

func Test_Execute_NeedsDecision_DefaultsToSkip_When_NoDecisionSupplied(t *testing.T) {
	t.Parallel()

	storeDir := setupStoreDir(t)
	fsys := fs.NewReal()
	aw := fs.NewAtomicWriter(fsys)

	require.NoError(t, os.WriteFile(filepath.Join(storeDir, "README.md"), []byte("hand-edited"), 0o644))

	m := manifest.New("0.1.0", time.Now())
	m.Put("README.md", manifest.Hash([]byte("# hi\n")), manifest.FileTypeReadme)
	templates := map[string]manifest.Template{"README.md": {Content: []byte("# hi\n"), FileType: manifest.FileTypeReadme}}

	plan, err := manifest.GetPlan(fsys, storeDir, m, templates, map[string]bool{"issues": true})
	require.NoError(t, err)

	outcome, err := manifest.Execute(fsys, aw, storeDir, m, plan, templates, nil)
	require.NoError(t, err)
	assert.Contains(t, outcome.Skipped, "README.md")

	got, err := os.ReadFile(filepath.Join(storeDir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "hand-edited", string(got))
}

func Test_Execute_NeedsDecision_Restore_RewritesToTemplate(t *testing.T) {
	t.Parallel()

	storeDir := setupStoreDir(t)
	fsys := fs.NewReal()
	aw := fs.NewAtomicWriter(fsys)

	require.NoError(t, os.WriteFile(filepath.Join(storeDir, "README.md"), []byte("hand-edited"), 0o644))

	m := manifest.New("0.1.0", time.Now())
	m.Put("README.md", manifest.Hash([]byte("# hi\n")), manifest.FileTypeReadme)
	templates := map[string]manifest.Template{"README.md": {Content: []byte("# hi\n"), FileType: manifest.FileTypeReadme}}

	plan, err := manifest.GetPlan(fsys, storeDir, m, templates, map[string]bool{"issues": true})
	require.NoError(t, err)

	decisions := map[string]manifest.Decision{"README.md": manifest.DecisionRestore}

	outcome, err := manifest.Execute(fsys, aw, storeDir, m, plan, templates, decisions)
	require.NoError(t, err)
	assert.Contains(t, outcome.Restored, "README.md")

	got, err := os.ReadFile(filepath.Join(storeDir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# hi\n", string(got))
}

// A failure on one entry must not abort the remaining entries (spec.md §4.8).
func Test_Execute_ContinuesBatch_When_OneEntryFails(t *testing.T) {
	t.Parallel()

	storeDir := setupStoreDir(t)
	fsys := fs.NewReal()
	aw := fs.NewAtomicWriter(fsys)

	m := manifest.New("0.1.0", time.Now())

	// A toReset entry pointing at a file that doesn't actually exist on disk
	// (simulating a race where the file vanished between GetPlan and Execute)
	// must fail without blocking the sibling toCreate entry.
	plan := &manifest.Plan{
		ToReset: []manifest.Entry{{RelPath: "issues/gone.md", FileType: manifest.FileTypeRecord}},
	}
	templates := map[string]manifest.Template{
		"README.md": {Content: []byte("# hi\n"), FileType: manifest.FileTypeReadme},
	}
	plan.ToCreate = []manifest.Entry{{RelPath: "README.md", FileType: manifest.FileTypeReadme}}

	outcome, err := manifest.Execute(fsys, aw, storeDir, m, plan, templates, nil)
	require.NoError(t, err)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, "issues/gone.md", outcome.Errors[0].RelPath)
	assert.Contains(t, outcome.Created, "README.md")
}

func Test_Execute_NeedsDecision_Restore_WithoutTemplate_RecordsError(t *testing.T) {
	t.Parallel()

	storeDir := setupStoreDir(t)
	fsys := fs.NewReal()
	aw := fs.NewAtomicWriter(fsys)

	m := manifest.New("0.1.0", time.Now())
	plan := &manifest.Plan{
		NeedsDecision: []manifest.Entry{{RelPath: "issues/weird.md", FileType: manifest.FileTypeRecord}},
	}

	decisions := map[string]manifest.Decision{"issues/weird.md": manifest.DecisionRestore}

	outcome, err := manifest.Execute(fsys, aw, storeDir, m, plan, nil, decisions)
	require.NoError(t, err)
	require.Len(t, outcome.Errors, 1)
	assert.Equal(t, "issues/weird.md", outcome.Errors[0].RelPath)
}
