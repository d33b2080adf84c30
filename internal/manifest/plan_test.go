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

func setupStoreDir(t *testing.T) string {
	t.Helper()

	storeDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(storeDir, "issues"), 0o755))

	return storeDir
}

func relPaths(entries []manifest.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.RelPath
	}

	return out
}

func Test_GetPlan_ClassifiesMissingManagedFile_AsToCreate(t *testing.T) {
	t.Parallel()

	storeDir := setupStoreDir(t)
	m := manifest.New("0.1.0", time.Now())
	templates := map[string]manifest.Template{
		"README.md": {Content: []byte("# hi\n"), FileType: manifest.FileTypeReadme},
	}

	plan, err := manifest.GetPlan(fs.NewReal(), storeDir, m, templates, map[string]bool{"issues": true})
	require.NoError(t, err)
	assert.Contains(t, relPaths(plan.ToCreate), "README.md")
}

func Test_GetPlan_ClassifiesMatchingTemplate_AsUpToDate(t *testing.T) {
	t.Parallel()

	storeDir := setupStoreDir(t)
	content := []byte("# hi\n")
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, "README.md"), content, 0o644))

	m := manifest.New("0.1.0", time.Now())
	m.Put("README.md", manifest.Hash(content), manifest.FileTypeReadme)

	templates := map[string]manifest.Template{"README.md": {Content: content, FileType: manifest.FileTypeReadme}}

	plan, err := manifest.GetPlan(fs.NewReal(), storeDir, m, templates, map[string]bool{"issues": true})
	require.NoError(t, err)
	assert.Contains(t, relPaths(plan.UpToDate), "README.md")
}

func Test_GetPlan_ClassifiesDivergedManagedFile_AsNeedsDecision(t *testing.T) {
	t.Parallel()

	storeDir := setupStoreDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, "README.md"), []byte("hand-edited"), 0o644))

	m := manifest.New("0.1.0", time.Now())
	m.Put("README.md", manifest.Hash([]byte("# hi\n")), manifest.FileTypeReadme)

	templates := map[string]manifest.Template{"README.md": {Content: []byte("# hi\n"), FileType: manifest.FileTypeReadme}}

	plan, err := manifest.GetPlan(fs.NewReal(), storeDir, m, templates, map[string]bool{"issues": true})
	require.NoError(t, err)
	assert.Contains(t, relPaths(plan.NeedsDecision), "README.md")
}

func Test_GetPlan_ClassifiesUnmanifestedParseableRecord_AsToReset(t *testing.T) {
	t.Parallel()

	storeDir := setupStoreDir(t)
	recordContent := []byte("---\ncreatedAt: 2024-01-01T00:00:00Z\nupdatedAt: 2024-01-01T00:00:00Z\n---\n# Title\n")
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, "issues", "abc.md"), recordContent, 0o644))

	m := manifest.New("0.1.0", time.Now())

	plan, err := manifest.GetPlan(fs.NewReal(), storeDir, m, nil, map[string]bool{"issues": true})
	require.NoError(t, err)
	assert.Contains(t, relPaths(plan.ToReset), "issues/abc.md")
}

func Test_GetPlan_ClassifiesUnmanifestedMalformedRecordShapedFile_AsNeedsDecision(t *testing.T) {
	t.Parallel()

	storeDir := setupStoreDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, "issues", "broken.md"), []byte("---\nnot: [valid\n---\n"), 0o644))

	m := manifest.New("0.1.0", time.Now())

	plan, err := manifest.GetPlan(fs.NewReal(), storeDir, m, nil, map[string]bool{"issues": true})
	require.NoError(t, err)
	assert.Contains(t, relPaths(plan.NeedsDecision), "issues/broken.md")
}

func Test_GetPlan_ClassifiesUnmanifestedFileAtStoreRoot_AsUserFile(t *testing.T) {
	t.Parallel()

	storeDir := setupStoreDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(storeDir, "notes.txt"), []byte("hi"), 0o644))

	m := manifest.New("0.1.0", time.Now())

	plan, err := manifest.GetPlan(fs.NewReal(), storeDir, m, nil, map[string]bool{"issues": true})
	require.NoError(t, err)
	assert.Contains(t, relPaths(plan.UserFiles), "notes.txt")
}

func Test_Plan_NeedsDecisions(t *testing.T) {
	t.Parallel()

	empty := &manifest.Plan{}
	assert.False(t, empty.NeedsDecisions())

	withDecision := &manifest.Plan{NeedsDecision: []manifest.Entry{{RelPath: "x"}}}
	assert.True(t, withDecision.NeedsDecisions())
}
