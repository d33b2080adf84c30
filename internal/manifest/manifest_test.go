package manifest_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/fs"
	"github.com/centy-dev/centy-core/internal/manifest"
)

func Test_Load_ReturnsNotInitialized_When_Missing(t *testing.T) {
	t.Parallel()

	storeDir := t.TempDir()

	_, err := manifest.Load(fs.NewReal(), storeDir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, coreerr.CodeNotInitialized))
}

func Test_SaveLoad_RoundTrips(t *testing.T) {
	t.Parallel()

	storeDir := t.TempDir()
	fsys := fs.NewReal()
	aw := fs.NewAtomicWriter(fsys)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := manifest.New("0.1.0", now)
	m.Put("issues/config.yaml", "deadbeef", manifest.FileTypeConfig)

	require.NoError(t, manifest.Save(aw, storeDir, m))

	got, err := manifest.Load(fsys, storeDir)
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", got.EngineVersion)
	assert.Equal(t, manifest.FileEntry{Hash: "deadbeef", FileType: manifest.FileTypeConfig}, got.Files["issues/config.yaml"])
}

func Test_Hash_IsDeterministic(t *testing.T) {
	t.Parallel()

	a := manifest.Hash([]byte("hello"))
	b := manifest.Hash([]byte("hello"))
	c := manifest.Hash([]byte("world"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func Test_Put_Remove(t *testing.T) {
	t.Parallel()

	m := manifest.New("0.1.0", time.Now())
	m.Put("issues/a.md", "h1", manifest.FileTypeRecord)
	assert.Contains(t, m.Files, "issues/a.md")

	m.Remove("issues/a.md")
	assert.NotContains(t, m.Files, "issues/a.md")
}
