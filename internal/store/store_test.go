package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/centy-dev/centy-core/internal/fs"
	"github.com/centy-dev/centy-core/internal/schema"
	"github.com/centy-dev/centy-core/internal/store"
)

// writeRaw drops a file directly under projectRoot/.store/<plural>/name,
// bypassing the engine, for tests that need to simulate a hand-edited or
// malformed record file on disk.
func writeRaw(t *testing.T, projectRoot, plural, name string, content []byte) {
	t.Helper()

	dir := filepath.Join(projectRoot, "."+store.DefaultStoreDirName, plural)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o644))
}

// newTestEngine builds a real-filesystem engine with a fixed clock, so tests
// can assert on exact CreatedAt/UpdatedAt values.
func newTestEngine(t *testing.T, now time.Time) *store.Engine {
	t.Helper()

	return store.New(fs.NewReal(), store.WithClockForTests(func() time.Time { return now }))
}

func mustInit(t *testing.T, e *store.Engine, projectRoot string, schemas ...*schema.TypeSchema) {
	t.Helper()

	require.NoError(t, e.Init(projectRoot, store.InitOptions{TypeSchemas: schemas}))
}

func issueSchema() *schema.TypeSchema {
	s := *schema.Defaults()[0]
	s.Fields = map[string]schema.FieldDef{}
	s.Defaults = map[string]any{}

	return &s
}

func docSchema() *schema.TypeSchema {
	s := *schema.Defaults()[1]
	s.Fields = map[string]schema.FieldDef{}
	s.Defaults = map[string]any{}

	return &s
}

// movableIssueSchema is issueSchema with Move/Duplicate enabled, for tests
// that exercise those operations (the built-in issue default leaves both
// off).
func movableIssueSchema() *schema.TypeSchema {
	s := issueSchema()
	s.Features.Move = true
	s.Features.Duplicate = true

	return s
}
