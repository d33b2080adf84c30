package adapter_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/centy-dev/centy-core/internal/adapter"
	"github.com/centy-dev/centy-core/internal/fs"
	"github.com/centy-dev/centy-core/internal/schema"
	"github.com/centy-dev/centy-core/internal/store"
)

func newTestAdapter(t *testing.T, now time.Time) *adapter.Adapter {
	t.Helper()

	engine := store.New(fs.NewReal(), store.WithClockForTests(func() time.Time { return now }))

	return adapter.New(engine)
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

func mustInit(t *testing.T, a *adapter.Adapter, projectRoot string, schemas ...*schema.TypeSchema) {
	t.Helper()

	cfgs := make([][]byte, len(schemas))
	for i, s := range schemas {
		cfgs[i] = schema.EncodeConfig(s)
	}

	require.NoError(t, a.Init(adapter.InitRequest{ProjectRoot: projectRoot, TypeConfigYAML: cfgs}))
}

// Create and fetch by display number (spec.md §8, literal scenario).
func TestAdapter_CreateAndGetByDisplayNumber(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2025, 12, 2, 21, 27, 50, 0, time.UTC)
	a := newTestAdapter(t, now)
	mustInit(t, a, root, issueSchema())

	status := "open"
	priority := 2

	created, err := a.Create(adapter.CreateRequest{
		ProjectRoot: root,
		TypeName:    "issues",
		Title:       "Fix",
		Status:      &status,
		Priority:    &priority,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), *created.DisplayNumber)

	one := uint64(1)

	got, err := a.Get(adapter.GetRequest{ProjectRoot: root, TypeName: "issues", DisplayNumber: &one})
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "Fix", got.Title)
	require.Equal(t, "open", got.Status)
	require.Equal(t, 2, *got.Priority)

	listed, err := a.List(adapter.ListRequest{ProjectRoot: root, TypeName: "issues"})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	require.Equal(t, 1, listed.Total)
}

// Soft-delete hides from default list (spec.md §8, literal scenario).
func TestAdapter_SoftDeleteHidesFromDefaultList(t *testing.T) {
	root := t.TempDir()
	a := newTestAdapter(t, time.Now().UTC())
	mustInit(t, a, root, issueSchema())

	first, err := a.Create(adapter.CreateRequest{ProjectRoot: root, TypeName: "issues", Title: "First"})
	require.NoError(t, err)

	_, err = a.Create(adapter.CreateRequest{ProjectRoot: root, TypeName: "issues", Title: "Second"})
	require.NoError(t, err)

	_, err = a.SoftDelete(root, "issues", first.ID)
	require.NoError(t, err)

	listed, err := a.List(adapter.ListRequest{ProjectRoot: root, TypeName: "issues"})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)

	listedAll, err := a.List(adapter.ListRequest{ProjectRoot: root, TypeName: "issues", IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, listedAll.Items, 2)

	_, err = a.Restore(root, "issues", first.ID)
	require.NoError(t, err)

	listedAfterRestore, err := a.List(adapter.ListRequest{ProjectRoot: root, TypeName: "issues"})
	require.NoError(t, err)
	require.Len(t, listedAfterRestore.Items, 2)
}

// Filter with boolean and operator mix (spec.md §8, literal scenario).
func TestAdapter_ListWithFilter(t *testing.T) {
	root := t.TempDir()
	a := newTestAdapter(t, time.Now().UTC())
	mustInit(t, a, root, issueSchema())

	statuses := []string{"open", "open", "closed", "in-progress"}
	priorities := []int{1, 3, 2, 1}

	for i := range statuses {
		st := statuses[i]
		pr := priorities[i]

		_, err := a.Create(adapter.CreateRequest{
			ProjectRoot: root,
			TypeName:    "issues",
			Title:       "Issue",
			Status:      &st,
			Priority:    &pr,
		})
		require.NoError(t, err)
	}

	filter := []byte(`{"$or":[{"status":"open"},{"priority":{"$lte":1}}]}`)

	listed, err := a.List(adapter.ListRequest{ProjectRoot: root, TypeName: "issues", FilterJSON: filter})
	require.NoError(t, err)
	require.Equal(t, 3, listed.Total)
}

func TestAdapter_ListInvalidFilter(t *testing.T) {
	root := t.TempDir()
	a := newTestAdapter(t, time.Now().UTC())
	mustInit(t, a, root, issueSchema())

	_, err := a.List(adapter.ListRequest{ProjectRoot: root, TypeName: "issues", FilterJSON: []byte(`not json`)})
	require.Error(t, err)
}

// Slug collision (spec.md §8, literal scenario).
func TestAdapter_SlugCollision(t *testing.T) {
	root := t.TempDir()
	a := newTestAdapter(t, time.Now().UTC())
	mustInit(t, a, root, docSchema())

	first, err := a.Create(adapter.CreateRequest{ProjectRoot: root, TypeName: "docs", Title: "Getting Started"})
	require.NoError(t, err)
	require.Equal(t, "getting-started", first.ID)

	second, err := a.Create(adapter.CreateRequest{ProjectRoot: root, TypeName: "docs", Title: "Getting Started"})
	require.NoError(t, err)
	require.Equal(t, "getting-started-2", second.ID)
}

func TestAdapter_UpdateClearsPriorityExplicitly(t *testing.T) {
	root := t.TempDir()
	a := newTestAdapter(t, time.Now().UTC())
	mustInit(t, a, root, issueSchema())

	priority := 2

	created, err := a.Create(adapter.CreateRequest{ProjectRoot: root, TypeName: "issues", Title: "Has priority", Priority: &priority})
	require.NoError(t, err)
	require.NotNil(t, created.Priority)

	updated, err := a.Update(adapter.UpdateRequest{
		ProjectRoot: root,
		TypeName:    "issues",
		ID:          created.ID,
		Priority:    store.PriorityClear,
	})
	require.NoError(t, err)
	require.Nil(t, updated.Priority)

	reset, err := a.Update(adapter.UpdateRequest{
		ProjectRoot:      root,
		TypeName:         "issues",
		ID:               created.ID,
		Priority:         store.PrioritySet,
		PrioritySetValue: 3,
	})
	require.NoError(t, err)
	require.Equal(t, 3, *reset.Priority)
}

func TestAdapter_DeleteForce(t *testing.T) {
	root := t.TempDir()
	a := newTestAdapter(t, time.Now().UTC())
	mustInit(t, a, root, issueSchema())

	created, err := a.Create(adapter.CreateRequest{ProjectRoot: root, TypeName: "issues", Title: "Gone"})
	require.NoError(t, err)

	require.NoError(t, a.Delete(adapter.DeleteRequest{ProjectRoot: root, TypeName: "issues", ID: created.ID, Force: true}))

	_, err = a.Get(adapter.GetRequest{ProjectRoot: root, TypeName: "issues", ID: created.ID})
	require.Error(t, err)
}

// Move across projects (spec.md §8, literal scenario).
func TestAdapter_MoveAcrossProjects(t *testing.T) {
	rootA, rootB := t.TempDir(), t.TempDir()
	a := newTestAdapter(t, time.Now().UTC())

	movable := issueSchema()
	movable.Features.Move = true
	movable.Features.Duplicate = true

	mustInit(t, a, rootA, movable)
	mustInit(t, a, rootB, movable)

	_, err := a.Create(adapter.CreateRequest{ProjectRoot: rootB, TypeName: "issues", Title: "B-1"})
	require.NoError(t, err)

	_, err = a.Create(adapter.CreateRequest{ProjectRoot: rootB, TypeName: "issues", Title: "B-2"})
	require.NoError(t, err)

	created, err := a.Create(adapter.CreateRequest{ProjectRoot: rootA, TypeName: "issues", Title: "A-1"})
	require.NoError(t, err)
	require.Equal(t, uint64(1), *created.DisplayNumber)

	moved, err := a.Move(adapter.MoveRequest{
		SourceProjectRoot: rootA,
		TargetProjectRoot: rootB,
		TypeName:          "issues",
		ID:                created.ID,
	})
	require.NoError(t, err)
	require.Equal(t, uint64(3), *moved.DisplayNumber)

	_, err = a.Get(adapter.GetRequest{ProjectRoot: rootA, TypeName: "issues", ID: created.ID})
	require.Error(t, err)

	gotOnB, err := a.Get(adapter.GetRequest{ProjectRoot: rootB, TypeName: "issues", ID: moved.ID})
	require.NoError(t, err)
	require.Equal(t, "A-1", gotOnB.Title)
}

func TestAdapter_Duplicate(t *testing.T) {
	root := t.TempDir()
	a := newTestAdapter(t, time.Now().UTC())

	dupable := issueSchema()
	dupable.Features.Duplicate = true

	mustInit(t, a, root, dupable)

	created, err := a.Create(adapter.CreateRequest{ProjectRoot: root, TypeName: "issues", Title: "Original"})
	require.NoError(t, err)

	dup, err := a.Duplicate(adapter.DuplicateRequest{
		SourceProjectRoot: root,
		TargetProjectRoot: root,
		TypeName:          "issues",
		ID:                created.ID,
		NewTitle:          "Copy",
	})
	require.NoError(t, err)
	require.NotEqual(t, created.ID, dup.ID)
	require.Equal(t, "Copy", dup.Title)
	require.Equal(t, uint64(2), *dup.DisplayNumber)
}

func TestAdapter_ListTypes(t *testing.T) {
	root := t.TempDir()
	a := newTestAdapter(t, time.Now().UTC())
	mustInit(t, a, root, issueSchema(), docSchema())

	types, err := a.ListTypes(root)
	require.NoError(t, err)
	require.Len(t, types, 2)

	names := map[string]bool{}
	for _, ti := range types {
		names[ti.Name] = true
	}

	require.True(t, names["issue"])
	require.True(t, names["doc"])
}

// A freshly initialized project's plan needs no decisions, and executing it
// with no decisions succeeds.
func TestAdapter_GetPlanAndExecutePlan(t *testing.T) {
	root := t.TempDir()
	a := newTestAdapter(t, time.Now().UTC())
	mustInit(t, a, root, issueSchema())

	plan, err := a.GetPlan(root)
	require.NoError(t, err)
	require.False(t, plan.NeedsDecisions())

	outcome, err := a.ExecutePlan(adapter.ExecutePlanRequest{ProjectRoot: root, Plan: plan, Decisions: nil})
	require.NoError(t, err)
	require.NotNil(t, outcome)
}

func TestAdapter_ReconcileDisplayNumbers(t *testing.T) {
	root := t.TempDir()
	a := newTestAdapter(t, time.Now().UTC())
	mustInit(t, a, root, issueSchema())

	_, err := a.Create(adapter.CreateRequest{ProjectRoot: root, TypeName: "issues", Title: "One"})
	require.NoError(t, err)

	assignments, err := a.ReconcileDisplayNumbers(root, "issues")
	require.NoError(t, err)
	require.Empty(t, assignments)
}

func TestAdapter_GetRequiresSelector(t *testing.T) {
	root := t.TempDir()
	a := newTestAdapter(t, time.Now().UTC())
	mustInit(t, a, root, issueSchema())

	_, err := a.Get(adapter.GetRequest{ProjectRoot: root, TypeName: "issues"})
	require.Error(t, err)
}
