package adapter

import (
	"github.com/centy-dev/centy-core/internal/allocator"
	"github.com/centy-dev/centy-core/internal/manifest"
	"github.com/centy-dev/centy-core/internal/schema"
	"github.com/centy-dev/centy-core/internal/store"
)

// InitRequest carries init's RPC inputs (spec.md §4.9). TypeConfigYAML holds
// one raw config.yaml document per type to seed; an empty slice falls back
// to the engine's built-in defaults.
type InitRequest struct {
	ProjectRoot    string
	TypeConfigYAML [][]byte
	Force          bool
}

// Init translates req into a [store.Engine.Init] call, parsing each
// TypeConfigYAML entry through [schema.ParseConfig] first.
func (a *Adapter) Init(req InitRequest) error {
	schemas := make([]*schema.TypeSchema, 0, len(req.TypeConfigYAML))

	for _, data := range req.TypeConfigYAML {
		s, err := schema.ParseConfig(data, "")
		if err != nil {
			return err
		}

		schemas = append(schemas, s)
	}

	return a.engine.Init(req.ProjectRoot, store.InitOptions{
		TypeSchemas: schemas,
		Force:       req.Force,
	})
}

// GetPlan translates into a [store.Engine.GetPlan] call. [manifest.Plan] is
// already a plain data struct, so it is returned directly rather than
// re-wrapped.
func (a *Adapter) GetPlan(projectRoot string) (*manifest.Plan, error) {
	return a.engine.GetPlan(projectRoot)
}

// ExecutePlanRequest carries execute's RPC inputs: the plan previously
// returned by GetPlan plus the caller's decision for each NeedsDecision
// entry (keyed by RelPath). Entries with no decision default to
// [manifest.DecisionSkip].
type ExecutePlanRequest struct {
	ProjectRoot string
	Plan        *manifest.Plan
	Decisions   map[string]manifest.Decision
}

// ExecutePlan translates req into a [store.Engine.ExecutePlan] call.
func (a *Adapter) ExecutePlan(req ExecutePlanRequest) (*manifest.Outcome, error) {
	return a.engine.ExecutePlan(req.ProjectRoot, req.Plan, req.Decisions)
}

// ReconcileDisplayNumbers translates into a
// [store.Engine.ReconcileDisplayNumbers] call.
func (a *Adapter) ReconcileDisplayNumbers(projectRoot, typeName string) ([]allocator.Assignment, error) {
	return a.engine.ReconcileDisplayNumbers(projectRoot, typeName)
}
