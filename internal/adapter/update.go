package adapter

import "github.com/centy-dev/centy-core/internal/store"

// UpdateRequest carries update's RPC inputs. A nil Title/Body/Status field
// leaves that part of the record unchanged. Priority is a tri-state per
// DESIGN.md's Open Question Decision #2: callers translate "field absent
// from the wire request" to [store.PriorityUnset], "field present and
// explicitly null" to [store.PriorityClear], and "field present with a
// value" to [store.PrioritySet] + PrioritySetValue — a bare *int can't
// distinguish the last two cases.
type UpdateRequest struct {
	ProjectRoot      string
	TypeName         string
	ID               string
	Title            *string
	Body             *string
	Status           *string
	Priority         store.PriorityOp
	PrioritySetValue int
	Fields           map[string]any
	// NewID renames a slug-identified record; rejected for UUID types.
	NewID string
}

// Update translates req into a [store.Engine.Update] call.
func (a *Adapter) Update(req UpdateRequest) (*RecordResponse, error) {
	r, err := a.engine.Update(req.ProjectRoot, req.TypeName, req.ID, store.Patch{
		Title:            req.Title,
		Body:             req.Body,
		Status:           req.Status,
		Priority:         req.Priority,
		PrioritySetValue: req.PrioritySetValue,
		Fields:           req.Fields,
		NewID:            req.NewID,
	})
	if err != nil {
		return nil, err
	}

	return toRecordResponse(r), nil
}
