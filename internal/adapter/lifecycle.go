package adapter

import "github.com/centy-dev/centy-core/internal/store"

// SoftDelete translates into a [store.Engine.SoftDelete] call.
func (a *Adapter) SoftDelete(projectRoot, typeName, id string) (*RecordResponse, error) {
	r, err := a.engine.SoftDelete(projectRoot, typeName, id)
	if err != nil {
		return nil, err
	}

	return toRecordResponse(r), nil
}

// Restore translates into a [store.Engine.Restore] call.
func (a *Adapter) Restore(projectRoot, typeName, id string) (*RecordResponse, error) {
	r, err := a.engine.Restore(projectRoot, typeName, id)
	if err != nil {
		return nil, err
	}

	return toRecordResponse(r), nil
}

// DeleteRequest carries delete's RPC inputs. Force selects hard delete;
// without it, delete is equivalent to SoftDelete.
type DeleteRequest struct {
	ProjectRoot string
	TypeName    string
	ID          string
	Force       bool
}

// Delete translates req into a [store.Engine.Delete] call.
func (a *Adapter) Delete(req DeleteRequest) error {
	return a.engine.Delete(req.ProjectRoot, req.TypeName, req.ID, req.Force)
}

// DuplicateRequest carries duplicate's RPC inputs.
type DuplicateRequest struct {
	SourceProjectRoot string
	TypeName          string
	ID                string
	TargetProjectRoot string
	NewID             string
	NewTitle          string
}

// Duplicate translates req into a [store.Engine.Duplicate] call.
func (a *Adapter) Duplicate(req DuplicateRequest) (*RecordResponse, error) {
	r, err := a.engine.Duplicate(req.SourceProjectRoot, req.TypeName, req.ID, req.TargetProjectRoot, store.DuplicateOptions{
		NewID:    req.NewID,
		NewTitle: req.NewTitle,
	})
	if err != nil {
		return nil, err
	}

	return toRecordResponse(r), nil
}

// MoveRequest carries move's RPC inputs.
type MoveRequest struct {
	SourceProjectRoot string
	TargetProjectRoot string
	TypeName          string
	ID                string
	NewID             string
}

// Move translates req into a [store.Engine.Move] call.
func (a *Adapter) Move(req MoveRequest) (*RecordResponse, error) {
	r, err := a.engine.Move(req.SourceProjectRoot, req.TargetProjectRoot, req.TypeName, req.ID, store.MoveOptions{
		NewID: req.NewID,
	})
	if err != nil {
		return nil, err
	}

	return toRecordResponse(r), nil
}
