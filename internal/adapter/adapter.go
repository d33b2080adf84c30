// Package adapter is the core-facing RPC boundary (spec.md §2, component
// C10): request/response structs plus thin translation functions over
// [store.Engine] and [schema.Registry]. Grounded on the teacher's
// internal/cli command-handler shape (cmdCreate, cmdLs, …) reshaped from
// "parse CLI flags, write to io.Writer" to "accept a typed request struct,
// return a typed response struct" so the core is callable and testable
// without any CLI or wire server sitting in front of it.
package adapter

import (
	"time"

	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/query"
	"github.com/centy-dev/centy-core/internal/record"
	"github.com/centy-dev/centy-core/internal/store"
)

// Adapter translates RPC-shaped requests into [store.Engine] calls. It holds
// no state of its own beyond the engine reference; callers are responsible
// for resolving a project root (see internal/projectcfg) before populating
// a request.
type Adapter struct {
	engine *store.Engine
}

// New wraps engine in an Adapter.
func New(engine *store.Engine) *Adapter {
	return &Adapter{engine: engine}
}

// RecordResponse is the wire-friendly projection of a [record.Record]: a
// flat struct of JSON-marshalable fields, with Deleted surfaced explicitly
// instead of requiring callers to test DeletedAt.IsZero() themselves.
type RecordResponse struct {
	ID            string
	TypeName      string
	DisplayNumber *uint64
	Title         string
	Body          string
	Status        string
	Priority      *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Deleted       bool
	Fields        map[string]any
}

func toRecordResponse(r *record.Record) *RecordResponse {
	if r == nil {
		return nil
	}

	return &RecordResponse{
		ID:            r.ID,
		TypeName:      r.TypeName,
		DisplayNumber: r.DisplayNumber,
		Title:         r.Title,
		Body:          r.Body,
		Status:        r.Status,
		Priority:      r.Priority,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Deleted:       r.IsDeleted(),
		Fields:        r.Fields,
	}
}

// CreateRequest carries create's RPC inputs.
type CreateRequest struct {
	ProjectRoot string
	TypeName    string
	Title       string
	Body        string
	Status      *string
	Priority    *int
	Fields      map[string]any
	// ExplicitID is only honored for slug-identified types.
	ExplicitID string
}

// Create translates req into a [store.Engine.Create] call.
func (a *Adapter) Create(req CreateRequest) (*RecordResponse, error) {
	r, err := a.engine.Create(req.ProjectRoot, req.TypeName, store.CreateInput{
		Title:      req.Title,
		Body:       req.Body,
		Status:     req.Status,
		Priority:   req.Priority,
		Fields:     req.Fields,
		ExplicitID: req.ExplicitID,
	})
	if err != nil {
		return nil, err
	}

	return toRecordResponse(r), nil
}

// GetRequest carries get's RPC inputs. Exactly one of ID or DisplayNumber
// must be set.
type GetRequest struct {
	ProjectRoot   string
	TypeName      string
	ID            string
	DisplayNumber *uint64
}

// Get translates req into a [store.Engine.Get] call.
func (a *Adapter) Get(req GetRequest) (*RecordResponse, error) {
	var sel store.Selector

	switch {
	case req.ID != "":
		sel = store.ByID(req.ID)
	case req.DisplayNumber != nil:
		sel = store.ByDisplayNumber(*req.DisplayNumber)
	default:
		return nil, coreerr.New(coreerr.CodeItemNotFound, "adapter.Get")
	}

	r, err := a.engine.Get(req.ProjectRoot, req.TypeName, sel)
	if err != nil {
		return nil, err
	}

	return toRecordResponse(r), nil
}

// ListRequest carries list's RPC inputs. FilterJSON is the raw structured
// filter document (spec.md §4.7); nil or empty means "no filter".
type ListRequest struct {
	ProjectRoot    string
	TypeName       string
	FilterJSON     []byte
	Limit          int
	Offset         int
	IncludeDeleted bool
}

// ListResponse is list's RPC output.
type ListResponse struct {
	Items      []*RecordResponse
	Total      int
	ScanErrors int
}

// List translates req into a [store.Engine.List] call, parsing FilterJSON
// through [query.Parse] when present.
func (a *Adapter) List(req ListRequest) (*ListResponse, error) {
	var filter *query.FilterExpr

	if len(req.FilterJSON) > 0 {
		fe, err := query.Parse(req.FilterJSON)
		if err != nil {
			return nil, err
		}

		filter = fe
	}

	res, err := a.engine.List(req.ProjectRoot, req.TypeName, store.Query{
		Filter:         filter,
		Limit:          req.Limit,
		Offset:         req.Offset,
		IncludeDeleted: req.IncludeDeleted,
	})
	if err != nil {
		return nil, err
	}

	items := make([]*RecordResponse, len(res.Items))
	for i, r := range res.Items {
		items[i] = toRecordResponse(r)
	}

	return &ListResponse{Items: items, Total: res.Total, ScanErrors: res.ScanErrors}, nil
}
