// Package store implements the generic storage engine (spec.md §4.6): the
// record lifecycle operations (create/get/list/update/softDelete/restore/
// delete/duplicate/move) composing the frontmatter codec, schema registry,
// display-number allocator, query evaluator, and manifest reconciliation
// into one project-scoped API, grounded on the teacher's mddb.Tx
// validate-buffer-commit shape and its Locker-guarded store.Open.
package store

import (
	"bytes"
	"errors"
	"path/filepath"
	"sort"
	"time"

	"github.com/centy-dev/centy-core/internal/allocator"
	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/fs"
	"github.com/centy-dev/centy-core/internal/logging"
	"github.com/centy-dev/centy-core/internal/manifest"
	"github.com/centy-dev/centy-core/internal/query"
	"github.com/centy-dev/centy-core/internal/record"
	"github.com/centy-dev/centy-core/internal/schema"
)

// DefaultStoreDirName is the store directory's default name under a project
// root (spec.md §6: ".{storeDir}/", default "store").
const DefaultStoreDirName = "store"

// Engine is the project-scoped storage engine. One Engine instance can serve
// any number of project roots; all per-project state (locks) is keyed by the
// caller-supplied, already-canonicalized project root path.
type Engine struct {
	fsys          fs.FS
	aw            *fs.AtomicWriter
	locker        *fs.Locker
	locks         *lockRegistry
	logger        logging.Logger
	engineVersion string
	storeDirName  string
	lockTimeout   time.Duration
	now           func() time.Time
}

// Option configures an [Engine] constructed by [New].
type Option func(*Engine)

// WithLogger overrides the engine's logger (default [logging.Noop]).
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithStoreDirName overrides the store directory name (default
// [DefaultStoreDirName]).
func WithStoreDirName(name string) Option {
	return func(e *Engine) { e.storeDirName = name }
}

// WithEngineVersion overrides the version string stamped into new manifests
// and README files (default "0.1.0").
func WithEngineVersion(v string) Option {
	return func(e *Engine) { e.engineVersion = v }
}

// WithLockTimeout bounds how long lockProject/rLockProject wait to acquire
// the per-project flock before giving up (spec.md §4.3's LockTimeout,
// resolved by internal/projectcfg). Zero (the default) blocks indefinitely,
// matching the teacher's plain Lock/RLock behavior.
func WithLockTimeout(d time.Duration) Option {
	return func(e *Engine) { e.lockTimeout = d }
}

// withClock overrides the engine's time source; used by tests needing
// deterministic timestamps.
func withClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New constructs an [Engine] backed by fsys.
func New(fsys fs.FS, opts ...Option) *Engine {
	e := &Engine{
		fsys:          fsys,
		aw:            fs.NewAtomicWriter(fsys),
		locker:        fs.NewLocker(fsys),
		locks:         newLockRegistry(),
		logger:        logging.Noop,
		engineVersion: "0.1.0",
		storeDirName:  DefaultStoreDirName,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func storeDirPath(projectRoot, storeDirName string) string {
	return filepath.Join(projectRoot, "."+storeDirName)
}

func (e *Engine) storeDir(projectRoot string) string {
	return storeDirPath(projectRoot, e.storeDirName)
}

func (e *Engine) typeDir(projectRoot string, s *schema.TypeSchema) string {
	return filepath.Join(e.storeDir(projectRoot), s.Plural)
}

func recordPath(typeDir, id string) string {
	return filepath.Join(typeDir, id+".md")
}

func recordRelPath(s *schema.TypeSchema, id string) string {
	return filepath.ToSlash(filepath.Join(s.Plural, id+".md"))
}

func (e *Engine) assetDir(projectRoot string, s *schema.TypeSchema, id string) string {
	return filepath.Join(e.storeDir(projectRoot), "assets", s.Plural, id)
}

// zeroTime is the sentinel "absent" value for Record.DeletedAt.
var zeroTime time.Time

// Registry resolves the schemas declared under projectRoot's store directory.
func (e *Engine) Registry(projectRoot string) (*schema.Registry, error) {
	storeDir := e.storeDir(projectRoot)

	exists, err := e.fsys.Exists(storeDir)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "store.Registry", coreerr.WithPath(storeDir))
	}

	if !exists {
		return nil, coreerr.New(coreerr.CodeNotInitialized, "store.Registry", coreerr.WithPath(storeDir))
	}

	return schema.Discover(e.fsys, storeDir)
}

func (e *Engine) resolveSchema(projectRoot, typeName string) (*schema.TypeSchema, error) {
	reg, err := e.Registry(projectRoot)
	if err != nil {
		return nil, err
	}

	return reg.Resolve(typeName)
}

// CreateInput carries create's caller-supplied fields (spec.md §4.6).
type CreateInput struct {
	Title      string
	Body       string
	Status     *string
	Priority   *int
	Fields     map[string]any
	ExplicitID string // only honored for slug-identified types
}

// Create allocates an id (and display number, if the type has that feature)
// and durably writes a new record, per spec.md §4.6.
func (e *Engine) Create(projectRoot, typeName string, in CreateInput) (*record.Record, error) {
	s, err := e.resolveSchema(projectRoot, typeName)
	if err != nil {
		return nil, err
	}

	lock, err := e.lockProject(projectRoot)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	return e.createLocked(projectRoot, s, in)
}

func (e *Engine) createLocked(projectRoot string, s *schema.TypeSchema, in CreateInput) (*record.Record, error) {
	typeDir := e.typeDir(projectRoot, s)

	fields, err := record.CoerceFields(s, in.Fields)
	if err != nil {
		return nil, err
	}

	status, err := record.ValidateStatus(s, in.Status)
	if err != nil {
		return nil, err
	}

	priority, err := record.ValidatePriority(s, in.Priority)
	if err != nil {
		return nil, err
	}

	id, err := e.allocateID(typeDir, s, in)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()

	r := &record.Record{
		ID:          id,
		TypeName:    s.Name,
		Title:       in.Title,
		Body:        in.Body,
		Status:      status,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
		Fields:      fields,
		ExtraFields: map[string]any{},
	}

	if s.Features.DisplayNumber {
		next, err := allocator.Next(e.fsys, s, typeDir)
		if err != nil {
			return nil, err
		}

		r.DisplayNumber = &next
	}

	if err := e.writeRecord(projectRoot, s, r); err != nil {
		return nil, err
	}

	return r, nil
}

func (e *Engine) allocateID(typeDir string, s *schema.TypeSchema, in CreateInput) (string, error) {
	if s.Identifier == schema.IdentifierUUID {
		if in.ExplicitID != "" {
			return "", coreerr.New(coreerr.CodeValidationFieldType, "store.Create", coreerr.WithID(in.ExplicitID))
		}

		return newUUID(), nil
	}

	if in.ExplicitID != "" {
		exists, err := recordExists(e.fsys, typeDir, in.ExplicitID)
		if err != nil {
			return "", err
		}

		if exists {
			return "", coreerr.New(coreerr.CodeIDConflict, "store.Create", coreerr.WithID(in.ExplicitID))
		}

		return in.ExplicitID, nil
	}

	return uniqueSlug(e.fsys, typeDir, in.Title)
}

// writeRecord encodes r, writes it durably, and updates the project's
// manifest in the same logical step, so the manifest-hash-matches-disk
// invariant (spec.md §8 property 8) holds once this returns.
func (e *Engine) writeRecord(projectRoot string, s *schema.TypeSchema, r *record.Record) error {
	data, err := record.Encode(s, r)
	if err != nil {
		return coreerr.Wrap(err, coreerr.CodeIOWriteFailed, "store.writeRecord", coreerr.WithID(r.ID))
	}

	path := recordPath(e.typeDir(projectRoot, s), r.ID)

	if err := e.aw.WriteWithDefaults(path, bytes.NewReader(data)); err != nil {
		return coreerr.Wrap(err, coreerr.CodeIOWriteFailed, "store.writeRecord", coreerr.WithID(r.ID), coreerr.WithPath(path))
	}

	m, err := e.loadOrNewManifest(projectRoot)
	if err != nil {
		return err
	}

	m.Put(recordRelPath(s, r.ID), manifest.Hash(data), manifest.FileTypeRecord)
	m.UpdatedAt = e.now().UTC()

	return manifest.Save(e.aw, e.storeDir(projectRoot), m)
}

func (e *Engine) loadOrNewManifest(projectRoot string) (*manifest.Manifest, error) {
	m, err := manifest.Load(e.fsys, e.storeDir(projectRoot))
	if err == nil {
		return m, nil
	}

	if errors.Is(err, coreerr.CodeNotInitialized) {
		return manifest.New(e.engineVersion, e.now().UTC()), nil
	}

	return nil, err
}

// Get fetches a single record by id or display number, per spec.md §4.6.
// selector must be exactly one of ByID or ByDisplayNumber.
func (e *Engine) Get(projectRoot, typeName string, sel Selector) (*record.Record, error) {
	s, err := e.resolveSchema(projectRoot, typeName)
	if err != nil {
		return nil, err
	}

	lock, err := e.rLockProject(projectRoot)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	return e.getLocked(projectRoot, s, sel)
}

func (e *Engine) getLocked(projectRoot string, s *schema.TypeSchema, sel Selector) (*record.Record, error) {
	typeDir := e.typeDir(projectRoot, s)

	if sel.ID != "" {
		return e.loadRecord(typeDir, s, sel.ID)
	}

	if sel.DisplayNumber != nil {
		if !s.Features.DisplayNumber {
			return nil, coreerr.New(coreerr.CodeFeatureDisabled, "store.Get")
		}

		return e.findByDisplayNumber(typeDir, s, *sel.DisplayNumber)
	}

	return nil, coreerr.New(coreerr.CodeItemNotFound, "store.Get")
}

func (e *Engine) loadRecord(typeDir string, s *schema.TypeSchema, id string) (*record.Record, error) {
	path := recordPath(typeDir, id)

	exists, err := e.fsys.Exists(path)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "store.Get", coreerr.WithPath(path))
	}

	if !exists {
		return nil, coreerr.New(coreerr.CodeItemNotFound, "store.Get", coreerr.WithID(id))
	}

	data, err := e.fsys.ReadFile(path)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "store.Get", coreerr.WithPath(path))
	}

	return record.Decode(s, id, data)
}

func (e *Engine) findByDisplayNumber(typeDir string, s *schema.TypeSchema, n uint64) (*record.Record, error) {
	entries, err := e.fsys.ReadDir(typeDir)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "store.Get", coreerr.WithPath(typeDir))
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		id := idFromFileName(entry.Name())
		if id == "" {
			continue
		}

		r, err := e.loadRecord(typeDir, s, id)
		if err != nil {
			continue
		}

		if r.DisplayNumber != nil && *r.DisplayNumber == n {
			return r, nil
		}
	}

	return nil, coreerr.New(coreerr.CodeItemNotFound, "store.Get")
}

func idFromFileName(name string) string {
	const suffix = ".md"

	if len(name) <= len(suffix) || name[len(name)-len(suffix):] != suffix {
		return ""
	}

	return name[:len(name)-len(suffix)]
}

// Selector identifies the record a single-item operation targets. Exactly
// one field should be set; prefer [ByID] / [ByDisplayNumber] constructors.
type Selector struct {
	ID            string
	DisplayNumber *uint64
}

// ByID selects a record by its canonical id.
func ByID(id string) Selector { return Selector{ID: id} }

// ByDisplayNumber selects a record by its per-type display number. Only
// valid for types with Features.DisplayNumber.
func ByDisplayNumber(n uint64) Selector { return Selector{DisplayNumber: &n} }

// Query carries list's filter/pagination inputs (spec.md §4.6).
type Query struct {
	Filter         *query.FilterExpr
	Limit          int
	Offset         int
	IncludeDeleted bool
}

// ListResult is list's output: the materialized page plus the pre-slice
// total count and a count of record files skipped for being unparseable
// (spec.md §7's non-fatal scan-error accounting).
type ListResult struct {
	Items       []*record.Record
	Total       int
	ScanErrors  int
}

// List enumerates typeName's directory, decodes each record, applies
// IncludeDeleted and Filter, sorts by createdAt ascending (ties by id), and
// applies Offset/Limit, per spec.md §4.6.
func (e *Engine) List(projectRoot, typeName string, q Query) (*ListResult, error) {
	s, err := e.resolveSchema(projectRoot, typeName)
	if err != nil {
		return nil, err
	}

	lock, err := e.rLockProject(projectRoot)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	return e.listLocked(projectRoot, s, q)
}

func (e *Engine) listLocked(projectRoot string, s *schema.TypeSchema, q Query) (*ListResult, error) {
	typeDir := e.typeDir(projectRoot, s)

	exists, err := e.fsys.Exists(typeDir)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "store.List", coreerr.WithPath(typeDir))
	}

	if !exists {
		return &ListResult{}, nil
	}

	entries, err := e.fsys.ReadDir(typeDir)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "store.List", coreerr.WithPath(typeDir))
	}

	var (
		matched    []*record.Record
		scanErrors int
	)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		id := idFromFileName(entry.Name())
		if id == "" {
			continue
		}

		r, err := e.loadRecord(typeDir, s, id)
		if err != nil {
			scanErrors++

			e.logger.Warn("skipping unparseable record", "type", s.Name, "id", id, "err", err)

			continue
		}

		if !q.IncludeDeleted && r.IsDeleted() {
			continue
		}

		if q.Filter != nil && !q.Filter.Eval(s, r) {
			continue
		}

		matched = append(matched, r)
	}

	sort.Slice(matched, func(i, j int) bool {
		ti, tj := matched[i].CreatedAt, matched[j].CreatedAt
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}

		return matched[i].ID < matched[j].ID
	})

	total := len(matched)

	matched = paginate(matched, q.Offset, q.Limit)

	return &ListResult{Items: matched, Total: total, ScanErrors: scanErrors}, nil
}

func paginate(items []*record.Record, offset, limit int) []*record.Record {
	if offset < 0 {
		offset = 0
	}

	if offset >= len(items) {
		return nil
	}

	items = items[offset:]

	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
