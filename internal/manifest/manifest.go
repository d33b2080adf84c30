// Package manifest implements the durable JSON index of engine-managed files
// (spec.md §4.8/§6) and the two-phase getPlan/execute reconciliation
// protocol that detects and resolves drift between the manifest's expected
// content hashes and what's actually on disk.
package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/centy-dev/centy-core/internal/coreerr"
	"github.com/centy-dev/centy-core/internal/fs"
)

// SchemaVersion is the current manifest document version (spec.md §6).
const SchemaVersion = 2

// FileName is the manifest's path relative to the store directory.
const FileName = ".store-manifest.json"

// FileType classifies one managed file for reconciliation purposes.
type FileType string

// FileType values, per spec.md §6.
const (
	FileTypeConfig   FileType = "config"
	FileTypeReadme   FileType = "readme"
	FileTypeRecord   FileType = "record"
	FileTypeTemplate FileType = "template"
)

// FileEntry is one manifest row: the expected content hash and file kind.
type FileEntry struct {
	Hash     string   `json:"hash"`
	FileType FileType `json:"fileType"`
}

// Manifest is the durable per-project index of engine-managed files.
type Manifest struct {
	SchemaVersion int                  `json:"schemaVersion"`
	EngineVersion string               `json:"engineVersion"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
	Files         map[string]FileEntry `json:"files"`
}

// New creates an empty manifest stamped with now and engineVersion.
func New(engineVersion string, now time.Time) *Manifest {
	return &Manifest{
		SchemaVersion: SchemaVersion,
		EngineVersion: engineVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
		Files:         map[string]FileEntry{},
	}
}

// Put records (or overwrites) a managed file's expected hash and type. It
// does not touch UpdatedAt; callers set that themselves before [Save].
// Called by the storage engine in the same logical step
// as the file write it describes, so the invariant "manifest hash equals
// sha256(disk bytes) immediately after the step completes" (spec.md §3)
// holds.
func (m *Manifest) Put(relPath string, hash string, fileType FileType) {
	m.Files[relPath] = FileEntry{Hash: hash, FileType: fileType}
}

// Remove deletes a managed file's entry, e.g. after a force delete or a
// cross-project move.
func (m *Manifest) Remove(relPath string) {
	delete(m.Files, relPath)
}

// Hash returns the lowercase hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

// Load reads and parses the manifest at <storeDir>/.store-manifest.json.
// Returns a [coreerr.Error] with [coreerr.CodeNotInitialized] if missing.
func Load(fsys fs.FS, storeDir string) (*Manifest, error) {
	path := filepath.Join(storeDir, FileName)

	exists, err := fsys.Exists(path)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "manifest.Load", coreerr.WithPath(path))
	}

	if !exists {
		return nil, coreerr.New(coreerr.CodeNotInitialized, "manifest.Load", coreerr.WithPath(path))
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "manifest.Load", coreerr.WithPath(path))
	}

	var m Manifest

	err = json.Unmarshal(data, &m)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeIOReadFailed, "manifest.Load", coreerr.WithPath(path))
	}

	if m.Files == nil {
		m.Files = map[string]FileEntry{}
	}

	return &m, nil
}

// Save atomically writes the manifest to <storeDir>/.store-manifest.json.
func Save(aw *fs.AtomicWriter, storeDir string, m *Manifest) error {
	path := filepath.Join(storeDir, FileName)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return coreerr.Wrap(err, coreerr.CodeIOWriteFailed, "manifest.Save", coreerr.WithPath(path))
	}

	data = append(data, '\n')

	err = aw.Write(path, bytes.NewReader(data), aw.DefaultOptions())
	if err != nil {
		return coreerr.Wrap(err, coreerr.CodeIOWriteFailed, "manifest.Save", coreerr.WithPath(path))
	}

	return nil
}
