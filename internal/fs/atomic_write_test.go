package fs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/centy-dev/centy-core/internal/fs"
)

func TestAtomicWriter_Write_CreatesFileWithContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "record.md")

	writer := fs.NewAtomicWriter(fs.NewReal())
	if err := writer.WriteWithDefaults(path, strings.NewReader("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "hello" {
		t.Fatalf("content=%q, want %q", string(got), "hello")
	}
}

func TestAtomicWriter_Write_ReplacesExistingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "record.md")

	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("setup WriteFile: %v", err)
	}

	writer := fs.NewAtomicWriter(fs.NewReal())
	if err := writer.WriteWithDefaults(path, strings.NewReader("new")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "new" {
		t.Fatalf("content=%q, want %q", string(got), "new")
	}
}

func TestAtomicWriter_Write_LeavesNoTempFilesBehind(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "record.md")

	writer := fs.NewAtomicWriter(fs.NewReal())
	if err := writer.WriteWithDefaults(path, strings.NewReader("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	if len(entries) != 1 || entries[0].Name() != "record.md" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Fatalf("dir entries=%v, want only [record.md]", names)
	}
}

func TestAtomicWriter_Write_RejectsEmptyPath(t *testing.T) {
	t.Parallel()

	writer := fs.NewAtomicWriter(fs.NewReal())
	err := writer.WriteWithDefaults("", strings.NewReader("x"))
	if err == nil {
		t.Fatal("Write(\"\"): want error, got nil")
	}
}

func TestAtomicWriter_Write_RejectsZeroPerm(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "record.md")

	writer := fs.NewAtomicWriter(fs.NewReal())
	err := writer.Write(path, strings.NewReader("x"), fs.AtomicWriteOptions{})
	if err == nil {
		t.Fatal("Write with zero Perm: want error, got nil")
	}
}

func TestAtomicWriter_Write_AppliesRequestedPermissions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "record.md")

	writer := fs.NewAtomicWriter(fs.NewReal())
	err := writer.Write(path, strings.NewReader("x"), fs.AtomicWriteOptions{
		SyncDir: true,
		Perm:    0o640,
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	if got, want := info.Mode().Perm(), os.FileMode(0o640); got != want {
		t.Fatalf("mode=%v, want %v", got, want)
	}
}

func TestNewAtomicWriter_PanicsOnNilFS(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("NewAtomicWriter(nil): want panic, got none")
		}
	}()

	fs.NewAtomicWriter(nil)
}
