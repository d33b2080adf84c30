package coreerr

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func Test_Wrap_Formats_Correctly_When_Various_Inputs(t *testing.T) {
	t.Parallel()

	base := errors.New("something failed")
	pathErr := &os.PathError{Op: "open", Path: "/abs/path.md", Err: errors.New("permission denied")}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error",
			err:  Wrap(nil, CodeIOReadFailed, "store.Get"),
			want: "",
		},
		{
			name: "bare error, no op",
			err:  Wrap(base, CodeIOReadFailed, ""),
			want: "something failed (code=IO_READ_FAILED)",
		},
		{
			name: "bare error with op",
			err:  Wrap(base, CodeIOReadFailed, "store.Get"),
			want: "store.Get: something failed (code=IO_READ_FAILED)",
		},
		{
			name: "with ID",
			err:  Wrap(base, CodeItemNotFound, "store.Get", WithID("item1")),
			want: "store.Get: something failed (code=ITEM_NOT_FOUND id=item1)",
		},
		{
			name: "with path",
			err:  Wrap(base, CodeIOReadFailed, "store.Get", WithPath("issues/foo.md")),
			want: "store.Get: something failed (code=IO_READ_FAILED path=issues/foo.md)",
		},
		{
			name: "with ID and path",
			err:  Wrap(base, CodeItemNotFound, "store.Get", WithID("item1"), WithPath("issues/foo.md")),
			want: "store.Get: something failed (code=ITEM_NOT_FOUND id=item1 path=issues/foo.md)",
		},
		{
			name: "PathError bare",
			err:  Wrap(pathErr, CodeIOReadFailed, "store.Get"),
			want: "store.Get: open /abs/path.md: permission denied (code=IO_READ_FAILED)",
		},
		{
			name: "fmt.Errorf then wrap",
			err:  Wrap(fmt.Errorf("decoding frontmatter: %w", base), CodeFrontmatterMalformed, "store.Get", WithID("item1")),
			want: "store.Get: decoding frontmatter: something failed (code=FRONTMATTER_MALFORMED id=item1)",
		},
		{
			name: "wrap(*Error) no opts keeps existing code",
			err:  Wrap(Wrap(base, CodeItemNotFound, "store.Get", WithID("x")), CodeIOReadFailed, "store.reconcile"),
			want: "store.reconcile: something failed (code=ITEM_NOT_FOUND id=x)",
		},
		{
			name: "wrap(*Error) adds path, keeps id",
			err:  Wrap(Wrap(base, CodeItemNotFound, "store.Get", WithID("x")), CodeIOReadFailed, "store.reconcile", WithPath("a.md")),
			want: "store.reconcile: something failed (code=ITEM_NOT_FOUND id=x path=a.md)",
		},
		{
			name: "New with no cause",
			err:  New(CodeNotInitialized, "store.Open"),
			want: "store.Open: NOT_INITIALIZED (code=NOT_INITIALIZED)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.err == nil {
				if tt.want != "" {
					t.Errorf("got nil, want %q", tt.want)
				}

				return
			}

			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func Test_Wrap_Supports_Errors_Is_With_Code(t *testing.T) {
	t.Parallel()

	err := Wrap(errors.New("missing"), CodeItemNotFound, "store.Get", WithID("item1"))

	if !errors.Is(err, CodeItemNotFound) {
		t.Error("errors.Is should match CodeItemNotFound")
	}

	if errors.Is(err, CodeIDConflict) {
		t.Error("errors.Is should not match an unrelated code")
	}
}

func Test_Wrap_Supports_Unwrap_When_Using_Errors_Is(t *testing.T) {
	t.Parallel()

	base := errors.New("root cause")
	wrapped := Wrap(base, CodeIOReadFailed, "store.Get", WithID("item1"))

	if !errors.Is(wrapped, base) {
		t.Error("errors.Is should find base error")
	}

	var cErr *Error
	if !errors.As(wrapped, &cErr) {
		t.Error("errors.As should find *Error")
	}

	if cErr.ID != "item1" {
		t.Errorf("ID = %q, want %q", cErr.ID, "item1")
	}
}

func Test_Wrap_Supports_Unwrap_When_Inner_Is_PathError(t *testing.T) {
	t.Parallel()

	pathErr := &os.PathError{Op: "open", Path: "/tmp/x", Err: errors.New("denied")}
	wrapped := Wrap(pathErr, CodeIOReadFailed, "store.Get", WithID("item1"))

	var pe *os.PathError
	if !errors.As(wrapped, &pe) {
		t.Error("errors.As should find *os.PathError")
	}

	if pe.Path != "/tmp/x" {
		t.Errorf("PathError.Path = %q, want %q", pe.Path, "/tmp/x")
	}
}

func Test_New_Is_Usable_Without_Underlying_Cause(t *testing.T) {
	t.Parallel()

	err := New(CodeFeatureDisabled, "store.Update", WithID("item1"), WithPath("issues/foo.md"))

	if !errors.Is(err, CodeFeatureDisabled) {
		t.Error("errors.Is should match CodeFeatureDisabled")
	}

	if err.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil", err.Unwrap())
	}
}
