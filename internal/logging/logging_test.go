package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func Test_Writer_Logs_At_Or_Above_Minimum_Level(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := New(&buf, LevelWarn)
	w.nowFn = fixedTime(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	w.Debug("ignored")
	w.Info("also ignored")
	w.Warn("a warning", "id", "item1")
	w.Error("an error")

	out := buf.String()
	if strings.Contains(out, "ignored") {
		t.Fatalf("output should not contain debug/info lines, got: %q", out)
	}

	if !strings.Contains(out, "WARN a warning id=item1") {
		t.Fatalf("output missing warn line, got: %q", out)
	}

	if !strings.Contains(out, "ERROR an error") {
		t.Fatalf("output missing error line, got: %q", out)
	}
}

func Test_Writer_FormatsKeyValueArgs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := New(&buf, LevelDebug)
	w.nowFn = fixedTime(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	w.Info("created record", "id", "abc123", "type", "issue")

	want := "2026-01-02T03:04:05Z INFO created record id=abc123 type=issue\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func Test_Writer_With_PrependsFixedArgs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := New(&buf, LevelDebug)
	w.nowFn = fixedTime(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	scoped := w.With("project", "myproj")
	scoped.Info("scanned", "count", 3)

	want := "2026-01-02T03:04:05Z INFO scanned project=myproj count=3\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func Test_Writer_OddArgs_MarksMissingValue(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := New(&buf, LevelDebug)
	w.nowFn = fixedTime(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	w.Info("oops", "dangling")

	if !strings.Contains(buf.String(), "dangling=<missing>") {
		t.Fatalf("expected dangling key marked missing, got: %q", buf.String())
	}
}

func Test_Noop_DiscardsOutput(t *testing.T) {
	t.Parallel()

	Noop.Info("should not panic", "k", "v")
	Noop.With("k", "v").Error("still fine")
}
