package ndzst

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	perr "dumpsift/internal/platform/errors"
	kit "dumpsift/internal/platform/testkit"
)

func TestSource_StreamsLinesWithOffsets(t *testing.T) {
	dir := t.TempDir()
	path := kit.WriteNDJSON(t, dir, "RC_2020-01.zst",
		`{"author":"a","body":"héllo"}`,
		`{"author":"b"}`,
	)

	src, err := Open(path, Options{ChunkSize: 5, DecodeWindow: 64})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = src.Close() }()

	if src.Path() != path {
		t.Fatalf("Path = %q", src.Path())
	}
	st, _ := os.Stat(path)
	if src.Size() != st.Size() {
		t.Fatalf("Size = %d, want %d", src.Size(), st.Size())
	}

	got := collect(t, src.Lines())
	if len(got) != 2 {
		t.Fatalf("lines = %q", texts(got))
	}
	if string(got[0].Text) != `{"author":"a","body":"héllo"}` {
		t.Fatalf("line 0 = %q", got[0].Text)
	}
	for _, l := range got {
		if l.Offset <= 0 || l.Offset > src.Size() {
			t.Fatalf("offset %d outside (0, %d]", l.Offset, src.Size())
		}
	}
	if src.Consumed() <= 0 {
		t.Fatalf("Consumed = %d", src.Consumed())
	}
}

func TestSource_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.zst"), Options{})
	if !perr.IsCode(err, perr.ErrorCodeIO) {
		t.Fatalf("want io error, got %v", err)
	}
}

func TestSource_NotZstdFailsOnRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.zst")
	if err := os.WriteFile(path, []byte(strings.Repeat("not zstd\n", 4)), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = src.Close() }()

	_, err = src.Lines().Next()
	if err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("want a stream error, got %v", err)
	}
	if perr.IsLineError(err) {
		t.Fatalf("corrupt stream must abandon the file, got line error %v", err)
	}
}
