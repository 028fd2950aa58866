package ndzst

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	perr "dumpsift/internal/platform/errors"
	kit "dumpsift/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestDecoder_SplitMultibyteJoinsNextChunk(t *testing.T) {
	var logs bytes.Buffer
	d := NewDecoder(strings.NewReader("aé\n"), 2, 16, zerolog.New(&logs))

	got, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(got) != "aé\n" {
		t.Fatalf("chunk = %q", got)
	}
	kit.MustContain(t, logs.String(), "reading another chunk")

	if _, err := d.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("want io.EOF, got %v", err)
	}
}

func TestDecoder_ValidChunksPassThrough(t *testing.T) {
	d := NewDecoder(strings.NewReader("abcdefg"), 3, 0, zerolog.Nop())
	var parts []string
	for {
		b, err := d.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		parts = append(parts, string(b))
	}
	if strings.Join(parts, "|") != "abc|def|g" {
		t.Fatalf("parts = %v", parts)
	}
}

func TestDecoder_WindowExceededIsFraming(t *testing.T) {
	src := bytes.Repeat([]byte{0xff}, 10)
	d := NewDecoder(bytes.NewReader(src), 2, 4, zerolog.Nop())

	_, err := d.Next()
	if !perr.IsCode(err, perr.ErrorCodeFraming) {
		t.Fatalf("want framing error, got %v", err)
	}
	kit.MustContain(t, err.Error(), "after reading 6 bytes")

	if _, again := d.Next(); again != err {
		t.Fatalf("framing error should be sticky, got %v", again)
	}
}

func TestDecoder_RetryMayOvershootWindowByOneChunk(t *testing.T) {
	d := NewDecoder(strings.NewReader("€\n"), 2, 2, zerolog.Nop())
	got, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(got) != "€\n" || len(got) != 4 {
		t.Fatalf("chunk = %q", got)
	}
}

func TestDecoder_EOFInsideSequenceIsFraming(t *testing.T) {
	d := NewDecoder(strings.NewReader("ab\xc3"), 8, 64, zerolog.Nop())
	_, err := d.Next()
	if !perr.IsCode(err, perr.ErrorCodeFraming) {
		t.Fatalf("want framing error, got %v", err)
	}
	if perr.IsLineError(err) {
		t.Fatalf("framing must not be a line error")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestDecoder_ReadErrorIsIO(t *testing.T) {
	d := NewDecoder(failingReader{}, 4, 4, zerolog.Nop())
	_, err := d.Next()
	if !perr.IsCode(err, perr.ErrorCodeIO) {
		t.Fatalf("want io error, got %v", err)
	}
	kit.MustContain(t, err.Error(), "disk gone")
}
