// Package sink owns the output file for one input dump
// Every sink buffers, so Close must run on every exit path to flush
package sink

import (
	"bufio"
	"encoding/csv"
	"os"
	"path/filepath"

	"dumpsift/internal/core/project"
	perr "dumpsift/internal/platform/errors"

	"github.com/klauspost/compress/zstd"
)

const bufSize = 1 << 20

// DefaultLevel is the zstd level used when none is configured
const DefaultLevel = 3

// Options configures Open
type Options struct {
	Format project.Format
	// Header is written first by CSV sinks
	Header []string
	// Level is the zstd compression level, 1 (fastest) to 22
	Level int
}

// Open creates path (and its parent directory) and returns the sink for opt.Format
func Open(path string, opt Options) (project.Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "create %s", path)
	}

	var s project.Sink
	switch opt.Format {
	case project.FormatZst:
		s, err = newZst(f, opt.Level)
	case project.FormatTxt:
		s = newText(f)
	case project.FormatCSV:
		s, err = newCSV(f, opt.Header)
	default:
		err = perr.Configf("unsupported output format %q", opt.Format)
	}
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return s, nil
}

// Text writes newline terminated lines to a buffered file
type Text struct {
	f *os.File
	w *bufio.Writer
}

func newText(f *os.File) *Text { return &Text{f: f, w: bufio.NewWriterSize(f, bufSize)} }

// WriteLine writes line plus '\n'
func (t *Text) WriteLine(line []byte) error {
	if _, err := t.w.Write(line); err != nil {
		return perr.Wrap(err, perr.ErrorCodeIO, "write line")
	}
	return perr.WrapIf(t.w.WriteByte('\n'), perr.ErrorCodeIO, "write line")
}

// WriteRow is not supported by line sinks
func (t *Text) WriteRow([]string) error {
	return perr.Internalf("text sink does not take rows")
}

// Close flushes and closes the file
func (t *Text) Close() error {
	ferr := t.w.Flush()
	cerr := t.f.Close()
	if ferr != nil {
		return perr.Wrap(ferr, perr.ErrorCodeIO, "flush")
	}
	return perr.WrapIf(cerr, perr.ErrorCodeIO, "close")
}

// Zst compresses newline terminated lines
type Zst struct {
	f   *os.File
	w   *bufio.Writer
	enc *zstd.Encoder
}

func newZst(f *os.File, level int) (*Zst, error) {
	if level <= 0 {
		level = DefaultLevel
	}
	w := bufio.NewWriterSize(f, bufSize)
	enc, err := zstd.NewWriter(w,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
	)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeIO, "zstd writer")
	}
	return &Zst{f: f, w: w, enc: enc}, nil
}

// WriteLine compresses line plus '\n'
func (z *Zst) WriteLine(line []byte) error {
	if _, err := z.enc.Write(line); err != nil {
		return perr.Wrap(err, perr.ErrorCodeIO, "compress line")
	}
	_, err := z.enc.Write([]byte{'\n'})
	return perr.WrapIf(err, perr.ErrorCodeIO, "compress line")
}

// WriteRow is not supported by line sinks
func (z *Zst) WriteRow([]string) error {
	return perr.Internalf("zst sink does not take rows")
}

// Close ends the zstd frame, flushes and closes the file
func (z *Zst) Close() error {
	eerr := z.enc.Close()
	ferr := z.w.Flush()
	cerr := z.f.Close()
	switch {
	case eerr != nil:
		return perr.Wrap(eerr, perr.ErrorCodeIO, "finish zstd frame")
	case ferr != nil:
		return perr.Wrap(ferr, perr.ErrorCodeIO, "flush")
	}
	return perr.WrapIf(cerr, perr.ErrorCodeIO, "close")
}

// CSV writes RFC 4180 rows with CRLF line endings
type CSV struct {
	f *os.File
	w *csv.Writer
}

func newCSV(f *os.File, header []string) (*CSV, error) {
	w := csv.NewWriter(f)
	w.UseCRLF = true
	c := &CSV{f: f, w: w}
	if len(header) > 0 {
		if err := c.WriteRow(header); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// WriteLine is not supported by the tabular sink
func (c *CSV) WriteLine([]byte) error {
	return perr.Internalf("csv sink does not take raw lines")
}

// WriteRow writes one record
func (c *CSV) WriteRow(cols []string) error {
	return perr.WrapIf(c.w.Write(cols), perr.ErrorCodeIO, "write csv row")
}

// Close flushes and closes the file
func (c *CSV) Close() error {
	c.w.Flush()
	werr := c.w.Error()
	cerr := c.f.Close()
	if werr != nil {
		return perr.Wrap(werr, perr.ErrorCodeIO, "flush csv")
	}
	return perr.WrapIf(cerr, perr.ErrorCodeIO, "close")
}
