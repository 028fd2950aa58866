package ndzst

import (
	"io"
	"os"
	"sync/atomic"

	perr "dumpsift/internal/platform/errors"
	"dumpsift/internal/platform/logger"

	"github.com/klauspost/compress/zstd"
)

// DefaultFrameWindow is the largest zstd window the decompressor accepts
const DefaultFrameWindow = 1 << 31

// Options tunes how a dump file is read
type Options struct {
	ChunkSize    int
	DecodeWindow int
	FrameWindow  uint64
	Log          logger.Logger
}

// Source is one open dump file: raw file, byte counter and zstd stream
type Source struct {
	path string
	f    *os.File
	size int64
	cr   *countingReader
	zr   *zstd.Decoder
	opt  Options
}

// Open opens path for streaming; the caller must Close the Source
func Open(path string, opt Options) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "open %s", path)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "stat %s", path)
	}
	if opt.FrameWindow == 0 {
		opt.FrameWindow = DefaultFrameWindow
	}

	cr := &countingReader{r: f}
	zr, err := zstd.NewReader(cr,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxWindow(opt.FrameWindow),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		_ = f.Close()
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "zstd reader for %s", path)
	}
	return &Source{path: path, f: f, size: st.Size(), cr: cr, zr: zr, opt: opt}, nil
}

// Lines returns a reframer over the decompressed text
// Line offsets are compressed bytes consumed, so they compare against Size
func (s *Source) Lines() *LineReader {
	log := s.opt.Log.With().Str("file", s.path).Logger()
	dec := NewDecoder(s.zr, s.opt.ChunkSize, s.opt.DecodeWindow, log)
	return NewLineReader(dec, s.Consumed)
}

// Consumed is the number of compressed bytes read from the file so far
func (s *Source) Consumed() int64 { return s.cr.n.Load() }

// Size is the compressed file size at open time
func (s *Source) Size() int64 { return s.size }

// Path returns the file path
func (s *Source) Path() string { return s.path }

// Close releases the decompressor and the file
func (s *Source) Close() error {
	s.zr.Close()
	if err := s.f.Close(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeIO, "close %s", s.path)
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}
