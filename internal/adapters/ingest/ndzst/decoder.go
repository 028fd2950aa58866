package ndzst

import (
	"errors"
	"io"
	"unicode/utf8"

	perr "dumpsift/internal/platform/errors"
	"dumpsift/internal/platform/logger"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	// DefaultChunkSize is the number of decompressed bytes pulled per read
	DefaultChunkSize = 1 << 27
	// DefaultDecodeWindow caps bytes buffered while resolving an undecodable chunk
	DefaultDecodeWindow = 1 << 30
)

// Decoder turns a decompressed byte stream into chunks of valid UTF-8
type Decoder struct {
	src    io.Reader
	chunk  int
	window int
	log    zerolog.Logger

	buf []byte
	err error
}

// NewDecoder wraps src; chunk and window <= 0 fall back to the defaults
func NewDecoder(src io.Reader, chunk, window int, log logger.Logger) *Decoder {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	if window <= 0 {
		window = DefaultDecodeWindow
	}
	return &Decoder{src: src, chunk: chunk, window: window, log: log}
}

// Next returns the next chunk of text; io.EOF when the stream is drained
// The returned slice is only valid until the following call
// Once Next fails with a framing error every later call returns the same error
// The window is checked only after a failed decode, so a retry may hold up to
// window+chunk bytes and still succeed
func (d *Decoder) Next() ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.buf = d.buf[:0]
	for {
		n, eof, err := d.fill()
		if err != nil {
			d.err = perr.Wrap(err, perr.ErrorCodeIO, "read decompressed stream")
			return nil, d.err
		}
		if len(d.buf) == 0 {
			d.err = io.EOF
			return nil, io.EOF
		}
		if utf8.Valid(d.buf) {
			return d.buf, nil
		}
		if eof || n == 0 {
			d.err = perr.Wrap(
				pkgerrors.Errorf("stream ended inside an undecodable sequence after %d bytes", len(d.buf)),
				perr.ErrorCodeFraming, "decode frame")
			return nil, d.err
		}
		if len(d.buf) > d.window {
			d.err = perr.Wrap(
				pkgerrors.Errorf("unable to decode frame after reading %d bytes", len(d.buf)),
				perr.ErrorCodeFraming, "decode frame")
			return nil, d.err
		}
		d.log.Info().Int("bytes", len(d.buf)).Msg("decoding error, reading another chunk")
	}
}

// fill appends up to one chunk to buf
func (d *Decoder) fill() (n int, eof bool, err error) {
	start := len(d.buf)
	if cap(d.buf)-start < d.chunk {
		grown := make([]byte, start, start+d.chunk)
		copy(grown, d.buf)
		d.buf = grown
	}
	n, err = io.ReadFull(d.src, d.buf[start:start+d.chunk])
	d.buf = d.buf[:start+n]
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return n, true, nil
	case err != nil:
		return n, false, err
	}
	return n, false, nil
}
