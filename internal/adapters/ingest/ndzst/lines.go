package ndzst

import (
	"bytes"
)

// Line is one complete logical line plus the coarse progress offset at the time it was framed
type Line struct {
	Text   []byte
	Offset int64
}

// ChunkSource yields decoded text chunks; *Decoder implements it
type ChunkSource interface {
	Next() ([]byte, error)
}

// LineReader reframes decoded chunks into '\n' separated lines
// It is forward only: once Next returns an error the reader is spent
type LineReader struct {
	src ChunkSource
	pos func() int64

	rest   []byte // unread part of the current chunk
	carry  []byte // partial line carried from earlier chunks
	joined []byte // scratch for carry + head of the next chunk
	offset int64
	lost   int
	err    error
}

// NewLineReader frames lines from src; pos reports the offset attached to lines and may be nil
func NewLineReader(src ChunkSource, pos func() int64) *LineReader {
	if pos == nil {
		pos = func() int64 { return 0 }
	}
	return &LineReader{src: src, pos: pos}
}

// Next returns the next complete line with surrounding whitespace trimmed
// Line.Text is only valid until the following call
// A trailing fragment with no newline at end of stream is discarded and io.EOF returned
func (lr *LineReader) Next() (Line, error) {
	if lr.err != nil {
		return Line{}, lr.err
	}
	for {
		if len(lr.rest) > 0 {
			if i := bytes.IndexByte(lr.rest, '\n'); i >= 0 {
				piece := lr.rest[:i]
				lr.rest = lr.rest[i+1:]
				if len(lr.carry) > 0 {
					lr.joined = append(append(lr.joined[:0], lr.carry...), piece...)
					lr.carry = lr.carry[:0]
					piece = lr.joined
				}
				return Line{Text: bytes.TrimSpace(piece), Offset: lr.offset}, nil
			}
			// the chunk buffer is reused by the next read, so keep a copy of the tail
			lr.carry = append(lr.carry, lr.rest...)
			lr.rest = nil
		}

		chunk, err := lr.src.Next()
		if err != nil {
			lr.lost = len(lr.carry)
			lr.carry = nil
			lr.err = err
			return Line{}, err
		}
		lr.rest = chunk
		lr.offset = lr.pos()
	}
}

// Discarded reports the size of the unterminated fragment dropped at end of stream
func (lr *LineReader) Discarded() int { return lr.lost }

var _ ChunkSource = (*Decoder)(nil)
