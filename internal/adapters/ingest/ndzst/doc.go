// Package ndzst reads zstd compressed ndjson dumps line by line with bounded memory
//
// Design choices:
// - Decompress with klauspost/compress/zstd in synchronous mode so the whole chain stays one pull loop.
// - Decode fixed size chunks as UTF-8; a chunk that ends inside a multi-byte sequence is extended
//   with the next chunk until it decodes, up to a configured window. Past the window the file is
//   abandoned with a framing error.
// - Reframe chunks into lines on '\n', carrying the partial tail forward. A tail with no final
//   newline when the stream ends is dropped, never emitted.
// - Progress offsets are compressed bytes consumed from the file, advanced once per chunk.
package ndzst
