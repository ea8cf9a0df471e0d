// Copyright 2013 Seth Bunce. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
package bson

import (
	"encoding/binary"
	"io"
	"math"
)

// Writer is the byte-sink contract the BSON encoder writes through. It
// supports absolute seek because the encoder back-patches document length
// prefixes after the fact (spec.md §4.1/§4.4): record position, write a
// placeholder, write the body, then seek back and fill it in.
type Writer interface {
	Write(p []byte) (int, error)
	WriteByte(b byte) error
	WriteInt32(v int32) error
	WriteUint32(v uint32) error
	WriteInt64(v int64) error
	WriteUint64(v uint64) error
	WriteFloat64(v float64) error
	Pos() int64
	Seek(pos int64) error
}

// BufferWriter is a Writer backed by a growable in-memory buffer. It
// satisfies Seek trivially, since there is no underlying stream to contend
// with.
type BufferWriter struct {
	buf []byte
	pos int64
}

// NewBufferWriter returns an empty BufferWriter.
func NewBufferWriter() *BufferWriter {
	return &BufferWriter{}
}

// Bytes returns the accumulated buffer contents.
func (w *BufferWriter) Bytes() []byte {
	return w.buf
}

func (w *BufferWriter) ensure(n int) {
	end := int(w.pos) + n
	if end > len(w.buf) {
		grown := make([]byte, end)
		copy(grown, w.buf)
		w.buf = grown
	}
}

// Write appends p at the current position, advancing it, and overwriting
// whatever bytes previously lived at this position (used by back-patching).
func (w *BufferWriter) Write(p []byte) (int, error) {
	w.ensure(len(p))
	copy(w.buf[w.pos:], p)
	w.pos += int64(len(p))
	return len(p), nil
}

// WriteByte writes a single byte at the current position.
func (w *BufferWriter) WriteByte(b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

// WriteInt32 writes v little-endian.
func (w *BufferWriter) WriteInt32(v int32) error {
	return w.WriteUint32(uint32(v))
}

// WriteUint32 writes v little-endian.
func (w *BufferWriter) WriteUint32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// WriteInt64 writes v little-endian.
func (w *BufferWriter) WriteInt64(v int64) error {
	return w.WriteUint64(uint64(v))
}

// WriteUint64 writes v little-endian.
func (w *BufferWriter) WriteUint64(v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// WriteFloat64 writes v little-endian, IEEE-754. NaN and +/-Inf are written
// literally (spec.md §4.4 edge cases); no canonicalization is applied.
func (w *BufferWriter) WriteFloat64(v float64) error {
	return w.WriteUint64(math.Float64bits(v))
}

// Pos returns the current write position.
func (w *BufferWriter) Pos() int64 {
	return w.pos
}

// Seek moves the write position, without truncating the buffer.
func (w *BufferWriter) Seek(pos int64) error {
	if pos < 0 {
		return newErrf(InvalidValue, "negative seek position %v", pos)
	}
	w.pos = pos
	return nil
}

// StreamWriter adapts an io.Writer (which may not support seeking, e.g. a
// socket or pipe) into a Writer by buffering a whole document in memory and
// flushing it to the underlying stream on Close, per spec.md §4.1/§5:
// "stream sinks without seek must be wrapped by a buffered adapter".
type StreamWriter struct {
	BufferWriter
	dst io.Writer
}

// NewStreamWriter wraps dst in a buffering adapter.
func NewStreamWriter(dst io.Writer) *StreamWriter {
	return &StreamWriter{dst: dst}
}

// Close flushes the buffered document to the underlying stream. The
// StreamWriter must not be reused afterward.
func (w *StreamWriter) Close() error {
	if _, err := w.dst.Write(w.buf); err != nil {
		return wrapIo(err)
	}
	return nil
}
