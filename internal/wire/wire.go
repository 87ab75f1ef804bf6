// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire holds the little-endian, zero-padding primitives that
// every Taffy payload schema marshals itself with. Nothing in this
// module relies on Go struct memory layout to produce the on-disk
// bytes — every field is written or read explicitly through a
// [Writer] or [Reader] so the format stays bit-exact regardless of
// compiler, platform, or struct field order.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer accumulates little-endian bytes into a growable buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with an empty buffer of capacity
// sizeHint. Passing a capacity hint here avoids repeated reallocation for the
// larger payloads (geometry vertex arrays, shader blobs).
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// U8 appends a single byte.
func (w *Writer) U8(v uint8) { w.buf = append(w.buf, v) }

// U32 appends a little-endian uint32.
func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// U64 appends a little-endian uint64.
func (w *Writer) U64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// I64 appends a little-endian int64.
func (w *Writer) I64(v int64) { w.U64(uint64(v)) }

// F32 appends a little-endian IEEE-754 float32.
func (w *Writer) F32(v float32) { w.U32(math.Float32bits(v)) }

// Raw appends b verbatim.
func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }

// Zero appends n zero bytes, used for reserved padding fields.
func (w *Writer) Zero(n int) { w.buf = append(w.buf, make([]byte, n)...) }

// FixedString appends s truncated (never split mid-rune awareness is
// not attempted — names and descriptions are treated as raw bytes, per
// the container's own "truncate at N bytes, NUL-terminate" contract)
// to size-1 bytes, NUL-terminated, and zero-padded to exactly size
// bytes.
func (w *Writer) FixedString(s string, size int) {
	b := make([]byte, size)
	n := len(s)
	if n > size-1 {
		n = size - 1
	}
	copy(b, s[:n])
	w.buf = append(w.buf, b...)
}

// Reader consumes little-endian bytes from a fixed buffer, tracking
// its own cursor and refusing to read past the end.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader over buf, starting at offset 0.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Pos returns the current read cursor.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// need fails fast with a descriptive error rather than panicking on
// a slice-bounds mismatch, which is the failure mode every caller
// needs to turn into a *errs.ValidationError or *errs.OperationError.
func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return fmt.Errorf("wire: need %d bytes at offset %d, have %d", n, r.pos, r.Remaining())
	}
	return nil
}

// U8 reads a single byte.
func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// I64 reads a little-endian int64.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// F32 reads a little-endian IEEE-754 float32.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// Raw reads n raw bytes and returns a copy.
func (r *Reader) Raw(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+n])
	r.pos += n
	return b, nil
}

// Skip advances the cursor by n bytes without copying.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// FixedString reads size bytes and returns the string up to the first
// NUL byte (or the full size bytes if unterminated).
func (r *Reader) FixedString(size int) (string, error) {
	b, err := r.Raw(size)
	if err != nil {
		return "", err
	}
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), nil
		}
	}
	return string(b), nil
}
