// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package chunkwriter

import (
	"fmt"
	"hash/crc32"
	"os"

	"github.com/NOT-REAL-GAMES/Taffy/container"
	"github.com/NOT-REAL-GAMES/Taffy/errs"
)

// pendingChunk is a buffered chunk awaiting [Writer.Finalize]. Its
// directory entry carries a placeholder offset of zero until
// Finalize rolls real offsets through the buffer.
type pendingChunk struct {
	entry   container.DirectoryEntry
	payload []byte
}

// Writer accumulates chunks in memory and commits a complete TAF file
// in one pass at [Writer.Finalize]. Begin reserves no disk space
// until Finalize writes the header, directory, and payloads in a
// single sequential pass.
type Writer struct {
	path string

	featureFlags container.FeatureFlags
	creator      string
	description  string

	pending   []pendingChunk
	finalized bool
}

// Begin starts a Writer for path. No file is created until
// [Writer.Finalize].
func Begin(path string) *Writer {
	return &Writer{path: path}
}

// SetFeatureFlags sets the feature-flag bitmask the finalized header
// will carry. [container.FeatureStreaming] is set automatically by
// Finalize and need not be passed here.
func (w *Writer) SetFeatureFlags(flags container.FeatureFlags) { w.featureFlags = flags }

// SetCreator sets the finalized header's creator field.
func (w *Writer) SetCreator(s string) { w.creator = s }

// SetDescription sets the finalized header's description field.
func (w *Writer) SetDescription(s string) { w.description = s }

// AddMetadataChunk buffers payload under tag with the given directory
// name. It returns an error once the writer has been finalized.
func (w *Writer) AddMetadataChunk(tag container.ChunkTag, payload []byte, name string) error {
	return w.addChunk(tag, payload, name)
}

// AddAudioChunk buffers one streaming audio chunk. index becomes the
// directory entry's name, "chunk-<index>", so [streaming.Loader] can
// still address it by position once the loader's directory is
// parsed.
func (w *Writer) AddAudioChunk(index int, payload []byte) error {
	return w.addChunk(container.TagAudio, payload, fmt.Sprintf("chunk-%d", index))
}

func (w *Writer) addChunk(tag container.ChunkTag, payload []byte, name string) error {
	if w.finalized {
		return &errs.OperationError{Op: "add chunk", What: "writer has already been finalized"}
	}
	data := append([]byte(nil), payload...)
	w.pending = append(w.pending, pendingChunk{
		entry: container.DirectoryEntry{
			Tag:      tag,
			Size:     uint64(len(data)),
			Checksum: crc32.ChecksumIEEE(data),
			Name:     name,
		},
		payload: data,
	})
	return nil
}

// Finalize computes final offsets by rolling the current write
// position through the buffered directory in insertion order, then
// writes the header, directory, and every payload in a single
// sequential pass. Finalize may be called at most once; a second call
// returns an error without touching disk.
func (w *Writer) Finalize() error {
	if w.finalized {
		return &errs.OperationError{Op: "finalize", What: "writer has already been finalized"}
	}
	w.finalized = true

	headerSize := container.HeaderSize()
	entrySize := container.DirectoryEntrySize()
	offset := uint64(headerSize + len(w.pending)*entrySize)

	entries := make([]container.DirectoryEntry, len(w.pending))
	for i, p := range w.pending {
		entries[i] = p.entry
		entries[i].Offset = offset
		offset += p.entry.Size
	}

	header := container.Header{
		Magic:        [4]byte{'T', 'A', 'F', '!'},
		VersionMajor: 1,
		ChunkCount:   uint32(len(w.pending)),
		FeatureFlags: w.featureFlags | container.FeatureStreaming,
		TotalSize:    offset,
		Creator:      w.creator,
		Description:  w.description,
	}

	f, err := os.Create(w.path)
	if err != nil {
		return &errs.WriteError{Op: "create " + w.path, Err: err}
	}
	defer f.Close()

	var pos int64
	writeChecked := func(b []byte, expected int64) error {
		if pos != expected {
			return &errs.WriteError{Op: "position check", Err: fmt.Errorf("expected to be at offset %d, actually at %d", expected, pos)}
		}
		n, err := f.Write(b)
		if err != nil {
			return &errs.WriteError{Op: "write", Err: err}
		}
		pos += int64(n)
		return nil
	}

	if err := writeChecked(header.Marshal(), 0); err != nil {
		return err
	}
	for _, e := range entries {
		entry := e
		if err := writeChecked(entry.Marshal(), pos); err != nil {
			return err
		}
	}
	for i, p := range w.pending {
		if err := writeChecked(p.payload, int64(entries[i].Offset)); err != nil {
			return err
		}
	}

	return nil
}

// ChunkCount returns the number of chunks buffered so far.
func (w *Writer) ChunkCount() int { return len(w.pending) }
