// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/NOT-REAL-GAMES/Taffy/errs"
)

// spirvMagic is the little-endian SPIR-V magic word every shader blob
// must begin with.
const spirvMagic = 0x07230203

// shaderPayloadHeaderSize and shaderDescriptorSize are the fixed
// on-disk sizes of the SHDR payload header and one shader descriptor
// record (see package chunk). Duplicated here, rather than imported,
// because container must not depend on chunk — chunk depends on
// container's tag constants, and a save-time diagnostic over raw SHDR
// bytes has no need for chunk's typed descriptors.
const (
	shaderPayloadHeaderSize = 16
	shaderDescriptorSize    = 60
)

// Asset is a mapping from chunk tag to payload bytes, plus the header
// metadata and chunk directory that describe them on disk. An Asset
// exclusively owns its payloads; offsets in its directory are zero
// until [Asset.SaveToFile] lays the file out.
type Asset struct {
	header    Header
	directory []DirectoryEntry
	payloads  map[ChunkTag][]byte
	logger    *slog.Logger
}

// New constructs an empty Asset: magic "TAF!", version 1.0.0, zero
// feature flags, empty directory.
func New() *Asset {
	return &Asset{
		header:   newMasterHeader(),
		payloads: make(map[ChunkTag][]byte),
		logger:   slog.New(slog.DiscardHandler),
	}
}

// SetLogger attaches a logger used for the save-time SPIR-V magic
// diagnostic. A nil logger restores the discard logger.
func (a *Asset) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a.logger = logger
}

// SetCreator truncates s at 63 bytes and stores it NUL-terminated.
func (a *Asset) SetCreator(s string) { a.header.Creator = truncate(s, 63) }

// SetDescription truncates s at 127 bytes and stores it NUL-terminated.
func (a *Asset) SetDescription(s string) { a.header.Description = truncate(s, 127) }

// Creator returns the current creator string.
func (a *Asset) Creator() string { return a.header.Creator }

// Description returns the current description string.
func (a *Asset) Description() string { return a.header.Description }

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// SetFeatureFlags sets the header's feature-flag bitmask.
func (a *Asset) SetFeatureFlags(flags FeatureFlags) { a.header.FeatureFlags = flags }

// FeatureFlags returns the header's current feature-flag bitmask.
func (a *Asset) FeatureFlags() FeatureFlags { return a.header.FeatureFlags }

// HasFeature reports exact-mask membership of want in the header's
// feature flags.
func (a *Asset) HasFeature(want FeatureFlags) bool { return a.header.FeatureFlags.Has(want) }

// SetWorldBounds sets the quantized world bounds recorded in the
// header.
func (a *Asset) SetWorldBounds(min, max Vec3Q) {
	a.header.WorldBoundsMin = min
	a.header.WorldBoundsMax = max
}

// AddChunk stores payload under tag, overwriting any prior payload
// with the same tag, and appends (or updates in place, if tag already
// has a directory entry) a directory entry whose size and CRC32 are
// computed over payload. Offset is left at zero — it is only assigned
// at save time.
func (a *Asset) AddChunk(tag ChunkTag, payload []byte, name string) {
	data := append([]byte(nil), payload...)
	a.payloads[tag] = data

	entry := DirectoryEntry{
		Tag:      tag,
		Offset:   0,
		Size:     uint64(len(data)),
		Checksum: checksum(data),
		Name:     truncate(name, 31),
	}

	for i, e := range a.directory {
		if e.Tag == tag {
			a.directory[i] = entry
			return
		}
	}
	a.directory = append(a.directory, entry)
	a.header.ChunkCount = uint32(len(a.directory))
}

// HasChunk reports whether tag has a stored payload.
func (a *Asset) HasChunk(tag ChunkTag) bool {
	_, ok := a.payloads[tag]
	return ok
}

// RemoveChunk deletes tag's payload and directory entry, if present.
func (a *Asset) RemoveChunk(tag ChunkTag) {
	delete(a.payloads, tag)
	for i, e := range a.directory {
		if e.Tag == tag {
			a.directory = append(a.directory[:i], a.directory[i+1:]...)
			break
		}
	}
	a.header.ChunkCount = uint32(len(a.directory))
}

// ChunkData returns a copy of tag's payload bytes, or (nil, false) if
// no such chunk exists.
func (a *Asset) ChunkData(tag ChunkTag) ([]byte, bool) {
	data, ok := a.payloads[tag]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// ChunkTypes returns the set of chunk tags currently present, in
// directory order.
func (a *Asset) ChunkTypes() []ChunkTag {
	out := make([]ChunkTag, len(a.directory))
	for i, e := range a.directory {
		out[i] = e.Tag
	}
	return out
}

// ChunkCount returns the number of chunks currently present.
func (a *Asset) ChunkCount() int { return len(a.directory) }

// DirectoryEntries returns a copy of the directory, in insertion
// order, reflecting whatever offsets were last computed by
// [Asset.SaveToFile] (zero before the first save).
func (a *Asset) DirectoryEntries() []DirectoryEntry {
	return append([]DirectoryEntry(nil), a.directory...)
}

// FileSize returns header_size + directory_len*entry_size +
// Σ payload_len, the size the asset would occupy on disk if saved
// right now.
func (a *Asset) FileSize() int64 {
	total := int64(headerSize) + int64(len(a.directory))*int64(directoryEntrySize)
	for _, e := range a.directory {
		total += int64(e.Size)
	}
	return total
}

// Clone deep-copies the header, directory, and every payload.
func (a *Asset) Clone() *Asset {
	out := &Asset{
		header:    a.header,
		directory: append([]DirectoryEntry(nil), a.directory...),
		payloads:  make(map[ChunkTag][]byte, len(a.payloads)),
		logger:    a.logger,
	}
	for tag, data := range a.payloads {
		out.payloads[tag] = append([]byte(nil), data...)
	}
	return out
}

// SaveToFile lays out and writes the asset to path, following the
// §4.2 save algorithm: header's chunk_count, directory length, and
// payload-map size must agree (an IntegrityError otherwise); offsets
// are assigned by walking the directory in insertion order; every
// write is followed by a position check against the offset the writer
// expected to be at.
func (a *Asset) SaveToFile(path string) error {
	if int(a.header.ChunkCount) != len(a.directory) || len(a.directory) != len(a.payloads) {
		return &errs.IntegrityError{What: fmt.Sprintf(
			"chunk_count=%d directory_len=%d payload_count=%d disagree",
			a.header.ChunkCount, len(a.directory), len(a.payloads))}
	}

	dataStart := int64(headerSize) + int64(len(a.directory))*int64(directoryEntrySize)
	offset := dataStart
	for i := range a.directory {
		a.directory[i].Offset = uint64(offset)
		offset += int64(a.directory[i].Size)
	}
	a.header.TotalSize = uint64(offset)

	f, err := os.Create(path)
	if err != nil {
		return &errs.WriteError{Op: "open " + path, Err: err}
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

	headerBytes := a.header.Marshal()
	if err := writeChecked(headerBytes, 0); err != nil {
		return err
	}

	for _, e := range a.directory {
		if err := writeChecked(e.Marshal(), pos); err != nil {
			return err
		}
	}

	for _, e := range a.directory {
		payload := a.payloads[e.Tag]
		if err := writeChecked(payload, int64(e.Offset)); err != nil {
			return err
		}
		if e.Tag == TagShader {
			a.logShaderMagicDiagnostic(e, payload)
		}
	}

	return nil
}

// logShaderMagicDiagnostic logs, as a diagnostic only, whether the
// 32-bit word after the SHDR header and two shader descriptors (where
// the first SPIR-V blob starts in a two-shader payload) equals the
// SPIR-V magic word. It never fails the save.
func (a *Asset) logShaderMagicDiagnostic(entry DirectoryEntry, payload []byte) {
	const headerAndTwoDescriptors = shaderPayloadHeaderSize + 2*shaderDescriptorSize
	if len(payload) < headerAndTwoDescriptors+4 {
		return
	}
	word := binary.LittleEndian.Uint32(payload[headerAndTwoDescriptors:])
	a.logger.Debug("shader magic check",
		"chunk", entry.Tag.String(),
		"offset", entry.Offset+uint64(headerAndTwoDescriptors),
		"valid", word == spirvMagic)
}

// LoadFromFileSafe reads and validates a TAF file, following the
// §4.2 load algorithm. On success, the returned Asset's directory and
// payload map are guaranteed consistent (every CRC32 has been
// verified) and carry the offsets recorded on disk.
func LoadFromFileSafe(path string) (*Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &errs.ReadError{Op: "open " + path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &errs.ReadError{Op: "stat " + path, Err: err}
	}
	fileSize := info.Size()

	if fileSize < headerSize {
		return nil, &errs.ValidationError{What: "file size", Detail: fmt.Sprintf("%d bytes is smaller than the %d-byte header", fileSize, headerSize)}
	}

	headerBuf := make([]byte, headerSize)
	if _, err := io.ReadFull(f, headerBuf); err != nil {
		return nil, &errs.ReadError{Op: "read header", Err: err}
	}

	header, err := UnmarshalHeader(headerBuf)
	if err != nil {
		return nil, &errs.ReadError{Op: "parse header", Err: err}
	}

	if err := ValidateHeader(header, fileSize); err != nil {
		dump := headerBuf
		if len(dump) > 16 {
			dump = dump[:16]
		}
		if ve, ok := err.(*errs.ValidationError); ok {
			ve.Detail = fmt.Sprintf("%s (first 16 bytes: %x)", ve.Detail, dump)
			return nil, ve
		}
		return nil, err
	}

	directory := make([]DirectoryEntry, header.ChunkCount)
	entryBuf := make([]byte, directoryEntrySize)
	for i := range directory {
		if _, err := io.ReadFull(f, entryBuf); err != nil {
			return nil, &errs.ReadError{Op: fmt.Sprintf("read directory entry %d", i), Err: err}
		}
		entry, err := UnmarshalDirectoryEntry(entryBuf)
		if err != nil {
			return nil, &errs.ReadError{Op: fmt.Sprintf("parse directory entry %d", i), Err: err}
		}
		if int64(entry.Offset) >= fileSize || int64(entry.Offset)+int64(entry.Size) > fileSize {
			return nil, &errs.ValidationError{What: "directory entry bounds", Detail: fmt.Sprintf(
				"entry %d (%s): offset=%d size=%d exceeds file size %d", i, entry.Tag, entry.Offset, entry.Size, fileSize)}
		}
		directory[i] = entry
	}

	payloads := make(map[ChunkTag][]byte, len(directory))
	for _, e := range directory {
		if _, err := f.Seek(int64(e.Offset), io.SeekStart); err != nil {
			return nil, &errs.ReadError{Op: fmt.Sprintf("seek to chunk %s", e.Tag), Err: err}
		}
		data := make([]byte, e.Size)
		if _, err := io.ReadFull(f, data); err != nil {
			return nil, &errs.ReadError{Op: fmt.Sprintf("read chunk %s", e.Tag), Err: err}
		}
		actual := checksum(data)
		if actual != e.Checksum {
			return nil, &errs.ChecksumError{Chunk: e.Tag.String(), Expected: e.Checksum, Actual: actual}
		}
		payloads[e.Tag] = data
	}

	return &Asset{
		header:    header,
		directory: directory,
		payloads:  payloads,
		logger:    slog.New(slog.DiscardHandler),
	}, nil
}
