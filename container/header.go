// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"fmt"

	"github.com/NOT-REAL-GAMES/Taffy/errs"
	"github.com/NOT-REAL-GAMES/Taffy/internal/wire"
)

// ChunkTag is a 32-bit FourCC chunk-type tag, the little-endian
// interpretation of four ASCII bytes.
type ChunkTag uint32

// Chunk tags, little-endian FourCC of their ASCII names.
const (
	TagGeometry ChunkTag = 0x4D4F4547 // GEOM
	TagMaterial ChunkTag = 0x4C52544D // MTRL
	TagShader   ChunkTag = 0x52444853 // SHDR
	TagTexture  ChunkTag = 0x52545854 // TXTR
	TagAnim     ChunkTag = 0x4D494E41 // ANIM
	TagScript   ChunkTag = 0x54504353 // SCPT
	TagPhysics  ChunkTag = 0x53594850 // PHYS
	TagAudio    ChunkTag = 0x49445541 // AUDI
	TagFont     ChunkTag = 0x544E4F46 // FONT
	TagOverlay  ChunkTag = 0x4C52564F // OVRL
	TagChkOver  ChunkTag = 0x4F4B4843 // CHKO
	TagFracture ChunkTag = 0x43415246 // FRAC
	TagParticle ChunkTag = 0x54524150 // PART
	TagSVGUI    ChunkTag = 0x55475653 // SVGU
	TagDeps     ChunkTag = 0x53504544 // DEPS
)

// String renders a ChunkTag back to its four ASCII characters, mostly
// for error messages and log lines.
func (t ChunkTag) String() string {
	b := [4]byte{byte(t), byte(t >> 8), byte(t >> 16), byte(t >> 24)}
	return string(b[:])
}

// FeatureFlags is the 64-bit capability bitmask carried in the header.
type FeatureFlags uint64

// Feature flags. Bits 0-16 describe rendering/content/streaming
// capabilities; bits 32+ describe AI/runtime capabilities inherited
// unchanged from the original format.
const (
	FeatureNone            FeatureFlags = 0
	FeatureQuantizedCoords FeatureFlags = 1 << 0
	FeatureMeshShaders     FeatureFlags = 1 << 1
	FeatureEmbeddedShaders FeatureFlags = 1 << 2
	FeatureSPIRVCross      FeatureFlags = 1 << 3
	FeatureHashBasedNames  FeatureFlags = 1 << 4
	FeatureFracturing      FeatureFlags = 1 << 5
	FeatureParticleSystems FeatureFlags = 1 << 6
	FeaturePBRMaterials    FeatureFlags = 1 << 7
	FeatureAnimation       FeatureFlags = 1 << 8
	FeaturePhysics         FeatureFlags = 1 << 9
	FeatureAudio           FeatureFlags = 1 << 10
	FeatureScripting       FeatureFlags = 1 << 11
	FeatureMultiLOD        FeatureFlags = 1 << 12
	FeatureVirtualTextures FeatureFlags = 1 << 13
	FeatureSVGUI           FeatureFlags = 1 << 14
	FeatureOverlaySupport  FeatureFlags = 1 << 15
	FeatureStreaming       FeatureFlags = 1 << 16
	FeatureAIBehavior      FeatureFlags = 1 << 32
	FeatureNPUProcessing   FeatureFlags = 1 << 33
	FeatureLocalLLM        FeatureFlags = 1 << 34
	FeaturePsychological   FeatureFlags = 1 << 35
)

// Has reports exact-mask membership: (flags & want) == want.
func (f FeatureFlags) Has(want FeatureFlags) bool { return f&want == want }

// AssetType discriminates a header's role.
type AssetType uint32

const (
	AssetMaster  AssetType = 0
	AssetOverlay AssetType = 1
)

// magicMaster and magicOverlay are the 4-byte file signatures.
var (
	magicMaster  = [4]byte{'T', 'A', 'F', '!'}
	magicOverlay = [4]byte{'T', 'A', 'F', 'O'}
)

// Vec3Q is a quantized 3-vector: three signed 64-bit integers at a
// fixed-point precision of 1/128000 of a world unit.
type Vec3Q struct {
	X, Y, Z int64
}

// headerSize is the fixed on-disk size of [Header] in bytes.
const headerSize = 360

// HeaderSize returns the fixed on-disk size of a [Header], for
// callers that need to size a read buffer before calling
// [UnmarshalHeader].
func HeaderSize() int { return headerSize }

// Header is the fixed leading record of every TAF/TAFO file.
type Header struct {
	Magic           [4]byte
	VersionMajor    uint32
	VersionMinor    uint32
	VersionPatch    uint32
	AssetType       AssetType
	FeatureFlags    FeatureFlags
	ChunkCount      uint32
	DependencyCount uint32
	AIModelCount    uint32
	TotalSize       uint64
	WorldBoundsMin  Vec3Q
	WorldBoundsMax  Vec3Q
	CreatedAt       uint64
	Creator         string
	Description     string
}

// newMasterHeader returns the header [New] constructs: magic "TAF!",
// version 1.0.0, asset type master, zero feature flags.
func newMasterHeader() Header {
	return Header{
		Magic:        magicMaster,
		VersionMajor: 1,
		VersionMinor: 0,
		VersionPatch: 0,
		AssetType:    AssetMaster,
	}
}

// Marshal writes h in the exact 360-byte packed little-endian layout.
func (h *Header) Marshal() []byte {
	w := wire.NewWriter(headerSize)
	w.Raw(h.Magic[:])
	w.U32(h.VersionMajor)
	w.U32(h.VersionMinor)
	w.U32(h.VersionPatch)
	w.U32(uint32(h.AssetType))
	w.U64(uint64(h.FeatureFlags))
	w.U32(h.ChunkCount)
	w.U32(h.DependencyCount)
	w.U32(h.AIModelCount)
	w.U64(h.TotalSize)
	w.I64(h.WorldBoundsMin.X)
	w.I64(h.WorldBoundsMin.Y)
	w.I64(h.WorldBoundsMin.Z)
	w.I64(h.WorldBoundsMax.X)
	w.I64(h.WorldBoundsMax.Y)
	w.I64(h.WorldBoundsMax.Z)
	w.U64(h.CreatedAt)
	w.FixedString(h.Creator, 64)
	w.FixedString(h.Description, 128)
	w.Zero(16 * 4) // reserved[16] uint32
	return w.Bytes()
}

// UnmarshalHeader parses a 360-byte buffer into a Header. It performs
// no validation beyond what's needed to decode the fields — callers
// that need the §4.2 load-time sanity checks use [ValidateHeader].
func UnmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize {
		return Header{}, fmt.Errorf("container: header buffer is %d bytes, want %d", len(buf), headerSize)
	}
	r := wire.NewReader(buf)
	var h Header
	magic, _ := r.Raw(4)
	copy(h.Magic[:], magic)
	h.VersionMajor, _ = r.U32()
	h.VersionMinor, _ = r.U32()
	h.VersionPatch, _ = r.U32()
	at, _ := r.U32()
	h.AssetType = AssetType(at)
	ff, _ := r.U64()
	h.FeatureFlags = FeatureFlags(ff)
	h.ChunkCount, _ = r.U32()
	h.DependencyCount, _ = r.U32()
	h.AIModelCount, _ = r.U32()
	h.TotalSize, _ = r.U64()
	h.WorldBoundsMin.X, _ = r.I64()
	h.WorldBoundsMin.Y, _ = r.I64()
	h.WorldBoundsMin.Z, _ = r.I64()
	h.WorldBoundsMax.X, _ = r.I64()
	h.WorldBoundsMax.Y, _ = r.I64()
	h.WorldBoundsMax.Z, _ = r.I64()
	h.CreatedAt, _ = r.U64()
	h.Creator, _ = r.FixedString(64)
	h.Description, _ = r.FixedString(128)
	return h, nil
}

// ValidateHeader applies the §4.2 load-time sanity checks: magic must
// be "TAF!", version components must be plausible, chunk count must be
// bounded, and total size must match the file on disk.
func ValidateHeader(h Header, fileSize int64) error {
	if h.Magic != magicMaster {
		return &errs.ValidationError{What: "magic", Detail: fmt.Sprintf("got %q, want %q", h.Magic[:], magicMaster[:])}
	}
	if h.VersionMajor > 100 || h.VersionMinor > 100 || h.VersionPatch > 1000 {
		return &errs.ValidationError{What: "version", Detail: fmt.Sprintf("%d.%d.%d is outside the sane range", h.VersionMajor, h.VersionMinor, h.VersionPatch)}
	}
	if h.ChunkCount > 1000 {
		return &errs.ValidationError{What: "chunk_count", Detail: fmt.Sprintf("%d exceeds the sanity cap of 1000", h.ChunkCount)}
	}
	if int64(h.TotalSize) != fileSize {
		return &errs.ValidationError{What: "total_size", Detail: fmt.Sprintf("header says %d, file is %d bytes", h.TotalSize, fileSize)}
	}
	return nil
}

// directoryEntrySize is the fixed on-disk size of [DirectoryEntry].
const directoryEntrySize = 76

// DirectoryEntrySize returns the fixed on-disk size of a
// [DirectoryEntry], for callers that need to size a read buffer
// before calling [UnmarshalDirectoryEntry].
func DirectoryEntrySize() int { return directoryEntrySize }

// DirectoryEntry describes one chunk's location and integrity.
type DirectoryEntry struct {
	Tag      ChunkTag
	Flags    uint32
	Offset   uint64
	Size     uint64
	Checksum uint32
	Name     string
}

// Marshal writes e in the exact 76-byte packed little-endian layout.
func (e *DirectoryEntry) Marshal() []byte {
	w := wire.NewWriter(directoryEntrySize)
	w.U32(uint32(e.Tag))
	w.U32(e.Flags)
	w.U64(e.Offset)
	w.U64(e.Size)
	w.U32(e.Checksum)
	w.FixedString(e.Name, 32)
	w.Zero(4 * 4) // reserved[4] uint32
	return w.Bytes()
}

// UnmarshalDirectoryEntry parses a 76-byte buffer into a DirectoryEntry.
func UnmarshalDirectoryEntry(buf []byte) (DirectoryEntry, error) {
	if len(buf) < directoryEntrySize {
		return DirectoryEntry{}, fmt.Errorf("container: directory entry buffer is %d bytes, want %d", len(buf), directoryEntrySize)
	}
	r := wire.NewReader(buf)
	var e DirectoryEntry
	tag, _ := r.U32()
	e.Tag = ChunkTag(tag)
	e.Flags, _ = r.U32()
	e.Offset, _ = r.U64()
	e.Size, _ = r.U64()
	e.Checksum, _ = r.U32()
	e.Name, _ = r.FixedString(32)
	return e, nil
}
