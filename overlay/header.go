// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package overlay

import (
	"fmt"

	"github.com/NOT-REAL-GAMES/Taffy/container"
	"github.com/NOT-REAL-GAMES/Taffy/internal/wire"
)

// HeaderSize is the fixed on-disk size of [Header].
const HeaderSize = 64

var magic = [4]byte{'T', 'A', 'F', 'O'}

// Header is the fixed leading record of a .tafo file. It is deliberately
// smaller than [container.Header]: an overlay carries no creator,
// description, or world bounds — only enough metadata to locate its
// target and operation arrays.
type Header struct {
	Magic          [4]byte
	VersionMajor   uint32
	VersionMinor   uint32
	VersionPatch   uint32
	FeatureFlags   container.FeatureFlags
	OperationCount uint32
	TargetCount    uint32
	TotalSize      uint64
}

func newHeader() Header {
	return Header{
		Magic:        magic,
		VersionMajor: 1,
		VersionMinor: 0,
		VersionPatch: 0,
		FeatureFlags: container.FeatureHashBasedNames,
	}
}

// Marshal writes h in its exact 64-byte packed little-endian layout.
func (h *Header) Marshal() []byte {
	w := wire.NewWriter(HeaderSize)
	w.Raw(h.Magic[:])
	w.U32(h.VersionMajor)
	w.U32(h.VersionMinor)
	w.U32(h.VersionPatch)
	w.U64(uint64(h.FeatureFlags))
	w.U32(h.OperationCount)
	w.U32(h.TargetCount)
	w.U64(h.TotalSize)
	w.Zero(HeaderSize - w.Len())
	return w.Bytes()
}

// UnmarshalHeader parses a 64-byte buffer into a Header.
func UnmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("overlay: header buffer is %d bytes, want %d", len(buf), HeaderSize)
	}
	r := wire.NewReader(buf)
	var h Header
	m, _ := r.Raw(4)
	copy(h.Magic[:], m)
	h.VersionMajor, _ = r.U32()
	h.VersionMinor, _ = r.U32()
	h.VersionPatch, _ = r.U32()
	ff, _ := r.U64()
	h.FeatureFlags = container.FeatureFlags(ff)
	h.OperationCount, _ = r.U32()
	h.TargetCount, _ = r.U32()
	h.TotalSize, _ = r.U64()
	return h, nil
}

// TargetAssetSize is the fixed on-disk size of [TargetAsset].
const TargetAssetSize = 128

// pathFieldSize and semverFieldSize are TargetAsset's two fixed
// string fields.
const (
	pathFieldSize   = 96
	semverFieldSize = 16
)

// TargetAsset names one asset an overlay applies to. TargetHash is
// left zero by [Overlay.AddTargetAsset] — path-based hash matching is
// reserved for a future revision (see [Overlay.TargetsAsset]).
type TargetAsset struct {
	Path              string
	TargetHash        uint64
	SemverRequirement string
	RequiredFeatures  container.FeatureFlags
}

func (t *TargetAsset) marshal(w *wire.Writer) {
	w.FixedString(t.Path, pathFieldSize)
	w.U64(t.TargetHash)
	w.FixedString(t.SemverRequirement, semverFieldSize)
	w.U64(uint64(t.RequiredFeatures))
}

func parseTargetAsset(r *wire.Reader) (TargetAsset, error) {
	var t TargetAsset
	var err error
	if t.Path, err = r.FixedString(pathFieldSize); err != nil {
		return t, err
	}
	if t.TargetHash, err = r.U64(); err != nil {
		return t, err
	}
	if t.SemverRequirement, err = r.FixedString(semverFieldSize); err != nil {
		return t, err
	}
	features, err := r.U64()
	if err != nil {
		return t, err
	}
	t.RequiredFeatures = container.FeatureFlags(features)
	return t, nil
}
