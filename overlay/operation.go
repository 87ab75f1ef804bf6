// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package overlay

import (
	"fmt"

	"github.com/NOT-REAL-GAMES/Taffy/container"
	"github.com/NOT-REAL-GAMES/Taffy/internal/wire"
)

// OpKind is the closed set of overlay mutation operations. Numbering
// is stable across implementations since it is embedded in every
// .tafo file ever written.
type OpKind uint32

const (
	OpChunkReplace         OpKind = 0
	OpShaderReplace        OpKind = 1
	OpVertexColorChange    OpKind = 2
	OpMaterialReplace      OpKind = 3
	OpGeometryModify       OpKind = 4
	OpVertexPositionChange OpKind = 5
	OpVertexAttributeChange OpKind = 6
	OpGeometryTransform    OpKind = 7
	OpGeometryScale        OpKind = 8
	OpGeometryRotate       OpKind = 9
	OpGeometryTranslate    OpKind = 10
	OpUVModification       OpKind = 11
	OpNormalRecalculation  OpKind = 12
	OpVertexSubset         OpKind = 13
)

// OperationSize is the fixed on-disk size of one [Operation] record.
const OperationSize = 48

// Operation is one typed, data-parameterized mutation. TargetHash is
// reinterpreted by some op kinds as a plain index (VertexColorChange
// stores a vertex index there, not a hash; it is the only kind that
// does). DataOffset/DataSize address a window into the
// overlay's shared data blob.
type Operation struct {
	Kind            OpKind
	TargetChunkTag  container.ChunkTag
	TargetHash      uint64
	ReplacementHash uint64
	DataOffset      uint64
	DataSize        uint64
}

func (op *Operation) marshal(w *wire.Writer) {
	w.U32(uint32(op.Kind))
	w.U32(uint32(op.TargetChunkTag))
	w.U64(op.TargetHash)
	w.U64(op.ReplacementHash)
	w.U64(op.DataOffset)
	w.U64(op.DataSize)
	w.Zero(OperationSize - 4 - 4 - 8 - 8 - 8 - 8)
}

func parseOperation(r *wire.Reader) (Operation, error) {
	var op Operation
	var err error
	kind, err := r.U32()
	if err != nil {
		return op, err
	}
	op.Kind = OpKind(kind)
	tag, err := r.U32()
	if err != nil {
		return op, err
	}
	op.TargetChunkTag = container.ChunkTag(tag)
	if op.TargetHash, err = r.U64(); err != nil {
		return op, err
	}
	if op.ReplacementHash, err = r.U64(); err != nil {
		return op, err
	}
	if op.DataOffset, err = r.U64(); err != nil {
		return op, err
	}
	if op.DataSize, err = r.U64(); err != nil {
		return op, err
	}
	if err := r.Skip(OperationSize - 4 - 4 - 8 - 8 - 8 - 8); err != nil {
		return op, err
	}
	return op, nil
}

// TransformationDataSize is the fixed on-disk size of a
// [TransformationData] record embedded in the data blob for
// GeometryScale / GeometryRotate / GeometryTranslate / GeometryTransform.
const TransformationDataSize = 16*4 + 4 + 4 + 4

// TransformFlagPositions and TransformFlagNormals select which vertex
// attributes a [TransformationData] applies to.
const (
	TransformFlagPositions uint32 = 1 << 0
	TransformFlagNormals   uint32 = 1 << 1
)

// AllVertices is the [TransformationData.Count] sentinel meaning
// "every vertex from Start to the end of the buffer", and the
// [AttributeModification.VertexIndex] sentinel meaning "every vertex".
const AllVertices uint32 = 0xFFFFFFFF

// TransformationData is the data-blob payload for a geometry
// transform operation: a row-major 4x4 matrix, a flag mask selecting
// which attributes it applies to, and the vertex range it covers.
type TransformationData struct {
	Matrix     [16]float32 // row-major
	Flags      uint32
	Start      uint32
	Count      uint32 // AllVertices means "to the end"
}

func (t *TransformationData) marshal(w *wire.Writer) {
	for _, v := range t.Matrix {
		w.F32(v)
	}
	w.U32(t.Flags)
	w.U32(t.Start)
	w.U32(t.Count)
}

func parseTransformationData(buf []byte) (TransformationData, error) {
	var t TransformationData
	r := wire.NewReader(buf)
	var err error
	for i := range t.Matrix {
		if t.Matrix[i], err = r.F32(); err != nil {
			return t, err
		}
	}
	if t.Flags, err = r.U32(); err != nil {
		return t, err
	}
	if t.Start, err = r.U32(); err != nil {
		return t, err
	}
	if t.Count, err = r.U32(); err != nil {
		return t, err
	}
	return t, nil
}

// AttrOp discriminates how an [AttributeModification] combines its
// values with the existing attribute bytes.
type AttrOp uint32

const (
	AttrReplace   AttrOp = 0
	AttrAdd       AttrOp = 1
	AttrMultiply  AttrOp = 2
	AttrNormalize AttrOp = 3
)

// AttributeModificationSize is the fixed on-disk size of an
// [AttributeModification] record.
const AttributeModificationSize = 4 + 4 + 4 + 4 + 4*4

// AttributeModification is the data-blob payload for a per-vertex
// attribute edit. VertexIndex of [AllVertices] means "every vertex".
type AttributeModification struct {
	AttributeOffset uint32
	AttributeSize   uint32 // one of 4, 8, 12, 16
	VertexIndex     uint32
	Op              AttrOp
	Values          [4]float32
}

func (a *AttributeModification) marshal(w *wire.Writer) {
	w.U32(a.AttributeOffset)
	w.U32(a.AttributeSize)
	w.U32(a.VertexIndex)
	w.U32(uint32(a.Op))
	for _, v := range a.Values {
		w.F32(v)
	}
}

func parseAttributeModification(buf []byte) (AttributeModification, error) {
	var a AttributeModification
	if len(buf) < AttributeModificationSize {
		return a, fmt.Errorf("overlay: attribute modification buffer is %d bytes, want %d", len(buf), AttributeModificationSize)
	}
	r := wire.NewReader(buf)
	var err error
	if a.AttributeOffset, err = r.U32(); err != nil {
		return a, err
	}
	if a.AttributeSize, err = r.U32(); err != nil {
		return a, err
	}
	if a.VertexIndex, err = r.U32(); err != nil {
		return a, err
	}
	op, err := r.U32()
	if err != nil {
		return a, err
	}
	a.Op = AttrOp(op)
	for i := range a.Values {
		if a.Values[i], err = r.F32(); err != nil {
			return a, err
		}
	}
	return a, nil
}

// SubsetRecordSize is the fixed on-disk size of a [SubsetRecord].
const SubsetRecordSize = 8

// SubsetRecord names a contiguous vertex range for VertexSubset,
// followed in the data blob by an [AttributeModification] applied to
// every vertex in the range.
type SubsetRecord struct {
	Start uint32
	Count uint32
}

func parseSubsetRecord(buf []byte) (SubsetRecord, error) {
	var s SubsetRecord
	if len(buf) < SubsetRecordSize {
		return s, fmt.Errorf("overlay: subset record buffer is %d bytes, want %d", len(buf), SubsetRecordSize)
	}
	r := wire.NewReader(buf)
	var err error
	if s.Start, err = r.U32(); err != nil {
		return s, err
	}
	if s.Count, err = r.U32(); err != nil {
		return s, err
	}
	return s, nil
}
