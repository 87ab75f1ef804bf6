// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package overlay

import (
	"fmt"
	"io"
	"os"

	"github.com/NOT-REAL-GAMES/Taffy/container"
	"github.com/NOT-REAL-GAMES/Taffy/errs"
	"github.com/NOT-REAL-GAMES/Taffy/internal/wire"
)

// Overlay is an in-memory .tafo document: targets, operations, and
// the shared data blob their (DataOffset, DataSize) windows address.
// Operations are appended in declaration order and applied in that
// same order by [Apply].
type Overlay struct {
	header     Header
	targets    []TargetAsset
	operations []Operation
	data       []byte
}

// New returns an empty overlay: magic "TAFO", version 1.0.0, feature
// flags requiring hash-based names on any target it is applied to.
func New() *Overlay {
	return &Overlay{header: newHeader()}
}

// AddTargetAsset records path as a target this overlay applies to,
// with semverReq as its minimum-compatible-version requirement.
// TargetHash is left zero; path-based hash matching is reserved for a
// future revision.
func (o *Overlay) AddTargetAsset(path, semverReq string) {
	o.targets = append(o.targets, TargetAsset{
		Path:              path,
		SemverRequirement: semverReq,
		RequiredFeatures:  container.FeatureHashBasedNames,
	})
}

func (o *Overlay) appendData(b []byte) (offset, size uint64) {
	offset = uint64(len(o.data))
	o.data = append(o.data, b...)
	size = uint64(len(b))
	return offset, size
}

// AddShaderReplacement appends a ShaderReplace op that swaps the
// SPIR-V blob of the shader descriptor whose name hash equals
// targetHash for spirv, recording replacementHash as the new name
// hash to assign it.
func (o *Overlay) AddShaderReplacement(targetHash, replacementHash uint64, spirv []byte) {
	offset, size := o.appendData(spirv)
	o.addOp(Operation{
		Kind:            OpShaderReplace,
		TargetChunkTag:  container.TagShader,
		TargetHash:      targetHash,
		ReplacementHash: replacementHash,
		DataOffset:      offset,
		DataSize:        size,
	})
}

// AddVertexColorChange appends a VertexColorChange op for the vertex
// at vertexIndex, carrying 16 bytes of rgba floats in the data blob.
func (o *Overlay) AddVertexColorChange(vertexIndex uint32, r, g, b, a float32) {
	w := wire.NewWriter(16)
	w.F32(r)
	w.F32(g)
	w.F32(b)
	w.F32(a)
	offset, size := o.appendData(w.Bytes())
	o.addOp(Operation{
		Kind:           OpVertexColorChange,
		TargetChunkTag: container.TagGeometry,
		TargetHash:     uint64(vertexIndex),
		DataOffset:     offset,
		DataSize:       size,
	})
}

func (o *Overlay) addTransform(kind OpKind, m [16]float32, flags, start, count uint32) {
	td := TransformationData{Matrix: m, Flags: flags, Start: start, Count: count}
	w := wire.NewWriter(TransformationDataSize)
	td.marshal(w)
	offset, size := o.appendData(w.Bytes())
	o.addOp(Operation{
		Kind:           kind,
		TargetChunkTag: container.TagGeometry,
		DataOffset:     offset,
		DataSize:       size,
	})
}

// AddScaleOperation appends a GeometryScale op covering vertices
// [start, start+count). transformNormals selects whether the
// matrix's linear part is also applied to normals (which are then
// renormalized).
func (o *Overlay) AddScaleOperation(sx, sy, sz float32, start, count uint32, transformNormals bool) {
	flags := TransformFlagPositions
	if transformNormals {
		flags |= TransformFlagNormals
	}
	o.addTransform(OpGeometryScale, scaleMatrix(sx, sy, sz), flags, start, count)
}

// AddRotationOperation appends a GeometryRotate op built from an
// axis-angle pair via Rodrigues' formula.
func (o *Overlay) AddRotationOperation(axisX, axisY, axisZ, angleRadians float32, start, count uint32, transformNormals bool) {
	flags := TransformFlagPositions
	if transformNormals {
		flags |= TransformFlagNormals
	}
	o.addTransform(OpGeometryRotate, rotationMatrix(axisX, axisY, axisZ, angleRadians), flags, start, count)
}

// AddTranslationOperation appends a GeometryTranslate op. Translation
// never affects normals, so unlike the other transform constructors it
// takes no transformNormals argument and sets only the positions flag
// (the linear part of a pure translation matrix is the identity).
func (o *Overlay) AddTranslationOperation(tx, ty, tz float32, start, count uint32) {
	o.addTransform(OpGeometryTranslate, translationMatrix(tx, ty, tz), TransformFlagPositions, start, count)
}

func (o *Overlay) addAttributeMod(kind OpKind, attributeOffset, attributeSize, vertexIndex uint32, op AttrOp, values [4]float32) {
	am := AttributeModification{AttributeOffset: attributeOffset, AttributeSize: attributeSize, VertexIndex: vertexIndex, Op: op, Values: values}
	w := wire.NewWriter(AttributeModificationSize)
	am.marshal(w)
	offset, size := o.appendData(w.Bytes())
	o.addOp(Operation{
		Kind:           kind,
		TargetChunkTag: container.TagGeometry,
		DataOffset:     offset,
		DataSize:       size,
	})
}

// AddVertexPositionChange appends a VertexPositionChange op that
// replaces the 12-byte position at the start of vertexIndex's vertex.
// Position offset within a vertex is always 0, regardless of feature
// flags.
func (o *Overlay) AddVertexPositionChange(vertexIndex uint32, x, y, z float32) {
	o.addAttributeMod(OpVertexPositionChange, 0, 12, vertexIndex, AttrReplace, [4]float32{x, y, z, 0})
}

// AddNormalChange appends a VertexAttributeChange op targeting the
// 12-byte normal at byte offset 12 of vertexIndex's vertex. If
// normalize is true the op discriminator is AttrNormalize instead of
// AttrReplace.
func (o *Overlay) AddNormalChange(vertexIndex uint32, nx, ny, nz float32, normalize bool) {
	op := AttrReplace
	if normalize {
		op = AttrNormalize
	}
	o.addAttributeMod(OpVertexAttributeChange, 12, 12, vertexIndex, op, [4]float32{nx, ny, nz, 0})
}

// uvAttributeOffset is the byte offset of the UV attribute within a
// vertex when quantized positions are in use. Non-quantized layouts
// are not addressed by this convenience constructor, and no exported
// constructor takes an explicit attribute offset.
const uvAttributeOffset = 52

// AddUVModification appends a UVModification op targeting
// vertexIndex's UV pair. flipU/flipV negate the corresponding
// component before writing.
func (o *Overlay) AddUVModification(vertexIndex uint32, u, v float32, flipU, flipV bool) {
	if flipU {
		u = -u
	}
	if flipV {
		v = -v
	}
	o.addAttributeMod(OpUVModification, uvAttributeOffset, 8, vertexIndex, AttrReplace, [4]float32{u, v, 0, 0})
}

// AddSubsetColorChange appends a VertexSubset op applying an rgba
// color AttributeModification to every vertex in [start, start+count).
func (o *Overlay) AddSubsetColorChange(start, count uint32, r, g, b, a float32) {
	subsetW := wire.NewWriter(SubsetRecordSize)
	subsetW.U32(start)
	subsetW.U32(count)

	am := AttributeModification{AttributeOffset: 0, AttributeSize: 16, VertexIndex: AllVertices, Op: AttrReplace, Values: [4]float32{r, g, b, a}}
	amW := wire.NewWriter(AttributeModificationSize)
	am.marshal(amW)

	blob := append(subsetW.Bytes(), amW.Bytes()...)
	offset, size := o.appendData(blob)
	o.addOp(Operation{
		Kind:           OpVertexSubset,
		TargetChunkTag: container.TagGeometry,
		DataOffset:     offset,
		DataSize:       size,
	})
}

// AddChunkReplacement appends a wholesale-replacement op (ChunkReplace,
// MaterialReplace, or GeometryModify depending on kind) writing data
// as the new payload under tag.
func (o *Overlay) AddChunkReplacement(kind OpKind, tag container.ChunkTag, data []byte) {
	offset, size := o.appendData(data)
	o.addOp(Operation{
		Kind:           kind,
		TargetChunkTag: tag,
		DataOffset:     offset,
		DataSize:       size,
	})
}

func (o *Overlay) addOp(op Operation) {
	o.operations = append(o.operations, op)
	o.header.OperationCount = uint32(len(o.operations))
	o.header.TargetCount = uint32(len(o.targets))
}

// Operations returns a copy of the operation list in declaration order.
func (o *Overlay) Operations() []Operation {
	return append([]Operation(nil), o.operations...)
}

// Targets returns a copy of the target-asset list.
func (o *Overlay) Targets() []TargetAsset {
	return append([]TargetAsset(nil), o.targets...)
}

// DataWindow returns the slice of the shared data blob addressed by
// (offset, size).
func (o *Overlay) DataWindow(offset, size uint64) ([]byte, error) {
	end := offset + size
	if end > uint64(len(o.data)) {
		return nil, &errs.OperationError{Op: "data window", What: fmt.Sprintf("[%d,%d) exceeds data blob length %d", offset, end, len(o.data))}
	}
	return o.data[offset:end], nil
}

// currentEngineMajorVersion is the highest overlay major version this
// package knows how to apply. An overlay built against a newer major
// version is rejected rather than applied with unknown semantics.
const currentEngineMajorVersion = 1

// TargetsAsset reports whether this overlay is eligible to apply to
// asset: the asset's feature flags must include hash-based names, and
// the overlay's major version must not exceed the current engine's.
// Path-based hash equality is reserved for a future revision — this
// check is purely capability- and version-based.
func (o *Overlay) TargetsAsset(asset *container.Asset) bool {
	if !asset.HasFeature(container.FeatureHashBasedNames) {
		return false
	}
	if o.header.VersionMajor > currentEngineMajorVersion {
		return false
	}
	return true
}

// SaveToFile lays out and writes the overlay: header, target array,
// operation array, then the shared data blob.
func (o *Overlay) SaveToFile(path string) error {
	header := o.header
	header.OperationCount = uint32(len(o.operations))
	header.TargetCount = uint32(len(o.targets))
	header.TotalSize = uint64(HeaderSize) +
		uint64(len(o.targets))*TargetAssetSize +
		uint64(len(o.operations))*OperationSize +
		uint64(len(o.data))

	f, err := os.Create(path)
	if err != nil {
		return &errs.WriteError{Op: "open " + path, Err: err}
	}
	defer f.Close()

	if _, err := f.Write(header.Marshal()); err != nil {
		return &errs.WriteError{Op: "write header", Err: err}
	}
	for i := range o.targets {
		w := wire.NewWriter(TargetAssetSize)
		o.targets[i].marshal(w)
		if _, err := f.Write(w.Bytes()); err != nil {
			return &errs.WriteError{Op: "write target", Err: err}
		}
	}
	for i := range o.operations {
		w := wire.NewWriter(OperationSize)
		o.operations[i].marshal(w)
		if _, err := f.Write(w.Bytes()); err != nil {
			return &errs.WriteError{Op: "write operation", Err: err}
		}
	}
	if _, err := f.Write(o.data); err != nil {
		return &errs.WriteError{Op: "write data blob", Err: err}
	}
	return nil
}

// LoadFromFile reads and parses a complete .tafo document.
func LoadFromFile(path string) (*Overlay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &errs.ReadError{Op: "open " + path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &errs.ReadError{Op: "stat " + path, Err: err}
	}
	if info.Size() < HeaderSize {
		return nil, &errs.ValidationError{What: "file size", Detail: fmt.Sprintf("%d bytes is smaller than the %d-byte header", info.Size(), HeaderSize)}
	}

	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, headerBuf); err != nil {
		return nil, &errs.ReadError{Op: "read header", Err: err}
	}
	header, err := UnmarshalHeader(headerBuf)
	if err != nil {
		return nil, &errs.ReadError{Op: "parse header", Err: err}
	}
	if header.Magic != magic {
		return nil, &errs.ValidationError{What: "magic", Detail: fmt.Sprintf("got %q, want %q", header.Magic[:], magic[:])}
	}

	targets := make([]TargetAsset, header.TargetCount)
	targetBuf := make([]byte, TargetAssetSize)
	for i := range targets {
		if _, err := io.ReadFull(f, targetBuf); err != nil {
			return nil, &errs.ReadError{Op: fmt.Sprintf("read target %d", i), Err: err}
		}
		t, err := parseTargetAsset(wire.NewReader(targetBuf))
		if err != nil {
			return nil, &errs.ReadError{Op: fmt.Sprintf("parse target %d", i), Err: err}
		}
		targets[i] = t
	}

	operations := make([]Operation, header.OperationCount)
	opBuf := make([]byte, OperationSize)
	for i := range operations {
		if _, err := io.ReadFull(f, opBuf); err != nil {
			return nil, &errs.ReadError{Op: fmt.Sprintf("read operation %d", i), Err: err}
		}
		op, err := parseOperation(wire.NewReader(opBuf))
		if err != nil {
			return nil, &errs.ReadError{Op: fmt.Sprintf("parse operation %d", i), Err: err}
		}
		operations[i] = op
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &errs.ReadError{Op: "read data blob", Err: err}
	}

	return &Overlay{header: header, targets: targets, operations: operations, data: data}, nil
}
