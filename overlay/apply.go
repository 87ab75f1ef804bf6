// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package overlay

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/NOT-REAL-GAMES/Taffy/chunk"
	"github.com/NOT-REAL-GAMES/Taffy/container"
	"github.com/NOT-REAL-GAMES/Taffy/errs"
)

// colorOffsetQuantized and colorOffsetPlain are the two byte offsets
// a vertex's color attribute can live at, branching on whether the
// target asset uses quantized positions (24-byte position + 12-byte
// normal = 36) or plain 32-bit positions (12-byte position + 12-byte
// normal = 24). This branch is policy, not self-description; see
// DESIGN.md's attribute-offset-policy note for the scope of where
// this branch applies and where it doesn't.
const (
	colorOffsetQuantized = 36
	colorOffsetPlain     = 24
)

func colorOffset(asset *container.Asset) uint32 {
	if asset.HasFeature(container.FeatureQuantizedCoords) {
		return colorOffsetQuantized
	}
	return colorOffsetPlain
}

// Apply mutates asset's chunk payloads according to every operation in
// o, in declaration order. It does not check [Overlay.TargetsAsset] —
// callers that need the capability gate call that first.
func Apply(o *Overlay, asset *container.Asset) error {
	for i, op := range o.operations {
		if err := applyOne(o, op, asset); err != nil {
			return fmt.Errorf("overlay: applying operation %d (%v): %w", i, op.Kind, err)
		}
	}
	return nil
}

func applyOne(o *Overlay, op Operation, asset *container.Asset) error {
	switch op.Kind {
	case OpShaderReplace:
		return applyShaderReplace(o, op, asset)
	case OpVertexColorChange:
		return applyVertexColorChange(o, op, asset)
	case OpVertexPositionChange, OpVertexAttributeChange:
		return applyAttributeModification(o, op, asset, op.TargetChunkTag)
	case OpGeometryScale, OpGeometryRotate, OpGeometryTranslate, OpGeometryTransform:
		return applyGeometryTransform(o, op, asset)
	case OpUVModification:
		return applyAttributeModification(o, op, asset, container.TagGeometry)
	case OpNormalRecalculation:
		// Specified only in name: implementations may defer it or
		// treat it as a no-op. This one treats it as a no-op.
		return nil
	case OpVertexSubset:
		return applyVertexSubset(o, op, asset)
	case OpChunkReplace, OpMaterialReplace, OpGeometryModify:
		return applyChunkReplace(o, op, asset)
	default:
		return &errs.OperationError{Op: "apply", What: fmt.Sprintf("unknown operation kind %d", op.Kind)}
	}
}

func replacePayload(asset *container.Asset, tag container.ChunkTag, payload []byte) {
	name := ""
	for _, e := range asset.DirectoryEntries() {
		if e.Tag == tag {
			name = e.Name
			break
		}
	}
	asset.AddChunk(tag, payload, name)
}

func applyShaderReplace(o *Overlay, op Operation, asset *container.Asset) error {
	spirv, err := o.DataWindow(op.DataOffset, op.DataSize)
	if err != nil {
		return err
	}
	raw, ok := asset.ChunkData(container.TagShader)
	if !ok {
		return &errs.OperationError{Op: "shader replace", What: "target has no SHDR chunk"}
	}
	payload, err := chunk.ParseShaderPayload(raw)
	if err != nil {
		return &errs.OperationError{Op: "shader replace", What: err.Error()}
	}
	idx := payload.FindByNameHash(op.TargetHash)
	if idx < 0 {
		return &errs.OperationError{Op: "shader replace", What: fmt.Sprintf("no shader descriptor with name hash 0x%016x", op.TargetHash)}
	}
	payload.Descriptors[idx].NameHash = op.ReplacementHash
	payload.Descriptors[idx].SPIRVSize = uint32(len(spirv))
	payload.Blobs[idx] = spirv

	out, err := payload.Marshal()
	if err != nil {
		return &errs.OperationError{Op: "shader replace", What: err.Error()}
	}
	replacePayload(asset, container.TagShader, out)
	return nil
}

func applyVertexColorChange(o *Overlay, op Operation, asset *container.Asset) error {
	rgba, err := o.DataWindow(op.DataOffset, op.DataSize)
	if err != nil {
		return err
	}
	if len(rgba) != 16 {
		return &errs.OperationError{Op: "vertex color change", What: fmt.Sprintf("data window is %d bytes, want 16", len(rgba))}
	}
	raw, ok := asset.ChunkData(container.TagGeometry)
	if !ok {
		return &errs.OperationError{Op: "vertex color change", What: "target has no GEOM chunk"}
	}
	geom, err := chunk.ParseGeometryHeader(raw[:chunk.GeometryHeaderSize])
	if err != nil {
		return &errs.OperationError{Op: "vertex color change", What: err.Error()}
	}
	vertexIndex := uint32(op.TargetHash)
	if vertexIndex >= geom.VertexCount {
		return &errs.OperationError{Op: "vertex color change", What: fmt.Sprintf("vertex index %d >= vertex count %d", vertexIndex, geom.VertexCount)}
	}
	attrOffset := colorOffset(asset)
	absOffset := chunk.GeometryHeaderSize + int(vertexIndex)*int(geom.VertexStride) + int(attrOffset)
	if absOffset+16 > len(raw) {
		return &errs.OperationError{Op: "vertex color change", What: fmt.Sprintf("offset %d+16 overruns payload of length %d", absOffset, len(raw))}
	}
	copy(raw[absOffset:absOffset+16], rgba)
	replacePayload(asset, container.TagGeometry, raw)
	return nil
}

func applyAttributeModification(o *Overlay, op Operation, asset *container.Asset, tag container.ChunkTag) error {
	buf, err := o.DataWindow(op.DataOffset, op.DataSize)
	if err != nil {
		return err
	}
	am, err := parseAttributeModification(buf)
	if err != nil {
		return &errs.OperationError{Op: "attribute modification", What: err.Error()}
	}
	raw, ok := asset.ChunkData(tag)
	if !ok {
		return &errs.OperationError{Op: "attribute modification", What: fmt.Sprintf("target has no %s chunk", tag)}
	}
	geom, err := chunk.ParseGeometryHeader(raw[:chunk.GeometryHeaderSize])
	if err != nil {
		return &errs.OperationError{Op: "attribute modification", What: err.Error()}
	}
	if am.VertexIndex == AllVertices {
		for v := uint32(0); v < geom.VertexCount; v++ {
			if err := writeAttribute(raw, geom, v, am); err != nil {
				return err
			}
		}
	} else {
		if am.VertexIndex >= geom.VertexCount {
			return &errs.OperationError{Op: "attribute modification", What: fmt.Sprintf("vertex index %d >= vertex count %d", am.VertexIndex, geom.VertexCount)}
		}
		if err := writeAttribute(raw, geom, am.VertexIndex, am); err != nil {
			return err
		}
	}
	replacePayload(asset, tag, raw)
	return nil
}

func writeAttribute(raw []byte, geom chunk.GeometryHeader, vertexIndex uint32, am AttributeModification) error {
	absOffset := chunk.GeometryHeaderSize + int(vertexIndex)*int(geom.VertexStride) + int(am.AttributeOffset)
	if absOffset+int(am.AttributeSize) > len(raw) {
		return &errs.OperationError{Op: "attribute modification", What: fmt.Sprintf("offset %d+%d overruns payload of length %d", absOffset, am.AttributeSize, len(raw))}
	}
	n := int(am.AttributeSize) / 4
	existing := make([]float32, n)
	for i := 0; i < n; i++ {
		existing[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[absOffset+4*i:]))
	}

	result := make([]float32, n)
	switch am.Op {
	case AttrReplace:
		copy(result, am.Values[:n])
	case AttrAdd:
		for i := 0; i < n; i++ {
			result[i] = existing[i] + am.Values[i]
		}
	case AttrMultiply:
		for i := 0; i < n; i++ {
			result[i] = existing[i] * am.Values[i]
		}
	case AttrNormalize:
		copy(result, am.Values[:n])
		if n == 3 {
			result[0], result[1], result[2] = normalize3(result[0], result[1], result[2])
		}
	default:
		return &errs.OperationError{Op: "attribute modification", What: fmt.Sprintf("unknown attribute op %d", am.Op)}
	}

	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(raw[absOffset+4*i:], math.Float32bits(result[i]))
	}
	return nil
}

func applyGeometryTransform(o *Overlay, op Operation, asset *container.Asset) error {
	buf, err := o.DataWindow(op.DataOffset, op.DataSize)
	if err != nil {
		return err
	}
	td, err := parseTransformationData(buf)
	if err != nil {
		return &errs.OperationError{Op: "geometry transform", What: err.Error()}
	}
	raw, ok := asset.ChunkData(container.TagGeometry)
	if !ok {
		return &errs.OperationError{Op: "geometry transform", What: "target has no GEOM chunk"}
	}
	geom, err := chunk.ParseGeometryHeader(raw[:chunk.GeometryHeaderSize])
	if err != nil {
		return &errs.OperationError{Op: "geometry transform", What: err.Error()}
	}

	end := geom.VertexCount
	if td.Count != AllVertices && td.Start+td.Count < end {
		end = td.Start + td.Count
	}
	for v := td.Start; v < end; v++ {
		base := chunk.GeometryHeaderSize + int(v)*int(geom.VertexStride)
		if base+12 > len(raw) {
			break
		}
		if td.Flags&TransformFlagPositions != 0 {
			x := math.Float32frombits(binary.LittleEndian.Uint32(raw[base:]))
			y := math.Float32frombits(binary.LittleEndian.Uint32(raw[base+4:]))
			z := math.Float32frombits(binary.LittleEndian.Uint32(raw[base+8:]))
			nx, ny, nz := applyAffine(td.Matrix, x, y, z)
			binary.LittleEndian.PutUint32(raw[base:], math.Float32bits(nx))
			binary.LittleEndian.PutUint32(raw[base+4:], math.Float32bits(ny))
			binary.LittleEndian.PutUint32(raw[base+8:], math.Float32bits(nz))
		}
		if td.Flags&TransformFlagNormals != 0 && base+24 <= len(raw) {
			x := math.Float32frombits(binary.LittleEndian.Uint32(raw[base+12:]))
			y := math.Float32frombits(binary.LittleEndian.Uint32(raw[base+16:]))
			z := math.Float32frombits(binary.LittleEndian.Uint32(raw[base+20:]))
			nx, ny, nz := applyLinear(td.Matrix, x, y, z)
			binary.LittleEndian.PutUint32(raw[base+12:], math.Float32bits(nx))
			binary.LittleEndian.PutUint32(raw[base+16:], math.Float32bits(ny))
			binary.LittleEndian.PutUint32(raw[base+20:], math.Float32bits(nz))
		}
	}
	replacePayload(asset, container.TagGeometry, raw)
	return nil
}

func applyVertexSubset(o *Overlay, op Operation, asset *container.Asset) error {
	buf, err := o.DataWindow(op.DataOffset, op.DataSize)
	if err != nil {
		return err
	}
	if len(buf) < SubsetRecordSize {
		return &errs.OperationError{Op: "vertex subset", What: "data window too small for subset record"}
	}
	subset, err := parseSubsetRecord(buf[:SubsetRecordSize])
	if err != nil {
		return &errs.OperationError{Op: "vertex subset", What: err.Error()}
	}
	am, err := parseAttributeModification(buf[SubsetRecordSize:])
	if err != nil {
		return &errs.OperationError{Op: "vertex subset", What: err.Error()}
	}

	raw, ok := asset.ChunkData(container.TagGeometry)
	if !ok {
		return &errs.OperationError{Op: "vertex subset", What: "target has no GEOM chunk"}
	}
	geom, err := chunk.ParseGeometryHeader(raw[:chunk.GeometryHeaderSize])
	if err != nil {
		return &errs.OperationError{Op: "vertex subset", What: err.Error()}
	}

	end := subset.Start + subset.Count
	if end > geom.VertexCount {
		end = geom.VertexCount
	}
	for v := subset.Start; v < end; v++ {
		if err := writeAttribute(raw, geom, v, am); err != nil {
			return err
		}
	}
	replacePayload(asset, container.TagGeometry, raw)
	return nil
}

func applyChunkReplace(o *Overlay, op Operation, asset *container.Asset) error {
	data, err := o.DataWindow(op.DataOffset, op.DataSize)
	if err != nil {
		return err
	}
	replacePayload(asset, op.TargetChunkTag, append([]byte(nil), data...))
	return nil
}
