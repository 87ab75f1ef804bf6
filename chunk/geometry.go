// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"fmt"

	"github.com/NOT-REAL-GAMES/Taffy/container"
	"github.com/NOT-REAL-GAMES/Taffy/internal/wire"
)

// GeometryHeaderSize is the fixed on-disk size of [GeometryHeader].
const GeometryHeaderSize = 112

// GeometryHeader is the fixed leading record of a GEOM payload.
type GeometryHeader struct {
	VertexCount      uint32
	IndexCount       uint32
	VertexStride     uint32
	VertexFormat     VertexFormat
	BoundsMin        container.Vec3Q
	BoundsMax        container.Vec3Q
	LODDistance      float32
	LODLevel         uint32
	RenderMode       RenderMode
	MeshMaxVertices  uint32
	MeshMaxPrimitives uint32
	MeshWorkgroupSize [3]uint32
	MeshPrimitiveType PrimitiveType
	MeshFlags        uint32
}

// Marshal writes h in its exact 112-byte packed layout.
func (h *GeometryHeader) Marshal() []byte {
	w := wire.NewWriter(GeometryHeaderSize)
	w.U32(h.VertexCount)
	w.U32(h.IndexCount)
	w.U32(h.VertexStride)
	w.U32(uint32(h.VertexFormat))
	w.I64(h.BoundsMin.X)
	w.I64(h.BoundsMin.Y)
	w.I64(h.BoundsMin.Z)
	w.I64(h.BoundsMax.X)
	w.I64(h.BoundsMax.Y)
	w.I64(h.BoundsMax.Z)
	w.F32(h.LODDistance)
	w.U32(h.LODLevel)
	w.U32(uint32(h.RenderMode))
	w.U32(h.MeshMaxVertices)
	w.U32(h.MeshMaxPrimitives)
	w.U32(h.MeshWorkgroupSize[0])
	w.U32(h.MeshWorkgroupSize[1])
	w.U32(h.MeshWorkgroupSize[2])
	w.U32(uint32(h.MeshPrimitiveType))
	w.U32(h.MeshFlags)
	w.Zero(2 * 4) // reserved[2] uint32
	return w.Bytes()
}

// ParseGeometryHeader parses a [GeometryHeaderSize]-byte buffer.
func ParseGeometryHeader(buf []byte) (GeometryHeader, error) {
	if len(buf) < GeometryHeaderSize {
		return GeometryHeader{}, fmt.Errorf("chunk: geometry header buffer is %d bytes, want %d", len(buf), GeometryHeaderSize)
	}
	r := wire.NewReader(buf)
	var h GeometryHeader
	h.VertexCount, _ = r.U32()
	h.IndexCount, _ = r.U32()
	h.VertexStride, _ = r.U32()
	vf, _ := r.U32()
	h.VertexFormat = VertexFormat(vf)
	h.BoundsMin.X, _ = r.I64()
	h.BoundsMin.Y, _ = r.I64()
	h.BoundsMin.Z, _ = r.I64()
	h.BoundsMax.X, _ = r.I64()
	h.BoundsMax.Y, _ = r.I64()
	h.BoundsMax.Z, _ = r.I64()
	h.LODDistance, _ = r.F32()
	h.LODLevel, _ = r.U32()
	rm, _ := r.U32()
	h.RenderMode = RenderMode(rm)
	h.MeshMaxVertices, _ = r.U32()
	h.MeshMaxPrimitives, _ = r.U32()
	h.MeshWorkgroupSize[0], _ = r.U32()
	h.MeshWorkgroupSize[1], _ = r.U32()
	h.MeshWorkgroupSize[2], _ = r.U32()
	pt, _ := r.U32()
	h.MeshPrimitiveType = PrimitiveType(pt)
	h.MeshFlags, _ = r.U32()
	return h, nil
}

// GeometryPayload is a complete GEOM chunk: header, dense vertex
// array, and optional index array.
type GeometryPayload struct {
	Header  GeometryHeader
	Indices []uint32

	// Vertices holds vertex_count*vertex_stride raw bytes — the
	// authoritative vertex layout is producer-defined (see
	// VertexFormat's doc comment), so this package never interprets
	// it beyond copying it whole.
	Vertices []byte
}

// Marshal writes the payload as header + vertex bytes + index array
// (4 bytes per index, little-endian).
func (p *GeometryPayload) Marshal() ([]byte, error) {
	wantVertexBytes := int(p.Header.VertexCount) * int(p.Header.VertexStride)
	if len(p.Vertices) != wantVertexBytes {
		return nil, fmt.Errorf("chunk: geometry vertex buffer is %d bytes, header declares %d", len(p.Vertices), wantVertexBytes)
	}
	if len(p.Indices) != int(p.Header.IndexCount) {
		return nil, fmt.Errorf("chunk: geometry has %d indices, header declares %d", len(p.Indices), p.Header.IndexCount)
	}

	w := wire.NewWriter(GeometryHeaderSize + len(p.Vertices) + len(p.Indices)*4)
	w.Raw(p.Header.Marshal())
	w.Raw(p.Vertices)
	for _, idx := range p.Indices {
		w.U32(idx)
	}
	return w.Bytes(), nil
}

// ParseGeometryPayload parses a complete GEOM payload.
func ParseGeometryPayload(buf []byte) (*GeometryPayload, error) {
	header, err := ParseGeometryHeader(buf)
	if err != nil {
		return nil, err
	}
	r := wire.NewReader(buf)
	if err := r.Skip(GeometryHeaderSize); err != nil {
		return nil, err
	}

	vertexBytes := int(header.VertexCount) * int(header.VertexStride)
	vertices, err := r.Raw(vertexBytes)
	if err != nil {
		return nil, fmt.Errorf("chunk: reading geometry vertex bytes: %w", err)
	}

	indices := make([]uint32, header.IndexCount)
	for i := range indices {
		v, err := r.U32()
		if err != nil {
			return nil, fmt.Errorf("chunk: reading geometry index %d: %w", i, err)
		}
		indices[i] = v
	}

	return &GeometryPayload{Header: header, Vertices: vertices, Indices: indices}, nil
}
