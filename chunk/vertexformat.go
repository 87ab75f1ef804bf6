// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

// VertexFormat is a hint bitmask describing which attributes a
// geometry's vertex stream carries. The authoritative layout is the
// producer-chosen vertex_stride; this mask never drives parsing by
// itself (see the overlay package's attribute-offset policy for the
// one case where a feature flag, not this mask, selects a layout).
type VertexFormat uint32

const (
	Position3D  VertexFormat = 1 << 0
	Position2D  VertexFormat = 1 << 1
	Normal      VertexFormat = 1 << 2
	Tangent     VertexFormat = 1 << 3
	TexCoord0   VertexFormat = 1 << 4
	TexCoord1   VertexFormat = 1 << 5
	Color       VertexFormat = 1 << 6
	BoneIndices VertexFormat = 1 << 7
	BoneWeights VertexFormat = 1 << 8
	Custom0     VertexFormat = 1 << 16
	Custom1     VertexFormat = 1 << 17
	Custom2     VertexFormat = 1 << 18
	Custom3     VertexFormat = 1 << 19
)

// Has reports exact-mask membership of want in f.
func (f VertexFormat) Has(want VertexFormat) bool { return f&want == want }

// RenderMode discriminates the traditional vertex/index pipeline from
// a mesh-shader pipeline.
type RenderMode uint32

const (
	RenderTraditional RenderMode = 0
	RenderMeshShader  RenderMode = 1
)

// PrimitiveType discriminates the mesh-shader output topology.
type PrimitiveType uint32

const (
	PrimitiveTriangles PrimitiveType = 0
	PrimitiveLines     PrimitiveType = 1
	PrimitivePoints    PrimitiveType = 2
)
