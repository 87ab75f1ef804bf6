// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"encoding/binary"
	"testing"
)

func TestGeometryPayloadRoundTrip(t *testing.T) {
	header := GeometryHeader{
		VertexCount:  3,
		IndexCount:   3,
		VertexStride: 76,
	}
	payload := &GeometryPayload{
		Header:   header,
		Vertices: make([]byte, 3*76),
		Indices:  []uint32{0, 1, 2},
	}
	for i := range payload.Vertices {
		payload.Vertices[i] = byte(i)
	}

	data, err := payload.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	wantSize := GeometryHeaderSize + 3*76 + 3*4
	if len(data) != wantSize {
		t.Fatalf("payload size = %d, want %d", len(data), wantSize)
	}

	parsed, err := ParseGeometryPayload(data)
	if err != nil {
		t.Fatalf("ParseGeometryPayload: %v", err)
	}
	if parsed.Header.VertexStride != 76 || parsed.Header.VertexCount != 3 {
		t.Fatalf("header mismatch after round-trip: %+v", parsed.Header)
	}
	for i, v := range payload.Vertices {
		if parsed.Vertices[i] != v {
			t.Fatalf("vertex byte %d = %d, want %d", i, parsed.Vertices[i], v)
		}
	}
	for i, idx := range payload.Indices {
		if parsed.Indices[i] != idx {
			t.Fatalf("index %d = %d, want %d", i, parsed.Indices[i], idx)
		}
	}
}

func TestShaderPayloadRoundTrip(t *testing.T) {
	blob := make([]byte, 256)
	binary.LittleEndian.PutUint32(blob, SPIRVMagic)

	payload := &ShaderPayload{
		Descriptors: []ShaderDescriptor{{
			NameHash:  0x1234,
			Stage:     StageFragment,
			SPIRVSize: uint32(len(blob)),
		}},
		Blobs: [][]byte{blob},
	}

	data, err := payload.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	parsed, err := ParseShaderPayload(data)
	if err != nil {
		t.Fatalf("ParseShaderPayload: %v", err)
	}
	if parsed.Descriptors[0].SPIRVSize != 256 {
		t.Fatalf("SPIRVSize = %d, want 256", parsed.Descriptors[0].SPIRVSize)
	}
	if binary.LittleEndian.Uint32(parsed.Blobs[0]) != SPIRVMagic {
		t.Fatalf("blob does not start with SPIR-V magic after round-trip")
	}
}

func TestShaderPayloadRejectsBadMagic(t *testing.T) {
	blob := make([]byte, 8)
	payload := &ShaderPayload{
		Descriptors: []ShaderDescriptor{{SPIRVSize: 8}},
		Blobs:       [][]byte{blob},
	}
	if _, err := payload.Marshal(); err == nil {
		t.Fatalf("expected Marshal to reject a blob missing the SPIR-V magic word")
	}
}

func TestMaterialPayloadRoundTrip(t *testing.T) {
	payload := &MaterialPayload{
		Materials: []MaterialRecord{{
			Name:          "stone",
			Albedo:        [4]float32{1, 1, 1, 1},
			AlbedoTexture: NoTexture,
			NormalTexture: 3,
		}},
	}
	data := payload.Marshal()
	parsed, err := ParseMaterialPayload(data)
	if err != nil {
		t.Fatalf("ParseMaterialPayload: %v", err)
	}
	if parsed.Materials[0].Name != "stone" {
		t.Fatalf("Name = %q, want %q", parsed.Materials[0].Name, "stone")
	}
	if parsed.Materials[0].AlbedoTexture != NoTexture {
		t.Fatalf("AlbedoTexture = %d, want NoTexture", parsed.Materials[0].AlbedoTexture)
	}
}

func TestFontPayloadRoundTrip(t *testing.T) {
	payload := &FontPayload{
		Header: FontHeader{
			GlyphCount:  1,
			AtlasWidth:  4,
			AtlasHeight: 4,
		},
		Glyphs:     []GlyphRecord{{Codepoint: 'A', U1: 1, V1: 1, Advance: 10}},
		AtlasBytes: make([]byte, 16),
	}
	data, err := payload.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	parsed, err := ParseFontPayload(data)
	if err != nil {
		t.Fatalf("ParseFontPayload: %v", err)
	}
	if parsed.Glyphs[0].Codepoint != 'A' {
		t.Fatalf("Codepoint = %d, want %d", parsed.Glyphs[0].Codepoint, 'A')
	}
	if len(parsed.AtlasBytes) != 16 {
		t.Fatalf("AtlasBytes len = %d, want 16", len(parsed.AtlasBytes))
	}
}
