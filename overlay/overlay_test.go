// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package overlay

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/NOT-REAL-GAMES/Taffy/chunk"
	"github.com/NOT-REAL-GAMES/Taffy/container"
	"github.com/NOT-REAL-GAMES/Taffy/hashreg"
)

func buildGeometryAsset(t *testing.T, vertexCount uint32, stride uint32, flags container.FeatureFlags) *container.Asset {
	t.Helper()
	payload := &chunk.GeometryPayload{
		Header: chunk.GeometryHeader{
			VertexCount:  vertexCount,
			VertexStride: stride,
		},
		Vertices: make([]byte, vertexCount*stride),
	}
	data, err := payload.Marshal()
	if err != nil {
		t.Fatalf("marshal geometry: %v", err)
	}
	asset := container.New()
	asset.SetFeatureFlags(flags | container.FeatureHashBasedNames)
	asset.AddChunk(container.TagGeometry, data, "geom")
	return asset
}

func TestTargetsAssetRejectsNewerMajorVersion(t *testing.T) {
	asset := buildGeometryAsset(t, 4, 76, container.FeatureQuantizedCoords)

	o := New()
	o.header.VersionMajor = currentEngineMajorVersion + 1
	if o.TargetsAsset(asset) {
		t.Fatalf("TargetsAsset = true, want false for overlay major version %d against engine major version %d", o.header.VersionMajor, currentEngineMajorVersion)
	}
}

func TestVertexColorOverlayQuantizedPositions(t *testing.T) {
	asset := buildGeometryAsset(t, 4, 76, container.FeatureQuantizedCoords)

	o := New()
	o.AddVertexColorChange(1, 1.0, 0.0, 0.0, 1.0)
	if !o.TargetsAsset(asset) {
		t.Fatalf("TargetsAsset = false, want true")
	}
	if err := Apply(o, asset); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	raw, ok := asset.ChunkData(container.TagGeometry)
	if !ok {
		t.Fatalf("no GEOM chunk after apply")
	}
	base := chunk.GeometryHeaderSize + 1*76 + 36
	want := []float32{1.0, 0.0, 0.0, 1.0}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(raw[base+4*i:]))
		if got != w {
			t.Fatalf("color component %d = %v, want %v", i, got, w)
		}
	}
}

func TestShaderReplacement(t *testing.T) {
	origBlob := make([]byte, 16)
	binary.LittleEndian.PutUint32(origBlob, chunk.SPIRVMagic)

	nameHash := hashreg.Hash("data_driven_fragment_shader")
	payload := &chunk.ShaderPayload{
		Descriptors: []chunk.ShaderDescriptor{{
			NameHash:  nameHash,
			Stage:     chunk.StageFragment,
			SPIRVSize: uint32(len(origBlob)),
		}},
		Blobs: [][]byte{origBlob},
	}
	data, err := payload.Marshal()
	if err != nil {
		t.Fatalf("marshal shader: %v", err)
	}

	asset := container.New()
	asset.SetFeatureFlags(container.FeatureHashBasedNames)
	asset.AddChunk(container.TagShader, data, "shader")

	newBlob := make([]byte, 256)
	binary.LittleEndian.PutUint32(newBlob, chunk.SPIRVMagic)

	o := New()
	o.AddShaderReplacement(nameHash, nameHash, newBlob)
	if err := Apply(o, asset); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	raw, ok := asset.ChunkData(container.TagShader)
	if !ok {
		t.Fatalf("no SHDR chunk after apply")
	}
	out, err := chunk.ParseShaderPayload(raw)
	if err != nil {
		t.Fatalf("ParseShaderPayload: %v", err)
	}
	if out.Descriptors[0].SPIRVSize != 256 {
		t.Fatalf("SPIRVSize = %d, want 256", out.Descriptors[0].SPIRVSize)
	}
	if binary.LittleEndian.Uint32(out.Blobs[0]) != chunk.SPIRVMagic {
		t.Fatalf("replaced blob does not start with SPIR-V magic")
	}
}

func TestOverlaySaveLoadRoundTrip(t *testing.T) {
	o := New()
	o.AddTargetAsset("some/asset.taf", ">=1.0.0")
	o.AddVertexColorChange(2, 0.5, 0.5, 0.5, 1.0)
	o.AddScaleOperation(2.0, 2.0, 2.0, 0, AllVertices, false)

	dir := t.TempDir()
	path := dir + "/test.tafo"
	if err := o.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if len(loaded.Targets()) != 1 || loaded.Targets()[0].Path != "some/asset.taf" {
		t.Fatalf("targets after round-trip = %+v", loaded.Targets())
	}
	if len(loaded.Operations()) != 2 {
		t.Fatalf("operation count after round-trip = %d, want 2", len(loaded.Operations()))
	}
	if loaded.Operations()[0].Kind != OpVertexColorChange {
		t.Fatalf("operation 0 kind = %v, want OpVertexColorChange", loaded.Operations()[0].Kind)
	}
}

func TestVertexIndexOutOfRangeFails(t *testing.T) {
	asset := buildGeometryAsset(t, 2, 76, container.FeatureQuantizedCoords)
	o := New()
	o.AddVertexColorChange(5, 1, 1, 1, 1) // vertex index 5 >= vertex count 2
	if err := Apply(o, asset); err == nil {
		t.Fatalf("expected Apply to fail for an out-of-range vertex index")
	}
}
