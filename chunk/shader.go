// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"encoding/binary"
	"fmt"

	"github.com/NOT-REAL-GAMES/Taffy/internal/wire"
)

// SPIRVMagic is the 32-bit little-endian magic word every SPIR-V
// module begins with.
const SPIRVMagic = 0x07230203

// ShaderPayloadHeaderSize and ShaderDescriptorSize are the fixed
// on-disk sizes of the SHDR payload header and one shader descriptor.
const (
	ShaderPayloadHeaderSize = 16
	ShaderDescriptorSize    = 60
)

// ShaderStage discriminates a shader's pipeline stage.
type ShaderStage uint32

const (
	StageVertex     ShaderStage = 0
	StageFragment   ShaderStage = 1
	StageGeometry   ShaderStage = 2
	StageCompute    ShaderStage = 3
	StageMeshShader ShaderStage = 4
	StageTaskShader ShaderStage = 5
)

// ShaderDescriptor describes one SPIR-V module embedded in a SHDR
// payload.
type ShaderDescriptor struct {
	NameHash       uint64
	EntryPointHash uint64
	Stage          ShaderStage
	SPIRVSize      uint32
	MaxVertices    uint32
	MaxPrimitives  uint32
	WorkgroupSize  [3]uint32
}

func (d *ShaderDescriptor) marshalInto(w *wire.Writer) {
	w.U64(d.NameHash)
	w.U64(d.EntryPointHash)
	w.U32(uint32(d.Stage))
	w.U32(d.SPIRVSize)
	w.U32(d.MaxVertices)
	w.U32(d.MaxPrimitives)
	w.U32(d.WorkgroupSize[0])
	w.U32(d.WorkgroupSize[1])
	w.U32(d.WorkgroupSize[2])
	w.Zero(4 * 4) // reserved[4] uint32
}

func parseShaderDescriptor(r *wire.Reader) (ShaderDescriptor, error) {
	var d ShaderDescriptor
	var err error
	if d.NameHash, err = r.U64(); err != nil {
		return d, err
	}
	if d.EntryPointHash, err = r.U64(); err != nil {
		return d, err
	}
	stage, err := r.U32()
	if err != nil {
		return d, err
	}
	d.Stage = ShaderStage(stage)
	if d.SPIRVSize, err = r.U32(); err != nil {
		return d, err
	}
	if d.MaxVertices, err = r.U32(); err != nil {
		return d, err
	}
	if d.MaxPrimitives, err = r.U32(); err != nil {
		return d, err
	}
	for i := range d.WorkgroupSize {
		if d.WorkgroupSize[i], err = r.U32(); err != nil {
			return d, err
		}
	}
	if err := r.Skip(4 * 4); err != nil {
		return d, err
	}
	return d, nil
}

// ShaderPayload is a complete SHDR chunk: a descriptor per shader
// followed by every SPIR-V blob concatenated in descriptor order.
type ShaderPayload struct {
	Descriptors []ShaderDescriptor
	Blobs       [][]byte // Blobs[i] corresponds to Descriptors[i]
}

// Marshal writes the payload as header + descriptors + concatenated
// blobs, validating that each blob starts with the SPIR-V magic word
// and has a size that is a multiple of 4, and that SPIRVSize agrees
// with the blob's actual length.
func (p *ShaderPayload) Marshal() ([]byte, error) {
	if len(p.Descriptors) != len(p.Blobs) {
		return nil, fmt.Errorf("chunk: %d shader descriptors but %d blobs", len(p.Descriptors), len(p.Blobs))
	}
	totalBlobs := 0
	for i, blob := range p.Blobs {
		if len(blob)%4 != 0 {
			return nil, fmt.Errorf("chunk: shader blob %d is %d bytes, not a multiple of 4", i, len(blob))
		}
		if len(blob) < 4 || binary.LittleEndian.Uint32(blob) != SPIRVMagic {
			return nil, fmt.Errorf("chunk: shader blob %d does not start with the SPIR-V magic word", i)
		}
		if uint32(len(blob)) != p.Descriptors[i].SPIRVSize {
			return nil, fmt.Errorf("chunk: shader descriptor %d declares spirv_size=%d, blob is %d bytes", i, p.Descriptors[i].SPIRVSize, len(blob))
		}
		totalBlobs += len(blob)
	}

	w := wire.NewWriter(ShaderPayloadHeaderSize + len(p.Descriptors)*ShaderDescriptorSize + totalBlobs)
	w.U32(uint32(len(p.Descriptors)))
	w.Zero(3 * 4) // reserved[3] uint32
	for i := range p.Descriptors {
		p.Descriptors[i].marshalInto(w)
	}
	for _, blob := range p.Blobs {
		w.Raw(blob)
	}
	return w.Bytes(), nil
}

// ParseShaderPayload parses a complete SHDR payload.
func ParseShaderPayload(buf []byte) (*ShaderPayload, error) {
	r := wire.NewReader(buf)
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(3 * 4); err != nil {
		return nil, err
	}

	descriptors := make([]ShaderDescriptor, count)
	for i := range descriptors {
		d, err := parseShaderDescriptor(r)
		if err != nil {
			return nil, fmt.Errorf("chunk: parsing shader descriptor %d: %w", i, err)
		}
		descriptors[i] = d
	}

	blobs := make([][]byte, count)
	for i, d := range descriptors {
		blob, err := r.Raw(int(d.SPIRVSize))
		if err != nil {
			return nil, fmt.Errorf("chunk: reading shader blob %d: %w", i, err)
		}
		blobs[i] = blob
	}

	return &ShaderPayload{Descriptors: descriptors, Blobs: blobs}, nil
}

// FindByNameHash returns the index of the descriptor whose NameHash
// equals hash, or -1 if none matches.
func (p *ShaderPayload) FindByNameHash(hash uint64) int {
	for i, d := range p.Descriptors {
		if d.NameHash == hash {
			return i
		}
	}
	return -1
}
