// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"fmt"

	"github.com/NOT-REAL-GAMES/Taffy/internal/wire"
)

// MaterialFlags is a bitmask of material-level capability switches.
type MaterialFlags uint32

const MaterialFlagsNone MaterialFlags = 0

// NoTexture marks a texture-index field as absent.
const NoTexture uint32 = 0xFFFFFFFF

// MaterialPayloadHeaderSize and MaterialRecordSize are the fixed
// on-disk sizes of the MTRL payload header and one material record.
const (
	MaterialPayloadHeaderSize = 32
	MaterialRecordSize        = 132
)

// MaterialRecord is one PBR material entry in an MTRL payload.
type MaterialRecord struct {
	Name             string
	Albedo           [4]float32
	Emission         [3]float32
	Metallic         float32
	Roughness        float32
	NormalIntensity  float32
	AlphaCutoff      float32
	AlbedoTexture    uint32
	NormalTexture    uint32
	MetallicRoughnessTexture uint32
	EmissionTexture  uint32
	OcclusionTexture uint32
	Flags            MaterialFlags
}

func (m *MaterialRecord) marshalInto(w *wire.Writer) {
	w.FixedString(m.Name, 32)
	for _, v := range m.Albedo {
		w.F32(v)
	}
	for _, v := range m.Emission {
		w.F32(v)
	}
	w.F32(m.Metallic)
	w.F32(m.Roughness)
	w.F32(m.NormalIntensity)
	w.F32(m.AlphaCutoff)
	w.U32(m.AlbedoTexture)
	w.U32(m.NormalTexture)
	w.U32(m.MetallicRoughnessTexture)
	w.U32(m.EmissionTexture)
	w.U32(m.OcclusionTexture)
	w.U32(uint32(m.Flags))
	w.Zero(8 * 4) // reserved[8] uint32
}

func parseMaterialRecord(r *wire.Reader) (MaterialRecord, error) {
	var m MaterialRecord
	var err error
	if m.Name, err = r.FixedString(32); err != nil {
		return m, err
	}
	for i := range m.Albedo {
		if m.Albedo[i], err = r.F32(); err != nil {
			return m, err
		}
	}
	for i := range m.Emission {
		if m.Emission[i], err = r.F32(); err != nil {
			return m, err
		}
	}
	if m.Metallic, err = r.F32(); err != nil {
		return m, err
	}
	if m.Roughness, err = r.F32(); err != nil {
		return m, err
	}
	if m.NormalIntensity, err = r.F32(); err != nil {
		return m, err
	}
	if m.AlphaCutoff, err = r.F32(); err != nil {
		return m, err
	}
	if m.AlbedoTexture, err = r.U32(); err != nil {
		return m, err
	}
	if m.NormalTexture, err = r.U32(); err != nil {
		return m, err
	}
	if m.MetallicRoughnessTexture, err = r.U32(); err != nil {
		return m, err
	}
	if m.EmissionTexture, err = r.U32(); err != nil {
		return m, err
	}
	if m.OcclusionTexture, err = r.U32(); err != nil {
		return m, err
	}
	flags, err := r.U32()
	if err != nil {
		return m, err
	}
	m.Flags = MaterialFlags(flags)
	if err := r.Skip(8 * 4); err != nil {
		return m, err
	}
	return m, nil
}

// MaterialPayload is a complete MTRL chunk.
type MaterialPayload struct {
	Materials []MaterialRecord
}

// Marshal writes the payload as header + material records.
func (p *MaterialPayload) Marshal() []byte {
	w := wire.NewWriter(MaterialPayloadHeaderSize + len(p.Materials)*MaterialRecordSize)
	w.U32(uint32(len(p.Materials)))
	w.Zero(7 * 4) // reserved[7] uint32
	for i := range p.Materials {
		p.Materials[i].marshalInto(w)
	}
	return w.Bytes()
}

// ParseMaterialPayload parses a complete MTRL payload.
func ParseMaterialPayload(buf []byte) (*MaterialPayload, error) {
	r := wire.NewReader(buf)
	count, err := r.U32()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(7 * 4); err != nil {
		return nil, err
	}
	materials := make([]MaterialRecord, count)
	for i := range materials {
		m, err := parseMaterialRecord(r)
		if err != nil {
			return nil, fmt.Errorf("chunk: parsing material %d: %w", i, err)
		}
		materials[i] = m
	}
	return &MaterialPayload{Materials: materials}, nil
}
