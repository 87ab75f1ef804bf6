// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"fmt"

	"github.com/NOT-REAL-GAMES/Taffy/internal/wire"
)

// TextureFormat discriminates the SDF atlas's pixel format. The core
// format is single-channel R8; the field exists for forward
// compatibility with multi-channel SDF variants, which this module
// does not produce.
type TextureFormat uint32

const TextureFormatR8 TextureFormat = 0

// FontHeaderSize, GlyphRecordSize, and KerningPairSize are the fixed
// on-disk sizes of the FONT payload's fixed-size records.
const (
	FontHeaderSize  = 76
	GlyphRecordSize = 40
	KerningPairSize = 12
)

// FontHeader is the fixed leading record of a FONT payload.
type FontHeader struct {
	GlyphCount          uint32
	AtlasWidth          uint32
	AtlasHeight         uint32
	TextureFormat       TextureFormat
	SDFRange            float32
	FontSize            float32
	Ascent              float32
	Descent             float32
	LineHeight          float32
	CodepointRangeStart uint32
	CodepointRangeEnd   uint32
	KerningPairCount    uint32
	GlyphArrayOffset    uint32
	KerningArrayOffset  uint32
	TextureOffset       uint32
}

func (h *FontHeader) marshal(w *wire.Writer) {
	w.U32(h.GlyphCount)
	w.U32(h.AtlasWidth)
	w.U32(h.AtlasHeight)
	w.U32(uint32(h.TextureFormat))
	w.F32(h.SDFRange)
	w.F32(h.FontSize)
	w.F32(h.Ascent)
	w.F32(h.Descent)
	w.F32(h.LineHeight)
	w.U32(h.CodepointRangeStart)
	w.U32(h.CodepointRangeEnd)
	w.U32(h.KerningPairCount)
	w.U32(h.GlyphArrayOffset)
	w.U32(h.KerningArrayOffset)
	w.U32(h.TextureOffset)
	w.Zero(4 * 4) // reserved[4] uint32, matching every other schema's padding convention
}

func parseFontHeader(r *wire.Reader) (FontHeader, error) {
	var h FontHeader
	var err error
	if h.GlyphCount, err = r.U32(); err != nil {
		return h, err
	}
	if h.AtlasWidth, err = r.U32(); err != nil {
		return h, err
	}
	if h.AtlasHeight, err = r.U32(); err != nil {
		return h, err
	}
	tf, err := r.U32()
	if err != nil {
		return h, err
	}
	h.TextureFormat = TextureFormat(tf)
	if h.SDFRange, err = r.F32(); err != nil {
		return h, err
	}
	if h.FontSize, err = r.F32(); err != nil {
		return h, err
	}
	if h.Ascent, err = r.F32(); err != nil {
		return h, err
	}
	if h.Descent, err = r.F32(); err != nil {
		return h, err
	}
	if h.LineHeight, err = r.F32(); err != nil {
		return h, err
	}
	if h.CodepointRangeStart, err = r.U32(); err != nil {
		return h, err
	}
	if h.CodepointRangeEnd, err = r.U32(); err != nil {
		return h, err
	}
	if h.KerningPairCount, err = r.U32(); err != nil {
		return h, err
	}
	if h.GlyphArrayOffset, err = r.U32(); err != nil {
		return h, err
	}
	if h.KerningArrayOffset, err = r.U32(); err != nil {
		return h, err
	}
	if h.TextureOffset, err = r.U32(); err != nil {
		return h, err
	}
	if err := r.Skip(4 * 4); err != nil {
		return h, err
	}
	return h, nil
}

// GlyphRecord describes one glyph's location in the atlas and its
// layout metrics.
type GlyphRecord struct {
	Codepoint  uint32
	U0, V0     float32
	U1, V1     float32
	PixelWidth, PixelHeight float32
	BearingX, BearingY      float32
	Advance    float32
}

func (g *GlyphRecord) marshal(w *wire.Writer) {
	w.U32(g.Codepoint)
	w.F32(g.U0)
	w.F32(g.V0)
	w.F32(g.U1)
	w.F32(g.V1)
	w.F32(g.PixelWidth)
	w.F32(g.PixelHeight)
	w.F32(g.BearingX)
	w.F32(g.BearingY)
	w.F32(g.Advance)
}

func parseGlyphRecord(r *wire.Reader) (GlyphRecord, error) {
	var g GlyphRecord
	var err error
	if g.Codepoint, err = r.U32(); err != nil {
		return g, err
	}
	for _, dst := range []*float32{&g.U0, &g.V0, &g.U1, &g.V1, &g.PixelWidth, &g.PixelHeight, &g.BearingX, &g.BearingY, &g.Advance} {
		if *dst, err = r.F32(); err != nil {
			return g, err
		}
	}
	return g, nil
}

// KerningPair adjusts the advance between two consecutive codepoints.
type KerningPair struct {
	First, Second uint32
	Amount        float32
}

func (k *KerningPair) marshal(w *wire.Writer) {
	w.U32(k.First)
	w.U32(k.Second)
	w.F32(k.Amount)
}

func parseKerningPair(r *wire.Reader) (KerningPair, error) {
	var k KerningPair
	var err error
	if k.First, err = r.U32(); err != nil {
		return k, err
	}
	if k.Second, err = r.U32(); err != nil {
		return k, err
	}
	if k.Amount, err = r.F32(); err != nil {
		return k, err
	}
	return k, nil
}

// FontPayload is a complete FONT chunk: header, glyph array, optional
// kerning-pair array, and the raw SDF atlas bytes (R8, AtlasWidth *
// AtlasHeight bytes).
type FontPayload struct {
	Header       FontHeader
	Glyphs       []GlyphRecord
	KerningPairs []KerningPair
	AtlasBytes   []byte
}

// Marshal writes header, glyph array, kerning-pair array, and atlas
// bytes contiguously in that order, filling in the header's three
// array offsets (relative to the start of the payload).
func (p *FontPayload) Marshal() ([]byte, error) {
	wantAtlas := int(p.Header.AtlasWidth) * int(p.Header.AtlasHeight)
	if len(p.AtlasBytes) != wantAtlas {
		return nil, fmt.Errorf("chunk: font atlas is %d bytes, header declares %dx%d=%d", len(p.AtlasBytes), p.Header.AtlasWidth, p.Header.AtlasHeight, wantAtlas)
	}
	if len(p.Glyphs) != int(p.Header.GlyphCount) {
		return nil, fmt.Errorf("chunk: font has %d glyphs, header declares %d", len(p.Glyphs), p.Header.GlyphCount)
	}
	if len(p.KerningPairs) != int(p.Header.KerningPairCount) {
		return nil, fmt.Errorf("chunk: font has %d kerning pairs, header declares %d", len(p.KerningPairs), p.Header.KerningPairCount)
	}

	glyphArrayOffset := uint32(FontHeaderSize)
	kerningArrayOffset := glyphArrayOffset + uint32(len(p.Glyphs))*GlyphRecordSize
	textureOffset := kerningArrayOffset + uint32(len(p.KerningPairs))*KerningPairSize

	p.Header.GlyphArrayOffset = glyphArrayOffset
	p.Header.KerningArrayOffset = kerningArrayOffset
	p.Header.TextureOffset = textureOffset

	w := wire.NewWriter(int(textureOffset) + len(p.AtlasBytes))
	p.Header.marshal(w)
	for i := range p.Glyphs {
		p.Glyphs[i].marshal(w)
	}
	for i := range p.KerningPairs {
		p.KerningPairs[i].marshal(w)
	}
	w.Raw(p.AtlasBytes)
	return w.Bytes(), nil
}

// ParseFontPayload parses a complete FONT payload.
func ParseFontPayload(buf []byte) (*FontPayload, error) {
	r := wire.NewReader(buf)
	header, err := parseFontHeader(r)
	if err != nil {
		return nil, fmt.Errorf("chunk: parsing font header: %w", err)
	}

	glyphs := make([]GlyphRecord, header.GlyphCount)
	for i := range glyphs {
		g, err := parseGlyphRecord(r)
		if err != nil {
			return nil, fmt.Errorf("chunk: parsing glyph %d: %w", i, err)
		}
		glyphs[i] = g
	}

	kerningPairs := make([]KerningPair, header.KerningPairCount)
	for i := range kerningPairs {
		k, err := parseKerningPair(r)
		if err != nil {
			return nil, fmt.Errorf("chunk: parsing kerning pair %d: %w", i, err)
		}
		kerningPairs[i] = k
	}

	atlas, err := r.Raw(int(header.AtlasWidth) * int(header.AtlasHeight))
	if err != nil {
		return nil, fmt.Errorf("chunk: reading font atlas bytes: %w", err)
	}

	return &FontPayload{Header: header, Glyphs: glyphs, KerningPairs: kerningPairs, AtlasBytes: atlas}, nil
}
