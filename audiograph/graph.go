// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package audiograph

import (
	"fmt"
	"math"

	"github.com/NOT-REAL-GAMES/Taffy/internal/wire"
)

// Fixed on-disk sizes of every AUDI section's fixed-width record.
const (
	HeaderSize              = 48
	NodeSize                = 40
	ConnectionSize          = 20
	ParameterSize           = 28
	WavetableDescriptorSize = 48
	StreamingDescriptorSize = 48
)

// StreamingFormat discriminates a streaming descriptor's sample
// encoding.
type StreamingFormat uint32

const (
	StreamingFormatPCM   StreamingFormat = 0
	StreamingFormatFloat StreamingFormat = 1
)

// Header is the fixed leading record of an AUDI payload.
type Header struct {
	NodeCount       uint32
	ConnectionCount uint32
	PatternCount    uint32
	WavetableCount  uint32
	ParameterCount  uint32
	SampleRate      uint32
	TickRate        uint32
	StreamingCount  uint32
}

func (h *Header) marshal(w *wire.Writer) {
	w.U32(h.NodeCount)
	w.U32(h.ConnectionCount)
	w.U32(h.PatternCount)
	w.U32(h.WavetableCount)
	w.U32(h.ParameterCount)
	w.U32(h.SampleRate)
	w.U32(h.TickRate)
	w.U32(h.StreamingCount)
	w.Zero(4 * 4) // reserved[4] uint32
}

func parseHeader(r *wire.Reader) (Header, error) {
	var h Header
	var err error
	if h.NodeCount, err = r.U32(); err != nil {
		return h, err
	}
	if h.ConnectionCount, err = r.U32(); err != nil {
		return h, err
	}
	if h.PatternCount, err = r.U32(); err != nil {
		return h, err
	}
	if h.WavetableCount, err = r.U32(); err != nil {
		return h, err
	}
	if h.ParameterCount, err = r.U32(); err != nil {
		return h, err
	}
	if h.SampleRate, err = r.U32(); err != nil {
		return h, err
	}
	if h.TickRate, err = r.U32(); err != nil {
		return h, err
	}
	if h.StreamingCount, err = r.U32(); err != nil {
		return h, err
	}
	if err := r.Skip(4 * 4); err != nil {
		return h, err
	}
	return h, nil
}

// Node is one DSP node in the graph.
type Node struct {
	ID          uint32
	Type        NodeType
	NameHash    uint64
	EditorX     float32
	EditorY     float32
	InputCount  uint32
	OutputCount uint32
	ParamOffset uint32
	ParamCount  uint32
}

func (n *Node) marshal(w *wire.Writer) {
	w.U32(n.ID)
	w.U32(uint32(n.Type))
	w.U64(n.NameHash)
	w.F32(n.EditorX)
	w.F32(n.EditorY)
	w.U32(n.InputCount)
	w.U32(n.OutputCount)
	w.U32(n.ParamOffset)
	w.U32(n.ParamCount)
}

func parseNode(r *wire.Reader) (Node, error) {
	var n Node
	var err error
	if n.ID, err = r.U32(); err != nil {
		return n, err
	}
	t, err := r.U32()
	if err != nil {
		return n, err
	}
	n.Type = NodeType(t)
	if n.NameHash, err = r.U64(); err != nil {
		return n, err
	}
	if n.EditorX, err = r.F32(); err != nil {
		return n, err
	}
	if n.EditorY, err = r.F32(); err != nil {
		return n, err
	}
	if n.InputCount, err = r.U32(); err != nil {
		return n, err
	}
	if n.OutputCount, err = r.U32(); err != nil {
		return n, err
	}
	if n.ParamOffset, err = r.U32(); err != nil {
		return n, err
	}
	if n.ParamCount, err = r.U32(); err != nil {
		return n, err
	}
	return n, nil
}

// Connection is a directed edge between two nodes' named ports.
type Connection struct {
	SourceNodeID      uint32
	SourceOutputIndex uint32
	DestNodeID        uint32
	DestInputIndex    uint32
	Strength          float32
}

func (c *Connection) marshal(w *wire.Writer) {
	w.U32(c.SourceNodeID)
	w.U32(c.SourceOutputIndex)
	w.U32(c.DestNodeID)
	w.U32(c.DestInputIndex)
	w.F32(c.Strength)
}

func parseConnection(r *wire.Reader) (Connection, error) {
	var c Connection
	var err error
	if c.SourceNodeID, err = r.U32(); err != nil {
		return c, err
	}
	if c.SourceOutputIndex, err = r.U32(); err != nil {
		return c, err
	}
	if c.DestNodeID, err = r.U32(); err != nil {
		return c, err
	}
	if c.DestInputIndex, err = r.U32(); err != nil {
		return c, err
	}
	if c.Strength, err = r.F32(); err != nil {
		return c, err
	}
	return c, nil
}

// Parameter is one entry in the flat parameter array a node's
// [Node.ParamOffset]/[Node.ParamCount] window addresses.
type Parameter struct {
	NameHash uint64
	Default  float32
	Min      float32
	Max      float32
	Curve    float32
	Flags    uint32
}

// Resolve maps a normalized input x in [0,1] to this parameter's
// value using the response-curve exponent: min + (max-min)*x^curve.
// Consumers are free to reimplement this; audiograph never evaluates
// it itself — it only records curve exponents.
func (p *Parameter) Resolve(x float64) float64 {
	return float64(p.Min) + float64(p.Max-p.Min)*math.Pow(x, float64(p.Curve))
}

func (p *Parameter) marshal(w *wire.Writer) {
	w.U64(p.NameHash)
	w.F32(p.Default)
	w.F32(p.Min)
	w.F32(p.Max)
	w.F32(p.Curve)
	w.U32(p.Flags)
}

func parseParameter(r *wire.Reader) (Parameter, error) {
	var p Parameter
	var err error
	if p.NameHash, err = r.U64(); err != nil {
		return p, err
	}
	if p.Default, err = r.F32(); err != nil {
		return p, err
	}
	if p.Min, err = r.F32(); err != nil {
		return p, err
	}
	if p.Max, err = r.F32(); err != nil {
		return p, err
	}
	if p.Curve, err = r.F32(); err != nil {
		return p, err
	}
	if p.Flags, err = r.U32(); err != nil {
		return p, err
	}
	return p, nil
}

// Wavetable describes one embedded waveform sample block.
type Wavetable struct {
	NameHash      uint64
	SampleCount   uint32
	ChannelCount  uint32
	BitDepth      uint32
	ByteOffset    uint64 // relative to the start of the audio payload
	ByteSize      uint64
	BaseFrequency float32
	LoopStart     uint32
	LoopEnd       uint32
}

func (wt *Wavetable) marshal(w *wire.Writer) {
	w.U64(wt.NameHash)
	w.U32(wt.SampleCount)
	w.U32(wt.ChannelCount)
	w.U32(wt.BitDepth)
	w.U64(wt.ByteOffset)
	w.U64(wt.ByteSize)
	w.F32(wt.BaseFrequency)
	w.U32(wt.LoopStart)
	w.U32(wt.LoopEnd)
}

func parseWavetable(r *wire.Reader) (Wavetable, error) {
	var wt Wavetable
	var err error
	if wt.NameHash, err = r.U64(); err != nil {
		return wt, err
	}
	if wt.SampleCount, err = r.U32(); err != nil {
		return wt, err
	}
	if wt.ChannelCount, err = r.U32(); err != nil {
		return wt, err
	}
	if wt.BitDepth, err = r.U32(); err != nil {
		return wt, err
	}
	if wt.ByteOffset, err = r.U64(); err != nil {
		return wt, err
	}
	if wt.ByteSize, err = r.U64(); err != nil {
		return wt, err
	}
	if wt.BaseFrequency, err = r.F32(); err != nil {
		return wt, err
	}
	if wt.LoopStart, err = r.U32(); err != nil {
		return wt, err
	}
	if wt.LoopEnd, err = r.U32(); err != nil {
		return wt, err
	}
	return wt, nil
}

// StreamingAudio describes one streamed-audio source, read in fixed
// chunk_size windows by a consumer rather than loaded whole.
type StreamingAudio struct {
	NameHash       uint64
	SampleRate     uint32
	ChannelCount   uint32
	BitDepth       uint32
	TotalSamples   uint32
	SamplesPerChunk uint32
	ChunkCount     uint32
	ByteOffset     uint64
	Format         StreamingFormat
}

func (s *StreamingAudio) marshal(w *wire.Writer) {
	w.U64(s.NameHash)
	w.U32(s.SampleRate)
	w.U32(s.ChannelCount)
	w.U32(s.BitDepth)
	w.U32(s.TotalSamples)
	w.U32(s.SamplesPerChunk)
	w.U32(s.ChunkCount)
	w.U64(s.ByteOffset)
	w.U32(uint32(s.Format))
	w.Zero(4) // reserved uint32
}

func parseStreamingAudio(r *wire.Reader) (StreamingAudio, error) {
	var s StreamingAudio
	var err error
	if s.NameHash, err = r.U64(); err != nil {
		return s, err
	}
	if s.SampleRate, err = r.U32(); err != nil {
		return s, err
	}
	if s.ChannelCount, err = r.U32(); err != nil {
		return s, err
	}
	if s.BitDepth, err = r.U32(); err != nil {
		return s, err
	}
	if s.TotalSamples, err = r.U32(); err != nil {
		return s, err
	}
	if s.SamplesPerChunk, err = r.U32(); err != nil {
		return s, err
	}
	if s.ChunkCount, err = r.U32(); err != nil {
		return s, err
	}
	if s.ByteOffset, err = r.U64(); err != nil {
		return s, err
	}
	format, err := r.U32()
	if err != nil {
		return s, err
	}
	s.Format = StreamingFormat(format)
	if err := r.Skip(4); err != nil {
		return s, err
	}
	return s, nil
}

// Payload is a fully decoded AUDI chunk.
type Payload struct {
	Header          Header
	Nodes           []Node
	Connections     []Connection
	Parameters      []Parameter
	Wavetables      []Wavetable
	WavetableBytes  [][]byte
	Streams         []StreamingAudio
	StreamBytes     [][]byte
}

// Parse decodes a complete AUDI payload.
func Parse(buf []byte) (*Payload, error) {
	r := wire.NewReader(buf)
	header, err := parseHeader(r)
	if err != nil {
		return nil, fmt.Errorf("audiograph: parsing header: %w", err)
	}

	p := &Payload{Header: header}

	p.Nodes = make([]Node, header.NodeCount)
	for i := range p.Nodes {
		n, err := parseNode(r)
		if err != nil {
			return nil, fmt.Errorf("audiograph: parsing node %d: %w", i, err)
		}
		p.Nodes[i] = n
	}

	p.Connections = make([]Connection, header.ConnectionCount)
	for i := range p.Connections {
		c, err := parseConnection(r)
		if err != nil {
			return nil, fmt.Errorf("audiograph: parsing connection %d: %w", i, err)
		}
		p.Connections[i] = c
	}

	p.Parameters = make([]Parameter, header.ParameterCount)
	for i := range p.Parameters {
		param, err := parseParameter(r)
		if err != nil {
			return nil, fmt.Errorf("audiograph: parsing parameter %d: %w", i, err)
		}
		p.Parameters[i] = param
	}

	p.Wavetables = make([]Wavetable, header.WavetableCount)
	for i := range p.Wavetables {
		wt, err := parseWavetable(r)
		if err != nil {
			return nil, fmt.Errorf("audiograph: parsing wavetable descriptor %d: %w", i, err)
		}
		p.Wavetables[i] = wt
	}
	p.WavetableBytes = make([][]byte, len(p.Wavetables))
	for i, wt := range p.Wavetables {
		// Wavetable sample bytes are addressed by absolute offset
		// from the start of the payload, not sequentially after the
		// descriptor array, so they're read directly out of buf.
		if int(wt.ByteOffset)+int(wt.ByteSize) > len(buf) {
			return nil, fmt.Errorf("audiograph: wavetable %d byte range [%d,%d) exceeds payload length %d", i, wt.ByteOffset, wt.ByteOffset+wt.ByteSize, len(buf))
		}
		p.WavetableBytes[i] = buf[wt.ByteOffset : wt.ByteOffset+wt.ByteSize]
	}

	// The wavetable byte region sits between the wavetable descriptor
	// array and the streaming descriptor array; skip over it using the
	// offsets just read rather than assuming a fixed size.
	wavetableRegionEnd := r.Pos()
	for _, wt := range p.Wavetables {
		if end := int(wt.ByteOffset) + int(wt.ByteSize); end > wavetableRegionEnd {
			wavetableRegionEnd = end
		}
	}
	if err := r.Skip(wavetableRegionEnd - r.Pos()); err != nil {
		return nil, fmt.Errorf("audiograph: skipping wavetable byte region: %w", err)
	}

	p.Streams = make([]StreamingAudio, header.StreamingCount)
	for i := range p.Streams {
		s, err := parseStreamingAudio(r)
		if err != nil {
			return nil, fmt.Errorf("audiograph: parsing streaming descriptor %d: %w", i, err)
		}
		p.Streams[i] = s
	}
	p.StreamBytes = make([][]byte, len(p.Streams))
	for i, s := range p.Streams {
		end := int(s.ByteOffset) + int(s.SamplesPerChunk)*int(s.ChunkCount)*bytesPerSample(s.BitDepth)*int(s.ChannelCount)
		if end > len(buf) {
			end = len(buf)
		}
		p.StreamBytes[i] = buf[s.ByteOffset:end]
	}

	return p, nil
}

func bytesPerSample(bitDepth uint32) int {
	return int(bitDepth) / 8
}
