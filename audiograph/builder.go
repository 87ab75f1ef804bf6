// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package audiograph

import (
	"github.com/NOT-REAL-GAMES/Taffy/internal/wire"
)

// Builder assembles an AUDI chunk payload one node, connection, or
// parameter at a time. It is the only supported way to produce a
// well-formed payload: offsets into the parameter array and the
// wavetable/streaming byte regions are computed at [Builder.Build]
// time from the order items were added, so callers never hand-roll
// offsets themselves.
type Builder struct {
	sampleRate uint32
	tickRate   uint32

	nodes       []Node
	connections []Connection
	parameters  []Parameter

	wavetables     []Wavetable
	wavetableBytes [][]byte

	streams     []StreamingAudio
	streamBytes [][]byte

	nextNodeID uint32
}

// New creates an empty builder. sampleRate and tickRate populate the
// header's fixed fields; tickRate is the control-rate at which
// game-aware and pattern nodes are evaluated, independent of the
// audio sample rate.
func New(sampleRate, tickRate uint32) *Builder {
	return &Builder{sampleRate: sampleRate, tickRate: tickRate}
}

// AddNode appends a node and returns its assigned id. Position
// coordinates are purely for a visual editor and have no effect on
// playback.
func (b *Builder) AddNode(typ NodeType, nameHash uint64, editorX, editorY float32) uint32 {
	id := b.nextNodeID
	b.nextNodeID++
	b.nodes = append(b.nodes, Node{
		ID:       id,
		Type:     typ,
		NameHash: nameHash,
		EditorX:  editorX,
		EditorY:  editorY,
	})
	return id
}

// AddConnection wires output outputIndex of source to input
// inputIndex of dest, scaled by strength (typically 1.0).
func (b *Builder) AddConnection(source uint32, outputIndex uint32, dest uint32, inputIndex uint32, strength float32) {
	b.connections = append(b.connections, Connection{
		SourceNodeID:      source,
		SourceOutputIndex: outputIndex,
		DestNodeID:        dest,
		DestInputIndex:    inputIndex,
		Strength:          strength,
	})
}

// AddParameter appends a parameter to the flat parameter array and
// binds it to nodeID's window, incrementing that node's ParamCount.
// Parameters for a given node must be added contiguously — interleaving
// parameters for two different nodes produces a non-contiguous window
// that Resolve-style consumers cannot address correctly.
func (b *Builder) AddParameter(nodeID uint32, nameHash uint64, def, min, max, curve float32) int {
	idx := len(b.parameters)
	b.parameters = append(b.parameters, Parameter{
		NameHash: nameHash,
		Default:  def,
		Min:      min,
		Max:      max,
		Curve:    curve,
	})
	for i := range b.nodes {
		if b.nodes[i].ID == nodeID {
			if b.nodes[i].ParamCount == 0 {
				b.nodes[i].ParamOffset = uint32(idx)
			}
			b.nodes[i].ParamCount++
			break
		}
	}
	return idx
}

// AddWavetable embeds samples as a wavetable, converting each float
// sample to int16 PCM by clamping to [-1,1] and truncating the scaled
// result (no dithering). loopStart/loopEnd of 0/0 means no loop.
func (b *Builder) AddWavetable(nameHash uint64, samples []float32, channelCount uint32, baseFrequency float32, loopStart, loopEnd uint32) {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		pcm[2*i] = byte(v)
		pcm[2*i+1] = byte(v >> 8)
	}
	b.wavetables = append(b.wavetables, Wavetable{
		NameHash:      nameHash,
		SampleCount:   uint32(len(samples)),
		ChannelCount:  channelCount,
		BitDepth:      16,
		ByteSize:      uint64(len(pcm)),
		BaseFrequency: baseFrequency,
		LoopStart:     loopStart,
		LoopEnd:       loopEnd,
	})
	b.wavetableBytes = append(b.wavetableBytes, pcm)
}

// AddStreamingAudio registers a streamed-audio source. raw is the
// already-encoded sample data (PCM16 or float32 per format) in
// samplesPerChunk-sized windows; the builder does not reinterpret it,
// only records its byte length and placement.
func (b *Builder) AddStreamingAudio(nameHash uint64, raw []byte, sampleRate, channelCount, bitDepth, totalSamples, samplesPerChunk uint32, format StreamingFormat) {
	chunkCount := totalSamples / samplesPerChunk
	if totalSamples%samplesPerChunk != 0 {
		chunkCount++
	}
	b.streams = append(b.streams, StreamingAudio{
		NameHash:        nameHash,
		SampleRate:       sampleRate,
		ChannelCount:     channelCount,
		BitDepth:         bitDepth,
		TotalSamples:     totalSamples,
		SamplesPerChunk:  samplesPerChunk,
		ChunkCount:       chunkCount,
		Format:           format,
	})
	b.streamBytes = append(b.streamBytes, raw)
}

// Build serializes the accumulated graph into a complete AUDI chunk
// payload: header, node array, connection array, parameter array,
// wavetable descriptors, wavetable bytes, streaming descriptors, then
// streaming bytes, in that order.
func (b *Builder) Build() []byte {
	header := Header{
		NodeCount:       uint32(len(b.nodes)),
		ConnectionCount: uint32(len(b.connections)),
		ParameterCount:  uint32(len(b.parameters)),
		WavetableCount:  uint32(len(b.wavetables)),
		StreamingCount:  uint32(len(b.streams)),
		SampleRate:      b.sampleRate,
		TickRate:        b.tickRate,
	}

	wavetableBytesStart := HeaderSize +
		len(b.nodes)*NodeSize +
		len(b.connections)*ConnectionSize +
		len(b.parameters)*ParameterSize +
		len(b.wavetables)*WavetableDescriptorSize

	wavetableBytesTotal := 0
	for _, raw := range b.wavetableBytes {
		wavetableBytesTotal += len(raw)
	}
	streamingDescriptorsStart := wavetableBytesStart + wavetableBytesTotal
	streamBytesStart := streamingDescriptorsStart + len(b.streams)*StreamingDescriptorSize

	offset := wavetableBytesStart
	for i := range b.wavetables {
		b.wavetables[i].ByteOffset = uint64(offset)
		offset += len(b.wavetableBytes[i])
	}
	offset = streamBytesStart
	for i := range b.streams {
		b.streams[i].ByteOffset = uint64(offset)
		offset += len(b.streamBytes[i])
	}

	w := wire.NewWriter(offset)
	header.marshal(w)
	for i := range b.nodes {
		b.nodes[i].marshal(w)
	}
	for i := range b.connections {
		b.connections[i].marshal(w)
	}
	for i := range b.parameters {
		b.parameters[i].marshal(w)
	}
	for i := range b.wavetables {
		b.wavetables[i].marshal(w)
	}
	for _, raw := range b.wavetableBytes {
		w.Raw(raw)
	}
	for i := range b.streams {
		b.streams[i].marshal(w)
	}
	for _, raw := range b.streamBytes {
		w.Raw(raw)
	}
	return w.Bytes()
}

// curveLinear and curveExponential name the two response-curve
// exponents the format defines; a [Parameter.Curve] value of 1 is
// linear, 2 is exponential (audible frequency and gain controls use
// the latter).
const (
	curveLinear      float32 = 1.0
	curveExponential float32 = 2.0
)
