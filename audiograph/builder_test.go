// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package audiograph

import (
	"testing"

	"github.com/NOT-REAL-GAMES/Taffy/hashreg"
)

func TestSineOscillatorAudioChunk(t *testing.T) {
	reg := hashreg.New()

	b := New(48000, 60)
	osc := b.AddNode(NodeOscillator, reg.Register("osc"), 0, 0)
	amp := b.AddNode(NodeAmplifier, reg.Register("amp"), 0, 0)
	param := b.AddNode(NodeParameter, reg.Register("freqParam"), 0, 0)

	b.AddConnection(osc, 0, amp, 0, 1.0)
	b.AddConnection(param, 0, osc, 0, 1.0)

	b.AddParameter(param, reg.Register("frequency"), 440.0, 20.0, 20000.0, 2.0)
	b.AddParameter(amp, reg.Register("gain"), 1.0, 0.0, 1.0, 1.0)
	b.AddParameter(amp, reg.Register("pan"), 0.0, -1.0, 1.0, 1.0)
	b.AddParameter(osc, reg.Register("waveform"), 0.0, 0.0, 3.0, 1.0)

	data := b.Build()

	wantSize := HeaderSize + 3*NodeSize + 2*ConnectionSize + 4*ParameterSize
	if len(data) != wantSize {
		t.Fatalf("payload size = %d, want %d", len(data), wantSize)
	}

	payload, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(payload.Nodes) != 3 || len(payload.Connections) != 2 || len(payload.Parameters) != 4 {
		t.Fatalf("counts after parse = %d/%d/%d, want 3/2/4", len(payload.Nodes), len(payload.Connections), len(payload.Parameters))
	}

	freqHash := hashreg.Hash("frequency")
	var found *Parameter
	for i := range payload.Parameters {
		if payload.Parameters[i].NameHash == freqHash {
			found = &payload.Parameters[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("no parameter with frequency's name hash found after round-trip")
	}
	if found.Default != 440.0 || found.Min != 20.0 || found.Max != 20000.0 || found.Curve != 2.0 {
		t.Fatalf("frequency parameter = %+v, want default=440 min=20 max=20000 curve=2", found)
	}
}

func TestBuilderWithWavetableAndStreaming(t *testing.T) {
	reg := hashreg.New()
	b := New(44100, 60)

	samples := make([]float32, 8)
	for i := range samples {
		samples[i] = float32(i) / 8.0
	}
	if _, err := b.AddSampleAudio("kick", samples, 44100, 1, 60.0, 0, 0); err != nil {
		t.Fatalf("AddSampleAudio: %v", err)
	}

	raw := make([]byte, 4*2*100) // 100 stereo 16-bit samples per chunk
	b.AddStreamingAudio(reg.Register("ambient_loop"), raw, 44100, 2, 16, 400, 100, StreamingFormatPCM)

	data := b.Build()
	payload, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(payload.Wavetables) != 1 {
		t.Fatalf("wavetable count = %d, want 1", len(payload.Wavetables))
	}
	if len(payload.WavetableBytes[0]) != len(samples)*2 {
		t.Fatalf("wavetable byte length = %d, want %d", len(payload.WavetableBytes[0]), len(samples)*2)
	}
	if len(payload.Streams) != 1 {
		t.Fatalf("streaming descriptor count = %d, want 1", len(payload.Streams))
	}
	if payload.Streams[0].ChunkCount != 4 {
		t.Fatalf("chunk count = %d, want 4", payload.Streams[0].ChunkCount)
	}
	if len(payload.StreamBytes[0]) != len(raw) {
		t.Fatalf("stream byte length = %d, want %d", len(payload.StreamBytes[0]), len(raw))
	}
}

func TestBuilderConvenienceChain(t *testing.T) {
	b := New(48000, 60)
	osc := b.AddOscillatorVoice("lead", 220.0, 0)
	filt := b.AddFilterChain("lead_filter", FilterLowpass, 2000.0, 0.3, osc)
	dist := b.AddDistortionChain("lead_drive", DistortionSoftClip, 0.4, filt)
	env := b.AddADSREnvelope("lead_env", 0.01, 0.1, 0.7, 0.3, dist)
	_ = b.AddMixerBus("main_bus", []uint32{env})

	data := b.Build()
	payload, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(payload.Nodes) != 5 {
		t.Fatalf("node count = %d, want 5", len(payload.Nodes))
	}
	if len(payload.Connections) != 4 {
		t.Fatalf("connection count = %d, want 4", len(payload.Connections))
	}
}
