// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package audiograph

import (
	"fmt"

	"github.com/NOT-REAL-GAMES/Taffy/hashreg"
)

// FilterType selects the response curve of an [AddFilterChain] node.
type FilterType uint32

const (
	FilterLowpass  FilterType = 0
	FilterHighpass FilterType = 1
	FilterBandpass FilterType = 2
)

// DistortionType selects the waveshaping curve of an
// [AddDistortionChain] node.
type DistortionType uint32

const (
	DistortionHardClip DistortionType = 0
	DistortionSoftClip DistortionType = 1
	DistortionFoldback DistortionType = 2
	DistortionBitCrush DistortionType = 3
	DistortionOverdrive DistortionType = 4
)

// AddOscillatorVoice adds a single oscillator node with a frequency
// and a waveform parameter. It makes no connections; it returns the
// oscillator's node id so callers can chain further processing onto
// it.
func (b *Builder) AddOscillatorVoice(name string, frequency float32, waveformType uint32) uint32 {
	osc := b.AddNode(NodeOscillator, hashreg.Default.Register(name), 0, 0)
	b.AddParameter(osc, hashreg.Default.Register(name+".frequency"), frequency, 20.0, 20000.0, curveExponential)
	b.AddParameter(osc, hashreg.Default.Register(name+".waveform"), float32(waveformType), 0, 3, curveLinear)
	return osc
}

// AddMixerBus adds a mixer node with one input per source, each
// summed at unity gain, and connects every source's default output
// to it.
func (b *Builder) AddMixerBus(name string, sources []uint32) uint32 {
	mixer := b.AddNode(NodeMixer, hashreg.Default.Register(name), 0, 0)
	for i, src := range sources {
		b.AddConnection(src, 0, mixer, uint32(i), 1.0)
	}
	return mixer
}

// AddADSREnvelope adds an envelope node with the four standard ADSR
// stage parameters and connects it to gate source's default output.
func (b *Builder) AddADSREnvelope(name string, attack, decay, sustain, release float32, gateSource uint32) uint32 {
	env := b.AddNode(NodeEnvelope, hashreg.Default.Register(name), 0, 0)
	b.AddParameter(env, hashreg.Default.Register(name+".attack"), attack, 0, 10, curveLinear)
	b.AddParameter(env, hashreg.Default.Register(name+".decay"), decay, 0, 10, curveLinear)
	b.AddParameter(env, hashreg.Default.Register(name+".sustain"), sustain, 0, 1, curveLinear)
	b.AddParameter(env, hashreg.Default.Register(name+".release"), release, 0, 10, curveLinear)
	b.AddConnection(gateSource, 0, env, 0, 1.0)
	return env
}

// AddFilterChain adds a filter node of the given type after source's
// default output, with a cutoff and resonance parameter.
func (b *Builder) AddFilterChain(name string, filterType FilterType, cutoff, resonance float32, source uint32) uint32 {
	f := b.AddNode(NodeFilter, hashreg.Default.Register(name), 0, 0)
	b.AddParameter(f, hashreg.Default.Register(name+".type"), float32(filterType), 0, 2, curveLinear)
	b.AddParameter(f, hashreg.Default.Register(name+".cutoff"), cutoff, 20.0, 20000.0, curveExponential)
	b.AddParameter(f, hashreg.Default.Register(name+".resonance"), resonance, 0, 1, curveLinear)
	b.AddConnection(source, 0, f, 0, 1.0)
	return f
}

// AddDistortionChain adds a distortion node of the given type after
// source's default output, with a drive parameter.
func (b *Builder) AddDistortionChain(name string, distortionType DistortionType, drive float32, source uint32) uint32 {
	d := b.AddNode(NodeDistortion, hashreg.Default.Register(name), 0, 0)
	b.AddParameter(d, hashreg.Default.Register(name+".type"), float32(distortionType), 0, 4, curveLinear)
	b.AddParameter(d, hashreg.Default.Register(name+".drive"), drive, 0, 10, curveLinear)
	b.AddConnection(source, 0, d, 0, 1.0)
	return d
}

// AddSampleAudio adds a sampler node backed by an embedded wavetable
// built from raw float samples, with the given loop points and base
// pitch. sampleRate must match the builder's own rate — every
// wavetable in a payload plays back at the header's single shared
// SampleRate, so a sample recorded at a different rate needs
// resampling before it is passed in here.
func (b *Builder) AddSampleAudio(name string, samples []float32, sampleRate, channelCount uint32, baseFrequency float32, loopStart, loopEnd uint32) (uint32, error) {
	if sampleRate != b.sampleRate {
		return 0, fmt.Errorf("audiograph: sample %q recorded at %d Hz, builder rate is %d Hz", name, sampleRate, b.sampleRate)
	}
	nameHash := hashreg.Default.Register(name)
	b.AddWavetable(nameHash, samples, channelCount, baseFrequency, loopStart, loopEnd)
	sampler := b.AddNode(NodeSampler, nameHash, 0, 0)
	return sampler, nil
}
