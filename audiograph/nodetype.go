// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package audiograph

// NodeType is a closed set of numeric tags for the audio graph's DSP
// nodes. The numbering is stable across implementations — it is
// embedded in every AUDI chunk ever written and must never be
// renumbered.
type NodeType uint32

const (
	// Generators.
	NodeOscillator       NodeType = 0
	NodeWaveTablePlayer  NodeType = 1
	NodeNoiseGenerator   NodeType = 2
	NodeSampler          NodeType = 3
	NodeStreamingSampler NodeType = 4

	// Processors.
	NodeFilter      NodeType = 10
	NodeAmplifier   NodeType = 11
	NodeEnvelope    NodeType = 12
	NodeLFO         NodeType = 13
	NodeDelay       NodeType = 14
	NodeReverb      NodeType = 15
	NodeDistortion  NodeType = 16
	NodeCompressor  NodeType = 17

	// Utility.
	NodeMixer    NodeType = 20
	NodeSplitter NodeType = 21
	NodeMath     NodeType = 22

	// Game-aware.
	NodeGameState       NodeType = 30
	NodeProximity       NodeType = 31
	NodeCombatIntensity NodeType = 32

	// Control.
	NodePatternPlayer NodeType = 40
	NodeParameter     NodeType = 41
	NodeRandom        NodeType = 42

	// Custom.
	NodeVM NodeType = 100
)
