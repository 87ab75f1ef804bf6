// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

// Package audiograph assembles the AUDI chunk payload: a node graph
// of typed DSP nodes, their connections, a flat parameter array, and
// optional embedded wavetables or streaming-audio descriptors.
//
// [Builder] is the only way to produce a well-formed payload — it
// tracks section sizes as nodes, connections, parameters, wavetables,
// and streaming descriptors are added, so that every offset field is
// correct at [Builder.Build] time without a second pass over the
// data.
package audiograph
