// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

// Package hashreg implements the FNV-1a 64-bit name hash used
// throughout Taffy's chunk and overlay formats, plus an optional
// hash-to-string registry for turning a chunk's name_hash field back
// into something a human can read in a diagnostic dump.
//
// Hashing never depends on the registry: [Hash] is a pure function of
// its input bytes and the registry exists purely for debugging. A
// caller that never touches [Registry] still gets fully correct
// save/load/apply behavior.
package hashreg
