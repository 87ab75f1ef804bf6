// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

// Package overlay implements the TAFO overlay format: a small file
// that names one or more target assets and carries a sequence of
// typed mutation operations (shader swaps, vertex attribute edits,
// geometry transforms) to apply to them without touching the
// original TAF file on disk.
//
// [Overlay] builds and parses the .tafo structure itself. Applying an
// overlay to a loaded [container.Asset] is [Apply]; it mutates the
// asset's chunk payloads in place according to each operation's
// feature-flag-derived policy (the vertex-color attribute offset
// branches on the target's quantized-coordinate flag; see
// colorOffset in apply.go).
package overlay
