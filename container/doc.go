// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

// Package container implements the TAF chunk container: a fixed
// header, a directory of fixed-size chunk entries, and a set of
// CRC32-verified payloads laid out contiguously after the directory.
//
// An [Asset] owns its chunk payloads exclusively and computes offsets
// only once, at [Asset.SaveToFile] time — [Asset.AddChunk] never
// touches the file system or assigns a real offset. Loading is the
// mirror image: [LoadFromFileSafe] validates the header, validates
// every directory entry's bounds, and verifies every payload's CRC32
// before handing back an Asset whose map is guaranteed consistent with
// its directory.
package container
