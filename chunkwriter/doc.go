// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunkwriter builds a TAF file across two passes: chunks are
// declared and buffered in memory through [Writer.AddMetadataChunk]
// and [Writer.AddAudioChunk], and the header, directory, and buffered
// payloads are only committed to disk once, by [Writer.Finalize].
// This lets the directory's offsets be computed after every chunk's
// final size is known, without seeking backward through a
// partially-written file.
package chunkwriter
