// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package chunkwriter

import (
	"path/filepath"
	"testing"

	"github.com/NOT-REAL-GAMES/Taffy/container"
	"github.com/NOT-REAL-GAMES/Taffy/streaming"
)

func TestFinalizeProducesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.taf")
	w := Begin(path)
	w.SetCreator("writer-test")

	meta := []byte("metadata")
	if err := w.AddMetadataChunk(container.TagAudio, meta, "metadata"); err != nil {
		t.Fatalf("AddMetadataChunk: %v", err)
	}
	for i := 0; i < 4; i++ {
		if err := w.AddAudioChunk(i, []byte{byte(i), byte(i), byte(i)}); err != nil {
			t.Fatalf("AddAudioChunk(%d): %v", i, err)
		}
	}
	if got := w.ChunkCount(); got != 5 {
		t.Fatalf("ChunkCount = %d, want 5", got)
	}

	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	loader, err := streaming.Open(path, streaming.CacheConfig{})
	if err != nil {
		t.Fatalf("streaming.Open: %v", err)
	}
	defer loader.Close()

	data, err := loader.LoadMetadata()
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if string(data) != "metadata" {
		t.Fatalf("metadata = %q, want %q", data, "metadata")
	}

	chunk2, err := loader.LoadChunkByName("chunk-2")
	if err != nil {
		t.Fatalf("LoadChunkByName: %v", err)
	}
	want := []byte{2, 2, 2}
	if string(chunk2) != string(want) {
		t.Fatalf("chunk-2 = %v, want %v", chunk2, want)
	}
}

func TestFinalizeIsNotReentrant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.taf")
	w := Begin(path)
	if err := w.AddMetadataChunk(container.TagAudio, []byte("x"), "x"); err != nil {
		t.Fatalf("AddMetadataChunk: %v", err)
	}
	if err := w.Finalize(); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	if err := w.Finalize(); err == nil {
		t.Fatalf("second Finalize should have failed")
	}
}

func TestAddChunkAfterFinalizeFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.taf")
	w := Begin(path)
	if err := w.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := w.AddMetadataChunk(container.TagAudio, []byte("x"), "x"); err == nil {
		t.Fatalf("AddMetadataChunk after Finalize should have failed")
	}
}
