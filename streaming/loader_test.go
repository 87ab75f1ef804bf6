// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package streaming

import (
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/NOT-REAL-GAMES/Taffy/container"
)

const megabyte = 1 << 20

// buildStreamingFile writes a synthetic TAF file with chunkCount
// chunks of chunkSize bytes each, every chunk tagged AUDI and named
// "chunk", and returns its path.
func buildStreamingFile(t *testing.T, chunkCount, chunkSize int) string {
	t.Helper()

	type entry struct {
		offset uint64
		data   []byte
	}
	entries := make([]entry, chunkCount)
	dataStart := uint64(container.HeaderSize() + chunkCount*container.DirectoryEntrySize())
	offset := dataStart
	for i := range entries {
		data := make([]byte, chunkSize)
		for j := range data {
			data[j] = byte(i)
		}
		entries[i] = entry{offset: offset, data: data}
		offset += uint64(chunkSize)
	}

	header := container.Header{
		Magic:        [4]byte{'T', 'A', 'F', '!'},
		VersionMajor: 1,
		ChunkCount:   uint32(chunkCount),
		TotalSize:    offset,
	}

	path := filepath.Join(t.TempDir(), "stream.taf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	if _, err := f.Write(header.Marshal()); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i, e := range entries {
		de := container.DirectoryEntry{
			Tag:      container.TagAudio,
			Offset:   e.offset,
			Size:     uint64(len(e.data)),
			Checksum: crc32.ChecksumIEEE(e.data),
			Name:     "chunk",
		}
		if _, err := f.Write(de.Marshal()); err != nil {
			t.Fatalf("write directory entry %d: %v", i, err)
		}
	}
	for i, e := range entries {
		if _, err := f.Write(e.data); err != nil {
			t.Fatalf("write chunk %d: %v", i, err)
		}
	}

	return path
}

func TestCacheEvictionLeastAccessedFirst(t *testing.T) {
	path := buildStreamingFile(t, 100, megabyte)

	loader, err := Open(path, CacheConfig{MaxBytes: 50 * megabyte})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer loader.Close()

	for i := 0; i <= 70; i++ {
		if _, err := loader.LoadChunk(i); err != nil {
			t.Fatalf("LoadChunk(%d): %v", i, err)
		}
	}
	for rep := 0; rep < 10; rep++ {
		for i := 0; i < 10; i++ {
			if _, err := loader.LoadChunk(i); err != nil {
				t.Fatalf("LoadChunk(%d) rep %d: %v", i, rep, err)
			}
		}
	}

	stats := loader.CacheStats()
	if stats.Hits != 100 {
		t.Fatalf("hits = %d, want 100", stats.Hits)
	}
	if stats.Misses != 71 {
		t.Fatalf("misses = %d, want 71", stats.Misses)
	}
	if stats.LoadedCount != 50 {
		t.Fatalf("loaded count = %d, want 50", stats.LoadedCount)
	}
	if stats.Bytes != 50*megabyte {
		t.Fatalf("cached bytes = %d, want %d", stats.Bytes, 50*megabyte)
	}

	if _, ok := loader.cache[70]; ok {
		t.Fatalf("chunk 70 should have been evicted")
	}
	for i := 0; i <= 9; i++ {
		if _, ok := loader.cache[i]; !ok {
			t.Fatalf("chunk %d should still be cached", i)
		}
	}
}

func TestLoadChunkByNameAndChunkInfo(t *testing.T) {
	path := buildStreamingFile(t, 3, 1024)
	loader, err := Open(path, CacheConfig{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer loader.Close()

	data, err := loader.LoadChunkByName("chunk")
	if err != nil {
		t.Fatalf("LoadChunkByName: %v", err)
	}
	if len(data) != 1024 {
		t.Fatalf("len(data) = %d, want 1024", len(data))
	}

	info, err := loader.ChunkInfo(1)
	if err != nil {
		t.Fatalf("ChunkInfo: %v", err)
	}
	if info.Tag != container.TagAudio {
		t.Fatalf("ChunkInfo tag = %v, want TagAudio", info.Tag)
	}

	if _, err := loader.ChunkInfo(99); err == nil {
		t.Fatalf("expected error for out-of-range chunk index")
	}
}

func TestLoadMetadataFindsFirstAudioChunk(t *testing.T) {
	path := buildStreamingFile(t, 2, 512)
	loader, err := Open(path, CacheConfig{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer loader.Close()

	meta, err := loader.LoadMetadata()
	if err != nil {
		t.Fatalf("LoadMetadata: %v", err)
	}
	if len(meta) != 512 {
		t.Fatalf("len(meta) = %d, want 512", len(meta))
	}
}

func TestClearCacheDropsEntriesKeepsStats(t *testing.T) {
	path := buildStreamingFile(t, 5, 1024)
	loader, err := Open(path, CacheConfig{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer loader.Close()

	for i := 0; i < 5; i++ {
		if _, err := loader.LoadChunk(i); err != nil {
			t.Fatalf("LoadChunk(%d): %v", i, err)
		}
	}
	loader.ClearCache()
	stats := loader.CacheStats()
	if stats.LoadedCount != 0 || stats.Bytes != 0 {
		t.Fatalf("stats after clear = %+v, want zeroed cache", stats)
	}
	if stats.Misses != 5 {
		t.Fatalf("misses after clear = %d, want 5 (unaffected by ClearCache)", stats.Misses)
	}
}

func TestPreloadChunks(t *testing.T) {
	path := buildStreamingFile(t, 10, 1024)
	loader, err := Open(path, CacheConfig{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer loader.Close()

	if err := loader.PreloadChunks([]int{0, 2, 4}); err != nil {
		t.Fatalf("PreloadChunks: %v", err)
	}
	if stats := loader.CacheStats(); stats.LoadedCount != 3 {
		t.Fatalf("loaded count = %d, want 3", stats.LoadedCount)
	}
}

func TestHandleRegistryDropsOnClose(t *testing.T) {
	path := buildStreamingFile(t, 1, 256)

	h, err := CreateHandle(path, CacheConfig{})
	if err != nil {
		t.Fatalf("CreateHandle: %v", err)
	}
	ids := LiveHandleIDs()
	found := false
	for _, id := range ids {
		if id == h.ID() {
			found = true
		}
	}
	if !found {
		t.Fatalf("handle %d not found among live handles %v", h.ID(), ids)
	}

	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	for _, id := range LiveHandleIDs() {
		if id == h.ID() {
			t.Fatalf("handle %d still live after Close", h.ID())
		}
	}
}
