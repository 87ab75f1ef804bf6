// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package container

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NOT-REAL-GAMES/Taffy/errs"
)

func TestEmptyAssetRoundTrip(t *testing.T) {
	a := New()
	a.SetCreator("Taffy")
	a.SetDescription("test")

	path := filepath.Join(t.TempDir(), "empty.taf")
	if err := a.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
	if got := a.FileSize(); got != headerSize {
		t.Fatalf("FileSize = %d, want %d", got, headerSize)
	}

	loaded, err := LoadFromFileSafe(path)
	if err != nil {
		t.Fatalf("LoadFromFileSafe: %v", err)
	}
	if loaded.Creator() != "Taffy" {
		t.Fatalf("Creator = %q, want %q", loaded.Creator(), "Taffy")
	}
	if loaded.Description() != "test" {
		t.Fatalf("Description = %q, want %q", loaded.Description(), "test")
	}
	if loaded.ChunkCount() != 0 {
		t.Fatalf("ChunkCount = %d, want 0", loaded.ChunkCount())
	}
}

func TestSingleChunkRoundTrip(t *testing.T) {
	a := New()
	payload := make([]byte, 3*76+12)
	for i := range payload {
		payload[i] = byte(i)
	}
	a.AddChunk(TagGeometry, payload, "mesh0")

	path := filepath.Join(t.TempDir(), "geom.taf")
	if err := a.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	loaded, err := LoadFromFileSafe(path)
	if err != nil {
		t.Fatalf("LoadFromFileSafe: %v", err)
	}
	got, ok := loaded.ChunkData(TagGeometry)
	if !ok {
		t.Fatalf("expected GEOM chunk to round-trip")
	}
	if len(got) != len(payload) {
		t.Fatalf("payload length = %d, want %d", len(got), len(payload))
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("payload byte %d = %d, want %d", i, got[i], payload[i])
		}
	}
}

func TestDirectoryOffsetMonotonicity(t *testing.T) {
	a := New()
	a.AddChunk(TagGeometry, make([]byte, 100), "a")
	a.AddChunk(TagMaterial, make([]byte, 50), "b")
	a.AddChunk(TagAudio, make([]byte, 30), "c")

	path := filepath.Join(t.TempDir(), "multi.taf")
	if err := a.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	entries := a.DirectoryEntries()
	wantFirst := uint64(headerSize) + uint64(len(entries))*uint64(directoryEntrySize)
	if entries[0].Offset != wantFirst {
		t.Fatalf("first entry offset = %d, want %d", entries[0].Offset, wantFirst)
	}
	for i := 1; i < len(entries); i++ {
		want := entries[i-1].Offset + entries[i-1].Size
		if entries[i].Offset != want {
			t.Fatalf("entry %d offset = %d, want %d", i, entries[i].Offset, want)
		}
	}

	wantTotal := wantFirst
	for _, e := range entries {
		wantTotal += e.Size
	}
	loaded, err := LoadFromFileSafe(path)
	if err != nil {
		t.Fatalf("LoadFromFileSafe: %v", err)
	}
	if got := loaded.FileSize(); uint64(got) != wantTotal {
		t.Fatalf("FileSize = %d, want %d", got, wantTotal)
	}
}

func TestChecksumMismatchFailsLoad(t *testing.T) {
	a := New()
	a.AddChunk(TagGeometry, []byte("hello"), "g")
	path := filepath.Join(t.TempDir(), "corrupt.taf")
	if err := a.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	// Flip a byte inside the payload region without touching the
	// directory's stored checksum.
	corruptByteAt(t, path, int64(headerSize)+int64(directoryEntrySize))

	_, err := LoadFromFileSafe(path)
	if !errs.IsChecksum(err) {
		t.Fatalf("LoadFromFileSafe error = %v, want a ChecksumError", err)
	}
}

func TestValidationErrorOnBadMagic(t *testing.T) {
	a := New()
	path := filepath.Join(t.TempDir(), "badmagic.taf")
	if err := a.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
	corruptByteAt(t, path, 0)

	_, err := LoadFromFileSafe(path)
	if !errs.IsValidation(err) {
		t.Fatalf("LoadFromFileSafe error = %v, want a ValidationError", err)
	}
}

func corruptByteAt(t *testing.T, path string, offset int64) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		t.Fatalf("opening %s for corruption: %v", path, err)
	}
	defer f.Close()
	buf := make([]byte, 1)
	if _, err := f.ReadAt(buf, offset); err != nil {
		t.Fatalf("reading byte to corrupt: %v", err)
	}
	buf[0] ^= 0xFF
	if _, err := f.WriteAt(buf, offset); err != nil {
		t.Fatalf("writing corrupted byte: %v", err)
	}
}
