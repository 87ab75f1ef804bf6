// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package streaming

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/NOT-REAL-GAMES/Taffy/codec"
	"github.com/NOT-REAL-GAMES/Taffy/container"
	"github.com/NOT-REAL-GAMES/Taffy/errs"
)

// DefaultMaxCacheBytes is the cache bound a [Loader] uses when
// [CacheConfig.MaxBytes] is left at zero.
const DefaultMaxCacheBytes = 50 * 1024 * 1024

// CacheConfig tunes a Loader's cache. The zero value selects
// [DefaultMaxCacheBytes].
type CacheConfig struct {
	MaxBytes int64
}

func (c CacheConfig) maxBytes() int64 {
	if c.MaxBytes <= 0 {
		return DefaultMaxCacheBytes
	}
	return c.MaxBytes
}

// CacheConfigFromBytes builds a CacheConfig from a configured byte
// bound such as [config.StreamingConfig.CacheMaxBytes]; zero selects
// [DefaultMaxCacheBytes].
func CacheConfigFromBytes(maxBytes int64) CacheConfig {
	return CacheConfig{MaxBytes: maxBytes}
}

// CacheStats reports a Loader's cumulative cache accounting.
type CacheStats struct {
	LoadedCount int    `cbor:"loaded_count"`
	Bytes       int64  `cbor:"bytes"`
	Hits        uint64 `cbor:"hits"`
	Misses      uint64 `cbor:"misses"`
}

// Encode CBOR-encodes stats for diagnostic export — a structured dump
// a caller can hand to a separate monitoring process instead of the
// in-memory struct. Named to avoid satisfying cbor.Marshaler itself,
// which would recurse into codec.Marshal's own Marshaler dispatch.
func (s CacheStats) Encode() ([]byte, error) {
	return codec.Marshal(s)
}

type cacheEntry struct {
	bytes       []byte
	accessCount uint64
}

// Loader keeps a TAF file open and services random-access chunk
// reads. Its directory is immutable after [Open]; its cache is
// mutable and evictable at any time. The file lock and the cache lock
// are two separate mutexes that are never held simultaneously — see
// [Loader.LoadChunk].
type Loader struct {
	path string

	fileMu sync.Mutex
	file   *os.File

	header    container.Header
	directory []container.DirectoryEntry
	nameIndex map[string]int

	cacheMu       sync.Mutex
	cache         map[int]*cacheEntry
	cacheBytes    int64
	hits, misses  uint64
	maxCacheBytes int64
}

// Open opens path, reading and validating the header and directory as
// the container package's load algorithm does, but without reading
// any payload. A Loader is ready for [Loader.LoadChunk] calls once
// Open returns successfully.
func Open(path string, cfg CacheConfig) (*Loader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &errs.ReadError{Op: "open " + path, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &errs.ReadError{Op: "stat " + path, Err: err}
	}
	fileSize := info.Size()

	headerBuf := make([]byte, container.HeaderSize())
	if _, err := io.ReadFull(f, headerBuf); err != nil {
		f.Close()
		return nil, &errs.ReadError{Op: "read header", Err: err}
	}
	header, err := container.UnmarshalHeader(headerBuf)
	if err != nil {
		f.Close()
		return nil, &errs.ReadError{Op: "parse header", Err: err}
	}
	if err := container.ValidateHeader(header, fileSize); err != nil {
		f.Close()
		return nil, err
	}

	directory := make([]container.DirectoryEntry, header.ChunkCount)
	entryBuf := make([]byte, container.DirectoryEntrySize())
	nameIndex := make(map[string]int, len(directory))
	for i := range directory {
		if _, err := io.ReadFull(f, entryBuf); err != nil {
			f.Close()
			return nil, &errs.ReadError{Op: fmt.Sprintf("read directory entry %d", i), Err: err}
		}
		entry, err := container.UnmarshalDirectoryEntry(entryBuf)
		if err != nil {
			f.Close()
			return nil, &errs.ReadError{Op: fmt.Sprintf("parse directory entry %d", i), Err: err}
		}
		if int64(entry.Offset) >= fileSize || int64(entry.Offset)+int64(entry.Size) > fileSize {
			f.Close()
			return nil, &errs.ValidationError{What: "directory entry bounds", Detail: fmt.Sprintf(
				"entry %d (%s): offset=%d size=%d exceeds file size %d", i, entry.Tag, entry.Offset, entry.Size, fileSize)}
		}
		directory[i] = entry
		if entry.Name != "" {
			nameIndex[entry.Name] = i
		}
	}

	return &Loader{
		path:          path,
		file:          f,
		header:        header,
		directory:     directory,
		nameIndex:     nameIndex,
		cache:         make(map[int]*cacheEntry),
		maxCacheBytes: cfg.maxBytes(),
	}, nil
}

// Close closes the file and clears the directory and cache. Repeated
// opens on the same Loader value are not supported; construct a new
// Loader via [Open] instead.
func (l *Loader) Close() error {
	l.fileMu.Lock()
	var err error
	if l.file != nil {
		err = l.file.Close()
		l.file = nil
	}
	l.fileMu.Unlock()

	l.cacheMu.Lock()
	l.cache = make(map[int]*cacheEntry)
	l.cacheBytes = 0
	l.cacheMu.Unlock()

	l.directory = nil
	l.nameIndex = nil
	if err != nil {
		return &errs.ReadError{Op: "close " + l.path, Err: err}
	}
	return nil
}

// ChunkInfo returns the directory entry at index without touching the
// file.
func (l *Loader) ChunkInfo(index int) (container.DirectoryEntry, error) {
	if index < 0 || index >= len(l.directory) {
		return container.DirectoryEntry{}, &errs.NotFoundError{What: fmt.Sprintf("chunk index %d", index)}
	}
	return l.directory[index], nil
}

// ChunkInfoByName returns the directory entry for name without
// touching the file.
func (l *Loader) ChunkInfoByName(name string) (container.DirectoryEntry, error) {
	idx, ok := l.nameIndex[name]
	if !ok {
		return container.DirectoryEntry{}, &errs.NotFoundError{What: fmt.Sprintf("chunk name %q", name)}
	}
	return l.directory[idx], nil
}

// LoadChunk returns a copy of the payload bytes for the chunk at
// index, consulting the cache first. The file lock guards the seek
// and read; it is released before the cache lock is acquired to
// insert the freshly loaded bytes, so the two locks are never held
// together.
func (l *Loader) LoadChunk(index int) ([]byte, error) {
	if index < 0 || index >= len(l.directory) {
		return nil, &errs.NotFoundError{What: fmt.Sprintf("chunk index %d", index)}
	}

	l.cacheMu.Lock()
	if entry, ok := l.cache[index]; ok {
		entry.accessCount++
		l.hits++
		out := append([]byte(nil), entry.bytes...)
		l.cacheMu.Unlock()
		return out, nil
	}
	l.cacheMu.Unlock()

	entry := l.directory[index]
	data, err := l.readChunk(entry)
	if err != nil {
		return nil, err
	}

	l.cacheMu.Lock()
	l.misses++
	if existing, ok := l.cache[index]; ok {
		// Another goroutine inserted the same index between our
		// cache-miss check and this insert; keep its access count.
		existing.bytes = data
	} else {
		l.cache[index] = &cacheEntry{bytes: data, accessCount: 1}
		l.cacheBytes += int64(len(data))
	}
	l.evictLocked()
	out := append([]byte(nil), data...)
	l.cacheMu.Unlock()

	return out, nil
}

// LoadChunkByName is [Loader.LoadChunk] addressed by chunk name.
func (l *Loader) LoadChunkByName(name string) ([]byte, error) {
	idx, ok := l.nameIndex[name]
	if !ok {
		return nil, &errs.NotFoundError{What: fmt.Sprintf("chunk name %q", name)}
	}
	return l.LoadChunk(idx)
}

// LoadMetadata returns the first AUDI chunk's payload, used as
// out-of-band metadata for streaming audio assets.
func (l *Loader) LoadMetadata() ([]byte, error) {
	for i, e := range l.directory {
		if e.Tag == container.TagAudio {
			return l.LoadChunk(i)
		}
	}
	return nil, &errs.NotFoundError{What: "AUDI chunk"}
}

// PreloadChunks loads each index in indices, populating the cache.
// The first error encountered stops the loop and is returned.
func (l *Loader) PreloadChunks(indices []int) error {
	for _, idx := range indices {
		if _, err := l.LoadChunk(idx); err != nil {
			return err
		}
	}
	return nil
}

// ClearCache discards every cached payload without affecting
// cumulative hit/miss counters.
func (l *Loader) ClearCache() {
	l.cacheMu.Lock()
	l.cache = make(map[int]*cacheEntry)
	l.cacheBytes = 0
	l.cacheMu.Unlock()
}

// CacheStats returns a snapshot of the cache's current accounting.
func (l *Loader) CacheStats() CacheStats {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()
	return CacheStats{
		LoadedCount: len(l.cache),
		Bytes:       l.cacheBytes,
		Hits:        l.hits,
		Misses:      l.misses,
	}
}

func (l *Loader) readChunk(entry container.DirectoryEntry) ([]byte, error) {
	l.fileMu.Lock()
	defer l.fileMu.Unlock()

	if l.file == nil {
		return nil, &errs.ReadError{Op: "read chunk " + entry.Tag.String(), Err: fmt.Errorf("loader is closed")}
	}
	if _, err := l.file.Seek(int64(entry.Offset), io.SeekStart); err != nil {
		return nil, &errs.ReadError{Op: "seek to chunk " + entry.Tag.String(), Err: err}
	}
	data := make([]byte, entry.Size)
	if _, err := io.ReadFull(l.file, data); err != nil {
		return nil, &errs.ReadError{Op: "read chunk " + entry.Tag.String(), Err: err}
	}
	return data, nil
}

// evictLocked evicts entries in increasing access-count order until
// cacheBytes is under the configured bound. Ties within an
// access-count band are broken by lowest index: of two equally
// accessed entries, the higher-indexed one is evicted first, so the
// lowest index in any tied group is the last one standing. Callers
// must hold cacheMu.
func (l *Loader) evictLocked() {
	if l.cacheBytes <= l.maxCacheBytes {
		return
	}
	indices := make([]int, 0, len(l.cache))
	for idx := range l.cache {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool {
		ei, ej := l.cache[indices[i]], l.cache[indices[j]]
		if ei.accessCount != ej.accessCount {
			return ei.accessCount < ej.accessCount
		}
		return indices[i] > indices[j]
	})
	for _, idx := range indices {
		if l.cacheBytes <= l.maxCacheBytes {
			break
		}
		l.cacheBytes -= int64(len(l.cache[idx].bytes))
		delete(l.cache, idx)
	}
}
