// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package hashreg

import (
	"fmt"
	"sort"
	"sync"

	"github.com/NOT-REAL-GAMES/Taffy/codec"
)

// Registry maps a 64-bit name hash back to the canonical string that
// produced it. It exists purely for diagnostics — no save, load, or
// overlay-apply path consults a Registry to decide correctness. The
// map is mutex-guarded rather than left to the caller, since nothing
// about this module's concurrency story (see package streaming)
// guarantees single-threaded access to a shared registry.
type Registry struct {
	mu         sync.Mutex
	strings    map[uint64]string
	collisions map[uint64][]string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		strings:    make(map[uint64]string),
		collisions: make(map[uint64][]string),
	}
}

// Register hashes s and records the mapping. If a different string
// already maps to the same hash, the collision is recorded (both
// strings are kept reachable via [Registry.Collisions]) but neither
// registration is rejected — the registry reports collisions, it
// doesn't arbitrate them.
func (r *Registry) Register(s string) uint64 {
	h := Hash(s)
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.strings[h]
	if !ok {
		r.strings[h] = s
		return h
	}
	if existing != s {
		if len(r.collisions[h]) == 0 {
			r.collisions[h] = []string{existing}
		}
		already := false
		for _, c := range r.collisions[h] {
			if c == s {
				already = true
				break
			}
		}
		if !already {
			r.collisions[h] = append(r.collisions[h], s)
		}
	}
	return h
}

// Lookup returns the canonical string for h, or a synthetic
// "UNKNOWN_HASH_0x…" placeholder if h was never registered.
func (r *Registry) Lookup(h uint64) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.strings[h]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN_HASH_0x%016x", h)
}

// HasCollision reports whether more than one distinct string has ever
// registered to h.
func (r *Registry) HasCollision(h uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.collisions[h]) > 0
}

// Collisions returns, for every hash with more than one registered
// string, the list of strings that collided.
func (r *Registry) Collisions() map[uint64][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[uint64][]string, len(r.collisions))
	for h, strs := range r.collisions {
		out[h] = append([]string(nil), strs...)
	}
	return out
}

// Entry is one hash/string pair as returned by [Registry.DebugDump].
type Entry struct {
	Hash   uint64 `cbor:"hash"`
	String string `cbor:"string"`
}

// DebugDump enumerates every registered entry, sorted by hash for
// deterministic output.
func (r *Registry) DebugDump() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]Entry, 0, len(r.strings))
	for h, s := range r.strings {
		entries = append(entries, Entry{Hash: h, String: s})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Hash < entries[j].Hash })
	return entries
}

// Snapshot encodes the registry's current contents as CBOR (Core
// Deterministic Encoding), for persisting a hash-to-string map
// alongside a build's assets so a later diagnostic session can decode
// name hashes it never itself registered.
func (r *Registry) Snapshot() ([]byte, error) {
	return codec.Marshal(r.DebugDump())
}

// LoadSnapshot merges a CBOR snapshot produced by [Registry.Snapshot]
// into r. Entries that collide with existing registrations are
// recorded via the normal collision-tracking path.
func (r *Registry) LoadSnapshot(data []byte) error {
	var entries []Entry
	if err := codec.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("hashreg: decoding snapshot: %w", err)
	}
	for _, e := range entries {
		r.mu.Lock()
		existing, ok := r.strings[e.Hash]
		r.mu.Unlock()
		if ok && existing == e.String {
			continue
		}
		r.registerAt(e.Hash, e.String)
	}
	return nil
}

// registerAt records s under an already-computed hash, used when
// restoring a snapshot so the stored hash (not a recomputation) is
// authoritative.
func (r *Registry) registerAt(h uint64, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.strings[h]
	if !ok {
		r.strings[h] = s
		return
	}
	if existing != s {
		if len(r.collisions[h]) == 0 {
			r.collisions[h] = []string{existing}
		}
		already := false
		for _, c := range r.collisions[h] {
			if c == s {
				already = true
				break
			}
		}
		if !already {
			r.collisions[h] = append(r.collisions[h], s)
		}
	}
}

// Default is the process-wide registry used by callers that don't
// need an explicit one. Per-call sites should prefer threading an
// explicit *Registry where practical; Default exists for the common
// case of a single process building or inspecting one asset at a
// time.
var Default = New()
