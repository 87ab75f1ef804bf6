// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package streaming

import (
	"sync"
	"weak"
)

var (
	registryMu   sync.Mutex
	nextHandleID uint64
	registry     = make(map[uint64]weak.Pointer[Handle])
)

// Handle is a shared-ownership wrapper around a [Loader], identified
// by a process-wide monotonic id. The registry that tracks live
// handles holds only a [weak.Pointer] to each one, so registering a
// Handle never keeps it — or the Loader it wraps — alive past its
// last strong reference.
type Handle struct {
	id     uint64
	loader *Loader
}

// CreateHandle opens path and registers a new Handle for it. The
// handle is registered under a freshly allocated id before
// CreateHandle returns.
func CreateHandle(path string, cfg CacheConfig) (*Handle, error) {
	loader, err := Open(path, cfg)
	if err != nil {
		return nil, err
	}

	h := &Handle{loader: loader}

	registryMu.Lock()
	nextHandleID++
	h.id = nextHandleID
	registry[h.id] = weak.Make(h)
	registryMu.Unlock()

	return h, nil
}

// ID returns the handle's process-wide registry id.
func (h *Handle) ID() uint64 { return h.id }

// Loader returns the handle's underlying Loader.
func (h *Handle) Loader() *Loader { return h.loader }

// Close closes the underlying loader and removes the handle from the
// registry.
func (h *Handle) Close() error {
	err := h.loader.Close()
	registryMu.Lock()
	delete(registry, h.id)
	registryMu.Unlock()
	return err
}

// LiveHandleIDs returns the ids of every Handle the registry can
// still resolve to a live value. A Handle whose last strong reference
// has been dropped — whether or not Close was ever called — is
// absent from the result, since the registry holds no strong
// reference of its own.
func LiveHandleIDs() []uint64 {
	registryMu.Lock()
	defer registryMu.Unlock()

	ids := make([]uint64, 0, len(registry))
	for id, ref := range registry {
		if ref.Value() != nil {
			ids = append(ids, id)
		} else {
			delete(registry, id)
		}
	}
	return ids
}
