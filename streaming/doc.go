// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

// Package streaming opens a TAF file once and services random-access
// chunk reads against it without loading the whole asset into memory.
// [Loader] keeps the file handle and parsed directory, backs reads
// with a bounded, access-counted cache, and can be wrapped in a
// [Handle] for shared ownership across goroutines.
//
// Three locks guard disjoint state — the open file, the cache and its
// statistics, and the process-wide handle registry — and are never
// held simultaneously; see [Loader.LoadChunk] for where each is
// acquired and released.
package streaming
