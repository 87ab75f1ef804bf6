// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package hashreg

const (
	// offsetBasis is the FNV-1a 64-bit offset basis.
	offsetBasis uint64 = 0xCBF29CE484222325
	// prime is the FNV-1a 64-bit prime.
	prime uint64 = 0x100000001B3
)

// Hash computes the 64-bit FNV-1a hash of s. The result is identical
// on every platform and every run for a given s — name hashes embedded
// in chunk and overlay payloads are only meaningful if this holds.
func Hash(s string) uint64 {
	h := offsetBasis
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}

// HashBytes is [Hash] over a byte slice, for callers hashing data that
// isn't already a string (e.g. a SPIR-V entry point name read out of a
// payload buffer).
func HashBytes(b []byte) uint64 {
	h := offsetBasis
	for _, c := range b {
		h ^= uint64(c)
		h *= prime
	}
	return h
}
