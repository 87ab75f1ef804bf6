// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

// Package chunk implements the packed POD payload schemas carried
// inside GEOM, MTRL, SHDR, and FONT chunks (AUDI's schema lives in
// package audiograph, since its construction order is that package's
// job, not a standalone marshal/parse pair). Every schema here is
// little-endian and packed without implicit padding, matching the
// byte layout the original C++ headers commit to — reserved fields
// are zero on write and ignored on read, never reused for anything
// else.
package chunk
