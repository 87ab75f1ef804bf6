// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads Taffy's tunable defaults from a single YAML
// file discovered through the TAFFY_CONFIG environment variable.
// There is no automatic search path: if TAFFY_CONFIG is unset,
// [Load] fails rather than guessing. [Default] supplies every field's
// zero-configuration value, so a file only needs to override what it
// actually wants to change.
package config
