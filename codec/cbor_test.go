// Copyright 2026 The Taffy Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import "testing"

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	type pair struct {
		Hash   uint64 `cbor:"hash"`
		String string `cbor:"string"`
	}
	in := []pair{{Hash: 1, String: "a"}, {Hash: 2, String: "b"}}

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out []pair
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(out) != len(in) || out[0].String != "a" || out[1].Hash != 2 {
		t.Fatalf("round trip mismatch: got %+v", out)
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	type m map[string]int
	a, err := Marshal(m{"z": 1, "a": 2, "m": 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b, err := Marshal(m{"a": 2, "m": 3, "z": 1})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("deterministic encoding produced different bytes for the same map contents")
	}
}
