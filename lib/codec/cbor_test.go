// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bureau-foundation/stratumtap/lib/stratum"
)

func TestMarshal_MessageRoundtrip(t *testing.T) {
	original := stratum.Submit{
		WorkerName:  "bob",
		JobID:       "job7",
		Extranonce2: stratum.HexBytes{0x00, 0x11},
		NTime:       0x5f5e1000,
		Nonce:       0x1a2b3c4d,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded stratum.Submit
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.WorkerName != original.WorkerName || decoded.JobID != original.JobID ||
		!bytes.Equal(decoded.Extranonce2, original.Extranonce2) ||
		decoded.NTime != original.NTime || decoded.Nonce != original.Nonce {
		t.Fatalf("roundtrip mismatch: got %+v, expected %+v", decoded, original)
	}
}

func TestMarshal_HexBytesAsText(t *testing.T) {
	data, err := Marshal(stratum.Notify{Coinb1: stratum.HexBytes{0xab, 0xcd}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var generic map[string]any
	if err := Unmarshal(data, &generic); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if generic["coinb1"] != "abcd" {
		t.Fatalf("expected coinb1 to decode as text %q, got %#v", "abcd", generic["coinb1"])
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	value := map[string]any{"zeta": 1, "alpha": 2, "mid": []string{"x"}}
	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("expected identical encodings")
		}
	}
}

func TestEncoderDecoder_Sequence(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, value := range []stratum.SetDifficulty{{Difficulty: 1}, {Difficulty: 2.5}} {
		if err := encoder.Encode(value); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	var got []float64
	for {
		var value stratum.SetDifficulty
		err := decoder.Decode(&value)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		got = append(got, value.Difficulty)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2.5 {
		t.Fatalf("unexpected sequence: %v", got)
	}
}

func TestUnmarshal_Invalid(t *testing.T) {
	var value map[string]any
	if err := Unmarshal([]byte{0xff, 0x00}, &value); err == nil {
		t.Fatal("expected error for invalid CBOR")
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(stratum.ExtranonceSubscribeAck{RequestID: 42})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"request_id": 42`) {
		t.Fatalf("unexpected diagnostic notation: %s", notation)
	}
}
