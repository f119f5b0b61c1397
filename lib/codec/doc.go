// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration used for stratumtap
// capture files.
//
// Capture records are written as a CBOR sequence (RFC 8742): one
// top-level item per event, no framing between items. The encoder uses
// Core Deterministic Encoding (RFC 8949 §4.2), so the same event always
// produces the same bytes. Types implementing encoding.TextMarshaler
// (stratum.HexBytes, stratum.Digest) are written as CBOR text strings,
// which keeps hex fields readable when a record is converted to JSON.
//
// Struct fields use `json` tags; fxamacker/cbor falls back to them when
// no `cbor` tag is present, so message types serialize identically in
// both formats.
//
//	encoder := codec.NewEncoder(file)
//	err := encoder.Encode(record)
//
//	decoder := codec.NewDecoder(file)
//	err := decoder.Decode(&record) // io.EOF at the end of the sequence
package codec
