// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stratum

import (
	"encoding/hex"
	"encoding/json"
	"strconv"
)

// params is the positional parameter array of a request. Every
// accessor returns the documented default when the index is out of
// range or the element has the wrong JSON type.
type params []json.RawMessage

// decodeParams returns the params array, or an empty one when the
// member is missing or is not an array.
func decodeParams(raw json.RawMessage) params {
	if !present(raw) {
		return nil
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil
	}
	return elements
}

func (p params) at(index int) json.RawMessage {
	if index < 0 || index >= len(p) {
		return nil
	}
	return p[index]
}

// text returns a JSON string element, or "".
func (p params) text(index int) string {
	var value string
	if !decodeInto(p.at(index), &value) {
		return ""
	}
	return value
}

// hexBytes decodes a hex string element. A missing element, a
// non-string, or invalid hex all yield an empty slice.
func (p params) hexBytes(index int) HexBytes {
	decoded, err := hex.DecodeString(p.text(index))
	if err != nil || len(decoded) == 0 {
		return HexBytes{}
	}
	return HexBytes(decoded)
}

// hexUint32 parses a hex string element as a 32-bit unsigned integer,
// or returns 0.
func (p params) hexUint32(index int) uint32 {
	value, err := strconv.ParseUint(p.text(index), 16, 32)
	if err != nil {
		return 0
	}
	return uint32(value)
}

// number returns a JSON number element as float64, or 0.
func (p params) number(index int) float64 {
	var value float64
	if !decodeInto(p.at(index), &value) {
		return 0
	}
	return value
}

// unsigned returns a non-negative JSON integer element, or 0.
func (p params) unsigned(index int) uint64 {
	return unsignedValue(p.at(index))
}

// boolean returns a JSON boolean element, or false.
func (p params) boolean(index int) bool {
	var value bool
	if !decodeInto(p.at(index), &value) {
		return false
	}
	return value
}

// textList returns the string entries of an array element, skipping
// entries of any other type. A missing or non-array element yields an
// empty list.
func (p params) textList(index int) []string {
	var elements []json.RawMessage
	if !decodeInto(p.at(index), &elements) {
		return []string{}
	}
	values := make([]string, 0, len(elements))
	for _, element := range elements {
		var value string
		if decodeInto(element, &value) {
			values = append(values, value)
		}
	}
	return values
}

// unsignedValue decodes a JSON integer that fits in uint64. Floats,
// negative numbers, strings, and null yield 0.
func unsignedValue(raw json.RawMessage) uint64 {
	var value uint64
	if !decodeInto(raw, &value) {
		return 0
	}
	return value
}

// decodeInto unmarshals raw into target. Absent and null elements are
// reported as failures so that the caller applies its default.
func decodeInto(raw json.RawMessage, target any) bool {
	if !present(raw) {
		return false
	}
	return json.Unmarshal(raw, target) == nil
}
