// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stratum

import (
	"bytes"
	"encoding/json"
)

// Reasons recorded in Unparsed.Reason.
const (
	ReasonInvalidJSON   = "invalid json"
	ReasonNotObject     = "not a json object"
	ReasonNoMethodOrID  = "no method or id"
	ReasonMethodType    = "method is not a string"
	ReasonUnknownMethod = "unknown method"
)

// envelope holds the top-level members of a frame undecoded so that a
// wrong type in one member does not prevent reading the others.
type envelope struct {
	ID     json.RawMessage
	Method json.RawMessage
	Params json.RawMessage
	Result json.RawMessage
	Error  json.RawMessage
}

// decodeEnvelope reads the members by their exact lowercase names.
// Struct decoding would also accept "Method" or "ID", which are not
// Stratum members.
func decodeEnvelope(object []byte) (envelope, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(object, &members); err != nil {
		return envelope{}, err
	}
	return envelope{
		ID:     members["id"],
		Method: members["method"],
		Params: members["params"],
		Result: members["result"],
		Error:  members["error"],
	}, nil
}

// decoders maps each recognized method to the function that builds its
// variant from the envelope.
var decoders = map[string]func(envelope, params) Message{
	MethodSubscribe:           decodeSubscribe,
	MethodAuthorize:           decodeAuthorize,
	MethodSubmit:              decodeSubmit,
	MethodSetDifficulty:       decodeSetDifficulty,
	MethodNotify:              decodeNotify,
	MethodSetExtranonce:       decodeSetExtranonce,
	MethodExtranonceSubscribe: decodeExtranonceSubscribe,
}

// Classify decodes one frame (without its delimiter). It never fails:
// frames that cannot be decoded are returned as Unparsed.
func Classify(frame []byte) Message {
	trimmed := bytes.TrimSpace(frame)
	if !json.Valid(trimmed) {
		return Unparsed{Reason: ReasonInvalidJSON, Raw: string(frame)}
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Unparsed{Reason: ReasonNotObject, Raw: string(frame)}
	}

	message, err := decodeEnvelope(trimmed)
	if err != nil {
		return Unparsed{Reason: ReasonInvalidJSON, Raw: string(frame)}
	}

	if present(message.Method) {
		var method string
		if err := json.Unmarshal(message.Method, &method); err != nil {
			return Unparsed{Reason: ReasonMethodType, Raw: string(frame)}
		}
		decode, ok := decoders[method]
		if !ok {
			return Unparsed{Method: method, Reason: ReasonUnknownMethod, Raw: string(frame)}
		}
		return decode(message, decodeParams(message.Params))
	}

	if present(message.ID) {
		return Response{
			ID:     compact(message.ID),
			Result: compact(message.Result),
			Error:  compact(message.Error),
		}
	}

	return Unparsed{Reason: ReasonNoMethodOrID, Raw: string(frame)}
}

// present reports whether a member exists and is not JSON null.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// compact returns raw as compact JSON text, or "" if absent or null.
func compact(raw json.RawMessage) string {
	if !present(raw) {
		return ""
	}
	var buffer bytes.Buffer
	if err := json.Compact(&buffer, raw); err != nil {
		return string(raw)
	}
	return buffer.String()
}

func decodeSubscribe(_ envelope, p params) Message {
	return Subscribe{
		UserAgent: p.text(0),
		SessionID: p.text(1),
	}
}

func decodeAuthorize(_ envelope, p params) Message {
	return Authorize{
		WorkerName:     p.text(0),
		WorkerPassword: p.text(1),
	}
}

func decodeSubmit(_ envelope, p params) Message {
	return Submit{
		WorkerName:  p.text(0),
		JobID:       p.text(1),
		Extranonce2: p.hexBytes(2),
		NTime:       p.hexUint32(3),
		Nonce:       p.hexUint32(4),
	}
}

func decodeSetDifficulty(_ envelope, p params) Message {
	return SetDifficulty{Difficulty: p.number(0)}
}

func decodeNotify(_ envelope, p params) Message {
	return Notify{
		JobID:        p.text(0),
		PrevHash:     p.text(1),
		Coinb1:       p.hexBytes(2),
		Coinb2:       p.hexBytes(3),
		MerkleBranch: p.textList(4),
		Version:      uint32(p.unsigned(5)),
		NBits:        uint32(p.unsigned(6)),
		NTime:        uint32(p.unsigned(7)),
		CleanJobs:    p.boolean(8),
	}
}

func decodeSetExtranonce(_ envelope, p params) Message {
	return SetExtranonce{
		Extranonce1:     p.text(0),
		Extranonce2Size: p.unsigned(1),
	}
}

func decodeExtranonceSubscribe(message envelope, _ params) Message {
	return ExtranonceSubscribeAck{RequestID: unsignedValue(message.ID)}
}
