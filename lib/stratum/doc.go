// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package stratum decodes Stratum v1 mining protocol frames into typed
// messages for observability.
//
// [Classify] takes one newline-delimited frame (delimiter removed) and
// returns a [Message]. Message is a closed set of variants: one struct
// per recognized method ([Subscribe], [Authorize], [Submit],
// [SetDifficulty], [Notify], [SetExtranonce], [ExtranonceSubscribeAck]),
// [Response] for id-keyed replies that carry no method, and [Unparsed]
// for everything else. Classification never fails: a frame that is not
// a JSON object, or that names a method this package does not know,
// becomes Unparsed with the reason and the raw text.
//
// Parameter decoding is tolerant by policy. Each variant has a decode
// function that reads positional params and substitutes a fixed
// default for any field that is missing or has the wrong JSON type:
// "" for text, 0 for numbers, false for booleans, and an empty byte
// slice for hex fields that do not decode. A bad field never stops the
// remaining fields from decoding.
//
// The wire conventions are not uniform and are preserved as-is:
// mining.submit carries ntime and nonce as hex text, while
// mining.notify carries version, nbits, and ntime as JSON integers.
//
// Every variant implements [log/slog.LogValuer] so a message can be
// passed directly as a log attribute, and carries JSON field tags so it
// can be written to capture files. [FrameDigest] computes a short keyed
// BLAKE3 digest used to correlate log lines with captured frames.
package stratum
