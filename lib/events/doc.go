// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package events defines the observability output of the relay.
//
// The relay core depends only on [Sink], a single-method interface that
// accepts an [Event]. One event is emitted per classified message and
// per session lifecycle transition: opened, upstream connected,
// upstream unreachable, frame too large, closed clean, closed with
// error. Events carry the decoded [stratum.Message] itself, so a sink
// never needs to re-parse a frame.
//
// Sinks provided here:
//
//   - [LogSink] writes each event to a *slog.Logger.
//   - [CaptureWriter] appends each event as a CBOR record to a capture
//     file, optionally compressed with zstd or lz4. [CaptureReader]
//     reads such a file back.
//   - [Multi] fans out to several sinks; [Discard] drops everything.
//
// Emit is called from both pump goroutines of every session
// concurrently. Every Sink implementation must be safe for concurrent
// use, and should not block for long: the pump that emits an event is
// the one forwarding bytes for that direction.
package events
