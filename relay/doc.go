// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay is a transparent Stratum relay between mining clients
// and a single upstream pool.
//
// Every byte a client sends reaches the pool unchanged and in order,
// and every byte the pool sends reaches the client unchanged. The
// relay never rewrites, drops, injects, or reorders data. Alongside
// forwarding, each direction feeds a copy of the stream through a
// [framing.Decoder] and classifies every newline-delimited frame with
// [stratum.Classify]; the results are reported to an [events.Sink].
// Classification failures never affect forwarding.
//
// [Relay] accepts TCP connections and runs one [Session] per
// connection. A Session dials the pool through its [Connector] (once,
// with no retries), then runs two pumps, one per direction. When the
// first pump ends, the session half-closes that pump's destination so
// the peer observes end-of-stream, waits up to DrainTimeout for the
// other direction to finish on its own, and then closes both
// connections. A frame longer than MaxFrameBytes ends the session with
// a distinct frame-too-large event after the bytes already read have
// been forwarded.
//
// Sessions share nothing but the relay's session ID counter and the
// sink. A failure in one session (unreachable pool, oversized frame,
// transport error) never affects another.
package relay
