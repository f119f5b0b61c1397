// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package framing reconstructs newline-delimited frames from a byte
// stream that arrives in arbitrarily sized chunks.
//
// A [Decoder] is fed raw bytes as they are read from a connection and
// yields complete frames in the order their terminating newline was
// observed. One read may carry several frames; one frame may span many
// reads. Callers drain [Decoder.Next] after every [Decoder.Feed]:
//
//	if err := decoder.Feed(chunk); err != nil {
//	    return err // ErrFrameTooLarge
//	}
//	for {
//	    frame, ok := decoder.Next()
//	    if !ok {
//	        break
//	    }
//	    handle(frame)
//	}
//
// The decoder bounds the size of any single frame. A peer that never
// terminates a line cannot make it buffer more than the configured
// limit: Feed fails with [ErrFrameTooLarge] and the oversized frame is
// discarded. Complete frames received before it remain available from
// Next, so a caller drains them before acting on the error. The limit applies to every frame, terminated or not, so
// the outcome does not depend on how the stream was split into reads.
//
// This package has no stratumtap dependencies.
package framing
