// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"bytes"
	"errors"
	"io"
	"net"

	"github.com/bureau-foundation/stratumtap/lib/events"
	"github.com/bureau-foundation/stratumtap/lib/framing"
	"github.com/bureau-foundation/stratumtap/lib/stratum"
)

// DefaultReadBufferBytes is the pump read size when a session does not
// set one.
const DefaultReadBufferBytes = 4096

// ending describes why a pump stopped.
type ending int

const (
	// endOrderly: the source reported EOF.
	endOrderly ending = iota

	// endTransport: a read or write failed.
	endTransport

	// endFrameTooLarge: the decoder rejected an oversized frame.
	endFrameTooLarge
)

func (e ending) String() string {
	switch e {
	case endOrderly:
		return "orderly"
	case endTransport:
		return "transport"
	case endFrameTooLarge:
		return "frame-too-large"
	default:
		return "unknown"
	}
}

// pumpResult is what a pump reports to its session when it stops.
type pumpResult struct {
	direction   events.Direction
	destination net.Conn
	ending      ending
	err         error
	bytes       int64
	frames      int64
}

// pump copies one direction of a session and classifies what it
// copies.
type pump struct {
	direction   events.Direction
	source      net.Conn
	destination net.Conn
	decoder     *framing.Decoder
	bufferSize  int
	emit        func(events.Event)
}

// run forwards until the source ends, a write fails, or the decoder
// rejects a frame. Each chunk is written to the destination before it
// is fed to the decoder, so bytes read are always forwarded, including
// the chunk that carried an oversized frame. Complete frames that
// precede an oversized one are classified before the pump stops.
func (p *pump) run() pumpResult {
	result := pumpResult{direction: p.direction, destination: p.destination}

	size := p.bufferSize
	if size <= 0 {
		size = DefaultReadBufferBytes
	}
	buffer := make([]byte, size)

	for {
		count, readError := p.source.Read(buffer)
		if count > 0 {
			chunk := buffer[:count]
			written, writeError := p.destination.Write(chunk)
			result.bytes += int64(written)
			if writeError != nil {
				result.ending = endTransport
				result.err = writeError
				return result
			}

			feedError := p.decoder.Feed(chunk)
			result.frames += p.classifyBuffered()
			if feedError != nil {
				result.ending = endFrameTooLarge
				result.err = feedError
				return result
			}
		}

		if readError != nil {
			if errors.Is(readError, io.EOF) {
				result.ending = endOrderly
			} else {
				result.ending = endTransport
				result.err = readError
			}
			return result
		}
	}
}

// classifyBuffered emits a message event for every complete frame in
// the decoder and returns how many were emitted. Blank frames are
// skipped.
func (p *pump) classifyBuffered() int64 {
	var classified int64
	for {
		frame, ok := p.decoder.Next()
		if !ok {
			return classified
		}
		if len(bytes.TrimSpace(frame)) == 0 {
			continue
		}
		p.emit(events.Event{
			Kind:      events.KindMessage,
			Direction: p.direction,
			Message:   stratum.Classify(frame),
			Digest:    stratum.FrameDigest(frame),
		})
		classified++
	}
}
