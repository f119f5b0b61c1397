// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package framing

import (
	"bytes"
	"errors"
	"fmt"
)

// Delimiter terminates every frame on the wire.
const Delimiter = '\n'

// DefaultMaxFrameBytes is the frame size limit used when a Decoder is
// created with a non-positive limit. Stratum notifications with long
// coinbase halves and merkle branches stay well under this.
const DefaultMaxFrameBytes = 256 * 1024

// ErrFrameTooLarge is returned by Feed when a frame exceeds the
// decoder's limit. The concrete error is a *FrameTooLargeError.
var ErrFrameTooLarge = errors.New("framing: frame too large")

// FrameTooLargeError reports the limit that was exceeded and how many
// bytes of the offending frame had been seen when the decoder gave up.
type FrameTooLargeError struct {
	Limit    int
	Observed int
}

func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("framing: frame too large: %d bytes without delimiter (limit %d)", e.Observed, e.Limit)
}

// Is makes errors.Is(err, ErrFrameTooLarge) match.
func (e *FrameTooLargeError) Is(target error) bool {
	return target == ErrFrameTooLarge
}

// Decoder accumulates a byte stream and splits it into frames. A
// Decoder is not safe for concurrent use; each direction of a
// connection owns its own.
type Decoder struct {
	limit int

	// buffer holds unconsumed bytes. Bytes before head have already
	// been returned by Next and are reclaimed on the next Feed.
	buffer []byte
	head   int

	// scanned is the offset up to which buffer has been searched for
	// delimiters. tail is the offset where the current unterminated
	// frame starts; everything in buffer[head:tail] is complete frames.
	scanned int
	tail    int
}

// NewDecoder returns a Decoder that rejects frames longer than limit
// bytes (delimiter excluded). A non-positive limit selects
// DefaultMaxFrameBytes.
func NewDecoder(limit int) *Decoder {
	if limit <= 0 {
		limit = DefaultMaxFrameBytes
	}
	return &Decoder{limit: limit}
}

// Limit returns the maximum frame size in bytes.
func (d *Decoder) Limit() int {
	return d.limit
}

// Buffered returns the number of bytes held that have not yet been
// returned as frames.
func (d *Decoder) Buffered() int {
	return len(d.buffer) - d.head
}

// Feed appends data to the buffer. The caller keeps ownership of data.
// If a frame exceeds the limit, Feed returns a *FrameTooLargeError and
// discards the oversized frame and everything after it. Complete frames
// that precede it stay buffered and are still returned by Next.
func (d *Decoder) Feed(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	d.compact()
	d.buffer = append(d.buffer, data...)

	for d.scanned < len(d.buffer) {
		index := bytes.IndexByte(d.buffer[d.scanned:], Delimiter)
		if index < 0 {
			d.scanned = len(d.buffer)
			break
		}
		end := d.scanned + index
		if size := end - d.tail; size > d.limit {
			return d.overflow(size)
		}
		d.tail = end + 1
		d.scanned = end + 1
	}

	if pending := len(d.buffer) - d.tail; pending > d.limit {
		return d.overflow(pending)
	}
	return nil
}

// Next removes and returns the earliest complete frame without its
// delimiter. It returns nil, false when no complete frame is buffered.
// The returned slice is a copy and remains valid after further Feeds.
func (d *Decoder) Next() ([]byte, bool) {
	if d.head >= d.tail {
		return nil, false
	}
	index := bytes.IndexByte(d.buffer[d.head:d.tail], Delimiter)
	end := d.head + index
	frame := bytes.Clone(d.buffer[d.head:end])
	if frame == nil {
		frame = []byte{}
	}
	d.head = end + 1
	return frame, true
}

// Reset discards all buffered bytes.
func (d *Decoder) Reset() {
	d.buffer = d.buffer[:0]
	d.head = 0
	d.scanned = 0
	d.tail = 0
}

// compact moves unconsumed bytes to the front of buffer so the backing
// array is reused instead of growing with every Feed.
func (d *Decoder) compact() {
	if d.head == 0 {
		return
	}
	remaining := copy(d.buffer, d.buffer[d.head:])
	d.buffer = d.buffer[:remaining]
	d.scanned -= d.head
	d.tail -= d.head
	d.head = 0
}

// overflow truncates the buffer to the complete frames before the
// oversized one.
func (d *Decoder) overflow(observed int) error {
	d.buffer = d.buffer[:d.tail]
	d.scanned = d.tail
	return &FrameTooLargeError{Limit: d.limit, Observed: observed}
}
