// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/bureau-foundation/stratumtap/lib/codec"
)

// Record is the capture-file form of an Event. Message holds the CBOR
// encoding of the stratum message struct named by MessageKind.
type Record struct {
	// Time is the event time in Unix nanoseconds.
	Time        int64            `json:"time"`
	Kind        Kind             `json:"kind"`
	Session     uint64           `json:"session"`
	Direction   Direction        `json:"direction,omitempty"`
	Client      string           `json:"client,omitempty"`
	Upstream    string           `json:"upstream,omitempty"`
	MessageKind string           `json:"message_kind,omitempty"`
	Message     codec.RawMessage `json:"message,omitempty"`
	Digest      string           `json:"digest,omitempty"`
	Error       string           `json:"error,omitempty"`
	Stats       *SessionStats    `json:"stats,omitempty"`
}

// DecodeMessage decodes the captured message into v, which is either a
// pointer to the stratum type named by MessageKind or a *map[string]any.
func (r Record) DecodeMessage(v any) error {
	if len(r.Message) == 0 {
		return errors.New("capture record has no message")
	}
	return codec.Unmarshal(r.Message, v)
}

func newRecord(event Event) (Record, error) {
	record := Record{
		Time:      event.Time.UnixNano(),
		Kind:      event.Kind,
		Session:   event.Session,
		Direction: event.Direction,
		Client:    event.Client,
		Upstream:  event.Upstream,
		Stats:     event.Stats,
	}
	if event.Message != nil {
		encoded, err := codec.Marshal(event.Message)
		if err != nil {
			return Record{}, fmt.Errorf("encoding %s message: %w", event.Message.Kind(), err)
		}
		record.MessageKind = event.Message.Kind()
		record.Message = encoded
		record.Digest = event.Digest.String()
	}
	if event.Err != nil {
		record.Error = event.Err.Error()
	}
	return record, nil
}

// CaptureWriter is a Sink that appends every event to a capture stream.
// Writes are serialized; the first write error is retained, later
// events are dropped, and the error is returned by Close.
type CaptureWriter struct {
	mu         sync.Mutex
	compressor flushWriteCloser
	encoder    *codec.Encoder
	closer     io.Closer
	err        error
	closed     bool
}

// NewCaptureWriter returns a CaptureWriter writing to w. Close flushes
// the compressor but does not close w.
func NewCaptureWriter(w io.Writer, compression Compression) (*CaptureWriter, error) {
	compressor, err := newCompressor(w, compression)
	if err != nil {
		return nil, err
	}
	return &CaptureWriter{
		compressor: compressor,
		encoder:    codec.NewEncoder(compressor),
	}, nil
}

// CreateCapture creates (or truncates) the file at path and returns a
// CaptureWriter that closes the file on Close.
func CreateCapture(path string, compression Compression) (*CaptureWriter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating capture file: %w", err)
	}
	writer, err := NewCaptureWriter(file, compression)
	if err != nil {
		file.Close()
		return nil, err
	}
	writer.closer = file
	return writer, nil
}

// Emit implements Sink. Closed-session events also flush the
// compressor so that a capture file is readable up to the last
// finished session.
func (c *CaptureWriter) Emit(event Event) {
	record, err := newRecord(event)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.err != nil {
		return
	}
	if err != nil {
		c.err = err
		return
	}
	if err := c.encoder.Encode(record); err != nil {
		c.err = fmt.Errorf("writing capture record: %w", err)
		return
	}
	if event.Kind == KindSessionClosedClean || event.Kind == KindSessionClosedError {
		if err := c.compressor.Flush(); err != nil {
			c.err = fmt.Errorf("flushing capture: %w", err)
		}
	}
}

// Err returns the first write error, if any.
func (c *CaptureWriter) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close ends the compressed stream and closes the file for writers
// created by CreateCapture. It returns the first error encountered over
// the writer's lifetime. Close is idempotent.
func (c *CaptureWriter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.err
	}
	c.closed = true

	if err := c.compressor.Close(); err != nil && c.err == nil {
		c.err = fmt.Errorf("closing capture compressor: %w", err)
	}
	if c.closer != nil {
		if err := c.closer.Close(); err != nil && c.err == nil {
			c.err = fmt.Errorf("closing capture file: %w", err)
		}
	}
	return c.err
}

// CaptureReader reads records from a capture stream.
type CaptureReader struct {
	decoder *codec.Decoder
	release func()
	closer  io.Closer
}

// NewCaptureReader returns a reader over r using the given compression.
func NewCaptureReader(r io.Reader, compression Compression) (*CaptureReader, error) {
	stream, release, err := newDecompressor(r, compression)
	if err != nil {
		return nil, err
	}
	return &CaptureReader{
		decoder: codec.NewDecoder(stream),
		release: release,
	}, nil
}

// OpenCapture opens the capture file at path.
func OpenCapture(path string, compression Compression) (*CaptureReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening capture file: %w", err)
	}
	reader, err := NewCaptureReader(file, compression)
	if err != nil {
		file.Close()
		return nil, err
	}
	reader.closer = file
	return reader, nil
}

// Next returns the next record, or io.EOF at the end of the stream.
func (c *CaptureReader) Next() (Record, error) {
	var record Record
	if err := c.decoder.Decode(&record); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("reading capture record: %w", err)
	}
	return record, nil
}

// Close releases the decompressor and closes the file for readers
// created by OpenCapture.
func (c *CaptureReader) Close() error {
	c.release()
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
