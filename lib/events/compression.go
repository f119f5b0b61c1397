// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the stream compression of a capture file. The
// names are stored in configuration and passed on the command line.
type Compression string

const (
	// CompressionNone writes the CBOR sequence as-is.
	CompressionNone Compression = "none"

	// CompressionZstd wraps the sequence in a zstd stream at the
	// default level. Stratum traffic is repetitive JSON-derived text
	// and compresses well.
	CompressionZstd Compression = "zstd"

	// CompressionLZ4 wraps the sequence in an LZ4 frame stream. Lower
	// ratio than zstd, less CPU per event.
	CompressionLZ4 Compression = "lz4"
)

// ParseCompression parses a compression name. The empty string selects
// CompressionNone.
func ParseCompression(name string) (Compression, error) {
	switch Compression(name) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionZstd:
		return CompressionZstd, nil
	case CompressionLZ4:
		return CompressionLZ4, nil
	default:
		return "", fmt.Errorf("unknown capture compression: %q (expected none, zstd, or lz4)", name)
	}
}

// flushWriteCloser is a compressing writer that can push buffered data
// to the underlying writer without ending the stream.
type flushWriteCloser interface {
	io.WriteCloser
	Flush() error
}

type plainWriter struct {
	io.Writer
}

func (plainWriter) Flush() error { return nil }
func (plainWriter) Close() error { return nil }

func newCompressor(w io.Writer, compression Compression) (flushWriteCloser, error) {
	switch compression {
	case "", CompressionNone:
		return plainWriter{w}, nil
	case CompressionZstd:
		encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return encoder, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported capture compression: %q", compression)
	}
}

// newDecompressor returns a reader over the decompressed stream and a
// function releasing its resources.
func newDecompressor(r io.Reader, compression Compression) (io.Reader, func(), error) {
	switch compression {
	case "", CompressionNone:
		return r, func() {}, nil
	case CompressionZstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd reader: %w", err)
		}
		return decoder, decoder.Close, nil
	case CompressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported capture compression: %q", compression)
	}
}
