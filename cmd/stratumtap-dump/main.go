// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/stratumtap/lib/codec"
	"github.com/bureau-foundation/stratumtap/lib/events"
	"github.com/bureau-foundation/stratumtap/lib/process"
	"github.com/bureau-foundation/stratumtap/lib/version"
)

const binaryName = "stratumtap-dump"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		process.Fatal(binaryName, err)
	}
}

// line is the JSON form of one capture record.
type line struct {
	Time        string               `json:"time"`
	Kind        events.Kind          `json:"kind"`
	Session     uint64               `json:"session"`
	Direction   events.Direction     `json:"direction,omitempty"`
	Client      string               `json:"client,omitempty"`
	Upstream    string               `json:"upstream,omitempty"`
	MessageKind string               `json:"message_kind,omitempty"`
	Message     any                  `json:"message,omitempty"`
	Digest      string               `json:"digest,omitempty"`
	Error       string               `json:"error,omitempty"`
	Stats       *events.SessionStats `json:"stats,omitempty"`
}

func run(args []string, output io.Writer) error {
	var compressionName string
	var diagnostic bool
	var showVersion bool

	flagSet := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	flagSet.StringVar(&compressionName, "compression", "", "none, zstd, or lz4 (default: from the file extension)")
	flagSet.BoolVar(&diagnostic, "diag", false, "print messages in CBOR diagnostic notation instead of JSON")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if showVersion {
		version.Print(output, binaryName)
		return nil
	}

	paths := flagSet.Args()
	if len(paths) != 1 {
		return fmt.Errorf("expected exactly one capture file, got %d arguments", len(paths))
	}
	path := paths[0]

	if compressionName == "" {
		compressionName = string(compressionForPath(path))
	}
	compression, err := events.ParseCompression(compressionName)
	if err != nil {
		return err
	}

	reader, err := events.OpenCapture(path, compression)
	if err != nil {
		return err
	}
	defer reader.Close()

	encoder := json.NewEncoder(output)
	for {
		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		converted, err := convert(record, diagnostic)
		if err != nil {
			return err
		}
		if err := encoder.Encode(converted); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}
}

// compressionForPath guesses the compression from the file extension.
func compressionForPath(path string) events.Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return events.CompressionZstd
	case ".lz4":
		return events.CompressionLZ4
	default:
		return events.CompressionNone
	}
}

func convert(record events.Record, diagnostic bool) (line, error) {
	converted := line{
		Time:        time.Unix(0, record.Time).UTC().Format(time.RFC3339Nano),
		Kind:        record.Kind,
		Session:     record.Session,
		Direction:   record.Direction,
		Client:      record.Client,
		Upstream:    record.Upstream,
		MessageKind: record.MessageKind,
		Digest:      record.Digest,
		Error:       record.Error,
		Stats:       record.Stats,
	}
	if len(record.Message) == 0 {
		return converted, nil
	}

	if diagnostic {
		notation, err := codec.Diagnose(record.Message)
		if err != nil {
			return line{}, fmt.Errorf("session %d: diagnosing %s message: %w", record.Session, record.MessageKind, err)
		}
		converted.Message = notation
		return converted, nil
	}

	var message map[string]any
	if err := record.DecodeMessage(&message); err != nil {
		return line{}, fmt.Errorf("session %d: decoding %s message: %w", record.Session, record.MessageKind, err)
	}
	converted.Message = message
	return converted, nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `stratumtap-dump - print a stratumtap capture file as JSON lines

Usage:
  stratumtap-dump [flags] FILE

Examples:
  # Show every submitted share
  stratumtap-dump capture.cbor.zst | jq 'select(.message_kind == "submit")'

  # Inspect the raw CBOR of each message
  stratumtap-dump --diag capture.cbor

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
