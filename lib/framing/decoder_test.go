// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package framing

import (
	"bytes"
	"errors"
	"testing"
)

// drain collects every complete frame currently buffered.
func drain(decoder *Decoder) []string {
	var frames []string
	for {
		frame, ok := decoder.Next()
		if !ok {
			return frames
		}
		frames = append(frames, string(frame))
	}
}

func equalFrames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNext_EmptyDecoder(t *testing.T) {
	decoder := NewDecoder(0)
	if frame, ok := decoder.Next(); ok {
		t.Fatalf("expected no frame, got %q", frame)
	}
	if decoder.Limit() != DefaultMaxFrameBytes {
		t.Fatalf("expected default limit %d, got %d", DefaultMaxFrameBytes, decoder.Limit())
	}
}

func TestFeed_SingleFrame(t *testing.T) {
	decoder := NewDecoder(1024)
	if err := decoder.Feed([]byte(`{"id":1}` + "\n")); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	frames := drain(decoder)
	if !equalFrames(frames, []string{`{"id":1}`}) {
		t.Fatalf("unexpected frames: %q", frames)
	}
	if decoder.Buffered() != 0 {
		t.Fatalf("expected empty buffer, got %d bytes", decoder.Buffered())
	}
}

func TestFeed_CoalescedFrames(t *testing.T) {
	decoder := NewDecoder(1024)
	if err := decoder.Feed([]byte("a\nbb\nccc\ndd")); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	frames := drain(decoder)
	if !equalFrames(frames, []string{"a", "bb", "ccc"}) {
		t.Fatalf("unexpected frames: %q", frames)
	}
	if decoder.Buffered() != 2 {
		t.Fatalf("expected 2 buffered bytes for the partial frame, got %d", decoder.Buffered())
	}

	if err := decoder.Feed([]byte("d\n")); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	frames = drain(decoder)
	if !equalFrames(frames, []string{"ddd"}) {
		t.Fatalf("unexpected frames after completing partial: %q", frames)
	}
}

func TestFeed_EmptyFrames(t *testing.T) {
	decoder := NewDecoder(1024)
	if err := decoder.Feed([]byte("\n\nx\n")); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	frames := drain(decoder)
	if !equalFrames(frames, []string{"", "", "x"}) {
		t.Fatalf("unexpected frames: %q", frames)
	}
}

func TestFeed_EmptyChunk(t *testing.T) {
	decoder := NewDecoder(1024)
	if err := decoder.Feed(nil); err != nil {
		t.Fatalf("Feed(nil): %v", err)
	}
	if err := decoder.Feed([]byte{}); err != nil {
		t.Fatalf("Feed(empty): %v", err)
	}
	if decoder.Buffered() != 0 {
		t.Fatalf("expected nothing buffered, got %d", decoder.Buffered())
	}
}

// TestFeed_EverySplitOffset delivers the same stream split at every
// possible pair of offsets and checks that the frames are identical to
// delivering it in one chunk.
func TestFeed_EverySplitOffset(t *testing.T) {
	stream := []byte("{\"method\":\"mining.notify\"}\n\n{\"id\":7,\"result\":true}\r\npartial")

	whole := NewDecoder(1024)
	if err := whole.Feed(stream); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	expected := drain(whole)

	for first := 0; first <= len(stream); first++ {
		for second := first; second <= len(stream); second++ {
			decoder := NewDecoder(1024)
			var frames []string
			for _, chunk := range [][]byte{stream[:first], stream[first:second], stream[second:]} {
				if err := decoder.Feed(chunk); err != nil {
					t.Fatalf("split (%d,%d): Feed: %v", first, second, err)
				}
				frames = append(frames, drain(decoder)...)
			}
			if !equalFrames(frames, expected) {
				t.Fatalf("split (%d,%d): got %q, expected %q", first, second, frames, expected)
			}
			if decoder.Buffered() != len("partial") {
				t.Fatalf("split (%d,%d): expected partial tail buffered, got %d bytes",
					first, second, decoder.Buffered())
			}
		}
	}
}

func TestFeed_ByteAtATime(t *testing.T) {
	stream := []byte("one\ntwo\nthree\n")
	decoder := NewDecoder(16)
	var frames []string
	for i := range stream {
		if err := decoder.Feed(stream[i : i+1]); err != nil {
			t.Fatalf("Feed byte %d: %v", i, err)
		}
		frames = append(frames, drain(decoder)...)
	}
	if !equalFrames(frames, []string{"one", "two", "three"}) {
		t.Fatalf("unexpected frames: %q", frames)
	}
}

func TestFeed_FrameTooLargeWithoutDelimiter(t *testing.T) {
	decoder := NewDecoder(8)
	if err := decoder.Feed([]byte("12345678")); err != nil {
		t.Fatalf("Feed at exactly the limit: %v", err)
	}
	err := decoder.Feed([]byte("9"))
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
	var tooLarge *FrameTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected *FrameTooLargeError, got %T", err)
	}
	if tooLarge.Limit != 8 || tooLarge.Observed != 9 {
		t.Fatalf("unexpected error fields: %+v", tooLarge)
	}
	if decoder.Buffered() != 0 {
		t.Fatalf("expected oversized frame discarded, got %d bytes", decoder.Buffered())
	}
}

// TestFeed_FrameTooLargeKeepsEarlierFrames checks that complete frames
// arriving in the same chunk as an oversized one are still delivered,
// exactly as they are when the chunk is split before the oversized
// frame.
func TestFeed_FrameTooLargeKeepsEarlierFrames(t *testing.T) {
	valid := "{\"id\":1}\n"
	oversized := bytes.Repeat([]byte("x"), 64)
	stream := append([]byte(valid), oversized...)

	whole := NewDecoder(16)
	err := whole.Feed(stream)
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("single chunk: expected ErrFrameTooLarge, got %v", err)
	}
	if frames := drain(whole); !equalFrames(frames, []string{`{"id":1}`}) {
		t.Fatalf("single chunk: expected the complete frame before the error, got %q", frames)
	}
	if whole.Buffered() != 0 {
		t.Fatalf("expected nothing buffered after draining, got %d bytes", whole.Buffered())
	}

	split := NewDecoder(16)
	if err := split.Feed([]byte(valid)); err != nil {
		t.Fatalf("first chunk: %v", err)
	}
	if err := split.Feed(oversized); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("second chunk: expected ErrFrameTooLarge, got %v", err)
	}
	if frames := drain(split); !equalFrames(frames, []string{`{"id":1}`}) {
		t.Fatalf("split delivery: expected the complete frame, got %q", frames)
	}
}

func TestFeed_FrameAtLimitWithDelimiter(t *testing.T) {
	decoder := NewDecoder(4)
	if err := decoder.Feed([]byte("abcd\n")); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if frames := drain(decoder); !equalFrames(frames, []string{"abcd"}) {
		t.Fatalf("unexpected frames: %q", frames)
	}
}

// TestFeed_OversizedTerminatedFrame checks that an oversized frame is
// rejected even when its delimiter arrives in the same chunk, so the
// outcome matches the fragmented delivery of the same bytes.
func TestFeed_OversizedTerminatedFrame(t *testing.T) {
	stream := []byte("ok\n0123456789\nafter\n")

	whole := NewDecoder(5)
	if err := whole.Feed(stream); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("single chunk: expected ErrFrameTooLarge, got %v", err)
	}
	wholeFrames := drain(whole)

	fragmented := NewDecoder(5)
	var failed bool
	var fragmentedFrames []string
	for i := range stream {
		err := fragmented.Feed(stream[i : i+1])
		fragmentedFrames = append(fragmentedFrames, drain(fragmented)...)
		if err != nil {
			if !errors.Is(err, ErrFrameTooLarge) {
				t.Fatalf("byte %d: unexpected error %v", i, err)
			}
			failed = true
			break
		}
	}
	if !failed {
		t.Fatal("fragmented delivery: expected ErrFrameTooLarge")
	}
	if !equalFrames(wholeFrames, []string{"ok"}) || !equalFrames(fragmentedFrames, wholeFrames) {
		t.Fatalf("frames differ: single chunk %q, fragmented %q", wholeFrames, fragmentedFrames)
	}
}

func TestFeed_CallerKeepsOwnership(t *testing.T) {
	decoder := NewDecoder(64)
	chunk := []byte("abc\n")
	if err := decoder.Feed(chunk); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	copy(chunk, "xyz\n")
	frame, ok := decoder.Next()
	if !ok || !bytes.Equal(frame, []byte("abc")) {
		t.Fatalf("expected frame %q, got %q (ok=%v)", "abc", frame, ok)
	}
}

func TestFeed_CompactionKeepsOrder(t *testing.T) {
	decoder := NewDecoder(64)
	var frames []string
	for i := range 100 {
		chunk := []byte{byte('a' + i%26), '\n', byte('A' + i%26)}
		if err := decoder.Feed(chunk); err != nil {
			t.Fatalf("Feed %d: %v", i, err)
		}
		frames = append(frames, drain(decoder)...)
	}
	if len(frames) != 100 {
		t.Fatalf("expected 100 frames, got %d", len(frames))
	}
	if frames[0] != "a" || frames[1] != "Ab" || frames[99] != "Uv" {
		t.Fatalf("unexpected frames: first=%q second=%q last=%q", frames[0], frames[1], frames[99])
	}
}

func TestReset(t *testing.T) {
	decoder := NewDecoder(64)
	if err := decoder.Feed([]byte("a\nb")); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	decoder.Reset()
	if _, ok := decoder.Next(); ok {
		t.Fatal("expected no frames after Reset")
	}
	if decoder.Buffered() != 0 {
		t.Fatalf("expected empty buffer after Reset, got %d", decoder.Buffered())
	}
}
