// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"log/slog"
)

// LogSink writes events to a structured logger. Message events are
// logged at Info with the decoded message as a group attribute;
// lifecycle events use Info for normal transitions, Warn for
// frame-too-large and error closes, and Error for an unreachable pool.
type LogSink struct {
	// Logger receives the records. If nil, slog.Default() is used.
	Logger *slog.Logger
}

func (s *LogSink) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Emit implements Sink.
func (s *LogSink) Emit(event Event) {
	level, text := describe(event.Kind)
	logger := s.logger()
	if !logger.Enabled(context.Background(), level) {
		return
	}

	attrs := []slog.Attr{
		slog.String("event", string(event.Kind)),
		slog.Uint64("session", event.Session),
	}
	if event.Direction != "" {
		attrs = append(attrs, slog.String("direction", string(event.Direction)))
	}
	if event.Client != "" {
		attrs = append(attrs, slog.String("client", event.Client))
	}
	if event.Upstream != "" {
		attrs = append(attrs, slog.String("upstream", event.Upstream))
	}
	if event.Message != nil {
		attrs = append(attrs,
			slog.String("kind", event.Message.Kind()),
			slog.String("digest", event.Digest.String()),
			slog.Any("message", event.Message),
		)
	}
	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}
	if stats := event.Stats; stats != nil {
		attrs = append(attrs,
			slog.Duration("duration", stats.Duration),
			slog.Int64("bytes_client_to_pool", stats.BytesClientToPool),
			slog.Int64("bytes_pool_to_client", stats.BytesPoolToClient),
			slog.Int64("frames_client_to_pool", stats.FramesClientToPool),
			slog.Int64("frames_pool_to_client", stats.FramesPoolToClient),
		)
	}

	logger.LogAttrs(context.Background(), level, text, attrs...)
}

func describe(kind Kind) (slog.Level, string) {
	switch kind {
	case KindSessionOpened:
		return slog.LevelInfo, "session opened"
	case KindUpstreamConnected:
		return slog.LevelInfo, "upstream connected"
	case KindUpstreamUnreachable:
		return slog.LevelError, "upstream unreachable"
	case KindMessage:
		return slog.LevelInfo, "stratum message"
	case KindFrameTooLarge:
		return slog.LevelWarn, "frame too large"
	case KindSessionClosedClean:
		return slog.LevelInfo, "session closed"
	case KindSessionClosedError:
		return slog.LevelWarn, "session closed with error"
	default:
		return slog.LevelInfo, string(kind)
	}
}
