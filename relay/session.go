// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/bureau-foundation/stratumtap/lib/clock"
	"github.com/bureau-foundation/stratumtap/lib/events"
	"github.com/bureau-foundation/stratumtap/lib/framing"
	"github.com/bureau-foundation/stratumtap/lib/netutil"
)

// Session pairs one client connection with one upstream connection.
// A Session is run once and never retries.
type Session struct {
	// ID is reported on every event of this session.
	ID uint64

	// Client is the accepted miner connection. Run always closes it.
	Client net.Conn

	// Connector opens the upstream connection.
	Connector *Connector

	// Sink receives lifecycle and message events. If nil, events are
	// discarded.
	Sink events.Sink

	// Logger receives debug output about pump endings. If nil,
	// slog.Default() is used.
	Logger *slog.Logger

	// MaxFrameBytes bounds a single frame in either direction. Zero
	// selects framing.DefaultMaxFrameBytes.
	MaxFrameBytes int

	// ReadBufferBytes is the pump read size. Zero selects
	// DefaultReadBufferBytes.
	ReadBufferBytes int

	// DrainTimeout is how long the session waits, after the first
	// direction ends, for the other direction to end on its own.
	DrainTimeout time.Duration

	// Clock measures session duration and the drain timeout. If nil,
	// the real clock is used.
	Clock clock.Clock
}

func (s *Session) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Session) emit(event events.Event) {
	if s.Sink == nil {
		return
	}
	event.Time = clock.Or(s.Clock).Now()
	event.Session = s.ID
	s.Sink.Emit(event)
}

// Run connects upstream, relays until either side ends, and tears the
// session down. It returns nil for a clean close, the
// *UpstreamUnreachableError when the pool could not be dialed, and
// otherwise the error that ended the first direction.
//
// Cancelling ctx closes both connections, which ends the session as a
// clean close.
func (s *Session) Run(ctx context.Context) error {
	defer s.Client.Close()

	sessionClock := clock.Or(s.Clock)
	started := sessionClock.Now()

	s.emit(events.Event{
		Kind:   events.KindSessionOpened,
		Client: addressString(s.Client.RemoteAddr()),
	})

	upstream, err := s.Connector.Connect(ctx)
	if err != nil {
		s.emit(events.Event{
			Kind:     events.KindUpstreamUnreachable,
			Client:   addressString(s.Client.RemoteAddr()),
			Upstream: s.Connector.Address,
			Err:      err,
		})
		return err
	}
	defer upstream.Close()

	s.emit(events.Event{
		Kind:     events.KindUpstreamConnected,
		Client:   addressString(s.Client.RemoteAddr()),
		Upstream: addressString(upstream.RemoteAddr()),
	})

	closeBoth := func() {
		s.Client.Close()
		upstream.Close()
	}
	stopWatching := context.AfterFunc(ctx, closeBoth)
	defer stopWatching()

	results := make(chan pumpResult, 2)
	go func() { results <- s.newPump(events.ClientToPool, s.Client, upstream).run() }()
	go func() { results <- s.newPump(events.PoolToClient, upstream, s.Client).run() }()

	first := <-results
	netutil.CloseWrite(first.destination)
	s.logger().Debug("direction ended",
		"direction", first.direction,
		"ending", first.ending.String(),
		"error", first.err,
	)

	var second pumpResult
	drained := false
	if s.DrainTimeout > 0 {
		select {
		case second = <-results:
			drained = true
		case <-sessionClock.After(s.DrainTimeout):
			s.logger().Debug("drain timeout elapsed", "timeout", s.DrainTimeout)
		}
	}
	closeBoth()
	if !drained {
		second = <-results
	}

	stats := &events.SessionStats{Duration: sessionClock.Now().Sub(started)}
	for _, result := range []pumpResult{first, second} {
		if result.direction == events.ClientToPool {
			stats.BytesClientToPool = result.bytes
			stats.FramesClientToPool = result.frames
		} else {
			stats.BytesPoolToClient = result.bytes
			stats.FramesPoolToClient = result.frames
		}
		if result.ending == endFrameTooLarge {
			s.emit(events.Event{
				Kind:      events.KindFrameTooLarge,
				Direction: result.direction,
				Err:       result.err,
			})
		}
	}

	if cleanEnding(first) {
		s.emit(events.Event{
			Kind:      events.KindSessionClosedClean,
			Direction: first.direction,
			Stats:     stats,
		})
		return nil
	}

	sessionError := fmt.Errorf("%s: %w", first.direction, first.err)
	s.emit(events.Event{
		Kind:      events.KindSessionClosedError,
		Direction: first.direction,
		Err:       sessionError,
		Stats:     stats,
	})
	return sessionError
}

func (s *Session) newPump(direction events.Direction, source, destination net.Conn) *pump {
	return &pump{
		direction:   direction,
		source:      source,
		destination: destination,
		decoder:     framing.NewDecoder(s.MaxFrameBytes),
		bufferSize:  s.ReadBufferBytes,
		emit:        s.emit,
	}
}

// cleanEnding reports whether a pump stopped because its peer went
// away rather than because of a fault.
func cleanEnding(result pumpResult) bool {
	switch result.ending {
	case endOrderly:
		return true
	case endTransport:
		return netutil.IsExpectedCloseError(result.err)
	default:
		return false
	}
}

func addressString(address net.Addr) string {
	if address == nil {
		return ""
	}
	return address.String()
}
