// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"time"

	"github.com/bureau-foundation/stratumtap/lib/stratum"
)

// Kind identifies what an Event reports.
type Kind string

const (
	KindSessionOpened       Kind = "session-opened"
	KindUpstreamConnected   Kind = "upstream-connected"
	KindUpstreamUnreachable Kind = "upstream-unreachable"
	KindMessage             Kind = "message"
	KindFrameTooLarge       Kind = "frame-too-large"
	KindSessionClosedClean  Kind = "session-closed-clean"
	KindSessionClosedError  Kind = "session-closed-error"
)

// Direction names one of the two byte streams of a session.
type Direction string

const (
	// ClientToPool carries miner requests: subscribe, authorize, submit.
	ClientToPool Direction = "client_to_pool"

	// PoolToClient carries pool notifications and responses.
	PoolToClient Direction = "pool_to_client"
)

// Event is one observation emitted by a session. Only the fields
// relevant to Kind are set.
type Event struct {
	Time    time.Time
	Kind    Kind
	Session uint64

	// Direction is set for message and frame-too-large events, and for
	// closed events, where it names the direction that ended first.
	Direction Direction

	// Client and Upstream are the peer addresses. Set on opened,
	// upstream-connected and upstream-unreachable events.
	Client   string
	Upstream string

	// Message and Digest are set for message events.
	Message stratum.Message
	Digest  stratum.Digest

	// Err is the cause for unreachable, frame-too-large and
	// closed-error events.
	Err error

	// Stats is set on closed events.
	Stats *SessionStats
}

// SessionStats summarizes a finished session.
type SessionStats struct {
	Duration           time.Duration `json:"duration"`
	BytesClientToPool  int64         `json:"bytes_client_to_pool"`
	BytesPoolToClient  int64         `json:"bytes_pool_to_client"`
	FramesClientToPool int64         `json:"frames_client_to_pool"`
	FramesPoolToClient int64         `json:"frames_pool_to_client"`
}

// Sink accepts events. Implementations must be safe for concurrent use.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit calls f(event).
func (f SinkFunc) Emit(event Event) { f(event) }

// Discard is a Sink that drops every event.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) Emit(Event) {}

// Multi returns a Sink that emits every event to each non-nil sink in
// order.
func Multi(sinks ...Sink) Sink {
	var targets []Sink
	for _, sink := range sinks {
		if sink != nil {
			targets = append(targets, sink)
		}
	}
	switch len(targets) {
	case 0:
		return Discard
	case 1:
		return targets[0]
	}
	return multiSink(targets)
}

type multiSink []Sink

func (m multiSink) Emit(event Event) {
	for _, sink := range m {
		sink.Emit(event)
	}
}
