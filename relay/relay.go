// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/stratumtap/lib/clock"
	"github.com/bureau-foundation/stratumtap/lib/events"
	"github.com/bureau-foundation/stratumtap/lib/netutil"
)

// acceptRetryDelay spaces out Accept calls after a failure such as
// EMFILE, which repeats until a descriptor is freed.
const acceptRetryDelay = 100 * time.Millisecond

// Relay accepts mining clients on a TCP address and runs a Session for
// each of them against the same upstream pool.
type Relay struct {
	// ListenAddr is the TCP address to listen on (e.g. "127.0.0.1:34255").
	ListenAddr string

	// Connector opens the upstream connection for each session.
	Connector *Connector

	// Sink receives the events of every session. If nil, events are
	// discarded.
	Sink events.Sink

	// Logger receives structured log output. If nil, slog.Default() is
	// used. Lifecycle and accept errors are logged here; per-session
	// observations go to Sink.
	Logger *slog.Logger

	// MaxFrameBytes, ReadBufferBytes and DrainTimeout are copied into
	// every Session.
	MaxFrameBytes   int
	ReadBufferBytes int
	DrainTimeout    time.Duration

	// Clock is passed to every Session. If nil, the real clock is used.
	Clock clock.Clock

	listener    net.Listener
	cancel      context.CancelFunc
	done        chan struct{}
	sessions    sync.WaitGroup
	lastSession uint64
}

// logger returns the configured logger or the default.
func (r *Relay) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Start binds the listener and begins accepting clients in a
// background goroutine. It returns once the listener is bound, or an
// error if binding fails. The upstream is not contacted until a client
// connects. The relay runs until Stop is called or ctx is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	if r.ListenAddr == "" {
		return fmt.Errorf("relay: ListenAddr is required")
	}
	if r.Connector == nil || r.Connector.Address == "" {
		return fmt.Errorf("relay: upstream address is required")
	}

	listener, err := netutil.Listen(ctx, r.ListenAddr)
	if err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	r.listener = listener

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	// Cancellation from the parent context must also unblock Accept.
	stopListening := context.AfterFunc(ctx, func() { listener.Close() })

	go func() {
		defer close(r.done)
		defer stopListening()
		r.acceptLoop(ctx)
	}()

	r.logger().Info("relay started",
		"listen_addr", listener.Addr().String(),
		"upstream", r.Connector.Address,
	)
	return nil
}

// Addr returns the listener's address, useful when binding to port 0.
// Returns nil if the relay has not been started.
func (r *Relay) Addr() net.Addr {
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Stop closes the listener, closes the connections of every running
// session, and waits for all sessions to finish. Calling Stop more
// than once is safe.
func (r *Relay) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	if r.listener != nil {
		r.listener.Close()
	}
	if r.done != nil {
		<-r.done
	}
}

// Wait blocks until the relay has stopped and every session has
// finished.
func (r *Relay) Wait() {
	if r.done != nil {
		<-r.done
	}
}

// acceptLoop accepts clients and runs a Session for each. It waits for
// all sessions to finish before returning, so that closing the done
// channel signals full quiescence.
func (r *Relay) acceptLoop(ctx context.Context) {
	defer r.sessions.Wait()

	for {
		connection, err := r.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			r.logger().Error("accept failed", "error", err, "retry_in", acceptRetryDelay)
			select {
			case <-ctx.Done():
				return
			case <-clock.Or(r.Clock).After(acceptRetryDelay):
			}
			continue
		}

		r.lastSession++
		session := &Session{
			ID:              r.lastSession,
			Client:          connection,
			Connector:       r.Connector,
			Sink:            r.Sink,
			Logger:          r.logger().With("session", r.lastSession),
			MaxFrameBytes:   r.MaxFrameBytes,
			ReadBufferBytes: r.ReadBufferBytes,
			DrainTimeout:    r.DrainTimeout,
			Clock:           r.Clock,
		}

		r.sessions.Add(1)
		go func() {
			defer r.sessions.Done()
			if err := session.Run(ctx); err != nil {
				session.logger().Debug("session ended with error", "error", err)
			}
		}()
	}
}
